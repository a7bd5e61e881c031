package fetch

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/importar-info/importador/config"
)

// HeadlessFetcher drives a headless Chrome in a constrained server
// environment. Unlike BrowserFetcher it always runs headless, blocks
// non-essential resource loads to stay within serverless memory and
// time limits, and does not keep a profile between requests.
type HeadlessFetcher struct {
	browserCfg config.BrowserConfig
	fetchCfg   config.FetchConfig
}

// NewHeadlessFetcher creates the hosted headless strategy.
func NewHeadlessFetcher(browserCfg config.BrowserConfig, fetchCfg config.FetchConfig) *HeadlessFetcher {
	return &HeadlessFetcher{browserCfg: browserCfg, fetchCfg: fetchCfg}
}

func (f *HeadlessFetcher) Name() string { return config.StrategyBrowserHosted }

// Fetch renders the listing with resource blocking and returns the
// resulting HTML. Browser teardown is guaranteed by the context
// cancellations on every exit path.
func (f *HeadlessFetcher) Fetch(ctx context.Context, targetURL string) (*RawPage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(chromeUA),
	)
	if f.browserCfg.Bin != "" {
		opts = append(opts, chromedp.ExecPath(f.browserCfg.Bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.fetchCfg.NavTimeout)
	defer cancelTimeout()

	blockHeavyResources(taskCtx)

	var html string
	err := chromedp.Run(taskCtx,
		cdpfetch.Enable(),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
		// Short hydration wait; the full settle wait is a local-browser
		// affordance this environment cannot pay for.
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, categorizeError(err, "headless navigation failed")
	}

	return &RawPage{HTML: html, Source: f.Name()}, nil
}

// blockHeavyResources aborts image/stylesheet/font/media requests via
// the Fetch domain so the constrained environment only pays for the
// document and its scripts.
func blockHeavyResources(taskCtx context.Context) {
	chromedp.ListenTarget(taskCtx, func(ev any) {
		paused, ok := ev.(*cdpfetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(taskCtx)
			ectx := cdp.WithExecutor(taskCtx, c.Target)
			switch paused.ResourceType {
			case network.ResourceTypeImage,
				network.ResourceTypeStylesheet,
				network.ResourceTypeFont,
				network.ResourceTypeMedia:
				_ = cdpfetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(ectx)
			default:
				_ = cdpfetch.ContinueRequest(paused.RequestID).Do(ectx)
			}
		}()
	})
}
