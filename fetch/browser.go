package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/importar-info/importador/config"
	"github.com/importar-info/importador/models"
)

// BrowserFetcher drives a real Chrome instance against the listing URL.
// It reuses a persistent profile directory so cookie consent and any
// manually-solved CAPTCHA survive between requests; when that profile
// is locked by another process it falls back to an ephemeral profile
// within the same attempt.
//
// The browser is launched per request and torn down on every exit path
// so repeated failures cannot leak Chrome processes.
type BrowserFetcher struct {
	browserCfg config.BrowserConfig
	fetchCfg   config.FetchConfig
}

// NewBrowserFetcher creates the local browser strategy.
func NewBrowserFetcher(browserCfg config.BrowserConfig, fetchCfg config.FetchConfig) *BrowserFetcher {
	return &BrowserFetcher{browserCfg: browserCfg, fetchCfg: fetchCfg}
}

func (f *BrowserFetcher) Name() string { return config.StrategyBrowserLocal }

// Fetch navigates to the listing, dismisses cookie consent, waits for
// dynamic content, and captures the rendered HTML plus any details
// JSON intercepted from network traffic.
func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL string) (*RawPage, error) {
	browser, l, err := f.launch()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = browser.Close()
		l.Kill()
	}()

	// Stealth page masks navigator.webdriver and friends before any
	// navigation happens.
	page, err := stealth.Page(browser)
	if err != nil {
		slog.Warn("browser-local: stealth page failed, using plain page", "error", err)
		page, err = browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
		}
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx)

	// The response listener must be installed before Navigate or
	// in-flight details requests would be missed.
	capture := watchForDetailsJSON(p)

	if err := p.Timeout(f.fetchCfg.NavTimeout).Navigate(targetURL); err != nil {
		return nil, categorizeError(err, "navigation to listing failed")
	}

	dismissCookieConsent(p)

	// Fixed settle wait: lets the SPA hydrate, and in headed mode gives
	// a human time to clear a CAPTCHA.
	select {
	case <-time.After(f.fetchCfg.SettleWait):
	case <-ctx.Done():
		return nil, categorizeError(ctx.Err(), "canceled during settle wait")
	}

	// Bounded network-idle wait. Timing out here is not a failure.
	waitIdle := p.Timeout(f.fetchCfg.IdleTimeout).WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	waitIdle()

	html, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract rendered HTML")
	}

	return &RawPage{
		HTML:   html,
		JSON:   capture.payload(),
		Source: f.Name(),
	}, nil
}

// launch starts Chrome with the persistent profile, falling back to an
// ephemeral profile when the persistent one cannot be used (typically
// locked by another browser instance).
func (f *BrowserFetcher) launch() (*rod.Browser, *launcher.Launcher, error) {
	l := f.newLauncher(f.browserCfg.ProfileDir)
	controlURL, err := l.Launch()
	if err != nil {
		slog.Warn("browser-local: persistent profile launch failed, retrying with ephemeral profile",
			"profile", f.browserCfg.ProfileDir, "error", err)
		l = f.newLauncher("")
		controlURL, err = l.Launch()
		if err != nil {
			return nil, nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
		}
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	return browser, l, nil
}

func (f *BrowserFetcher) newLauncher(profileDir string) *launcher.Launcher {
	l := launcher.New().
		Headless(f.browserCfg.Headless).
		NoSandbox(f.browserCfg.NoSandbox)

	if f.browserCfg.Bin != "" {
		l = l.Bin(f.browserCfg.Bin)
	}
	if profileDir != "" {
		l = l.UserDataDir(profileDir)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-popup-blocking"))
	return l
}

// consentSelectors cover the consent dialogs of both supported
// marketplaces plus generic CMP banners.
var consentSelectors = []string{
	"button.mde-consent-accept-btn",
	"button[data-testid='as24-cmp-accept-all-button']",
	"button[id*='consent']",
	"button[class*='consent']",
	"#gdpr-banner-accept",
}

// dismissCookieConsent clicks a consent accept button if one is
// present. Best-effort: a missing dialog is the normal case on a warm
// profile.
func dismissCookieConsent(p *rod.Page) {
	for _, sel := range consentSelectors {
		el, err := p.Timeout(2 * time.Second).Element(sel)
		if err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			slog.Debug("browser-local: cookie consent dismissed", "selector", sel)
			time.Sleep(2 * time.Second)
			return
		}
	}

	// Text match fallback for buttons without stable attributes.
	if el, err := p.Timeout(2*time.Second).ElementR("button", "/Akzeptieren|Accept All|Alle akzeptieren/i"); err == nil {
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			slog.Debug("browser-local: cookie consent dismissed by text match")
			time.Sleep(2 * time.Second)
		}
	}
}

// jsonCapture accumulates the first details-endpoint payload seen while
// the page renders.
type jsonCapture struct {
	mu   sync.Mutex
	data []byte
}

func (c *jsonCapture) payload() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

func (c *jsonCapture) set(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = data
	}
}

// watchForDetailsJSON listens for network responses that look like the
// marketplace's own details/data endpoint and keeps the first body that
// parses as a car-like object. The listener dies with the page context.
func watchForDetailsJSON(p *rod.Page) *jsonCapture {
	capture := &jsonCapture{}

	_ = proto.NetworkEnable{}.Call(p)
	wait := p.EachEvent(func(e *proto.NetworkResponseReceived) {
		if !looksLikeDetailsEndpoint(e.Response.URL) {
			return
		}
		res, err := proto.NetworkGetResponseBody{RequestID: e.RequestID}.Call(p)
		if err != nil {
			return
		}
		body := []byte(res.Body)
		if res.Base64Encoded {
			decoded, decErr := base64.StdEncoding.DecodeString(res.Body)
			if decErr != nil {
				return
			}
			body = decoded
		}
		if !looksLikeCarJSON(body) {
			return
		}
		slog.Debug("browser-local: captured details JSON", "url", e.Response.URL, "bytes", len(body))
		capture.set(body)
	})
	go wait()

	return capture
}

// looksLikeDetailsEndpoint filters network URLs down to candidate
// details/data endpoints, skipping ad and analytics traffic.
func looksLikeDetailsEndpoint(rawURL string) bool {
	u := strings.ToLower(rawURL)
	if strings.Contains(u, "google") || strings.Contains(u, "facebook") {
		return false
	}
	if !strings.Contains(u, "json") && !strings.Contains(u, "api") {
		return false
	}
	return strings.Contains(u, "details") || strings.Contains(u, "data")
}

// looksLikeCarJSON reports whether a body parses as an object carrying
// car-like keys: make+model, an id, or a data wrapper.
func looksLikeCarJSON(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return false
	}
	if _, ok := obj["data"]; ok {
		return true
	}
	if _, ok := obj["id"]; ok {
		return true
	}
	_, hasMake := obj["make"]
	_, hasModel := obj["model"]
	return hasMake && hasModel
}

// categorizeError wraps raw browser errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
