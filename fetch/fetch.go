package fetch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/importar-info/importador/models"
)

// RawPage is the output of a single fetch strategy: rendered (or raw)
// HTML plus an optional JSON payload intercepted from network traffic
// during rendering. It is consumed by the extractors and discarded
// after extraction, never persisted.
type RawPage struct {
	HTML string

	// JSON is a marketplace details/data endpoint payload captured
	// while the page rendered, when the strategy supports interception.
	JSON []byte

	// Source names the strategy that produced the page:
	// browser-local, browser-hosted, http-fallback, third-party-proxy.
	Source string
}

// Fetcher is a single page-retrieval strategy.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (*RawPage, error)
}

// Chain attempts fetchers sequentially in a fixed order and commits to
// the first one that returns usable HTML. Each strategy is attempted
// exactly once; there is no retry or backoff. A strategy's failure is
// logged and chained, never fatal on its own.
type Chain struct {
	fetchers      []Fetcher
	minHTMLLength int
}

// NewChain builds a chain over the given fetchers. minHTMLLength is the
// threshold below which a response is treated as blocked or empty.
func NewChain(fetchers []Fetcher, minHTMLLength int) *Chain {
	return &Chain{fetchers: fetchers, minHTMLLength: minHTMLLength}
}

// Names returns the strategy names in attempt order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.fetchers))
	for i, f := range c.fetchers {
		names[i] = f.Name()
	}
	return names
}

// Fetch runs the chain. On success the returned RawPage carries the
// winning strategy's name. Exhausting every strategy yields a
// FETCH_EXHAUSTED error wrapping the last failure; the orchestrator
// converts it to a soft record, it never reaches the caller as a panic
// or thrown error.
func (c *Chain) Fetch(ctx context.Context, url string) (*RawPage, error) {
	var lastErr error

	for _, f := range c.fetchers {
		if err := ctx.Err(); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeTimeout, "fetch chain canceled", err)
		}

		slog.Info("fetch: trying strategy", "strategy", f.Name(), "url", url)
		page, err := f.Fetch(ctx, url)
		if err != nil {
			slog.Warn("fetch: strategy failed", "strategy", f.Name(), "url", url, "error", err)
			lastErr = err
			continue
		}

		if reason := unusableReason(page.HTML, c.minHTMLLength); reason != "" {
			slog.Warn("fetch: strategy returned unusable HTML",
				"strategy", f.Name(), "url", url, "reason", reason, "length", len(page.HTML))
			lastErr = models.NewScrapeError(models.ErrCodeBlocked, reason, nil)
			continue
		}

		page.Source = f.Name()
		slog.Info("fetch: strategy succeeded",
			"strategy", f.Name(), "url", url,
			"length", len(page.HTML), "json_captured", len(page.JSON) > 0)
		return page, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no fetch strategies configured")
	}
	return nil, models.NewScrapeError(models.ErrCodeFetchExhausted, "all fetch strategies failed", lastErr)
}
