package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/importar-info/importador/config"
)

const scraperAPIBase = "https://api.scraperapi.com/"

// ProxyFetcher delegates page retrieval to ScraperAPI, an external
// rendering proxy. It is the last rung of the chain: slow and metered,
// but it renders JavaScript behind residential proxies when every
// self-hosted strategy has been blocked.
type ProxyFetcher struct {
	cfg    config.ProxyConfig
	client *http.Client

	// baseURL is overridable for tests.
	baseURL string
}

// NewProxyFetcher creates the render-proxy strategy.
func NewProxyFetcher(cfg config.ProxyConfig) *ProxyFetcher {
	return &ProxyFetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: scraperAPIBase,
	}
}

func (f *ProxyFetcher) Name() string { return config.StrategyProxy }

func (f *ProxyFetcher) Fetch(ctx context.Context, targetURL string) (*RawPage, error) {
	if f.cfg.APIKey == "" {
		return nil, fmt.Errorf("third-party-proxy: no API key configured")
	}

	params := url.Values{}
	params.Set("api_key", f.cfg.APIKey)
	params.Set("url", targetURL)
	params.Set("render", strconv.FormatBool(f.cfg.Render))
	if f.cfg.CountryCode != "" {
		params.Set("country_code", f.cfg.CountryCode)
	}
	params.Set("premium", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("third-party-proxy: build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("third-party-proxy: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("third-party-proxy: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("third-party-proxy: HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return &RawPage{HTML: string(body), Source: f.Name()}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
