package models

import (
	"net/url"
	"strings"
)

// allowedSources is the allow-list of marketplace hosts the pipeline
// accepts. Subdomains of each entry are allowed too (suchen.mobile.de,
// www.autoscout24.es, …).
var allowedSources = []string{
	"mobile.de",
	"autoscout24.de",
	"autoscout24.com",
	"autoscout24.es",
	"autoscout24.it",
	"autoscout24.fr",
}

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the listing page to scrape. Required.
	URL string `json:"url" binding:"required,url"`
}

// Validate checks that the URL belongs to a supported marketplace.
// It runs before any network I/O; an unsupported source is the only
// failure that surfaces to the caller as a hard error.
func (r *ScrapeRequest) Validate() error {
	u, err := url.Parse(r.URL)
	if err != nil || u.Host == "" {
		return NewScrapeError(ErrCodeInvalidInput, "not a valid listing URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewScrapeError(ErrCodeInvalidInput, "listing URL must be http(s)", nil)
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedSources {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return NewScrapeError(
		ErrCodeUnsupportedSource,
		"only mobile.de and AutoScout24 listings are supported",
		nil,
	)
}
