// Package scrape orchestrates the full listing pipeline: fetch the
// page through the strategy chain, run every extractor, merge their
// partials by priority and backfill the gaps from the URL slug and the
// emissions table.
package scrape

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/importar-info/importador/co2"
	"github.com/importar-info/importador/config"
	"github.com/importar-info/importador/extract"
	"github.com/importar-info/importador/fetch"
	"github.com/importar-info/importador/llm"
	"github.com/importar-info/importador/models"
)

// Scraper runs the listing pipeline.
type Scraper struct {
	chain    *fetch.Chain
	ai       *llm.Client
	limits   llm.PromptLimits
	debugLog *debugLog
}

// Result is one completed pipeline run.
type Result struct {
	Car         *models.CarData
	FetchedWith string
	Timing      models.TimingInfo
}

// New builds a Scraper. The LLM client may be disabled; the pipeline
// then simply skips the AI extractor.
func New(chain *fetch.Chain, ai *llm.Client, cfg *config.Config) *Scraper {
	return &Scraper{
		chain:    chain,
		ai:       ai,
		limits:   llm.PromptLimits{MaxPromptChars: cfg.LLM.MaxPromptChars, MaxJSONLDChars: cfg.LLM.MaxJSONLDChars},
		debugLog: newDebugLog(cfg.Log.DebugFile),
	}
}

// Scrape resolves a listing URL into a vehicle record. It returns an
// error only for invalid or unsupported input, or a caller that gave
// up. Everything past validation degrades instead of failing: a page
// that yields no usable fields, and even every fetch strategy failing,
// still produce a record tagged with an error source so the frontend
// can fall back to manual entry.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()

	req := models.ScrapeRequest{URL: rawURL}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	page, err := s.chain.Fetch(ctx, rawURL)
	fetchMs := time.Since(start).Milliseconds()
	if err != nil {
		s.debugLog.append(rawURL, "", nil, err)
		if ctx.Err() != nil {
			return nil, err
		}
		return s.degraded(rawURL, err, start, fetchMs), nil
	}

	extractStart := time.Now()
	car := s.extract(ctx, rawURL, page)
	extractMs := time.Since(extractStart).Milliseconds()

	s.debugLog.append(rawURL, page.Source, car, nil)
	slog.Info("scrape complete",
		"url", rawURL,
		"fetchedWith", page.Source,
		"source", car.Source,
		"hasPrice", car.Price != nil,
		"totalMs", time.Since(start).Milliseconds())

	return &Result{
		Car:         car,
		FetchedWith: page.Source,
		Timing: models.TimingInfo{
			TotalMs:   time.Since(start).Milliseconds(),
			FetchMs:   fetchMs,
			ExtractMs: extractMs,
		},
	}, nil
}

// degraded builds the record returned when no fetch strategy delivered
// a page. The URL slug is the only data source left; the error-tagged
// record tells the frontend to offer manual entry.
func (s *Scraper) degraded(rawURL string, err error, start time.Time, fetchMs int64) *Result {
	slog.Warn("all fetch strategies failed, degrading to manual entry",
		"url", rawURL, "error", err)

	car := &models.CarData{
		CarFields: extract.Slug(rawURL),
		Source:    models.SourceError,
		Error:     "could not fetch the listing page, please fill in the details manually",
	}
	return &Result{
		Car: car,
		Timing: models.TimingInfo{
			TotalMs: time.Since(start).Milliseconds(),
			FetchMs: fetchMs,
		},
	}
}

// extract runs every extractor over the fetched page and folds their
// partials into one record. Extractor failures never fail the scrape.
func (s *Scraper) extract(ctx context.Context, rawURL string, page *fetch.RawPage) *models.CarData {
	captured := extract.JSONCapture(page.JSON)
	structured := extract.Structured(page.HTML)
	heuristic := extract.Heuristic(page.HTML)

	contributions := []extract.Contribution{
		{Name: extract.ByJSONCapture, Fields: captured},
		{Name: extract.ByStructured, Fields: structured},
		{Name: extract.ByHeuristic, Fields: heuristic},
	}

	// The AI pass is the expensive one; only pay for it when the
	// cheap extractors left any field open.
	preliminary := extract.Merge(contributions)
	if s.ai != nil && s.ai.Enabled() && needsAI(preliminary) {
		prompt := llm.BuildPrompt(page.HTML, rawURL, s.limits)
		aiFields, err := s.ai.Extract(ctx, prompt)
		if err != nil {
			slog.Warn("ai extraction failed", "url", rawURL, "error", err)
		} else {
			contributions = append(contributions, extract.Contribution{Name: extract.ByAI, Fields: aiFields})
		}
	}

	fields := extract.Merge(contributions)
	fields.Fill(extract.Slug(rawURL))
	fillCO2(&fields)

	car := &models.CarData{
		CarFields: fields,
		Source:    sourceTag(captured, page.Source),
	}
	if !car.HasCoreFields() {
		car.Source = models.SourceError
		car.Error = "no usable listing data found on page"
	}
	return car
}

// needsAI reports whether the cheap extractors left open any field the
// model could still supply. Mileage, power, fuel, seller type and the
// brand/model split rarely appear in metadata, so in practice only a
// complete captured-JSON record skips the pass.
func needsAI(fields models.CarFields) bool {
	return fields.Price == nil || fields.Title == "" || fields.FirstRegistration == "" ||
		fields.CO2 == nil || fields.Mileage == nil || fields.PowerHP == nil ||
		fields.Brand == "" || fields.Model == "" || fields.FuelType == "" || fields.SellerType == ""
}

// fillCO2 backfills emissions from the lookup table when the listing
// did not state them.
func fillCO2(fields *models.CarFields) {
	if fields.CO2 != nil || fields.Brand == "" {
		return
	}
	year := 0
	if len(fields.FirstRegistration) >= 4 {
		year, _ = strconv.Atoi(fields.FirstRegistration[:4])
	}
	if result, ok := co2.Lookup(fields.Brand, fields.Model, year, fields.FuelType); ok {
		fields.CO2 = models.Int(result.CO2)
		slog.Debug("co2 backfilled", "brand", fields.Brand, "model", fields.Model,
			"co2", result.CO2, "confidence", result.Confidence)
	}
}

// sourceTag labels where the record's data came from: the intercepted
// details JSON, a browser-rendered DOM, or statically parsed HTML.
func sourceTag(captured models.CarFields, fetchedWith string) string {
	if !captured.IsEmpty() {
		return models.SourceJSON
	}
	switch fetchedWith {
	case config.StrategyBrowserLocal, config.StrategyBrowserHosted:
		return models.SourceDOM
	default:
		return models.SourceCheerio
	}
}
