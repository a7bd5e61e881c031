package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/importar-info/importador/config"
	"github.com/importar-info/importador/fetch"
	"github.com/importar-info/importador/llm"
	"github.com/importar-info/importador/models"
)

type stubFetcher struct {
	name  string
	page  *fetch.RawPage
	err   error
	calls int
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*fetch.RawPage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{MaxPromptChars: 30000, MaxJSONLDChars: 15000},
		Log: config.LogConfig{DebugFile: ""},
	}
}

func newScraper(f fetch.Fetcher) *Scraper {
	chain := fetch.NewChain([]fetch.Fetcher{f}, 500)
	ai := llm.NewClient(nil, "", nil) // disabled
	return New(chain, ai, testConfig())
}

func pad(html string) string {
	return html + "<!-- " + strings.Repeat("padding ", 100) + " -->"
}

const listingURL = "https://suchen.mobile.de/auto-inserat/audi-a3-sportback-2-0-tdi/443982745.html"

func TestScrape_StructuredPage(t *testing.T) {
	html := pad(`<html><head>
		<meta property="og:title" content="Audi A3 Sportback 2.0 TDI kaufen">
		<meta property="og:image" content="https://img.mobile.de/a3.jpg">
		<script type="application/ld+json">
		{"@type":"Car","name":"Audi A3 Sportback 2.0 TDI","offers":{"price":23500},"productionDate":"2019-06-01"}
		</script>
	</head><body><p>Erstzulassung 06/2019, 112 g/km</p></body></html>`)

	stub := &stubFetcher{name: config.StrategyHTTPFallback, page: &fetch.RawPage{HTML: html}}
	result, err := newScraper(stub).Scrape(context.Background(), listingURL)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	car := result.Car
	if car.Title != "Audi A3 Sportback 2.0 TDI" {
		t.Errorf("Title = %q", car.Title)
	}
	if car.Price == nil || *car.Price != 23500 {
		t.Errorf("Price = %v, want 23500", car.Price)
	}
	if car.FirstRegistration != "2019-06" {
		t.Errorf("FirstRegistration = %q", car.FirstRegistration)
	}
	if car.Source != models.SourceCheerio {
		t.Errorf("Source = %q, want cheerio for statically parsed HTML", car.Source)
	}
	if result.FetchedWith != config.StrategyHTTPFallback {
		t.Errorf("FetchedWith = %q", result.FetchedWith)
	}
	// Brand and model come from the URL slug as a lower-priority fill.
	if car.Brand != "Audi" || car.Model != "A3" {
		t.Errorf("Brand/Model = %q/%q", car.Brand, car.Model)
	}
}

func TestScrape_CapturedJSONWins(t *testing.T) {
	html := pad(`<html><head>
		<meta property="og:title" content="meta title">
	</head><body></body></html>`)
	payload := []byte(`{"title":"Audi A3 Sportback","price":{"grossAmount":22900},"make":"Audi","model":"A3"}`)

	stub := &stubFetcher{
		name: config.StrategyBrowserLocal,
		page: &fetch.RawPage{HTML: html, JSON: payload},
	}
	result, err := newScraper(stub).Scrape(context.Background(), listingURL)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if result.Car.Title != "Audi A3 Sportback" {
		t.Errorf("Title = %q, want captured JSON to outrank metadata", result.Car.Title)
	}
	if result.Car.Price == nil || *result.Car.Price != 22900 {
		t.Errorf("Price = %v", result.Car.Price)
	}
	if result.Car.Source != models.SourceJSON {
		t.Errorf("Source = %q, want json", result.Car.Source)
	}
}

func TestScrape_BrowserWithoutCaptureTagsDOM(t *testing.T) {
	html := pad(`<html><head>
		<meta property="og:title" content="BMW 320d Touring">
	</head><body><span data-testid="prime-price-label">18.900 €</span></body></html>`)

	stub := &stubFetcher{name: config.StrategyBrowserLocal, page: &fetch.RawPage{HTML: html}}
	result, err := newScraper(stub).Scrape(context.Background(), listingURL)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if result.Car.Source != models.SourceDOM {
		t.Errorf("Source = %q, want dom", result.Car.Source)
	}
}

func TestScrape_DegradedPageStillReturnsRecord(t *testing.T) {
	// Big enough to pass the fetch chain, but nothing extractable and
	// a URL shape the slug parser does not recognise.
	html := pad(`<html><body><p>irrelevant content</p></body></html>`)
	stub := &stubFetcher{name: config.StrategyHTTPFallback, page: &fetch.RawPage{HTML: html}}

	result, err := newScraper(stub).Scrape(context.Background(), "https://www.autoscout24.de/angebote/xyz")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if result.Car.Source != models.SourceError {
		t.Errorf("Source = %q, want error", result.Car.Source)
	}
	if result.Car.Error == "" {
		t.Error("degraded record should carry an error message")
	}
}

func TestScrape_UnsupportedSourceFailsBeforeFetch(t *testing.T) {
	stub := &stubFetcher{name: config.StrategyHTTPFallback, page: &fetch.RawPage{HTML: pad("<html></html>")}}

	_, err := newScraper(stub).Scrape(context.Background(), "https://www.ebay.de/itm/123")
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) || scrapeErr.Code != models.ErrCodeUnsupportedSource {
		t.Fatalf("err = %v, want UNSUPPORTED_SOURCE", err)
	}
	if stub.calls != 0 {
		t.Errorf("fetcher called %d times, want validation before any fetch", stub.calls)
	}
}

func TestScrape_FetchFailureDegradesToManualEntry(t *testing.T) {
	stub := &stubFetcher{name: config.StrategyHTTPFallback, err: errors.New("connection reset")}

	result, err := newScraper(stub).Scrape(context.Background(), listingURL)
	if err != nil {
		t.Fatalf("Scrape: %v, want a degraded record instead of an error", err)
	}
	if result.Car.Source != models.SourceError {
		t.Errorf("Source = %q, want error", result.Car.Source)
	}
	if !strings.Contains(result.Car.Error, "manually") {
		t.Errorf("Error = %q, want a manual-entry hint", result.Car.Error)
	}
	// The URL slug is still mined so manual entry starts pre-filled.
	if result.Car.Brand != "Audi" || result.Car.Model != "A3" {
		t.Errorf("Brand/Model = %q/%q, want slug fallback", result.Car.Brand, result.Car.Model)
	}
	if result.FetchedWith != "" {
		t.Errorf("FetchedWith = %q, want empty when no strategy delivered", result.FetchedWith)
	}
}

func TestScrape_CanceledContextIsStillAnError(t *testing.T) {
	stub := &stubFetcher{name: config.StrategyHTTPFallback, err: errors.New("connection reset")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newScraper(stub).Scrape(ctx, listingURL); err == nil {
		t.Fatal("want an error when the caller gave up, not a degraded record")
	}
}

func TestScrape_AIFillsDetailFields(t *testing.T) {
	// Metadata and selectors cover title, price, registration and CO2,
	// but mileage, power, fuel and seller type only exist in prose the
	// model can read.
	html := pad(`<html><head>
		<meta property="og:title" content="Audi A3 Sportback 2.0 TDI">
	</head><body>
		<span data-testid="prime-price-label">23.500 €</span>
		<p>Erstzulassung 06/2019, 112 g/km. Scheckheftgepflegter Diesel vom Händler, 84.000 km, 150 PS.</p>
	</body></html>`)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		answer := `{"mileage":84000,"powerHp":150,"fuelType":"Diesel","sellerType":"Dealer","brand":"Audi","model":"A3"}`
		body := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": answer}}}},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	ai := llm.NewClient(srv.Client(), "test-key", []string{"gemini-1.5-flash"})
	ai.BaseURL = srv.URL

	stub := &stubFetcher{name: config.StrategyHTTPFallback, page: &fetch.RawPage{HTML: html}}
	chain := fetch.NewChain([]fetch.Fetcher{stub}, 500)
	sc := New(chain, ai, testConfig())

	result, err := sc.Scrape(context.Background(), listingURL)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if calls == 0 {
		t.Fatal("model never called even though detail fields were missing")
	}
	car := result.Car
	if car.Mileage == nil || *car.Mileage != 84000 {
		t.Errorf("Mileage = %v, want 84000 from the model", car.Mileage)
	}
	if car.FuelType != "Diesel" || car.SellerType != models.SellerDealer {
		t.Errorf("FuelType/SellerType = %q/%q", car.FuelType, car.SellerType)
	}
	// The cheap extractors still outrank the model on their fields.
	if car.Price == nil || *car.Price != 23500 {
		t.Errorf("Price = %v, want 23500 from the page", car.Price)
	}
}

func TestNeedsAI(t *testing.T) {
	full := models.CarFields{
		Title: "Audi A3", ImgURL: "https://img/a3.jpg",
		Price: models.Float(23500), FirstRegistration: "2019-06",
		CO2: models.Int(112), Mileage: models.Float(84000), PowerHP: models.Float(150),
		SellerType: models.SellerDealer, Brand: "Audi", Model: "A3", FuelType: "Diesel",
	}
	if needsAI(full) {
		t.Error("complete record should skip the model")
	}

	coreOnly := models.CarFields{
		Title: "Audi A3", Price: models.Float(23500),
		FirstRegistration: "2019-06", CO2: models.Int(112),
	}
	if !needsAI(coreOnly) {
		t.Error("missing detail fields should still trigger the model")
	}

	noMileage := full
	noMileage.Mileage = nil
	if !needsAI(noMileage) {
		t.Error("missing mileage should trigger the model")
	}
}

func TestScrape_CO2BackfilledFromLookup(t *testing.T) {
	// Listing has brand, model and fuel but no CO2 anywhere.
	payload := []byte(`{"title":"Audi A3","price":{"grossAmount":20000},"make":"Audi","model":"A3","fuel":"Diesel","firstRegistration":"2020-05-01"}`)
	stub := &stubFetcher{
		name: config.StrategyBrowserLocal,
		page: &fetch.RawPage{HTML: pad("<html><body>listing</body></html>"), JSON: payload},
	}

	result, err := newScraper(stub).Scrape(context.Background(), listingURL)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if result.Car.CO2 == nil {
		t.Fatal("CO2 should be backfilled from the emissions table")
	}
	if *result.Car.CO2 != 112 {
		t.Errorf("CO2 = %d, want 112", *result.Car.CO2)
	}
}

func TestSourceTag(t *testing.T) {
	captured := models.CarFields{Price: models.Float(1)}
	empty := models.CarFields{}

	cases := []struct {
		captured    models.CarFields
		fetchedWith string
		want        string
	}{
		{captured, config.StrategyHTTPFallback, models.SourceJSON},
		{empty, config.StrategyBrowserLocal, models.SourceDOM},
		{empty, config.StrategyBrowserHosted, models.SourceDOM},
		{empty, config.StrategyHTTPFallback, models.SourceCheerio},
		{empty, config.StrategyProxy, models.SourceCheerio},
	}

	for i, tc := range cases {
		if got := sourceTag(tc.captured, tc.fetchedWith); got != tc.want {
			t.Errorf("case %d: sourceTag = %q, want %q", i, got, tc.want)
		}
	}
}
