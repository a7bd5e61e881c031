package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/importar-info/importador/models"
)

// Structured recovers fields from embedded page metadata: Open Graph /
// Twitter meta tags first, then JSON-LD blocks. Metadata is the most
// reliable in-page source for title and image; JSON-LD occasionally
// also carries price and production date on well-annotated listings.
//
// Never fails: absent or malformed metadata yields an empty partial.
func Structured(html string) models.CarFields {
	var fields models.CarFields

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fields
	}

	fields.Title = metaContent(doc, `meta[property="og:title"]`)
	if fields.Title == "" {
		fields.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	fields.Title = trimMarketingSuffix(fields.Title)

	fields.ImgURL = metaContent(doc, `meta[property="og:image"]`)
	if fields.ImgURL == "" {
		fields.ImgURL = metaContent(doc, `meta[name="twitter:image"]`)
	}

	// JSON-LD pass. Each block is parsed independently; a malformed
	// block is skipped, never aborts the scan.
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		applyJSONLD(s.Text(), &fields)
		// Stop early once everything JSON-LD can contribute is filled.
		return fields.Title == "" || fields.ImgURL == "" || fields.Price == nil || fields.FirstRegistration == ""
	})

	return fields
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// trimMarketingSuffix strips the trailing "kaufen"/"buy" both
// marketplaces append to listing titles.
func trimMarketingSuffix(title string) string {
	title = strings.TrimSpace(title)
	for _, suffix := range []string{"kaufen", "buy"} {
		if strings.HasSuffix(strings.ToLower(title), suffix) {
			title = strings.TrimSpace(title[:len(title)-len(suffix)])
		}
	}
	return title
}

// jsonLDItem is the subset of schema.org Vehicle/Car/Product we read.
type jsonLDItem struct {
	Type           string          `json:"@type"`
	Name           string          `json:"name"`
	Image          json.RawMessage `json:"image"`
	ProductionDate string          `json:"productionDate"`
	Offers         struct {
		Price json.Number `json:"price"`
	} `json:"offers"`
}

// applyJSONLD parses one JSON-LD block (object or array form) and fills
// still-empty fields from recognised vehicle items.
func applyJSONLD(raw string, fields *models.CarFields) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}

	var items []jsonLDItem
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return
		}
	} else {
		var item jsonLDItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return
		}
		items = []jsonLDItem{item}
	}

	for _, item := range items {
		switch item.Type {
		case "Vehicle", "Car", "Product":
		default:
			// Image-only fallback below still applies to untyped items.
			if fields.ImgURL == "" {
				if img := firstImageURL(item.Image); img != "" {
					fields.ImgURL = img
				}
			}
			continue
		}

		if fields.Title == "" && item.Name != "" {
			fields.Title = trimMarketingSuffix(item.Name)
		}
		if fields.ImgURL == "" {
			fields.ImgURL = firstImageURL(item.Image)
		}
		if fields.Price == nil {
			if p, err := item.Offers.Price.Float64(); err == nil && p > 0 {
				fields.Price = models.Float(p)
			}
		}
		if fields.FirstRegistration == "" && len(item.ProductionDate) >= 7 {
			fields.FirstRegistration = item.ProductionDate[:7]
		}
	}
}

// firstImageURL handles the image property's string, array and object
// forms and returns the first URL found.
func firstImageURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.URL != "" {
		return strings.TrimSpace(obj.URL)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if url := firstImageURL(item); url != "" {
				return url
			}
		}
	}
	return ""
}
