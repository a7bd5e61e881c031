package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/importar-info/importador/models"
)

// Selector lists known to hold price and gallery markup on the
// supported marketplaces, in reliability order. First match wins.
var (
	priceSelectors = []string{
		`[data-testid="prime-price-label"]`,
		`[data-testid="price-label"]`,
		`.price-label`,
		`span[class*="Price-root"]`,
		`span[class*="price"]`,
	}

	imageSelectors = []string{
		`img[data-testid="gallery-image"]`,
		`.gallery-image`,
		`img[class*="Gallery"]`,
		`.image-gallery-slide img`,
	}
)

var (
	// priceToken matches a digit group with optional thousands grouping
	// and an optional decimal part, e.g. "23.500" or "23.500,50".
	priceToken = regexp.MustCompile(`[0-9]{1,3}(?:[.,][0-9]{3})*(?:,[0-9]{1,2})?`)

	// euroPrice anchors the whole-body fallback to a €/EUR marker so it
	// does not pick up unrelated numbers.
	euroPrice = regexp.MustCompile(`(?i)(?:€|EUR)\s?([0-9]{1,3}(?:[.,][0-9]{3})*(?:,[0-9]{1,2})?)|([0-9]{1,3}(?:[.,][0-9]{3})*(?:,[0-9]{1,2})?)\s?(?:€|EUR)`)

	// firstRegistration looks for the MM/YYYY token near its label in
	// either German or English.
	firstRegistration = regexp.MustCompile(`(?i)(?:EZ|Erstzulassung|First Registration)[^0-9]*([0-9]{2})\s*/\s*([0-9]{4})`)

	// co2Value is a 2-3 digit number immediately followed by a
	// g/km-like unit.
	co2Value = regexp.MustCompile(`(?i)([0-9]{2,3})\s?g\/?km`)
)

// Plausibility bounds for the whole-body price fallback. Selector hits
// are trusted as-is; the body regex is noisy enough to need them.
const (
	minPlausiblePrice = 500
	maxPlausiblePrice = 5_000_000
)

// bodyScanLimit restricts the whole-body price search to the top of the
// page, where the listing price lives.
const bodyScanLimit = 3000

// Heuristic applies the selector and regex rules over the DOM text to
// recover price, image, first registration and CO2. It is the layer
// that works when the page has no structured metadata; every rule is
// best-effort and an unmatched field is simply left empty.
func Heuristic(html string) models.CarFields {
	var fields models.CarFields

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fields
	}

	fields.Price = heuristicPrice(doc)
	fields.ImgURL = heuristicImage(doc)

	bodyText := doc.Find("body").Text()
	fields.FirstRegistration = heuristicFirstRegistration(bodyText, time.Now().Year())
	fields.CO2 = heuristicCO2(bodyText)

	return fields
}

// heuristicPrice tries the selector list first, then falls back to a
// €-anchored regex over the first part of the body text.
func heuristicPrice(doc *goquery.Document) *float64 {
	for _, sel := range priceSelectors {
		text := doc.Find(sel).First().Text()
		if text == "" {
			continue
		}
		if token := priceToken.FindString(text); token != "" {
			if v, ok := parsePriceToken(token); ok {
				return models.Float(v)
			}
		}
	}

	bodyText := doc.Find("body").Text()
	if len(bodyText) > bodyScanLimit {
		bodyText = bodyText[:bodyScanLimit]
	}
	m := euroPrice.FindStringSubmatch(bodyText)
	if m == nil {
		return nil
	}
	token := m[1]
	if token == "" {
		token = m[2]
	}
	v, ok := parsePriceToken(token)
	if !ok || v < minPlausiblePrice || v > maxPlausiblePrice {
		return nil
	}
	return models.Float(v)
}

// parsePriceToken converts a German/European formatted price token to a
// float. Dots are thousands separators and the comma is the decimal
// separator; a lone comma followed by a three-digit group is grouping,
// not a decimal ("23,500" is twenty-three thousand five hundred).
func parsePriceToken(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}

	hasDot := strings.Contains(token, ".")
	hasComma := strings.Contains(token, ",")

	switch {
	case hasDot && hasComma:
		// "23.500,50": dots group, comma is decimal.
		token = strings.ReplaceAll(token, ".", "")
		token = strings.Replace(token, ",", ".", 1)
	case hasComma:
		if groupedNumber.MatchString(token) {
			// "23,500": comma grouping.
			token = strings.ReplaceAll(token, ",", "")
		} else {
			// "23,5": comma decimal.
			token = strings.Replace(token, ",", ".", 1)
		}
	case hasDot:
		if groupedNumberDot.MatchString(token) {
			// "23.500": dot grouping.
			token = strings.ReplaceAll(token, ".", "")
		}
		// Otherwise leave the dot as a decimal point.
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var (
	groupedNumber    = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})+$`)
	groupedNumberDot = regexp.MustCompile(`^[0-9]{1,3}(?:\.[0-9]{3})+$`)
)

func heuristicImage(doc *goquery.Document) string {
	for _, sel := range imageSelectors {
		if src, ok := doc.Find(sel).First().Attr("src"); ok && src != "" {
			return src
		}
	}
	return ""
}

// heuristicFirstRegistration parses the labelled MM/YYYY token into
// YYYY-MM form. A match whose year falls outside (1900, currentYear+1]
// is discarded as noise rather than stored.
func heuristicFirstRegistration(bodyText string, currentYear int) string {
	m := firstRegistration.FindStringSubmatch(bodyText)
	if m == nil {
		return ""
	}
	year, err := strconv.Atoi(m[2])
	if err != nil || year <= 1900 || year > currentYear+1 {
		return ""
	}
	return m[2] + "-" + m[1]
}

func heuristicCO2(bodyText string) *int {
	m := co2Value.FindStringSubmatch(bodyText)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return models.Int(v)
}
