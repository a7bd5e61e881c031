package llm

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// PromptLimits caps how much page material ends up in the prompt.
type PromptLimits struct {
	MaxPromptChars int
	MaxJSONLDChars int
}

var whitespace = regexp.MustCompile(`\s+`)

// BuildPrompt assembles the extraction prompt from a listing page:
// any JSON-LD blocks first (they carry the most reliable data), then
// the readable page text, both truncated to the configured limits.
func BuildPrompt(html, pageURL string, limits PromptLimits) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var jsonLD strings.Builder
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if jsonLD.Len() >= limits.MaxJSONLDChars {
			return
		}
		block := strings.TrimSpace(s.Text())
		if block == "" {
			return
		}
		remaining := limits.MaxJSONLDChars - jsonLD.Len()
		if len(block) > remaining {
			block = block[:remaining]
		}
		jsonLD.WriteString(block)
		jsonLD.WriteString("\n")
	})

	text := flattenPage(html, pageURL, doc)
	if jsonLD.Len() == 0 && text == "" {
		return ""
	}

	budget := limits.MaxPromptChars - jsonLD.Len()
	if budget < 0 {
		budget = 0
	}
	if len(text) > budget {
		text = text[:budget]
	}

	return fmt.Sprintf(`Extract vehicle listing data from this car marketplace page and return it as JSON.

Rules:
- Return ONLY valid JSON, no markdown fences or explanation.
- If a field cannot be found, use null.
- price is the gross asking price in euros as a number.
- firstRegistration is formatted "YYYY-MM".
- co2 is grams per kilometre as an integer.
- mileage is kilometres as a number, powerHp is horsepower as a number.
- sellerType is "dealer" or "private".

Fields: title, imgUrl, price, firstRegistration, co2, mileage, powerHp, sellerType, brand, model, fuelType

Structured data from the page:
%s

Page text:
%s`, jsonLD.String(), text)
}

// flattenPage reduces the page to plain text, preferring readability's
// article extraction and falling back to stripping the DOM directly.
func flattenPage(html, pageURL string, doc *goquery.Document) string {
	if u, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(html), u); err == nil {
			if text := strings.TrimSpace(article.TextContent); text != "" {
				return whitespace.ReplaceAllString(text, " ")
			}
		}
	}
	doc.Find("script, style, noscript, svg").Remove()
	return whitespace.ReplaceAllString(strings.TrimSpace(doc.Text()), " ")
}
