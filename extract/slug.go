package extract

import (
	"regexp"
	"strings"

	"github.com/importar-info/importador/models"
)

var (
	// mobile.de listing paths look like
	// /auto-inserat/audi-a3-spb-2-0-tdi-ambiente-san-miniato/443982745.html
	slugPath = regexp.MustCompile(`/auto-inserat/([^/]+)/([0-9]+)\.html`)

	// A four-digit year token bounded by hyphens inside the slug.
	slugYear = regexp.MustCompile(`-((?:19|20)[0-9]{2})-`)
)

// Slug derives an approximate title and registration year purely from
// the listing URL path. It is the zero-I/O last resort when every
// network strategy failed, and it never fails itself: a URL without the
// expected pattern yields an empty partial.
//
// The emitted registration date uses January as the month: the slug
// carries no month information, so YYYY-01 is an approximation.
func Slug(rawURL string) models.CarFields {
	var fields models.CarFields

	m := slugPath.FindStringSubmatch(rawURL)
	if m == nil {
		return fields
	}
	slug := m[1]
	parts := strings.Split(slug, "-")

	brand := capitalize(part(parts, 0))
	model := capitalize(part(parts, 1))
	trim := strings.Join(slice(parts, 2, 6), " ")

	fields.Title = strings.Join(nonEmpty(brand, model, trim), " ")
	fields.Brand = brand
	fields.Model = model

	if ym := slugYear.FindStringSubmatch(slug); ym != nil {
		fields.FirstRegistration = ym[1] + "-01"
	}

	return fields
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func slice(parts []string, from, to int) []string {
	if from >= len(parts) {
		return nil
	}
	if to > len(parts) {
		to = len(parts)
	}
	return parts[from:to]
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
