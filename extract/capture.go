package extract

import (
	"encoding/json"
	"strings"

	"github.com/importar-info/importador/models"
)

// JSONCapture maps a details-endpoint payload intercepted during
// browser rendering into vehicle fields. The payload shape varies by
// marketplace and page version, so every value is probed at a few known
// nestings (top level, under "data", under "financing") and silently
// skipped when absent or mistyped.
//
// Never fails: an unparseable payload yields an empty partial.
func JSONCapture(payload []byte) models.CarFields {
	var fields models.CarFields
	if len(payload) == 0 {
		return fields
	}

	var root map[string]any
	if err := json.Unmarshal(payload, &root); err != nil {
		return fields
	}

	// Probe the wrapper variants; the "data" object mirrors the top
	// level on newer pages.
	scopes := []map[string]any{root}
	if data, ok := root["data"].(map[string]any); ok {
		scopes = append(scopes, data)
	}

	for _, scope := range scopes {
		if fields.Price == nil {
			if v, ok := nestedNumber(scope, "price", "grossAmount"); ok {
				fields.Price = models.Float(v)
			} else if v, ok := nestedNumber(scope, "financing", "price", "grossAmount"); ok {
				fields.Price = models.Float(v)
			}
		}

		if fields.Brand == "" {
			fields.Brand, _ = scope["make"].(string)
		}
		if fields.Model == "" {
			fields.Model, _ = scope["model"].(string)
		}
		if fields.FuelType == "" {
			fields.FuelType, _ = scope["fuel"].(string)
		}

		if fields.Title == "" {
			if t, ok := scope["title"].(string); ok && t != "" {
				fields.Title = t
			} else if fields.Brand != "" && fields.Model != "" {
				desc, _ := scope["modelDescription"].(string)
				fields.Title = strings.TrimSpace(fields.Brand + " " + fields.Model + " " + desc)
			}
		}

		if fields.ImgURL == "" {
			fields.ImgURL = firstCapturedImage(scope["images"])
		}

		if fields.FirstRegistration == "" {
			if fr, ok := scope["firstRegistration"].(string); ok && len(fr) >= 7 {
				fields.FirstRegistration = fr[:7]
			}
		}

		if fields.CO2 == nil {
			if v, ok := nestedNumber(scope, "envkv", "emission"); ok {
				fields.CO2 = models.Int(int(v))
			}
		}

		if fields.Mileage == nil {
			if v, ok := scope["mileage"].(float64); ok && v > 0 {
				fields.Mileage = models.Float(v)
			}
		}
	}

	fields.ImgURL = normalizeImageURL(fields.ImgURL)
	return fields
}

// nestedNumber walks a map path and returns the numeric leaf.
func nestedNumber(scope map[string]any, path ...string) (float64, bool) {
	current := any(scope)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return 0, false
		}
		current, ok = m[key]
		if !ok {
			return 0, false
		}
	}
	v, ok := current.(float64)
	return v, ok
}

// firstCapturedImage reads the first entry of an images array, which
// carries its URL under either "uri" or "url".
func firstCapturedImage(images any) string {
	list, ok := images.([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	img, ok := list[0].(map[string]any)
	if !ok {
		return ""
	}
	if uri, ok := img["uri"].(string); ok && uri != "" {
		return uri
	}
	url, _ := img["url"].(string)
	return url
}

// normalizeImageURL fixes protocol-relative and schemeless image URLs.
func normalizeImageURL(url string) string {
	switch {
	case url == "":
		return ""
	case strings.HasPrefix(url, "//"):
		return "https:" + url
	case !strings.HasPrefix(url, "http"):
		return "https://" + url
	default:
		return url
	}
}
