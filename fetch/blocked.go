package fetch

import (
	"fmt"
	"strings"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// captchaMarkers are substrings that identify an anti-bot interstitial
// rather than a listing page. Matched case-insensitively.
var captchaMarkers = []string{
	"please verify you are a human",
	"verify you are human",
	"are you a robot",
	"captcha-delivery.com",
	"geo.captcha-delivery.com",
	"access denied",
	"pardon our interruption",
}

// unusableReason checks fetched HTML against the block heuristics.
// It returns an empty string when the HTML looks like a real page, or
// a human-readable reason when it is implausibly short or carries a
// known CAPTCHA marker.
func unusableReason(html string, minLength int) string {
	if len(html) < minLength {
		return fmt.Sprintf("body too short (%d chars, minimum %d)", len(html), minLength)
	}
	lower := strings.ToLower(html)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return "anti-bot block detected: " + marker
		}
	}
	return ""
}
