// Package co2 estimates CO2 emissions for a vehicle when the listing
// itself does not state them. Values are typical WLTP-era figures per
// brand, model and fuel type, adjusted by registration year.
package co2

import (
	"fmt"
	"regexp"
	"strings"
)

// Confidence grades how directly a result came from the table.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Result is a resolved emission estimate.
type Result struct {
	CO2        int
	Confidence Confidence
	Source     string
}

// fuel range table per model, [min,max] g/km. A zero range means the
// combination does not exist for that model.
type emissions struct {
	Gasoline [2]int
	Diesel   [2]int
	Hybrid   [2]int
}

var database = map[string]map[string]emissions{
	"audi": {
		"a1": {Gasoline: [2]int{105, 130}, Diesel: [2]int{95, 115}, Hybrid: [2]int{50, 80}},
		"a3": {Gasoline: [2]int{115, 150}, Diesel: [2]int{100, 125}, Hybrid: [2]int{40, 70}},
		"a4": {Gasoline: [2]int{130, 170}, Diesel: [2]int{110, 145}, Hybrid: [2]int{45, 80}},
		"a6": {Gasoline: [2]int{150, 200}, Diesel: [2]int{130, 165}, Hybrid: [2]int{50, 90}},
		"q3": {Gasoline: [2]int{135, 175}, Diesel: [2]int{120, 150}, Hybrid: [2]int{55, 90}},
		"q5": {Gasoline: [2]int{150, 200}, Diesel: [2]int{140, 170}, Hybrid: [2]int{55, 95}},
		"q7": {Gasoline: [2]int{180, 250}, Diesel: [2]int{165, 210}, Hybrid: [2]int{65, 110}},
		"tt": {Gasoline: [2]int{150, 200}, Diesel: [2]int{130, 160}},
	},
	"bmw": {
		"serie 1": {Gasoline: [2]int{110, 145}, Diesel: [2]int{95, 120}, Hybrid: [2]int{45, 75}},
		"serie 3": {Gasoline: [2]int{130, 175}, Diesel: [2]int{110, 145}, Hybrid: [2]int{45, 85}},
		"serie 5": {Gasoline: [2]int{150, 210}, Diesel: [2]int{130, 170}, Hybrid: [2]int{50, 95}},
		"x1":      {Gasoline: [2]int{125, 165}, Diesel: [2]int{115, 145}, Hybrid: [2]int{50, 85}},
		"x3":      {Gasoline: [2]int{150, 200}, Diesel: [2]int{135, 175}, Hybrid: [2]int{55, 95}},
		"x5":      {Gasoline: [2]int{180, 250}, Diesel: [2]int{165, 210}, Hybrid: [2]int{65, 110}},
		"m3":      {Gasoline: [2]int{230, 280}},
	},
	"mercedes": {
		"clase a": {Gasoline: [2]int{115, 150}, Diesel: [2]int{100, 130}, Hybrid: [2]int{45, 75}},
		"clase c": {Gasoline: [2]int{140, 185}, Diesel: [2]int{120, 155}, Hybrid: [2]int{45, 85}},
		"clase e": {Gasoline: [2]int{155, 220}, Diesel: [2]int{135, 175}, Hybrid: [2]int{50, 95}},
		"gla":     {Gasoline: [2]int{130, 170}, Diesel: [2]int{115, 145}, Hybrid: [2]int{50, 85}},
		"glc":     {Gasoline: [2]int{160, 210}, Diesel: [2]int{145, 185}, Hybrid: [2]int{55, 95}},
		"gle":     {Gasoline: [2]int{185, 260}, Diesel: [2]int{170, 220}, Hybrid: [2]int{65, 110}},
	},
	"volkswagen": {
		"polo":    {Gasoline: [2]int{100, 130}, Diesel: [2]int{90, 115}},
		"golf":    {Gasoline: [2]int{110, 150}, Diesel: [2]int{95, 125}, Hybrid: [2]int{40, 70}},
		"passat":  {Gasoline: [2]int{130, 175}, Diesel: [2]int{110, 145}, Hybrid: [2]int{45, 80}},
		"t-roc":   {Gasoline: [2]int{125, 165}, Diesel: [2]int{110, 140}},
		"tiguan":  {Gasoline: [2]int{145, 195}, Diesel: [2]int{130, 165}, Hybrid: [2]int{50, 90}},
		"touareg": {Gasoline: [2]int{190, 270}, Diesel: [2]int{175, 230}, Hybrid: [2]int{70, 120}},
		"up":      {Gasoline: [2]int{95, 115}},
	},
	"seat": {
		"ibiza":   {Gasoline: [2]int{100, 130}, Diesel: [2]int{90, 115}},
		"leon":    {Gasoline: [2]int{110, 150}, Diesel: [2]int{95, 125}, Hybrid: [2]int{40, 70}},
		"ateca":   {Gasoline: [2]int{130, 170}, Diesel: [2]int{115, 150}, Hybrid: [2]int{50, 85}},
		"arona":   {Gasoline: [2]int{110, 145}, Diesel: [2]int{95, 120}},
		"tarraco": {Gasoline: [2]int{155, 200}, Diesel: [2]int{140, 175}, Hybrid: [2]int{55, 95}},
	},
	"skoda": {
		"fabia":   {Gasoline: [2]int{100, 130}, Diesel: [2]int{90, 115}},
		"octavia": {Gasoline: [2]int{120, 160}, Diesel: [2]int{100, 135}, Hybrid: [2]int{40, 75}},
		"superb":  {Gasoline: [2]int{135, 180}, Diesel: [2]int{115, 155}, Hybrid: [2]int{45, 80}},
		"kodiaq":  {Gasoline: [2]int{155, 205}, Diesel: [2]int{140, 180}, Hybrid: [2]int{55, 95}},
	},
	"peugeot": {
		"208":  {Gasoline: [2]int{95, 125}, Diesel: [2]int{85, 110}},
		"308":  {Gasoline: [2]int{110, 145}, Diesel: [2]int{95, 125}, Hybrid: [2]int{40, 70}},
		"2008": {Gasoline: [2]int{110, 145}, Diesel: [2]int{95, 125}},
		"3008": {Gasoline: [2]int{135, 175}, Diesel: [2]int{115, 150}, Hybrid: [2]int{45, 85}},
		"5008": {Gasoline: [2]int{145, 190}, Diesel: [2]int{130, 165}, Hybrid: [2]int{50, 90}},
	},
	"renault": {
		"clio":   {Gasoline: [2]int{95, 125}, Diesel: [2]int{85, 110}, Hybrid: [2]int{40, 65}},
		"megane": {Gasoline: [2]int{110, 150}, Diesel: [2]int{95, 130}, Hybrid: [2]int{40, 70}},
		"captur": {Gasoline: [2]int{110, 145}, Diesel: [2]int{95, 125}, Hybrid: [2]int{45, 75}},
	},
	"toyota": {
		"yaris":   {Gasoline: [2]int{95, 125}, Hybrid: [2]int{70, 95}},
		"corolla": {Gasoline: [2]int{115, 150}, Hybrid: [2]int{75, 100}},
		"rav4":    {Gasoline: [2]int{155, 200}, Hybrid: [2]int{85, 115}},
		"chr":     {Gasoline: [2]int{125, 160}, Hybrid: [2]int{75, 100}},
	},
	"ford": {
		"fiesta": {Gasoline: [2]int{100, 130}, Diesel: [2]int{90, 115}},
		"focus":  {Gasoline: [2]int{115, 155}, Diesel: [2]int{100, 135}, Hybrid: [2]int{45, 80}},
		"puma":   {Gasoline: [2]int{115, 150}, Hybrid: [2]int{45, 80}},
		"kuga":   {Gasoline: [2]int{145, 190}, Diesel: [2]int{130, 170}, Hybrid: [2]int{50, 90}},
	},
	"hyundai": {
		"i20":    {Gasoline: [2]int{95, 125}, Diesel: [2]int{85, 110}},
		"i30":    {Gasoline: [2]int{110, 145}, Diesel: [2]int{95, 125}},
		"kona":   {Gasoline: [2]int{120, 155}, Diesel: [2]int{105, 135}, Hybrid: [2]int{75, 105}},
		"tucson": {Gasoline: [2]int{145, 190}, Diesel: [2]int{130, 170}, Hybrid: [2]int{55, 95}},
	},
	"kia": {
		"ceed":     {Gasoline: [2]int{110, 150}, Diesel: [2]int{95, 130}},
		"sportage": {Gasoline: [2]int{145, 195}, Diesel: [2]int{130, 175}, Hybrid: [2]int{55, 95}},
		"niro":     {Hybrid: [2]int{75, 100}},
	},
	"volvo": {
		"xc40": {Gasoline: [2]int{140, 185}, Diesel: [2]int{125, 165}, Hybrid: [2]int{50, 90}},
		"xc60": {Gasoline: [2]int{165, 220}, Diesel: [2]int{150, 195}, Hybrid: [2]int{55, 100}},
		"xc90": {Gasoline: [2]int{195, 270}, Diesel: [2]int{180, 235}, Hybrid: [2]int{65, 115}},
		"v60":  {Gasoline: [2]int{140, 185}, Diesel: [2]int{120, 160}, Hybrid: [2]int{45, 85}},
	},
	"porsche": {
		"911":      {Gasoline: [2]int{230, 320}},
		"cayenne":  {Gasoline: [2]int{230, 320}, Diesel: [2]int{195, 260}, Hybrid: [2]int{75, 130}},
		"macan":    {Gasoline: [2]int{190, 260}, Diesel: [2]int{165, 215}},
		"panamera": {Gasoline: [2]int{210, 290}, Diesel: [2]int{180, 235}, Hybrid: [2]int{60, 100}},
	},
	"nissan": {
		"juke":    {Gasoline: [2]int{115, 150}, Diesel: [2]int{100, 130}, Hybrid: [2]int{75, 105}},
		"qashqai": {Gasoline: [2]int{135, 175}, Diesel: [2]int{120, 155}, Hybrid: [2]int{80, 115}},
		"x-trail": {Gasoline: [2]int{160, 210}, Diesel: [2]int{145, 190}, Hybrid: [2]int{90, 125}},
	},
	"fiat": {
		"500":   {Gasoline: [2]int{90, 115}, Hybrid: [2]int{70, 95}},
		"panda": {Gasoline: [2]int{95, 120}, Diesel: [2]int{85, 110}, Hybrid: [2]int{70, 95}},
		"tipo":  {Gasoline: [2]int{110, 145}, Diesel: [2]int{95, 130}},
	},
}

type fuelClass int

const (
	fuelGasoline fuelClass = iota
	fuelDiesel
	fuelHybrid
	fuelElectric
)

// normalizeFuel buckets the many marketplace fuel labels (German,
// Spanish, English, engine codes) into four classes. Unknown labels
// default to gasoline.
func normalizeFuel(fuel string) fuelClass {
	f := strings.ToLower(strings.TrimSpace(fuel))
	switch {
	case strings.Contains(f, "electr") || strings.Contains(f, "elektr") || f == "ev" || f == "bev":
		return fuelElectric
	case strings.Contains(f, "hybr") || strings.Contains(f, "hibr") || strings.Contains(f, "phev") || strings.Contains(f, "plug"):
		return fuelHybrid
	case strings.Contains(f, "diesel") || strings.Contains(f, "tdi") || strings.Contains(f, "hdi") || strings.Contains(f, "dci"):
		return fuelDiesel
	default:
		return fuelGasoline
	}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s.-]`)

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ö", "o", "ä", "a", "ß", "ss")
	s = replacer.Replace(s)
	return strings.TrimSpace(nonAlnum.ReplaceAllString(s, ""))
}

// Lookup resolves an emission estimate for the given vehicle. It
// returns false when nothing sensible can be said, which callers
// treat as "leave the field empty".
func Lookup(brand, model string, year int, fuelType string) (Result, bool) {
	nb, nm := normalize(brand), normalize(model)
	fuel := normalizeFuel(fuelType)

	if fuel == fuelElectric {
		return Result{CO2: 0, Confidence: ConfidenceHigh, Source: "electric vehicle, zero direct emissions"}, true
	}
	if nb == "" {
		return Result{}, false
	}

	models, ok := matchBrand(nb)
	if !ok {
		return estimateByCategory(nm, fuel, year)
	}

	ranges, ok := matchModel(models, nm)
	if !ok {
		return estimateByCategory(nm, fuel, year)
	}

	r := rangeFor(ranges, fuel)
	if r == [2]int{} {
		// Fall back to the gasoline figure when the listed fuel has
		// no entry for this model.
		if fuel != fuelGasoline && ranges.Gasoline != [2]int{} {
			mid := (ranges.Gasoline[0] + ranges.Gasoline[1]) / 2
			return Result{
				CO2:        adjustForYear(mid, year),
				Confidence: ConfidenceMedium,
				Source:     fmt.Sprintf("estimated from %s %s gasoline figures", brand, model),
			}, true
		}
		return Result{}, false
	}

	mid := (r[0] + r[1]) / 2
	return Result{
		CO2:        adjustForYear(mid, year),
		Confidence: ConfidenceHigh,
		Source:     fmt.Sprintf("emissions database (%s %s)", brand, model),
	}, true
}

func matchBrand(nb string) (map[string]emissions, bool) {
	if models, ok := database[nb]; ok {
		return models, true
	}
	for key, models := range database {
		if strings.Contains(nb, key) || strings.Contains(key, nb) {
			return models, true
		}
	}
	return nil, false
}

func matchModel(models map[string]emissions, nm string) (emissions, bool) {
	if e, ok := models[nm]; ok {
		return e, true
	}
	for key, e := range models {
		if nm != "" && (strings.Contains(nm, key) || strings.Contains(key, nm)) {
			return e, true
		}
	}
	return emissions{}, false
}

func rangeFor(e emissions, fuel fuelClass) [2]int {
	switch fuel {
	case fuelDiesel:
		return e.Diesel
	case fuelHybrid:
		return e.Hybrid
	default:
		return e.Gasoline
	}
}

// adjustForYear shifts a baseline ~2020 figure by roughly 2% per year,
// clamped to ±50%. Newer cars emit less.
func adjustForYear(base, year int) int {
	if year <= 0 {
		return base
	}
	adjustment := float64(year-2020) * -0.02
	if adjustment < -0.5 {
		adjustment = -0.5
	}
	if adjustment > 0.5 {
		adjustment = 0.5
	}
	return int(float64(base)*(1+adjustment) + 0.5)
}

var (
	suvPatterns     = []string{"suv", "cross", "terrain", "x-", "q", "gl"}
	compactPatterns = []string{"mini", "polo", "fiesta", "ibiza", "i20", "picanto", "up", "500", "swift"}
)

// estimateByCategory guesses from the vehicle class when the model is
// not in the table.
func estimateByCategory(nm string, fuel fuelClass, year int) (Result, bool) {
	if nm == "" {
		return Result{}, false
	}
	isSUV := containsAny(nm, suvPatterns)
	isCompact := containsAny(nm, compactPatterns)

	var base int
	switch fuel {
	case fuelHybrid:
		base = pick(isSUV, isCompact, 85, 60, 75)
	case fuelDiesel:
		base = pick(isSUV, isCompact, 160, 100, 130)
	default:
		base = pick(isSUV, isCompact, 180, 115, 145)
	}
	return Result{
		CO2:        adjustForYear(base, year),
		Confidence: ConfidenceLow,
		Source:     "estimated from vehicle category",
	}, true
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func pick(suv, compact bool, suvVal, compactVal, defaultVal int) int {
	switch {
	case suv:
		return suvVal
	case compact:
		return compactVal
	default:
		return defaultVal
	}
}
