// Package extract turns fetched listing HTML (and captured JSON) into
// sparse vehicle records. Each extractor contributes a partial set of
// fields; Merge folds the contributions under a fixed priority so the
// rules stay testable in one place instead of living in if/else chains.
package extract

import "github.com/importar-info/importador/models"

// Extractor names used to rank contributions.
const (
	ByJSONCapture = "json-capture"
	ByAI          = "ai"
	ByStructured  = "structured"
	ByHeuristic   = "heuristic"
)

// defaultOrder ranks contributions for most fields. The marketplace's
// own details endpoint is the most authoritative, then the model, then
// page metadata, then selector/regex heuristics.
var defaultOrder = []string{ByJSONCapture, ByAI, ByStructured, ByHeuristic}

// literalOrder ranks title and image. Page metadata is more literal
// than a generative model for these two, so structured data outranks AI.
var literalOrder = []string{ByJSONCapture, ByStructured, ByAI, ByHeuristic}

// Contribution is one extractor's partial result.
type Contribution struct {
	Name   string
	Fields models.CarFields
}

// Merge folds contributions into a single record. For every field the
// first non-empty value in priority order wins; later contributions
// never overwrite it. Contributions may arrive in any order.
func Merge(contribs []Contribution) models.CarFields {
	byName := make(map[string]models.CarFields, len(contribs))
	for _, c := range contribs {
		byName[c.Name] = c.Fields
	}

	var out models.CarFields
	for _, name := range defaultOrder {
		out.Fill(byName[name])
	}

	// Title and image follow their own order.
	out.Title = ""
	out.ImgURL = ""
	for _, name := range literalOrder {
		f := byName[name]
		if out.Title == "" {
			out.Title = f.Title
		}
		if out.ImgURL == "" {
			out.ImgURL = f.ImgURL
		}
	}

	return out
}
