package scene

import "ontolarium/internal/domain"

// Fill colors by category. An unknown category is data, not an error,
// and falls back to the neutral default so stale or hand-edited graphs
// still render.
var categoryColors = map[domain.Category]string{
	domain.CategoryClass:    "#5b8ff9",
	domain.CategoryInstance: "#5ad8a6",
	domain.CategoryConcept:  "#f6bd16",
	domain.CategoryLiteral:  "#e8684a",
}

// DefaultColor is the fill for categories outside the palette
const DefaultColor = "#9aa4af"

// ColorFor returns the fill color for a category
func ColorFor(c domain.Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return DefaultColor
}
