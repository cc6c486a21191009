package models

import (
	"fmt"
	"strings"
)

// Category classifies a todo item.
type Category string

const (
	CategoryStudy      Category = "study"
	CategoryPersonal   Category = "personal"
	CategoryAssignment Category = "assignment"
	CategoryOther      Category = "other"
)

// CategoryStyle is the static presentation data for a category.
type CategoryStyle struct {
	Label      string
	Icon       string
	LightColor string
	DarkColor  string
}

var categoryStyles = map[Category]CategoryStyle{
	CategoryStudy:      {Label: "Study", Icon: "📘", LightColor: "#99CCFF", DarkColor: "#6699E6"},
	CategoryPersonal:   {Label: "Personal", Icon: "👤", LightColor: "#FFCCE6", DarkColor: "#E680B3"},
	CategoryAssignment: {Label: "Assignment", Icon: "📄", LightColor: "#FFE699", DarkColor: "#E6B34D"},
	CategoryOther:      {Label: "Other", Icon: "⭐", LightColor: "#CCE6CC", DarkColor: "#80B380"},
}

// AllCategories lists categories in display order.
func AllCategories() []Category {
	return []Category{CategoryStudy, CategoryPersonal, CategoryAssignment, CategoryOther}
}

// ParseCategory accepts a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryStyles[c]; !ok {
		return "", fmt.Errorf("invalid category %q (expected one of study, personal, assignment, other)", s)
	}
	return c, nil
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryStyles[c]
	return ok
}

// Style returns the presentation data for c. Unknown values fall back to
// the "other" style.
func (c Category) Style() CategoryStyle {
	if s, ok := categoryStyles[c]; ok {
		return s
	}
	return categoryStyles[CategoryOther]
}

func (c Category) Label() string { return c.Style().Label }
func (c Category) Icon() string { return c.Style().Icon }

// Color returns the category color for the given appearance.
func (c Category) Color(dark bool) string {
	if dark {
		return c.Style().DarkColor
	}
	return c.Style().LightColor
}
