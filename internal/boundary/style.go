package boundary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"
	"golang.org/x/text/cases"
)

// Style is the Leaflet path style for one boundary polygon.
type Style struct {
	FillColor string  `json:"fillColor"`
	Color     string  `json:"color"`
	Weight    int     `json:"weight"`
	Opacity   float64 `json:"opacity"`
}

// Stroke opacities for matched and unmatched boundaries.
const (
	MatchedOpacity   = 0.5
	UnmatchedOpacity = 0
)

// Matcher tests boundary properties for borough names. Matching is a
// case-folded substring search over the serialized properties, so a name
// appearing in any property value (or key) counts.
type Matcher struct {
	folded []string
}

// NewMatcher prepares a Matcher for the given borough names. Empty names are
// ignored.
func NewMatcher(boroughs []string) *Matcher {
	fold := cases.Fold()
	m := &Matcher{}
	for _, b := range boroughs {
		if strings.TrimSpace(b) == "" {
			continue
		}
		m.folded = append(m.folded, fold.String(b))
	}
	return m
}

// Matches reports whether any borough name occurs in the feature's properties.
func (m *Matcher) Matches(f *geojson.Feature) bool {
	if f == nil || len(m.folded) == 0 || len(f.Properties) == 0 {
		return false
	}
	text := cases.Fold().String(serialize(f.Properties))
	for _, b := range m.folded {
		if strings.Contains(text, b) {
			return true
		}
	}
	return false
}

// Style returns the style for a single feature.
func (m *Matcher) Style(f *geojson.Feature) Style {
	s := Style{FillColor: "transparent", Color: "gray", Weight: 1, Opacity: UnmatchedOpacity}
	if m.Matches(f) {
		s.Opacity = MatchedOpacity
	}
	return s
}

// Styles returns one style per feature, aligned with fc.Features.
func Styles(fc *geojson.FeatureCollection, boroughs []string) []Style {
	if fc == nil {
		return nil
	}
	m := NewMatcher(boroughs)
	out := make([]Style, len(fc.Features))
	for i, f := range fc.Features {
		out[i] = m.Style(f)
	}
	return out
}

func serialize(props map[string]interface{}) string {
	b, err := json.Marshal(props)
	if err != nil {
		return fmt.Sprint(props)
	}
	return string(b)
}
