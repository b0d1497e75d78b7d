// Package mapview renders cleaned hotspots as a standalone Leaflet map.
package mapview

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"html"
	"html/template"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/boundary"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
)

//go:embed map.html.tmpl
var mapTemplate string

var tmpl = template.Must(template.New("map").Parse(mapTemplate))

// Marker appearance.
const (
	MarkerRadius      = 5
	MarkerColor       = "blue"
	MarkerFillOpacity = 0.7
	PopupMaxWidth     = 250
)

// Options controls the base map and the output location.
type Options struct {
	OutputPath  string
	Title       string
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	TilesURL    string
	Attribution string
}

// BoundarySource supplies the boundary overlay.
type BoundarySource interface {
	Load(ctx context.Context) (*geojson.FeatureCollection, error)
}

// Marker is one clustered circle marker.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

type markerStyle struct {
	Radius      int     `json:"radius"`
	Color       string  `json:"color"`
	FillColor   string  `json:"fillColor"`
	Fill        bool    `json:"fill"`
	FillOpacity float64 `json:"fillOpacity"`
}

type page struct {
	Title           string
	CenterLat       float64
	CenterLon       float64
	Zoom            int
	TilesURL        string
	Attribution     string
	PopupMaxWidth   int
	BoundariesJSON  template.JS
	StylesJSON      template.JS
	MarkersJSON     template.JS
	MarkerStyleJSON template.JS
}

// Renderer writes the map artifact.
type Renderer struct {
	opts       Options
	boundaries BoundarySource
}

// NewRenderer creates a Renderer.
func NewRenderer(opts Options, boundaries BoundarySource) *Renderer {
	if opts.Title == "" {
		opts.Title = "NYC Wi-Fi Hotspots"
	}
	return &Renderer{opts: opts, boundaries: boundaries}
}

// OutputPath returns the artifact path.
func (r *Renderer) OutputPath() string {
	return r.opts.OutputPath
}

// Render loads the boundaries, builds the page and writes it to the output
// path, replacing any existing file. Boundary failures abort before anything
// is written.
func (r *Renderer) Render(ctx context.Context, hs []hotspot.Hotspot) error {
	fc, err := r.boundaries.Load(ctx)
	if err != nil {
		return err
	}

	p, err := r.page(fc, hs)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return eris.Wrap(err, "mapview: execute template")
	}

	if err := writeAtomic(r.opts.OutputPath, buf.Bytes()); err != nil {
		return err
	}

	zap.L().Info("map written",
		zap.String("path", r.opts.OutputPath),
		zap.Int("markers", len(hs)),
		zap.Int("boundaries", len(fc.Features)),
		zap.Int("bytes", buf.Len()),
	)
	return nil
}

func (r *Renderer) page(fc *geojson.FeatureCollection, hs []hotspot.Hotspot) (*page, error) {
	boundariesJSON, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode boundaries")
	}
	stylesJSON, err := toJSON(boundary.Styles(fc, hotspot.Boroughs(hs)))
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode boundary styles")
	}
	markersJSON, err := toJSON(Markers(hs))
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode markers")
	}
	styleJSON, err := toJSON(markerStyle{
		Radius:      MarkerRadius,
		Color:       MarkerColor,
		FillColor:   MarkerColor,
		Fill:        true,
		FillOpacity: MarkerFillOpacity,
	})
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode marker style")
	}

	return &page{
		Title:           r.opts.Title,
		CenterLat:       r.opts.CenterLat,
		CenterLon:       r.opts.CenterLon,
		Zoom:            r.opts.Zoom,
		TilesURL:        r.opts.TilesURL,
		Attribution:     r.opts.Attribution,
		PopupMaxWidth:   PopupMaxWidth,
		BoundariesJSON:  template.JS(boundariesJSON),
		StylesJSON:      stylesJSON,
		MarkersJSON:     markersJSON,
		MarkerStyleJSON: styleJSON,
	}, nil
}

// Markers converts hotspots to markers in input order.
func Markers(hs []hotspot.Hotspot) []Marker {
	out := make([]Marker, len(hs))
	for i, h := range hs {
		out[i] = Marker{Lat: h.Latitude, Lon: h.Longitude, Popup: PopupHTML(h)}
	}
	return out
}

// PopupHTML returns the popup body for a hotspot with all values escaped.
func PopupHTML(h hotspot.Hotspot) string {
	return "<b>SSID:</b> " + html.EscapeString(h.SSID) + "<br>" +
		"<b>Provider:</b> " + html.EscapeString(h.Provider) + "<br>" +
		"<b>Location:</b> " + html.EscapeString(h.Location) + "<br>" +
		"<b>Borough:</b> " + html.EscapeString(h.Borough)
}

func toJSON(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

// writeAtomic writes to a temp file in the target directory then renames it
// over the target so readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "mapview: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "mapview: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "mapview: write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "mapview: close temp file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "mapview: chmod temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "mapview: rename to %s", path)
	}
	return nil
}
