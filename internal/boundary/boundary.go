// Package boundary loads ZIP-code boundary polygons and styles them against
// the boroughs present in the hotspot data.
package boundary

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/fetcher"
)

// FetchError reports a failure to retrieve or decode the boundary GeoJSON.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return "boundary " + e.URL + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Loader fetches a GeoJSON FeatureCollection of boundaries.
type Loader struct {
	Fetcher fetcher.Fetcher
	URL     string
}

// NewLoader creates a Loader for the given URL.
func NewLoader(f fetcher.Fetcher, url string) *Loader {
	return &Loader{Fetcher: f, URL: url}
}

// Load downloads and decodes the boundary collection.
func (l *Loader) Load(ctx context.Context) (*geojson.FeatureCollection, error) {
	body, err := l.Fetcher.Get(ctx, l.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: l.URL, Err: eris.Wrap(err, "fetch boundaries")}
	}
	defer body.Close() //nolint:errcheck

	fc, err := fetcher.DecodeJSONObject[geojson.FeatureCollection](body)
	if err != nil {
		return nil, &FetchError{URL: l.URL, Err: eris.Wrap(err, "decode boundaries")}
	}

	zap.L().Debug("loaded boundaries",
		zap.String("url", l.URL),
		zap.Int("features", len(fc.Features)),
	)
	return fc, nil
}
