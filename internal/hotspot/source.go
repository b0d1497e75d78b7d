package hotspot

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/fetcher"
)

// DataSourceError reports a failed fetch of the hotspot dataset. It covers
// transport failures, non-2xx responses and undecodable bodies.
type DataSourceError struct {
	Endpoint string
	Err      error
}

func (e *DataSourceError) Error() string {
	return "data source " + e.Endpoint + ": " + e.Err.Error()
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// Source fetches raw hotspot records from a Socrata endpoint.
type Source struct {
	Fetcher  fetcher.Fetcher
	Endpoint string
	// Limit is sent as $limit. It must exceed the dataset size since no
	// paging is done.
	Limit int
}

// NewSource creates a Source.
func NewSource(f fetcher.Fetcher, endpoint string, limit int) *Source {
	return &Source{Fetcher: f, Endpoint: endpoint, Limit: limit}
}

// Fetch issues a single GET and returns the records in server order.
func (s *Source) Fetch(ctx context.Context) ([]RawRecord, error) {
	log := zap.L().With(zap.String("endpoint", s.Endpoint), zap.Int("limit", s.Limit))

	q := url.Values{"$limit": {strconv.Itoa(s.Limit)}}
	body, err := s.Fetcher.Get(ctx, s.Endpoint, q)
	if err != nil {
		return nil, &DataSourceError{Endpoint: s.Endpoint, Err: eris.Wrap(err, "fetch hotspots")}
	}
	defer body.Close() //nolint:errcheck

	records, err := fetcher.CollectJSONArray[RawRecord](ctx, body)
	if err != nil {
		return nil, &DataSourceError{Endpoint: s.Endpoint, Err: eris.Wrap(err, "decode hotspots")}
	}

	if len(records) >= s.Limit {
		log.Warn("record count reached limit; dataset may be truncated", zap.Int("records", len(records)))
	}
	log.Info("fetched hotspot records", zap.Int("records", len(records)))
	return records, nil
}
