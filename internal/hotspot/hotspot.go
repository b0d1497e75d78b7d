// Package hotspot models NYC public Wi-Fi hotspot records and cleans raw
// open-data rows into them.
package hotspot

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
)

// Field names used by the open-data endpoint.
const (
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldSSID      = "ssid"
	FieldProvider  = "provider"
	FieldLocation  = "location"
	FieldBorough   = "borough"
)

// Unknown is the placeholder for a missing SSID or provider.
const Unknown = "Unknown"

// RawRecord is one JSON object exactly as returned by the data source.
type RawRecord map[string]any

// Hotspot is a cleaned record. Latitude and Longitude are always finite.
type Hotspot struct {
	Latitude  float64 `json:"latitude" csv:"latitude"`
	Longitude float64 `json:"longitude" csv:"longitude"`
	SSID      string  `json:"ssid" csv:"ssid"`
	Provider  string  `json:"provider" csv:"provider"`
	Location  string  `json:"location" csv:"location"`
	Borough   string  `json:"borough" csv:"borough"`
}

// New builds a Hotspot from a raw record, applying field defaults.
// It reports false when either coordinate is missing or not a finite number.
func New(r RawRecord) (Hotspot, bool) {
	lat, ok := ParseCoordinate(r[FieldLatitude])
	if !ok {
		return Hotspot{}, false
	}
	lon, ok := ParseCoordinate(r[FieldLongitude])
	if !ok {
		return Hotspot{}, false
	}
	return Hotspot{
		Latitude:  lat,
		Longitude: lon,
		SSID:      stringField(r, FieldSSID, Unknown),
		Provider:  stringField(r, FieldProvider, Unknown),
		Location:  stringField(r, FieldLocation, ""),
		Borough:   stringField(r, FieldBorough, ""),
	}, true
}

// Record converts the hotspot back to its raw form. Coordinates are
// formatted with the shortest representation that parses back exactly.
func (h Hotspot) Record() RawRecord {
	return RawRecord{
		FieldLatitude:  strconv.FormatFloat(h.Latitude, 'f', -1, 64),
		FieldLongitude: strconv.FormatFloat(h.Longitude, 'f', -1, 64),
		FieldSSID:      h.SSID,
		FieldProvider:  h.Provider,
		FieldLocation:  h.Location,
		FieldBorough:   h.Borough,
	}
}

// Point returns the hotspot location as a 2D point in lon/lat order.
func (h Hotspot) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{h.Longitude, h.Latitude})
}

// Records converts cleaned hotspots back to raw records.
func Records(hs []Hotspot) []RawRecord {
	out := make([]RawRecord, len(hs))
	for i, h := range hs {
		out[i] = h.Record()
	}
	return out
}

// Boroughs returns the distinct non-empty borough names in first-seen order.
func Boroughs(hs []Hotspot) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range hs {
		if h.Borough == "" {
			continue
		}
		if _, ok := seen[h.Borough]; ok {
			continue
		}
		seen[h.Borough] = struct{}{}
		out = append(out, h.Borough)
	}
	return out
}

func stringField(r RawRecord, key, def string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
