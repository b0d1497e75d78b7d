// Package export writes cleaned hotspots to CSV, XLSX or GeoJSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/hotspot-cli/internal/hotspot"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatGeoJSON Format = "geojson"
)

// SheetName is the worksheet used for XLSX output.
const SheetName = "Hotspots"

var columns = []string{"latitude", "longitude", "ssid", "provider", "location", "borough"}

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatGeoJSON:
		return f, nil
	case "json":
		return FormatGeoJSON, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want csv, xlsx or geojson)", s)
	}
}

// Write encodes hs to w in the given format.
func Write(w io.Writer, format Format, hs []hotspot.Hotspot) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, hs)
	case FormatXLSX:
		return writeXLSX(w, hs)
	case FormatGeoJSON:
		return writeGeoJSON(w, hs)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

// WriteFile encodes hs to a new file at path.
func WriteFile(path string, format Format, hs []hotspot.Hotspot) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := Write(f, format, hs); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	return nil
}

func writeCSV(w io.Writer, hs []hotspot.Hotspot) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(hs) == 0 {
		if err := cw.Write(columns); err != nil {
			return eris.Wrap(err, "export: write csv header")
		}
	} else if err := enc.Encode(hs); err != nil {
		return eris.Wrap(err, "export: encode csv")
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

func writeXLSX(w io.Writer, hs []hotspot.Hotspot) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c)
	}
	for _, h := range hs {
		row := sheet.AddRow()
		row.AddCell().SetFloat(h.Latitude)
		row.AddCell().SetFloat(h.Longitude)
		row.AddCell().SetString(h.SSID)
		row.AddCell().SetString(h.Provider)
		row.AddCell().SetString(h.Location)
		row.AddCell().SetString(h.Borough)
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// FeatureCollection converts hotspots to GeoJSON Point features.
func FeatureCollection(hs []hotspot.Hotspot) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(hs))}
	for _, h := range hs {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: h.Point(),
			Properties: map[string]interface{}{
				"ssid":     h.SSID,
				"provider": h.Provider,
				"location": h.Location,
				"borough":  h.Borough,
			},
		})
	}
	return fc
}

func writeGeoJSON(w io.Writer, hs []hotspot.Hotspot) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(FeatureCollection(hs)); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}
