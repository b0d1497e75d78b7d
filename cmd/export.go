package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch and clean hotspots, then write them as CSV, XLSX or GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := newAppEnv(cfg, os.Stderr, false)
		return exportFlow(cmd.Context(), env, exportFormat, exportOut, os.Stdout)
	},
}

func exportFlow(ctx context.Context, env *appEnv, formatName, path string, out io.Writer) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if path == "" {
		path = "nyc_wifi_hotspots." + string(format)
	}

	res, err := env.Pipeline.Collect(ctx)
	if err != nil {
		return err
	}

	if err := export.WriteFile(path, format, res.Hotspots); err != nil {
		return eris.Wrap(err, "export hotspots")
	}

	zap.L().Info("export complete",
		zap.String("run_id", res.RunID),
		zap.String("format", string(format)),
		zap.String("path", path),
		zap.Int("rows", len(res.Hotspots)),
	)
	fmt.Fprintf(out, "Exported %d hotspots to %s\n", len(res.Hotspots), path)
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv, xlsx or geojson")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default nyc_wifi_hotspots.<format>)")
	rootCmd.AddCommand(exportCmd)
}
