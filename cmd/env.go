package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/boundary"
	"github.com/sells-group/hotspot-cli/internal/config"
	"github.com/sells-group/hotspot-cli/internal/fetcher"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/lifecycle"
	"github.com/sells-group/hotspot-cli/internal/mapview"
	"github.com/sells-group/hotspot-cli/internal/monitoring"
	"github.com/sells-group/hotspot-cli/internal/pipeline"
)

// idleNotice is printed once the map is written and the process starts
// waiting for an interrupt.
const idleNotice = "\nPress Ctrl+C to exit and choose whether to save or delete the map file..."

// appEnv holds the wired components shared by the commands.
type appEnv struct {
	Pipeline   *pipeline.Pipeline
	Metrics    *monitoring.Metrics
	Registry   *prometheus.Registry
	OutputPath string
}

// newAppEnv wires fetcher, source, boundary loader, renderer and metrics from
// the configuration. Status lines go to out.
func newAppEnv(c *config.Config, out io.Writer, openBrowser bool) *appEnv {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.Source.UserAgent,
		Timeout:   c.Source.Timeout(),
	})

	src := hotspot.NewSource(f, c.Source.Endpoint, c.Source.Limit)
	renderer := mapview.NewRenderer(mapview.Options{
		OutputPath:  c.Map.OutputPath,
		CenterLat:   c.Map.CenterLat,
		CenterLon:   c.Map.CenterLon,
		Zoom:        c.Map.Zoom,
		TilesURL:    c.Map.TilesURL,
		Attribution: c.Map.Attribution,
	}, boundary.NewLoader(f, c.Boundary.URL))

	var opener mapview.Opener = mapview.NopOpener{}
	if openBrowser {
		opener = mapview.BrowserOpener{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	return &appEnv{
		Pipeline:   pipeline.New(src, renderer, opener, metrics, out),
		Metrics:    metrics,
		Registry:   reg,
		OutputPath: c.Map.OutputPath,
	}
}

// runInterruptible runs the pipeline under a context that sup cancels on
// interrupt. When the run was interrupted it performs cleanup itself and
// reports interrupted=true with a nil error.
func runInterruptible(ctx context.Context, env *appEnv, sup *lifecycle.Supervisor, in io.Reader, out io.Writer) (interrupted bool, err error) {
	runCtx, cancel := sup.Context(ctx)
	defer cancel()

	_, err = env.Pipeline.Run(runCtx)
	if err != nil && sup.Terminating() {
		zap.L().Info("run interrupted", zap.Error(err))
		cleanupArtifact(env.OutputPath, env.Metrics, in, out)
		return true, nil
	}
	return false, err
}

// awaitCleanup idles until sup observes an interrupt, then runs the
// keep/delete prompt for path. Cleanup failures are reported on out and
// never returned; only ctx cancellation is.
func awaitCleanup(ctx context.Context, sup *lifecycle.Supervisor, path string, metrics *monitoring.Metrics, in io.Reader, out io.Writer) error {
	if err := sup.Wait(ctx); err != nil {
		return err
	}
	cleanupArtifact(path, metrics, in, out)
	return nil
}

func cleanupArtifact(path string, metrics *monitoring.Metrics, in io.Reader, out io.Writer) {
	outcome, err := lifecycle.Cleanup(path, in, out)
	label := outcome.String()
	if err != nil {
		label = "error"
		fmt.Fprintf(out, "\nError handling file: %v\n", err)
		zap.L().Error("cleanup failed", zap.String("path", path), zap.Error(err))
	} else {
		zap.L().Info("cleanup complete", zap.String("path", path), zap.Stringer("outcome", outcome))
	}
	if metrics != nil {
		metrics.CleanupTotal.WithLabelValues(label).Inc()
	}
}
