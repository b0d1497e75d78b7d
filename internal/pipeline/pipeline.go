// Package pipeline composes fetch, clean and render into a single run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/mapview"
	"github.com/sells-group/hotspot-cli/internal/monitoring"
)

// Source returns raw hotspot records.
type Source interface {
	Fetch(ctx context.Context) ([]hotspot.RawRecord, error)
}

// Renderer writes the map artifact.
type Renderer interface {
	Render(ctx context.Context, hs []hotspot.Hotspot) error
	OutputPath() string
}

// Stage names used in logs and metrics.
const (
	StageFetch  = "fetch"
	StageClean  = "clean"
	StageRender = "render"
)

// Result summarizes one run.
type Result struct {
	RunID      string
	Fetched    int
	Kept       int
	Dropped    int
	Boroughs   []string
	Hotspots   []hotspot.Hotspot
	OutputPath string
	Duration   time.Duration
}

// Pipeline runs the fetch, clean and render stages in order.
type Pipeline struct {
	source   Source
	renderer Renderer
	opener   mapview.Opener
	metrics  *monitoring.Metrics
	out      io.Writer
}

// New creates a Pipeline. A nil opener disables browser launching, a nil
// metrics disables instrumentation and a nil out discards status lines.
func New(source Source, renderer Renderer, opener mapview.Opener, metrics *monitoring.Metrics, out io.Writer) *Pipeline {
	if opener == nil {
		opener = mapview.NopOpener{}
	}
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		source:   source,
		renderer: renderer,
		opener:   opener,
		metrics:  metrics,
		out:      out,
	}
}

// Run fetches, cleans, renders and opens the map. Any fetch or render
// failure aborts the run; a failure to open the browser is only logged.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, log, err := p.collect(ctx)
	if err != nil {
		p.finish(false)
		return nil, err
	}

	fmt.Fprintln(p.out, "Generating clean map...")
	err = p.stage(log, StageRender, func() error {
		return p.renderer.Render(ctx, result.Hotspots)
	})
	if err != nil {
		p.finish(false)
		return nil, eris.Wrap(err, "pipeline: render")
	}
	result.OutputPath = p.renderer.OutputPath()
	fmt.Fprintf(p.out, "Map saved as: %s\n", result.OutputPath)

	if err := p.opener.Open(result.OutputPath); err != nil {
		log.Warn("pipeline: could not open map", zap.String("path", result.OutputPath), zap.Error(err))
	}

	result.Duration = time.Since(start)
	p.finish(true)
	log.Info("pipeline: complete",
		zap.Int("fetched", result.Fetched),
		zap.Int("kept", result.Kept),
		zap.Int("dropped", result.Dropped),
		zap.Strings("boroughs", result.Boroughs),
		zap.String("path", result.OutputPath),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// Collect runs only the fetch and clean stages.
func (p *Pipeline) Collect(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, _, err := p.collect(ctx)
	if err != nil {
		p.finish(false)
		return nil, err
	}
	result.Duration = time.Since(start)
	p.finish(true)
	return result, nil
}

func (p *Pipeline) collect(ctx context.Context) (*Result, *zap.Logger, error) {
	result := &Result{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", result.RunID))
	log.Info("pipeline: starting")

	fmt.Fprintln(p.out, "Fetching NYC Wi-Fi hotspot data...")
	var raw []hotspot.RawRecord
	err := p.stage(log, StageFetch, func() error {
		var fetchErr error
		raw, fetchErr = p.source.Fetch(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, log, eris.Wrap(err, "pipeline: fetch")
	}

	fmt.Fprintln(p.out, "Cleaning data...")
	_ = p.stage(log, StageClean, func() error {
		result.Hotspots = hotspot.Clean(raw)
		return nil
	})

	result.Fetched = len(raw)
	result.Kept = len(result.Hotspots)
	result.Dropped = result.Fetched - result.Kept
	result.Boroughs = hotspot.Boroughs(result.Hotspots)

	if p.metrics != nil {
		p.metrics.RecordsFetched.Add(float64(result.Fetched))
		p.metrics.RecordsKept.Add(float64(result.Kept))
		p.metrics.RecordsDropped.Add(float64(result.Dropped))
	}
	return result, log, nil
}

func (p *Pipeline) stage(log *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if p.metrics != nil {
		p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	if err != nil {
		log.Error("pipeline: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
			zap.Error(err),
		)
		return err
	}
	log.Debug("pipeline: stage complete",
		zap.String("stage", name),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return nil
}

func (p *Pipeline) finish(ok bool) {
	if p.metrics == nil {
		return
	}
	if ok {
		p.metrics.RunsTotal.WithLabelValues("success").Inc()
		p.metrics.LastRunSuccess.Set(1)
		return
	}
	p.metrics.RunsTotal.WithLabelValues("error").Inc()
	p.metrics.LastRunSuccess.Set(0)
}
