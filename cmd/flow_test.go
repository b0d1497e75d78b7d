//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hotspot-cli/internal/boundary"
	"github.com/sells-group/hotspot-cli/internal/config"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/lifecycle"
	"github.com/sells-group/hotspot-cli/internal/monitoring"
)

const hotspotsJSON = `[
	{"latitude":"40.75","longitude":"-73.99","ssid":"LinkNYC Free Wi-Fi","provider":"LinkNYC - Citybridge","location":"W 34 St","borough":"Manhattan"},
	{"latitude":"","longitude":"-73.98","ssid":"dropped"},
	{"latitude":"40.69","longitude":"-73.98","borough":"Brooklyn"}
]`

const zipsJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"PO_NAME": "Manhattan"},
     "geometry": {"type": "Polygon", "coordinates": [[[-74.0, 40.75], [-73.99, 40.75], [-73.99, 40.76], [-74.0, 40.75]]]}},
    {"type": "Feature", "properties": {"PO_NAME": "Bronx"},
     "geometry": {"type": "Polygon", "coordinates": [[[-73.9, 40.85], [-73.89, 40.85], [-73.89, 40.86], [-73.9, 40.85]]]}}
  ]
}`

// fixture controls how the local data-source and boundary server responds.
type fixture struct {
	hotspotStatus int
	zipStatus     int
	hotspotDelay  time.Duration
}

// testConfig points the data source and boundary URL at a local server.
func testConfig(t *testing.T, hotspotStatus int) *config.Config {
	t.Helper()
	return fixtureConfig(t, fixture{hotspotStatus: hotspotStatus, zipStatus: http.StatusOK})
}

func fixtureConfig(t *testing.T, fx fixture) *config.Config {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hotspots":
			if fx.hotspotDelay > 0 {
				select {
				case <-time.After(fx.hotspotDelay):
				case <-r.Context().Done():
					return
				}
			}
			if fx.hotspotStatus != http.StatusOK {
				w.WriteHeader(fx.hotspotStatus)
				return
			}
			_, _ = w.Write([]byte(hotspotsJSON))
		case "/zips":
			if fx.zipStatus != http.StatusOK {
				w.WriteHeader(fx.zipStatus)
				return
			}
			_, _ = w.Write([]byte(zipsJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return &config.Config{
		Source: config.SourceConfig{
			Endpoint:    srv.URL + "/hotspots",
			Limit:       4000,
			TimeoutSecs: 5,
			UserAgent:   "hotspot-cli-test",
		},
		Boundary: config.BoundaryConfig{URL: srv.URL + "/zips"},
		Map: config.MapConfig{
			OutputPath:  filepath.Join(t.TempDir(), "nyc_wifi_clean_map.html"),
			CenterLat:   40.7128,
			CenterLon:   -74.0060,
			Zoom:        11,
			TilesURL:    config.DefaultTilesURL,
			Attribution: config.DefaultAttribution,
		},
		Lifecycle: config.LifecycleConfig{PollIntervalMs: 10},
		Server:    config.ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}},
		Log:       config.LogConfig{Level: "error", Format: "console"},
	}
}

// interruptWhenIdle returns a supervisor that is interrupted once its idle
// loop has started ticking, i.e. after the pipeline finished.
func interruptWhenIdle(t *testing.T) *lifecycle.Supervisor {
	t.Helper()
	clock := clockwork.NewFakeClock()
	sup := lifecycle.NewSupervisor(clock, time.Second)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			return
		}
		sup.Interrupt()
		clock.Advance(time.Second)
	}()
	return sup
}

func idleSupervisor() *lifecycle.Supervisor {
	return lifecycle.NewSupervisor(clockwork.NewFakeClock(), time.Second)
}

func TestMapFlow_DeleteOnNo(t *testing.T) {
	c := testConfig(t, http.StatusOK)
	var out bytes.Buffer
	env := newAppEnv(c, &out, false)

	err := mapFlow(context.Background(), env, interruptWhenIdle(t), strings.NewReader("n\n"), &out)
	require.NoError(t, err)

	assert.NoFileExists(t, c.Map.OutputPath)
	text := out.String()
	assert.Contains(t, text, "Fetching NYC Wi-Fi hotspot data...")
	assert.Contains(t, text, "Map saved as: "+c.Map.OutputPath)
	assert.Contains(t, text, idleNotice)
	assert.Contains(t, text, lifecycle.SavePrompt)
	assert.Contains(t, text, "Cleaned up: "+c.Map.OutputPath)
}

func TestMapFlow_KeepOnYes(t *testing.T) {
	c := testConfig(t, http.StatusOK)
	var out bytes.Buffer
	env := newAppEnv(c, &out, false)

	err := mapFlow(context.Background(), env, interruptWhenIdle(t), strings.NewReader("maybe\nY\n"), &out)
	require.NoError(t, err)

	require.FileExists(t, c.Map.OutputPath)
	assert.Equal(t, 1, strings.Count(out.String(), lifecycle.InvalidAnswer))
	assert.Contains(t, out.String(), "Map file saved as: "+c.Map.OutputPath)

	html, err := os.ReadFile(c.Map.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "LinkNYC Free Wi-Fi")
	assert.Contains(t, string(html), "markerClusterGroup")
}

func TestMapFlow_FetchErrorWritesNothing(t *testing.T) {
	c := testConfig(t, http.StatusServiceUnavailable)
	var out bytes.Buffer
	env := newAppEnv(c, &out, false)

	err := mapFlow(context.Background(), env, idleSupervisor(), strings.NewReader("y\n"), &out)
	require.Error(t, err)

	var dsErr *hotspot.DataSourceError
	assert.True(t, errors.As(err, &dsErr))
	assert.NoFileExists(t, c.Map.OutputPath)
	assert.NotContains(t, out.String(), idleNotice)
}

func TestMapFlow_CancelledContext(t *testing.T) {
	c := testConfig(t, http.StatusOK)
	env := newAppEnv(c, nil, false)
	sup := lifecycle.NewSupervisor(clockwork.NewFakeClock(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := mapFlow(ctx, env, sup, strings.NewReader("n\n"), &bytes.Buffer{})
	require.Error(t, err)
}

func TestMapFlow_InterruptDuringFetch(t *testing.T) {
	c := fixtureConfig(t, fixture{hotspotStatus: http.StatusOK, zipStatus: http.StatusOK, hotspotDelay: 3 * time.Second})
	var out bytes.Buffer
	env := newAppEnv(c, &out, false)
	sup := idleSupervisor()

	go func() {
		time.Sleep(100 * time.Millisecond)
		sup.Interrupt()
	}()

	start := time.Now()
	err := mapFlow(context.Background(), env, sup, strings.NewReader("y\n"), &out)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.NoFileExists(t, c.Map.OutputPath)
	assert.NotContains(t, out.String(), "Map saved as:")
	assert.NotContains(t, out.String(), idleNotice)
	assert.NotContains(t, out.String(), lifecycle.SavePrompt)
}

func TestMapFlow_InterruptedBeforeFailedFetchExitsCleanly(t *testing.T) {
	c := testConfig(t, http.StatusServiceUnavailable)
	env := newAppEnv(c, nil, false)
	sup := idleSupervisor()
	sup.Interrupt()

	err := mapFlow(context.Background(), env, sup, strings.NewReader(""), &bytes.Buffer{})
	assert.NoError(t, err)
	assert.NoFileExists(t, c.Map.OutputPath)
}

func TestMapFlow_BoundaryFailureWritesNothing(t *testing.T) {
	c := fixtureConfig(t, fixture{hotspotStatus: http.StatusOK, zipStatus: http.StatusInternalServerError})
	var out bytes.Buffer
	env := newAppEnv(c, &out, false)

	err := mapFlow(context.Background(), env, idleSupervisor(), strings.NewReader("y\n"), &out)
	require.Error(t, err)

	var fetchErr *boundary.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.NoFileExists(t, c.Map.OutputPath)
	assert.Contains(t, out.String(), "Generating clean map...")
	assert.NotContains(t, out.String(), idleNotice)
}

func TestCleanupArtifact_ErrorIsReported(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "busy")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "child"), 0o755))
	metrics, reg := monitoring.NewMetricsForTesting()

	var out bytes.Buffer
	cleanupArtifact(dir, metrics, strings.NewReader("n\n"), &out)

	assert.Contains(t, out.String(), "\nError handling file: ")
	assert.DirExists(t, dir)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() != "hotspot_cleanup_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			if m.GetLabel()[0].GetValue() == "error" {
				found = true
				assert.InDelta(t, 1, m.GetCounter().GetValue(), 0)
			}
		}
	}
	assert.True(t, found)
}

func TestCleanupArtifact_MissingFileSkipsPrompt(t *testing.T) {
	var out bytes.Buffer
	cleanupArtifact(filepath.Join(t.TempDir(), "gone.html"), nil, strings.NewReader(""), &out)
	assert.Empty(t, out.String())
}

func TestExportFlow_CSV(t *testing.T) {
	c := testConfig(t, http.StatusOK)
	env := newAppEnv(c, nil, false)
	path := filepath.Join(t.TempDir(), "hotspots.csv")

	var out bytes.Buffer
	require.NoError(t, exportFlow(context.Background(), env, "csv", path, &out))
	assert.Equal(t, "Exported 2 hotspots to "+path+"\n", out.String())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Unknown", rows[2][2])
	assert.NoFileExists(t, c.Map.OutputPath)
}

func TestExportFlow_BadFormat(t *testing.T) {
	c := testConfig(t, http.StatusOK)
	env := newAppEnv(c, nil, false)
	err := exportFlow(context.Background(), env, "pdf", filepath.Join(t.TempDir(), "x"), &bytes.Buffer{})
	assert.Error(t, err)
}

// fakeListener blocks in Start until Shutdown is called.
type fakeListener struct {
	startErr error
	stopped  chan struct{}
	shutdown atomic.Bool
}

func newFakeListener(startErr error) *fakeListener {
	return &fakeListener{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeListener) Addr() string { return ":0" }

func (f *fakeListener) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeListener) Shutdown(context.Context) error {
	if f.shutdown.CompareAndSwap(false, true) {
		close(f.stopped)
	}
	return nil
}

func TestServeFlow_ShutdownThenCleanup(t *testing.T) {
	c := testConfig(t, http.StatusOK)
	var out bytes.Buffer
	env := newAppEnv(c, &out, false)
	srv := newFakeListener(nil)

	err := serveFlow(context.Background(), env, srv, interruptWhenIdle(t), strings.NewReader("n\n"), &out)
	require.NoError(t, err)

	assert.True(t, srv.shutdown.Load())
	assert.Contains(t, out.String(), "Serving map on http://localhost:0/")
	assert.Contains(t, out.String(), "Cleaned up: "+c.Map.OutputPath)
	assert.NoFileExists(t, c.Map.OutputPath)
}

func TestServeFlow_ListenError(t *testing.T) {
	c := testConfig(t, http.StatusOK)
	env := newAppEnv(c, nil, false)
	sup := lifecycle.NewSupervisor(clockwork.NewFakeClock(), time.Second)
	srv := newFakeListener(errors.New("address already in use"))

	err := serveFlow(context.Background(), env, srv, sup, strings.NewReader("n\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
	assert.FileExists(t, c.Map.OutputPath)
}

func TestPrintConfig(t *testing.T) {
	c := testConfig(t, http.StatusOK)
	var buf bytes.Buffer
	require.NoError(t, printConfig(&buf, c))

	text := buf.String()
	assert.Contains(t, text, "source:\n")
	assert.Contains(t, text, "  limit: 4000\n")
	assert.Contains(t, text, "poll_interval_ms: 10")
	assert.Contains(t, text, "open_browser: false")
}
