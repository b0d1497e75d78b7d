package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/lifecycle"
	"github.com/sells-group/hotspot-cli/internal/server"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Render the map and serve it over HTTP until Ctrl+C",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		sup := lifecycle.NewSupervisor(nil, cfg.Lifecycle.PollInterval())
		stop := sup.Listen()
		defer stop()

		env := newAppEnv(cfg, os.Stdout, false)
		srv := server.New(fmt.Sprintf(":%d", port), server.Options{
			ArtifactPath:   env.OutputPath,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Gatherer:       env.Registry,
		})
		return serveFlow(cmd.Context(), env, srv, sup, os.Stdin, os.Stdout)
	},
}

// listener is the part of server.Server used by serveFlow.
type listener interface {
	Addr() string
	Start() error
	Shutdown(ctx context.Context) error
}

// serveFlow renders the map, serves it until sup observes an interrupt, shuts
// the server down and then runs cleanup.
func serveFlow(ctx context.Context, env *appEnv, srv listener, sup *lifecycle.Supervisor, in io.Reader, out io.Writer) error {
	if interrupted, err := runInterruptible(ctx, env, sup, in, out); interrupted || err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		err := srv.Start()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenErr <- err
	}()

	fmt.Fprintf(out, "Serving map on http://localhost%s/\n", srv.Addr())
	fmt.Fprintln(out, idleNotice)

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	waitErr := make(chan error, 1)
	go func() { waitErr <- sup.Wait(waitCtx) }()

	select {
	case err := <-listenErr:
		cancel()
		<-waitErr
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case err := <-waitErr:
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if sErr := srv.Shutdown(shutdownCtx); sErr != nil {
			zap.L().Warn("server shutdown", zap.Error(sErr))
		}
		<-listenErr
		if err != nil {
			return err
		}
	}

	cleanupArtifact(env.OutputPath, env.Metrics, in, out)
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
