package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/hotspot-cli/internal/lifecycle"
)

var mapNoOpen bool

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Fetch, clean and render the hotspot map, then wait for Ctrl+C",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMap(cmd, mapNoOpen)
	},
}

func runMap(cmd *cobra.Command, noOpen bool) error {
	sup := lifecycle.NewSupervisor(nil, cfg.Lifecycle.PollInterval())
	stop := sup.Listen()
	defer stop()

	env := newAppEnv(cfg, os.Stdout, cfg.Map.OpenBrowser && !noOpen)
	return mapFlow(cmd.Context(), env, sup, os.Stdin, os.Stdout)
}

// mapFlow runs the pipeline, idles until interrupted and then runs cleanup.
// An interrupt during the run cancels it and goes straight to cleanup.
func mapFlow(ctx context.Context, env *appEnv, sup *lifecycle.Supervisor, in io.Reader, out io.Writer) error {
	if interrupted, err := runInterruptible(ctx, env, sup, in, out); interrupted || err != nil {
		return err
	}

	fmt.Fprintln(out, idleNotice)
	return awaitCleanup(ctx, sup, env.OutputPath, env.Metrics, in, out)
}

func init() {
	mapCmd.Flags().BoolVar(&mapNoOpen, "no-open", false, "do not open the map in a browser")
	rootCmd.Flags().BoolVar(&mapNoOpen, "no-open", false, "do not open the map in a browser")
	rootCmd.AddCommand(mapCmd)
}
