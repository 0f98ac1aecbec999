// Package replaycli implements the reactor-replay command tree: sessions,
// replay and report all read from a devtools.SessionLog written by a prior
// instrumented run, the way brutalist's internal/cli reads back its own
// event-sourced store.
package replaycli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	Database string
}

// NewRootCommand builds the reactor-replay command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reactor-replay",
		Short: "Inspect and replay recorded reactor devtools sessions",
		Long:  "reactor-replay reads the SQLite session log written by devtools.SessionLog and lets you list sessions, replay their event stream, and render an HTML report.",
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "reactor-devtools.db", "path to the session log database")

	cmd.AddCommand(newSessionsCommand(opts))
	cmd.AddCommand(newReplayCommand(opts))
	cmd.AddCommand(newReportCommand(opts))

	return cmd
}
