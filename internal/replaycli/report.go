package replaycli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vireolabs/reactor/devtools"
)

func newReportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report <session-id>",
		Short: "Render a session's event history to a standalone HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(rootOpts, args[0], out, cmd)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output path (default: <session-id>.html)")
	return cmd
}

func runReport(opts *RootOptions, sessionID, out string, cmd *cobra.Command) error {
	log, err := devtools.OpenSessionLogReadOnly(opts.Database)
	if err != nil {
		return err
	}
	defer log.Close()

	events, err := log.Events(sessionID)
	if err != nil {
		return err
	}

	if out == "" {
		out = sessionID + ".html"
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := devtools.Report(f, sessionID, events); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d events)\n", out, len(events))
	return nil
}
