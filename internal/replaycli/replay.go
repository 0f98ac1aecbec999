package replaycli

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/vireolabs/reactor/devtools"
)

func newReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Print every event recorded for a session, in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args[0], cmd)
		},
	}
}

func runReplay(opts *RootOptions, sessionID string, cmd *cobra.Command) error {
	log, err := devtools.OpenSessionLogReadOnly(opts.Database)
	if err != nil {
		return err
	}
	defer log.Close()

	events, err := log.Events(sessionID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no events recorded for session %s\n", sessionID)
		return nil
	}

	tbl := tablewriter.NewWriter(cmd.OutOrStdout())
	tbl.SetHeader([]string{"time", "kind", "effect", "target", "key", "op"})
	for _, ev := range events {
		effect := ""
		if ev.EffectID != 0 {
			effect = fmt.Sprintf("%d", ev.EffectID)
		}
		tbl.Append([]string{
			ev.Timestamp.Format("15:04:05.000"),
			string(ev.Kind),
			effect,
			normalizeCell(ev.Target),
			normalizeCell(ev.Key),
			ev.Op,
		})
	}
	tbl.Render()
	return nil
}

// normalizeCell applies NFC normalization to a cell before it reaches the
// terminal, the way canonical.go normalizes identifiers before comparing
// or displaying them — reflect type names and map keys can arrive in
// decomposed Unicode forms depending on the platform that produced them.
func normalizeCell(s string) string {
	return norm.NFC.String(s)
}
