package replaycli

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vireolabs/reactor/devtools"
)

func newSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List every recorded session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(rootOpts, cmd)
		},
	}
}

func runSessions(opts *RootOptions, cmd *cobra.Command) error {
	log, err := devtools.OpenSessionLogReadOnly(opts.Database)
	if err != nil {
		return err
	}
	defer log.Close()

	ids, err := log.Sessions()
	if err != nil {
		return err
	}

	tbl := tablewriter.NewWriter(cmd.OutOrStdout())
	tbl.SetHeader([]string{"session"})
	for _, id := range ids {
		tbl.Append([]string{id})
	}
	tbl.Render()
	return nil
}
