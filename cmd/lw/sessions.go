package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
	"github.com/vanderheijden86/loanwalk/pkg/progress"
	"github.com/vanderheijden86/loanwalk/pkg/ui"
)

func newSessionsCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded walkthrough sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfg.ProgressPath()
			if path == "" {
				return errors.New("no state directory: set progress.path")
			}
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
				return nil
			}

			st, err := progress.Open(path)
			if err != nil {
				return err
			}
			defer st.Close()

			sessions, err := st.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeSessions(cmd.OutOrStdout(), sessions)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "show at most `N` sessions")
	return cmd
}

func writeSessions(w io.Writer, sessions []progress.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tUPDATED\tLAST STEP\tVISITS")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			s.ID,
			ui.FormatTimeRel(s.StartedAt),
			ui.FormatTimeRel(s.UpdatedAt),
			stepLabel(s.LastStep),
			s.Visits,
		)
	}
	return tw.Flush()
}

func stepLabel(s flow.Step) string {
	v := flow.GuidedViewOf(s)
	return fmt.Sprintf("%d/%d %s", v.Index+1, v.Total, s.Title())
}
