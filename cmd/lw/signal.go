package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/loanwalk/pkg/config"
	"github.com/vanderheijden86/loanwalk/pkg/cue"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

func newSignalCommand(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "signal TAB",
		Short: "Queue a next-step signal for a running walkthrough",
		Long: `Append a next-step signal to the cue file watched by a running
walkthrough. Both sides must name the same file, with --cue or cue.path;
a walkthrough without one watches nothing. TAB is a tab id such as
"underwriting-decision" or "complete".

Example:
  lw --cue /tmp/lw.cue &
  lw signal --cue /tmp/lw.cue traffic-light`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := flow.ParseSignal(args[0])
			if err != nil {
				return err
			}
			target := resolveCuePath(path, opts.cfg)
			if target == "" {
				return errors.New("no cue file: pass --cue or set cue.path")
			}
			if err := cue.Append(target, sig); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s → %s\n", sig, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "cue", "", "cue file `PATH` (default: cue.path)")
	return cmd
}

// resolveCuePath picks the file a walkthrough started with the same
// settings would watch. Empty means it watches none.
func resolveCuePath(flagPath string, cfg config.Config) string {
	if flagPath != "" {
		return config.ExpandHome(flagPath)
	}
	return cfg.Cue.Path
}
