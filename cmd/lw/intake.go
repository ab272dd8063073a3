package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/loanwalk/pkg/config"
	"github.com/vanderheijden86/loanwalk/pkg/demo"
	"github.com/vanderheijden86/loanwalk/pkg/ui"
)

func newIntakeCommand(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Customise the mock applicant and save a fixtures file",
		Long: `Open a short form to change the applicant, loan and property used by
the walkthrough, then write the complete mock data set to a YAML file.

Run the walkthrough on it with:
  lw --fixtures PATH`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := demo.LoadFixtures(opts.cfg.Fixtures.Path)
			if err != nil {
				return err
			}
			if err := ui.RunIntakeForm(&fx.Application); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Intake cancelled.")
					return nil
				}
				return err
			}

			target := out
			if target == "" {
				target = defaultIntakePath()
			}
			if target == "" {
				return errors.New("no data directory: pass --out")
			}
			if err := demo.SaveFixtures(config.ExpandHome(target), fx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved fixtures to %s\nRun: lw --fixtures %s\n", target, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write fixtures to `PATH` (default: data directory)")
	return cmd
}

func defaultIntakePath() string {
	dir := config.DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "fixtures.yaml")
}
