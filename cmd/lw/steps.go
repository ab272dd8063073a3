package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

type tabRow struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

type stepRow struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Group string `json:"group"`
	Tab   string `json:"tab"`
}

type stepTables struct {
	Tabs  []tabRow  `json:"tabs"`
	Steps []stepRow `json:"steps"`
}

func buildStepTables() stepTables {
	var out stepTables
	for _, t := range flow.Tabs() {
		out.Tabs = append(out.Tabs, tabRow{
			Index:  t.Index(),
			ID:     t.String(),
			Title:  t.Title(),
			Anchor: t.Anchor().String(),
		})
	}
	for _, s := range flow.Steps() {
		out.Steps = append(out.Steps, stepRow{
			Index: s.Index(),
			ID:    s.String(),
			Title: s.Title(),
			Group: s.Group().String(),
			Tab:   s.Tab().String(),
		})
	}
	return out
}

func newStepsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Print the tab and guided-step tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := buildStepTables()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tables)
			}
			return writeStepTables(cmd.OutOrStdout(), tables)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func writeStepTables(w io.Writer, t stepTables) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "TAB\tID\tTITLE\tANCHOR")
	for _, r := range t.Tabs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index+1, r.ID, r.Title, r.Anchor)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "STEP\tID\tTITLE\tGROUP\tTAB")
	for _, r := range t.Steps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Index+1, r.ID, r.Title, r.Group, r.Tab)
	}
	return tw.Flush()
}
