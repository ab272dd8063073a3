package ui

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/loanwalk/pkg/demo"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

// RenderTranscript prints the whole walkthrough, one block per guided
// step, for output that is not a terminal. It drives a navigator of its
// own from the first step to the last so the record fills exactly as it
// does interactively.
func RenderTranscript(w io.Writer, fx *demo.Fixtures, width int) error {
	if fx == nil {
		fx = demo.DefaultFixtures()
	}
	width = max(width, 40)
	theme := DefaultTheme(lipgloss.NewRenderer(w))
	bw := bufio.NewWriter(w)

	nav := flow.NewNavigator()
	rec := &demo.Record{}
	for {
		step := nav.Step()
		rec.Enter(step, fx)
		gv := nav.GuidedView()
		tv := nav.TabView()

		fmt.Fprintf(bw, "== [%d/%d] %s  (%s · tab %d %s)\n",
			gv.Index+1, gv.Total, gv.Title, gv.Group.Title(), tv.Index+1, tv.Title)
		fmt.Fprintln(bw, gv.Description)
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, renderScreen(screen{theme: theme, step: step, record: rec, fx: fx, width: width}))
		fmt.Fprintln(bw)

		if gv.Last {
			break
		}
		nav.NextStep()
	}
	return bw.Flush()
}
