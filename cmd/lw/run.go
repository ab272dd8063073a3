package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/vanderheijden86/loanwalk/pkg/config"
	"github.com/vanderheijden86/loanwalk/pkg/cue"
	"github.com/vanderheijden86/loanwalk/pkg/debug"
	"github.com/vanderheijden86/loanwalk/pkg/demo"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
	"github.com/vanderheijden86/loanwalk/pkg/progress"
	"github.com/vanderheijden86/loanwalk/pkg/remote"
	"github.com/vanderheijden86/loanwalk/pkg/ui"
)

// transcriptWidth is the screen width used when stdout is not a terminal.
const transcriptWidth = 80

// autocloseEnv closes the walkthrough after the given milliseconds.
// Smoke tests use it to exercise a real terminal session.
const autocloseEnv = "LW_TUI_AUTOCLOSE_MS"

// runWalkthrough starts the interactive walkthrough, or prints the
// transcript when stdout is not a terminal.
func runWalkthrough(cmd *cobra.Command, opts *rootOptions) error {
	cfg := opts.cfg

	fx, err := demo.LoadFixtures(cfg.Fixtures.Path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		return ui.RenderTranscript(out, fx, transcriptWidth)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if debug.Enabled() && os.Getenv("LW_DEBUG_FILE") == "" {
		// The walkthrough owns the terminal; keep log lines out of it.
		if f, err := openDebugFile(); err == nil {
			defer f.Close()
			debug.SetOutput(f)
		}
	}

	st, err := openProgress(cfg)
	if err != nil {
		debug.Warn("progress disabled: %v", err)
	}
	if st != nil {
		defer st.Close()
	}

	start := cfg.StartTab().Anchor()
	if opts.resume && st != nil {
		step, ok, err := progress.ResumeStep(ctx, st)
		switch {
		case err != nil:
			debug.Warn("resume: %v", err)
		case ok:
			start = step
		}
	}

	nav := flow.NewNavigator(flow.WithStartStep(start))
	if st != nil {
		sess, err := st.BeginAt(ctx, start)
		if err != nil {
			debug.Warn("progress: %v", err)
		} else {
			nav.Subscribe(progress.Recorder(st, sess.ID))
			debug.Log("progress session %s", sess.ID)
		}
	}

	var hub *remote.Hub
	if cfg.Remote.Addr != "" {
		hub = remote.NewHub(
			remote.WithRateLimit(cfg.Remote.RPS, cfg.Remote.Burst),
			remote.WithMaxClients(cfg.Remote.MaxClients),
			remote.WithInitialState(nav.Snapshot()),
		)
		defer hub.Close()
		nav.Subscribe(func(tr flow.Transition) {
			hub.Publish(flow.SnapshotOf(tr.To))
		})
	}

	var src *cue.Source
	if cfg.Cue.Path != "" {
		src, err = cue.New(cfg.Cue.Path, cue.WithForcePoll(cfg.Cue.ForcePoll))
		if err != nil {
			return fmt.Errorf("cue file: %w", err)
		}
		if err := src.Start(); err != nil {
			return fmt.Errorf("cue file: %w", err)
		}
		defer src.Stop()
	}

	model := ui.NewModel(
		ui.WithNavigator(nav),
		ui.WithFixtures(fx),
		ui.WithGuide(cfg.UI.ShowGuide),
		ui.WithWordWrap(cfg.UI.WordWrap),
	)

	g, gctx := errgroup.WithContext(ctx)
	// runCtx ends when the program exits or any member fails.
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(runCtx),
		tea.WithoutSignalHandler(),
	)

	g.Go(func() error {
		defer cancel()
		return runProgram(p)
	})
	if hub != nil {
		g.Go(func() error {
			return remote.Serve(runCtx, cfg.Remote.Addr, hub)
		})
		g.Go(func() error {
			pump(runCtx, hub.Commands(), p)
			return nil
		})
	}
	if src != nil {
		g.Go(func() error {
			pump(runCtx, src.Commands(), p)
			return nil
		})
	}
	if ms, ok := autocloseDelay(); ok {
		g.Go(func() error {
			select {
			case <-time.After(ms):
				p.Quit()
			case <-runCtx.Done():
			}
			return nil
		})
	}

	return g.Wait()
}

// runProgram runs p until it exits. Cancellation from the run group is a
// normal exit; the member that cancelled reports the real error.
func runProgram(p *tea.Program) error {
	_, err := p.Run()
	if err == nil || errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return fmt.Errorf("running walkthrough: %w", err)
}

// sender is the part of tea.Program the pump needs.
type sender interface {
	Send(msg tea.Msg)
}

// pump forwards external commands to the program until ctx ends or the
// channel closes.
func pump(ctx context.Context, cmds <-chan flow.Command, p sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-cmds:
			if !ok {
				return
			}
			debug.Log("external command %s", c)
			p.Send(ui.CommandMsg{Cmd: c})
		}
	}
}

func openProgress(cfg config.Config) (*progress.Store, error) {
	if !cfg.Progress.Enabled {
		return nil, nil
	}
	path := cfg.ProgressPath()
	if path == "" {
		return nil, errors.New("no state directory")
	}
	return progress.Open(path)
}

func openDebugFile() (*os.File, error) {
	dir := config.StateDir()
	if dir == "" {
		return nil, errors.New("no state directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func autocloseDelay() (time.Duration, bool) {
	raw := os.Getenv(autocloseEnv)
	if raw == "" {
		return 0, false
	}
	var ms int
	if _, err := fmt.Sscanf(raw, "%d", &ms); err != nil || ms <= 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// isTerminal reports whether w is a terminal file descriptor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
