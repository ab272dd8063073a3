package cue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSource(t *testing.T, path string, opts ...Option) *Source {
	t.Helper()
	opts = append([]Option{
		WithForcePoll(true),
		WithPollInterval(20 * time.Millisecond),
		WithDebounce(10 * time.Millisecond),
	}, opts...)
	s, err := New(path, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)
	return s
}

func appendRaw(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func next(t *testing.T, s *Source) flow.Command {
	t.Helper()
	select {
	case c := <-s.Commands():
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a command")
	}
	return flow.Command{}
}

func expectNone(t *testing.T, s *Source, wait time.Duration) {
	t.Helper()
	select {
	case c := <-s.Commands():
		t.Fatalf("unexpected command %s", c)
	case <-time.After(wait):
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want flow.Tab
	}{
		{"complete", flow.TabComplete},
		{"  summary  ", flow.TabSummary},
		{`{"nextStep":"portfolio"}`, flow.TabPortfolio},
		{`"pipeline"`, flow.TabPipeline},
	}
	for _, tt := range tests {
		sig, err := ParseLine(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, sig.Next(), tt.line)
	}

	_, err := ParseLine("elsewhere")
	assert.True(t, errors.Is(err, flow.ErrUnknownTab))
}

func TestSourceDeliversAppendedSignals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue")
	s := newSource(t, path)

	require.NoError(t, Append(path, flow.SignalFor(flow.TabTrafficLight)))
	c := next(t, s)
	assert.Equal(t, flow.OpSignal, c.Op())
	tab, _ := c.Tab()
	assert.Equal(t, flow.TabTrafficLight, tab)

	appendRaw(t, path, "# presenter note\n\nnot-a-tab\ncomplete\n")
	c = next(t, s)
	tab, _ = c.Tab()
	assert.Equal(t, flow.TabComplete, tab)
	expectNone(t, s, 100*time.Millisecond)
}

func TestSourceSkipsExistingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue")
	appendRaw(t, path, "summary\n")

	s := newSource(t, path)
	expectNone(t, s, 100*time.Millisecond)

	appendRaw(t, path, "portfolio\n")
	tab, _ := next(t, s).Tab()
	assert.Equal(t, flow.TabPortfolio, tab)
}

func TestSourceReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue")
	appendRaw(t, path, "summary\ncomplete\n")

	s := newSource(t, path, WithReplay(true))
	first, _ := next(t, s).Tab()
	second, _ := next(t, s).Tab()
	assert.Equal(t, flow.TabSummary, first)
	assert.Equal(t, flow.TabComplete, second)
}

func TestSourceWaitsForCompleteLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue")
	s := newSource(t, path)

	appendRaw(t, path, "comp")
	expectNone(t, s, 120*time.Millisecond)

	appendRaw(t, path, "lete\n")
	tab, _ := next(t, s).Tab()
	assert.Equal(t, flow.TabComplete, tab)
}

func TestSourceRewindsOnTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue")
	s := newSource(t, path)

	appendRaw(t, path, "underwriting-decision\n")
	next(t, s)

	require.NoError(t, os.WriteFile(path, []byte("intro\n"), 0o644))
	tab, _ := next(t, s).Tab()
	assert.Equal(t, flow.TabIntro, tab)
}

func TestSourceRateLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue")
	s := newSource(t, path, WithRateLimit(0.001, 1))

	appendRaw(t, path, "pipeline\nportfolio\nsummary\n")
	tab, _ := next(t, s).Tab()
	assert.Equal(t, flow.TabPipeline, tab)
	expectNone(t, s, 100*time.Millisecond)
}

func TestStopClosesCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue")
	s, err := New(path, WithForcePoll(true))
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrStarted)

	s.Stop()
	s.Stop()
	_, ok := <-s.Commands()
	assert.False(t, ok, "Commands should be closed after Stop")
}

func TestStartAfterStopFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue")
	s, err := New(path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounce(10*time.Millisecond),
	)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	s.Stop()

	assert.ErrorIs(t, s.Start(), ErrStopped)

	// A line written after the failed restart must not reach a closed channel.
	appendRaw(t, path, "summary\n")
	time.Sleep(100 * time.Millisecond)
	_, ok := <-s.Commands()
	assert.False(t, ok)
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestAppendWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cue")
	require.NoError(t, Append(path, flow.SignalFor(flow.TabSummary)))
	require.NoError(t, Append(path, flow.SignalFor(flow.TabComplete)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"nextStep\":\"summary\"}\n{\"nextStep\":\"complete\"}\n", string(data))

	assert.Error(t, Append(path, flow.Signal{}))
}
