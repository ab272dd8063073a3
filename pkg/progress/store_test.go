package progress

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

// fakeClock advances one second per call so ordering by time is stable.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func openStore(t *testing.T) *Store {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s, err := Open(filepath.Join(t.TempDir(), "state", "progress.db"), WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBeginCreatesSession(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	sess, err := s.Begin(ctx)
	require.NoError(t, err)

	parsed, err := uuid.Parse(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Equal(t, flow.StepWelcome, sess.LastStep)

	visits, err := s.Visits(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, flow.StepWelcome, visits[0].Step)
}

func TestRecordVisitUpdatesSession(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	sess, err := s.Begin(ctx)
	require.NoError(t, err)

	for _, step := range []flow.Step{flow.StepApplicationIntake, flow.StepTrafficLight, flow.StepDecision} {
		require.NoError(t, s.RecordVisit(ctx, sess.ID, step))
	}

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, latest.ID)
	assert.Equal(t, flow.StepDecision, latest.LastStep)
	assert.Equal(t, 4, latest.Visits)
	assert.True(t, latest.UpdatedAt.After(latest.StartedAt))

	visits, err := s.Visits(ctx, sess.ID)
	require.NoError(t, err)
	var got []flow.Step
	for _, v := range visits {
		got = append(got, v.Step)
	}
	assert.Equal(t, []flow.Step{flow.StepWelcome, flow.StepApplicationIntake, flow.StepTrafficLight, flow.StepDecision}, got)
}

func TestRecordVisitUnknownSession(t *testing.T) {
	s := openStore(t)
	err := s.RecordVisit(context.Background(), "missing", flow.StepComplete)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRecordVisitInvalidStep(t *testing.T) {
	s := openStore(t)
	sess, err := s.Begin(context.Background())
	require.NoError(t, err)
	err = s.RecordVisit(context.Background(), sess.ID, flow.Step(77))
	assert.ErrorIs(t, err, flow.ErrUnknownStep)
}

func TestLatestEmpty(t *testing.T) {
	s := openStore(t)
	_, err := s.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	step, ok, err := ResumeStep(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, flow.StepWelcome, step)
}

func TestSessionsOrderAndLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first, err := s.Begin(ctx)
	require.NoError(t, err)
	second, err := s.BeginAt(ctx, flow.StepPortfolioImpact)
	require.NoError(t, err)
	// Touching the first session makes it the most recent again.
	require.NoError(t, s.RecordVisit(ctx, first.ID, flow.StepSuburbDeepDive))

	all, err := s.Sessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	one, err := s.Sessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, first.ID, one[0].ID)
}

func TestRecorderListener(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	sess, err := s.Begin(ctx)
	require.NoError(t, err)

	nav := flow.NewNavigator(flow.WithListener(Recorder(s, sess.ID)))
	nav.NextStep()
	nav.NextStep()
	nav.PrevStep()
	nav.SelectTab("summary")
	nav.NextStep()
	// Reset at welcome still records; the viewer started over.
	nav.Reset()
	nav.Reset()
	s.Flush()

	visits, err := s.Visits(ctx, sess.ID)
	require.NoError(t, err)
	var got []flow.Step
	for _, v := range visits {
		got = append(got, v.Step)
	}
	want := []flow.Step{
		flow.StepWelcome,
		flow.StepApplicationIntake,
		flow.StepDocumentVerification,
		flow.StepApplicationIntake,
		flow.StepExecutiveSummary,
		flow.StepNextSteps,
		flow.StepWelcome,
		flow.StepWelcome,
	}
	assert.Equal(t, want, got)

	step, ok, err := ResumeStep(ctx, s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, flow.StepWelcome, step)
}

func TestRecorderSwallowsErrors(t *testing.T) {
	s := openStore(t)
	nav := flow.NewNavigator(flow.WithListener(Recorder(s, "no-such-session")))

	assert.NotPanics(t, func() { nav.NextTab() })
	s.Flush()
	assert.Equal(t, flow.TabApplication, nav.Tab())
}

func TestRecorderDoesNotBlockNavigation(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	sess, err := s.Begin(ctx)
	require.NoError(t, err)

	// Hold the only connection so the writer stalls.
	tx, err := s.db.BeginTx(ctx, nil)
	require.NoError(t, err)

	nav := flow.NewNavigator(flow.WithListener(Recorder(s, sess.ID)))
	start := time.Now()
	nav.NextStep()
	nav.NextStep()
	nav.NextStep()
	assert.Less(t, time.Since(start), 500*time.Millisecond, "navigation waited on the database")

	require.NoError(t, tx.Rollback())
	s.Flush()
	visits, err := s.Visits(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, visits, 4)
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	sess, err := s.Begin(ctx)
	require.NoError(t, err)

	tx, err := s.db.BeginTx(ctx, nil)
	require.NoError(t, err)

	nav := flow.NewNavigator(flow.WithListener(Recorder(s, sess.ID)))
	const moves = 4 * visitQueueSize
	for i := range moves {
		if i%2 == 0 {
			nav.NextStep()
		} else {
			nav.PrevStep()
		}
	}

	require.NoError(t, tx.Rollback())
	s.Flush()
	visits, err := s.Visits(ctx, sess.ID)
	require.NoError(t, err)
	// The Begin visit, one write in flight and a full queue at most.
	assert.LessOrEqual(t, len(visits), visitQueueSize+2)
	assert.Greater(t, len(visits), 1)
}

func TestCloseWritesQueuedVisits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	sess, err := s.Begin(ctx)
	require.NoError(t, err)
	nav := flow.NewNavigator(flow.WithListener(Recorder(s, sess.ID)))
	nav.NextStep()
	nav.NextStep()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	// Arrivals after Close are dropped, not panics.
	assert.NotPanics(t, func() { nav.NextStep() })
	s.Flush()

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	visits, err := s.Visits(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, visits, 3)
}

func TestVisitWritesAreTimed(t *testing.T) {
	var buf bytes.Buffer
	prev := debug.Enabled()
	debug.SetOutput(&buf)
	t.Cleanup(func() { debug.SetEnabled(prev) })

	s := openStore(t)
	sess, err := s.Begin(context.Background())
	require.NoError(t, err)
	nav := flow.NewNavigator(flow.WithListener(Recorder(s, sess.ID)))
	nav.NextStep()
	s.Flush()

	assert.Contains(t, buf.String(), "progress: visit write")
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	sess, err := s.BeginAt(ctx, flow.StepRiskSimulation)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, latest.ID)
	assert.Equal(t, flow.StepRiskSimulation, latest.LastStep)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
