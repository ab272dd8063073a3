package progress

import (
	"context"
	"errors"
	"time"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

const (
	// recordTimeout bounds one queued visit write.
	recordTimeout = 2 * time.Second
	// visitQueueSize is how many visits may wait for the writer before
	// new ones are dropped.
	visitQueueSize = 64
)

// queuedVisit is a visit waiting for the writer. A non-nil flushed marks a
// Flush barrier instead.
type queuedVisit struct {
	sessionID string
	step      flow.Step
	flushed   chan struct{}
}

// Recorder returns a listener that logs every arrival into session.
// Visits are queued for the store's writer, so the listener never waits on
// the database. Visits are dropped when the queue is full or the store is
// closed; write failures are logged.
func Recorder(store *Store, sessionID string) flow.Listener {
	return func(tr flow.Transition) {
		if !tr.Changed() && tr.Cause != flow.OpReset {
			return
		}
		if !store.enqueue(queuedVisit{sessionID: sessionID, step: tr.To}) {
			debug.Warn("progress: dropped visit to %s", tr.To)
		}
	}
}

// Flush blocks until every visit queued before the call has been written.
func (s *Store) Flush() {
	done := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	// The writer never takes mu, so this send cannot deadlock.
	s.queue <- queuedVisit{flushed: done}
	s.mu.Unlock()
	<-done
}

func (s *Store) enqueue(v queuedVisit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- v:
		return true
	default:
		return false
	}
}

// writeVisits drains the queue until Close closes it.
func (s *Store) writeVisits() {
	defer close(s.drained)
	for v := range s.queue {
		if v.flushed != nil {
			close(v.flushed)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		start := time.Now()
		if err := s.RecordVisit(ctx, v.sessionID, v.step); err != nil {
			debug.Warn("progress: %v", err)
		}
		debug.LogTiming("progress: visit write", time.Since(start))
		cancel()
	}
}

// ResumeStep returns the last step of the most recent session. ok is false
// when there is nothing to resume.
func ResumeStep(ctx context.Context, store *Store) (step flow.Step, ok bool, err error) {
	sess, err := store.Latest(ctx)
	if errors.Is(err, ErrNoSession) {
		return flow.StepWelcome, false, nil
	}
	if err != nil {
		return flow.StepWelcome, false, err
	}
	return sess.LastStep, true, nil
}
