package flow

import (
	"sync"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
)

// Transition describes one move of the flow.
type Transition struct {
	From  Step
	To    Step
	Cause Op
}

// Changed reports whether the move landed on a different step.
func (t Transition) Changed() bool { return t.From != t.To }

// Listener observes transitions. Listeners run synchronously on the goroutine
// that moved the navigator, after the new state is in place.
type Listener func(Transition)

type subscription struct {
	id int
	fn Listener
}

// Navigator is the single owner of the walkthrough position. Both navigation
// surfaces read from it; neither keeps its own copy.
//
// A Navigator is safe for concurrent use. Listeners are called without the
// internal lock held, so they may read the navigator.
type Navigator struct {
	mu     sync.Mutex
	step   Step
	subs   []subscription
	nextID int
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithStartStep starts the navigator at s instead of the welcome step.
// Invalid steps are ignored.
func WithStartStep(s Step) Option {
	return func(n *Navigator) {
		if s.Valid() {
			n.step = s
		}
	}
}

// WithListener subscribes l for the navigator's whole lifetime.
func WithListener(l Listener) Option {
	return func(n *Navigator) {
		n.Subscribe(l)
	}
}

// NewNavigator creates a navigator at the first step.
func NewNavigator(opts ...Option) *Navigator {
	n := &Navigator{step: StepWelcome}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Step returns the current guided step.
func (n *Navigator) Step() Step {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.step
}

// Tab returns the tab the current step is shown under.
func (n *Navigator) Tab() Tab { return n.Step().Tab() }

// TabIndex returns the tab bar position, 0 through TabCount()-1.
func (n *Navigator) TabIndex() int { return n.Tab().Index() }

// Group returns the guided group of the current step.
func (n *Navigator) Group() Group { return n.Step().Group() }

// NextTab moves to the anchor of the following tab. It is a no-op on the
// last tab.
func (n *Navigator) NextTab() Transition {
	return n.move(OpNextTab, func(cur Step) Step {
		t := cur.Tab()
		if int(t) >= tabCount-1 {
			return cur
		}
		return (t + 1).Anchor()
	})
}

// PrevTab moves to the anchor of the preceding tab. It is a no-op on the
// first tab.
func (n *Navigator) PrevTab() Transition {
	return n.move(OpPrevTab, func(cur Step) Step {
		t := cur.Tab()
		if t <= 0 {
			return cur
		}
		return (t - 1).Anchor()
	})
}

// SelectTab jumps to the anchor of the tab named id. Unknown ids leave the
// state untouched and return false.
func (n *Navigator) SelectTab(id string) bool {
	t, err := ParseTab(id)
	if err != nil {
		debug.Log("flow: ignoring select of %q: %v", id, err)
		return false
	}
	n.GoToTab(t)
	return true
}

// GoToTab jumps to the anchor of t.
func (n *Navigator) GoToTab(t Tab) Transition {
	if !t.Valid() {
		debug.Log("flow: ignoring select of %v", t)
		return n.stay(OpSelectTab)
	}
	return n.move(OpSelectTab, func(Step) Step { return t.Anchor() })
}

// Reset returns to the welcome step. Listeners are notified even when the
// flow was already there, so per-run state can be cleared.
func (n *Navigator) Reset() Transition {
	n.mu.Lock()
	tr := Transition{From: n.step, To: StepWelcome, Cause: OpReset}
	n.step = StepWelcome
	subs := n.snapshotSubs()
	n.mu.Unlock()

	n.notify(subs, tr)
	return tr
}

// NextStep advances the guided overlay. It is a no-op on the last step.
func (n *Navigator) NextStep() Transition {
	return n.move(OpNextStep, func(cur Step) Step {
		if int(cur) >= stepCount-1 {
			return cur
		}
		return cur + 1
	})
}

// PrevStep retreats the guided overlay. It is a no-op on the first step.
func (n *Navigator) PrevStep() Transition {
	return n.move(OpPrevStep, func(cur Step) Step {
		if cur <= 0 {
			return cur
		}
		return cur - 1
	})
}

// SetStep jumps to s.
func (n *Navigator) SetStep(s Step) Transition {
	if !s.Valid() {
		debug.Log("flow: ignoring jump to %v", s)
		return n.stay(OpSetStep)
	}
	return n.move(OpSetStep, func(Step) Step { return s })
}

// ApplySignal forces the flow to the anchor of the signalled tab.
func (n *Navigator) ApplySignal(sig Signal) Transition {
	if !sig.Valid() {
		debug.Log("flow: dropping invalid signal")
		return n.stay(OpSignal)
	}
	return n.move(OpSignal, func(Step) Step { return sig.Next().Anchor() })
}

// Apply executes c.
func (n *Navigator) Apply(c Command) Transition {
	switch c.op {
	case OpNextTab:
		return n.NextTab()
	case OpPrevTab:
		return n.PrevTab()
	case OpSelectTab:
		return n.GoToTab(c.tab)
	case OpNextStep:
		return n.NextStep()
	case OpPrevStep:
		return n.PrevStep()
	case OpSetStep:
		return n.SetStep(c.step)
	case OpReset:
		return n.Reset()
	case OpSignal:
		return n.ApplySignal(SignalFor(c.tab))
	}
	return n.stay(OpNone)
}

// TabView returns what the tab bar shows.
func (n *Navigator) TabView() TabView { return TabViewOf(n.Step()) }

// GuidedView returns what the guided overlay shows.
func (n *Navigator) GuidedView() GuidedView { return GuidedViewOf(n.Step()) }

// Snapshot returns both views in wire form.
func (n *Navigator) Snapshot() Snapshot { return SnapshotOf(n.Step()) }

// Subscribe registers l and returns a func that removes it again. After the
// returned func is called l is never invoked. Calling it twice is harmless.
func (n *Navigator) Subscribe(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, fn: l})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (n *Navigator) move(op Op, next func(Step) Step) Transition {
	n.mu.Lock()
	from := n.step
	to := next(from)
	n.step = to
	tr := Transition{From: from, To: to, Cause: op}
	var subs []subscription
	if tr.Changed() {
		subs = n.snapshotSubs()
	}
	n.mu.Unlock()

	debug.LogIf(tr.Changed(), "flow: %s %s -> %s", op, from, to)
	n.notify(subs, tr)
	return tr
}

func (n *Navigator) stay(op Op) Transition {
	cur := n.Step()
	return Transition{From: cur, To: cur, Cause: op}
}

// snapshotSubs must be called with n.mu held.
func (n *Navigator) snapshotSubs() []subscription {
	if len(n.subs) == 0 {
		return nil
	}
	out := make([]subscription, len(n.subs))
	copy(out, n.subs)
	return out
}

func (n *Navigator) notify(subs []subscription, tr Transition) {
	for _, s := range subs {
		if !n.subscribed(s.id) {
			continue
		}
		callListener(s.fn, tr)
	}
}

func (n *Navigator) subscribed(id int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

func callListener(fn Listener, tr Transition) {
	defer func() {
		if r := recover(); r != nil {
			debug.Warn("flow: listener panicked on %s -> %s: %v", tr.From, tr.To, r)
		}
	}()
	fn(tr)
}
