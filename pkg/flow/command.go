package flow

import "fmt"

// Op names what a Command does.
type Op int

const (
	OpNone Op = iota
	OpNextTab
	OpPrevTab
	OpSelectTab
	OpNextStep
	OpPrevStep
	OpSetStep
	OpReset
	OpSignal
)

var opNames = [...]string{
	OpNone:      "none",
	OpNextTab:   "next-tab",
	OpPrevTab:   "prev-tab",
	OpSelectTab: "select-tab",
	OpNextStep:  "next-step",
	OpPrevStep:  "prev-step",
	OpSetStep:   "set-step",
	OpReset:     "reset",
	OpSignal:    "signal",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// Command is a request to move the flow. Its fields are unexported, so a
// Command can only come from one of the constructors below and always carries
// a valid destination.
type Command struct {
	op   Op
	tab  Tab
	step Step
}

func NextTabCmd() Command  { return Command{op: OpNextTab} }
func PrevTabCmd() Command  { return Command{op: OpPrevTab} }
func NextStepCmd() Command { return Command{op: OpNextStep} }
func PrevStepCmd() Command { return Command{op: OpPrevStep} }
func ResetCmd() Command    { return Command{op: OpReset} }

// SelectTabCmd jumps to t's anchor step. An invalid t yields a no-op command.
func SelectTabCmd(t Tab) Command {
	if !t.Valid() {
		return Command{}
	}
	return Command{op: OpSelectTab, tab: t}
}

// SetStepCmd jumps to s. An invalid s yields a no-op command.
func SetStepCmd(s Step) Command {
	if !s.Valid() {
		return Command{}
	}
	return Command{op: OpSetStep, step: s}
}

// Op reports what the command does.
func (c Command) Op() Op { return c.op }

// Tab is the destination of a select-tab or signal command.
func (c Command) Tab() (Tab, bool) {
	switch c.op {
	case OpSelectTab, OpSignal:
		return c.tab, true
	}
	return 0, false
}

// Step is the destination of a set-step command.
func (c Command) Step() (Step, bool) {
	if c.op == OpSetStep {
		return c.step, true
	}
	return 0, false
}

func (c Command) String() string {
	switch c.op {
	case OpSelectTab, OpSignal:
		return c.op.String() + ":" + c.tab.String()
	case OpSetStep:
		return c.op.String() + ":" + c.step.String()
	}
	return c.op.String()
}
