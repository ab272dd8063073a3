package flow

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Signal is the external "go to this tab" message published by peripheral
// controls. The zero value is not a valid signal; build one with ParseSignal
// or DecodeSignal so unknown names are rejected before they reach a
// Navigator.
type Signal struct {
	next Tab
	ok   bool
}

// ParseSignal builds a signal for the tab named id.
func ParseSignal(id string) (Signal, error) {
	if strings.TrimSpace(id) == "" {
		return Signal{}, ErrEmptySignal
	}
	t, err := ParseTab(id)
	if err != nil {
		return Signal{}, fmt.Errorf("signal: %w", err)
	}
	return Signal{next: t, ok: true}, nil
}

// SignalFor builds a signal for t. It panics if t is not a defined tab.
func SignalFor(t Tab) Signal {
	if !t.Valid() {
		panic(fmt.Sprintf("flow: SignalFor(%d): %v", int(t), ErrUnknownTab))
	}
	return Signal{next: t, ok: true}
}

type signalWire struct {
	NextStep string `json:"nextStep"`
}

// DecodeSignal accepts either {"nextStep":"<tab id>"} or a bare JSON string
// such as "complete".
func DecodeSignal(data []byte) (Signal, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Signal{}, ErrEmptySignal
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return Signal{}, fmt.Errorf("decoding signal: %w", err)
		}
		return ParseSignal(id)
	}
	var w signalWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Signal{}, fmt.Errorf("decoding signal: %w", err)
	}
	return ParseSignal(w.NextStep)
}

// Next is the tab the signal points at.
func (s Signal) Next() Tab { return s.next }

// Valid reports whether s was built by one of the constructors.
func (s Signal) Valid() bool { return s.ok }

// Command converts the signal into a Command. An invalid signal yields a
// no-op command.
func (s Signal) Command() Command {
	if !s.ok {
		return Command{}
	}
	return Command{op: OpSignal, tab: s.next}
}

func (s Signal) String() string {
	if !s.ok {
		return "signal(invalid)"
	}
	return "signal:" + s.next.String()
}

// MarshalJSON encodes s as {"nextStep":"<tab id>"}.
func (s Signal) MarshalJSON() ([]byte, error) {
	if !s.ok {
		return nil, ErrEmptySignal
	}
	return json.Marshal(signalWire{NextStep: s.next.String()})
}

// UnmarshalJSON decodes and validates s.
func (s *Signal) UnmarshalJSON(data []byte) error {
	sig, err := DecodeSignal(data)
	if err != nil {
		return err
	}
	*s = sig
	return nil
}
