package flow

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"
)

func TestDecodeSignalForms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Tab
	}{
		{"object", `{"nextStep":"complete"}`, TabComplete},
		{"bare string", `"portfolio"`, TabPortfolio},
		{"padded", "  {\"nextStep\": \"summary\"}\n", TabSummary},
		{"mixed case", `{"nextStep":"Traffic-Light"}`, TabTrafficLight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := DecodeSignal([]byte(tt.in))
			if err != nil {
				t.Fatalf("DecodeSignal(%s): %v", tt.in, err)
			}
			if sig.Next() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, sig.Next())
			}
		})
	}
}

func TestDecodeSignalRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"empty", ``, ErrEmptySignal},
		{"empty object", `{}`, ErrEmptySignal},
		{"blank name", `{"nextStep":"  "}`, ErrEmptySignal},
		{"unknown tab", `{"nextStep":"teleport"}`, ErrUnknownTab},
		{"step not tab", `"risk-simulation"`, ErrUnknownTab},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := DecodeSignal([]byte(tt.in))
			if !errors.Is(err, tt.err) {
				t.Errorf("Expected %v, got %v", tt.err, err)
			}
			if sig.Valid() {
				t.Error("rejected input should not yield a valid signal")
			}
		})
	}

	if _, err := DecodeSignal([]byte(`{"nextStep":`)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestSignalJSONField(t *testing.T) {
	var msg struct {
		Signal Signal `json:"signal"`
	}
	if err := json.Unmarshal([]byte(`{"signal":{"nextStep":"pipeline"}}`), &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.Signal.Next() != TabPipeline {
		t.Errorf("Expected pipeline, got %s", msg.Signal.Next())
	}

	if err := json.Unmarshal([]byte(`{"signal":"nope"}`), &msg); err == nil {
		t.Error("Expected error for unknown tab in nested field")
	}
}

func TestMarshalSignal(t *testing.T) {
	data, err := json.Marshal(SignalFor(TabDecision))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"nextStep":"underwriting-decision"}` {
		t.Errorf("unexpected encoding %s", data)
	}
	if _, err := (Signal{}).MarshalJSON(); !errors.Is(err, ErrEmptySignal) {
		t.Errorf("zero signal should not encode, got %v", err)
	}
}

func TestSignalCommand(t *testing.T) {
	c := SignalFor(TabComplete).Command()
	if c.Op() != OpSignal {
		t.Errorf("Expected OpSignal, got %s", c.Op())
	}
	if tab, ok := c.Tab(); !ok || tab != TabComplete {
		t.Errorf("Expected complete tab, got %v %v", tab, ok)
	}
	if (Signal{}).Command().Op() != OpNone {
		t.Error("zero signal should convert to a no-op command")
	}
}

func TestSignalForPanicsOnInvalidTab(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic")
		}
	}()
	SignalFor(Tab(12))
}
