package flow

// TabView is the tab bar's projection of a step.
type TabView struct {
	Tab   Tab
	Index int
	ID    string
	Title string
}

// GuidedView is the guided overlay's projection of a step.
type GuidedView struct {
	Step        Step
	Index       int
	Total       int
	ID          string
	Title       string
	Description string
	Group       Group
	First       bool
	Last        bool
}

// TabViewOf projects s onto the tab bar.
func TabViewOf(s Step) TabView {
	t := s.Tab()
	return TabView{Tab: t, Index: t.Index(), ID: t.String(), Title: t.Title()}
}

// GuidedViewOf projects s onto the guided overlay.
func GuidedViewOf(s Step) GuidedView {
	return GuidedView{
		Step:        s,
		Index:       s.Index(),
		Total:       stepCount,
		ID:          s.String(),
		Title:       s.Title(),
		Description: s.Description(),
		Group:       s.Group(),
		First:       s == StepWelcome,
		Last:        int(s) == stepCount-1,
	}
}

// Snapshot is the wire form of both views, as served by the remote state
// endpoint and printed by the CLI.
type Snapshot struct {
	StepIndex   int    `json:"stepIndex"`
	ActiveTabID string `json:"activeTabId"`
	TabTitle    string `json:"tabTitle"`
	CurrentStep string `json:"currentStep"`
	GuidedIndex int    `json:"guidedIndex"`
	GuidedTotal int    `json:"guidedTotal"`
	CurrentTab  string `json:"currentTab"`
	StepTitle   string `json:"stepTitle"`
	IsFirstStep bool   `json:"isFirstStep"`
	IsLastStep  bool   `json:"isLastStep"`
}

// SnapshotOf builds the wire form of s.
func SnapshotOf(s Step) Snapshot {
	tv := TabViewOf(s)
	gv := GuidedViewOf(s)
	return Snapshot{
		StepIndex:   tv.Index,
		ActiveTabID: tv.ID,
		TabTitle:    tv.Title,
		CurrentStep: gv.ID,
		GuidedIndex: gv.Index,
		GuidedTotal: gv.Total,
		CurrentTab:  gv.Group.String(),
		StepTitle:   gv.Title,
		IsFirstStep: gv.First,
		IsLastStep:  gv.Last,
	}
}
