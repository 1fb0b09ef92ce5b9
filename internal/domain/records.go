package domain

// DraftingResult is the five-field output of the document drafting flow.
type DraftingResult struct {
	Prayer   string `json:"prayer"`
	Cause    string `json:"cause"`
	Law      string `json:"law"`
	Case     string `json:"case"`
	Strategy string `json:"strategy"`
}

// LawItem is one statute reference returned by the strategy and guide flows.
type LawItem struct {
	Name     string `json:"name"`
	Summary  string `json:"summary"`
	Original string `json:"original"`
}

// StrategyTurn is the structured assistant turn of the strategy flow.
type StrategyTurn struct {
	Analysis       string    `json:"analysis"`
	Options        []string  `json:"options"`
	Risk           string    `json:"risk"`
	Laws           []LawItem `json:"laws"`
	Recommendation string    `json:"recommendation"`
}

// Clone returns a copy of the turn that shares no slices with it.
// Nil slices stay nil.
func (t StrategyTurn) Clone() StrategyTurn {
	if t.Options != nil {
		t.Options = append([]string(nil), t.Options...)
	}
	if t.Laws != nil {
		t.Laws = append([]LawItem(nil), t.Laws...)
	}
	return t
}

// GuideResult is the output of the statute guide flow.
type GuideResult struct {
	Strategy string    `json:"strategy"`
	Laws     []LawItem `json:"laws"`
}
