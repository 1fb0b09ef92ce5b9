package domain

import "time"

// StateNamespace is the fixed key under which client state is persisted.
const StateNamespace = "lawmate-storage"

// AssistantReply is the assistant half of a strategy exchange. When the
// reply could not be decoded, Degraded is set and Raw carries the original
// response text.
type AssistantReply struct {
	Turn     StrategyTurn `json:"turn"`
	Degraded bool         `json:"degraded,omitempty"`
	Raw      string       `json:"raw,omitempty"`
}

// Exchange is one user/assistant turn pair of the strategy conversation.
type Exchange struct {
	ID        string         `json:"id"`
	User      string         `json:"user"`
	Assistant AssistantReply `json:"assistant"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ClientState is the persisted state of one device.
type ClientState struct {
	MainInput        string          `json:"mainInput"`
	MainResult       *DraftingResult `json:"mainResult"`
	StrategyMessages []Exchange      `json:"strategyMessages"`
	StrategyThreadID string          `json:"strategyThreadId,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate store internals.
func (s ClientState) Clone() ClientState {
	out := s
	if s.MainResult != nil {
		r := *s.MainResult
		out.MainResult = &r
	}
	out.StrategyMessages = make([]Exchange, len(s.StrategyMessages))
	for i, ex := range s.StrategyMessages {
		out.StrategyMessages[i] = ex.Clone()
	}
	return out
}

// Clone returns a copy of the exchange that shares no slices with it.
func (e Exchange) Clone() Exchange {
	e.Assistant.Turn = e.Assistant.Turn.Clone()
	return e
}
