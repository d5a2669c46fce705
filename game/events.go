package game

// EventKind names something the simulation wants observers to know about.
type EventKind string

const (
	EventSubmitted      EventKind = "submitted"
	EventWrong          EventKind = "wrong"
	EventTimeout        EventKind = "timeout"
	EventFeverStarted   EventKind = "fever_started"
	EventFeverResult    EventKind = "fever_result"
	EventAttackReceived EventKind = "attack_received"
	EventGameOver       EventKind = "game_over"
)

// AttackType says why an attack was sent.
type AttackType string

const (
	AttackCombo      AttackType = "combo"
	AttackFeverDelta AttackType = "fever_delta"
)

// Event is emitted by Match transitions and drained by the session.
// Only the fields relevant to Kind are set, except FeverCount, where
// zero is a meaningful (failed) result.
type Event struct {
	Kind        EventKind  `json:"kind"`
	Judgement   Judgement  `json:"judgement,omitempty"`
	ScoreGain   int        `json:"scoreGain,omitempty"`
	Combo       int        `json:"combo,omitempty"`
	FeverCycle  int        `json:"feverCycle,omitempty"`
	FeverCount  int        `json:"feverCount"`
	Target      Ingredient `json:"target,omitempty"`
	AttackCount int        `json:"attackCount,omitempty"`
	AttackType  AttackType `json:"attackType,omitempty"`
}
