package game

import (
	"time"
)

// Mode is the way a match is played.
type Mode string

const (
	ModeSolo   Mode = "solo"
	ModeCoop   Mode = "coop"
	ModeVersus Mode = "versus"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSolo || m == ModeCoop || m == ModeVersus
}

// Status is the match lifecycle: idle -> playing -> gameover.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "gameover"
)

const (
	InitialOrderCount  = 3
	InputLockWindow    = 800 * time.Millisecond
	FeverIntervalClear = 5
	FeverTimeoutGrace  = 0.3
	// MaxTickDelta clamps a single tick so a suspended client does not
	// catch up in one jump.
	MaxTickDelta = 0.1
)

// Config fixes the parameters of one match.
type Config struct {
	Mode Mode
	// RoomSeed drives the shared ticket stream in coop. Ignored otherwise.
	RoomSeed      uint32
	InitialOrders int
	InputLock     time.Duration
	FeverEvery    int
	Clock         func() time.Time
}

// DefaultConfig returns the standard tuning for a mode.
func DefaultConfig(mode Mode) Config {
	return Config{
		Mode:          mode,
		InitialOrders: InitialOrderCount,
		InputLock:     InputLockWindow,
		FeverEvery:    FeverIntervalClear,
		Clock:         time.Now,
	}
}

// FeverState is derived from the head order.
type FeverState struct {
	Active     bool       `json:"active"`
	Target     Ingredient `json:"target,omitempty"`
	StackCount int        `json:"stackCount"`
	Cycle      int        `json:"cycle"`
}

// Snapshot is a copy of the match state safe to hand to other goroutines.
type Snapshot struct {
	Mode         Mode         `json:"mode"`
	Status       Status       `json:"status"`
	HP           float64      `json:"hp"`
	Score        int          `json:"score"`
	Combo        int          `json:"combo"`
	MaxCombo     int          `json:"maxCombo"`
	ClearedCount int          `json:"clearedCount"`
	OrderCounter int          `json:"orderCounter"`
	Orders       []Order      `json:"orders"`
	Staged       []Ingredient `json:"staged"`
	Fever        FeverState   `json:"fever"`
}

// Target returns the tokens of the head order.
func (s Snapshot) Target() []Ingredient {
	if len(s.Orders) == 0 {
		return nil
	}
	return s.Orders[0].Ticket.Tokens()
}

// Match is one player's order-queue simulation. It is not safe for
// concurrent use; the owning session serializes every call.
type Match struct {
	cfg       Config
	attackSrc source

	status       Status
	hp           float64
	score        int
	combo        int
	maxCombo     int
	orders       []Order
	staged       []Ingredient
	cleared      int
	orderCounter int

	pendingFever    bool
	nextFeverTarget int
	feverCycle      int

	lockedAt time.Time
	events   []Event
}

// NewMatch returns an idle match.
func NewMatch(cfg Config) *Match {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.InitialOrders <= 0 {
		cfg.InitialOrders = InitialOrderCount
	}
	if cfg.FeverEvery <= 0 {
		cfg.FeverEvery = FeverIntervalClear
	}
	m := &Match{cfg: cfg, attackSrc: globalSource{}}
	m.Reset()
	return m
}

// Reset returns the match to idle, dropping all state.
func (m *Match) Reset() {
	m.status = StatusIdle
	m.hp = HPInit
	m.score, m.combo, m.maxCombo = 0, 0, 0
	m.orders = nil
	m.staged = nil
	m.cleared = 0
	m.orderCounter = 0
	m.pendingFever = false
	m.nextFeverTarget = m.cfg.FeverEvery
	m.feverCycle = 0
	m.lockedAt = time.Time{}
	m.events = nil
}

// Start seeds the queue and begins play. Starting a match that is not
// idle resets it first.
func (m *Match) Start() {
	m.Reset()
	for i := 0; i < m.cfg.InitialOrders; i++ {
		m.orders = append(m.orders, m.nextOrder())
	}
	m.status = StatusPlaying
}

func (m *Match) seedFor(orderIndex int) *uint32 {
	if m.cfg.Mode != ModeCoop {
		return nil
	}
	seed := SeedFor(m.cfg.RoomSeed, orderIndex)
	return &seed
}

func (m *Match) ingredientCap() int {
	if m.cfg.Mode == ModeSolo {
		return 0
	}
	return MultiMaxIngredients
}

func (m *Match) nextOrder() Order {
	idx := m.orderCounter
	m.orderCounter++
	if m.pendingFever {
		m.pendingFever = false
		m.feverCycle++
		return GenerateFeverOrder(idx, m.feverCycle, m.seedFor(idx))
	}
	return GenerateNormalOrder(idx, OrderOptions{
		IngredientCap: m.ingredientCap(),
		Seed:          m.seedFor(idx),
	})
}

func (m *Match) locked() bool {
	return !m.lockedAt.IsZero() && m.cfg.Clock().Sub(m.lockedAt) < m.cfg.InputLock
}

func (m *Match) headFever() (FeverTicket, bool) {
	if len(m.orders) == 0 {
		return FeverTicket{}, false
	}
	t, ok := m.orders[0].Ticket.(FeverTicket)
	return t, ok
}

func (m *Match) emit(e Event) {
	m.events = append(m.events, e)
}

func (m *Match) gameOver() {
	m.status = StatusGameOver
	m.emit(Event{Kind: EventGameOver})
}

// Stage appends an ingredient to the burger under construction.
func (m *Match) Stage(ing Ingredient) bool {
	if m.status != StatusPlaying || !ing.Valid() || m.locked() {
		return false
	}
	if fever, ok := m.headFever(); ok && ing != fever.Target {
		return false
	}
	m.staged = append(m.staged, ing)
	return true
}

// Undo removes the last staged ingredient. Fever stacks cannot be undone.
func (m *Match) Undo() bool {
	if m.status != StatusPlaying || len(m.staged) == 0 {
		return false
	}
	if _, ok := m.headFever(); ok {
		return false
	}
	m.staged = m.staged[:len(m.staged)-1]
	return true
}

// ClearStaged drops the whole staged burger. Blocked during fever.
func (m *Match) ClearStaged() bool {
	if m.status != StatusPlaying || len(m.staged) == 0 {
		return false
	}
	if _, ok := m.headFever(); ok {
		return false
	}
	m.staged = nil
	return true
}

// Submit judges the staged burger against the head order.
func (m *Match) Submit() bool {
	if m.status != StatusPlaying || len(m.orders) == 0 || len(m.staged) == 0 || m.locked() {
		return false
	}

	head := m.orders[0]
	switch t := head.Ticket.(type) {
	case FeverTicket:
		stack := len(m.staged)
		gain := FeverScore(stack)
		m.score += gain
		m.cleared++
		m.emit(Event{Kind: EventSubmitted, Judgement: JudgementPerfect, ScoreGain: gain})
		m.emit(Event{Kind: EventFeverResult, FeverCycle: t.Cycle, FeverCount: stack})
		m.advance()

	case NormalTicket:
		if !ValidateBurger(m.staged, t.Ingredients) {
			m.hp = ClampHP(m.hp + HPWrongSubmit)
			m.staged = nil
			m.combo = 0
			m.emit(Event{Kind: EventWrong})
			if m.hp <= 0 {
				m.gameOver()
			}
			return true
		}

		eligible := IsComboEligible(head.Elapsed, head.TimeLimit)
		judgement := ClearJudgement(head.Elapsed, head.TimeLimit)
		hpDelta := HPCorrectSubmit
		if eligible {
			m.combo++
			hpDelta = HPComboSubmit
		} else {
			m.combo = 0
		}
		if m.combo > m.maxCombo {
			m.maxCombo = m.combo
		}
		gain := ScoreFor(m.combo)
		m.score += gain
		m.hp = ClampHP(m.hp + hpDelta)
		m.cleared++
		if m.cleared >= m.nextFeverTarget {
			m.pendingFever = true
			m.nextFeverTarget += m.cfg.FeverEvery
		}
		m.emit(Event{Kind: EventSubmitted, Judgement: judgement, ScoreGain: gain, Combo: m.combo})
		m.advance()
	}
	return true
}

// advance consumes the head order and appends exactly one new order.
func (m *Match) advance() {
	m.orders = append(m.orders[1:], m.nextOrder())
	m.staged = nil
	m.lockedAt = m.cfg.Clock()
	if fever, ok := m.headFever(); ok {
		m.emit(Event{Kind: EventFeverStarted, FeverCycle: fever.Cycle, Target: fever.Target})
	}
}

// Tick advances the simulation by dt seconds.
func (m *Match) Tick(dt float64) {
	if m.status != StatusPlaying || len(m.orders) == 0 || dt <= 0 {
		return
	}
	if dt > MaxTickDelta {
		dt = MaxTickDelta
	}

	hp := m.hp - TierFor(m.orderCounter).HPDrainPerSecond*dt

	head := &m.orders[0]
	if !m.locked() {
		head.Elapsed += dt
	}
	limit := head.TimeLimit
	if head.Kind() == KindFever {
		limit += FeverTimeoutGrace
	}

	if head.Elapsed > limit {
		switch t := head.Ticket.(type) {
		case NormalTicket:
			hp += HPOrderTimeout
			m.combo = 0
			m.emit(Event{Kind: EventTimeout})
		case FeverTicket:
			m.emit(Event{Kind: EventFeverResult, FeverCycle: t.Cycle, FeverCount: 0})
		}
		m.advance()
	}

	m.hp = ClampHP(hp)
	if m.hp <= 0 {
		m.gameOver()
	}
}

// ForceGameOver ends a playing match without touching score or HP.
func (m *Match) ForceGameOver() bool {
	if m.status != StatusPlaying {
		return false
	}
	m.gameOver()
	return true
}

// InjectAttack extends the last normal order in the queue with count
// random tokens and proportional extra time. It never adds queue slots
// and never touches the combo.
func (m *Match) InjectAttack(count int, attackType AttackType) bool {
	if m.status != StatusPlaying || count <= 0 {
		return false
	}
	idx := -1
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].Kind() == KindNormal {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	target := m.orders[idx].clone()
	ticket := target.Ticket.(NormalTicket)
	for i := 0; i < count; i++ {
		ticket.Ingredients = append(ticket.Ingredients, pick(m.attackSrc, Ingredients))
	}
	target.Ticket = ticket
	target.TimeLimit += float64(count) * BaseSecondsPerIngredient * TierFor(m.orderCounter).TimerMultiplier
	m.orders[idx] = target

	m.emit(Event{Kind: EventAttackReceived, AttackCount: count, AttackType: attackType})
	return true
}

// Apply dispatches an abstract input action. It is the single entry point
// for both local input and replayed coop input.
func (m *Match) Apply(a Action) bool {
	switch a {
	case ActionSubmit:
		return m.Submit()
	case ActionCancel:
		return m.Undo()
	case ActionPass:
		return false
	}
	if ing, ok := a.Ingredient(); ok {
		return m.Stage(ing)
	}
	return false
}

// DrainEvents returns and clears the pending events.
func (m *Match) DrainEvents() []Event {
	events := m.events
	m.events = nil
	return events
}

func (m *Match) Status() Status { return m.status }
func (m *Match) Mode() Mode     { return m.cfg.Mode }
func (m *Match) HP() float64    { return m.hp }
func (m *Match) Score() int     { return m.score }
func (m *Match) Combo() int     { return m.combo }
func (m *Match) MaxCombo() int  { return m.maxCombo }

// QueueLength is the number of orders in the queue.
func (m *Match) QueueLength() int { return len(m.orders) }

// Fever reports the fever state derived from the head order.
func (m *Match) Fever() FeverState {
	fever, ok := m.headFever()
	if !ok {
		return FeverState{Cycle: m.feverCycle}
	}
	return FeverState{Active: true, Target: fever.Target, StackCount: len(m.staged), Cycle: fever.Cycle}
}

// Snapshot copies the full state.
func (m *Match) Snapshot() Snapshot {
	orders := make([]Order, len(m.orders))
	for i, o := range m.orders {
		orders[i] = o.clone()
	}
	return Snapshot{
		Mode:         m.cfg.Mode,
		Status:       m.status,
		HP:           m.hp,
		Score:        m.score,
		Combo:        m.combo,
		MaxCombo:     m.maxCombo,
		ClearedCount: m.cleared,
		OrderCounter: m.orderCounter,
		Orders:       orders,
		Staged:       append([]Ingredient(nil), m.staged...),
		Fever:        m.Fever(),
	}
}
