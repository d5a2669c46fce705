package netplay

import "time"

// FeverAttackCooldown suppresses fever attacks after one was sent.
const FeverAttackCooldown = 2 * time.Second

// FeverAttack maps a stack-count lead to an attack size.
func FeverAttack(delta int) int {
	switch {
	case delta >= 9:
		return 3
	case delta >= 6:
		return 2
	case delta >= 3:
		return 1
	default:
		return 0
	}
}

// FeverLedger pairs both sides' results per fever cycle. Each cycle is
// resolved at most once no matter how often results are redelivered.
type FeverLedger struct {
	now      func() time.Time
	mine     map[int]int
	theirs   map[int]int
	resolved map[int]bool
	coolDown time.Time
}

func NewFeverLedger(now func() time.Time) *FeverLedger {
	if now == nil {
		now = time.Now
	}
	return &FeverLedger{
		now:      now,
		mine:     make(map[int]int),
		theirs:   make(map[int]int),
		resolved: make(map[int]bool),
	}
}

// RecordMine stores the local result and returns the attack to send, if any.
func (l *FeverLedger) RecordMine(cycle, count int) int {
	if l.resolved[cycle] {
		return 0
	}
	l.mine[cycle] = count
	return l.resolve(cycle)
}

// RecordOpponent stores the opponent result and returns the attack to send.
func (l *FeverLedger) RecordOpponent(cycle, count int) int {
	if l.resolved[cycle] {
		return 0
	}
	l.theirs[cycle] = count
	return l.resolve(cycle)
}

// Resolved reports whether cycle has been settled.
func (l *FeverLedger) Resolved(cycle int) bool {
	return l.resolved[cycle]
}

func (l *FeverLedger) resolve(cycle int) int {
	mine, ok := l.mine[cycle]
	if !ok {
		return 0
	}
	theirs, ok := l.theirs[cycle]
	if !ok {
		return 0
	}
	l.resolved[cycle] = true
	delete(l.mine, cycle)
	delete(l.theirs, cycle)

	count := FeverAttack(mine - theirs)
	if count <= 0 {
		return 0
	}
	now := l.now()
	if now.Before(l.coolDown) {
		return 0
	}
	l.coolDown = now.Add(FeverAttackCooldown)
	return count
}
