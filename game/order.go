package game

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

const (
	BaseSecondsPerIngredient = 1.0
	// MultiMaxIngredients caps ticket length in coop and versus so queue
	// attacks cannot grow a ticket without bound.
	MultiMaxIngredients = 6
	FeverSeconds        = 6.0
	// ChainGapSeconds is added when a time limit is chained after a predecessor.
	ChainGapSeconds = 1.0
)

var orderNamespace = uuid.MustParse("6f1c7a3e-58d4-4d5b-9a0e-2f3b1c8e7d41")

// Kind tags which ticket variant an order carries.
type Kind string

const (
	KindNormal Kind = "normal"
	KindFever  Kind = "fever"
)

// Ticket is the variant part of an order. It is implemented only by
// NormalTicket and FeverTicket; consumers type-switch on it.
type Ticket interface {
	Kind() Kind
	Tokens() []Ingredient
}

// NormalTicket requires an exact positional sequence of ingredients.
type NormalTicket struct {
	Ingredients []Ingredient `json:"ingredients"`
}

func (NormalTicket) Kind() Kind {
	return KindNormal
}

func (t NormalTicket) Tokens() []Ingredient {
	return t.Ingredients
}

// FeverTicket asks for as many copies of Target as the player can stack.
type FeverTicket struct {
	Target Ingredient `json:"target"`
	Cycle  int        `json:"cycle"`
}

func (FeverTicket) Kind() Kind {
	return KindFever
}

func (t FeverTicket) Tokens() []Ingredient {
	return []Ingredient{t.Target}
}

// Order is one ticket in the queue. Elapsed only advances while the order
// is at the head of the queue.
type Order struct {
	ID        string  `json:"id"`
	Index     int     `json:"orderIndex"`
	TimeLimit float64 `json:"timeLimit"`
	Elapsed   float64 `json:"elapsed"`
	Ticket    Ticket  `json:"-"`
}

// Kind returns the ticket variant.
func (o Order) Kind() Kind {
	return o.Ticket.Kind()
}

// MarshalJSON flattens the ticket so clients see one order shape tagged
// by "type".
func (o Order) MarshalJSON() ([]byte, error) {
	wire := struct {
		ID          string       `json:"id"`
		Type        Kind         `json:"type"`
		Index       int          `json:"orderIndex"`
		TimeLimit   float64      `json:"timeLimit"`
		Elapsed     float64      `json:"elapsed"`
		Ingredients []Ingredient `json:"ingredients"`
		Target      Ingredient   `json:"feverIngredient,omitempty"`
		Cycle       int          `json:"feverCycle,omitempty"`
	}{
		ID:          o.ID,
		Index:       o.Index,
		TimeLimit:   o.TimeLimit,
		Elapsed:     o.Elapsed,
		Ingredients: o.Ticket.Tokens(),
	}
	switch t := o.Ticket.(type) {
	case NormalTicket:
		wire.Type = KindNormal
	case FeverTicket:
		wire.Type = KindFever
		wire.Target = t.Target
		wire.Cycle = t.Cycle
	}
	return json.Marshal(wire)
}

func (o Order) clone() Order {
	if t, ok := o.Ticket.(NormalTicket); ok {
		t.Ingredients = append([]Ingredient(nil), t.Ingredients...)
		o.Ticket = t
	}
	return o
}

// OrderOptions tunes GenerateNormalOrder. The zero value generates an
// unchained, uncapped, unseeded order.
type OrderOptions struct {
	// PrevTimeLimit is only used when Chained is set.
	PrevTimeLimit float64
	Chained       bool
	IngredientCap int
	Seed          *uint32
}

// GenerateNormalOrder builds a normal ticket for the given cumulative
// order index. With a seed the result is a pure function of (seed, index).
func GenerateNormalOrder(orderIndex int, opts OrderOptions) Order {
	src := sourceFor(opts.Seed)
	tier := TierFor(orderIndex)

	count := tier.Ingredients
	if opts.IngredientCap > 0 && count > opts.IngredientCap {
		count = opts.IngredientCap
	}

	ingredients := make([]Ingredient, 0, count)
	for i := 0; i < count; i++ {
		pool := Ingredients
		if len(Ingredients) > 1 && len(ingredients) > 0 {
			pool = without(Ingredients, ingredients[len(ingredients)-1])
		}
		ingredients = append(ingredients, pick(src, pool))
	}

	budget := float64(count) * BaseSecondsPerIngredient * tier.TimerMultiplier
	var timeLimit float64
	if opts.Chained {
		timeLimit = opts.PrevTimeLimit + budget + ChainGapSeconds
	} else {
		timeLimit = math.Max(budget, float64(count)*1.0)
	}

	return Order{
		ID:        orderID(opts.Seed, orderIndex, KindNormal),
		Index:     orderIndex,
		TimeLimit: timeLimit,
		Ticket:    NormalTicket{Ingredients: ingredients},
	}
}

// GenerateFeverOrder builds a fever ticket with a single random target.
func GenerateFeverOrder(orderIndex, feverCycle int, seed *uint32) Order {
	src := sourceFor(seed)
	return Order{
		ID:        orderID(seed, orderIndex, KindFever),
		Index:     orderIndex,
		TimeLimit: FeverSeconds,
		Ticket:    FeverTicket{Target: pick(src, Ingredients), Cycle: feverCycle},
	}
}

func orderID(seed *uint32, orderIndex int, kind Kind) string {
	if seed == nil {
		return uuid.NewString()
	}
	name := fmt.Sprintf("%d/%d/%s", *seed, orderIndex, kind)
	return uuid.NewSHA1(orderNamespace, []byte(name)).String()
}

func without(pool []Ingredient, skip Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(pool))
	for _, ing := range pool {
		if ing != skip {
			out = append(out, ing)
		}
	}
	return out
}

// ValidateBurger reports an exact positional match.
func ValidateBurger(staged, required []Ingredient) bool {
	if len(staged) != len(required) {
		return false
	}
	for i := range staged {
		if staged[i] != required[i] {
			return false
		}
	}
	return true
}
