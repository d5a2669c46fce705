package game

// Ingredient is a single burger layer token.
type Ingredient string

const (
	Patty  Ingredient = "patty"
	Cheese Ingredient = "cheese"
	Veggie Ingredient = "veggie"
	Sauce  Ingredient = "sauce"
	Onion  Ingredient = "onion"
	Tomato Ingredient = "tomato"
)

// Ingredients is the full token alphabet, in a fixed order so seeded
// generation picks the same token on every peer.
var Ingredients = []Ingredient{Patty, Cheese, Veggie, Sauce, Onion, Tomato}

// Valid reports whether i belongs to the alphabet.
func (i Ingredient) Valid() bool {
	for _, known := range Ingredients {
		if i == known {
			return true
		}
	}
	return false
}

// Action is an abstract input token delivered by the input layer:
// an ingredient name, or one of the control actions below.
type Action string

const (
	ActionCancel Action = "cancel"
	ActionSubmit Action = "submit"
	ActionPass   Action = "pass"
)

// Ingredient returns the ingredient carried by the action, if any.
func (a Action) Ingredient() (Ingredient, bool) {
	ing := Ingredient(a)
	return ing, ing.Valid()
}

// Valid reports whether the action is known.
func (a Action) Valid() bool {
	switch a {
	case ActionCancel, ActionSubmit, ActionPass:
		return true
	}
	_, ok := a.Ingredient()
	return ok
}
