package game

import "unicode/utf16"

// CoopKeys is the subset of actions one coop player may send.
type CoopKeys []Action

// Allows reports whether a is in the key set.
func (k CoopKeys) Allows(a Action) bool {
	for _, allowed := range k {
		if a == allowed {
			return true
		}
	}
	return false
}

// AssignCoopKeys splits the ingredient alphabet 3/3 between host and guest.
// Both get submit. The split depends only on roomID, so either peer can
// recompute it.
func AssignCoopKeys(roomID string) (host, guest CoopKeys) {
	shuffled := shuffleIngredients(roomID)
	half := len(shuffled) / 2
	for _, ing := range shuffled[:half] {
		host = append(host, Action(ing))
	}
	for _, ing := range shuffled[half:] {
		guest = append(guest, Action(ing))
	}
	return append(host, ActionSubmit), append(guest, ActionSubmit)
}

// shuffleIngredients is a Fisher-Yates shuffle driven by a 32-bit LCG
// seeded from the UTF-16 units of seed.
func shuffleIngredients(seed string) []Ingredient {
	out := append([]Ingredient(nil), Ingredients...)

	var hash int32
	for _, unit := range utf16.Encode([]rune(seed)) {
		hash = hash*31 + int32(unit)
	}
	for i := len(out) - 1; i > 0; i-- {
		hash = hash*1664525 + 1013904223
		h := int64(hash)
		if h < 0 {
			h = -h
		}
		j := int(h % int64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
