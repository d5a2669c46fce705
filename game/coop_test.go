package game

import "testing"

func TestAssignCoopKeys(t *testing.T) {
	host, guest := AssignCoopKeys("3f2b9a4e-1111-4c8a-9d52-7b1e0c6a2f10")
	host2, guest2 := AssignCoopKeys("3f2b9a4e-1111-4c8a-9d52-7b1e0c6a2f10")

	for i := range host {
		if host[i] != host2[i] || guest[i] != guest2[i] {
			t.Fatalf("Split is not stable: %v/%v vs %v/%v", host, guest, host2, guest2)
		}
	}
	if len(host) != 4 || len(guest) != 4 {
		t.Fatalf("Expected 4 keys each, got %d and %d", len(host), len(guest))
	}
	if !host.Allows(ActionSubmit) || !guest.Allows(ActionSubmit) {
		t.Error("Both players should be able to submit")
	}

	seen := map[Action]int{}
	for _, k := range append(append(CoopKeys{}, host...), guest...) {
		seen[k]++
	}
	for _, ing := range Ingredients {
		if seen[Action(ing)] != 1 {
			t.Errorf("Expected %s assigned exactly once, got %d", ing, seen[Action(ing)])
		}
	}
}
