package game

import "testing"

func TestComboMultiplier(t *testing.T) {
	tests := map[int]float64{
		0: 1.0, 1: 1.5, 2: 1.5, 3: 2.0, 5: 2.0,
		6: 3.0, 9: 3.0, 10: 5.0, 25: 5.0, 1000: 5.0,
	}
	for combo, want := range tests {
		if got := ComboMultiplier(combo); got != want {
			t.Errorf("ComboMultiplier(%d): expected %v, got %v", combo, want, got)
		}
	}
}

func TestComboMultiplier_Monotonic(t *testing.T) {
	for c := 1; c < 50; c++ {
		if ComboMultiplier(c) < ComboMultiplier(c-1) {
			t.Fatalf("Multiplier decreased between %d and %d", c-1, c)
		}
	}
}

func TestScoreFor(t *testing.T) {
	if got := ScoreFor(0); got != 100 {
		t.Errorf("Expected 100, got %d", got)
	}
	if got := ScoreFor(1); got != 150 {
		t.Errorf("Expected 150, got %d", got)
	}
	if got := ScoreFor(12); got != 500 {
		t.Errorf("Expected 500, got %d", got)
	}
}

func TestClearJudgement(t *testing.T) {
	tests := []struct {
		elapsed, limit float64
		want           Judgement
	}{
		{0, 10, JudgementPerfect},
		{3.4, 10, JudgementPerfect},
		{3.5, 10, JudgementGood},
		{6.4, 10, JudgementGood},
		{6.5, 10, JudgementClear},
		{10, 10, JudgementClear},
		{1, 0, JudgementClear},
	}
	for _, tt := range tests {
		if got := ClearJudgement(tt.elapsed, tt.limit); got != tt.want {
			t.Errorf("ClearJudgement(%v, %v): expected %s, got %s", tt.elapsed, tt.limit, tt.want, got)
		}
	}
}

func TestIsComboEligible(t *testing.T) {
	if !IsComboEligible(2, 5) {
		t.Error("Expected 2/5 to be combo eligible")
	}
	if IsComboEligible(3.3, 5) {
		t.Error("Expected 3.3/5 to miss the combo window")
	}
}

func TestClampHP(t *testing.T) {
	if got := ClampHP(-3); got != 0 {
		t.Errorf("Expected 0, got %v", got)
	}
	if got := ClampHP(120); got != HPMax {
		t.Errorf("Expected %v, got %v", HPMax, got)
	}
	if got := ClampHP(42.5); got != 42.5 {
		t.Errorf("Expected 42.5, got %v", got)
	}
}

func TestFeverScore(t *testing.T) {
	if got := FeverScore(7); got != 350 {
		t.Errorf("Expected 350, got %d", got)
	}
}
