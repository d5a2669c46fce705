package db

import (
	"context"
	"errors"
	"testing"

	"github.com/Park-Jeong-Gil/tap-tap-burger/mocks"
)

func TestTeamKey_OrderIndependent(t *testing.T) {
	if TeamKey("b", "a") != TeamKey("a", "b") {
		t.Errorf("Expected same key, got %s and %s", TeamKey("b", "a"), TeamKey("a", "b"))
	}
	if got := TeamKey("zed", "amy"); got != "amy#zed" {
		t.Errorf("Expected amy#zed, got %s", got)
	}
}

func TestSaveResult_NewBest(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore(mocks.NewMockDynamoDB())

	steps := []struct {
		score int
		want  bool
	}{
		{1200, true},
		{800, false},
		{1200, false},
		{1500, true},
	}
	for _, step := range steps {
		got, err := SaveResult(ctx, store, ScoreEntry{PlayerID: "p1", Mode: "solo", Nickname: "Pat", Score: step.score})
		if err != nil {
			t.Fatalf("SaveResult(%d) failed: %v", step.score, err)
		}
		if got != step.want {
			t.Errorf("SaveResult(%d): expected newBest=%v, got %v", step.score, step.want, got)
		}
	}

	best, _ := store.GetBestScore(ctx, "p1", "solo")
	if best == nil || best.Score != 1500 {
		t.Errorf("Expected stored best 1500, got %+v", best)
	}
	if best.UpdatedAt == 0 {
		t.Error("Expected UpdatedAt to be stamped")
	}
}

// unreadableStore fails every best-score read.
type unreadableStore struct {
	ScoreStore
}

func (unreadableStore) GetBestScore(ctx context.Context, playerID, mode string) (*ScoreEntry, error) {
	return nil, errors.New("read timeout")
}

func TestSaveResult_WritesWhenReadFails(t *testing.T) {
	ctx := context.Background()
	inner := NewMockStore(mocks.NewMockDynamoDB())

	newBest, err := SaveResult(ctx, unreadableStore{inner}, ScoreEntry{PlayerID: "p1", Mode: "solo", Score: 900})
	if err != nil {
		t.Fatalf("Expected the write to succeed, got %v", err)
	}
	if newBest {
		t.Error("Expected newBest=false when the previous best is unknown")
	}

	got, err := inner.GetBestScore(ctx, "p1", "solo")
	if err != nil || got == nil {
		t.Fatalf("Expected stored score, got %v, %v", got, err)
	}
	if got.Score != 900 {
		t.Errorf("Expected 900, got %d", got.Score)
	}
}

func TestSaveResult_ModesAreSeparate(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore(mocks.NewMockDynamoDB())

	SaveResult(ctx, store, ScoreEntry{PlayerID: "p1", Mode: "solo", Score: 5000})
	newBest, _ := SaveResult(ctx, store, ScoreEntry{PlayerID: "p1", Mode: "versus", Score: 100})
	if !newBest {
		t.Error("Expected first versus score to be a best")
	}
}

func TestMockStore_Leaderboard(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore(mocks.NewMockDynamoDB())
	for i, score := range []int{300, 900, 600, 100} {
		store.UpsertBestScore(ctx, ScoreEntry{PlayerID: string(rune('a' + i)), Mode: "solo", Score: score})
	}
	store.UpsertBestScore(ctx, ScoreEntry{PlayerID: "v", Mode: "versus", Score: 9999})

	top, err := store.GetLeaderboard(ctx, "solo", 0, 2)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if len(top) != 3 || top[0].Score != 900 || top[2].Score != 300 {
		t.Errorf("Unexpected top 3: %+v", top)
	}

	tail, _ := store.GetLeaderboard(ctx, "solo", 3, 10)
	if len(tail) != 1 || tail[0].Score != 100 {
		t.Errorf("Unexpected tail: %+v", tail)
	}
}

func TestMockStore_Players(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore(mocks.NewMockDynamoDB())

	if p, err := store.GetPlayer(ctx, "ghost"); err != nil || p != nil {
		t.Fatalf("Expected nil, nil for unknown player, got %+v, %v", p, err)
	}
	store.SavePlayer(ctx, Player{PlayerID: "p1", Nickname: "first"})
	created, _ := store.GetPlayer(ctx, "p1")
	store.SavePlayer(ctx, Player{PlayerID: "p1", Nickname: "second"})
	updated, _ := store.GetPlayer(ctx, "p1")

	if updated.Nickname != "second" {
		t.Errorf("Expected nickname update, got %s", updated.Nickname)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("CreatedAt changed from %d to %d", created.CreatedAt, updated.CreatedAt)
	}
}
