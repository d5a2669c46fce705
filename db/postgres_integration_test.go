package db

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newIntegrationPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("burger"),
		postgres.WithUsername("burger"),
		postgres.WithPassword("burger"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("Skipping Postgres integration test: no container provider (%v)", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString failed: %v", err)
	}
	store, err := NewPostgresStore(ctx, url)
	if err != nil {
		t.Fatalf("NewPostgresStore failed: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return store
}

func TestPostgresIntegration_BestScore(t *testing.T) {
	store := newIntegrationPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, score := range []int{700, 400, 1100} {
		if _, err := SaveResult(ctx, store, ScoreEntry{PlayerID: "p1", Mode: "solo", Nickname: "Pat", Score: score}); err != nil {
			t.Fatalf("SaveResult(%d) failed: %v", score, err)
		}
	}
	SaveResult(ctx, store, ScoreEntry{PlayerID: "p2", Mode: "solo", Nickname: "Sam", Score: 900})

	best, err := store.GetBestScore(ctx, "p1", "solo")
	if err != nil || best == nil || best.Score != 1100 {
		t.Fatalf("Expected best 1100, got %+v (%v)", best, err)
	}
	if missing, err := store.GetBestScore(ctx, "p1", "versus"); err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing mode, got %+v, %v", missing, err)
	}

	top, err := store.GetLeaderboard(ctx, "solo", 0, 9)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if len(top) != 2 || top[0].PlayerID != "p1" || top[1].PlayerID != "p2" {
		t.Errorf("Unexpected leaderboard %+v", top)
	}
}

func TestPostgresIntegration_TeamScore(t *testing.T) {
	store := newIntegrationPostgres(t)
	ctx := context.Background()

	if err := SaveTeamScore(ctx, store, "zed", "amy", 3000, 9); err != nil {
		t.Fatalf("SaveTeamScore failed: %v", err)
	}
	SaveTeamScore(ctx, store, "amy", "zed", 1000, 3)

	teams, err := store.GetTeamLeaderboard(ctx, 0, 9)
	if err != nil {
		t.Fatalf("GetTeamLeaderboard failed: %v", err)
	}
	if len(teams) != 1 || teams[0].Score != 3000 || teams[0].TeamKey != "amy#zed" {
		t.Errorf("Unexpected teams %+v", teams)
	}
}

func TestPostgresIntegration_Players(t *testing.T) {
	store := newIntegrationPostgres(t)
	ctx := context.Background()

	store.SavePlayer(ctx, Player{PlayerID: "p1", Nickname: "first", CreatedAt: 10})
	store.SavePlayer(ctx, Player{PlayerID: "p1", Nickname: "second", CreatedAt: 99})

	p, err := store.GetPlayer(ctx, "p1")
	if err != nil || p == nil {
		t.Fatalf("GetPlayer failed: %+v, %v", p, err)
	}
	if p.Nickname != "second" || p.CreatedAt != 10 {
		t.Errorf("Unexpected player %+v", p)
	}
}
