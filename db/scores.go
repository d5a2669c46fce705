// Package db persists player identities, best scores and coop team scores.
package db

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/mocks"
	"github.com/cenkalti/backoff/v4"
)

// Player is a signed-in or guest identity.
type Player struct {
	PlayerID  string `json:"playerId" dynamodbav:"PlayerID"`
	Nickname  string `json:"nickname" dynamodbav:"Nickname"`
	Email     string `json:"email,omitempty" dynamodbav:"Email"`
	Picture   string `json:"picture,omitempty" dynamodbav:"Picture"`
	CreatedAt int64  `json:"createdAt" dynamodbav:"CreatedAt"`
}

// ScoreEntry is a player's best score in one mode. Field order matters to
// the Postgres row mapping.
type ScoreEntry struct {
	PlayerID  string `json:"playerId" dynamodbav:"PlayerID"`
	Mode      string `json:"mode" dynamodbav:"Mode"`
	Nickname  string `json:"nickname" dynamodbav:"Nickname"`
	Score     int    `json:"score" dynamodbav:"Score"`
	MaxCombo  int    `json:"maxCombo" dynamodbav:"MaxCombo"`
	UpdatedAt int64  `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// TeamScore is the best coop score of an unordered pair of players.
type TeamScore struct {
	TeamKey   string `json:"teamKey" dynamodbav:"TeamKey"`
	PlayerA   string `json:"playerA" dynamodbav:"PlayerA"`
	PlayerB   string `json:"playerB" dynamodbav:"PlayerB"`
	Score     int    `json:"score" dynamodbav:"Score"`
	MaxCombo  int    `json:"maxCombo" dynamodbav:"MaxCombo"`
	UpdatedAt int64  `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// ScoreStore is implemented by the DynamoDB, Postgres and in-memory backends.
// Upserts only ever raise a stored score. Getters return nil, nil when
// nothing is stored. Leaderboard ranges are zero based and inclusive.
type ScoreStore interface {
	SavePlayer(ctx context.Context, p Player) error
	GetPlayer(ctx context.Context, playerID string) (*Player, error)

	UpsertBestScore(ctx context.Context, e ScoreEntry) error
	GetBestScore(ctx context.Context, playerID, mode string) (*ScoreEntry, error)
	GetLeaderboard(ctx context.Context, mode string, from, to int) ([]ScoreEntry, error)

	UpsertTeamScore(ctx context.Context, a, b string, score, maxCombo int) error
	GetTeamLeaderboard(ctx context.Context, from, to int) ([]TeamScore, error)

	Close()
}

// TeamKey identifies a pair regardless of argument order.
func TeamKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "#")
}

func teamPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Open picks the backend: the in-memory mock when USE_MOCKS is set,
// Postgres when DATABASE_URL is set, DynamoDB otherwise.
func Open(ctx context.Context) (ScoreStore, error) {
	if mocks.IsMockMode() {
		log.Println("[DB] Running in MOCK MODE - using in-memory database")
		return NewMockStore(mocks.GetMockDynamoDB()), nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		store, err := NewPostgresStore(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}
	return NewDynamoStore(ctx, os.Getenv("AWS_REGION"))
}

// saveAttempts bounds the best-score write. A result screen gets one retry.
const saveAttempts = 2

var saveRetryInterval = 300 * time.Millisecond

// SaveResult stores e as the player's best if it beats the stored one and
// reports whether it is a new personal best. A first score is always a best.
func SaveResult(ctx context.Context, store ScoreStore, e ScoreEntry) (bool, error) {
	// A failed read only costs the new-best flag. The write still goes out.
	prev, readErr := store.GetBestScore(ctx, e.PlayerID, e.Mode)
	if readErr != nil {
		log.Printf("[DB] Error reading %s best for %s: %v", e.Mode, e.PlayerID, readErr)
	}
	if e.UpdatedAt == 0 {
		e.UpdatedAt = time.Now().Unix()
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(saveRetryInterval), saveAttempts-1), ctx)
	err := backoff.Retry(func() error {
		return store.UpsertBestScore(ctx, e)
	}, policy)
	if err != nil {
		log.Printf("[DB] Error saving %s score for %s: %v", e.Mode, e.PlayerID, err)
		return false, err
	}

	newBest := readErr == nil && (prev == nil || e.Score > prev.Score)
	if newBest {
		log.Printf("[DB] New best %s score for %s: %d", e.Mode, e.PlayerID, e.Score)
	}
	return newBest, nil
}
