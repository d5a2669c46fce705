package db

import (
	"context"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/mocks"
)

// MockStore adapts the in-memory mock tables to ScoreStore.
type MockStore struct {
	m *mocks.MockDynamoDB
}

func NewMockStore(m *mocks.MockDynamoDB) *MockStore {
	return &MockStore{m: m}
}

func (s *MockStore) SavePlayer(ctx context.Context, p Player) error {
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	return s.m.SavePlayer(mocks.PlayerRecord{
		PlayerID:  p.PlayerID,
		Nickname:  p.Nickname,
		Email:     p.Email,
		Picture:   p.Picture,
		CreatedAt: p.CreatedAt,
	})
}

func (s *MockStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	rec, err := s.m.GetPlayer(playerID)
	if err != nil || rec == nil {
		return nil, err
	}
	return &Player{
		PlayerID:  rec.PlayerID,
		Nickname:  rec.Nickname,
		Email:     rec.Email,
		Picture:   rec.Picture,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (s *MockStore) UpsertBestScore(ctx context.Context, e ScoreEntry) error {
	return s.m.UpsertBestScore(mocks.ScoreRecord(e))
}

func (s *MockStore) GetBestScore(ctx context.Context, playerID, mode string) (*ScoreEntry, error) {
	rec, err := s.m.GetBestScore(playerID, mode)
	if err != nil || rec == nil {
		return nil, err
	}
	e := ScoreEntry(*rec)
	return &e, nil
}

func (s *MockStore) GetLeaderboard(ctx context.Context, mode string, from, to int) ([]ScoreEntry, error) {
	recs, err := s.m.GetTopScores(mode, from, to)
	if err != nil {
		return nil, err
	}
	entries := make([]ScoreEntry, len(recs))
	for i, rec := range recs {
		entries[i] = ScoreEntry(rec)
	}
	return entries, nil
}

func (s *MockStore) UpsertTeamScore(ctx context.Context, a, b string, score, maxCombo int) error {
	first, second := teamPair(a, b)
	return s.m.UpsertTeamScore(mocks.TeamRecord{
		TeamKey:   TeamKey(a, b),
		PlayerA:   first,
		PlayerB:   second,
		Score:     score,
		MaxCombo:  maxCombo,
		UpdatedAt: time.Now().Unix(),
	})
}

func (s *MockStore) GetTeamLeaderboard(ctx context.Context, from, to int) ([]TeamScore, error) {
	recs, err := s.m.GetTopTeams(from, to)
	if err != nil {
		return nil, err
	}
	teams := make([]TeamScore, len(recs))
	for i, rec := range recs {
		teams[i] = TeamScore(rec)
	}
	return teams, nil
}

func (s *MockStore) Close() {}
