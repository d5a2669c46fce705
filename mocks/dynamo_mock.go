package mocks

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"
)

// ErrMockUnavailable is returned by writes the test asked to fail
var ErrMockUnavailable = errors.New("mock: store unavailable")

// MockDynamoDB provides an in-memory mock for the player and score tables
type MockDynamoDB struct {
	mu      sync.RWMutex
	players map[string]PlayerRecord
	scores  map[string]ScoreRecord
	teams   map[string]TeamRecord

	failTeamWrites int
}

// PlayerRecord represents a player in the mock database
type PlayerRecord struct {
	PlayerID  string `json:"playerId"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
	Picture   string `json:"picture"`
	CreatedAt int64  `json:"createdAt"`
}

// ScoreRecord is a player's best score for one mode
type ScoreRecord struct {
	PlayerID  string `json:"playerId"`
	Mode      string `json:"mode"`
	Nickname  string `json:"nickname"`
	Score     int    `json:"score"`
	MaxCombo  int    `json:"maxCombo"`
	UpdatedAt int64  `json:"updatedAt"`
}

// TeamRecord is the best coop score of a pair of players
type TeamRecord struct {
	TeamKey   string `json:"teamKey"`
	PlayerA   string `json:"playerA"`
	PlayerB   string `json:"playerB"`
	Score     int    `json:"score"`
	MaxCombo  int    `json:"maxCombo"`
	UpdatedAt int64  `json:"updatedAt"`
}

var mockDynamoInstance *MockDynamoDB
var mockDynamoOnce sync.Once

// GetMockDynamoDB returns the singleton mock DynamoDB instance
func GetMockDynamoDB() *MockDynamoDB {
	mockDynamoOnce.Do(func() {
		mockDynamoInstance = NewMockDynamoDB()
		// Add some sample data for local development
		mockDynamoInstance.seedData()
		log.Println("[MOCK] In-memory DynamoDB initialized for local development")
	})
	return mockDynamoInstance
}

// NewMockDynamoDB returns an empty store
func NewMockDynamoDB() *MockDynamoDB {
	return &MockDynamoDB{
		players: make(map[string]PlayerRecord),
		scores:  make(map[string]ScoreRecord),
		teams:   make(map[string]TeamRecord),
	}
}

// seedData adds sample data for local testing
func (m *MockDynamoDB) seedData() {
	now := time.Now().Unix()
	samplePlayers := []PlayerRecord{
		{PlayerID: "mock-player-1", Nickname: "player0417", CreatedAt: now - 7200},
		{PlayerID: "mock-player-2", Nickname: "player2231", CreatedAt: now - 3600},
		{PlayerID: "mock-player-3", Nickname: "player9050", CreatedAt: now - 600},
	}
	for _, p := range samplePlayers {
		m.players[p.PlayerID] = p
	}

	sampleScores := []ScoreRecord{
		{PlayerID: "mock-player-1", Mode: "solo", Nickname: "player0417", Score: 18400, MaxCombo: 23, UpdatedAt: now - 7000},
		{PlayerID: "mock-player-2", Mode: "solo", Nickname: "player2231", Score: 9150, MaxCombo: 11, UpdatedAt: now - 3000},
		{PlayerID: "mock-player-3", Mode: "versus", Nickname: "player9050", Score: 5200, MaxCombo: 8, UpdatedAt: now - 500},
	}
	for _, s := range sampleScores {
		m.scores[scoreKey(s.PlayerID, s.Mode)] = s
	}

	m.teams["mock-player-1#mock-player-2"] = TeamRecord{
		TeamKey: "mock-player-1#mock-player-2", PlayerA: "mock-player-1", PlayerB: "mock-player-2",
		Score: 12600, MaxCombo: 15, UpdatedAt: now - 2000,
	}

	log.Printf("[MOCK] Seeded %d players and %d scores for local development", len(samplePlayers), len(sampleScores))
}

func scoreKey(playerID, mode string) string {
	return playerID + "#" + mode
}

// --- Player Operations ---

// SavePlayer saves or updates a player, keeping the original creation time
func (m *MockDynamoDB) SavePlayer(p PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.players[p.PlayerID]; exists {
		p.CreatedAt = existing.CreatedAt
	}
	m.players[p.PlayerID] = p
	log.Printf("[MOCK] Player saved: %s (%s)", p.Nickname, p.PlayerID)
	return nil
}

// GetPlayer retrieves a player by ID
func (m *MockDynamoDB) GetPlayer(playerID string) (*PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.players[playerID]
	if !exists {
		return nil, nil
	}
	return &p, nil
}

// --- Score Operations ---

// UpsertBestScore keeps the higher of the stored and the new score
func (m *MockDynamoDB) UpsertBestScore(rec ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := scoreKey(rec.PlayerID, rec.Mode)
	if existing, exists := m.scores[key]; exists && existing.Score >= rec.Score {
		return nil
	}
	m.scores[key] = rec
	log.Printf("[MOCK] Best score for %s in %s: %d", rec.PlayerID, rec.Mode, rec.Score)
	return nil
}

// GetBestScore returns nil when the player has no score in mode
func (m *MockDynamoDB) GetBestScore(playerID, mode string) (*ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.scores[scoreKey(playerID, mode)]
	if !exists {
		return nil, nil
	}
	return &rec, nil
}

// GetTopScores returns ranks from..to (inclusive, zero based) for mode
func (m *MockDynamoDB) GetTopScores(mode string, from, to int) ([]ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]ScoreRecord, 0)
	for _, s := range m.scores {
		if s.Mode == mode {
			rows = append(rows, s)
		}
	}

	// Sort by score descending
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].UpdatedAt < rows[j].UpdatedAt
	})
	return window(rows, from, to), nil
}

// --- Team Operations ---

// FailTeamWrites makes the next n team writes fail
func (m *MockDynamoDB) FailTeamWrites(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTeamWrites = n
}

// UpsertTeamScore keeps the higher team score
func (m *MockDynamoDB) UpsertTeamScore(rec TeamRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failTeamWrites > 0 {
		m.failTeamWrites--
		return ErrMockUnavailable
	}
	if existing, exists := m.teams[rec.TeamKey]; exists && existing.Score >= rec.Score {
		return nil
	}
	m.teams[rec.TeamKey] = rec
	log.Printf("[MOCK] Team score for %s: %d", rec.TeamKey, rec.Score)
	return nil
}

// GetTeam returns nil when the pair has no score
func (m *MockDynamoDB) GetTeam(teamKey string) (*TeamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.teams[teamKey]
	if !exists {
		return nil, nil
	}
	return &rec, nil
}

// GetTopTeams returns team ranks from..to
func (m *MockDynamoDB) GetTopTeams(from, to int) ([]TeamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]TeamRecord, 0, len(m.teams))
	for _, t := range m.teams {
		rows = append(rows, t)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})
	return window(rows, from, to), nil
}

func window[T any](rows []T, from, to int) []T {
	if from < 0 {
		from = 0
	}
	if to >= len(rows) {
		to = len(rows) - 1
	}
	if from > to {
		return []T{}
	}
	return rows[from : to+1]
}
