package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		player_id  TEXT PRIMARY KEY,
		nickname   TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		picture    TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scores (
		player_id  TEXT NOT NULL,
		mode       TEXT NOT NULL,
		nickname   TEXT NOT NULL,
		score      INTEGER NOT NULL,
		max_combo  INTEGER NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (player_id, mode)
	)`,
	`CREATE INDEX IF NOT EXISTS scores_mode_score_idx ON scores (mode, score DESC)`,
	`CREATE TABLE IF NOT EXISTS teams (
		team_key   TEXT PRIMARY KEY,
		player_a   TEXT NOT NULL,
		player_b   TEXT NOT NULL,
		score      INTEGER NOT NULL,
		max_combo  INTEGER NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

// PostgresStore is the ScoreStore used when DATABASE_URL is set.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Println("[DB] Postgres pool initialized")
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the tables if they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", describe(err))
		}
	}
	return nil
}

func (s *PostgresStore) SavePlayer(ctx context.Context, p Player) error {
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (player_id, nickname, email, picture, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id) DO UPDATE
		SET nickname = EXCLUDED.nickname, picture = EXCLUDED.picture`,
		p.PlayerID, p.Nickname, p.Email, p.Picture, p.CreatedAt)
	if err != nil {
		log.Printf("[DB] Error saving player %s: %v", p.PlayerID, err)
		return describe(err)
	}
	return nil
}

func (s *PostgresStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	var p Player
	err := s.pool.QueryRow(ctx, `
		SELECT player_id, nickname, email, picture, created_at
		FROM players WHERE player_id = $1`, playerID).
		Scan(&p.PlayerID, &p.Nickname, &p.Email, &p.Picture, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) UpsertBestScore(ctx context.Context, e ScoreEntry) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO scores (player_id, mode, nickname, score, max_combo, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_id, mode) DO UPDATE
		SET nickname = EXCLUDED.nickname, score = EXCLUDED.score,
		    max_combo = EXCLUDED.max_combo, updated_at = EXCLUDED.updated_at
		WHERE scores.score < EXCLUDED.score`,
		e.PlayerID, e.Mode, e.Nickname, e.Score, e.MaxCombo, e.UpdatedAt)
	if err != nil {
		log.Printf("[DB] Error saving score for %s: %v", e.PlayerID, err)
		return describe(err)
	}
	if tag.RowsAffected() == 0 {
		log.Printf("[DB] %s score %d for %s did not beat the stored best", e.Mode, e.Score, e.PlayerID)
	}
	return nil
}

func (s *PostgresStore) GetBestScore(ctx context.Context, playerID, mode string) (*ScoreEntry, error) {
	var e ScoreEntry
	err := s.pool.QueryRow(ctx, `
		SELECT player_id, mode, nickname, score, max_combo, updated_at
		FROM scores WHERE player_id = $1 AND mode = $2`, playerID, mode).
		Scan(&e.PlayerID, &e.Mode, &e.Nickname, &e.Score, &e.MaxCombo, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) GetLeaderboard(ctx context.Context, mode string, from, to int) ([]ScoreEntry, error) {
	if from < 0 {
		from = 0
	}
	if to < from {
		return []ScoreEntry{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, mode, nickname, score, max_combo, updated_at
		FROM scores WHERE mode = $1
		ORDER BY score DESC, updated_at ASC
		OFFSET $2 LIMIT $3`, mode, from, to-from+1)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[ScoreEntry])
}

func (s *PostgresStore) UpsertTeamScore(ctx context.Context, a, b string, score, maxCombo int) error {
	first, second := teamPair(a, b)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO teams (team_key, player_a, player_b, score, max_combo, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (team_key) DO UPDATE
		SET score = EXCLUDED.score, max_combo = EXCLUDED.max_combo, updated_at = EXCLUDED.updated_at
		WHERE teams.score < EXCLUDED.score`,
		TeamKey(a, b), first, second, score, maxCombo, time.Now().Unix())
	return describe(err)
}

func (s *PostgresStore) GetTeamLeaderboard(ctx context.Context, from, to int) ([]TeamScore, error) {
	if from < 0 {
		from = 0
	}
	if to < from {
		return []TeamScore{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT team_key, player_a, player_b, score, max_combo, updated_at
		FROM teams ORDER BY score DESC OFFSET $1 LIMIT $2`, from, to-from+1)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[TeamScore])
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// describe folds the server's error code into the message.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("postgres %s: %s: %w", pgErr.Code, pgErr.Message, err)
	}
	return err
}
