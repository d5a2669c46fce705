package db

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const teamRetries = 3

var teamRetryInterval = 250 * time.Millisecond

// SaveTeamScore writes a coop pair's score, retrying transient failures with
// exponential backoff. After the last attempt it logs and gives up; the
// error is returned for callers that care.
func SaveTeamScore(ctx context.Context, store ScoreStore, a, b string, score, maxCombo int) error {
	key := TeamKey(a, b)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = teamRetryInterval
	exp.MaxInterval = 8 * teamRetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, teamRetries), ctx)

	err := backoff.RetryNotify(func() error {
		return store.UpsertTeamScore(ctx, a, b, score, maxCombo)
	}, policy, func(err error, wait time.Duration) {
		log.Printf("[DB] Team score %s failed, retrying in %v: %v", key, wait, err)
	})
	if err != nil {
		log.Printf("[DB] Giving up on team score %s: %v", key, err)
		return err
	}
	log.Printf("[DB] Saved team score %s: %d", key, score)
	return nil
}
