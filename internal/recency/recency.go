// Package recency keeps the per-user window of recently quizzed questions
// that the selector excludes from new quizzes.
package recency

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrigankDubey/My-Second-app/internal/errors"
)

const defaultWindow = 5

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
	// Window is how many sessions back the exclusion reaches.
	Window int
}

// Tracker stores one entry per quiz session, newest first, trimmed to the
// window size. Losing the list is harmless: the user just sees repeats sooner.
type Tracker struct {
	redis  redis.UniversalClient
	prefix string
	window int
}

func NewTracker(c Config) *Tracker {
	w := c.Window
	if w <= 0 {
		w = defaultWindow
	}

	return &Tracker{
		redis:  c.Redis,
		prefix: c.Prefix,
		window: w,
	}
}

// RecordSession pushes the question ids of a freshly created session onto the
// user's recency list.
func (t *Tracker) RecordSession(ctx context.Context, userID int64, questionIDs []int64) error {
	if len(questionIDs) == 0 {
		return nil
	}

	entry, err := json.Marshal(questionIDs)
	if err != nil {
		return fmt.Errorf("recency: marshal entry: %w", err)
	}

	key := t.key(userID)
	pipe := t.redis.TxPipeline()
	pipe.LPush(ctx, key, entry)
	pipe.LTrim(ctx, key, 0, int64(t.window-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Unavailable(fmt.Errorf("recency: record session: %w", err))
	}

	return nil
}

// RecentQuestionIDs unions the question ids from the user's last sessions,
// up to the window size.
func (t *Tracker) RecentQuestionIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	entries, err := t.redis.LRange(ctx, t.key(userID), 0, int64(t.window-1)).Result()
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("recency: read window: %w", err))
	}

	seen := make(map[int64]struct{})
	for _, entry := range entries {
		var ids []int64
		if err := json.Unmarshal([]byte(entry), &ids); err != nil {
			return nil, fmt.Errorf("recency: decode entry: %w", err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	return seen, nil
}

func (t *Tracker) key(userID int64) string {
	return fmt.Sprintf("%s:user:%d:recent", t.prefix, userID)
}
