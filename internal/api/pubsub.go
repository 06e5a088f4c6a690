package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	MasteryUpdate struct {
		Words []WordMastery `json:"words"`
	}

	SessionCompleted struct {
		SessionID       string  `json:"session_id"`
		TotalRounds     int     `json:"total_rounds"`
		FirstRoundScore float64 `json:"first_round_score"`
	}
)

// PublishMasteryUpdated pushes the refreshed word-mastery view to the user's
// notification channel after every recorded round.
func (a *API) PublishMasteryUpdated(ctx context.Context, e domain.EventMasteryUpdated) error {
	data := MasteryUpdate{
		Words: toWordMasteries(e.Updates),
	}

	return a.publishNotification(ctx, e.UserID, e.Name(), data)
}

// PublishSessionCompleted notifies the session's user that every question was
// eventually answered correctly.
func (a *API) PublishSessionCompleted(ctx context.Context, e domain.EventSessionCompleted) error {
	s := e.Summary

	data := SessionCompleted{
		SessionID:       s.SessionID,
		TotalRounds:     s.TotalRounds,
		FirstRoundScore: s.FirstRoundScore,
	}

	return a.publishNotification(ctx, s.UserID, e.Name(), data)
}

func (a *API) publishNotification(ctx context.Context, userID int64, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:user:%d", a.prefix, userID), b).Err()
}
