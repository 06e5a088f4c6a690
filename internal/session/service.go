// Package session runs the round-by-round quiz session lifecycle: round 1
// comes from the selector, each imperfect round spawns a retry round from the
// missed questions, and a perfect round completes the session.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
	"github.com/MrigankDubey/My-Second-app/internal/errors"
	"github.com/MrigankDubey/My-Second-app/internal/event"
	"github.com/MrigankDubey/My-Second-app/internal/selector"
	"github.com/MrigankDubey/My-Second-app/internal/telemetry"
)

// Selector produces the question set for round 1. It is never re-queried
// after that; retry rounds come from the session's own bookkeeping.
type Selector interface {
	SelectQuiz(ctx context.Context, userID int64, cfg selector.QuizConfig) ([]domain.Question, error)
}

// Recorder is the mastery-store surface the session engine writes through.
type Recorder interface {
	RecordAttempt(ctx context.Context, rec domain.AttemptRecord) (domain.QuestionMastery, error)
	WordMasteryUpdates(ctx context.Context, userID int64, questionIDs []int64) ([]domain.WordMastery, error)
}

// Recency receives the question set of every new session for the
// recency-window exclusions of later quizzes.
type Recency interface {
	RecordSession(ctx context.Context, userID int64, questionIDs []int64) error
}

type Config struct {
	Registry *Registry
	Selector Selector
	Recorder Recorder
	Recency  Recency
	EventBus *event.Bus
}

type Service struct {
	registry *Registry
	selector Selector
	recorder Recorder
	recency  Recency
	eb       *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		registry: c.Registry,
		selector: c.Selector,
		recorder: c.Recorder,
		recency:  c.Recency,
		eb:       c.EventBus,
	}
}

type CreateSessionRequest struct {
	UserID int64
	Quiz   selector.QuizConfig
}

// CreateSession selects the quiz and opens round 1. A short selection is a
// degraded result, not an error: the caller must inspect the question count.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.Session, error) {
	questions, err := s.selector.SelectQuiz(ctx, req.UserID, req.Quiz)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if len(questions) < req.Quiz.TargetCount {
		telemetry.SelectionShortfalls.Inc()
	}

	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}
	attemptID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate attempt ID: %w", err)
	}

	if err := s.recency.RecordSession(ctx, req.UserID, questionIDs(questions)); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	now := time.Now()
	ss := &domain.Session{
		SessionID:         sessionID.String(),
		UserID:            req.UserID,
		OriginalQuestions: questions,
		Round:             1,
		AttemptID:         attemptID.String(),
		ActiveQuestions:   questions,
		CreateTime:        now,
		UpdateTime:        now,
	}

	s.registry.put(ss)
	telemetry.SessionsStarted.Inc()

	return ss, nil
}

type SubmitRoundRequest struct {
	SessionID string
	UserID    int64
	// Round is the round number the responses were answered against, as
	// returned by CreateSession or the previous round result. A mismatch
	// means the session moved on and the submission is stale.
	Round     int
	Responses []domain.Response
}

// SubmitRound grades one round, records every valid response, and either
// completes the session or opens a retry round from the missed questions.
// Mutations are serialized per session.
func (s *Service) SubmitRound(ctx context.Context, req SubmitRoundRequest) (*domain.RoundResult, error) {
	e, ok := s.registry.get(req.SessionID)
	if !ok {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("session not found: session=%s", req.SessionID))
	}

	if e.s.UserID != req.UserID {
		return nil, errors.New(errors.CodePermissionDenied,
			errors.WithMessagef("session belongs to another user: session=%s", req.SessionID))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ss := e.s

	if ss.IsCompleted {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("session already completed: session=%s", req.SessionID))
	}

	if req.Round != ss.Round {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("stale round: session=%s submitted=%d active=%d", req.SessionID, req.Round, ss.Round))
	}

	active := make(map[int64]domain.Question, len(ss.ActiveQuestions))
	for _, q := range ss.ActiveQuestions {
		active[q.QuestionID] = q
	}

	// Validate per response: a response outside the active set is dropped
	// and flagged, never fails the whole round on its own.
	var (
		valid   []gradedResponse
		invalid []domain.InvalidResponse
		graded  = make(map[int64]bool)
	)
	for _, r := range req.Responses {
		q, ok := active[r.QuestionID]
		if !ok {
			invalid = append(invalid, domain.InvalidResponse{
				QuestionID: r.QuestionID,
				Reason:     "question not in active round",
			})
			continue
		}
		if _, dup := graded[r.QuestionID]; dup {
			invalid = append(invalid, domain.InvalidResponse{
				QuestionID: r.QuestionID,
				Reason:     "duplicate response",
			})
			continue
		}

		_, already := e.attempted[r.QuestionID]
		correct := grade(q, r.SelectedAnswer)
		graded[r.QuestionID] = correct
		valid = append(valid, gradedResponse{
			question:       q,
			selectedAnswer: r.SelectedAnswer,
			isCorrect:      correct,
			isFirstAttempt: !already,
		})
	}

	if len(valid) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("round has no valid responses: session=%s round=%d", req.SessionID, ss.Round))
	}

	// Record every response before touching session state, so a store
	// failure aborts the operation with the session unchanged.
	now := time.Now()
	for _, v := range valid {
		_, err := s.recorder.RecordAttempt(ctx, domain.AttemptRecord{
			AttemptID:      ss.AttemptID,
			UserID:         ss.UserID,
			QuestionID:     v.question.QuestionID,
			SelectedAnswer: v.selectedAnswer,
			IsCorrect:      v.isCorrect,
			IsFirstAttempt: v.isFirstAttempt,
			CreateTime:     now,
		})
		if err != nil {
			return nil, fmt.Errorf("record attempt: question=%d: %w", v.question.QuestionID, err)
		}

		// Remember each recording as it lands. When a later response aborts
		// the round, a resubmission must not replay the recorded ones as
		// first attempts, or one real first attempt would count twice.
		e.attempted[v.question.QuestionID] = struct{}{}
		telemetry.AttemptsRecorded.Inc()
	}

	updates, err := s.recorder.WordMasteryUpdates(ctx, ss.UserID, answeredIDs(valid))
	if err != nil {
		return nil, fmt.Errorf("word mastery updates: %w", err)
	}

	// Questions answered correctly leave the session; everything else in
	// the active set (answered wrong or not answered) stays for the retry
	// round.
	var correctCount int
	var missed []domain.Question
	for _, q := range ss.ActiveQuestions {
		if graded[q.QuestionID] {
			correctCount++
		} else {
			missed = append(missed, q)
		}
	}

	result := domain.RoundResult{
		SessionID:          ss.SessionID,
		Round:              ss.Round,
		AttemptID:          ss.AttemptID,
		TotalQuestions:     len(ss.ActiveQuestions),
		CorrectAnswers:     correctCount,
		ScorePercentage:    scorePercentage(correctCount, len(ss.ActiveQuestions)),
		IncorrectQuestions: missed,
		InvalidResponses:   invalid,
		MasteryUpdates:     updates,
	}

	if len(missed) == 0 {
		ss.IsCompleted = true
		ss.ActiveQuestions = nil
		result.IsComplete = true
	} else {
		next := shuffled(missed)
		nextAttempt, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate attempt ID: %w", err)
		}
		ss.Round++
		ss.AttemptID = nextAttempt.String()
		ss.ActiveQuestions = next
		result.NextQuestions = next
	}

	ss.CompletedRounds = append(ss.CompletedRounds, result)
	ss.UpdateTime = now

	telemetry.RoundsSubmitted.Inc()
	s.eb.Publish(ctx, domain.EventRoundSubmitted{Result: result, UserID: ss.UserID})
	if len(updates) > 0 {
		s.eb.Publish(ctx, domain.EventMasteryUpdated{UserID: ss.UserID, Updates: updates})
	}
	if result.IsComplete {
		telemetry.SessionsCompleted.Inc()
		s.eb.Publish(ctx, domain.EventSessionCompleted{Summary: summarize(ss)})
	}

	return &result, nil
}

type SummaryRequest struct {
	SessionID string
	UserID    int64
}

// Summary returns the read-only projection of a session at any point of its
// lifetime.
func (s *Service) Summary(_ context.Context, req SummaryRequest) (*domain.Summary, error) {
	e, ok := s.registry.get(req.SessionID)
	if !ok {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("session not found: session=%s", req.SessionID))
	}

	if e.s.UserID != req.UserID {
		return nil, errors.New(errors.CodePermissionDenied,
			errors.WithMessagef("session belongs to another user: session=%s", req.SessionID))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sum := summarize(e.s)
	return &sum, nil
}

func summarize(ss *domain.Session) domain.Summary {
	sum := domain.Summary{
		SessionID:             ss.SessionID,
		UserID:                ss.UserID,
		CurrentRound:          ss.Round,
		IsCompleted:           ss.IsCompleted,
		TotalRounds:           len(ss.CompletedRounds),
		OriginalQuestionCount: len(ss.OriginalQuestions),
	}

	for _, r := range ss.CompletedRounds {
		sum.Rounds = append(sum.Rounds, domain.RoundSummary{
			Round:           r.Round,
			QuestionCount:   r.TotalQuestions,
			CorrectAnswers:  r.CorrectAnswers,
			ScorePercentage: r.ScorePercentage,
			IsPerfect:       r.IsComplete || r.CorrectAnswers == r.TotalQuestions,
		})
	}

	if len(ss.CompletedRounds) > 0 {
		sum.FirstRoundScore = ss.CompletedRounds[0].ScorePercentage
	}

	return sum
}

type gradedResponse struct {
	question       domain.Question
	selectedAnswer string
	isCorrect      bool
	isFirstAttempt bool
}

// grade compares answers case-insensitively, ignoring surrounding space.
func grade(q domain.Question, selected string) bool {
	return strings.EqualFold(strings.TrimSpace(selected), strings.TrimSpace(q.CorrectAnswer))
}

func scorePercentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

func shuffled(qs []domain.Question) []domain.Question {
	out := make([]domain.Question, len(qs))
	copy(out, qs)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	return out
}

func questionIDs(qs []domain.Question) []int64 {
	ids := make([]int64, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.QuestionID)
	}

	return ids
}

func answeredIDs(valid []gradedResponse) []int64 {
	ids := make([]int64, 0, len(valid))
	for _, v := range valid {
		ids = append(ids, v.question.QuestionID)
	}

	return ids
}
