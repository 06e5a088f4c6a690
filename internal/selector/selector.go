// Package selector builds candidate quizzes: a target distribution across
// quiz types, minus recently seen questions, minus questions whose words the
// user has fully mastered, backfilled on shortfall.
package selector

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
)

// BackfillType fills shortfalls regardless of which types came up short.
// Carried over from the original selection rules as documented behavior.
const BackfillType = domain.QuizTypeSynonym

// Catalog is the question lookup the selector draws from. Results are a
// random sample with no ordering guarantee.
type Catalog interface {
	QuestionsByType(ctx context.Context, qt domain.QuizType, limit int, excludedQuestionIDs, excludedWordIDs []int64) ([]domain.Question, error)
}

// History supplies the recency-window exclusions.
type History interface {
	RecentQuestionIDs(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

// Mastery supplies the mastered-word exclusions.
type Mastery interface {
	FullyMasteredWords(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

type Config struct {
	Catalog Catalog
	History History
	Mastery Mastery
}

type Service struct {
	catalog Catalog
	history History
	mastery Mastery
}

func NewService(c Config) *Service {
	return &Service{
		catalog: c.Catalog,
		history: c.History,
		mastery: c.Mastery,
	}
}

// QuizConfig sets the overall target and the per-type sub-targets.
type QuizConfig struct {
	TargetCount  int
	Distribution map[domain.QuizType]int
}

// DefaultQuizConfig is the balanced 20-question distribution.
func DefaultQuizConfig() QuizConfig {
	return QuizConfig{
		TargetCount: 20,
		Distribution: map[domain.QuizType]int{
			domain.QuizTypeSynonym:     4,
			domain.QuizTypeAntonym:     4,
			domain.QuizTypeWordMeaning: 4,
			domain.QuizTypeFillInBlank: 3,
			domain.QuizTypeAnalogy:     3,
			domain.QuizTypeOddOneOut:   2,
		},
	}
}

// SelectQuiz builds the question set for a new session. A short catalog
// degrades the result instead of failing it: the caller must inspect the
// returned count.
func (s *Service) SelectQuiz(ctx context.Context, userID int64, cfg QuizConfig) ([]domain.Question, error) {
	if cfg.TargetCount <= 0 {
		return nil, nil
	}

	excludedQuestions, err := s.history.RecentQuestionIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("selector: recent questions: %w", err)
	}

	excludedWords, err := s.mastery.FullyMasteredWords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("selector: mastered words: %w", err)
	}

	var (
		picked   []domain.Question
		pickedID = make(map[int64]struct{})
	)

	// Stable iteration over the closed type set; a type with zero
	// candidates contributes zero and never blocks the others.
	for _, qt := range domain.QuizTypes() {
		target := cfg.Distribution[qt]
		if target <= 0 {
			continue
		}

		qs, err := s.fetch(ctx, qt, target, excludedQuestions, excludedWords, pickedID)
		if err != nil {
			return nil, err
		}
		picked = appendPicked(picked, pickedID, qs)
	}

	// Backfill any shortfall from the default type, same exclusions.
	if need := cfg.TargetCount - len(picked); need > 0 {
		qs, err := s.fetch(ctx, BackfillType, need, excludedQuestions, excludedWords, pickedID)
		if err != nil {
			return nil, err
		}
		picked = appendPicked(picked, pickedID, qs)
	}

	// Last resort: relax the recency window (mastered words stay excluded)
	// rather than return an overly short quiz.
	if need := cfg.TargetCount - len(picked); need > 0 {
		qs, err := s.fetch(ctx, BackfillType, need, nil, excludedWords, pickedID)
		if err != nil {
			return nil, err
		}
		picked = appendPicked(picked, pickedID, qs)
	}

	if len(picked) > cfg.TargetCount {
		picked = picked[:cfg.TargetCount]
	}

	// Presentation order must not reveal grouping by type.
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	return picked, nil
}

// fetch pulls up to 2x count candidates and keeps the first count that are
// not already picked.
func (s *Service) fetch(ctx context.Context, qt domain.QuizType, count int, excludedQuestions, excludedWords, pickedID map[int64]struct{}) ([]domain.Question, error) {
	exQ := setToSlice(excludedQuestions)
	for id := range pickedID {
		exQ = append(exQ, id)
	}

	candidates, err := s.catalog.QuestionsByType(ctx, qt, count*2, exQ, setToSlice(excludedWords))
	if err != nil {
		return nil, fmt.Errorf("selector: fetch %s: %w", qt, err)
	}

	var out []domain.Question
	for _, q := range candidates {
		if len(out) >= count {
			break
		}
		if _, ok := pickedID[q.QuestionID]; ok {
			continue
		}
		out = append(out, q)
	}

	return out, nil
}

func appendPicked(picked []domain.Question, pickedID map[int64]struct{}, qs []domain.Question) []domain.Question {
	for _, q := range qs {
		if _, ok := pickedID[q.QuestionID]; ok {
			continue
		}
		pickedID[q.QuestionID] = struct{}{}
		picked = append(picked, q)
	}

	return picked
}

func setToSlice(set map[int64]struct{}) []int64 {
	if len(set) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
