package mastery

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
	"github.com/MrigankDubey/My-Second-app/internal/errors"
	"github.com/MrigankDubey/My-Second-app/internal/telemetry"
)

type Config struct {
	DB *pgxpool.Pool
}

// Store persists attempt records and question-mastery counters in Postgres.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(c Config) *Store {
	return &Store{db: c.DB}
}

// RecordAttempt stores one attempt and, for a correct first attempt, advances
// the question's mastery counter. The attempt row and the counter move commit
// together or not at all. The row lock on (user, question) makes concurrent
// increments safe regardless of caller discipline.
func (s *Store) RecordAttempt(ctx context.Context, rec domain.AttemptRecord) (m domain.QuestionMastery, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.QuestionMastery{}, errors.Unavailable(fmt.Errorf("mastery: begin: %w", err))
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insAttemptStmt = `
INSERT INTO attempts (attempt_id, user_id, question_id, selected_answer, is_correct, is_first_attempt, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err = tx.Exec(ctx, insAttemptStmt,
		rec.AttemptID, rec.UserID, rec.QuestionID, rec.SelectedAnswer, rec.IsCorrect, rec.IsFirstAttempt, rec.CreateTime)
	if err != nil {
		return domain.QuestionMastery{}, errors.Unavailable(fmt.Errorf("mastery: insert attempt: %w", err))
	}

	const lockStmt = `
SELECT first_try_correct_count, is_mastered
FROM question_mastery
WHERE user_id = $1 AND question_id = $2
FOR UPDATE;`

	m = domain.QuestionMastery{UserID: rec.UserID, QuestionID: rec.QuestionID}
	err = tx.QueryRow(ctx, lockStmt, rec.UserID, rec.QuestionID).Scan(&m.FirstTryCorrectCount, &m.IsMastered)
	if err != nil && !stderrors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionMastery{}, errors.Unavailable(fmt.Errorf("mastery: lock state: %w", err))
	}

	wasMastered := m.IsMastered
	m = Advance(m, rec.IsCorrect, rec.IsFirstAttempt)

	const upsertStmt = `
INSERT INTO question_mastery (user_id, question_id, first_try_correct_count, is_mastered)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, question_id) DO UPDATE
SET first_try_correct_count = EXCLUDED.first_try_correct_count,
    is_mastered = EXCLUDED.is_mastered;`

	_, err = tx.Exec(ctx, upsertStmt, m.UserID, m.QuestionID, m.FirstTryCorrectCount, m.IsMastered)
	if err != nil {
		return domain.QuestionMastery{}, errors.Unavailable(fmt.Errorf("mastery: upsert state: %w", err))
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.QuestionMastery{}, errors.Unavailable(fmt.Errorf("mastery: commit: %w", err))
	}

	if !wasMastered && m.IsMastered {
		telemetry.MasteryFlips.Inc()
	}

	return m, nil
}

// QuestionMasteryState reads the current per-question state. Unknown pairs
// report a zero counter, not an error.
func (s *Store) QuestionMasteryState(ctx context.Context, userID, questionID int64) (domain.QuestionMastery, error) {
	const stmt = `
SELECT first_try_correct_count, is_mastered
FROM question_mastery
WHERE user_id = $1 AND question_id = $2;`

	m := domain.QuestionMastery{UserID: userID, QuestionID: questionID}
	err := s.db.QueryRow(ctx, stmt, userID, questionID).Scan(&m.FirstTryCorrectCount, &m.IsMastered)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return m, nil
	}
	if err != nil {
		return domain.QuestionMastery{}, errors.Unavailable(fmt.Errorf("mastery: question state: %w", err))
	}

	return m, nil
}

// FullyMasteredWords returns the ids of words for which every mapped question
// is mastered. Computed fresh on every call.
func (s *Store) FullyMasteredWords(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	const stmt = `
SELECT wqm.word_id
FROM word_question_map wqm
LEFT JOIN question_mastery qm
  ON qm.question_id = wqm.question_id AND qm.user_id = $1
GROUP BY wqm.word_id
HAVING COUNT(*) = COUNT(*) FILTER (WHERE qm.is_mastered);`

	rows, err := s.db.Query(ctx, stmt, userID)
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("mastery: fully mastered words: %w", err))
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set, nil
}

// WordMastery computes the derived per-word view. The totals count every
// question currently mapped to the word, so catalog growth dilutes the
// percentage with no recompute step.
func (s *Store) WordMastery(ctx context.Context, userID, wordID int64) (domain.WordMastery, error) {
	const stmt = `
SELECT
	w.word_id,
	w.word_text,
	COUNT(wqm.question_id) AS total_questions,
	COUNT(*) FILTER (WHERE qm.is_mastered) AS mastered_questions
FROM words w
LEFT JOIN word_question_map wqm ON wqm.word_id = w.word_id
LEFT JOIN question_mastery qm
  ON qm.question_id = wqm.question_id AND qm.user_id = $1
WHERE w.word_id = $2
GROUP BY w.word_id, w.word_text;`

	var wm domain.WordMastery
	err := s.db.QueryRow(ctx, stmt, userID, wordID).Scan(&wm.WordID, &wm.WordText, &wm.TotalQuestions, &wm.MasteredQuestions)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.WordMastery{}, errors.New(errors.CodeNotFound,
			errors.WithMessagef("word not found: word=%d", wordID))
	}
	if err != nil {
		return domain.WordMastery{}, errors.Unavailable(fmt.Errorf("mastery: word mastery: %w", err))
	}

	wm.Percentage = Percentage(wm.TotalQuestions, wm.MasteredQuestions)
	return wm, nil
}

// WordMasteryUpdates returns the current mastery view of every word mapped to
// any of the given questions, for round results and notifications.
func (s *Store) WordMasteryUpdates(ctx context.Context, userID int64, questionIDs []int64) ([]domain.WordMastery, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}

	const stmt = `
SELECT
	w.word_id,
	w.word_text,
	COUNT(DISTINCT wqm.question_id) AS total_questions,
	COUNT(DISTINCT wqm.question_id) FILTER (WHERE qm.is_mastered) AS mastered_questions
FROM words w
JOIN word_question_map wqm ON wqm.word_id = w.word_id
LEFT JOIN question_mastery qm
  ON qm.question_id = wqm.question_id AND qm.user_id = $1
WHERE w.word_id IN (
	SELECT word_id FROM word_question_map WHERE question_id = ANY($2)
)
GROUP BY w.word_id, w.word_text
ORDER BY w.word_text;`

	rows, err := s.db.Query(ctx, stmt, userID, questionIDs)
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("mastery: word mastery updates: %w", err))
	}

	return collectWordMastery(rows)
}

// Progress builds the aggregate view: per-word detail plus the
// needing-practice ranking (ascending percentage, descending remaining).
func (s *Store) Progress(ctx context.Context, userID int64, practiceLimit int) (domain.Progress, error) {
	const stmt = `
SELECT
	w.word_id,
	w.word_text,
	COUNT(wqm.question_id) AS total_questions,
	COUNT(*) FILTER (WHERE qm.is_mastered) AS mastered_questions
FROM words w
JOIN word_question_map wqm ON wqm.word_id = w.word_id
LEFT JOIN question_mastery qm
  ON qm.question_id = wqm.question_id AND qm.user_id = $1
GROUP BY w.word_id, w.word_text
ORDER BY w.word_text;`

	rows, err := s.db.Query(ctx, stmt, userID)
	if err != nil {
		return domain.Progress{}, errors.Unavailable(fmt.Errorf("mastery: progress: %w", err))
	}

	words, err := collectWordMastery(rows)
	if err != nil {
		return domain.Progress{}, err
	}

	p := domain.Progress{UserID: userID, Words: words}
	for _, w := range words {
		p.TotalWords++
		p.TotalQuestions += w.TotalQuestions
		p.MasteredQuestions += w.MasteredQuestions
		if w.TotalQuestions > 0 && w.MasteredQuestions == w.TotalQuestions {
			p.FullyMasteredWords++
		}
	}

	p.WordsNeedingPractice = rankNeedingPractice(words, practiceLimit)
	return p, nil
}

// rankNeedingPractice orders unmastered words by ascending percentage, then
// by descending remaining-question count.
func rankNeedingPractice(words []domain.WordMastery, limit int) []domain.WordMastery {
	var need []domain.WordMastery
	for _, w := range words {
		if w.TotalQuestions > 0 && w.MasteredQuestions < w.TotalQuestions {
			need = append(need, w)
		}
	}

	sort.SliceStable(need, func(i, j int) bool {
		if !need[i].Percentage.Equal(need[j].Percentage) {
			return need[i].Percentage.LessThan(need[j].Percentage)
		}
		ri := need[i].TotalQuestions - need[i].MasteredQuestions
		rj := need[j].TotalQuestions - need[j].MasteredQuestions
		return ri > rj
	})

	if limit > 0 && len(need) > limit {
		need = need[:limit]
	}

	return need
}

func collectWordMastery(rows pgx.Rows) ([]domain.WordMastery, error) {
	words, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.WordMastery, error) {
		var wm domain.WordMastery
		if err := r.Scan(&wm.WordID, &wm.WordText, &wm.TotalQuestions, &wm.MasteredQuestions); err != nil {
			return domain.WordMastery{}, err
		}
		wm.Percentage = Percentage(wm.TotalQuestions, wm.MasteredQuestions)
		return wm, nil
	})
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	return words, nil
}
