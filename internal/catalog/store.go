package catalog

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
	"github.com/MrigankDubey/My-Second-app/internal/errors"
)

type Config struct {
	DB *pgxpool.Pool
}

// Store is the Postgres-backed question catalog.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(c Config) *Store {
	return &Store{db: c.DB}
}

// QuestionsByType returns up to limit random questions of the given type,
// skipping excluded question ids and questions mapped to excluded words.
// No ordering guarantee.
func (s *Store) QuestionsByType(ctx context.Context, qt domain.QuizType, limit int, excludedQuestionIDs, excludedWordIDs []int64) ([]domain.Question, error) {
	if limit <= 0 {
		return nil, nil
	}

	const stmt = `
SELECT
	q.question_id,
	q.question_text,
	q.quiz_type,
	q.correct_answer,
	COALESCE(array_agg(o.option_text ORDER BY o.option_id) FILTER (WHERE o.option_text IS NOT NULL), '{}') AS options
FROM questions q
LEFT JOIN options o ON q.question_id = o.question_id
WHERE q.quiz_type = $1
  AND NOT (q.question_id = ANY($2))
  AND q.question_id NOT IN (
	SELECT wqm.question_id FROM word_question_map wqm WHERE wqm.word_id = ANY($3)
  )
GROUP BY q.question_id, q.question_text, q.quiz_type, q.correct_answer
ORDER BY RANDOM()
LIMIT $4;`

	rows, err := s.db.Query(ctx, stmt, string(qt), emptyIfNil(excludedQuestionIDs), emptyIfNil(excludedWordIDs), limit)
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("catalog: questions by type %s: %w", qt, err))
	}

	questions, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Question, error) {
		var q domain.Question
		if err := r.Scan(&q.QuestionID, &q.QuestionText, &q.QuizType, &q.CorrectAnswer, &q.Options); err != nil {
			return domain.Question{}, err
		}
		return q, nil
	})
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("catalog: collect questions: %w", err))
	}

	return questions, nil
}

// WordsMappedTo returns the word ids a question maps to.
func (s *Store) WordsMappedTo(ctx context.Context, questionID int64) ([]int64, error) {
	const stmt = `SELECT word_id FROM word_question_map WHERE question_id = $1;`

	rows, err := s.db.Query(ctx, stmt, questionID)
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("catalog: words mapped to question %d: %w", questionID, err))
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	return ids, nil
}

// QuestionsMappedTo returns the question ids a word maps to.
func (s *Store) QuestionsMappedTo(ctx context.Context, wordID int64) ([]int64, error) {
	const stmt = `SELECT question_id FROM word_question_map WHERE word_id = $1;`

	rows, err := s.db.Query(ctx, stmt, wordID)
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("catalog: questions mapped to word %d: %w", wordID, err))
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	return ids, nil
}

// QuizTypeCounts reports how many questions exist per quiz type.
func (s *Store) QuizTypeCounts(ctx context.Context) ([]domain.QuizTypeCount, error) {
	const stmt = `
SELECT quiz_type, COUNT(*) AS question_count
FROM questions
GROUP BY quiz_type
ORDER BY quiz_type;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("catalog: quiz type counts: %w", err))
	}

	counts, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.QuizTypeCount, error) {
		var c domain.QuizTypeCount
		if err := r.Scan(&c.QuizType, &c.QuestionCount); err != nil {
			return domain.QuizTypeCount{}, err
		}
		return c, nil
	})
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	return counts, nil
}

// AddQuestion inserts a question with its options and links its vocabulary
// words. The words become selectable exclusion targets immediately.
func (s *Store) AddQuestion(ctx context.Context, q domain.Question) (_ int64, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, errors.Unavailable(fmt.Errorf("catalog: begin: %w", err))
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insQuestionStmt = `
INSERT INTO questions (question_text, quiz_type, correct_answer)
VALUES ($1, $2, $3)
RETURNING question_id;`

	var questionID int64
	err = tx.QueryRow(ctx, insQuestionStmt, q.QuestionText, string(q.QuizType), q.CorrectAnswer).Scan(&questionID)
	if err != nil {
		return 0, errors.Unavailable(fmt.Errorf("catalog: insert question: %w", err))
	}

	const insOptionStmt = `INSERT INTO options (question_id, option_text) VALUES ($1, $2);`
	for _, opt := range q.Options {
		if _, err = tx.Exec(ctx, insOptionStmt, questionID, opt); err != nil {
			return 0, errors.Unavailable(fmt.Errorf("catalog: insert option: %w", err))
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, errors.Unavailable(fmt.Errorf("catalog: commit: %w", err))
	}

	q.QuestionID = questionID
	if err := s.LinkQuestionWords(ctx, q); err != nil {
		return 0, fmt.Errorf("catalog: link words for question %d: %w", questionID, err)
	}

	return questionID, nil
}

// LinkQuestionWords extracts the question's vocabulary words and upserts the
// question-word mappings. New mappings are visible to word-mastery reads
// immediately; there is no derived state to refresh.
func (s *Store) LinkQuestionWords(ctx context.Context, q domain.Question) (err error) {
	words := QuestionWords(q)
	if len(words) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Unavailable(fmt.Errorf("catalog: begin: %w", err))
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		upsertWordStmt = `
INSERT INTO words (word_text) VALUES ($1)
ON CONFLICT (word_text) DO UPDATE SET word_text = EXCLUDED.word_text
RETURNING word_id;`
		upsertMapStmt = `
INSERT INTO word_question_map (word_id, question_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING;`
	)

	for _, w := range words {
		var wordID int64
		if err = tx.QueryRow(ctx, upsertWordStmt, w).Scan(&wordID); err != nil {
			return fmt.Errorf("catalog: upsert word %q: %w", w, err)
		}

		if _, err = tx.Exec(ctx, upsertMapStmt, wordID, q.QuestionID); err != nil {
			return fmt.Errorf("catalog: map word %q to question %d: %w", w, q.QuestionID, err)
		}
	}

	return tx.Commit(ctx)
}

func emptyIfNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
