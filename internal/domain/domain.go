package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuizType is the closed set of question formats in the catalog.
type QuizType string

const (
	QuizTypeSynonym     QuizType = "synonym"
	QuizTypeAntonym     QuizType = "antonym"
	QuizTypeFillInBlank QuizType = "fill_in_blank"
	QuizTypeWordMeaning QuizType = "word_meaning"
	QuizTypeAnalogy     QuizType = "analogy"
	QuizTypeOddOneOut   QuizType = "odd_one_out"
)

// QuizTypes lists every known quiz type in a stable order.
func QuizTypes() []QuizType {
	return []QuizType{
		QuizTypeSynonym,
		QuizTypeAntonym,
		QuizTypeFillInBlank,
		QuizTypeWordMeaning,
		QuizTypeAnalogy,
		QuizTypeOddOneOut,
	}
}

func (t QuizType) Valid() bool {
	switch t {
	case QuizTypeSynonym, QuizTypeAntonym, QuizTypeFillInBlank,
		QuizTypeWordMeaning, QuizTypeAnalogy, QuizTypeOddOneOut:
		return true
	}
	return false
}

// Question is a catalog entry. When Options is non-empty the correct answer
// is always one of them.
type Question struct {
	QuestionID    int64
	QuestionText  string
	QuizType      QuizType
	CorrectAnswer string
	Options       []string
}

// Word is a normalized answer-text token extracted from question answers
// and options. Words map to questions many-to-many.
type Word struct {
	WordID   int64
	WordText string
}

// AttemptRecord is one answered question within one session round.
type AttemptRecord struct {
	AttemptID      string
	UserID         int64
	QuestionID     int64
	SelectedAnswer string
	IsCorrect      bool
	IsFirstAttempt bool
	CreateTime     time.Time
}

// QuestionMastery is the per-(user, question) first-try record.
// FirstTryCorrectCount only ever grows and is capped at the mastery
// threshold; IsMastered never reverts once set.
type QuestionMastery struct {
	UserID               int64
	QuestionID           int64
	FirstTryCorrectCount int
	IsMastered           bool
}

// WordMastery is the derived per-(user, word) view, recomputed on every read.
type WordMastery struct {
	WordID            int64
	WordText          string
	TotalQuestions    int
	MasteredQuestions int
	Percentage        decimal.Decimal
}

// Session is an in-flight quiz session. It lives only in the registry and is
// lost on process restart; recorded attempts stay durable per round.
type Session struct {
	SessionID         string
	UserID            int64
	OriginalQuestions []Question
	Round             int
	AttemptID         string
	ActiveQuestions   []Question
	CompletedRounds   []RoundResult
	IsCompleted       bool
	CreateTime        time.Time
	UpdateTime        time.Time
}

// Response is a single submitted answer within a round.
type Response struct {
	QuestionID     int64
	SelectedAnswer string
}

// InvalidResponse flags a response dropped during round validation.
type InvalidResponse struct {
	QuestionID int64
	Reason     string
}

// RoundResult is the outcome of one submitted round.
type RoundResult struct {
	SessionID          string
	Round              int
	AttemptID          string
	TotalQuestions     int
	CorrectAnswers     int
	ScorePercentage    float64
	IncorrectQuestions []Question
	InvalidResponses   []InvalidResponse
	IsComplete         bool
	NextQuestions      []Question
	MasteryUpdates     []WordMastery
}

// RoundSummary is one line of the session summary breakdown.
type RoundSummary struct {
	Round           int
	QuestionCount   int
	CorrectAnswers  int
	ScorePercentage float64
	IsPerfect       bool
}

// Summary is the read-only projection of a session at any point in time.
type Summary struct {
	SessionID             string
	UserID                int64
	CurrentRound          int
	IsCompleted           bool
	TotalRounds           int
	OriginalQuestionCount int
	FirstRoundScore       float64
	Rounds                []RoundSummary
}

// Progress is the aggregate mastery view for one user.
type Progress struct {
	UserID               int64
	TotalWords           int
	TotalQuestions       int
	MasteredQuestions    int
	FullyMasteredWords   int
	Words                []WordMastery
	WordsNeedingPractice []WordMastery
}

// QuizTypeCount reports how many catalog questions exist per quiz type.
type QuizTypeCount struct {
	QuizType      QuizType
	QuestionCount int
}
