// Package mastery owns the per-question first-try mastery record and the
// derived per-word views. The increment rule is an explicit function, applied
// inside the same transaction as the attempt write.
package mastery

import (
	"github.com/shopspring/decimal"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
)

// Threshold is the number of distinct correct first attempts that flips a
// question to mastered.
const Threshold = 2

// Advance applies one attempt outcome to a question's mastery state.
// Only a correct first attempt moves the counter, the counter caps at
// Threshold, and IsMastered never reverts.
func Advance(m domain.QuestionMastery, isCorrect, isFirstAttempt bool) domain.QuestionMastery {
	if !isCorrect || !isFirstAttempt {
		return m
	}

	if m.FirstTryCorrectCount < Threshold {
		m.FirstTryCorrectCount++
	}
	if m.FirstTryCorrectCount >= Threshold {
		m.IsMastered = true
	}

	return m
}

// Percentage computes the word-mastery figure: 100 * mastered / total,
// zero when the word maps to no questions.
func Percentage(total, mastered int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(mastered)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
