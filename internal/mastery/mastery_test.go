package mastery_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
	"github.com/MrigankDubey/My-Second-app/internal/mastery"
)

func TestAdvance(t *testing.T) {
	type attempt struct {
		correct, first bool
	}

	tests := map[string]struct {
		attempts  []attempt
		wantCount int
		wantDone  bool
	}{
		"first correct first attempt counts once": {
			attempts:  []attempt{{correct: true, first: true}},
			wantCount: 1,
			wantDone:  false,
		},
		"second correct first attempt flips mastered": {
			attempts:  []attempt{{true, true}, {true, true}},
			wantCount: 2,
			wantDone:  true,
		},
		"counter caps after mastery": {
			attempts:  []attempt{{true, true}, {true, true}, {true, true}, {true, true}},
			wantCount: 2,
			wantDone:  true,
		},
		"incorrect first attempt does not move the counter": {
			attempts:  []attempt{{false, true}, {true, true}},
			wantCount: 1,
			wantDone:  false,
		},
		"correct retry attempt does not count": {
			attempts:  []attempt{{true, true}, {true, false}},
			wantCount: 1,
			wantDone:  false,
		},
		"mastery never reverts": {
			attempts:  []attempt{{true, true}, {true, true}, {false, true}, {false, false}},
			wantCount: 2,
			wantDone:  true,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := domain.QuestionMastery{UserID: 1, QuestionID: 7}
			for _, a := range tt.attempts {
				m = mastery.Advance(m, a.correct, a.first)
			}

			require.Equal(t, tt.wantCount, m.FirstTryCorrectCount)
			require.Equal(t, tt.wantDone, m.IsMastered)
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := map[string]struct {
		total, mastered int
		want            string
	}{
		"zero questions yields zero, not an error": {0, 0, "0"},
		"none mastered":                            {4, 0, "0"},
		"half mastered":                            {4, 2, "50"},
		"all mastered":                             {3, 3, "100"},
		"thirds round to two places":               {3, 1, "33.33"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := mastery.Percentage(tt.total, tt.mastered)
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"want %s, got %s", tt.want, got)
		})
	}
}
