package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrigankDubey/My-Second-app/internal/catalog"
	"github.com/MrigankDubey/My-Second-app/internal/domain"
)

func TestExtractWords(t *testing.T) {
	tests := map[string]struct {
		text string
		want []string
	}{
		"empty text yields nothing": {
			text: "",
			want: nil,
		},
		"stop words and short tokens are dropped": {
			text: "The ox is an animal",
			want: []string{"animal"},
		},
		"tokens are lowercased": {
			text: "Gregarious means SOCIABLE",
			want: []string{"gregarious", "means", "sociable"},
		},
		"punctuation splits tokens": {
			text: "happy, joyful; elated!",
			want: []string{"happy", "joyful", "elated"},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, catalog.ExtractWords(tt.text))
		})
	}
}

func TestQuestionWords(t *testing.T) {
	t.Parallel()

	q := domain.Question{
		QuestionID:    1,
		QuestionText:  "Which word is a synonym of happy?",
		QuizType:      domain.QuizTypeSynonym,
		CorrectAnswer: "joyful",
		Options:       []string{"joyful", "sad", "angry", "tired"},
	}

	got := catalog.QuestionWords(q)

	require.Equal(t, "joyful", got[0], "answer words come first")
	require.ElementsMatch(t, []string{"joyful", "sad", "angry", "tired"}, got)
	require.Len(t, got, 4, "duplicates across answer and options collapse")
}
