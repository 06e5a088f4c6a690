package selector_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
	"github.com/MrigankDubey/My-Second-app/internal/selector"
)

func TestService_SelectQuiz(t *testing.T) {
	type (
		inputs struct {
			catalog  *fakeCatalog
			recent   map[int64]struct{}
			mastered map[int64]struct{}
			cfg      selector.QuizConfig
		}

		outputs struct {
			questions []domain.Question
			err       error
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"distribution with recency exclusions": {
			arrange: func() inputs {
				c := newFakeCatalog()
				c.add(domain.QuizTypeSynonym, 1, 2, 3, 5, 9)
				c.add(domain.QuizTypeAntonym, 4)
				return inputs{
					catalog: c,
					recent:  set(5, 9),
					cfg: selector.QuizConfig{
						TargetCount: 3,
						Distribution: map[domain.QuizType]int{
							domain.QuizTypeSynonym: 2,
							domain.QuizTypeAntonym: 1,
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Len(t, out.questions, 3)

				ids := questionIDs(out.questions)
				require.Contains(t, ids, int64(4))
				require.NotContains(t, ids, int64(5))
				require.NotContains(t, ids, int64(9))
				requireNoDuplicates(t, ids)
			},
		},

		"non-positive target returns empty, not an error": {
			arrange: func() inputs {
				c := newFakeCatalog()
				c.add(domain.QuizTypeSynonym, 1, 2)
				return inputs{
					catalog: c,
					cfg: selector.QuizConfig{
						TargetCount:  0,
						Distribution: map[domain.QuizType]int{domain.QuizTypeSynonym: 2},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Empty(t, out.questions)
			},
		},

		"shortfall backfills from the synonym pool": {
			arrange: func() inputs {
				c := newFakeCatalog()
				c.add(domain.QuizTypeSynonym, 1, 2, 3, 4, 5)
				c.add(domain.QuizTypeAntonym, 10)
				return inputs{
					catalog: c,
					cfg: selector.QuizConfig{
						TargetCount: 4,
						Distribution: map[domain.QuizType]int{
							domain.QuizTypeAntonym: 1,
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Len(t, out.questions, 4)

				ids := questionIDs(out.questions)
				require.Contains(t, ids, int64(10))
				requireNoDuplicates(t, ids)
			},
		},

		"exhausted catalog degrades to a short quiz": {
			arrange: func() inputs {
				c := newFakeCatalog()
				c.add(domain.QuizTypeAnalogy, 21, 22)
				return inputs{
					catalog: c,
					cfg: selector.QuizConfig{
						TargetCount: 10,
						Distribution: map[domain.QuizType]int{
							domain.QuizTypeAnalogy: 4,
							domain.QuizTypeSynonym: 6,
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Len(t, out.questions, 2, "caller must tolerate a short quiz")
			},
		},

		"questions mapped only to mastered words are excluded": {
			arrange: func() inputs {
				c := newFakeCatalog()
				c.add(domain.QuizTypeSynonym, 1, 2, 3)
				c.mapWord(100, 1)
				c.mapWord(101, 2)
				return inputs{
					catalog:  c,
					mastered: set(100),
					cfg: selector.QuizConfig{
						TargetCount:  3,
						Distribution: map[domain.QuizType]int{domain.QuizTypeSynonym: 3},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				ids := questionIDs(out.questions)
				require.NotContains(t, ids, int64(1), "question for mastered word must not appear")
				require.ElementsMatch(t, []int64{2, 3}, ids)
			},
		},

		"a type with zero candidates does not block the others": {
			arrange: func() inputs {
				c := newFakeCatalog()
				c.add(domain.QuizTypeAntonym, 7)
				return inputs{
					catalog: c,
					cfg: selector.QuizConfig{
						TargetCount: 1,
						Distribution: map[domain.QuizType]int{
							domain.QuizTypeOddOneOut: 2,
							domain.QuizTypeAntonym:   1,
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Equal(t, []int64{7}, questionIDs(out.questions))
			},
		},

		"recency relaxes before returning an empty quiz": {
			arrange: func() inputs {
				c := newFakeCatalog()
				c.add(domain.QuizTypeSynonym, 1, 2)
				return inputs{
					catalog: c,
					recent:  set(1, 2),
					cfg: selector.QuizConfig{
						TargetCount:  2,
						Distribution: map[domain.QuizType]int{domain.QuizTypeSynonym: 2},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.ElementsMatch(t, []int64{1, 2}, questionIDs(out.questions))
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()

			s := selector.NewService(selector.Config{
				Catalog: in.catalog,
				History: fakeHistory{recent: in.recent},
				Mastery: fakeMastery{mastered: in.mastered},
			})

			qs, err := s.SelectQuiz(context.Background(), 1, in.cfg)
			tt.assert(t, outputs{questions: qs, err: err})
		})
	}
}

// fakeCatalog honors the exclusion filters the way the real store does.
type fakeCatalog struct {
	byType   map[domain.QuizType][]domain.Question
	wordToQ  map[int64]map[int64]struct{}
	qToWords map[int64][]int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		byType:   make(map[domain.QuizType][]domain.Question),
		wordToQ:  make(map[int64]map[int64]struct{}),
		qToWords: make(map[int64][]int64),
	}
}

func (c *fakeCatalog) add(qt domain.QuizType, ids ...int64) {
	for _, id := range ids {
		c.byType[qt] = append(c.byType[qt], domain.Question{
			QuestionID: id,
			QuizType:   qt,
		})
	}
}

func (c *fakeCatalog) mapWord(wordID int64, questionIDs ...int64) {
	if c.wordToQ[wordID] == nil {
		c.wordToQ[wordID] = make(map[int64]struct{})
	}
	for _, qid := range questionIDs {
		c.wordToQ[wordID][qid] = struct{}{}
		c.qToWords[qid] = append(c.qToWords[qid], wordID)
	}
}

func (c *fakeCatalog) QuestionsByType(_ context.Context, qt domain.QuizType, limit int, excludedQuestionIDs, excludedWordIDs []int64) ([]domain.Question, error) {
	exQ := make(map[int64]struct{}, len(excludedQuestionIDs))
	for _, id := range excludedQuestionIDs {
		exQ[id] = struct{}{}
	}
	exW := make(map[int64]struct{}, len(excludedWordIDs))
	for _, id := range excludedWordIDs {
		exW[id] = struct{}{}
	}

	var out []domain.Question
	for _, q := range c.byType[qt] {
		if len(out) >= limit {
			break
		}
		if _, ok := exQ[q.QuestionID]; ok {
			continue
		}
		if c.mappedToExcludedWord(q.QuestionID, exW) {
			continue
		}
		out = append(out, q)
	}

	return out, nil
}

func (c *fakeCatalog) mappedToExcludedWord(qid int64, exW map[int64]struct{}) bool {
	for _, wid := range c.qToWords[qid] {
		if _, ok := exW[wid]; ok {
			return true
		}
	}
	return false
}

type fakeHistory struct {
	recent map[int64]struct{}
}

func (h fakeHistory) RecentQuestionIDs(context.Context, int64) (map[int64]struct{}, error) {
	if h.recent == nil {
		return map[int64]struct{}{}, nil
	}
	return h.recent, nil
}

type fakeMastery struct {
	mastered map[int64]struct{}
}

func (m fakeMastery) FullyMasteredWords(context.Context, int64) (map[int64]struct{}, error) {
	if m.mastered == nil {
		return map[int64]struct{}{}, nil
	}
	return m.mastered, nil
}

func set(ids ...int64) map[int64]struct{} {
	s := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func questionIDs(qs []domain.Question) []int64 {
	ids := make([]int64, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.QuestionID)
	}
	return ids
}

func requireNoDuplicates(t *testing.T, ids []int64) {
	t.Helper()

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate question id: %d", id)
		}
		seen[id] = struct{}{}
	}
}
