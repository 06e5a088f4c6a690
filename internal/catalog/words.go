package catalog

import (
	"regexp"
	"strings"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

// Common tokens that never count as vocabulary.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "will": {}, "with": {}, "or": {}, "but": {}, "not": {},
	"can": {}, "have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "why": {}, "how": {}, "this": {}, "these": {}, "those": {},
	"they": {}, "them": {}, "their": {}, "there": {}, "then": {}, "than": {},
	"would": {}, "could": {}, "should": {}, "all": {}, "any": {}, "some": {},
	"no": {}, "yes": {}, "do": {}, "does": {}, "did": {}, "i": {}, "you": {},
	"we": {}, "my": {}, "your": {}, "his": {}, "her": {}, "our": {}, "up": {},
	"out": {}, "into": {}, "down": {}, "through": {},
}

const minWordLength = 3

// ExtractWords pulls normalized vocabulary tokens out of free text:
// lowercase alphabetic runs, at least three characters, stop words removed.
func ExtractWords(text string) []string {
	if text == "" {
		return nil
	}

	var words []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) < minWordLength {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		words = append(words, w)
	}

	return words
}

// QuestionWords returns the distinct words a question maps to: words from the
// correct answer are the primary vocabulary targets, option words follow.
func QuestionWords(q domain.Question) []string {
	seen := make(map[string]struct{})
	var words []string

	add := func(ws []string) {
		for _, w := range ws {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}

	add(ExtractWords(q.CorrectAnswer))
	for _, opt := range q.Options {
		add(ExtractWords(opt))
	}

	return words
}
