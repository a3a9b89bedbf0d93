// Package normalize implements the text-normalization pipeline shared by the
// coordinator (query terms) and workers (document content): lowercase,
// tokenize on Unicode word boundaries, strip stopwords, and stem. Both
// sides must call the same code with the same language or results silently
// diverge — the coordinator's query engine and a worker's task loop both
// import this package rather than reimplementing any step.
package normalize

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/spanish"

	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
)

// stemFunc stems a single lowercased word for one language.
type stemFunc func(word string) string

var (
	resourcesOnce sync.Once
	stemmers      map[config.Language]stemFunc
	stopwords     map[config.Language]map[string]struct{}
)

// warmUp lazily builds the per-language stemmer table and stopword sets.
// Loading is idempotent: repeated calls after the first are a no-op map
// lookup, not re-construction.
func warmUp() {
	resourcesOnce.Do(func() {
		stemmers = map[config.Language]stemFunc{
			config.English: func(w string) string { return english.Stem(w, true) },
			config.Spanish: func(w string) string { return spanish.Stem(w, true) },
		}
		stopwords = map[config.Language]map[string]struct{}{
			config.English: toSet(englishStopwords),
			config.Spanish: toSet(spanishStopwords),
		}
	})
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Normalize runs the fixed pipeline — lowercase, tokenize, stopword-strip,
// stem — over text for the given language, returning tokens in original
// positional order with duplicates preserved.
func Normalize(text string, language config.Language) ([]string, error) {
	warmUp()
	stem, ok := stemmers[language]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", language)
	}
	stops := stopwords[language]

	lowered := strings.ToLower(text)
	// Word boundary = a maximal run of letters and/or digits, matching the
	// \b\w+\b notion of a "word" before the purely-alphabetic filter below
	// drops anything that isn't letters-only.
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if !isAlphabetic(word) {
			continue
		}
		if _, stop := stops[word]; stop {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens, nil
}

func isAlphabetic(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
