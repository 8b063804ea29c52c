package interview

import (
	"strings"
	"unicode"
)

// tokenize lowercases text and splits it into alphanumeric tokens. Every
// non-alphanumeric rune separates tokens, so punctuation and hyphenation
// are neutral: "light-headed", "Light headed." and "light headed" all
// produce the same tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// transcriptIndex is a tokenized transcript prepared for repeated phrase
// lookups. positions maps each token to its ascending offsets.
type transcriptIndex struct {
	tokens    []string
	positions map[string][]int
}

func indexTranscript(text string) *transcriptIndex {
	tokens := tokenize(text)
	positions := make(map[string][]int, len(tokens))
	for i, t := range tokens {
		positions[t] = append(positions[t], i)
	}
	return &transcriptIndex{tokens: tokens, positions: positions}
}

// containsPhrase reports whether the phrase occurs in the transcript as a
// consecutive token sequence. Matching is exact on token surface forms:
// "nausea" does not match "nauseous", "head" does not match "headache".
func (ix *transcriptIndex) containsPhrase(phrase string) bool {
	want := tokenize(phrase)
	if len(want) == 0 {
		return false
	}
	for _, start := range ix.positions[want[0]] {
		if start+len(want) > len(ix.tokens) {
			break
		}
		matched := true
		for j := 1; j < len(want); j++ {
			if ix.tokens[start+j] != want[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// containsAny reports whether any of the terms occurs in the transcript.
func (ix *transcriptIndex) containsAny(terms []string) bool {
	for _, t := range terms {
		if ix.containsPhrase(t) {
			return true
		}
	}
	return false
}
