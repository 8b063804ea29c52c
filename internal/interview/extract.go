// Package interview implements the diagnostic gap analysis pipeline: it
// detects symptoms in interview transcripts, works out which checklist
// items the clinician has not covered yet, suggests follow-up questions,
// and accumulates results across the recording segments of a session.
//
// The pipeline stages (Extract, AnalyzeGaps, BuildQuestionContext,
// SuggestQuestions, Accumulate) are pure functions over their inputs; the
// Service wires them to storage and external clients.
package interview

import (
	"github.com/cherianmatt/healthAI/internal/knowledge"
)

// Extract scans a transcript for every symptom the knowledge base defines.
// A symptom is detected when its id, display name or any synonym occurs in
// the text as a whole-token sequence, case-insensitively. There is no
// stemming and no fuzzy matching; a surface form either occurs or it does
// not, so the same transcript and base always produce the same result.
//
// Empty or whitespace-only text is valid and yields an empty result.
func Extract(text string, kb *knowledge.Base) ExtractionResult {
	ix := indexTranscript(text)
	ids := make([]string, 0, 4)
	for _, sym := range kb.Symptoms() {
		if symptomMentioned(ix, sym) {
			ids = append(ids, sym.ID)
		}
	}
	return ExtractionResult{SymptomIDs: ids}
}

func symptomMentioned(ix *transcriptIndex, sym knowledge.Symptom) bool {
	if ix.containsPhrase(sym.ID) || ix.containsPhrase(sym.DisplayName) {
		return true
	}
	return ix.containsAny(sym.Synonyms)
}
