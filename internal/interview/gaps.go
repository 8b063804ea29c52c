package interview

import (
	"fmt"

	"github.com/cherianmatt/healthAI/internal/knowledge"
)

// AnalyzeGaps determines, for every detected symptom, which checklist
// items the transcript already evidences and which remain outstanding. An
// item counts as addressed only when at least one of its trigger terms
// occurs in the text; anything short of that is reported as missing, so
// the result errs toward asking a question again rather than skipping it.
//
// The result has an entry for every id in ext, including symptoms whose
// checklist is fully covered. An id absent from the knowledge base is a
// pipeline defect and fails the whole analysis.
func AnalyzeGaps(text string, ext ExtractionResult, kb *knowledge.Base) (GapResult, error) {
	ix := indexTranscript(text)
	gaps := make(GapResult, len(ext.SymptomIDs))
	for _, id := range ext.SymptomIDs {
		sym, ok := kb.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", knowledge.ErrUnknownSymptom, id)
		}
		missing := make([]string, 0, len(sym.Checklist))
		for _, check := range sym.Checklist {
			if !ix.containsAny(check.TriggerTerms) {
				missing = append(missing, check.ID)
			}
		}
		gaps[id] = missing
	}
	return gaps, nil
}
