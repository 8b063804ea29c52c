package interview

import "fmt"

// NewSessionState returns an empty session state.
func NewSessionState() SessionState {
	return SessionState{History: []RecordingEntry{}, SymptomIDs: []string{}}
}

// Accumulate appends a completed recording entry to the session and folds
// its detections into the accumulated symptom set. The input state is not
// modified; the returned state carries fresh top-level slices and a deep
// copy of the new entry, and recorded entries are treated as immutable
// from then on. Accumulated ids keep first-seen order and are never
// removed, so after every call SymptomIDs equals the union of detections
// across History.
//
// A malformed entry (zero timestamp, or a detected symptom without a gap
// analysis entry) is rejected with ErrInvalidInput and leaves nothing
// recorded.
func Accumulate(state SessionState, entry RecordingEntry) (SessionState, error) {
	if err := validateEntry(entry); err != nil {
		return SessionState{}, err
	}

	history := make([]RecordingEntry, 0, len(state.History)+1)
	history = append(history, state.History...)
	history = append(history, cloneEntry(entry))

	ids := make([]string, 0, len(state.SymptomIDs)+len(entry.Extraction.SymptomIDs))
	ids = append(ids, state.SymptomIDs...)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, id := range entry.Extraction.SymptomIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return SessionState{History: history, SymptomIDs: ids}, nil
}

func validateEntry(entry RecordingEntry) error {
	if entry.Timestamp.IsZero() {
		return fmt.Errorf("%w: recording entry has no timestamp", ErrInvalidInput)
	}
	for _, id := range entry.Extraction.SymptomIDs {
		if _, ok := entry.Gaps[id]; !ok {
			return fmt.Errorf("%w: no gap analysis for detected symptom %q", ErrInvalidInput, id)
		}
	}
	return nil
}

func cloneEntry(entry RecordingEntry) RecordingEntry {
	out := entry
	out.Extraction.SymptomIDs = cloneStrings(entry.Extraction.SymptomIDs)
	out.Questions = cloneStrings(entry.Questions)
	if entry.Gaps != nil {
		out.Gaps = make(GapResult, len(entry.Gaps))
		for id, missing := range entry.Gaps {
			out.Gaps[id] = cloneStrings(missing)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
