package interview

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionResult is the set of symptoms detected in one transcript.
// SymptomIDs is duplicate-free and follows the knowledge base's canonical
// symptom order, so the same transcript always yields the same slice.
type ExtractionResult struct {
	SymptomIDs []string `json:"symptom_ids"`
}

// Has reports whether the symptom was detected.
func (r ExtractionResult) Has(id string) bool {
	for _, s := range r.SymptomIDs {
		if s == id {
			return true
		}
	}
	return false
}

// GapResult maps every detected symptom id to the checklist item ids the
// transcript does not evidence, in checklist order. Every detected symptom
// has an entry; a fully covered one maps to an empty slice. Consumers can
// therefore tell "covered" (present, empty) from "not detected" (absent).
type GapResult map[string][]string

// Outstanding counts missing checklist items across all symptoms.
func (g GapResult) Outstanding() int {
	n := 0
	for _, missing := range g {
		n += len(missing)
	}
	return n
}

// SymptomGaps is one symptom's slice of a question context: its display
// name and the prompts of the checklist items still unaddressed.
type SymptomGaps struct {
	SymptomID   string   `json:"symptom_id"`
	DisplayName string   `json:"display_name"`
	Prompts     []string `json:"prompts"`
}

// QuestionContext is the input handed to a question generator. It carries
// only symptoms with outstanding items, in detection order, prompts in
// checklist order.
type QuestionContext struct {
	Symptoms []SymptomGaps `json:"symptoms"`
}

// Empty reports whether there is nothing left to ask about.
func (c QuestionContext) Empty() bool {
	return len(c.Symptoms) == 0
}

// RecordingEntry is the completed analysis of one recording segment.
type RecordingEntry struct {
	Timestamp  time.Time        `json:"timestamp"`
	Transcript string           `json:"transcript"`
	Extraction ExtractionResult `json:"extraction"`
	Gaps       GapResult        `json:"gaps"`
	Questions  []string         `json:"questions"`
}

// SessionState is everything recorded during one patient interview: the
// append-only history of analysed segments plus the accumulated symptom
// set. SymptomIDs keeps first-seen order and always equals the union of
// detections across History.
type SessionState struct {
	History    []RecordingEntry `json:"history"`
	SymptomIDs []string         `json:"symptom_ids"`
}

// Session represents the stored aggregate root.
type Session struct {
	ID        uuid.UUID    `json:"id"`
	State     SessionState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewSession creates an empty interview session.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		State:     NewSessionState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
