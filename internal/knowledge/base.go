// Package knowledge holds the clinical knowledge base: for every symptom
// the system can recognise, the vocabulary that detects it in transcripts
// and the checklist of facts a clinician is expected to establish for it.
//
// The base is data, not code. It is loaded once at startup, validated,
// and treated as immutable from then on, so it is safe for concurrent
// readers without locking.
package knowledge

import (
	"errors"
	"sort"
)

var (
	// ErrMalformed reports an unusable knowledge base file. Loading fails
	// fast on it; a process must not start with a broken base.
	ErrMalformed = errors.New("knowledge base malformed")

	// ErrUnknownSymptom reports a symptom id that is not present in the
	// base. Encountering it after load means a pipeline defect, not bad
	// user input.
	ErrUnknownSymptom = errors.New("unknown symptom")

	// ErrUnknownCheck reports a checklist item id that the symptom's
	// definition does not contain.
	ErrUnknownCheck = errors.New("unknown checklist item")
)

// CheckItem is one line of questioning the clinician is expected to cover
// for a symptom. TriggerTerms is the vocabulary that counts as evidence
// the item was already addressed; an item with no trigger terms can never
// be evidenced from a transcript and is therefore always reported as
// outstanding.
type CheckItem struct {
	ID           string   `yaml:"id" json:"id"`
	Prompt       string   `yaml:"prompt" json:"prompt"`
	TriggerTerms []string `yaml:"trigger_terms" json:"trigger_terms"`
}

// Symptom is a single knowledge-base entry.
type Symptom struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Synonyms    []string    `json:"synonyms"`
	Checklist   []CheckItem `json:"checklist"`
}

// Check returns the checklist item with the given id.
func (s Symptom) Check(id string) (CheckItem, bool) {
	for _, c := range s.Checklist {
		if c.ID == id {
			return c, true
		}
	}
	return CheckItem{}, false
}

// Base is a loaded, validated knowledge base.
type Base struct {
	symptoms map[string]Symptom
	order    []string
}

func newBase(symptoms map[string]Symptom) *Base {
	order := make([]string, 0, len(symptoms))
	for id := range symptoms {
		order = append(order, id)
	}
	// Canonical iteration order is sorted ids, so every run over the same
	// base file yields identical detection and report ordering.
	sort.Strings(order)
	return &Base{symptoms: symptoms, order: order}
}

// Get returns the symptom definition for id.
func (b *Base) Get(id string) (Symptom, bool) {
	s, ok := b.symptoms[id]
	return s, ok
}

// IDs returns all symptom ids in canonical order. The slice is a copy.
func (b *Base) IDs() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Symptoms returns all definitions in canonical order.
func (b *Base) Symptoms() []Symptom {
	out := make([]Symptom, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.symptoms[id])
	}
	return out
}

// Len reports how many symptoms the base defines.
func (b *Base) Len() int {
	return len(b.order)
}
