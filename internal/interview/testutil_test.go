package interview_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/cherianmatt/healthAI/internal/interview"
	"github.com/cherianmatt/healthAI/internal/knowledge"
)

// testBaseYAML is a small three-symptom base with five-item checklists for
// headache and nausea. Trigger vocabularies are deliberately narrow so
// tests can construct transcripts that cover exactly the items they mean
// to cover.
const testBaseYAML = `
symptoms:
  headache:
    display_name: headache
    synonyms: [migraine, head pain]
    checklist:
      - id: onset
        prompt: when it started
        trigger_terms: [started, began, since]
      - id: duration
        prompt: how long it lasts
        trigger_terms: [lasting, hours, days]
      - id: severity
        prompt: how severe the pain is
        trigger_terms: [out of 10, mild, moderate]
      - id: location
        prompt: where it hurts
        trigger_terms: [temple, forehead, one side]
      - id: character
        prompt: what it feels like
        trigger_terms: [throbbing, dull, sharp]
  nausea:
    display_name: nausea
    synonyms: [nauseous, queasy]
    checklist:
      - id: onset
        prompt: when it began
        trigger_terms: [started, began, since]
      - id: vomiting
        prompt: whether there has been vomiting
        trigger_terms: [vomit, vomiting, threw up]
      - id: food_relation
        prompt: relation to meals
        trigger_terms: [after eating, after meals]
      - id: hydration
        prompt: ability to keep fluids down
        trigger_terms: [water, fluids, keep anything down]
      - id: associated
        prompt: other symptoms alongside
        trigger_terms: [fever, diarrhea]
  fever:
    display_name: fever
    synonyms: [temperature, febrile]
    checklist:
      - id: onset
        prompt: when the fever started
        trigger_terms: [started, since]
      - id: measurement
        prompt: whether it was measured
        trigger_terms: [degrees, thermometer, measured]
      - id: chills
        prompt: chills or shivering
        trigger_terms: [chills, shivering]
`

func testBase(t *testing.T) *knowledge.Base {
	t.Helper()
	kb, err := knowledge.Parse([]byte(testBaseYAML))
	if err != nil {
		t.Fatalf("parse test base: %v", err)
	}
	return kb
}

// memRepo is an in-memory Repository. It clones on every read and write so
// stored sessions have database value semantics: mutating what you got
// back never changes what is stored.
type memRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*interview.Session
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[uuid.UUID]*interview.Session)}
}

func (m *memRepo) Create(ctx context.Context, s *interview.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*interview.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interview.ErrSessionNotFound, id)
	}
	return cloneSession(s), nil
}

func (m *memRepo) Save(ctx context.Context, s *interview.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", interview.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func cloneSession(s *interview.Session) *interview.Session {
	raw, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var out interview.Session
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

// spyGenerator records invocations and returns canned output.
type spyGenerator struct {
	mu    sync.Mutex
	calls int
	got   []interview.QuestionContext
	qs    []string
	err   error
}

func (g *spyGenerator) GenerateQuestions(ctx context.Context, qc interview.QuestionContext) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.got = append(g.got, qc)
	return g.qs, g.err
}

func (g *spyGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fakeTranscriber returns fixed text for any audio.
type fakeTranscriber struct {
	text string
	err  error
}

func (t fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return t.text, t.err
}
