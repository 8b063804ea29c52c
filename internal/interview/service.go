package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cherianmatt/healthAI/internal/knowledge"
	"github.com/cherianmatt/healthAI/internal/logging"
)

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ReportBuilder renders a session into a printable document.
type ReportBuilder interface {
	SessionReport(s *Session) ([]byte, error)
}

// maxTranscriptBytes bounds a single recording segment's text. A segment
// is a few minutes of speech; anything past this is a client bug.
const maxTranscriptBytes = 1 << 20

// RecordingOutcome is what the clinician sees after one recording segment:
// the analysis of that segment plus the session totals after accumulation.
type RecordingOutcome struct {
	SessionID          uuid.UUID `json:"session_id"`
	Timestamp          time.Time `json:"timestamp"`
	Transcript         string    `json:"transcript"`
	DetectedSymptoms   []string  `json:"detected_symptoms"`
	DiagnosticGaps     GapResult `json:"diagnostic_gaps"`
	SuggestedQuestions []string  `json:"suggested_questions"`
	SessionSymptoms    []string  `json:"session_symptoms"`
	RecordingCount     int       `json:"recording_count"`
}

type Service interface {
	CreateSession(ctx context.Context) (*Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ProcessRecording(ctx context.Context, id uuid.UUID, transcript string) (*RecordingOutcome, error)
	ProcessAudio(ctx context.Context, id uuid.UUID, audio []byte) (*RecordingOutcome, error)
	AnalyzeTranscript(ctx context.Context, transcript string) (ExtractionResult, GapResult, error)
	SessionReport(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type service struct {
	repo    Repository
	kb      *knowledge.Base
	gen     QuestionGenerator
	stt     Transcriber
	reports ReportBuilder
	log     *slog.Logger

	// mu guards locks. Each session gets its own mutex so concurrent
	// recordings for the same session are processed one at a time and
	// history keeps arrival order; different sessions do not contend.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewService wires the pipeline to its storage and external clients. gen
// and stt may be nil: without a generator every suggestion comes from the
// template fallback, without a transcriber audio processing is rejected.
func NewService(repo Repository, kb *knowledge.Base, gen QuestionGenerator, stt Transcriber, reports ReportBuilder) Service {
	return &service{
		repo:    repo,
		kb:      kb,
		gen:     gen,
		stt:     stt,
		reports: reports,
		log:     logging.New("interview"),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *service) CreateSession(ctx context.Context) (*Session, error) {
	sess := NewSession()
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("session created", "session_id", sess.ID)
	return sess, nil
}

func (s *service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
	s.log.Info("session deleted", "session_id", id)
	return nil
}

// AnalyzeTranscript runs extraction and gap analysis without touching any
// session. It backs the stateless API endpoints.
func (s *service) AnalyzeTranscript(ctx context.Context, transcript string) (ExtractionResult, GapResult, error) {
	if err := validateTranscript(transcript); err != nil {
		return ExtractionResult{}, nil, err
	}
	ext := Extract(transcript, s.kb)
	gaps, err := AnalyzeGaps(transcript, ext, s.kb)
	if err != nil {
		return ExtractionResult{}, nil, err
	}
	return ext, gaps, nil
}

// ProcessRecording runs the full pipeline for one transcript segment and
// accumulates the result into the session: extract, analyze gaps, suggest
// questions, append. Per-session locking keeps concurrent segments in
// arrival order; the session is persisted before the outcome is returned.
func (s *service) ProcessRecording(ctx context.Context, id uuid.UUID, transcript string) (*RecordingOutcome, error) {
	if err := validateTranscript(transcript); err != nil {
		return nil, err
	}

	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry, err := s.analyze(ctx, transcript)
	if err != nil {
		return nil, err
	}

	state, err := Accumulate(sess.State, entry)
	if err != nil {
		return nil, err
	}
	sess.State = state
	sess.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.log.Info("recording processed",
		"session_id", id,
		"recording", len(state.History),
		"detected", len(entry.Extraction.SymptomIDs),
		"outstanding", entry.Gaps.Outstanding(),
		"questions", len(entry.Questions))

	return &RecordingOutcome{
		SessionID:          sess.ID,
		Timestamp:          entry.Timestamp,
		Transcript:         entry.Transcript,
		DetectedSymptoms:   entry.Extraction.SymptomIDs,
		DiagnosticGaps:     entry.Gaps,
		SuggestedQuestions: entry.Questions,
		SessionSymptoms:    state.SymptomIDs,
		RecordingCount:     len(state.History),
	}, nil
}

// ProcessAudio transcribes a recorded segment and processes the text.
func (s *service) ProcessAudio(ctx context.Context, id uuid.UUID, audio []byte) (*RecordingOutcome, error) {
	if s.stt == nil {
		return nil, ErrNoTranscriber
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio payload", ErrInvalidInput)
	}

	transcript, err := s.stt.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	return s.ProcessRecording(ctx, id, transcript)
}

func (s *service) SessionReport(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if s.reports == nil {
		return nil, errors.New("report rendering not configured")
	}
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.reports.SessionReport(sess)
}

func (s *service) analyze(ctx context.Context, transcript string) (RecordingEntry, error) {
	ext := Extract(transcript, s.kb)
	gaps, err := AnalyzeGaps(transcript, ext, s.kb)
	if err != nil {
		return RecordingEntry{}, err
	}
	qc, err := BuildQuestionContext(ext, gaps, s.kb)
	if err != nil {
		return RecordingEntry{}, err
	}
	questions := SuggestQuestions(ctx, s.gen, qc)

	return RecordingEntry{
		Timestamp:  time.Now().UTC(),
		Transcript: transcript,
		Extraction: ext,
		Gaps:       gaps,
		Questions:  questions,
	}, nil
}

func (s *service) sessionLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func validateTranscript(transcript string) error {
	if len(transcript) > maxTranscriptBytes {
		return fmt.Errorf("%w: transcript exceeds %d bytes", ErrInvalidInput, maxTranscriptBytes)
	}
	if !utf8.ValidString(transcript) {
		return fmt.Errorf("%w: transcript is not valid UTF-8", ErrInvalidInput)
	}
	return nil
}
