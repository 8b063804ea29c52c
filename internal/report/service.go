// Package report renders interview sessions into PDF documents a
// clinician can file or hand over.
package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"github.com/cherianmatt/healthAI/internal/interview"
	"github.com/cherianmatt/healthAI/internal/knowledge"
	"github.com/cherianmatt/healthAI/internal/logging"
)

// A4 layout, in points.
const (
	marginLeft = 40.0
	marginTop  = 40.0
	textWidth  = 515.0
	pageBottom = 800.0
)

// DejaVuSans ships with the deployment image; try the common locations.
var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

type Service struct {
	kb  *knowledge.Base
	log *slog.Logger
}

func NewService(kb *knowledge.Base) *Service {
	return &Service{kb: kb, log: logging.New("report")}
}

// SessionReport renders the session as a PDF: the accumulated symptoms
// with whatever remains to clarify, then every recording with its
// detections, suggested questions and transcript.
func (s *Service) SessionReport(sess *interview.Session) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()
	pdf.SetY(marginTop)

	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load report font, ensure ttf-dejavu is installed: %w", fontErr)
	}

	w := &writer{pdf: &pdf}

	w.setFont(20)
	w.line("Patient Interview Report", 30)

	w.setFont(12)
	w.line(fmt.Sprintf("Date: %s", time.Now().UTC().Format("02 Jan 2006 15:04 UTC")), 15)
	w.line(fmt.Sprintf("Session: %s", sess.ID), 15)
	w.line(fmt.Sprintf("Recordings: %d", len(sess.State.History)), 25)

	w.setFont(14)
	w.line("Symptoms identified", 18)
	w.setFont(11)
	if len(sess.State.SymptomIDs) == 0 {
		w.line("- No symptoms detected.", 15)
	}
	for _, id := range sess.State.SymptomIDs {
		w.wrapped("- "+s.symptomSummary(sess.State, id), 14)
	}
	w.br(15)

	for i, entry := range sess.State.History {
		w.setFont(13)
		w.line(fmt.Sprintf("Recording %d - %s", i+1, entry.Timestamp.Format("15:04:05 UTC")), 16)
		w.setFont(11)
		if len(entry.Extraction.SymptomIDs) > 0 {
			w.wrapped("Detected: "+strings.Join(s.displayNames(entry.Extraction.SymptomIDs), ", "), 14)
		} else {
			w.line("Detected: nothing", 14)
		}
		for _, q := range entry.Questions {
			w.wrapped("? "+q, 13)
		}
		if entry.Transcript != "" {
			w.setFont(10)
			w.wrapped("Transcript: "+entry.Transcript, 12)
		}
		w.br(12)
	}

	if w.err != nil {
		return nil, fmt.Errorf("render report: %w", w.err)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	s.log.Info("report rendered", "session_id", sess.ID, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// symptomSummary describes one accumulated symptom: its display name and
// the checklist items still outstanding as of the latest recording that
// detected it.
func (s *Service) symptomSummary(state interview.SessionState, id string) string {
	name := id
	sym, known := s.kb.Get(id)
	if known {
		name = sym.DisplayName
	}

	missing := latestGaps(state, id)
	if len(missing) == 0 {
		return fmt.Sprintf("%s (checklist complete)", name)
	}

	prompts := make([]string, 0, len(missing))
	for _, checkID := range missing {
		if known {
			if check, ok := sym.Check(checkID); ok {
				prompts = append(prompts, check.Prompt)
				continue
			}
		}
		prompts = append(prompts, checkID)
	}
	return fmt.Sprintf("%s (still to clarify: %s)", name, strings.Join(prompts, "; "))
}

func (s *Service) displayNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if sym, ok := s.kb.Get(id); ok {
			out = append(out, sym.DisplayName)
		} else {
			out = append(out, id)
		}
	}
	return out
}

// latestGaps returns the outstanding checklist items for the symptom from
// the most recent recording that detected it.
func latestGaps(state interview.SessionState, id string) []string {
	for i := len(state.History) - 1; i >= 0; i-- {
		if missing, ok := state.History[i].Gaps[id]; ok {
			return missing
		}
	}
	return nil
}

// writer keeps the first layout error so assembly code reads linearly.
type writer struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *writer) setFont(size int) {
	if w.err == nil {
		w.err = w.pdf.SetFont("DejaVu", "", size)
	}
}

func (w *writer) line(text string, br float64) {
	if w.err != nil {
		return
	}
	if w.pdf.GetY()+br > pageBottom {
		w.pdf.AddPage()
		w.pdf.SetY(marginTop)
	}
	w.pdf.SetX(marginLeft)
	w.err = w.pdf.Cell(nil, text)
	w.pdf.Br(br)
}

func (w *writer) wrapped(text string, br float64) {
	if w.err != nil || text == "" {
		return
	}
	lines, _ := w.pdf.SplitText(text, textWidth)
	for _, l := range lines {
		w.line(l, br)
	}
}

func (w *writer) br(h float64) {
	if w.err == nil {
		w.pdf.Br(h)
	}
}
