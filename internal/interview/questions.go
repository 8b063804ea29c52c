package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cherianmatt/healthAI/internal/knowledge"
)

// maxSuggestedQuestions caps every question list shown to the clinician,
// generated and fallback alike. More than a handful per segment is noise.
const maxSuggestedQuestions = 5

// QuestionGenerator produces follow-up questions from gap context. It is
// implemented by external model clients; implementations signal failure
// with an error and never need to degrade gracefully themselves, the
// caller falls back to templates.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, qc QuestionContext) ([]string, error)
}

// BuildQuestionContext assembles generator input from a gap analysis.
// Symptoms appear in detection order, each with its display name and the
// prompts of its outstanding checklist items in checklist order. Fully
// covered symptoms are skipped, so an interview with nothing left to ask
// yields an empty context.
func BuildQuestionContext(ext ExtractionResult, gaps GapResult, kb *knowledge.Base) (QuestionContext, error) {
	var qc QuestionContext
	for _, id := range ext.SymptomIDs {
		missing := gaps[id]
		if len(missing) == 0 {
			continue
		}
		sym, ok := kb.Get(id)
		if !ok {
			return QuestionContext{}, fmt.Errorf("%w: %q", knowledge.ErrUnknownSymptom, id)
		}
		prompts := make([]string, 0, len(missing))
		for _, checkID := range missing {
			check, ok := sym.Check(checkID)
			if !ok {
				return QuestionContext{}, fmt.Errorf("%w: symptom %q has no check %q", knowledge.ErrUnknownCheck, id, checkID)
			}
			prompts = append(prompts, check.Prompt)
		}
		qc.Symptoms = append(qc.Symptoms, SymptomGaps{
			SymptomID:   id,
			DisplayName: sym.DisplayName,
			Prompts:     prompts,
		})
	}
	return qc, nil
}

// SuggestQuestions returns the follow-up questions for a gap context.
//
// An empty context returns no questions and never invokes the generator.
// Otherwise the generator's output is used when it yields at least one
// usable question; a nil generator, an error or an empty result downgrades
// to the deterministic template fallback. Generator trouble is logged and
// absorbed here: when gaps exist the clinician always gets questions.
func SuggestQuestions(ctx context.Context, gen QuestionGenerator, qc QuestionContext) []string {
	if qc.Empty() {
		return []string{}
	}
	if gen != nil {
		qs, err := gen.GenerateQuestions(ctx, qc)
		if qs = cleanQuestions(qs); err == nil && len(qs) > 0 {
			if len(qs) > maxSuggestedQuestions {
				qs = qs[:maxSuggestedQuestions]
			}
			return qs
		}
		if err != nil {
			slog.Warn("question generator failed, using fallback", "error", err)
		} else {
			slog.Warn("question generator returned nothing usable, using fallback")
		}
	}
	return FallbackQuestions(qc)
}

// FallbackQuestions renders one template question per outstanding
// checklist item, symptoms in context order, items in checklist order,
// capped at maxSuggestedQuestions. It needs no external service and always
// succeeds.
func FallbackQuestions(qc QuestionContext) []string {
	out := make([]string, 0, maxSuggestedQuestions)
	for _, sym := range qc.Symptoms {
		for _, prompt := range sym.Prompts {
			if len(out) == maxSuggestedQuestions {
				return out
			}
			out = append(out, fmt.Sprintf("Can you tell me more about %s for your %s?", prompt, sym.DisplayName))
		}
	}
	return out
}

func cleanQuestions(qs []string) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
