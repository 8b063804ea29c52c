// Package agent contains the clients for the external AI services the
// interview pipeline delegates to: question generation and speech-to-text.
// Both are optional at runtime; the pipeline has deterministic behavior
// without them.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cherianmatt/healthAI/internal/interview"
	"github.com/cherianmatt/healthAI/internal/logging"
)

const questionSystemPrompt = `You are a clinical assistant helping a doctor during a live patient interview. ` +
	`You are given the symptoms the patient has mentioned so far and, for each one, the checklist items ` +
	`the doctor has not covered yet. Suggest the most important follow-up questions to ask next. ` +
	`Ask about one thing per question, keep questions short and patient-friendly, and return each ` +
	`question on its own line, numbered.`

// OpenAIGenerator produces follow-up questions with an OpenAI chat model.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

// NewOpenAIGenerator builds a generator for the given API key and model.
// An empty model selects gpt-4o-mini.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logging.New("agent.openai"),
	}
}

// GenerateQuestions implements interview.QuestionGenerator. Any transport
// problem, empty completion or unparseable output is reported as an error;
// the caller decides how to degrade.
func (g *OpenAIGenerator) GenerateQuestions(ctx context.Context, qc interview.QuestionContext) ([]string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.2,
		MaxTokens:   400,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: questionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: questionPrompt(qc)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	questions := parseQuestionLines(resp.Choices[0].Message.Content)
	if len(questions) == 0 {
		return nil, errors.New("chat completion returned no usable questions")
	}
	g.log.Debug("questions generated", "model", g.model, "count", len(questions))
	return questions, nil
}

func questionPrompt(qc interview.QuestionContext) string {
	var b strings.Builder
	b.WriteString("Symptoms mentioned so far and what is still unknown about each:\n")
	for _, sym := range qc.Symptoms {
		fmt.Fprintf(&b, "- %s: %s\n", sym.DisplayName, strings.Join(sym.Prompts, "; "))
	}
	b.WriteString("\nSuggest 3 to 5 follow-up questions for the doctor to ask next.")
	return b.String()
}

// parseQuestionLines splits model output into one question per line,
// stripping list numbering and bullet markers. Blank lines are dropped.
func parseQuestionLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		line = stripNumberPrefix(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// stripNumberPrefix removes a leading "3." or "3)" list marker. Lines that
// merely start with a number ("30 minutes after meals") are left intact.
func stripNumberPrefix(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return line
	}
	if line[i] == '.' || line[i] == ')' {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
