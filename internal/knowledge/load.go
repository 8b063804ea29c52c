package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed symptoms.yaml
var defaultBase []byte

// baseFile is the on-disk shape: a mapping of symptom id to definition.
// YAML is a superset of JSON, so one decoder covers both formats.
type baseFile struct {
	Symptoms map[string]symptomDef `yaml:"symptoms"`
}

type symptomDef struct {
	DisplayName string      `yaml:"display_name"`
	Synonyms    []string    `yaml:"synonyms"`
	Checklist   []CheckItem `yaml:"checklist"`
}

// Default parses the knowledge base compiled into the binary.
func Default() (*Base, error) {
	return Parse(defaultBase)
}

// Load reads and parses a knowledge base file (YAML or JSON).
func Load(path string) (*Base, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMalformed, path, err)
	}
	b, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes and validates a knowledge base document. Any structural
// problem fails the whole load; a partially usable base is worse than no
// base, because missing checklist entries silently widen the gaps the
// system is supposed to catch.
func Parse(raw []byte) (*Base, error) {
	var f baseFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(f.Symptoms) == 0 {
		return nil, fmt.Errorf("%w: no symptoms defined", ErrMalformed)
	}

	symptoms := make(map[string]Symptom, len(f.Symptoms))
	for id, def := range f.Symptoms {
		s, err := buildSymptom(id, def)
		if err != nil {
			return nil, err
		}
		symptoms[s.ID] = s
	}
	return newBase(symptoms), nil
}

func buildSymptom(id string, def symptomDef) (Symptom, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Symptom{}, fmt.Errorf("%w: empty symptom id", ErrMalformed)
	}

	display := strings.TrimSpace(def.DisplayName)
	if display == "" {
		display = strings.ReplaceAll(id, "_", " ")
	}

	if len(def.Checklist) == 0 {
		return Symptom{}, fmt.Errorf("%w: symptom %q has no checklist", ErrMalformed, id)
	}
	checklist := make([]CheckItem, 0, len(def.Checklist))
	seen := make(map[string]bool, len(def.Checklist))
	for i, c := range def.Checklist {
		c.ID = strings.TrimSpace(c.ID)
		c.Prompt = strings.TrimSpace(c.Prompt)
		if c.ID == "" {
			return Symptom{}, fmt.Errorf("%w: symptom %q checklist[%d] has no id", ErrMalformed, id, i)
		}
		if c.Prompt == "" {
			return Symptom{}, fmt.Errorf("%w: symptom %q check %q has no prompt", ErrMalformed, id, c.ID)
		}
		if seen[c.ID] {
			return Symptom{}, fmt.Errorf("%w: symptom %q has duplicate check id %q", ErrMalformed, id, c.ID)
		}
		seen[c.ID] = true
		c.TriggerTerms = cleanTerms(c.TriggerTerms)
		checklist = append(checklist, c)
	}

	return Symptom{
		ID:          id,
		DisplayName: display,
		Synonyms:    cleanTerms(def.Synonyms),
		Checklist:   checklist,
	}, nil
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
