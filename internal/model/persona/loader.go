package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoPersonas is returned when a persona file defines nothing usable.
var ErrNoPersonas = errors.New("persona file defines no personas")

type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads personas from a YAML document of the form
//
//	personas:
//	  - id: portfolio
//	    greeting: Hello!
//	    system_prompt: You are ...
func LoadFile(path string) ([]Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML persona document.
func Parse(raw []byte) ([]Persona, error) {
	var doc personaFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode persona file: %w", err)
	}
	if len(doc.Personas) == 0 {
		return nil, ErrNoPersonas
	}

	seen := make(map[string]struct{}, len(doc.Personas))
	for i := range doc.Personas {
		p := &doc.Personas[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("persona #%d: id is required", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("persona %q defined twice", p.ID)
		}
		seen[p.ID] = struct{}{}
		if strings.TrimSpace(p.Greeting) == "" {
			return nil, fmt.Errorf("persona %q: greeting is required", p.ID)
		}
		if strings.TrimSpace(p.SystemPrompt) == "" {
			return nil, fmt.Errorf("persona %q: system_prompt is required", p.ID)
		}
		if p.Name == "" {
			p.Name = "AI Assistant"
		}
	}
	return doc.Personas, nil
}

// Open returns a Store backed by path, or the built-in Seed when path is
// empty.
func Open(path string) (*MemoryStore, error) {
	if strings.TrimSpace(path) == "" {
		return NewMemoryStore(Seed()), nil
	}
	items, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(items), nil
}
