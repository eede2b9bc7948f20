package ai

import (
	"strings"

	"github.com/gabrieljoian/portfolio/backend/internal/model/persona"
)

// BuildSystemPrompt renders the fixed system instruction for a persona.
func BuildSystemPrompt(p persona.Persona) string {
	var builder strings.Builder
	builder.WriteString(strings.TrimSpace(p.SystemPrompt))

	if len(p.Facts) > 0 {
		builder.WriteString("\n\nFacts")
		if p.Owner != "" {
			builder.WriteString(" about ")
			builder.WriteString(p.Owner)
		}
		builder.WriteString(":")
		for _, fact := range p.Facts {
			builder.WriteString("\n- ")
			builder.WriteString(fact)
		}
	}

	if len(p.Rules) > 0 {
		builder.WriteString("\n\nRules:")
		for _, rule := range p.Rules {
			builder.WriteString("\n- ")
			builder.WriteString(rule)
		}
	}

	if p.Tone != "" {
		builder.WriteString("\n\nTone: ")
		builder.WriteString(p.Tone)
	}

	return builder.String()
}
