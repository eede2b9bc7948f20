package persona

// Persona configures the assistant shown on the portfolio page.
// SystemPrompt and Facts are sent to the completion service only.
type Persona struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Tagline      string   `json:"tagline" yaml:"tagline"`
	Greeting     string   `json:"greeting" yaml:"greeting"`
	Owner        string   `json:"owner,omitempty" yaml:"owner"`
	Tone         string   `json:"tone,omitempty" yaml:"tone"`
	SystemPrompt string   `json:"-" yaml:"system_prompt"`
	Facts        []string `json:"-" yaml:"facts"`
	Rules        []string `json:"-" yaml:"rules"`
}

// DefaultID names the persona used when a widget is mounted without one.
const DefaultID = "portfolio"

// Seed provides the built-in portfolio assistant.
func Seed() []Persona {
	return []Persona{
		{
			ID:       DefaultID,
			Name:     "AI Assistant",
			Tagline:  "Powered by OpenAI",
			Owner:    "Gabriel",
			Tone:     "helpful, friendly, direct, with casual humor",
			Greeting: "Hello! I'm your AI assistant. I can help you with questions about hiring Gabriel, learning more about his skills and experience, or answer any other questions you might have about his work. How can I assist you today?",
			SystemPrompt: "You are an AI assistant for Gabriel's portfolio website. " +
				"Help visitors learn about Gabriel's skills, experience, and projects, " +
				"and answer questions about hiring him or working with him.",
			Facts: []string{
				"Strong in TypeScript and React",
				"Builds plain HTML/CSS/JS pages for smaller budgets",
				"Comfortable with API keys, forms, and backend work",
				"Tools: Figma, VSCode, Git",
			},
			Rules: []string{
				"Only describe how you can help in the first reply",
				"If you cannot answer, point the visitor to the contact form at the bottom of the page",
			},
		},
	}
}
