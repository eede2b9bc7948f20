package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/gabrieljoian/portfolio/backend/internal/config"
	"github.com/gabrieljoian/portfolio/backend/internal/model/persona"
	"github.com/gabrieljoian/portfolio/backend/internal/service/ai"
	"github.com/gabrieljoian/portfolio/backend/internal/service/assistant"
	"github.com/gabrieljoian/portfolio/backend/internal/tui"
)

func main() {
	// the alt screen owns the terminal; logs go to a file only when asked
	if path := os.Getenv("ASSISTANT_DEBUG_LOG"); path != "" {
		f, err := tea.LogToFile(path, "assistant")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	personas, err := persona.Open(cfg.Assistant.PersonaFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	personaID := ""
	if len(os.Args) > 1 {
		personaID = os.Args[1]
	}
	p, ok := personas.FindByID(personaID)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown persona %q\n", personaID)
		os.Exit(1)
	}

	chatModel, err := ai.NewChatModel(context.Background(), cfg.AI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	widget := assistant.New(assistant.Options{
		PersonaID:    p.ID,
		Greeting:     p.Greeting,
		SystemPrompt: ai.BuildSystemPrompt(p),
		Completer:    ai.NewService(chatModel),
	})
	defer widget.Close()
	widget.SetOpen(true)

	m := tui.NewModel(widget, p.Name, p.Tagline)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
