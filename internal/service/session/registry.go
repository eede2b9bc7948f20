package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gabrieljoian/portfolio/backend/internal/model/persona"
	"github.com/gabrieljoian/portfolio/backend/internal/service/ai"
	"github.com/gabrieljoian/portfolio/backend/internal/service/assistant"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPersonaNotFound = errors.New("persona not found")
)

type entry struct {
	widget   *assistant.Widget
	lastSeen time.Time
}

// Registry owns every mounted widget. Each page mount gets its own widget;
// nothing is shared between them.
type Registry struct {
	mu        sync.RWMutex
	widgets   map[string]*entry
	personas  persona.Store
	completer assistant.Completer
	ttl       time.Duration
	now       func() time.Time
}

// NewRegistry creates a registry. A ttl of zero disables idle eviction.
func NewRegistry(personas persona.Store, completer assistant.Completer, ttl time.Duration) *Registry {
	return &Registry{
		widgets:   make(map[string]*entry),
		personas:  personas,
		completer: completer,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Create mounts a new widget for personaID (empty selects the default).
func (r *Registry) Create(_ context.Context, personaID string) (*assistant.Widget, error) {
	p, ok := r.personas.FindByID(personaID)
	if !ok {
		return nil, ErrPersonaNotFound
	}

	widget := assistant.New(assistant.Options{
		ID:           uuid.NewString(),
		PersonaID:    p.ID,
		Greeting:     p.Greeting,
		SystemPrompt: ai.BuildSystemPrompt(p),
		Completer:    r.completer,
	})

	r.mu.Lock()
	r.widgets[widget.ID()] = &entry{widget: widget, lastSeen: r.now()}
	r.mu.Unlock()

	log.Printf("[session] mounted widget=%s persona=%s", widget.ID(), p.ID)
	return widget, nil
}

// Get returns a mounted widget and marks it as active.
func (r *Registry) Get(_ context.Context, id string) (*assistant.Widget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.widgets[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = r.now()
	return e.widget, nil
}

// Teardown destroys a widget and its conversation.
func (r *Registry) Teardown(_ context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.widgets[id]
	if ok {
		delete(r.widgets, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.widget.Close()
	log.Printf("[session] tore down widget=%s", id)
	return nil
}

// Len reports the number of mounted widgets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.widgets)
}

// Sweep tears down widgets idle for longer than the ttl. A widget with an
// attached event stream counts as seen on every sweep, and busy widgets are
// kept until their request resolves.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	now := r.now()
	cutoff := now.Add(-r.ttl)
	var expired []*assistant.Widget

	r.mu.Lock()
	for id, e := range r.widgets {
		if e.widget.Subscribers() > 0 {
			e.lastSeen = now
			continue
		}
		if e.lastSeen.Before(cutoff) && !e.widget.Busy() {
			expired = append(expired, e.widget)
			delete(r.widgets, id)
		}
	}
	r.mu.Unlock()

	for _, widget := range expired {
		widget.Close()
	}
	if len(expired) > 0 {
		log.Printf("[session] evicted %d idle widgets", len(expired))
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done, then tears down all
// remaining widgets.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	widgets := r.widgets
	r.widgets = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range widgets {
		e.widget.Close()
	}
}
