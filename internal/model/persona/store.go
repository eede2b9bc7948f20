package persona

// Store exposes persona retrieval for handlers and the session registry.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the configured personas.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier. An empty id resolves to
// DefaultID, falling back to the first configured persona.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	if id == "" {
		if p, ok := s.FindByID(DefaultID); ok {
			return p, true
		}
		if len(s.items) > 0 {
			return s.items[0], true
		}
		return Persona{}, false
	}
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}
