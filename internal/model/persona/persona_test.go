package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidDocument(t *testing.T) {
	raw := []byte(`
personas:
  - id: portfolio
    greeting: "Hi, ask me anything."
    system_prompt: "You help visitors of a portfolio."
    facts:
      - Writes Go
  - id: recruiter
    name: Hiring Desk
    greeting: "Looking to hire?"
    system_prompt: "You answer hiring questions."
`)

	personas, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, personas, 2)
	assert.Equal(t, "AI Assistant", personas[0].Name)
	assert.Equal(t, []string{"Writes Go"}, personas[0].Facts)
	assert.Equal(t, "Hiring Desk", personas[1].Name)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":          `personas: []`,
		"missing id":     "personas:\n  - greeting: hi\n    system_prompt: x\n",
		"duplicate":      "personas:\n  - {id: a, greeting: hi, system_prompt: x}\n  - {id: a, greeting: hi, system_prompt: x}\n",
		"missing prompt": "personas:\n  - {id: a, greeting: hi}\n",
		"not yaml":       "personas: [",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("personas:\n  - {id: a, greeting: hi, system_prompt: x}\n"), 0o600))

	personas, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", personas[0].ID)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMemoryStoreDefaultLookup(t *testing.T) {
	store := NewMemoryStore(Seed())

	p, ok := store.FindByID("")
	require.True(t, ok)
	assert.Equal(t, DefaultID, p.ID)

	custom := NewMemoryStore([]Persona{{ID: "only"}})
	p, ok = custom.FindByID("")
	require.True(t, ok)
	assert.Equal(t, "only", p.ID)

	_, ok = NewMemoryStore(nil).FindByID("")
	assert.False(t, ok)

	_, ok = store.FindByID("missing")
	assert.False(t, ok)
}

func TestOpenFallsBackToSeed(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)

	p, ok := store.FindByID("")
	require.True(t, ok)
	assert.Equal(t, DefaultID, p.ID)

	_, err = Open(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
