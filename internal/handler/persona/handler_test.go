package persona

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/gabrieljoian/portfolio/backend/internal/model/persona"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)
	return r
}

func TestListPersonasHidesSystemPrompt(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/assistant/personas", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `"greeting"`) {
		t.Fatalf("expected greeting in body: %s", body)
	}
	if strings.Contains(body, "portfolio website") || strings.Contains(body, "system") {
		t.Fatalf("system prompt leaked: %s", body)
	}
}

func TestGetDefaultPersona(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/assistant/personas/default", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"tagline":"Powered by OpenAI"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestGetMissingPersona(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/assistant/personas/nope", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
