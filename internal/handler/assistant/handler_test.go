package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrieljoian/portfolio/backend/internal/model/chat"
	"github.com/gabrieljoian/portfolio/backend/internal/model/persona"
	"github.com/gabrieljoian/portfolio/backend/internal/service/ai"
	assistantsvc "github.com/gabrieljoian/portfolio/backend/internal/service/assistant"
	"github.com/gabrieljoian/portfolio/backend/internal/service/session"
)

type fixedCompleter string

func (f fixedCompleter) Complete(context.Context, string, []chat.Message) (string, error) {
	return string(f), nil
}

func setupRouter(completer assistantsvc.Completer, submitMiddleware ...func(http.Handler) http.Handler) *chi.Mux {
	registry := session.NewRegistry(persona.NewMemoryStore(persona.Seed()), completer, 0)
	r := chi.NewRouter()
	New(registry, submitMiddleware...).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) assistantsvc.State {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/assistant/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	var state assistantsvc.State
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	return state
}

func decodeSubmit(t *testing.T, resp *httptest.ResponseRecorder) submitResponse {
	t.Helper()
	var out submitResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestCreateSessionSeedsGreeting(t *testing.T) {
	r := setupRouter(fixedCompleter("hi"))
	state := createSession(t, r)

	assert.NotEmpty(t, state.ID)
	assert.Equal(t, persona.DefaultID, state.PersonaID)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, chat.RoleAssistant, state.Messages[0].Role)
	assert.False(t, state.PanelOpen)
	assert.False(t, state.Busy)
}

func TestCreateSessionUnknownPersona(t *testing.T) {
	r := setupRouter(fixedCompleter("hi"))
	resp := do(t, r, http.MethodPost, "/assistant/sessions", map[string]string{"personaId": "non-existent"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	r := setupRouter(fixedCompleter("hi"))
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/assistant/sessions/missing"},
		{http.MethodPost, "/assistant/sessions/missing/toggle"},
		{http.MethodPut, "/assistant/sessions/missing/draft"},
		{http.MethodPost, "/assistant/sessions/missing/submit"},
		{http.MethodDelete, "/assistant/sessions/missing"},
	} {
		resp := do(t, r, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code, "%s %s", tc.method, tc.path)
	}
}

func TestToggleAndDraft(t *testing.T) {
	r := setupRouter(fixedCompleter("hi"))
	state := createSession(t, r)
	base := "/assistant/sessions/" + state.ID

	resp := do(t, r, http.MethodPost, base+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	assert.True(t, state.PanelOpen)

	resp = do(t, r, http.MethodPost, base+"/toggle", map[string]bool{"open": true})
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	assert.True(t, state.PanelOpen)

	resp = do(t, r, http.MethodPut, base+"/draft", map[string]string{"text": "Hel"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	assert.Equal(t, "Hel", state.Draft)
	assert.True(t, state.CanSubmit)

	resp = do(t, r, http.MethodPut, base+"/draft", "not an object")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitDraftAndWait(t *testing.T) {
	r := setupRouter(fixedCompleter("Hi there!"))
	state := createSession(t, r)
	base := "/assistant/sessions/" + state.ID

	do(t, r, http.MethodPut, base+"/draft", map[string]string{"text": "Hello"})
	resp := do(t, r, http.MethodPost, base+"/submit?wait=true", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeSubmit(t, resp)
	assert.True(t, out.Accepted)
	assert.Nil(t, out.Notification)
	assert.False(t, out.State.Busy)
	assert.Empty(t, out.State.Draft)
	require.Len(t, out.State.Messages, 3)
	assert.Equal(t, "Hello", out.State.Messages[1].Content)
	assert.Equal(t, chat.RoleAssistant, out.State.Messages[2].Role)
	assert.Equal(t, "Hi there!", out.State.Messages[2].Content)
}

func TestSubmitExplicitTextWithoutWait(t *testing.T) {
	r := setupRouter(fixedCompleter("ok"))
	state := createSession(t, r)

	resp := do(t, r, http.MethodPost, "/assistant/sessions/"+state.ID+"/submit", map[string]string{"text": "Hello"})
	require.Equal(t, http.StatusAccepted, resp.Code)

	out := decodeSubmit(t, resp)
	assert.True(t, out.Accepted)
	assert.GreaterOrEqual(t, len(out.State.Messages), 2)
	assert.Equal(t, "Hello", out.State.Messages[1].Content)
}

func TestSubmitBlankIsIgnored(t *testing.T) {
	r := setupRouter(fixedCompleter("ok"))
	state := createSession(t, r)
	base := "/assistant/sessions/" + state.ID

	do(t, r, http.MethodPut, base+"/draft", map[string]string{"text": "   "})
	resp := do(t, r, http.MethodPost, base+"/submit?wait=true", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeSubmit(t, resp)
	assert.False(t, out.Accepted)
	assert.Len(t, out.State.Messages, 1)
	assert.Equal(t, "   ", out.State.Draft)
}

func TestSubmitWithoutCredentialNotifies(t *testing.T) {
	svc := ai.NewService(ai.NewOpenAIClient(ai.OpenAIConfig{}))
	r := setupRouter(svc)
	state := createSession(t, r)

	resp := do(t, r, http.MethodPost, "/assistant/sessions/"+state.ID+"/submit?wait=true", map[string]string{"text": "test"})
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeSubmit(t, resp)
	assert.True(t, out.Accepted)
	require.NotNil(t, out.Notification)
	assert.Equal(t, "Error", out.Notification.Title)
	assert.Equal(t, assistantsvc.MissingCredential, out.Notification.Description)
	assert.False(t, out.State.Busy)
	require.Len(t, out.State.Messages, 2)
	assert.Equal(t, chat.RoleUser, out.State.Messages[1].Role)
	assert.Equal(t, "test", out.State.Messages[1].Content)
}

func TestSubmitRouteUsesMiddleware(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	r := setupRouter(fixedCompleter("ok"), deny)
	state := createSession(t, r)

	resp := do(t, r, http.MethodPost, "/assistant/sessions/"+state.ID+"/submit", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	resp = do(t, r, http.MethodGet, "/assistant/sessions/"+state.ID, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestTeardown(t *testing.T) {
	r := setupRouter(fixedCompleter("ok"))
	state := createSession(t, r)

	resp := do(t, r, http.MethodDelete, "/assistant/sessions/"+state.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(t, r, http.MethodGet, "/assistant/sessions/"+state.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
