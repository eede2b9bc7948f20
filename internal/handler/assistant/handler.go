package assistant

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	assistantsvc "github.com/gabrieljoian/portfolio/backend/internal/service/assistant"
	"github.com/gabrieljoian/portfolio/backend/internal/service/session"
	"github.com/gabrieljoian/portfolio/backend/pkg/utils"
)

// Handler exposes widget commands over REST.
type Handler struct {
	registry         *session.Registry
	submitMiddleware []func(http.Handler) http.Handler
}

// New creates the handler. submitMiddleware wraps only the submit route.
func New(registry *session.Registry, submitMiddleware ...func(http.Handler) http.Handler) *Handler {
	return &Handler{
		registry:         registry,
		submitMiddleware: submitMiddleware,
	}
}

// RegisterRoutes 注册助手相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/assistant/sessions", h.handleCreate)
	r.Get("/assistant/sessions/{sessionID}", h.handleState)
	r.Delete("/assistant/sessions/{sessionID}", h.handleTeardown)
	r.Post("/assistant/sessions/{sessionID}/toggle", h.handleToggle)
	r.Put("/assistant/sessions/{sessionID}/draft", h.handleDraft)
	r.With(h.submitMiddleware...).Post("/assistant/sessions/{sessionID}/submit", h.handleSubmit)
}

type submitResponse struct {
	Accepted     bool                       `json:"accepted"`
	Notification *assistantsvc.Notification `json:"notification,omitempty"`
	State        assistantsvc.State         `json:"state"`
}

// handleCreate mounts a widget for one page load.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	widget, err := h.registry.Create(r.Context(), payload.PersonaID)
	if err != nil {
		h.respondRegistryError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, widget.State())
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, widget.State())
}

func (h *Handler) handleTeardown(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Teardown(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggle flips the panel, or sets it when "open" is given.
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Open *bool `json:"open"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Open != nil {
		widget.SetOpen(*payload.Open)
	} else {
		widget.Toggle()
	}
	utils.RespondJSON(w, http.StatusOK, widget.State())
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	widget.UpdateDraft(payload.Text)
	utils.RespondJSON(w, http.StatusOK, widget.State())
}

// handleSubmit submits the draft, or "text" when given. A rejected
// submission is not an error: it answers 200 with accepted=false.
// With ?wait=true the response is sent once the request has resolved.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text *string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		outcomes <-chan assistantsvc.Outcome
		accepted bool
	)
	if payload.Text != nil {
		outcomes, accepted = widget.Submit(r.Context(), *payload.Text)
	} else {
		outcomes, accepted = widget.SubmitDraft(r.Context())
	}

	if !accepted {
		utils.RespondJSON(w, http.StatusOK, submitResponse{State: widget.State()})
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		utils.RespondJSON(w, http.StatusAccepted, submitResponse{Accepted: true, State: widget.State()})
		return
	}

	resp := submitResponse{Accepted: true}
	select {
	case outcome := <-outcomes:
		resp.Notification = outcome.Notification
	case <-r.Context().Done():
		return
	}
	resp.State = widget.State()
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*assistantsvc.Widget, bool) {
	widget, err := h.registry.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondRegistryError(w, err)
		return nil, false
	}
	return widget, true
}

func (h *Handler) respondRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrPersonaNotFound):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
