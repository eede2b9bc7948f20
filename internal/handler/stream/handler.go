package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gabrieljoian/portfolio/backend/internal/service/session"
	"github.com/gabrieljoian/portfolio/backend/pkg/utils"
)

const heartbeatInterval = 15 * time.Second

// Handler pushes widget events to the page via Server-Sent Events.
type Handler struct {
	registry  *session.Registry
	heartbeat time.Duration
}

// New creates a new stream handler
func New(registry *session.Registry) *Handler {
	return &Handler{registry: registry, heartbeat: heartbeatInterval}
}

// RegisterRoutes 注册事件流路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/assistant/sessions/{sessionID}/events", h.handleEvents)
}

// handleEvents sends a "state" snapshot, then one SSE event per widget
// event, named after its type. The stream ends with "closed" on teardown.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	widget, err := h.registry.Get(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, release := widget.Subscribe()
	defer release()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, "state", widget.State()); err != nil {
		log.Printf("[sse] session=%s: %v", sessionID, err)
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	log.Printf("[sse] opened event stream for session=%s", sessionID)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] client left session=%s", sessionID)
			return
		case ev, ok := <-events:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "closed", map[string]string{"sessionId": sessionID})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				log.Printf("[sse] session=%s: %v", sessionID, err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
