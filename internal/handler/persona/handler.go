package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrieljoian/portfolio/backend/internal/model/persona"
	"github.com/gabrieljoian/portfolio/backend/pkg/utils"
)

// Handler persona服务的HTTP处理器
type Handler struct {
	personas persona.Store
}

// New 创建persona处理器
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/assistant/personas", h.handleListPersonas)
	r.Get("/assistant/personas/{personaID}", h.handleGetPersona)
}

// handleListPersonas 列出所有persona，系统提示词不会返回给前端。
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

// handleGetPersona 返回面板标题所需的信息，"default" 表示默认persona。
func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "personaID")
	if id == "default" {
		id = ""
	}

	p, ok := h.personas.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}
