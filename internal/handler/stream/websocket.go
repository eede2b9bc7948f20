package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	middlewarePkg "github.com/gabrieljoian/portfolio/backend/internal/middleware"
	assistantsvc "github.com/gabrieljoian/portfolio/backend/internal/service/assistant"
	"github.com/gabrieljoian/portfolio/backend/internal/service/session"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

// errTooManySubmits 与 REST 提交接口的 429 文案一致。
var errTooManySubmits = errors.New("Too many requests. Please try again later.")

// WebSocketHandler WebSocket 助手处理器，入站为组件命令，出站为组件事件。
type WebSocketHandler struct {
	registry *session.Registry
	limiter  middlewarePkg.Limiter
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器。checkOrigin 为 nil 时只接受同源页面；
// limiter 为 nil 时不限制提交频率。
func NewWebSocketHandler(registry *session.Registry, checkOrigin func(*http.Request) bool, limiter middlewarePkg.Limiter) *WebSocketHandler {
	return &WebSocketHandler{
		registry: registry,
		limiter:  limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/assistant/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ToggleMessage 面板开关，Open 为空时切换。
type ToggleMessage struct {
	Open *bool `json:"open,omitempty"`
}

// DraftMessage 输入框内容
type DraftMessage struct {
	Text string `json:"text"`
}

// SubmitMessage 提交；Text 为空时提交当前草稿。
type SubmitMessage struct {
	Text *string `json:"text,omitempty"`
}

// KeyMessage 输入框按键。回车提交，Shift+回车由客户端插入换行。
type KeyMessage struct {
	Key      string `json:"key"`
	ShiftKey bool   `json:"shiftKey"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	widget, err := h.registry.Get(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	events, release := widget.Subscribe()
	defer release()

	replies := make(chan outgoingMessage, 8)
	done := make(chan struct{})
	defer close(done)

	replies <- newOutgoing("state", sessionID, widget.State())
	go h.writeLoop(conn, sessionID, events, replies, done)

	clientKey := middlewarePkg.ClientKey(r)
	log.Printf("[ws] connected session=%s", sessionID)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read error for session=%s: %v", sessionID, err)
			}
			return
		}

		if err := h.dispatch(r.Context(), widget, clientKey, raw); err != nil {
			select {
			case replies <- newOutgoing("error", sessionID, map[string]string{"message": err.Error()}):
			default:
			}
		}
	}
}

// writeLoop is the only writer on conn.
func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, sessionID string, events <-chan assistantsvc.Event, replies <-chan outgoingMessage, done <-chan struct{}) {
	defer conn.Close()

	for {
		var msg outgoingMessage
		select {
		case <-done:
			return
		case reply := <-replies:
			msg = reply
		case ev, ok := <-events:
			if !ok {
				_ = h.write(conn, newOutgoing("closed", sessionID, nil))
				return
			}
			msg = newOutgoing(string(ev.Type), sessionID, ev)
		}

		if err := h.write(conn, msg); err != nil {
			log.Printf("[ws] write failed for session=%s: %v", sessionID, err)
			return
		}
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, msg outgoingMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// allowSubmit applies the same budget as the REST submit route. Limiter
// failures let the submission through.
func (h *WebSocketHandler) allowSubmit(ctx context.Context, clientKey string) error {
	if h.limiter == nil {
		return nil
	}
	allowed, err := h.limiter.Allow(ctx, clientKey)
	if err != nil {
		log.Printf("[ws] limiter unavailable: %v", err)
		return nil
	}
	if !allowed {
		return errTooManySubmits
	}
	return nil
}

// dispatch applies one inbound command. Rejected submissions are silent;
// rate-limited ones are reported.
func (h *WebSocketHandler) dispatch(ctx context.Context, widget *assistantsvc.Widget, clientKey string, raw []byte) error {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	switch msg.Type {
	case "toggle":
		var toggle ToggleMessage
		if err := decodeData(msg.Data, &toggle); err != nil {
			return err
		}
		if toggle.Open != nil {
			widget.SetOpen(*toggle.Open)
		} else {
			widget.Toggle()
		}
	case "draft":
		var draft DraftMessage
		if err := decodeData(msg.Data, &draft); err != nil {
			return err
		}
		widget.UpdateDraft(draft.Text)
	case "submit":
		var submit SubmitMessage
		if err := decodeData(msg.Data, &submit); err != nil {
			return err
		}
		if err := h.allowSubmit(ctx, clientKey); err != nil {
			return err
		}
		if submit.Text != nil {
			widget.Submit(ctx, *submit.Text)
		} else {
			widget.SubmitDraft(ctx)
		}
	case "key":
		var key KeyMessage
		if err := decodeData(msg.Data, &key); err != nil {
			return err
		}
		if !assistantsvc.IsSubmitKeystroke(key.Key, key.ShiftKey) {
			return nil
		}
		if err := h.allowSubmit(ctx, clientKey); err != nil {
			return err
		}
		widget.SubmitDraft(ctx)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func decodeData(data json.RawMessage, dst any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid message data: %w", err)
	}
	return nil
}

func newOutgoing(msgType, sessionID string, data any) outgoingMessage {
	return outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}
