package api

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type setPresenceRequest struct {
	Status string `json:"status" validate:"required,presence"`
}

func (h *Handler) SetPresence(c *gin.Context) {
	var req setPresenceRequest
	if !h.bind(c, &req, h.fail) {
		return
	}

	p, err := h.svc.Presence.Set(c.Request.Context(), currentUser(c).ID, model.PresenceStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, presenceResponse{Presence: *p, IsOnline: p.IsOnline()})
}

// PresenceFeed websocket с изменениями статусов. ?expert_id= ограничивает
// поток одним экспертом и первым сообщением отдаёт его текущий статус.
func (h *Handler) PresenceFeed(c *gin.Context) {
	var filter uuid.UUID
	if raw := c.Query("expert_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.fail(c, apperr.Validation("presence.feed", "expert_id must be a UUID"))
			return
		}
		filter = id
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам ответил клиенту
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, dispose := h.hub.Subscribe()
	defer dispose()

	userID := currentUser(c).ID
	h.logger.Info("Presence feed opened",
		zap.String("user_id", userID.String()),
		zap.Int("subscribers", h.hub.Subscribers()),
	)
	defer h.logger.Info("Presence feed closed", zap.String("user_id", userID.String()))

	if filter != uuid.Nil {
		p, err := h.svc.Presence.Get(c.Request.Context(), filter)
		if err == nil {
			if err := writeJSON(conn, presenceResponse{Presence: p, IsOnline: p.IsOnline()}); err != nil {
				return
			}
		}
	}

	// чтение нужно только чтобы заметить закрытие и получать pong
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case p, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if filter != uuid.Nil && p.ExpertID != filter {
				continue
			}
			if err := writeJSON(conn, presenceResponse{Presence: p, IsOnline: p.IsOnline()}); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// originChecker без списка разрешены все origin, иначе только из списка
func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(origins, u.Scheme+"://"+u.Host)
	}
}
