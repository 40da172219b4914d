package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type leaveMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

type markReadRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=200"`
}

// LeaveMessage сообщение эксперту, пока он недоступен для звонка
func (h *Handler) LeaveMessage(c *gin.Context) {
	expertID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req leaveMessageRequest
	if !h.bind(c, &req, h.fail) {
		return
	}

	msg, err := h.svc.Messages.Leave(c.Request.Context(), currentUser(c).ID, expertID, req.Body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages ?unread=true только непрочитанные
func (h *Handler) ListMessages(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	list, err := h.svc.Messages.List(c.Request.Context(), currentUser(c).ID, unreadOnly)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *Handler) MarkMessagesRead(c *gin.Context) {
	var req markReadRequest
	if !h.bind(c, &req, h.fail) {
		return
	}

	n, err := h.svc.Messages.MarkRead(c.Request.Context(), currentUser(c).ID, req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n, "unread": h.svc.Messages.Unread(currentUser(c).ID)})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Messages.Unread(currentUser(c).ID))
}

// RefreshUnread принудительная сверка счётчика, работает и при открытом breaker
func (h *Handler) RefreshUnread(c *gin.Context) {
	count, err := h.svc.Messages.RefreshUnread(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}
