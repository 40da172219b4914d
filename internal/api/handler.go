package api

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/callflow"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/pubsub"
)

type Handler struct {
	svc      Services
	hub      *pubsub.Hub[model.Presence]
	validate *validator.Validate
	upgrader websocket.Upgrader
	logger   *zap.Logger
	started  time.Time
}

func NewHandler(svc Services, hub *pubsub.Hub[model.Presence], origins []string, logger *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		hub:      hub,
		validate: newValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		logger:  logger,
		started: time.Now(),
	}
}

// newValidator validator с доменными тегами: call_type, presence, availability_type, action
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// в сообщениях об ошибках имена полей как в JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("call_type", func(fl validator.FieldLevel) bool {
		return model.CallKind(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("presence", func(fl validator.FieldLevel) bool {
		return model.PresenceStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("availability_type", func(fl validator.FieldLevel) bool {
		return model.AvailabilityKind(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("action", func(fl validator.FieldLevel) bool {
		switch callflow.Action(fl.Field().String()) {
		case callflow.ActionDrop, callflow.ActionRejoin, callflow.ActionDone, callflow.ActionConfirm, callflow.ActionDismiss:
			return true
		}
		return false
	})
	return v
}

// bind разбирает JSON и проверяет теги validate. При ошибке ответ уже отправлен.
func (h *Handler) bind(c *gin.Context, req any, onErr func(*gin.Context, error)) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		onErr(c, apperr.Validation("request.bind", "invalid request body: "+err.Error()))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		onErr(c, apperr.Validation("request.validate", validationMessage(err)))
		return false
	}
	return true
}

func (h *Handler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.fail(c, apperr.Validation("request.param", name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) dateQuery(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		h.fail(c, apperr.Validation("request.query", err.Error()))
		return time.Time{}, false
	}
	return d, true
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "wellness-api",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
