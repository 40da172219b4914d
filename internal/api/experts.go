package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

type presenceResponse struct {
	model.Presence
	IsOnline bool `json:"is_online"`
}

func (h *Handler) ListExperts(c *gin.Context) {
	cards, err := h.svc.Experts.Catalogue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experts": cards})
}

func (h *Handler) GetExpert(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	expert, err := h.svc.Experts.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, expert)
}

func (h *Handler) GetPresence(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Presence.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, presenceResponse{Presence: p, IsOnline: p.IsOnline()})
}

// OpenSlots свободные слоты эксперта на дату (?date=YYYY-MM-DD, по умолчанию сегодня)
func (h *Handler) OpenSlots(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	date, ok := h.dateQuery(c, "date", model.DateOf(time.Now()))
	if !ok {
		return
	}

	slots, err := h.svc.Availability.OpenSlots(c.Request.Context(), id, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date.Format(time.DateOnly), "slots": slots})
}

// CheckBookable ?date=&start=HH:MM&end=HH:MM
func (h *Handler) CheckBookable(c *gin.Context) {
	const op = "availability.check"

	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if c.Query("date") == "" {
		h.fail(c, apperr.Validation(op, "date is required"))
		return
	}
	date, ok := h.dateQuery(c, "date", time.Time{})
	if !ok {
		return
	}
	start, err := model.ParseClock(c.Query("start"))
	if err != nil {
		h.fail(c, apperr.Validation(op, err.Error()))
		return
	}
	end, err := model.ParseClock(c.Query("end"))
	if err != nil {
		h.fail(c, apperr.Validation(op, err.Error()))
		return
	}

	slot, bookable, err := h.svc.Availability.CheckBookable(c.Request.Context(), id, date, start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookable": bookable, "slot": slot})
}

// QuoteCall ?call_type=video&minutes=30
func (h *Handler) QuoteCall(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	minutes, err := strconv.Atoi(c.Query("minutes"))
	if err != nil {
		h.fail(c, apperr.Validation("call.quote", "minutes must be a number"))
		return
	}

	quote, err := h.svc.Calls.Quote(c.Request.Context(), id, model.CallKind(c.Query("call_type")), minutes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
