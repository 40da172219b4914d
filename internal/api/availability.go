package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

type slotRequest struct {
	StartTime    model.ClockTime `json:"start_time"`
	EndTime      model.ClockTime `json:"end_time"`
	DayOfWeek    *int            `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	SpecificDate string          `json:"specific_date" validate:"omitempty,datetime=2006-01-02"`
}

type createAvailabilityRequest struct {
	Kind      string        `json:"availability_type" validate:"required,availability_type"`
	StartDate string        `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string        `json:"end_date" validate:"required,datetime=2006-01-02"`
	Slots     []slotRequest `json:"time_slots" validate:"required,min=1,max=48,dive"`
}

// window формат дат уже проверен валидатором
func (r createAvailabilityRequest) window() model.ExpertAvailability {
	start, _ := model.ParseDate(r.StartDate)
	end, _ := model.ParseDate(r.EndDate)

	w := model.ExpertAvailability{
		Kind:      model.AvailabilityKind(r.Kind),
		StartDate: start,
		EndDate:   end,
		Slots:     make([]model.TimeSlot, 0, len(r.Slots)),
	}
	for _, s := range r.Slots {
		slot := model.TimeSlot{StartTime: s.StartTime, EndTime: s.EndTime}
		if s.DayOfWeek != nil {
			slot.DayOfWeek = model.Weekday(time.Weekday(*s.DayOfWeek))
		}
		if s.SpecificDate != "" {
			d, _ := model.ParseDate(s.SpecificDate)
			slot.SpecificDate = &d
		}
		w.Slots = append(w.Slots, slot)
	}
	return w
}

func (h *Handler) CreateAvailability(c *gin.Context) {
	var req createAvailabilityRequest
	if !h.bind(c, &req, h.fail) {
		return
	}

	user := currentUser(c)
	window, report, err := h.svc.Availability.Create(c.Request.Context(), user.ID, req.window())
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) && !report.OK() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":    apperr.PublicMessage(err),
				"errors":   report.Errors,
				"warnings": report.Warnings,
			})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"availability": window, "warnings": report.Warnings})
}

func (h *Handler) ListAvailability(c *gin.Context) {
	windows, err := h.svc.Availability.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": windows})
}

func (h *Handler) DeleteAvailability(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Availability.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
