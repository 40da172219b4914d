package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/service"
)

const defaultExpertRange = 30 * 24 * time.Hour

type bookRequest struct {
	ExpertID   uuid.UUID `json:"expert_id" validate:"required"`
	TimeSlotID uuid.UUID `json:"time_slot_id" validate:"required"`
	Date       string    `json:"date" validate:"required,datetime=2006-01-02"`
	Notes      string    `json:"notes" validate:"max=1000"`
}

func (r bookRequest) toService() service.BookRequest {
	date, _ := model.ParseDate(r.Date)
	return service.BookRequest{
		ExpertID:   r.ExpertID,
		TimeSlotID: r.TimeSlotID,
		Date:       date,
		Notes:      r.Notes,
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookRequest
	if !h.bind(c, &req, h.fail) {
		return
	}

	checkout, err := h.svc.Appointments.Book(c.Request.Context(), currentUser(c), req.toService())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	list, err := h.svc.Appointments.ListForUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": list})
}

// ListExpertAppointments ?from=&to=, по умолчанию ближайшие 30 дней
func (h *Handler) ListExpertAppointments(c *gin.Context) {
	from, ok := h.dateQuery(c, "from", model.DateOf(time.Now()))
	if !ok {
		return
	}
	to, ok := h.dateQuery(c, "to", from.Add(defaultExpertRange))
	if !ok {
		return
	}

	list, err := h.svc.Appointments.ListForExpert(c.Request.Context(), currentUser(c).ID, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": list})
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	appt, err := h.svc.Appointments.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	appt, err := h.svc.Appointments.Cancel(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) SyncAppointmentCalendar(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	appt, err := h.svc.Appointments.SyncCalendar(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}
