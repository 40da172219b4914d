package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/payment"
	"github.com/Freeeeeet/wellness_api/internal/service"
)

type createOrderRequest struct {
	Purpose  string    `json:"purpose" validate:"required,oneof=call appointment"`
	ExpertID uuid.UUID `json:"expert_id" validate:"required"`

	// purpose = call
	CallType string `json:"call_type" validate:"omitempty,call_type"`
	Minutes  int    `json:"minutes"`

	// purpose = appointment
	TimeSlotID uuid.UUID `json:"time_slot_id"`
	Date       string    `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes      string    `json:"notes" validate:"max=1000"`
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	Cancelled bool   `json:"cancelled"`
	Reason    string `json:"reason" validate:"max=500"`
}

type adminUpdateRequest struct {
	ExpertID      uuid.UUID `json:"expert_id" validate:"required"`
	FullName      *string   `json:"full_name" validate:"omitempty,max=200"`
	RatePerMinute *int64    `json:"rate_per_minute" validate:"omitempty,min=0"`
	Currency      *string   `json:"currency" validate:"omitempty,len=3"`
	IsActive      *bool     `json:"is_active"`
	TelegramID    *int64    `json:"telegram_id"`
}

func (r adminUpdateRequest) update() model.ExpertUpdate {
	return model.ExpertUpdate{
		FullName:      r.FullName,
		RatePerMinute: r.RatePerMinute,
		Currency:      r.Currency,
		IsActive:      r.IsActive,
		TelegramID:    r.TelegramID,
	}
}

func (r adminUpdateRequest) empty() bool {
	return r.FullName == nil && r.RatePerMinute == nil && r.Currency == nil && r.IsActive == nil && r.TelegramID == nil
}

type expertStatusRequest struct {
	Status string `json:"status" validate:"required,presence"`
}

type calendarSyncRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" validate:"required"`
}

type testCallRequest struct {
	ExpertID uuid.UUID `json:"expert_id" validate:"required"`
	CallType string    `json:"call_type" validate:"required,call_type"`
}

// CreateOrder заказ у платёжного провайдера для звонка или записи
func (h *Handler) CreateOrder(c *gin.Context) {
	const op = "functions.create_order"

	var req createOrderRequest
	if !h.bind(c, &req, h.failFunction) {
		return
	}
	user := currentUser(c)

	switch model.PaymentPurpose(req.Purpose) {
	case model.PaymentPurposeCall:
		checkout, err := h.svc.Calls.Checkout(c.Request.Context(), user, req.ExpertID, model.CallKind(req.CallType), req.Minutes)
		if err != nil {
			h.failFunction(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order":      checkout.Order,
			"session_id": checkout.SessionID,
			"quote":      checkout.Quote,
		})

	case model.PaymentPurposeAppointment:
		if req.Date == "" {
			h.failFunction(c, apperr.Validation(op, "date is required"))
			return
		}
		booking := bookRequest{ExpertID: req.ExpertID, TimeSlotID: req.TimeSlotID, Date: req.Date, Notes: req.Notes}
		checkout, err := h.svc.Appointments.Book(c.Request.Context(), user, booking.toService())
		if err != nil {
			h.failFunction(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order":       checkout.Order,
			"appointment": checkout.Appointment,
		})
	}
}

// VerifyPayment подтверждение от виджета оплаты; неуспешная оплата отвечает 400
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if !h.bind(c, &req, h.failFunction) {
		return
	}

	conf := payment.Confirmation{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Cancelled: req.Cancelled,
		Reason:    req.Reason,
	}
	result, err := h.svc.Payments.Confirm(c.Request.Context(), currentUser(c).ID, conf)
	if err != nil {
		h.failFunction(c, err)
		return
	}
	c.JSON(http.StatusOK, functionResult(result))
}

func functionResult(r *service.PaymentResult) gin.H {
	out := gin.H{"success": true, "purpose": r.Purpose}
	if r.Call != nil {
		out["call"] = r.Call
	}
	if r.Appointment != nil {
		out["appointment"] = r.Appointment
	}
	return out
}

func (h *Handler) AdminUpdateExpert(c *gin.Context) {
	var req adminUpdateRequest
	if !h.bind(c, &req, h.failFunction) {
		return
	}
	if req.empty() {
		h.failFunction(c, apperr.Validation("functions.admin_update", "nothing to update"))
		return
	}

	expert, err := h.svc.Experts.AdminUpdate(c.Request.Context(), currentUser(c), req.ExpertID, req.update())
	if err != nil {
		h.failFunction(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "expert": expert})
}

// NotifyExpertStatus эксперт сообщает свой статус; изменение расходится
// подписчикам websocket и в NATS
func (h *Handler) NotifyExpertStatus(c *gin.Context) {
	var req expertStatusRequest
	if !h.bind(c, &req, h.failFunction) {
		return
	}

	p, err := h.svc.Presence.Set(c.Request.Context(), currentUser(c).ID, model.PresenceStatus(req.Status))
	if err != nil {
		h.failFunction(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "presence": presenceResponse{Presence: *p, IsOnline: p.IsOnline()}})
}

func (h *Handler) GoogleCalendarSync(c *gin.Context) {
	var req calendarSyncRequest
	if !h.bind(c, &req, h.failFunction) {
		return
	}

	appt, err := h.svc.Appointments.SyncCalendar(c.Request.Context(), currentUser(c).ID, req.AppointmentID)
	if err != nil {
		h.failFunction(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"appointment":       appt,
		"calendar_event_id": appt.CalendarEventID,
	})
}

func (h *Handler) CreateTestCallRequest(c *gin.Context) {
	var req testCallRequest
	if !h.bind(c, &req, h.failFunction) {
		return
	}

	session, err := h.svc.Calls.RequestTestCall(c.Request.Context(), currentUser(c).ID, req.ExpertID, model.CallKind(req.CallType))
	if err != nil {
		h.failFunction(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}
