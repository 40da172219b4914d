package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Freeeeeet/wellness_api/internal/callflow"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/payment"
)

type checkoutRequest struct {
	ExpertID uuid.UUID `json:"expert_id" validate:"required"`
	CallType string    `json:"call_type" validate:"required,call_type"`
	Minutes  int       `json:"minutes" validate:"required"`
}

type confirmRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Cancelled bool   `json:"cancelled"`
	Reason    string `json:"reason" validate:"max=500"`
}

func (r confirmRequest) confirmation() payment.Confirmation {
	return payment.Confirmation{
		OrderID:   r.OrderID,
		PaymentID: r.PaymentID,
		Signature: r.Signature,
		Cancelled: r.Cancelled,
		Reason:    r.Reason,
	}
}

type interruptRequest struct {
	Action string `json:"action" validate:"required,action"`
}

// CheckoutCall заказ на оплату звонка. Сессия появится после подтверждения оплаты.
func (h *Handler) CheckoutCall(c *gin.Context) {
	var req checkoutRequest
	if !h.bind(c, &req, h.fail) {
		return
	}

	checkout, err := h.svc.Calls.Checkout(c.Request.Context(), currentUser(c), req.ExpertID, model.CallKind(req.CallType), req.Minutes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req confirmRequest
	if !h.bind(c, &req, h.fail) {
		return
	}

	result, err := h.svc.Payments.Confirm(c.Request.Context(), currentUser(c).ID, req.confirmation())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CallHistory(c *gin.Context) {
	calls, err := h.svc.Calls.History(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

func (h *Handler) IncomingCalls(c *gin.Context) {
	calls, err := h.svc.Calls.Incoming(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

func (h *Handler) GetCall(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	session, err := h.svc.Calls.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) AcceptCall(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	session, ticket, err := h.svc.Calls.Accept(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "ticket": ticket})
}

func (h *Handler) JoinCall(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	ticket, err := h.svc.Calls.Join(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *Handler) EndCall(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	session, err := h.svc.Calls.End(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) CancelCall(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	session, err := h.svc.Calls.Cancel(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// InterruptCall шаг в сценарии обрыва: drop, rejoin, done, confirm, dismiss
func (h *Handler) InterruptCall(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req interruptRequest
	if !h.bind(c, &req, h.fail) {
		return
	}

	result, err := h.svc.Calls.Interrupt(c.Request.Context(), currentUser(c).ID, id, callflow.Action(req.Action))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
