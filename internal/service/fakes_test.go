package service

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/breaker"
	"github.com/Freeeeeet/wellness_api/internal/calendar"
	"github.com/Freeeeeet/wellness_api/internal/callflow"
	"github.com/Freeeeeet/wellness_api/internal/calltransport"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/payment"
	"github.com/Freeeeeet/wellness_api/internal/presence"
	"github.com/Freeeeeet/wellness_api/internal/pubsub"
	"github.com/Freeeeeet/wellness_api/internal/repository/memstore"
	"github.com/Freeeeeet/wellness_api/internal/unread"
)

// harness все сервисы поверх фейков
type harness struct {
	users        *memstore.Users
	windows      *memstore.Windows
	appointments *memstore.Appointments
	calls        *memstore.Calls
	payments     *memstore.Payments
	presenceDB   *memstore.Presence
	messages     *memstore.Messages

	gateway   *payment.FakeGateway
	transport *calltransport.FakeTransport
	recorder  *events.Recorder
	hub       *pubsub.Hub[model.Presence]
	cache     *presence.MemoryCache
	syncer    *calendar.MemorySyncer
	tracker   *unread.Tracker
	flows     *callflow.Manager

	Availability *AvailabilityService
	Experts      *ExpertService
	Presence     *PresenceService
	Calls        *CallService
	Appointments *AppointmentService
	Payments     *PaymentService
	Messages     *MessageService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := zap.NewNop()
	h := &harness{
		users:     memstore.NewUsers(),
		windows:   memstore.NewWindows(),
		payments:  memstore.NewPayments(),
		messages:  &memstore.Messages{},
		gateway:   payment.NewFakeGateway(),
		transport: &calltransport.FakeTransport{},
		recorder:  &events.Recorder{},
		hub:       pubsub.NewHub[model.Presence](16),
		syncer:    &calendar.MemorySyncer{},
		flows:     callflow.NewManager(),
	}
	t.Cleanup(h.hub.Close)

	h.appointments = memstore.NewAppointments(h.windows, h.payments)
	h.calls = memstore.NewCalls(h.payments)
	h.presenceDB = memstore.NewPresence()
	h.cache = presence.NewMemoryCache(h.hub)
	h.tracker = unread.NewTracker(h.messages, breaker.New(breaker.DefaultThreshold, breaker.DefaultWindow), logger)

	processor := payment.NewProcessor(h.gateway, logger)

	h.Availability = NewAvailabilityService(h.users, h.windows, h.appointments, logger)
	h.Experts = NewExpertService(h.users, h.presenceDB, logger)
	h.Presence = NewPresenceService(h.presenceDB, h.cache, h.users, h.recorder, logger)
	h.Calls = NewCallService(h.users, h.calls, h.payments, processor, h.transport, h.Presence, h.flows,
		h.recorder, CallConfig{AllowTestCalls: true}, logger)
	h.Appointments = NewAppointmentService(h.users, h.windows, h.appointments, h.payments, processor,
		h.syncer, h.recorder, logger)
	h.Payments = NewPaymentService(h.payments, h.Calls, h.Appointments)
	h.Messages = NewMessageService(h.messages, h.users, h.tracker, h.recorder, logger)
	return h
}

func (h *harness) expert(rate int64) *model.User {
	return h.users.Add(&model.User{
		Email:         uuid.NewString() + "@experts.test",
		FullName:      "Dr. Meera",
		Role:          model.RoleExpert,
		RatePerMinute: rate,
		Currency:      "INR",
		IsActive:      true,
	})
}

func (h *harness) client() *model.User {
	return h.users.Add(&model.User{
		Email:    uuid.NewString() + "@clients.test",
		FullName: "Arjun",
		Role:     model.RoleUser,
		IsActive: true,
	})
}

// paid подтверждение, которое фейковый шлюз примет
func paid(orderID string) payment.Confirmation {
	return payment.Confirmation{OrderID: orderID, PaymentID: "pay_" + orderID, Signature: payment.FakeSignature(orderID)}
}
