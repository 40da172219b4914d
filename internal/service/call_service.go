package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/callflow"
	"github.com/Freeeeeet/wellness_api/internal/calltransport"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/payment"
	"github.com/Freeeeeet/wellness_api/internal/repository"
)

const (
	MinCallMinutes  = 5
	MaxCallMinutes  = 120
	TestCallMinutes = 5

	// DefaultPendingTimeout сколько ждём ответа эксперта до автоотмены
	DefaultPendingTimeout = 10 * time.Minute
)

type CallConfig struct {
	PendingTimeout  time.Duration
	AllowTestCalls  bool
	DefaultCurrency string
}

type CallQuote struct {
	ExpertID      uuid.UUID      `json:"expert_id"`
	Kind          model.CallKind `json:"call_type"`
	Minutes       int            `json:"minutes"`
	RatePerMinute int64          `json:"rate_per_minute"`
	Cost          int64          `json:"cost"`
	Currency      string         `json:"currency"`
}

// CallCheckout заказ на оплату звонка; сессия ещё не создана
type CallCheckout struct {
	SessionID uuid.UUID      `json:"session_id"`
	Quote     CallQuote      `json:"quote"`
	Order     *payment.Order `json:"order"`
}

// Interruption итог шага в дереве обрыва звонка
type Interruption struct {
	State   callflow.State            `json:"state"`
	Ticket  *calltransport.JoinTicket `json:"ticket,omitempty"`
	Session *model.CallSession        `json:"session,omitempty"`
}

type CallService struct {
	users     UserStore
	calls     CallStore
	payments  PaymentStore
	processor *payment.Processor
	transport calltransport.Transport
	presence  *PresenceService
	flows     *callflow.Manager
	publisher events.Publisher
	cfg       CallConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewCallService(
	users UserStore,
	calls CallStore,
	payments PaymentStore,
	processor *payment.Processor,
	transport calltransport.Transport,
	presence *PresenceService,
	flows *callflow.Manager,
	publisher events.Publisher,
	cfg CallConfig,
	logger *zap.Logger,
) *CallService {
	if cfg.PendingTimeout <= 0 {
		cfg.PendingTimeout = DefaultPendingTimeout
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "INR"
	}
	return &CallService{
		users:     users,
		calls:     calls,
		payments:  payments,
		processor: processor,
		transport: transport,
		presence:  presence,
		flows:     flows,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Quote считает стоимость звонка без побочных эффектов
func (s *CallService) Quote(ctx context.Context, expertID uuid.UUID, kind model.CallKind, minutes int) (*CallQuote, error) {
	const op = "call.quote"

	if !kind.Valid() {
		return nil, apperr.Validation(op, "call_type must be video or voice")
	}
	if minutes < MinCallMinutes || minutes > MaxCallMinutes {
		return nil, apperr.Validation(op, "duration must be between 5 and 120 minutes")
	}

	expert, err := s.activeExpert(ctx, op, expertID)
	if err != nil {
		return nil, err
	}
	if expert.RatePerMinute <= 0 {
		return nil, apperr.Validation(op, "expert has no rate configured")
	}

	return &CallQuote{
		ExpertID:      expert.ID,
		Kind:          kind,
		Minutes:       minutes,
		RatePerMinute: expert.RatePerMinute,
		Cost:          model.ComputeCost(expert.RatePerMinute, minutes),
		Currency:      s.currencyOf(expert),
	}, nil
}

// Checkout создаёт заказ у платёжного провайдера. Сессия появится только
// после подтверждения оплаты (PaymentService.Confirm).
func (s *CallService) Checkout(ctx context.Context, user *model.User, expertID uuid.UUID, kind model.CallKind, minutes int) (*CallCheckout, error) {
	const op = "call.checkout"

	if user.ID == expertID {
		return nil, apperr.Validation(op, "cannot call yourself")
	}

	quote, err := s.Quote(ctx, expertID, kind, minutes)
	if err != nil {
		return nil, err
	}

	online, err := s.presence.IsOnline(ctx, expertID)
	if err != nil {
		return nil, err
	}
	if !online {
		return nil, apperr.Conflict(op, "expert is not available right now")
	}

	sessionID := uuid.New()
	order, err := s.processor.Checkout(ctx, payment.OrderRequest{
		Amount:        quote.Cost,
		Currency:      quote.Currency,
		Description:   "Consultation call",
		ReferenceID:   sessionID,
		CustomerEmail: user.Email,
		CustomerName:  user.FullName,
	})
	if err != nil {
		if errors.Is(err, payment.ErrInvalidRequest) {
			return nil, apperr.Wrap(apperr.KindValidation, op, err)
		}
		return nil, apperr.Network(op, err)
	}

	p := &model.Payment{
		UserID:          user.ID,
		ExpertID:        expertID,
		Purpose:         model.PaymentPurposeCall,
		ReferenceID:     sessionID,
		Provider:        order.Provider,
		OrderID:         order.OrderID,
		Amount:          quote.Cost,
		Currency:        quote.Currency,
		Status:          model.PaymentStatusCreated,
		CallKind:        &quote.Kind,
		DurationMinutes: &quote.Minutes,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, classify(op, err)
	}

	s.logger.Info("Call checkout created",
		zap.String("session_id", sessionID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("expert_id", expertID.String()),
		zap.String("order_id", order.OrderID),
		zap.Int64("cost", quote.Cost),
	)

	return &CallCheckout{SessionID: sessionID, Quote: *quote, Order: order}, nil
}

// confirmPayment завершает оплату звонка: сессия создаётся только в OnSuccess
func (s *CallService) confirmPayment(ctx context.Context, p *model.Payment, conf payment.Confirmation) (*model.CallSession, error) {
	const op = "call.confirm_payment"

	if p.CallKind == nil || p.DurationMinutes == nil {
		return nil, apperr.Internal(op, errors.New("payment has no call intent"))
	}

	var (
		session  *model.CallSession
		captured bool
	)
	err := s.processor.Complete(ctx, conf, payment.Callbacks{
		OnSuccess: func(ctx context.Context, receipt payment.Receipt) error {
			captured = true
			paymentID := receipt.PaymentID
			c := &model.CallSession{
				ID:              p.ReferenceID,
				UserID:          p.UserID,
				ExpertID:        p.ExpertID,
				Kind:            *p.CallKind,
				Status:          model.CallStatusPending,
				DurationMinutes: *p.DurationMinutes,
				Cost:            p.Amount,
				Currency:        p.Currency,
				PaymentID:       &paymentID,
			}
			if err := s.calls.CreatePaid(ctx, c, p.OrderID); err != nil {
				return err
			}
			session = c
			return nil
		},
		OnFailure: func(ctx context.Context, cause error) {
			if err := s.payments.MarkFailed(ctx, p.OrderID, cause.Error()); err != nil && !errors.Is(err, repository.ErrStaleTransition) {
				s.logger.Error("Failed to mark call payment failed", zap.String("order_id", p.OrderID), zap.Error(err))
			}
		},
	})
	if err != nil {
		if !captured {
			return nil, apperr.Payment(op, err)
		}
		return nil, classify(op, err)
	}

	s.publish(ctx, events.Event{
		Type:      events.CallRequested,
		ExpertID:  session.ExpertID,
		UserID:    session.UserID,
		SessionID: &session.ID,
		CallKind:  string(session.Kind),
		Minutes:   session.DurationMinutes,
		Amount:    session.Cost,
		Currency:  session.Currency,
	})

	s.logger.Info("Call session created after payment",
		zap.String("session_id", session.ID.String()),
		zap.String("expert_id", session.ExpertID.String()),
		zap.Int64("cost", session.Cost),
	)
	return session, nil
}

// Accept эксперт принимает звонок: pending -> active
func (s *CallService) Accept(ctx context.Context, expertID, sessionID uuid.UUID) (*model.CallSession, *calltransport.JoinTicket, error) {
	const op = "call.accept"

	session, err := s.participantSession(ctx, op, expertID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.ExpertID != expertID {
		return nil, nil, apperr.Forbidden(op, "only the expert can accept the call")
	}
	if !session.Status.CanTransitionTo(model.CallStatusActive) {
		return nil, nil, apperr.Conflict(op, "call cannot be accepted in status "+string(session.Status))
	}

	active, err := s.calls.Activate(ctx, sessionID, s.now().UTC())
	if err != nil {
		return nil, nil, classify(op, err)
	}

	ticket, err := s.ticketFor(ctx, active, expertID)
	if err != nil {
		// сессия уже active: эксперт может получить билет повторно через Join
		s.logger.Error("Failed to issue join ticket",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		return active, nil, apperr.Network(op, err)
	}

	if _, err := s.presence.Set(ctx, expertID, model.PresenceBusy); err != nil {
		s.logger.Warn("Failed to mark expert busy", zap.String("expert_id", expertID.String()), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:      events.CallAccepted,
		ExpertID:  active.ExpertID,
		UserID:    active.UserID,
		SessionID: &active.ID,
		CallKind:  string(active.Kind),
		StartsAt:  active.StartTime,
	})

	s.logger.Info("Call accepted",
		zap.String("session_id", sessionID.String()),
		zap.String("expert_id", expertID.String()),
	)
	return active, ticket, nil
}

// Join билет на вход в канал активного звонка для любой из сторон
func (s *CallService) Join(ctx context.Context, participantID, sessionID uuid.UUID) (*calltransport.JoinTicket, error) {
	const op = "call.join"

	session, err := s.participantSession(ctx, op, participantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.CallStatusActive {
		return nil, apperr.Conflict(op, "call is not active")
	}

	ticket, err := s.ticketFor(ctx, session, participantID)
	if err != nil {
		return nil, apperr.Network(op, err)
	}
	return ticket, nil
}

// End любая из сторон завершает активный звонок
func (s *CallService) End(ctx context.Context, participantID, sessionID uuid.UUID) (*model.CallSession, error) {
	const op = "call.end"

	session, err := s.participantSession(ctx, op, participantID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(model.CallStatusEnded) {
		return nil, apperr.Conflict(op, "call cannot be ended in status "+string(session.Status))
	}

	ended, err := s.endActive(ctx, session, s.now().UTC())
	if err != nil {
		return nil, classify(op, err)
	}
	s.flows.ClearSession(sessionID)
	return ended, nil
}

// Cancel отмена звонка до ответа эксперта (пользователь передумал или эксперт отклонил)
func (s *CallService) Cancel(ctx context.Context, participantID, sessionID uuid.UUID) (*model.CallSession, error) {
	const op = "call.cancel"

	session, err := s.participantSession(ctx, op, participantID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(model.CallStatusCancelled) {
		return nil, apperr.Conflict(op, "call cannot be cancelled in status "+string(session.Status))
	}

	cancelled, err := s.calls.Cancel(ctx, sessionID)
	if err != nil {
		return nil, classify(op, err)
	}

	s.afterCancel(ctx, cancelled, "cancelled by participant")
	return cancelled, nil
}

// Interrupt шаг в дереве обрыва звонка (drop, rejoin, done, confirm, dismiss)
func (s *CallService) Interrupt(ctx context.Context, participantID, sessionID uuid.UUID, action callflow.Action) (*Interruption, error) {
	const op = "call.interrupt"

	session, err := s.participantSession(ctx, op, participantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.CallStatusActive {
		return nil, apperr.Conflict(op, "call is not active")
	}

	role := callflow.RoleUser
	if session.ExpertID == participantID {
		role = callflow.RoleExpert
	}

	fx := &interruptEffects{svc: s, session: session, participantID: participantID}
	var state callflow.State
	err = s.flows.With(sessionID, participantID, role, func(f *callflow.Flow) error {
		var applyErr error
		state, applyErr = f.Apply(ctx, action, fx)
		return applyErr
	})
	if err != nil {
		if errors.Is(err, callflow.ErrInvalidAction) {
			return nil, apperr.Wrap(apperr.KindValidation, op, err)
		}
		return nil, classify(op, err)
	}

	if state == callflow.StateEnded {
		s.flows.ClearSession(sessionID)
	}

	res := &Interruption{State: state, Ticket: fx.ticket, Session: session}
	if fx.ended != nil {
		res.Session = fx.ended
	}
	return res, nil
}

// interruptEffects эффекты переходов для одного участника
type interruptEffects struct {
	svc           *CallService
	session       *model.CallSession
	participantID uuid.UUID

	ticket *calltransport.JoinTicket
	ended  *model.CallSession
}

func (fx *interruptEffects) Rejoin(ctx context.Context) error {
	ticket, err := fx.svc.ticketFor(ctx, fx.session, fx.participantID)
	if err != nil {
		return err
	}
	fx.ticket = ticket
	return nil
}

func (fx *interruptEffects) EndSession(ctx context.Context) error {
	ended, err := fx.svc.endActive(ctx, fx.session, fx.svc.now().UTC())
	if err != nil {
		return err
	}
	fx.ended = ended
	return nil
}

// RequestTestCall бесплатная pending-сессия для проверки связи (только вне production)
func (s *CallService) RequestTestCall(ctx context.Context, userID, expertID uuid.UUID, kind model.CallKind) (*model.CallSession, error) {
	const op = "call.test_request"

	if !s.cfg.AllowTestCalls {
		return nil, apperr.Forbidden(op, "test calls are disabled")
	}
	if !kind.Valid() {
		return nil, apperr.Validation(op, "call_type must be video or voice")
	}
	if userID == expertID {
		return nil, apperr.Validation(op, "cannot call yourself")
	}

	expert, err := s.activeExpert(ctx, op, expertID)
	if err != nil {
		return nil, err
	}

	session := &model.CallSession{
		UserID:          userID,
		ExpertID:        expert.ID,
		Kind:            kind,
		Status:          model.CallStatusPending,
		DurationMinutes: TestCallMinutes,
		Cost:            0,
		Currency:        s.currencyOf(expert),
		IsTest:          true,
	}
	if err := s.calls.Create(ctx, session); err != nil {
		return nil, classify(op, err)
	}

	s.publish(ctx, events.Event{
		Type:      events.CallRequested,
		ExpertID:  session.ExpertID,
		UserID:    session.UserID,
		SessionID: &session.ID,
		CallKind:  string(session.Kind),
		Minutes:   session.DurationMinutes,
		IsTest:    true,
	})

	s.logger.Info("Test call requested",
		zap.String("session_id", session.ID.String()),
		zap.String("expert_id", expertID.String()),
	)
	return session, nil
}

// Get сессия, видимая только участникам
func (s *CallService) Get(ctx context.Context, participantID, sessionID uuid.UUID) (*model.CallSession, error) {
	return s.participantSession(ctx, "call.get", participantID, sessionID)
}

// History звонки пользователя, новые сверху
func (s *CallService) History(ctx context.Context, userID uuid.UUID) ([]*model.CallSession, error) {
	calls, err := s.calls.ListByUser(ctx, userID, 50)
	if err != nil {
		return nil, classify("call.history", err)
	}
	return calls, nil
}

// Incoming входящие и текущие звонки эксперта
func (s *CallService) Incoming(ctx context.Context, expertID uuid.UUID) ([]*model.CallSession, error) {
	calls, err := s.calls.ListByExpert(ctx, expertID, []model.CallStatus{model.CallStatusPending, model.CallStatusActive})
	if err != nil {
		return nil, classify("call.incoming", err)
	}
	return calls, nil
}

// SweepStalePending отменяет звонки, на которые эксперт не ответил вовремя
func (s *CallService) SweepStalePending(ctx context.Context) (int, error) {
	stale, err := s.calls.ListStalePending(ctx, s.now().Add(-s.cfg.PendingTimeout))
	if err != nil {
		return 0, classify("call.sweep_pending", err)
	}

	cancelled := 0
	for _, c := range stale {
		updated, err := s.calls.Cancel(ctx, c.ID)
		if err != nil {
			if !errors.Is(err, repository.ErrStaleTransition) {
				s.logger.Error("Failed to cancel stale call", zap.String("session_id", c.ID.String()), zap.Error(err))
			}
			continue
		}
		s.afterCancel(ctx, updated, "expert did not answer")
		cancelled++
	}
	return cancelled, nil
}

// EndExpired завершает активные звонки, у которых истекло оплаченное время
func (s *CallService) EndExpired(ctx context.Context) (int, error) {
	expired, err := s.calls.ListExpired(ctx, s.now())
	if err != nil {
		return 0, classify("call.end_expired", err)
	}

	ended := 0
	for _, c := range expired {
		at := s.now().UTC()
		if exp := c.ExpiresAt(); exp != nil && exp.Before(at) {
			at = *exp
		}
		if _, err := s.endActive(ctx, c, at); err != nil {
			if !errors.Is(err, repository.ErrStaleTransition) {
				s.logger.Error("Failed to end expired call", zap.String("session_id", c.ID.String()), zap.Error(err))
			}
			continue
		}
		s.flows.ClearSession(c.ID)
		ended++
	}
	return ended, nil
}

// endActive active -> ended, освобождает эксперта и рассылает событие
func (s *CallService) endActive(ctx context.Context, session *model.CallSession, at time.Time) (*model.CallSession, error) {
	ended, err := s.calls.End(ctx, session.ID, at)
	if err != nil {
		s.logger.Error("Failed to end call",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
		return nil, err
	}

	if p, err := s.presence.Get(ctx, ended.ExpertID); err == nil && p.Status == model.PresenceBusy {
		if _, err := s.presence.Set(ctx, ended.ExpertID, model.PresenceAvailable); err != nil {
			s.logger.Warn("Failed to release expert", zap.String("expert_id", ended.ExpertID.String()), zap.Error(err))
		}
	}

	ev := events.Event{
		Type:      events.CallEnded,
		ExpertID:  ended.ExpertID,
		UserID:    ended.UserID,
		SessionID: &ended.ID,
		CallKind:  string(ended.Kind),
	}
	if ended.ActualDurationSeconds != nil {
		ev.Minutes = (*ended.ActualDurationSeconds + 59) / 60
	}
	s.publish(ctx, ev)

	s.logger.Info("Call ended",
		zap.String("session_id", ended.ID.String()),
		zap.Intp("actual_duration", ended.ActualDurationSeconds),
	)
	return ended, nil
}

func (s *CallService) afterCancel(ctx context.Context, c *model.CallSession, reason string) {
	s.publish(ctx, events.Event{
		Type:      events.CallCancelled,
		ExpertID:  c.ExpertID,
		UserID:    c.UserID,
		SessionID: &c.ID,
		Text:      reason,
		IsTest:    c.IsTest,
	})

	s.logger.Info("Call cancelled",
		zap.String("session_id", c.ID.String()),
		zap.String("reason", reason),
	)
}

func (s *CallService) ticketFor(ctx context.Context, session *model.CallSession, participantID uuid.UUID) (*calltransport.JoinTicket, error) {
	return s.transport.Join(ctx, calltransport.JoinRequest{
		Channel:       session.ChannelName(),
		ParticipantID: participantID,
		Role:          calltransport.RolePublisher,
		Video:         session.Kind == model.CallKindVideo,
	})
}

func (s *CallService) participantSession(ctx context.Context, op string, participantID, sessionID uuid.UUID) (*model.CallSession, error) {
	session, err := s.calls.GetByID(ctx, sessionID)
	if err != nil {
		return nil, classify(op, err)
	}
	if session == nil {
		return nil, apperr.NotFound(op, "call session not found")
	}
	if !session.IsParticipant(participantID) {
		return nil, apperr.Forbidden(op, "not a participant of this call")
	}
	return session, nil
}

func (s *CallService) activeExpert(ctx context.Context, op string, expertID uuid.UUID) (*model.User, error) {
	expert, err := s.users.GetByID(ctx, expertID)
	if err != nil {
		return nil, classify(op, err)
	}
	if expert == nil || !expert.IsExpert() {
		return nil, apperr.NotFound(op, "expert not found")
	}
	if !expert.IsActive {
		return nil, apperr.Conflict(op, "expert is not accepting calls")
	}
	return expert, nil
}

func (s *CallService) currencyOf(expert *model.User) string {
	if expert.Currency != "" {
		return expert.Currency
	}
	return s.cfg.DefaultCurrency
}

func (s *CallService) publish(ctx context.Context, ev events.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now().UTC()
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish call event",
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}
