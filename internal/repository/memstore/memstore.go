// Package memstore хранилища в памяти с той же семантикой условных переходов,
// что у pgx-репозиториев. Используются в тестах сервисов и HTTP API.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/repository"
)

type Users struct {
	mu sync.Mutex
	m  map[uuid.UUID]*model.User
}

func NewUsers() *Users { return &Users{m: make(map[uuid.UUID]*model.User)} }

func (f *Users) Add(u *model.User) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.m[u.ID] = u
	return u
}

func (f *Users) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.m[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *Users) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.m {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *Users) ListExperts(_ context.Context, activeOnly bool) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.User
	for _, u := range f.m {
		if u.IsExpert() && (!activeOnly || u.IsActive) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *Users) UpdateExpert(_ context.Context, id uuid.UUID, upd model.ExpertUpdate) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.m[id]
	if !ok || !u.IsExpert() {
		return nil, repository.ErrNotFound
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.RatePerMinute != nil {
		u.RatePerMinute = *upd.RatePerMinute
	}
	if upd.Currency != nil {
		u.Currency = *upd.Currency
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.TelegramID != nil {
		u.TelegramID = upd.TelegramID
	}
	cp := *u
	return &cp, nil
}

func (f *Users) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := f.m[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

type Windows struct {
	mu sync.Mutex
	m  map[uuid.UUID]*model.ExpertAvailability
}

func NewWindows() *Windows {
	return &Windows{m: make(map[uuid.UUID]*model.ExpertAvailability)}
}

func (f *Windows) Create(_ context.Context, a *model.ExpertAvailability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uuid.New()
	for i := range a.Slots {
		a.Slots[i].ID = uuid.New()
		a.Slots[i].AvailabilityID = a.ID
	}
	cp := *a
	cp.Slots = append([]model.TimeSlot(nil), a.Slots...)
	f.m[a.ID] = &cp
	return nil
}

func (f *Windows) ListByExpert(_ context.Context, expertID uuid.UUID, from time.Time) ([]*model.ExpertAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ExpertAvailability
	for _, a := range f.m {
		if a.ExpertID == expertID && !a.EndDate.Before(model.DateOf(from)) {
			cp := *a
			cp.Slots = append([]model.TimeSlot(nil), a.Slots...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Windows) GetSlot(_ context.Context, slotID uuid.UUID) (*model.TimeSlot, *model.ExpertAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.m {
		for _, s := range a.Slots {
			if s.ID == slotID {
				slot := s
				win := *a
				win.Slots = nil
				return &slot, &win, nil
			}
		}
	}
	return nil, nil, nil
}

func (f *Windows) Delete(_ context.Context, id, expertID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.m[id]
	if !ok || a.ExpertID != expertID {
		return repository.ErrNotFound
	}
	delete(f.m, id)
	return nil
}

func (f *Windows) SetBooked(slotID uuid.UUID, booked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.m {
		if a.Kind != model.AvailabilityDateRange {
			continue
		}
		for i := range a.Slots {
			if a.Slots[i].ID == slotID {
				a.Slots[i].IsBooked = booked
			}
		}
	}
}

type Appointments struct {
	mu       sync.Mutex
	m        map[uuid.UUID]*model.Appointment
	windows  *Windows
	payments *Payments
}

func NewAppointments(windows *Windows, payments *Payments) *Appointments {
	return &Appointments{m: make(map[uuid.UUID]*model.Appointment), windows: windows, payments: payments}
}

func (f *Appointments) CreateIfAvailable(ctx context.Context, appt *model.Appointment) error {
	slot, win, _ := f.windows.GetSlot(ctx, appt.TimeSlotID)
	if slot == nil || win.ExpertID != appt.ExpertID {
		return repository.ErrNotFound
	}
	if !win.Covers(appt.AppointmentDate) || !slot.MatchesDate(appt.AppointmentDate) || slot.IsBooked {
		return repository.ErrSlotTaken
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.m {
		if a.TimeSlotID == appt.TimeSlotID && a.AppointmentDate.Equal(model.DateOf(appt.AppointmentDate)) && a.Status.IsActive() {
			return repository.ErrSlotTaken
		}
	}

	appt.ID = uuid.New()
	appt.AppointmentDate = model.DateOf(appt.AppointmentDate)
	appt.StartTime, appt.EndTime = slot.StartTime, slot.EndTime
	appt.Status = model.AppointmentPending
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	cp := *appt
	f.m[appt.ID] = &cp
	f.windows.SetBooked(slot.ID, true)
	return nil
}

func (f *Appointments) IsTimeSlotAvailable(_ context.Context, slotID uuid.UUID, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.m {
		if a.TimeSlotID == slotID && a.AppointmentDate.Equal(model.DateOf(date)) && a.Status.IsActive() {
			return false, nil
		}
	}
	return true, nil
}

func (f *Appointments) GetByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.m[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *Appointments) ListByExpert(_ context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.m {
		if a.ExpertID == expertID && !a.AppointmentDate.Before(model.DateOf(from)) && !a.AppointmentDate.After(model.DateOf(to)) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Appointments) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.m {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Appointments) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.AppointmentStatus) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.m[id]
	if !ok || a.Status != from {
		return nil, repository.ErrStaleTransition
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	if to == model.AppointmentCancelled {
		f.windows.SetBooked(a.TimeSlotID, false)
	}
	cp := *a
	return &cp, nil
}

func (f *Appointments) ConfirmPaid(_ context.Context, id uuid.UUID, orderID, paymentID string) (*model.Appointment, error) {
	if err := f.payments.MarkPaid(orderID, paymentID); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.m[id]
	if !ok || a.Status != model.AppointmentPending {
		return nil, repository.ErrStaleTransition
	}
	a.Status = model.AppointmentConfirmed
	cp := *a
	return &cp, nil
}

func (f *Appointments) SetCalendarEvent(_ context.Context, id uuid.UUID, eventID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.m[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.CalendarEventID = eventID
	return nil
}

func (f *Appointments) ListDueForCompletion(_ context.Context, now time.Time) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.m {
		if a.Status == model.AppointmentConfirmed && !a.EndsAt().After(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Appointments) ListStalePending(_ context.Context, before time.Time) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.m {
		if a.Status == model.AppointmentPending && a.CreatedAt.Before(before) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Appointments) Backdate(id uuid.UUID, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[id].CreatedAt = f.m[id].CreatedAt.Add(-d)
}

type Calls struct {
	mu       sync.Mutex
	m        map[uuid.UUID]*model.CallSession
	payments *Payments
}

func NewCalls(payments *Payments) *Calls {
	return &Calls{m: make(map[uuid.UUID]*model.CallSession), payments: payments}
}

func (f *Calls) Create(_ context.Context, c *model.CallSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.m[c.ID] = &cp
	return nil
}

func (f *Calls) CreatePaid(ctx context.Context, c *model.CallSession, orderID string) error {
	paymentID := ""
	if c.PaymentID != nil {
		paymentID = *c.PaymentID
	}
	if err := f.payments.MarkPaid(orderID, paymentID); err != nil {
		return err
	}
	return f.Create(ctx, c)
}

func (f *Calls) GetByID(_ context.Context, id uuid.UUID) (*model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *Calls) transition(id uuid.UUID, from, to model.CallStatus, apply func(c *model.CallSession)) (*model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[id]
	if !ok || c.Status != from {
		return nil, repository.ErrStaleTransition
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	if apply != nil {
		apply(c)
	}
	cp := *c
	return &cp, nil
}

func (f *Calls) Activate(_ context.Context, id uuid.UUID, at time.Time) (*model.CallSession, error) {
	return f.transition(id, model.CallStatusPending, model.CallStatusActive, func(c *model.CallSession) {
		if c.StartTime == nil {
			c.StartTime = &at
		}
	})
}

func (f *Calls) End(_ context.Context, id uuid.UUID, at time.Time) (*model.CallSession, error) {
	return f.transition(id, model.CallStatusActive, model.CallStatusEnded, func(c *model.CallSession) {
		c.EndTime = &at
		secs := int(at.Sub(*c.StartTime).Seconds())
		c.ActualDurationSeconds = &secs
	})
}

func (f *Calls) Cancel(_ context.Context, id uuid.UUID) (*model.CallSession, error) {
	return f.transition(id, model.CallStatusPending, model.CallStatusCancelled, nil)
}

func (f *Calls) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.CallSession
	for _, c := range f.m {
		if c.UserID == userID && len(out) < limit {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Calls) ListByExpert(_ context.Context, expertID uuid.UUID, statuses []model.CallStatus) ([]*model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.CallSession
	for _, c := range f.m {
		if c.ExpertID != expertID {
			continue
		}
		for _, s := range statuses {
			if c.Status == s {
				cp := *c
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (f *Calls) ListStalePending(_ context.Context, before time.Time) ([]*model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.CallSession
	for _, c := range f.m {
		if c.Status == model.CallStatusPending && c.CreatedAt.Before(before) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Calls) ListExpired(_ context.Context, now time.Time) ([]*model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.CallSession
	for _, c := range f.m {
		if c.Status == model.CallStatusActive && c.ExpiresAt() != nil && !c.ExpiresAt().After(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Calls) Backdate(id uuid.UUID, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.m[id]
	c.CreatedAt = c.CreatedAt.Add(-d)
	if c.StartTime != nil {
		st := c.StartTime.Add(-d)
		c.StartTime = &st
	}
}

func (f *Calls) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.m)
}

type Payments struct {
	mu sync.Mutex
	m  map[string]*model.Payment
}

func NewPayments() *Payments { return &Payments{m: make(map[string]*model.Payment)} }

func (f *Payments) Create(_ context.Context, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	f.m[p.OrderID] = &cp
	return nil
}

func (f *Payments) GetByOrderID(_ context.Context, orderID string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[orderID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *Payments) MarkFailed(_ context.Context, orderID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[orderID]
	if !ok || p.Status != model.PaymentStatusCreated {
		return repository.ErrStaleTransition
	}
	p.Status = model.PaymentStatusFailed
	p.FailureReason = &reason
	return nil
}

func (f *Payments) MarkPaid(orderID, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[orderID]
	if !ok || p.Status != model.PaymentStatusCreated {
		return repository.ErrStaleTransition
	}
	p.Status = model.PaymentStatusPaid
	p.PaymentID = &paymentID
	return nil
}

func (f *Payments) Status(orderID string) model.PaymentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[orderID].Status
}

type Presence struct {
	mu sync.Mutex
	m  map[uuid.UUID]model.Presence
}

func NewPresence() *Presence { return &Presence{m: make(map[uuid.UUID]model.Presence)} }

func (f *Presence) Upsert(_ context.Context, p *model.Presence) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.m[p.ExpertID]
	if ok && cur.Status == p.Status {
		p.UpdatedAt = cur.UpdatedAt
		return false, nil
	}
	p.UpdatedAt = time.Now().UTC()
	f.m[p.ExpertID] = *p
	return true, nil
}

func (f *Presence) Get(_ context.Context, expertID uuid.UUID) (*model.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[expertID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *Presence) ListAll(_ context.Context) (map[uuid.UUID]model.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]model.Presence, len(f.m))
	for k, v := range f.m {
		out[k] = v
	}
	return out, nil
}

type Messages struct {
	mu sync.Mutex
	m  []*model.AwayMessage
}

func (f *Messages) Create(_ context.Context, m *model.AwayMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	cp := *m
	f.m = append(f.m, &cp)
	return nil
}

func (f *Messages) ListForExpert(_ context.Context, expertID uuid.UUID, unreadOnly bool) ([]*model.AwayMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.AwayMessage
	for _, m := range f.m {
		if m.ExpertID == expertID && (!unreadOnly || !m.IsRead()) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Messages) MarkRead(_ context.Context, expertID uuid.UUID, ids []uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	now := time.Now()
	n := 0
	for _, m := range f.m {
		if m.ExpertID == expertID && want[m.ID] && !m.IsRead() {
			m.ReadAt = &now
			n++
		}
	}
	return n, nil
}

func (f *Messages) UnreadCounts(_ context.Context) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]int)
	for _, m := range f.m {
		if !m.IsRead() {
			out[m.ExpertID]++
		}
	}
	return out, nil
}
