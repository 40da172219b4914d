package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeGateway провайдер без сети: для тестов и локальной разработки (PAYMENT_PROVIDER=fake).
// Подтверждение считается успешным, если подпись равна FakeSignature(order_id).
type FakeGateway struct {
	mu       sync.Mutex
	seq      int
	orders   map[string]OrderRequest
	declined map[string]bool
	OrderErr error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		orders:   make(map[string]OrderRequest),
		declined: make(map[string]bool),
	}
}

func (g *FakeGateway) Name() string { return "fake" }

func (g *FakeGateway) CreateOrder(_ context.Context, req OrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.OrderErr != nil {
		return nil, g.OrderErr
	}

	g.seq++
	id := fmt.Sprintf("order_fake_%d", g.seq)
	g.orders[id] = req

	return &Order{
		Provider: g.Name(),
		OrderID:  id,
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
		KeyID:    "fake_key",
	}, nil
}

// Decline следующая проверка этого заказа завершится отказом
func (g *FakeGateway) Decline(orderID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.declined[orderID] = true
}

func (g *FakeGateway) VerifyPayment(_ context.Context, conf Confirmation) (*Receipt, error) {
	if conf.Cancelled {
		return nil, ErrCancelled
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.orders[conf.OrderID]; !ok {
		return nil, fmt.Errorf("%w: unknown order %s", ErrInvalidRequest, conf.OrderID)
	}
	if g.declined[conf.OrderID] {
		return nil, ErrNotCaptured
	}
	if conf.Signature != FakeSignature(conf.OrderID) {
		return nil, ErrSignatureMismatch
	}

	paymentID := conf.PaymentID
	if paymentID == "" {
		paymentID = "pay_" + strings.TrimPrefix(conf.OrderID, "order_")
	}

	return &Receipt{Provider: g.Name(), OrderID: conf.OrderID, PaymentID: paymentID}, nil
}

func FakeSignature(orderID string) string {
	return "sig_" + orderID
}
