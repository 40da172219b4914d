// Package payment абстрагирует платёжного провайдера. Виджет оплаты работает на
// клиенте; сервер создаёт заказ и проверяет подтверждение, которое вернул виджет.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrCancelled         = errors.New("payment cancelled by user")
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrNotCaptured       = errors.New("payment not captured")
	ErrInvalidRequest    = errors.New("invalid payment request")
)

type OrderRequest struct {
	Amount        int64 // минорные единицы
	Currency      string
	Description   string
	ReferenceID   uuid.UUID // id сессии звонка или записи
	CustomerEmail string
	CustomerName  string
}

func (r OrderRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.Join(ErrInvalidRequest, errors.New("amount must be positive"))
	}
	if len(r.Currency) != 3 {
		return errors.Join(ErrInvalidRequest, errors.New("currency must be a 3-letter code"))
	}
	if r.ReferenceID == uuid.Nil {
		return errors.Join(ErrInvalidRequest, errors.New("reference id is required"))
	}
	return nil
}

// Order то, что нужно клиентскому виджету для открытия оплаты
type Order struct {
	Provider     string `json:"provider"`
	OrderID      string `json:"order_id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	KeyID        string `json:"key_id,omitempty"`        // razorpay: публичный ключ
	ClientSecret string `json:"client_secret,omitempty"` // stripe: секрет PaymentIntent
}

// Confirmation ответ виджета после оплаты или закрытия окна
type Confirmation struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Cancelled bool   `json:"cancelled"`
	Reason    string `json:"reason,omitempty"`
}

type Receipt struct {
	Provider  string
	OrderID   string
	PaymentID string
}

// Gateway платёжный провайдер
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifyPayment(ctx context.Context, conf Confirmation) (*Receipt, error)
}
