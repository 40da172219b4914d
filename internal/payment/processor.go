package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Callbacks вызываются ровно один из двух по итогу оплаты.
// Оплачиваемый ресурс (звонок, запись) создаётся или подтверждается только в OnSuccess.
type Callbacks struct {
	OnSuccess func(ctx context.Context, receipt Receipt) error
	OnFailure func(ctx context.Context, cause error)
}

type Processor struct {
	gateway Gateway
	logger  *zap.Logger
}

func NewProcessor(gateway Gateway, logger *zap.Logger) *Processor {
	return &Processor{
		gateway: gateway,
		logger:  logger,
	}
}

func (p *Processor) Provider() string {
	return p.gateway.Name()
}

// Checkout создаёт заказ у провайдера
func (p *Processor) Checkout(ctx context.Context, req OrderRequest) (*Order, error) {
	order, err := p.gateway.CreateOrder(ctx, req)
	if err != nil {
		p.logger.Error("Failed to create payment order",
			zap.String("provider", p.gateway.Name()),
			zap.String("reference_id", req.ReferenceID.String()),
			zap.Error(err))
		return nil, err
	}

	p.logger.Info("Payment order created",
		zap.String("provider", order.Provider),
		zap.String("order_id", order.OrderID),
		zap.String("reference_id", req.ReferenceID.String()),
		zap.Int64("amount", order.Amount),
		zap.String("currency", order.Currency))

	return order, nil
}

// Complete проверяет подтверждение и вызывает нужный callback.
// Ошибка OnSuccess возвращается как есть: деньги списаны, но ресурс не создан.
func (p *Processor) Complete(ctx context.Context, conf Confirmation, cb Callbacks) error {
	if cb.OnSuccess == nil || cb.OnFailure == nil {
		return errors.New("payment callbacks are required")
	}

	receipt, err := p.gateway.VerifyPayment(ctx, conf)
	if err != nil {
		p.logger.Warn("Payment not completed",
			zap.String("provider", p.gateway.Name()),
			zap.String("order_id", conf.OrderID),
			zap.Bool("cancelled", conf.Cancelled),
			zap.Error(err))
		cb.OnFailure(ctx, err)
		return err
	}

	if err := cb.OnSuccess(ctx, *receipt); err != nil {
		p.logger.Error("Payment captured but resource was not finalized",
			zap.String("provider", receipt.Provider),
			zap.String("order_id", receipt.OrderID),
			zap.String("payment_id", receipt.PaymentID),
			zap.Error(err))
		return fmt.Errorf("finalize after payment: %w", err)
	}

	p.logger.Info("Payment completed",
		zap.String("provider", receipt.Provider),
		zap.String("order_id", receipt.OrderID),
		zap.String("payment_id", receipt.PaymentID))

	return nil
}
