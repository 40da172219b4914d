package payment

import (
	"context"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// orderAPI часть клиента razorpay-go, которой мы пользуемся
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type RazorpayGateway struct {
	keyID     string
	keySecret string
	orders    orderAPI
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		orders:    client.Order,
	}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": strings.ToUpper(req.Currency),
		"receipt":  req.ReferenceID.String(),
		"notes": map[string]interface{}{
			"reference_id": req.ReferenceID.String(),
			"description":  req.Description,
		},
	}

	resp, err := g.orders.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	orderID, _ := resp["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay create order: response without id")
	}

	return &Order{
		Provider: g.Name(),
		OrderID:  orderID,
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
		KeyID:    g.keyID,
	}, nil
}

// VerifyPayment проверяет подпись, которую checkout вернул вместе с order_id и payment_id
func (g *RazorpayGateway) VerifyPayment(ctx context.Context, conf Confirmation) (*Receipt, error) {
	if conf.Cancelled {
		return nil, ErrCancelled
	}
	if conf.OrderID == "" || conf.PaymentID == "" || conf.Signature == "" {
		return nil, fmt.Errorf("%w: order_id, payment_id and signature are required", ErrInvalidRequest)
	}

	attrs := map[string]interface{}{
		"razorpay_order_id":   conf.OrderID,
		"razorpay_payment_id": conf.PaymentID,
	}
	if !utils.VerifyPaymentSignature(attrs, conf.Signature, g.keySecret) {
		return nil, ErrSignatureMismatch
	}

	return &Receipt{
		Provider:  g.Name(),
		OrderID:   conf.OrderID,
		PaymentID: conf.PaymentID,
	}, nil
}
