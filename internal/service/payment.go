package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"go-telehealth-booking/config"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/sirupsen/logrus"
)

// ErrGatewayOrder is returned when the payment gateway refuses an order.
var ErrGatewayOrder = errors.New("payment gateway order creation failed")

// PaymentGateway creates orders with the upstream payment provider.
// No appointment exists while an order is outstanding; the order handle is
// what the client pays against.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountSubunits int64, currency, receipt string, notes map[string]interface{}) (string, error)
}

type razorpayGateway struct {
	client *razorpay.Client
	log    *logrus.Logger
}

func NewRazorpayGateway(cfg config.PaymentConfig, log *logrus.Logger) PaymentGateway {
	return &razorpayGateway{
		client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		log:    log,
	}
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amountSubunits int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"amount":   amountSubunits,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		g.log.Warnf("Razorpay order creation failed: %+v", err)
		return "", fmt.Errorf("%w: %v", ErrGatewayOrder, err)
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		g.log.Warnf("Razorpay order response missing id: %+v", body)
		return "", ErrGatewayOrder
	}

	return orderID, nil
}

// VerifyPaymentSignature recomputes the gateway signature for a captured
// payment and compares it in constant time. The signed payload is
// "<orderID>|<paymentID>" keyed with the gateway secret.
func VerifyPaymentSignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
