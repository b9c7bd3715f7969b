package repository

import (
	"time"

	"go-telehealth-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type PaymentOrderRepository interface {
	Create(db *gorm.DB, order *entity.PaymentOrder) error
	FindByGatewayOrderID(db *gorm.DB, gatewayOrderID string) (*entity.PaymentOrder, error)
	// MarkPaid transitions created -> paid atomically, keyed on the gateway
	// order id. Returns affected rows: 0 means the order was already paid or
	// expired, which callers treat as a duplicate delivery.
	MarkPaid(db *gorm.DB, gatewayOrderID string, paymentID string) (int64, error)
	// FindStaleCreated returns unpaid orders created before the cutoff.
	FindStaleCreated(db *gorm.DB, cutoff time.Time) ([]entity.PaymentOrder, error)
	MarkExpired(db *gorm.DB, gatewayOrderID string) (int64, error)
}
