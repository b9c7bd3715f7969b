package repository

import (
	"errors"
	"time"

	"go-telehealth-booking/internal/domain/entity"
	domainRepo "go-telehealth-booking/internal/domain/repository"

	"gorm.io/gorm"
)

type paymentOrderRepository struct{}

func NewPaymentOrderRepository() domainRepo.PaymentOrderRepository {
	return &paymentOrderRepository{}
}

func (r *paymentOrderRepository) Create(db *gorm.DB, order *entity.PaymentOrder) error {
	return db.Create(order).Error
}

func (r *paymentOrderRepository) FindByGatewayOrderID(db *gorm.DB, gatewayOrderID string) (*entity.PaymentOrder, error) {
	var order entity.PaymentOrder
	err := db.Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// MarkPaid atomically transitions created -> paid. Zero affected rows means
// some other delivery of the same confirmation got there first.
func (r *paymentOrderRepository) MarkPaid(db *gorm.DB, gatewayOrderID string, paymentID string) (int64, error) {
	result := db.Model(&entity.PaymentOrder{}).
		Where("gateway_order_id = ? AND status = ?", gatewayOrderID, entity.PaymentOrderStatusCreated).
		Updates(map[string]interface{}{
			"status":     entity.PaymentOrderStatusPaid,
			"payment_id": paymentID,
		})
	return result.RowsAffected, result.Error
}

func (r *paymentOrderRepository) FindStaleCreated(db *gorm.DB, cutoff time.Time) ([]entity.PaymentOrder, error) {
	var orders []entity.PaymentOrder
	err := db.Where("status = ? AND created_at < ?", entity.PaymentOrderStatusCreated, cutoff).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *paymentOrderRepository) MarkExpired(db *gorm.DB, gatewayOrderID string) (int64, error) {
	result := db.Model(&entity.PaymentOrder{}).
		Where("gateway_order_id = ? AND status = ?", gatewayOrderID, entity.PaymentOrderStatusCreated).
		Update("status", entity.PaymentOrderStatusExpired)
	return result.RowsAffected, result.Error
}
