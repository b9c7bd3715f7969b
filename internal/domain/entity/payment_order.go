package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentOrderStatus represents the status of a payment order
type PaymentOrderStatus string

const (
	PaymentOrderStatusCreated PaymentOrderStatus = "created"
	PaymentOrderStatusPaid    PaymentOrderStatus = "paid"
	PaymentOrderStatusExpired PaymentOrderStatus = "expired"
)

// PaymentOrder is the pre-appointment record of a booking attempt. It is
// created together with the gateway order, before any appointment exists,
// and carries the intake snapshot so the appointment can be persisted
// immediately after the payment signature verifies.
//
// GatewayOrderID is unique: marking an order paid is a conditional update
// keyed on it, which makes duplicate payment confirmations no-ops instead of
// duplicate appointments.
type PaymentOrder struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	GatewayOrderID  string             `gorm:"type:varchar(100);uniqueIndex;not null" json:"gateway_order_id"`
	PatientID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentDate time.Time          `gorm:"type:date;not null" json:"appointment_date"`
	TimeSlot        string             `gorm:"type:varchar(5);not null" json:"time_slot"`
	Intake          Intake             `gorm:"type:jsonb" json:"intake"`
	ConsultationFee decimal.Decimal    `gorm:"type:decimal(10,2);not null" json:"consultation_fee"`
	AmountSubunits  int64              `gorm:"not null" json:"amount_subunits"`
	Currency        string             `gorm:"type:char(3);not null" json:"currency"`
	Status          PaymentOrderStatus `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	PaymentID       *string            `gorm:"type:varchar(100)" json:"payment_id,omitempty"`
	CreatedAt       time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}

// IsPaid checks if the order has a verified payment
func (o *PaymentOrder) IsPaid() bool {
	return o.Status == PaymentOrderStatusPaid
}
