package repository

import (
	"time"

	"go-telehealth-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	FindByPaymentOrderID(db *gorm.DB, orderID uuid.UUID) (*entity.Appointment, error)
	// SlotTaken reports whether a non-cancelled appointment already occupies
	// the (doctor, date, time) slot.
	SlotTaken(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeSlot string) (bool, error)
	// Complete transitions upcoming -> completed atomically.
	// Returns affected rows: 1 = transitioned, 0 = was not upcoming.
	Complete(db *gorm.DB, id uuid.UUID) (int64, error)
	// Cancel transitions upcoming -> cancelled atomically, same contract.
	Cancel(db *gorm.DB, id uuid.UUID) (int64, error)
	SetTriage(db *gorm.DB, id uuid.UUID, priority, label string) (int64, error)
}
