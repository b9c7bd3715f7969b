package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusUpcoming  AppointmentStatus = "upcoming"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Intake is the patient-supplied visit data collected at booking time,
// persisted as JSONB on the appointment.
type Intake struct {
	FullName       string   `json:"full_name"`
	PhoneNumber    string   `json:"phone_number"`
	DateOfBirth    string   `json:"date_of_birth"` // YYYY-MM-DD
	Gender         string   `json:"gender,omitempty"`
	Address        string   `json:"address,omitempty"`
	Symptoms       string   `json:"symptoms"`
	SevereSymptoms []string `json:"severe_symptoms,omitempty"`
	MedicalHistory string   `json:"medical_history,omitempty"`
	EmergencyAck   bool     `json:"emergency_ack"`
}

// Value implements driver.Valuer
func (i Intake) Value() (driver.Value, error) {
	return json.Marshal(i)
}

// Scan implements sql.Scanner
func (i *Intake) Scan(value interface{}) error {
	if value == nil {
		*i = Intake{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal intake value:", value))
	}
	return json.Unmarshal(bytes, i)
}

// Appointment represents one booked consultation slot.
//
// ConsultationFee is snapshotted at booking time and never updated, so later
// fee changes on the doctor profile cannot affect an existing booking. Status
// transitions are one-directional: upcoming -> completed (doctor) or
// upcoming -> cancelled (patient); both end states are terminal.
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentDate time.Time         `gorm:"type:date;not null;index" json:"appointment_date"`
	TimeSlot        string            `gorm:"type:varchar(5);not null" json:"time_slot"`
	Intake          Intake            `gorm:"type:jsonb" json:"intake"`
	ConsultationFee decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"consultation_fee"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'upcoming';index" json:"status"`
	PaymentOrderID  *uuid.UUID        `gorm:"type:uuid;index" json:"payment_order_id,omitempty"`

	// Triage annotations, attached asynchronously after creation.
	TriagePriority *string `gorm:"type:varchar(20)" json:"triage_priority,omitempty"`
	TriageLabel    *string `gorm:"type:varchar(100)" json:"triage_label,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsUpcoming checks if the appointment is still actionable
func (a *Appointment) IsUpcoming() bool {
	return a.Status == AppointmentStatusUpcoming
}

// IsCompleted checks if the appointment has been completed
func (a *Appointment) IsCompleted() bool {
	return a.Status == AppointmentStatusCompleted
}

// IsCancelled checks if the appointment has been cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// OwnedByDoctor reports whether the given caller is the owning doctor.
func (a *Appointment) OwnedByDoctor(userID uuid.UUID) bool {
	return a.DoctorID == userID
}

// OwnedByPatient reports whether the given caller is the owning patient.
func (a *Appointment) OwnedByPatient(userID uuid.UUID) bool {
	return a.PatientID == userID
}
