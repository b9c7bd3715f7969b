package dto

import (
	"time"

	"github.com/google/uuid"
)

// IntakeRequest is the pre-payment symptom and demographics form. It is
// snapshotted onto the payment order and later onto the appointment, so
// edits to the patient profile never rewrite booking history.
type IntakeRequest struct {
	FullName       string   `json:"full_name" validate:"required,min=2"`
	PhoneNumber    string   `json:"phone_number" validate:"required,min=10,max=20"`
	DateOfBirth    string   `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender         string   `json:"gender" validate:"required,oneof=M F"`
	Address        string   `json:"address" validate:"required"`
	Symptoms       string   `json:"symptoms" validate:"required,min=3"`
	SevereSymptoms []string `json:"severe_symptoms" validate:"omitempty,dive,min=1"`
	MedicalHistory string   `json:"medical_history" validate:"omitempty"`
	EmergencyAck   bool     `json:"emergency_ack"`
}

type CreatePaymentOrderRequest struct {
	DoctorID        uuid.UUID     `json:"doctor_id" validate:"required"`
	AppointmentDate string        `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	TimeSlot        string        `json:"time_slot" validate:"required,datetime=15:04"`
	Intake          IntakeRequest `json:"intake" validate:"required"`
}

// PaymentOrderResponse carries what the payment widget needs client-side.
type PaymentOrderResponse struct {
	OrderID        string `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"gateway_order_id" validate:"required"`
	PaymentID      string `json:"payment_id" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
}

type SlotResponse struct {
	ScheduleDate string `json:"schedule_date"`
	TimeSlot     string `json:"time_slot"`
}

type AvailableSlotsResponse struct {
	DoctorID uuid.UUID      `json:"doctor_id"`
	Slots    []SlotResponse `json:"slots"`
}

type IntakeResponse struct {
	FullName       string   `json:"full_name"`
	PhoneNumber    string   `json:"phone_number"`
	DateOfBirth    string   `json:"date_of_birth"`
	Gender         string   `json:"gender"`
	Address        string   `json:"address"`
	Symptoms       string   `json:"symptoms"`
	SevereSymptoms []string `json:"severe_symptoms,omitempty"`
	MedicalHistory string   `json:"medical_history,omitempty"`
	EmergencyAck   bool     `json:"emergency_ack"`
}

type AppointmentResponse struct {
	ID              uuid.UUID       `json:"id"`
	DoctorID        uuid.UUID       `json:"doctor_id"`
	DoctorName      string          `json:"doctor_name,omitempty"`
	PatientID       uuid.UUID       `json:"patient_id"`
	PatientName     string          `json:"patient_name,omitempty"`
	AppointmentDate string          `json:"appointment_date"`
	TimeSlot        string          `json:"time_slot"`
	Status          string          `json:"status"`
	ConsultationFee string          `json:"consultation_fee"`
	TriagePriority  *string         `json:"triage_priority,omitempty"`
	TriageLabel     *string         `json:"triage_label,omitempty"`
	Intake          *IntakeResponse `json:"intake,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type SetTriageRequest struct {
	Priority string `json:"priority" validate:"required,oneof=high medium low"`
	Label    string `json:"label" validate:"omitempty,max=120"`
}
