package dto

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionItemRequest struct {
	Medication   string `json:"medication" validate:"required,min=1"`
	Dosage       string `json:"dosage" validate:"omitempty"`
	Frequency    string `json:"frequency" validate:"omitempty"`
	Instructions string `json:"instructions" validate:"omitempty"`
}

type CreateMedicalRecordRequest struct {
	AppointmentID     uuid.UUID                 `json:"appointment_id" validate:"required"`
	Diagnosis         string                    `json:"diagnosis" validate:"required"`
	PrescriptionItems []PrescriptionItemRequest `json:"prescription_items" validate:"omitempty,dive"`
	Notes             string                    `json:"notes" validate:"omitempty"`
	FollowUpRequired  bool                      `json:"follow_up_required"`
	FollowUpDate      string                    `json:"follow_up_date" validate:"omitempty,datetime=2006-01-02"`
	FollowUpNotes     string                    `json:"follow_up_notes" validate:"omitempty"`
}

// UpdateMedicalRecordRequest uses pointers so omitted fields are left
// untouched while explicit empty strings still clear them.
type UpdateMedicalRecordRequest struct {
	Diagnosis         *string                    `json:"diagnosis" validate:"omitempty,min=1"`
	PrescriptionItems *[]PrescriptionItemRequest `json:"prescription_items" validate:"omitempty,dive"`
	Notes             *string                    `json:"notes"`
	FollowUpRequired  *bool                      `json:"follow_up_required"`
	FollowUpDate      *string                    `json:"follow_up_date" validate:"omitempty,datetime=2006-01-02"`
	FollowUpNotes     *string                    `json:"follow_up_notes"`
}

type PrescriptionItemResponse struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type MedicalRecordResponse struct {
	ID                uuid.UUID                  `json:"id"`
	AppointmentID     uuid.UUID                  `json:"appointment_id"`
	DoctorID          uuid.UUID                  `json:"doctor_id"`
	PatientID         uuid.UUID                  `json:"patient_id"`
	Diagnosis         string                     `json:"diagnosis"`
	PrescriptionItems []PrescriptionItemResponse `json:"prescription_items"`
	Notes             string                     `json:"notes,omitempty"`
	FollowUpRequired  bool                       `json:"follow_up_required"`
	FollowUpDate      *string                    `json:"follow_up_date,omitempty"`
	FollowUpNotes     string                     `json:"follow_up_notes,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}
