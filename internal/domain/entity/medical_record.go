package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PrescriptionItem is one medication line on a prescription.
type PrescriptionItem struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Instructions string `json:"instructions,omitempty"`
}

// PrescriptionItems is the ordered medication list, persisted as JSONB.
type PrescriptionItems []PrescriptionItem

// Value implements driver.Valuer
func (p PrescriptionItems) Value() (driver.Value, error) {
	if p == nil {
		p = PrescriptionItems{}
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *PrescriptionItems) Scan(value interface{}) error {
	if value == nil {
		*p = PrescriptionItems{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal prescription items:", value))
	}
	return json.Unmarshal(bytes, p)
}

// MedicalRecord is the persisted outcome of a consultation. At most one
// record exists per appointment, enforced by the unique index on
// AppointmentID. Records are created once by the owning doctor and mutated
// only through the update path; they are never deleted.
type MedicalRecord struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AppointmentID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	PatientID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Diagnosis     string            `gorm:"type:text;not null" json:"diagnosis"`
	Notes         string            `gorm:"type:text" json:"notes,omitempty"`
	Prescription  PrescriptionItems `gorm:"type:jsonb" json:"prescription"`

	FollowUpRequired bool       `gorm:"not null;default:false" json:"follow_up_required"`
	FollowUpDate     *time.Time `gorm:"type:date" json:"follow_up_date,omitempty"`
	FollowUpNotes    string     `gorm:"type:text" json:"follow_up_notes,omitempty"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
	Patient     User        `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor      User        `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}

// NormalizeFollowUp clears the follow-up date and notes whenever follow-up is
// not required. Must be called after every create or merge so stale follow-up
// data from a prior edit can never leak into the stored record.
func (m *MedicalRecord) NormalizeFollowUp() {
	if !m.FollowUpRequired {
		m.FollowUpDate = nil
		m.FollowUpNotes = ""
	}
}

// OwnedByDoctor reports whether the given caller is the issuing doctor.
func (m *MedicalRecord) OwnedByDoctor(userID uuid.UUID) bool {
	return m.DoctorID == userID
}

// OwnedByPatient reports whether the given caller is the record's patient.
func (m *MedicalRecord) OwnedByPatient(userID uuid.UUID) bool {
	return m.PatientID == userID
}
