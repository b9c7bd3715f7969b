package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAppointmentStatusHelpers(t *testing.T) {
	a := &Appointment{Status: AppointmentStatusUpcoming}
	assert.True(t, a.IsUpcoming())
	assert.False(t, a.IsCompleted())
	assert.False(t, a.IsCancelled())

	a.Status = AppointmentStatusCompleted
	assert.True(t, a.IsCompleted())

	a.Status = AppointmentStatusCancelled
	assert.True(t, a.IsCancelled())
}

func TestAppointmentOwnership(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()
	a := &Appointment{DoctorID: doctorID, PatientID: patientID}

	assert.True(t, a.OwnedByDoctor(doctorID))
	assert.True(t, a.OwnedByPatient(patientID))
	assert.False(t, a.OwnedByDoctor(patientID))
	assert.False(t, a.OwnedByPatient(uuid.New()))
}

func TestSlotStartsAt(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	got := SlotStartsAt(date, "14:30")
	assert.Equal(t, time.Date(2026, 9, 14, 14, 30, 0, 0, time.UTC), got)

	// Unparseable slot falls back to midnight of the date.
	assert.Equal(t, date, SlotStartsAt(date, "not-a-slot"))
}

func TestIntakeScanRoundtrip(t *testing.T) {
	in := Intake{
		FullName:       "Pat Example",
		PhoneNumber:    "0987654321",
		DateOfBirth:    "1990-06-15",
		Symptoms:       "persistent rash",
		SevereSymptoms: []string{"fever"},
		EmergencyAck:   true,
	}

	value, err := in.Value()
	assert.NoError(t, err)

	var out Intake
	assert.NoError(t, out.Scan(value))
	assert.Equal(t, in, out)

	// NULL column yields the zero intake.
	assert.NoError(t, out.Scan(nil))
	assert.Equal(t, Intake{}, out)
}
