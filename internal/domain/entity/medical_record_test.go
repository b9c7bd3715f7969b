package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFollowUp(t *testing.T) {
	date := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	m := &MedicalRecord{
		FollowUpRequired: false,
		FollowUpDate:     &date,
		FollowUpNotes:    "stale notes",
	}
	m.NormalizeFollowUp()
	assert.Nil(t, m.FollowUpDate)
	assert.Empty(t, m.FollowUpNotes)

	m = &MedicalRecord{
		FollowUpRequired: true,
		FollowUpDate:     &date,
		FollowUpNotes:    "check rash",
	}
	m.NormalizeFollowUp()
	assert.Equal(t, &date, m.FollowUpDate)
	assert.Equal(t, "check rash", m.FollowUpNotes)
}

func TestPrescriptionItemsValueNeverNull(t *testing.T) {
	var items PrescriptionItems

	value, err := items.Value()
	assert.NoError(t, err)
	assert.Equal(t, []byte("[]"), value)
}
