package entity

import (
	"time"

	"github.com/google/uuid"
)

// DoctorSchedule represents one bookable (doctor, date, time) slot.
// A slot row says the doctor is available; occupancy comes from appointments.
type DoctorSchedule struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_doctor_slot" json:"doctor_id"`
	ScheduleDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_doctor_slot;index" json:"schedule_date"`
	TimeSlot     string    `gorm:"type:varchar(5);not null;uniqueIndex:idx_doctor_slot" json:"time_slot"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (DoctorSchedule) TableName() string {
	return "doctor_schedules"
}

// StartsAt combines the date and HH:MM slot into a wall-clock instant.
func (s *DoctorSchedule) StartsAt() time.Time {
	return SlotStartsAt(s.ScheduleDate, s.TimeSlot)
}

// SlotStartsAt combines a date and an HH:MM slot string. An unparseable slot
// yields midnight of the date.
func SlotStartsAt(date time.Time, slot string) time.Time {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}
