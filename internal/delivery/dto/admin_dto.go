package dto

import (
	"time"

	"github.com/google/uuid"
)

type ListUsersRequest struct {
	Role   string `json:"role" validate:"omitempty,oneof=admin doctor patient"`
	Search string `json:"search" validate:"omitempty"`
	Page   int    `json:"page" validate:"omitempty,min=1"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type CreateScheduleRequest struct {
	DoctorID     uuid.UUID `json:"doctor_id" validate:"required"`
	ScheduleDate string    `json:"schedule_date" validate:"required,datetime=2006-01-02"`
	TimeSlots    []string  `json:"time_slots" validate:"required,min=1,dive,datetime=15:04"`
}

type ScheduleResponse struct {
	ID           int       `json:"id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	ScheduleDate string    `json:"schedule_date"`
	TimeSlot     string    `json:"time_slot"`
}

type ScheduleListResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
	Total     int                `json:"total"`
}

type AuditLogResponse struct {
	ID        int64                  `json:"id"`
	UserID    *uuid.UUID             `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int                `json:"total"`
}
