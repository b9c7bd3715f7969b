package converter

import (
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
)

// ScheduleToResponse converts a DoctorSchedule entity to ScheduleResponse DTO
func ScheduleToResponse(schedule *entity.DoctorSchedule) *dto.ScheduleResponse {
	if schedule == nil {
		return nil
	}
	return &dto.ScheduleResponse{
		ID:           schedule.ID,
		DoctorID:     schedule.DoctorID,
		ScheduleDate: schedule.ScheduleDate.Format("2006-01-02"),
		TimeSlot:     schedule.TimeSlot,
	}
}

// SchedulesToResponses converts a slice of DoctorSchedule entities to slice of ScheduleResponse DTOs
func SchedulesToResponses(schedules []entity.DoctorSchedule) []dto.ScheduleResponse {
	responses := make([]dto.ScheduleResponse, len(schedules))
	for i, schedule := range schedules {
		resp := ScheduleToResponse(&schedule)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}

// SchedulesToSlotResponses projects schedule rows down to the slot fields
// shown on the booking page.
func SchedulesToSlotResponses(schedules []entity.DoctorSchedule) []dto.SlotResponse {
	responses := make([]dto.SlotResponse, len(schedules))
	for i, schedule := range schedules {
		responses[i] = dto.SlotResponse{
			ScheduleDate: schedule.ScheduleDate.Format("2006-01-02"),
			TimeSlot:     schedule.TimeSlot,
		}
	}
	return responses
}
