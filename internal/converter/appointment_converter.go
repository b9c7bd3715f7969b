package converter

import (
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
)

// IntakeToEntity converts the intake request form to the JSONB snapshot.
func IntakeToEntity(req *dto.IntakeRequest) entity.Intake {
	if req == nil {
		return entity.Intake{}
	}
	return entity.Intake{
		FullName:       req.FullName,
		PhoneNumber:    req.PhoneNumber,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		Address:        req.Address,
		Symptoms:       req.Symptoms,
		SevereSymptoms: req.SevereSymptoms,
		MedicalHistory: req.MedicalHistory,
		EmergencyAck:   req.EmergencyAck,
	}
}

// IntakeToResponse converts the stored intake snapshot to its DTO
func IntakeToResponse(intake entity.Intake) *dto.IntakeResponse {
	return &dto.IntakeResponse{
		FullName:       intake.FullName,
		PhoneNumber:    intake.PhoneNumber,
		DateOfBirth:    intake.DateOfBirth,
		Gender:         intake.Gender,
		Address:        intake.Address,
		Symptoms:       intake.Symptoms,
		SevereSymptoms: intake.SevereSymptoms,
		MedicalHistory: intake.MedicalHistory,
		EmergencyAck:   intake.EmergencyAck,
	}
}

// AppointmentToResponse converts an Appointment entity to AppointmentResponse
// DTO. The intake snapshot is included only when includeIntake is set, so
// list views stay lean while detail views carry the full form.
func AppointmentToResponse(appointment *entity.Appointment, includeIntake bool) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:              appointment.ID,
		DoctorID:        appointment.DoctorID,
		PatientID:       appointment.PatientID,
		AppointmentDate: appointment.AppointmentDate.Format("2006-01-02"),
		TimeSlot:        appointment.TimeSlot,
		Status:          string(appointment.Status),
		ConsultationFee: appointment.ConsultationFee.StringFixed(2),
		TriagePriority:  appointment.TriagePriority,
		TriageLabel:     appointment.TriageLabel,
		CreatedAt:       appointment.CreatedAt,
	}

	if appointment.Doctor.FullName != "" {
		response.DoctorName = appointment.Doctor.FullName
	}
	if appointment.Patient.FullName != "" {
		response.PatientName = appointment.Patient.FullName
	}
	if includeIntake {
		response.Intake = IntakeToResponse(appointment.Intake)
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		resp := AppointmentToResponse(&appointment, false)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}

// PaymentOrderToResponse converts a PaymentOrder entity to the widget payload
func PaymentOrderToResponse(order *entity.PaymentOrder, keyID string) *dto.PaymentOrderResponse {
	if order == nil {
		return nil
	}
	return &dto.PaymentOrderResponse{
		OrderID:        order.ID.String(),
		GatewayOrderID: order.GatewayOrderID,
		Amount:         order.AmountSubunits,
		Currency:       order.Currency,
		KeyID:          keyID,
	}
}
