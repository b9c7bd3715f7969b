package converter

import (
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
)

// PrescriptionItemsToEntity converts medication line requests to the JSONB list
func PrescriptionItemsToEntity(items []dto.PrescriptionItemRequest) entity.PrescriptionItems {
	result := make(entity.PrescriptionItems, len(items))
	for i, item := range items {
		result[i] = entity.PrescriptionItem{
			Medication:   item.Medication,
			Dosage:       item.Dosage,
			Frequency:    item.Frequency,
			Instructions: item.Instructions,
		}
	}
	return result
}

// MedicalRecordToResponse converts a MedicalRecord entity to MedicalRecordResponse DTO
func MedicalRecordToResponse(record *entity.MedicalRecord) *dto.MedicalRecordResponse {
	if record == nil {
		return nil
	}

	items := make([]dto.PrescriptionItemResponse, len(record.Prescription))
	for i, item := range record.Prescription {
		items[i] = dto.PrescriptionItemResponse{
			Medication:   item.Medication,
			Dosage:       item.Dosage,
			Frequency:    item.Frequency,
			Instructions: item.Instructions,
		}
	}

	response := &dto.MedicalRecordResponse{
		ID:                record.ID,
		AppointmentID:     record.AppointmentID,
		DoctorID:          record.DoctorID,
		PatientID:         record.PatientID,
		Diagnosis:         record.Diagnosis,
		PrescriptionItems: items,
		Notes:             record.Notes,
		FollowUpRequired:  record.FollowUpRequired,
		FollowUpNotes:     record.FollowUpNotes,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}

	if record.FollowUpDate != nil {
		formatted := record.FollowUpDate.Format("2006-01-02")
		response.FollowUpDate = &formatted
	}

	return response
}
