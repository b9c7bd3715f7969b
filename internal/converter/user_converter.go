package converter

import (
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	active := true
	if user.IsActive != nil {
		active = *user.IsActive
	}

	response := &dto.UserResponse{
		ID:                user.ID,
		Email:             user.Email,
		FullName:          user.FullName,
		Role:              entity.RoleNameByID(user.RoleID),
		IsActive:          active,
		IsEmailVerified:   user.IsEmailVerified,
		IsProfileComplete: user.IsProfileComplete,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}

	if user.DoctorProfile != nil {
		response.DoctorProfile = DoctorProfileToResponse(user.DoctorProfile)
	}
	if user.PatientProfile != nil {
		response.PatientProfile = PatientProfileToResponse(user.PatientProfile)
	}

	return response
}

// UsersToResponses converts a slice of User entities to slice of UserResponse DTOs
func UsersToResponses(users []entity.User) []dto.UserResponse {
	responses := make([]dto.UserResponse, len(users))
	for i, user := range users {
		resp := UserToResponse(&user)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}

// DoctorProfileToResponse converts a DoctorProfile entity to DoctorProfileResponse DTO
func DoctorProfileToResponse(profile *entity.DoctorProfile) *dto.DoctorProfileResponse {
	if profile == nil {
		return nil
	}

	response := &dto.DoctorProfileResponse{
		UserID:          profile.UserID,
		Specialization:  profile.Specialization,
		LicenseNumber:   profile.LicenseNumber,
		ConsultationFee: profile.ConsultationFee.StringFixed(2),
		Biography:       profile.Biography,
		IsVerified:      profile.IsVerified,
	}

	if profile.User.FullName != "" {
		response.FullName = profile.User.FullName
	}

	return response
}

// DoctorProfilesToResponses converts doctor profiles to DTOs, hiding the
// license number from patient-facing listings.
func DoctorProfilesToResponses(profiles []entity.DoctorProfile, publicView bool) []dto.DoctorProfileResponse {
	responses := make([]dto.DoctorProfileResponse, len(profiles))
	for i, profile := range profiles {
		resp := DoctorProfileToResponse(&profile)
		if resp != nil {
			if publicView {
				resp.LicenseNumber = ""
			}
			responses[i] = *resp
		}
	}
	return responses
}

// PatientProfileToResponse converts a PatientProfile entity to PatientProfileResponse DTO
func PatientProfileToResponse(profile *entity.PatientProfile) *dto.PatientProfileResponse {
	if profile == nil {
		return nil
	}

	response := &dto.PatientProfileResponse{
		UserID:      profile.UserID,
		PhoneNumber: profile.PhoneNumber,
		Gender:      profile.Gender,
		Address:     profile.Address,
	}

	if !profile.DateOfBirth.IsZero() {
		response.DateOfBirth = profile.DateOfBirth.Format("2006-01-02")
	}

	return response
}
