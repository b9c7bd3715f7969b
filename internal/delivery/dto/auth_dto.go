package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// SignupRequest creates a user in the role partition named by UserType.
// Patient demographic fields are required only for patients; doctors and
// admins complete their profiles in a follow-up step.
type SignupRequest struct {
	UserType string `json:"user_type" validate:"required,oneof=patient doctor admin"`
	FullName string `json:"full_name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`

	// Patient-only
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=10,max=20"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,oneof=M F"`
	Address     string `json:"address" validate:"omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"user_type" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// CompleteDoctorProfileRequest is the doctor's follow-up profile step.
type CompleteDoctorProfileRequest struct {
	Specialization  string `json:"specialization" validate:"required,min=2"`
	LicenseNumber   string `json:"license_number" validate:"required,min=4"`
	ConsultationFee string `json:"consultation_fee" validate:"required"`
	Biography       string `json:"biography" validate:"omitempty"`
}

type UpdatePatientProfileRequest struct {
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=10,max=20"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,oneof=M F"`
	Address     string `json:"address" validate:"omitempty"`
}

// Response DTOs

// TokenResponse is the login payload. ProfileComplete false signals the
// client to route to the profile-completion step instead of the dashboard.
type TokenResponse struct {
	AccessToken     string `json:"access_token"`
	ExpiresIn       int64  `json:"expires_in"`
	Role            string `json:"role"`
	ProfileComplete bool   `json:"profile_complete"`
}

type UserResponse struct {
	ID                uuid.UUID               `json:"id"`
	Email             string                  `json:"email"`
	FullName          string                  `json:"full_name"`
	Role              string                  `json:"role"`
	IsActive          bool                    `json:"is_active"`
	IsEmailVerified   bool                    `json:"is_email_verified"`
	IsProfileComplete bool                    `json:"is_profile_complete"`
	DoctorProfile     *DoctorProfileResponse  `json:"doctor_profile,omitempty"`
	PatientProfile    *PatientProfileResponse `json:"patient_profile,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

type DoctorProfileResponse struct {
	UserID          uuid.UUID `json:"user_id"`
	FullName        string    `json:"full_name,omitempty"`
	Specialization  string    `json:"specialization"`
	LicenseNumber   string    `json:"license_number,omitempty"`
	ConsultationFee string    `json:"consultation_fee"`
	Biography       string    `json:"biography,omitempty"`
	IsVerified      bool      `json:"is_verified"`
}

type PatientProfileResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	Address     string    `json:"address,omitempty"`
}

type DoctorListResponse struct {
	Doctors []DoctorProfileResponse `json:"doctors"`
	Total   int                     `json:"total"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
}
