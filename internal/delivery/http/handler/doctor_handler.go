package handler

import (
	"encoding/json"
	"net/http"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/delivery/http/middleware"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"
	"go-telehealth-booking/pkg/validator"
)

type DoctorHandler struct {
	doctorUsecase usecase.DoctorUsecase
	validator     *validator.CustomValidator
}

func NewDoctorHandler(doctorUsecase usecase.DoctorUsecase, validator *validator.CustomValidator) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
		validator:     validator,
	}
}

// CompleteProfile handles the doctor's profile-completion step
// @Summary Complete doctor profile
// @Description Submit specialization, license and consultation fee
// @Tags Doctors
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CompleteDoctorProfileRequest true "Complete Profile Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /doctors/me/profile [put]
func (h *DoctorHandler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CompleteDoctorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	user, err := h.doctorUsecase.CompleteProfile(r.Context(), doctorID, &req)
	if err != nil {
		switch err {
		case usecase.ErrUserNotFound:
			response.NotFound(w, "Doctor not found")
		case usecase.ErrInvalidConsultationFee:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		case usecase.ErrLicenseAlreadyExists:
			response.Conflict(w, "License number already exists")
		default:
			response.InternalServerError(w, "Failed to complete profile")
		}
		return
	}

	response.Success(w, http.StatusOK, "Profile completed successfully", user)
}

// ListVerified handles the patient-facing doctor directory
// @Summary List verified doctors
// @Description List verified and active doctors
// @Tags Doctors
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /doctors [get]
func (h *DoctorHandler) ListVerified(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.ListVerified(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to list doctors")
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}
