package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/delivery/http/middleware"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"
	"go-telehealth-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type PrescriptionHandler struct {
	prescriptionUsecase usecase.PrescriptionUsecase
	validator           *validator.CustomValidator
}

func NewPrescriptionHandler(prescriptionUsecase usecase.PrescriptionUsecase, validator *validator.CustomValidator) *PrescriptionHandler {
	return &PrescriptionHandler{
		prescriptionUsecase: prescriptionUsecase,
		validator:           validator,
	}
}

// Create handles issuing a medical record
// @Summary Create a medical record
// @Description Issue the consultation record and prescription for an appointment
// @Tags Prescriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateMedicalRecordRequest true "Create Medical Record Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /prescriptions [post]
func (h *PrescriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreateMedicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.prescriptionUsecase.Create(r.Context(), doctorID, &req)
	if err != nil {
		switch err {
		case usecase.ErrAppointmentNotFound:
			response.NotFound(w, "Appointment not found")
		case usecase.ErrNotAppointmentOwner:
			response.Forbidden(w, "Not the owner of this appointment")
		case usecase.ErrRecordAlreadyExists:
			response.Conflict(w, "A medical record already exists for this appointment")
		case usecase.ErrDiagnosisRequired, usecase.ErrInvalidDateFormat:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to create medical record")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Medical record created successfully", record)
}

// Update handles editing a medical record
// @Summary Update a medical record
// @Description Merge partial changes into an existing record
// @Tags Prescriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param recordId path string true "Record ID"
// @Param request body dto.UpdateMedicalRecordRequest true "Update Medical Record Request"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /prescriptions/{recordId} [put]
func (h *PrescriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	recordID, err := uuid.Parse(mux.Vars(r)["recordId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid record ID", nil)
		return
	}

	var req dto.UpdateMedicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.prescriptionUsecase.Update(r.Context(), doctorID, recordID, &req)
	if err != nil {
		switch err {
		case usecase.ErrRecordNotFound:
			response.NotFound(w, "Medical record not found")
		case usecase.ErrRecordNotOwner:
			response.Forbidden(w, "Not the owner of this medical record")
		case usecase.ErrDiagnosisRequired, usecase.ErrInvalidDateFormat:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to update medical record")
		}
		return
	}

	response.Success(w, http.StatusOK, "Medical record updated successfully", record)
}

// GetByAppointment handles fetching a record via its appointment
// @Summary Get record by appointment
// @Description Get the medical record for an appointment, owner only
// @Tags Prescriptions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /prescriptions/appointment/{id} [get]
func (h *PrescriptionHandler) GetByAppointment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	appointmentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	record, err := h.prescriptionUsecase.GetByAppointment(r.Context(), userID, appointmentID)
	if err != nil {
		switch err {
		case usecase.ErrAppointmentNotFound:
			response.NotFound(w, "Appointment not found")
		case usecase.ErrNoRecordForAppointment:
			response.NotFound(w, "No medical record exists for this appointment")
		case usecase.ErrNotAppointmentOwner:
			response.Forbidden(w, "Not the owner of this appointment")
		default:
			response.InternalServerError(w, "Failed to get medical record")
		}
		return
	}

	response.Success(w, http.StatusOK, "Medical record retrieved successfully", record)
}

// GetByID handles fetching a record by its own ID
// @Summary Get a medical record
// @Description Get one medical record, owner only
// @Tags Prescriptions
// @Security BearerAuth
// @Produce json
// @Param recordId path string true "Record ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /prescriptions/{recordId} [get]
func (h *PrescriptionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	recordID, err := uuid.Parse(mux.Vars(r)["recordId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid record ID", nil)
		return
	}

	record, err := h.prescriptionUsecase.GetByID(r.Context(), userID, recordID)
	if err != nil {
		h.writeRecordError(w, err, "Failed to get medical record")
		return
	}

	response.Success(w, http.StatusOK, "Medical record retrieved successfully", record)
}

// RenderPDF handles the printable prescription
// @Summary Download prescription PDF
// @Description Render the prescription as a PDF document
// @Tags Prescriptions
// @Security BearerAuth
// @Produce application/pdf
// @Param recordId path string true "Record ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /prescriptions/{recordId}/pdf [get]
func (h *PrescriptionHandler) RenderPDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	recordID, err := uuid.Parse(mux.Vars(r)["recordId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid record ID", nil)
		return
	}

	data, err := h.prescriptionUsecase.RenderPDF(r.Context(), userID, recordID)
	if err != nil {
		h.writeRecordError(w, err, "Failed to render prescription")
		return
	}

	response.PDF(w, fmt.Sprintf("prescription-%s.pdf", recordID), data)
}

func (h *PrescriptionHandler) writeRecordError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case usecase.ErrRecordNotFound:
		response.NotFound(w, "Medical record not found")
	case usecase.ErrRecordNotOwner:
		response.Forbidden(w, "Not the owner of this medical record")
	case usecase.ErrAppointmentNotFound:
		response.NotFound(w, "Appointment not found")
	default:
		response.InternalServerError(w, fallback)
	}
}
