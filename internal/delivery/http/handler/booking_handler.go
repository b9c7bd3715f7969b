package handler

import (
	"encoding/json"
	"net/http"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/delivery/http/middleware"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"
	"go-telehealth-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// GetAvailableSlots handles listing a doctor's bookable slots
// @Summary List available slots
// @Description List a verified doctor's future unoccupied slots
// @Tags Booking
// @Security BearerAuth
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /doctors/{id}/slots [get]
func (h *BookingHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	slots, err := h.bookingUsecase.GetAvailableSlots(r.Context(), doctorID)
	if err != nil {
		switch err {
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		default:
			response.InternalServerError(w, "Failed to list available slots")
		}
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved successfully", slots)
}

// CreatePaymentOrder handles starting a paid booking
// @Summary Create a payment order
// @Description Validate intake, hold the slot and create the gateway order
// @Tags Booking
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentOrderRequest true "Create Payment Order Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/create-payment-order [post]
func (h *BookingHandler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreatePaymentOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	order, err := h.bookingUsecase.CreatePaymentOrder(r.Context(), patientID, &req)
	if err != nil {
		h.writeBookingError(w, err, "Failed to create payment order")
		return
	}

	response.Success(w, http.StatusCreated, "Payment order created successfully", order)
}

// VerifyPayment handles the payment confirmation callback
// @Summary Verify a payment
// @Description Verify the gateway signature and create the appointment
// @Tags Booking
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.VerifyPaymentRequest true "Verify Payment Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /appointments/verify-payment [post]
func (h *BookingHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.bookingUsecase.VerifyPayment(r.Context(), patientID, &req)
	if err != nil {
		switch err {
		case usecase.ErrPaymentOrderNotFound:
			response.NotFound(w, "Payment order not found")
		case usecase.ErrPaymentVerificationFailed:
			response.Error(w, http.StatusBadRequest, "Payment verification failed", nil)
		case usecase.ErrPaymentOrderExpired:
			response.Conflict(w, "Payment order has expired")
		case usecase.ErrSlotNotAvailable:
			response.Conflict(w, "Slot is not available")
		default:
			response.InternalServerError(w, "Failed to verify payment")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Payment verified, appointment booked", appointment)
}

// BookDirect handles booking without the payment leg
// @Summary Book an appointment directly
// @Description Book a slot without payment, fee snapshotted from the doctor profile
// @Tags Booking
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentOrderRequest true "Book Appointment Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments [post]
func (h *BookingHandler) BookDirect(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreatePaymentOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.bookingUsecase.BookDirect(r.Context(), patientID, &req)
	if err != nil {
		h.writeBookingError(w, err, "Failed to book appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

func (h *BookingHandler) writeBookingError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case usecase.ErrDoctorNotFound:
		response.NotFound(w, "Doctor not found")
	case usecase.ErrSlotNotAvailable:
		response.Conflict(w, "Slot is not available")
	case usecase.ErrSlotInPast:
		response.Error(w, http.StatusBadRequest, "Slot is in the past", nil)
	case usecase.ErrInvalidDateFormat, usecase.ErrInvalidPhoneNumber,
		usecase.ErrIntakeEmergencyAck, usecase.ErrIntakeSevereSymptoms,
		usecase.ErrIntakeBirthDateInFuture:
		response.Error(w, http.StatusBadRequest, err.Error(), nil)
	default:
		response.InternalServerError(w, fallback)
	}
}
