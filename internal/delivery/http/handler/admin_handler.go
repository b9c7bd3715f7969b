package handler

import (
	"net/http"
	"strconv"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/delivery/http/middleware"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AdminHandler struct {
	adminUsecase usecase.AdminUsecase
}

func NewAdminHandler(adminUsecase usecase.AdminUsecase) *AdminHandler {
	return &AdminHandler{adminUsecase: adminUsecase}
}

// VerifyDoctor handles approving a pending doctor
// @Summary Verify a doctor
// @Description Approve a doctor so patients can see and book them
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/doctors/{id}/verify [put]
func (h *AdminHandler) VerifyDoctor(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	doctor, err := h.adminUsecase.VerifyDoctor(r.Context(), adminID, doctorID)
	if err != nil {
		switch err {
		case usecase.ErrUserNotFound:
			response.NotFound(w, "Doctor not found")
		default:
			response.InternalServerError(w, "Failed to verify doctor")
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor verified successfully", doctor)
}

// SuspendDoctor handles suspending a doctor
// @Summary Suspend a doctor
// @Description Hide the doctor from patients, block logins and revoke sessions
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/doctors/{id}/suspend [put]
func (h *AdminHandler) SuspendDoctor(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	doctor, err := h.adminUsecase.SuspendDoctor(r.Context(), adminID, doctorID)
	if err != nil {
		switch err {
		case usecase.ErrUserNotFound:
			response.NotFound(w, "Doctor not found")
		default:
			response.InternalServerError(w, "Failed to suspend doctor")
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor suspended successfully", doctor)
}

// RejectDoctor handles deleting a pending doctor
// @Summary Reject a doctor application
// @Description Hard-delete a doctor account that was never verified
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/doctors/{id} [delete]
func (h *AdminHandler) RejectDoctor(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	if err := h.adminUsecase.RejectDoctor(r.Context(), adminID, doctorID); err != nil {
		switch err {
		case usecase.ErrUserNotFound:
			response.NotFound(w, "Doctor not found")
		case usecase.ErrDoctorIsVerified:
			response.Conflict(w, "Verified doctors cannot be rejected, suspend instead")
		default:
			response.InternalServerError(w, "Failed to reject doctor")
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor rejected successfully", nil)
}

// ListUsers handles the paginated user listing
// @Summary List users
// @Description List users filtered by role, paginated
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param role query string false "Role filter (admin, doctor, patient)"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	req := &dto.ListUsersRequest{
		Role:  query.Get("role"),
		Page:  page,
		Limit: limit,
	}

	users, err := h.adminUsecase.ListUsers(r.Context(), req)
	if err != nil {
		response.InternalServerError(w, "Failed to list users")
		return
	}

	response.Success(w, http.StatusOK, "Users retrieved successfully", users)
}
