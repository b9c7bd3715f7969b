package usecase

import (
	"context"
	"errors"

	"go-telehealth-booking/internal/converter"
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/repository"
	"go-telehealth-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrNotAppointmentOwner  = errors.New("not the owner of this appointment")
	ErrAppointmentCancelled = errors.New("appointment has been cancelled")
	ErrAppointmentFinished  = errors.New("appointment is no longer upcoming")
)

type AppointmentUsecase interface {
	GetMine(ctx context.Context, userID uuid.UUID, roleID int) (*dto.AppointmentListResponse, error)
	Get(ctx context.Context, userID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, doctorID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, patientID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	SetTriage(ctx context.Context, adminID uuid.UUID, appointmentID uuid.UUID, req *dto.SetTriageRequest) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
	}
}

// GetMine lists the caller's appointments, scoped by role: doctors see their
// consultations, patients their bookings.
func (u *appointmentUsecase) GetMine(ctx context.Context, userID uuid.UUID, roleID int) (*dto.AppointmentListResponse, error) {
	db := u.db.WithContext(ctx)

	var (
		appointments []entity.Appointment
		err          error
	)
	switch roleID {
	case entity.RoleIDDoctor:
		appointments, err = u.appointmentRepo.FindByDoctorID(db, userID)
	default:
		appointments, err = u.appointmentRepo.FindByPatientID(db, userID)
	}
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// Get returns one appointment; only the owning doctor or patient may see it.
func (u *appointmentUsecase) Get(ctx context.Context, userID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.findOwned(ctx, userID, appointmentID)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment, true), nil
}

// Complete transitions upcoming -> completed. Repeating the call on an
// already-completed appointment is a no-op returning the current state;
// completing a cancelled appointment is a conflict.
func (u *appointmentUsecase) Complete(ctx context.Context, doctorID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !appointment.OwnedByDoctor(doctorID) {
		return nil, ErrNotAppointmentOwner
	}
	if appointment.IsCancelled() {
		return nil, ErrAppointmentCancelled
	}
	if appointment.IsCompleted() {
		return converter.AppointmentToResponse(appointment, false), nil
	}

	tx := db.Begin()
	defer tx.Rollback()

	rows, err := u.appointmentRepo.Complete(tx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to complete appointment: %+v", err)
		return nil, err
	}
	if rows == 0 {
		// Raced with another transition; re-read and apply the same rules.
		current, err := u.appointmentRepo.FindByID(db, appointmentID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.IsCompleted() {
			return converter.AppointmentToResponse(current, false), nil
		}
		return nil, ErrAppointmentCancelled
	}

	if err := u.auditService.LogUpdate(ctx, tx, &doctorID, entity.AuditActionAppointmentComplete, "appointment", appointmentID.String(),
		string(entity.AppointmentStatusUpcoming), string(entity.AppointmentStatusCompleted)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	appointment.Status = entity.AppointmentStatusCompleted
	return converter.AppointmentToResponse(appointment, false), nil
}

// Cancel transitions upcoming -> cancelled, patient-side.
func (u *appointmentUsecase) Cancel(ctx context.Context, patientID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !appointment.OwnedByPatient(patientID) {
		return nil, ErrNotAppointmentOwner
	}
	if appointment.IsCancelled() {
		return converter.AppointmentToResponse(appointment, false), nil
	}
	if appointment.IsCompleted() {
		return nil, ErrAppointmentFinished
	}

	tx := db.Begin()
	defer tx.Rollback()

	rows, err := u.appointmentRepo.Cancel(tx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to cancel appointment: %+v", err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAppointmentFinished
	}

	if err := u.auditService.LogUpdate(ctx, tx, &patientID, entity.AuditActionAppointmentCancel, "appointment", appointmentID.String(),
		string(entity.AppointmentStatusUpcoming), string(entity.AppointmentStatusCancelled)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	appointment.Status = entity.AppointmentStatusCancelled
	return converter.AppointmentToResponse(appointment, false), nil
}

// SetTriage attaches the asynchronous triage annotation. Admin-only; the
// appointment may be in any state since triage is advisory metadata.
func (u *appointmentUsecase) SetTriage(ctx context.Context, adminID uuid.UUID, appointmentID uuid.UUID, req *dto.SetTriageRequest) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)

	tx := db.Begin()
	defer tx.Rollback()

	rows, err := u.appointmentRepo.SetTriage(tx, appointmentID, req.Priority, req.Label)
	if err != nil {
		u.log.Warnf("Failed to set triage: %+v", err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAppointmentNotFound
	}

	if err := u.auditService.LogUpdate(ctx, tx, &adminID, entity.AuditActionAppointmentTriage, "appointment", appointmentID.String(), nil, map[string]interface{}{
		"priority": req.Priority,
		"label":    req.Label,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	appointment, err := u.appointmentRepo.FindByID(db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to re-read appointment: %+v", err)
		return nil, err
	}
	return converter.AppointmentToResponse(appointment, false), nil
}

// findOwned loads an appointment and enforces doctor-or-patient ownership.
func (u *appointmentUsecase) findOwned(ctx context.Context, userID uuid.UUID, appointmentID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !appointment.OwnedByDoctor(userID) && !appointment.OwnedByPatient(userID) {
		return nil, ErrNotAppointmentOwner
	}
	return appointment, nil
}
