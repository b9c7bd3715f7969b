package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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
	ErrRecordNotFound         = errors.New("medical record not found")
	ErrRecordAlreadyExists    = errors.New("a medical record already exists for this appointment")
	ErrRecordNotOwner         = errors.New("not the owner of this medical record")
	ErrDiagnosisRequired      = errors.New("diagnosis is required")
	ErrNoRecordForAppointment = errors.New("no medical record exists for this appointment")
)

type PrescriptionUsecase interface {
	Create(ctx context.Context, doctorID uuid.UUID, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error)
	Update(ctx context.Context, doctorID uuid.UUID, recordID uuid.UUID, req *dto.UpdateMedicalRecordRequest) (*dto.MedicalRecordResponse, error)
	GetByAppointment(ctx context.Context, userID uuid.UUID, appointmentID uuid.UUID) (*dto.MedicalRecordResponse, error)
	GetByID(ctx context.Context, userID uuid.UUID, recordID uuid.UUID) (*dto.MedicalRecordResponse, error)
	RenderPDF(ctx context.Context, userID uuid.UUID, recordID uuid.UUID) ([]byte, error)
}

type prescriptionUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	recordRepo      repository.MedicalRecordRepository
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	auditService    service.AuditService
	notifier        service.Notifier
}

func NewPrescriptionUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	recordRepo repository.MedicalRecordRepository,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
	notifier service.Notifier,
) PrescriptionUsecase {
	return &prescriptionUsecase{
		db:              db,
		log:             log,
		recordRepo:      recordRepo,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		auditService:    auditService,
		notifier:        notifier,
	}
}

// Create issues the consultation record. The unique index on appointment_id
// makes the second create fail even when two requests race past the
// existence check. The patient notification is queued only after commit.
func (u *prescriptionUsecase) Create(ctx context.Context, doctorID uuid.UUID, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error) {
	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" {
		return nil, ErrDiagnosisRequired
	}

	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, req.AppointmentID)
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

	record := &entity.MedicalRecord{
		AppointmentID: req.AppointmentID,
		PatientID:     appointment.PatientID,
		DoctorID:      appointment.DoctorID,
		Diagnosis:     diagnosis,
		Notes:         strings.TrimSpace(req.Notes),
		Prescription:  converter.PrescriptionItemsToEntity(req.PrescriptionItems),
		CreatedBy:     doctorID,

		FollowUpRequired: req.FollowUpRequired,
		FollowUpNotes:    strings.TrimSpace(req.FollowUpNotes),
	}
	if req.FollowUpDate != "" {
		followUp, err := time.Parse("2006-01-02", req.FollowUpDate)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		record.FollowUpDate = &followUp
	}
	record.NormalizeFollowUp()

	tx := db.Begin()
	defer tx.Rollback()

	if err := u.recordRepo.Create(tx, record); err != nil {
		if isDuplicateKeyError(err, "appointment") {
			return nil, ErrRecordAlreadyExists
		}
		u.log.Warnf("Failed to create medical record: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &doctorID, entity.AuditActionPrescriptionCreate, "medical_record", record.ID.String(), map[string]interface{}{
		"appointment_id": req.AppointmentID.String(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.notifyPatient(ctx, record)

	return converter.MedicalRecordToResponse(record), nil
}

// Update merges partial changes into the record. Follow-up normalization
// runs against the merged state, so turning follow-up off always clears the
// date and notes regardless of which fields the request carried.
func (u *prescriptionUsecase) Update(ctx context.Context, doctorID uuid.UUID, recordID uuid.UUID, req *dto.UpdateMedicalRecordRequest) (*dto.MedicalRecordResponse, error) {
	db := u.db.WithContext(ctx)

	record, err := u.recordRepo.FindByID(db, recordID)
	if err != nil {
		u.log.Warnf("Failed to find medical record: %+v", err)
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	if !record.OwnedByDoctor(doctorID) {
		return nil, ErrRecordNotOwner
	}

	if req.Diagnosis != nil {
		diagnosis := strings.TrimSpace(*req.Diagnosis)
		if diagnosis == "" {
			return nil, ErrDiagnosisRequired
		}
		record.Diagnosis = diagnosis
	}
	if req.PrescriptionItems != nil {
		record.Prescription = converter.PrescriptionItemsToEntity(*req.PrescriptionItems)
	}
	if req.Notes != nil {
		record.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.FollowUpRequired != nil {
		record.FollowUpRequired = *req.FollowUpRequired
	}
	if req.FollowUpDate != nil {
		if *req.FollowUpDate == "" {
			record.FollowUpDate = nil
		} else {
			followUp, err := time.Parse("2006-01-02", *req.FollowUpDate)
			if err != nil {
				return nil, ErrInvalidDateFormat
			}
			record.FollowUpDate = &followUp
		}
	}
	if req.FollowUpNotes != nil {
		record.FollowUpNotes = strings.TrimSpace(*req.FollowUpNotes)
	}
	record.NormalizeFollowUp()

	tx := db.Begin()
	defer tx.Rollback()

	if err := u.recordRepo.Update(tx, record); err != nil {
		u.log.Warnf("Failed to update medical record: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &doctorID, entity.AuditActionPrescriptionUpdate, "medical_record", record.ID.String(), nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.MedicalRecordToResponse(record), nil
}

// GetByAppointment fetches a record by its appointment. A missing record on
// an existing appointment is distinguished from an unknown appointment.
func (u *prescriptionUsecase) GetByAppointment(ctx context.Context, userID uuid.UUID, appointmentID uuid.UUID) (*dto.MedicalRecordResponse, error) {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, appointmentID)
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

	record, err := u.recordRepo.FindByAppointmentID(db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find medical record: %+v", err)
		return nil, err
	}
	if record == nil {
		return nil, ErrNoRecordForAppointment
	}

	return converter.MedicalRecordToResponse(record), nil
}

func (u *prescriptionUsecase) GetByID(ctx context.Context, userID uuid.UUID, recordID uuid.UUID) (*dto.MedicalRecordResponse, error) {
	record, err := u.findVisible(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	return converter.MedicalRecordToResponse(record), nil
}

// RenderPDF builds the printable prescription for the owning doctor or
// patient.
func (u *prescriptionUsecase) RenderPDF(ctx context.Context, userID uuid.UUID, recordID uuid.UUID) ([]byte, error) {
	db := u.db.WithContext(ctx)

	record, err := u.findVisible(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	appointment, err := u.appointmentRepo.FindByID(db, record.AppointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	patient, err := u.userRepo.FindByID(db, record.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient: %+v", err)
		return nil, err
	}
	doctor, err := u.userRepo.FindByID(db, record.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}

	doc := service.BuildPrescriptionDocument(record, appointment, patient, doctor)
	data, err := service.RenderPrescriptionPDF(doc)
	if err != nil {
		u.log.Warnf("Failed to render prescription PDF: %+v", err)
		return nil, err
	}
	return data, nil
}

// findVisible loads a record and enforces doctor-or-patient visibility.
func (u *prescriptionUsecase) findVisible(ctx context.Context, userID uuid.UUID, recordID uuid.UUID) (*entity.MedicalRecord, error) {
	record, err := u.recordRepo.FindByID(u.db.WithContext(ctx), recordID)
	if err != nil {
		u.log.Warnf("Failed to find medical record: %+v", err)
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	if !record.OwnedByDoctor(userID) && !record.OwnedByPatient(userID) {
		return nil, ErrRecordNotOwner
	}
	return record, nil
}

// notifyPatient queues the best-effort prescription summary email. A lookup
// failure here is logged and swallowed: the record is already committed.
func (u *prescriptionUsecase) notifyPatient(ctx context.Context, record *entity.MedicalRecord) {
	patient, err := u.userRepo.FindByID(u.db.WithContext(ctx), record.PatientID)
	if err != nil || patient == nil {
		u.log.Warnf("Failed to load patient for notification: %+v", err)
		return
	}
	doctor, err := u.userRepo.FindByID(u.db.WithContext(ctx), record.DoctorID)
	if err != nil || doctor == nil {
		u.log.Warnf("Failed to load doctor for notification: %+v", err)
		return
	}

	medications := make([]string, len(record.Prescription))
	for i, item := range record.Prescription {
		line := item.Medication
		if item.Dosage != "" {
			line = fmt.Sprintf("%s %s", line, item.Dosage)
		}
		if item.Frequency != "" {
			line = fmt.Sprintf("%s, %s", line, item.Frequency)
		}
		medications[i] = line
	}

	followUp := ""
	if record.FollowUpRequired && record.FollowUpDate != nil {
		followUp = record.FollowUpDate.Format("2006-01-02")
		if record.FollowUpNotes != "" {
			followUp = fmt.Sprintf("%s (%s)", followUp, record.FollowUpNotes)
		}
	}

	u.notifier.EnqueuePrescriptionIssued(service.PrescriptionIssued{
		PatientEmail: patient.Email,
		PatientName:  patient.FullName,
		Summary: service.PrescriptionSummary{
			PatientName: patient.FullName,
			DoctorName:  doctor.FullName,
			Diagnosis:   record.Diagnosis,
			Medications: medications,
			FollowUp:    followUp,
		},
	})
}
