package usecase

import (
	"context"
	"errors"
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
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrScheduleDuplicate = errors.New("slot already exists for this doctor")
)

type ScheduleUsecase interface {
	Create(ctx context.Context, adminID uuid.UUID, req *dto.CreateScheduleRequest) (*dto.ScheduleListResponse, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.ScheduleListResponse, error)
	Delete(ctx context.Context, adminID uuid.UUID, scheduleID int) error
}

type scheduleUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	scheduleRepo repository.DoctorScheduleRepository
	userRepo     repository.UserRepository
	auditService service.AuditService
}

func NewScheduleUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	scheduleRepo repository.DoctorScheduleRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
) ScheduleUsecase {
	return &scheduleUsecase{
		db:           db,
		log:          log,
		scheduleRepo: scheduleRepo,
		userRepo:     userRepo,
		auditService: auditService,
	}
}

// Create adds bookable slots for a doctor on one date. All slots land in a
// single transaction; a duplicate (doctor, date, time) anywhere in the batch
// rejects the whole request.
func (u *scheduleUsecase) Create(ctx context.Context, adminID uuid.UUID, req *dto.CreateScheduleRequest) (*dto.ScheduleListResponse, error) {
	date, err := time.Parse("2006-01-02", req.ScheduleDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.userRepo.FindByID(tx, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}
	if doctor == nil || doctor.RoleID != entity.RoleIDDoctor {
		return nil, ErrUserNotFound
	}

	created := make([]entity.DoctorSchedule, 0, len(req.TimeSlots))
	for _, slot := range req.TimeSlots {
		schedule := entity.DoctorSchedule{
			DoctorID:     req.DoctorID,
			ScheduleDate: date,
			TimeSlot:     slot,
		}
		if err := u.scheduleRepo.Create(tx, &schedule); err != nil {
			if isDuplicateKeyError(err, "doctor_slot") {
				return nil, ErrScheduleDuplicate
			}
			u.log.Warnf("Failed to create schedule slot: %+v", err)
			return nil, err
		}
		created = append(created, schedule)
	}

	if err := u.auditService.LogCreate(ctx, tx, &adminID, entity.AuditActionScheduleCreate, "doctor_schedule", req.DoctorID.String(), map[string]interface{}{
		"date":  req.ScheduleDate,
		"slots": req.TimeSlots,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return &dto.ScheduleListResponse{
		Schedules: converter.SchedulesToResponses(created),
		Total:     len(created),
	}, nil
}

func (u *scheduleUsecase) ListByDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.ScheduleListResponse, error) {
	schedules, err := u.scheduleRepo.FindByDoctorID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to list schedules: %+v", err)
		return nil, err
	}

	return &dto.ScheduleListResponse{
		Schedules: converter.SchedulesToResponses(schedules),
		Total:     len(schedules),
	}, nil
}

func (u *scheduleUsecase) Delete(ctx context.Context, adminID uuid.UUID, scheduleID int) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	schedule, err := u.scheduleRepo.FindByID(tx, scheduleID)
	if err != nil {
		u.log.Warnf("Failed to find schedule: %+v", err)
		return err
	}
	if schedule == nil {
		return ErrScheduleNotFound
	}

	rows, err := u.scheduleRepo.Delete(tx, scheduleID)
	if err != nil {
		u.log.Warnf("Failed to delete schedule: %+v", err)
		return err
	}
	if rows == 0 {
		return ErrScheduleNotFound
	}

	if err := u.auditService.LogDelete(ctx, tx, &adminID, entity.AuditActionScheduleDelete, "doctor_schedule", schedule.DoctorID.String(), map[string]interface{}{
		"date":      schedule.ScheduleDate.Format("2006-01-02"),
		"time_slot": schedule.TimeSlot,
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	return nil
}
