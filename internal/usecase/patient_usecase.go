package usecase

import (
	"context"
	"time"

	"go-telehealth-booking/internal/converter"
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PatientUsecase interface {
	UpdateProfile(ctx context.Context, patientID uuid.UUID, req *dto.UpdatePatientProfileRequest) (*dto.PatientProfileResponse, error)
	GetProfile(ctx context.Context, patientID uuid.UUID) (*dto.PatientProfileResponse, error)
}

type patientUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	userRepo           repository.UserRepository
	patientProfileRepo repository.PatientProfileRepository
}

func NewPatientUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	patientProfileRepo repository.PatientProfileRepository,
) PatientUsecase {
	return &patientUsecase{
		db:                 db,
		log:                log,
		userRepo:           userRepo,
		patientProfileRepo: patientProfileRepo,
	}
}

// UpdateProfile edits the patient's stored demographics. Appointments keep
// their intake snapshots, so this never rewrites booking history.
func (u *patientUsecase) UpdateProfile(ctx context.Context, patientID uuid.UUID, req *dto.UpdatePatientProfileRequest) (*dto.PatientProfileResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.patientProfileRepo.FindByUserID(tx, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient profile: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}

	if req.PhoneNumber != "" {
		phone, err := normalizePhoneNumber(req.PhoneNumber)
		if err != nil {
			return nil, err
		}
		profile.PhoneNumber = phone
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		profile.DateOfBirth = dob
	}
	if req.Gender != "" {
		profile.Gender = req.Gender
	}
	if req.Address != "" {
		profile.Address = req.Address
	}

	if err := u.patientProfileRepo.Update(tx, profile); err != nil {
		u.log.Warnf("Failed to update patient profile: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.PatientProfileToResponse(profile), nil
}

func (u *patientUsecase) GetProfile(ctx context.Context, patientID uuid.UUID) (*dto.PatientProfileResponse, error) {
	profile, err := u.patientProfileRepo.FindByUserID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient profile: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	return converter.PatientProfileToResponse(profile), nil
}
