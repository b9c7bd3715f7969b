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
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidConsultationFee = errors.New("consultation fee must be a non-negative amount")
	ErrLicenseAlreadyExists   = errors.New("license number already exists")
)

type DoctorUsecase interface {
	CompleteProfile(ctx context.Context, doctorID uuid.UUID, req *dto.CompleteDoctorProfileRequest) (*dto.UserResponse, error)
	ListVerified(ctx context.Context) (*dto.DoctorListResponse, error)
}

type doctorUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	userRepo          repository.UserRepository
	doctorProfileRepo repository.DoctorProfileRepository
	auditService      service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:                db,
		log:               log,
		userRepo:          userRepo,
		doctorProfileRepo: doctorProfileRepo,
		auditService:      auditService,
	}
}

// CompleteProfile upserts the doctor's profile data and flips the
// profile-complete flag. Verification stays with the admin: completing the
// profile never makes the doctor patient-visible by itself.
func (u *doctorUsecase) CompleteProfile(ctx context.Context, doctorID uuid.UUID, req *dto.CompleteDoctorProfileRequest) (*dto.UserResponse, error) {
	fee, err := decimal.NewFromString(req.ConsultationFee)
	if err != nil || fee.IsNegative() {
		return nil, ErrInvalidConsultationFee
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.userRepo.FindByID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}
	if doctor == nil || doctor.RoleID != entity.RoleIDDoctor {
		return nil, ErrUserNotFound
	}

	profile, err := u.doctorProfileRepo.FindByUserID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}

	if profile == nil {
		profile = &entity.DoctorProfile{
			UserID:          doctorID,
			LicenseNumber:   req.LicenseNumber,
			Specialization:  req.Specialization,
			ConsultationFee: fee,
			Biography:       req.Biography,
		}
		if err := u.doctorProfileRepo.Create(tx, profile); err != nil {
			if isDuplicateKeyError(err, "license") {
				return nil, ErrLicenseAlreadyExists
			}
			u.log.Warnf("Failed to create doctor profile: %+v", err)
			return nil, err
		}
	} else {
		profile.LicenseNumber = req.LicenseNumber
		profile.Specialization = req.Specialization
		profile.ConsultationFee = fee
		profile.Biography = req.Biography
		if err := u.doctorProfileRepo.Update(tx, profile); err != nil {
			if isDuplicateKeyError(err, "license") {
				return nil, ErrLicenseAlreadyExists
			}
			u.log.Warnf("Failed to update doctor profile: %+v", err)
			return nil, err
		}
	}

	if !doctor.IsProfileComplete {
		doctor.IsProfileComplete = true
		if err := u.userRepo.Update(tx, doctor); err != nil {
			u.log.Warnf("Failed to update doctor: %+v", err)
			return nil, err
		}
	}

	if err := u.auditService.LogUpdate(ctx, tx, &doctorID, entity.AuditActionProfileComplete, "doctor_profile", doctorID.String(), nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	doctor.DoctorProfile = profile
	return converter.UserToResponse(doctor), nil
}

// ListVerified returns the patient-facing doctor directory: verified and
// active doctors only, without license numbers.
func (u *doctorUsecase) ListVerified(ctx context.Context) (*dto.DoctorListResponse, error) {
	profiles, err := u.doctorProfileRepo.FindAllVerified(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list verified doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorProfilesToResponses(profiles, true),
		Total:   len(profiles),
	}, nil
}
