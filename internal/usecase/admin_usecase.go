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

var ErrDoctorIsVerified = errors.New("verified doctors cannot be rejected, suspend instead")

type AdminUsecase interface {
	VerifyDoctor(ctx context.Context, adminID uuid.UUID, doctorID uuid.UUID) (*dto.UserResponse, error)
	SuspendDoctor(ctx context.Context, adminID uuid.UUID, doctorID uuid.UUID) (*dto.UserResponse, error)
	RejectDoctor(ctx context.Context, adminID uuid.UUID, doctorID uuid.UUID) error
	ListUsers(ctx context.Context, req *dto.ListUsersRequest) (*dto.UserListResponse, error)
}

type adminUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	userRepo          repository.UserRepository
	doctorProfileRepo repository.DoctorProfileRepository
	auditService      service.AuditService
	sessions          SessionRevoker
}

// SessionRevoker drops all live sessions of a user. Satisfied by AuthUsecase.
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
}

func NewAdminUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
	sessions SessionRevoker,
) AdminUsecase {
	return &adminUsecase{
		db:                db,
		log:               log,
		userRepo:          userRepo,
		doctorProfileRepo: doctorProfileRepo,
		auditService:      auditService,
		sessions:          sessions,
	}
}

// VerifyDoctor approves a pending doctor: the profile becomes visible to
// patients and a previously suspended account is re-activated.
func (u *adminUsecase) VerifyDoctor(ctx context.Context, adminID uuid.UUID, doctorID uuid.UUID) (*dto.UserResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.requireDoctor(tx, doctorID)
	if err != nil {
		return nil, err
	}

	if _, err := u.doctorProfileRepo.SetVerified(tx, doctorID, true); err != nil {
		u.log.Warnf("Failed to verify doctor profile: %+v", err)
		return nil, err
	}

	active := true
	doctor.IsActive = &active
	if err := u.userRepo.Update(tx, doctor); err != nil {
		u.log.Warnf("Failed to activate doctor account: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &adminID, entity.AuditActionDoctorVerify, "doctor", doctorID.String(), nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return u.reloadUser(ctx, doctorID)
}

// SuspendDoctor hides the doctor from patients, blocks future logins and
// revokes every live session. The account and its records persist.
func (u *adminUsecase) SuspendDoctor(ctx context.Context, adminID uuid.UUID, doctorID uuid.UUID) (*dto.UserResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.requireDoctor(tx, doctorID)
	if err != nil {
		return nil, err
	}

	if _, err := u.doctorProfileRepo.SetVerified(tx, doctorID, false); err != nil {
		u.log.Warnf("Failed to unverify doctor profile: %+v", err)
		return nil, err
	}

	active := false
	doctor.IsActive = &active
	if err := u.userRepo.Update(tx, doctor); err != nil {
		u.log.Warnf("Failed to suspend doctor account: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &adminID, entity.AuditActionDoctorSuspend, "doctor", doctorID.String(), nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	if err := u.sessions.RevokeAllSessions(ctx, doctorID); err != nil {
		u.log.Warnf("Failed to revoke doctor sessions: %+v", err)
	}

	return u.reloadUser(ctx, doctorID)
}

// RejectDoctor hard-deletes a doctor account, allowed only while the profile
// is still unverified. Verified doctors may have appointments and records
// hanging off them and can only be suspended.
func (u *adminUsecase) RejectDoctor(ctx context.Context, adminID uuid.UUID, doctorID uuid.UUID) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.requireDoctor(tx, doctorID)
	if err != nil {
		return err
	}

	profile, err := u.doctorProfileRepo.FindByUserID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return err
	}
	if profile != nil && profile.IsVerified {
		return ErrDoctorIsVerified
	}

	rows, err := u.userRepo.Delete(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to delete doctor: %+v", err)
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	if err := u.auditService.LogDelete(ctx, tx, &adminID, entity.AuditActionDoctorReject, "doctor", doctorID.String(), map[string]interface{}{
		"email": doctor.Email,
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return u.sessions.RevokeAllSessions(ctx, doctorID)
}

// ListUsers returns the paginated admin user listing.
func (u *adminUsecase) ListUsers(ctx context.Context, req *dto.ListUsersRequest) (*dto.UserListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}

	filter := &repository.UserFilter{}
	if req.Role != "" {
		filter.RoleID = entity.RoleIDByName(req.Role)
	}

	users, total, err := u.userRepo.FindAll(u.db.WithContext(ctx), filter, limit, (page-1)*limit)
	if err != nil {
		u.log.Warnf("Failed to list users: %+v", err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users: converter.UsersToResponses(users),
		Total: total,
	}, nil
}

func (u *adminUsecase) requireDoctor(db *gorm.DB, doctorID uuid.UUID) (*entity.User, error) {
	doctor, err := u.userRepo.FindByID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}
	if doctor == nil || doctor.RoleID != entity.RoleIDDoctor {
		return nil, ErrUserNotFound
	}
	return doctor, nil
}

func (u *adminUsecase) reloadUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to reload user: %+v", err)
		return nil, err
	}
	return converter.UserToResponse(user), nil
}
