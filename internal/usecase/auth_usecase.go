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
	"go-telehealth-booking/pkg/jwt"
	"go-telehealth-booking/pkg/token"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrGoogleAccount        = errors.New("account uses Google sign-in")
	ErrNoPasswordSet        = errors.New("no password set for this account")
	ErrAccountSuspended     = errors.New("account is suspended")
	ErrEmailNotVerified     = errors.New("email address is not verified")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrUserNotFound         = errors.New("user not found")
	ErrRoleNotFound         = errors.New("role not found")
	ErrInvalidDateFormat    = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidPhoneNumber   = errors.New("phone number must contain exactly 10 digits")
	ErrPatientFieldsMissing = errors.New("patient signup requires phone number, date of birth, gender and address")
)

type AuthUsecase interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	VerifyEmail(ctx context.Context, plainToken string) error
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, plainToken string, req *dto.ResetPasswordRequest) error
	Logout(ctx context.Context, userID uuid.UUID, tokenID string) error
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
}

type authUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	userRepo           repository.UserRepository
	patientProfileRepo repository.PatientProfileRepository
	auditService       service.AuditService
	mailer             service.Mailer
	jwtService         *jwt.JWTService
	redisClient        *redis.Client
	tokenTTL           time.Duration
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	patientProfileRepo repository.PatientProfileRepository,
	auditService service.AuditService,
	mailer service.Mailer,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
	tokenTTL time.Duration,
) AuthUsecase {
	return &authUsecase{
		db:                 db,
		log:                log,
		userRepo:           userRepo,
		patientProfileRepo: patientProfileRepo,
		auditService:       auditService,
		mailer:             mailer,
		jwtService:         jwtService,
		redisClient:        redisClient,
		tokenTTL:           tokenTTL,
	}
}

// Signup creates the user, its patient profile when applicable, and sends the
// verification email, all-or-nothing: a mail failure rolls the whole signup
// back so no account ever exists without a verification email in flight.
func (u *authUsecase) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.UserResponse, error) {
	roleID := entity.RoleIDByName(req.UserType)
	if roleID == 0 {
		return nil, ErrRoleNotFound
	}

	var (
		dob   time.Time
		phone string
	)
	if roleID == entity.RoleIDPatient {
		if req.PhoneNumber == "" || req.DateOfBirth == "" || req.Gender == "" || req.Address == "" {
			return nil, ErrPatientFieldsMissing
		}
		var err error
		dob, err = time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		phone, err = normalizePhoneNumber(req.PhoneNumber)
		if err != nil {
			return nil, err
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	plainToken, tokenHash, err := token.Generate()
	if err != nil {
		u.log.Warnf("Failed to generate verification token: %+v", err)
		return nil, err
	}
	expiresAt := time.Now().Add(u.tokenTTL)

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	active := true
	user := &entity.User{
		Email:                strings.ToLower(strings.TrimSpace(req.Email)),
		Password:             string(hashedPassword),
		FullName:             req.FullName,
		RoleID:               roleID,
		IsActive:             &active,
		IsProfileComplete:    roleID == entity.RoleIDPatient,
		EmailVerifyTokenHash: &tokenHash,
		EmailVerifyExpiresAt: &expiresAt,
	}

	if err := u.userRepo.Create(tx, user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		if isForeignKeyError(err, "role") {
			return nil, ErrRoleNotFound
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	if roleID == entity.RoleIDPatient {
		patientProfile := &entity.PatientProfile{
			UserID:      user.ID,
			PhoneNumber: phone,
			DateOfBirth: dob,
			Gender:      req.Gender,
			Address:     req.Address,
		}
		if err := u.patientProfileRepo.Create(tx, patientProfile); err != nil {
			u.log.Warnf("Failed to create patient profile: %+v", err)
			return nil, err
		}
		user.PatientProfile = patientProfile
	}

	if err := u.auditService.LogCreate(ctx, tx, &user.ID, entity.AuditActionUserSignup, "user", user.ID.String(), map[string]interface{}{
		"email": user.Email,
		"role":  req.UserType,
	}); err != nil {
		return nil, err
	}

	// Mail is sent before commit on purpose: a delivery failure must abort
	// the signup, not strand an unverifiable account.
	if err := u.mailer.SendVerificationEmail(ctx, user.Email, user.FullName, plainToken); err != nil {
		u.log.Warnf("Failed to send verification email: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.UserToResponse(user), nil
}

// Login authenticates against the role partition named in the request.
// Failure checks run in a fixed order so the same bad input always yields
// the same error.
func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	roleID := entity.RoleIDByName(req.UserType)
	if roleID == 0 {
		return nil, ErrRoleNotFound
	}

	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil || user.RoleID != roleID {
		return nil, ErrInvalidCredentials
	}

	if user.HasExternalIdentityOnly() {
		return nil, ErrGoogleAccount
	}
	if user.Password == "" {
		return nil, ErrNoPasswordSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Account state is checked only after the password matched, so probing
	// with wrong passwords reveals nothing about suspension.
	if user.IsSuspended() {
		return nil, ErrAccountSuspended
	}
	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	accessToken, tokenID, err := u.jwtService.GenerateToken(user.ID, user.Email, user.RoleID)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	sessionKey := sessionKeyFor(user.ID, tokenID)
	if err := u.redisClient.Set(ctx, sessionKey, "valid", u.jwtService.GetExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store session in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:     accessToken,
		ExpiresIn:       int64(u.jwtService.GetExpiry().Seconds()),
		Role:            entity.RoleNameByID(user.RoleID),
		ProfileComplete: user.IsProfileComplete,
	}, nil
}

// VerifyEmail exchanges a verification token. The token is single-use: the
// stored hash is cleared on success.
func (u *authUsecase) VerifyEmail(ctx context.Context, plainToken string) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user, err := u.userRepo.FindByEmailVerifyTokenHash(tx, token.Hash(plainToken))
	if err != nil {
		u.log.Warnf("Failed to find user by verification token: %+v", err)
		return err
	}
	if user == nil {
		return ErrInvalidToken
	}
	if user.EmailVerifyExpiresAt == nil || time.Now().After(*user.EmailVerifyExpiresAt) {
		return ErrInvalidToken
	}

	user.SetEmailVerified()
	if err := u.userRepo.Update(tx, user); err != nil {
		u.log.Warnf("Failed to update user: %+v", err)
		return err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &user.ID, entity.AuditActionEmailVerified, "user", user.ID.String(), nil, nil); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	return nil
}

// ForgotPassword issues a reset token. It reports success for unknown emails
// too, so the endpoint cannot be used to probe which addresses exist.
func (u *authUsecase) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return err
	}
	if user == nil || user.HasExternalIdentityOnly() {
		return nil
	}

	plainToken, tokenHash, err := token.Generate()
	if err != nil {
		u.log.Warnf("Failed to generate reset token: %+v", err)
		return err
	}
	expiresAt := time.Now().Add(u.tokenTTL)

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user.ResetTokenHash = &tokenHash
	user.ResetExpiresAt = &expiresAt
	if err := u.userRepo.Update(tx, user); err != nil {
		u.log.Warnf("Failed to store reset token: %+v", err)
		return err
	}

	if err := u.mailer.SendPasswordResetEmail(ctx, user.Email, user.FullName, plainToken); err != nil {
		u.log.Warnf("Failed to send password reset email: %+v", err)
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	return nil
}

// ResetPassword exchanges a reset token for a new password and revokes every
// live session of the account.
func (u *authUsecase) ResetPassword(ctx context.Context, plainToken string, req *dto.ResetPasswordRequest) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user, err := u.userRepo.FindByResetTokenHash(tx, token.Hash(plainToken))
	if err != nil {
		u.log.Warnf("Failed to find user by reset token: %+v", err)
		return err
	}
	if user == nil {
		return ErrInvalidToken
	}
	if user.ResetExpiresAt == nil || time.Now().After(*user.ResetExpiresAt) {
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return err
	}

	user.Password = string(hashedPassword)
	user.ClearResetToken()
	if err := u.userRepo.Update(tx, user); err != nil {
		u.log.Warnf("Failed to update user: %+v", err)
		return err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &user.ID, entity.AuditActionPasswordReset, "user", user.ID.String(), nil, nil); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return u.RevokeAllSessions(ctx, user.ID)
}

func (u *authUsecase) Logout(ctx context.Context, userID uuid.UUID, tokenID string) error {
	if err := u.redisClient.Del(ctx, sessionKeyFor(userID, tokenID)).Err(); err != nil {
		u.log.Warnf("Failed to delete session: %+v", err)
		return err
	}
	return nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return converter.UserToResponse(user), nil
}

// RevokeAllSessions drops every live session key for a user. Used on
// password reset and admin suspension.
func (u *authUsecase) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	pattern := fmt.Sprintf("session:%s:*", userID.String())
	keys, err := u.redisClient.Keys(ctx, pattern).Result()
	if err != nil {
		u.log.Warnf("Failed to list session keys: %+v", err)
		return err
	}
	if len(keys) > 0 {
		if err := u.redisClient.Del(ctx, keys...).Err(); err != nil {
			u.log.Warnf("Failed to delete session keys: %+v", err)
			return err
		}
	}
	return nil
}

func sessionKeyFor(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("session:%s:%s", userID.String(), tokenID)
}

// normalizePhoneNumber strips formatting characters and requires exactly 10
// digits, the same rule the booking intake applies.
func normalizePhoneNumber(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 {
		return "", ErrInvalidPhoneNumber
	}
	return digits, nil
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}

// isForeignKeyError checks if the error is a PostgreSQL foreign key violation
// containing the specified constraint name
func isForeignKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23503 = foreign_key_violation
		if pgErr.Code == "23503" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
