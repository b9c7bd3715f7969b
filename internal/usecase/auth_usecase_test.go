package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-telehealth-booking/config"
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/pkg/jwt"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWTService() *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{
		Secret: "test-secret",
		Expiry: time.Hour,
	})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hashed)
}

func activeVerifiedPatient(t *testing.T, password string) *entity.User {
	active := true
	return &entity.User{
		ID:              uuid.New(),
		RoleID:          entity.RoleIDPatient,
		Email:           "patient@example.com",
		Password:        hashPassword(t, password),
		FullName:        "Pat Example",
		IsActive:        &active,
		IsEmailVerified: true,
	}
}

func TestSignup_PatientSuccess(t *testing.T) {
	db, dbMock := newTestDB(t)
	userRepo := &MockUserRepository{}
	profileRepo := &MockPatientProfileRepository{}
	audit := &MockAuditService{}
	mailer := &MockMailer{}
	redisClient, _ := redismock.NewClientMock()

	uc := NewAuthUsecase(db, silentLogger(), userRepo, profileRepo, audit, mailer, newTestJWTService(), redisClient, 10*time.Minute)

	dbMock.ExpectBegin()
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.User).ID = uuid.New()
	}).Return(nil)
	profileRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.PatientProfile")).Return(nil)
	audit.On("LogCreate", mock.Anything, mock.Anything, mock.Anything, entity.AuditActionUserSignup, "user", mock.Anything, mock.Anything).Return(nil)
	mailer.On("SendVerificationEmail", mock.Anything, "pat@example.com", "Pat Example", mock.AnythingOfType("string")).Return(nil)
	dbMock.ExpectCommit()

	resp, err := uc.Signup(context.Background(), &dto.SignupRequest{
		Email:       "  Pat@Example.com ",
		Password:    "secret123",
		FullName:    "Pat Example",
		UserType:    "patient",
		PhoneNumber: "(098) 765-4321",
		DateOfBirth: "1990-06-15",
		Gender:      "F",
		Address:     "12 Main St",
	})

	assert.NoError(t, err)
	assert.Equal(t, "pat@example.com", resp.Email)
	assert.Equal(t, "patient", resp.Role)
	assert.True(t, resp.IsProfileComplete)

	createdProfile := profileRepo.Calls[0].Arguments.Get(1).(*entity.PatientProfile)
	assert.Equal(t, "0987654321", createdProfile.PhoneNumber)

	userRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
	mailer.AssertExpectations(t)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestSignup_PatientFieldsMissing(t *testing.T) {
	db, _ := newTestDB(t)
	redisClient, _ := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), &MockUserRepository{}, &MockPatientProfileRepository{}, &MockAuditService{}, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

	_, err := uc.Signup(context.Background(), &dto.SignupRequest{
		Email:    "pat@example.com",
		Password: "secret123",
		FullName: "Pat Example",
		UserType: "patient",
	})

	assert.ErrorIs(t, err, ErrPatientFieldsMissing)
}

func TestSignup_InvalidPhoneNumber(t *testing.T) {
	db, _ := newTestDB(t)
	redisClient, _ := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), &MockUserRepository{}, &MockPatientProfileRepository{}, &MockAuditService{}, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

	_, err := uc.Signup(context.Background(), &dto.SignupRequest{
		Email:       "pat@example.com",
		Password:    "secret123",
		FullName:    "Pat Example",
		UserType:    "patient",
		PhoneNumber: "12345",
		DateOfBirth: "1990-06-15",
		Gender:      "F",
		Address:     "12 Main St",
	})

	assert.ErrorIs(t, err, ErrInvalidPhoneNumber)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	db, dbMock := newTestDB(t)
	userRepo := &MockUserRepository{}
	redisClient, _ := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), userRepo, &MockPatientProfileRepository{}, &MockAuditService{}, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

	dbMock.ExpectBegin()
	userRepo.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_users_email",
	})
	dbMock.ExpectRollback()

	_, err := uc.Signup(context.Background(), &dto.SignupRequest{
		Email:    "taken@example.com",
		Password: "secret123",
		FullName: "Doc Example",
		UserType: "doctor",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestSignup_MailFailureRollsBack(t *testing.T) {
	db, dbMock := newTestDB(t)
	userRepo := &MockUserRepository{}
	audit := &MockAuditService{}
	mailer := &MockMailer{}
	redisClient, _ := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), userRepo, &MockPatientProfileRepository{}, audit, mailer, newTestJWTService(), redisClient, 10*time.Minute)

	dbMock.ExpectBegin()
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	audit.On("LogCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mailer.On("SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sendgrid returned status 500"))
	dbMock.ExpectRollback()

	_, err := uc.Signup(context.Background(), &dto.SignupRequest{
		Email:    "doc@example.com",
		Password: "secret123",
		FullName: "Doc Example",
		UserType: "doctor",
	})

	assert.Error(t, err)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestLogin_Success(t *testing.T) {
	db, _ := newTestDB(t)
	userRepo := &MockUserRepository{}
	redisClient, redisMock := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), userRepo, &MockPatientProfileRepository{}, &MockAuditService{}, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

	user := activeVerifiedPatient(t, "secret123")
	userRepo.On("FindByEmail", mock.Anything, "patient@example.com").Return(user, nil)
	redisMock.Regexp().ExpectSet(`session:`+user.ID.String()+`:.*`, "valid", time.Hour).SetVal("OK")

	resp, err := uc.Login(context.Background(), &dto.LoginRequest{
		Email:    "patient@example.com",
		Password: "secret123",
		UserType: "patient",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "patient", resp.Role)
}

func TestLogin_FailureOrder(t *testing.T) {
	password := "secret123"
	suspended := false

	tests := []struct {
		name     string
		userType string
		password string
		user     func(t *testing.T) *entity.User
		wantErr  error
	}{
		{
			name:     "unknown role partition",
			userType: "superuser",
			password: password,
			user:     func(t *testing.T) *entity.User { return activeVerifiedPatient(t, password) },
			wantErr:  ErrRoleNotFound,
		},
		{
			name:     "role mismatch",
			userType: "doctor",
			password: password,
			user:     func(t *testing.T) *entity.User { return activeVerifiedPatient(t, password) },
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "google-only account",
			userType: "patient",
			password: password,
			user: func(t *testing.T) *entity.User {
				u := activeVerifiedPatient(t, password)
				googleID := "google-sub-1"
				u.GoogleID = &googleID
				u.Password = ""
				return u
			},
			wantErr: ErrGoogleAccount,
		},
		{
			name:     "no password and no external identity",
			userType: "patient",
			password: password,
			user: func(t *testing.T) *entity.User {
				u := activeVerifiedPatient(t, password)
				u.Password = ""
				return u
			},
			wantErr: ErrNoPasswordSet,
		},
		{
			name:     "wrong password on suspended account stays generic",
			userType: "patient",
			password: "wrong-password",
			user: func(t *testing.T) *entity.User {
				u := activeVerifiedPatient(t, password)
				u.IsActive = &suspended
				return u
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "suspended beats unverified",
			userType: "patient",
			password: password,
			user: func(t *testing.T) *entity.User {
				u := activeVerifiedPatient(t, password)
				u.IsActive = &suspended
				u.IsEmailVerified = false
				return u
			},
			wantErr: ErrAccountSuspended,
		},
		{
			name:     "email not verified",
			userType: "patient",
			password: password,
			user: func(t *testing.T) *entity.User {
				u := activeVerifiedPatient(t, password)
				u.IsEmailVerified = false
				return u
			},
			wantErr: ErrEmailNotVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := newTestDB(t)
			userRepo := &MockUserRepository{}
			redisClient, _ := redismock.NewClientMock()
			uc := NewAuthUsecase(db, silentLogger(), userRepo, &MockPatientProfileRepository{}, &MockAuditService{}, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

			userRepo.On("FindByEmail", mock.Anything, mock.Anything).Return(tt.user(t), nil).Maybe()

			_, err := uc.Login(context.Background(), &dto.LoginRequest{
				Email:    "patient@example.com",
				Password: tt.password,
				UserType: tt.userType,
			})

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	db, _ := newTestDB(t)
	userRepo := &MockUserRepository{}
	redisClient, _ := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), userRepo, &MockPatientProfileRepository{}, &MockAuditService{}, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

	userRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	_, err := uc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
		UserType: "patient",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	db, dbMock := newTestDB(t)
	userRepo := &MockUserRepository{}
	redisClient, _ := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), userRepo, &MockPatientProfileRepository{}, &MockAuditService{}, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

	expired := time.Now().Add(-time.Minute)
	hash := "deadbeef"
	user := activeVerifiedPatient(t, "secret123")
	user.IsEmailVerified = false
	user.EmailVerifyTokenHash = &hash
	user.EmailVerifyExpiresAt = &expired

	dbMock.ExpectBegin()
	userRepo.On("FindByEmailVerifyTokenHash", mock.Anything, mock.Anything).Return(user, nil)
	dbMock.ExpectRollback()

	err := uc.VerifyEmail(context.Background(), "some-plain-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestVerifyEmail_Success(t *testing.T) {
	db, dbMock := newTestDB(t)
	userRepo := &MockUserRepository{}
	audit := &MockAuditService{}
	redisClient, _ := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), userRepo, &MockPatientProfileRepository{}, audit, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

	expiry := time.Now().Add(5 * time.Minute)
	hash := "deadbeef"
	user := activeVerifiedPatient(t, "secret123")
	user.IsEmailVerified = false
	user.EmailVerifyTokenHash = &hash
	user.EmailVerifyExpiresAt = &expiry

	dbMock.ExpectBegin()
	userRepo.On("FindByEmailVerifyTokenHash", mock.Anything, mock.Anything).Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)
	audit.On("LogUpdate", mock.Anything, mock.Anything, mock.Anything, entity.AuditActionEmailVerified, "user", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	dbMock.ExpectCommit()

	err := uc.VerifyEmail(context.Background(), "some-plain-token")

	assert.NoError(t, err)
	assert.True(t, user.IsEmailVerified)
	assert.Nil(t, user.EmailVerifyTokenHash)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestForgotPassword_UnknownEmailReportsSuccess(t *testing.T) {
	db, _ := newTestDB(t)
	userRepo := &MockUserRepository{}
	mailer := &MockMailer{}
	redisClient, _ := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), userRepo, &MockPatientProfileRepository{}, &MockAuditService{}, mailer, newTestJWTService(), redisClient, 10*time.Minute)

	userRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	err := uc.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{Email: "nobody@example.com"})

	assert.NoError(t, err)
	mailer.AssertNotCalled(t, "SendPasswordResetEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRevokeAllSessions(t *testing.T) {
	db, _ := newTestDB(t)
	redisClient, redisMock := redismock.NewClientMock()
	uc := NewAuthUsecase(db, silentLogger(), &MockUserRepository{}, &MockPatientProfileRepository{}, &MockAuditService{}, &MockMailer{}, newTestJWTService(), redisClient, 10*time.Minute)

	userID := uuid.New()
	keys := []string{
		"session:" + userID.String() + ":token-1",
		"session:" + userID.String() + ":token-2",
	}
	redisMock.ExpectKeys("session:" + userID.String() + ":*").SetVal(keys)
	redisMock.ExpectDel(keys...).SetVal(2)

	err := uc.RevokeAllSessions(context.Background(), userID)

	assert.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0987654321", want: "0987654321"},
		{in: "(098) 765-4321", want: "0987654321"},
		{in: "098 765 4321", want: "0987654321"},
		{in: "098765432", wantErr: true},
		{in: "09876543210", wantErr: true},
		{in: "not a phone", wantErr: true},
	}

	for _, tt := range tests {
		got, err := normalizePhoneNumber(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPhoneNumber, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
