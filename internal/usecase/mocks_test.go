package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/repository"
	"go-telehealth-booking/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB returns a gorm DB backed by sqlmock. Repository calls are mocked
// out, so tests only script the transaction boundaries (Begin/Commit).
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(db *gorm.DB, user *entity.User) error {
	args := m.Called(db, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	args := m.Called(db, id)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(db *gorm.DB, email string) (*entity.User, error) {
	args := m.Called(db, email)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) FindByEmailVerifyTokenHash(db *gorm.DB, hash string) (*entity.User, error) {
	args := m.Called(db, hash)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) FindByResetTokenHash(db *gorm.DB, hash string) (*entity.User, error) {
	args := m.Called(db, hash)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) Update(db *gorm.DB, user *entity.User) error {
	args := m.Called(db, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(db, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) FindAll(db *gorm.DB, filter *repository.UserFilter, limit, offset int) ([]entity.User, int64, error) {
	args := m.Called(db, filter, limit, offset)
	users, _ := args.Get(0).([]entity.User)
	return users, args.Get(1).(int64), args.Error(2)
}

// MockPatientProfileRepository is a mock implementation of repository.PatientProfileRepository
type MockPatientProfileRepository struct {
	mock.Mock
}

func (m *MockPatientProfileRepository) Create(db *gorm.DB, profile *entity.PatientProfile) error {
	args := m.Called(db, profile)
	return args.Error(0)
}

func (m *MockPatientProfileRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	args := m.Called(db, userID)
	profile, _ := args.Get(0).(*entity.PatientProfile)
	return profile, args.Error(1)
}

func (m *MockPatientProfileRepository) Update(db *gorm.DB, profile *entity.PatientProfile) error {
	args := m.Called(db, profile)
	return args.Error(0)
}

// MockDoctorProfileRepository is a mock implementation of repository.DoctorProfileRepository
type MockDoctorProfileRepository struct {
	mock.Mock
}

func (m *MockDoctorProfileRepository) Create(db *gorm.DB, profile *entity.DoctorProfile) error {
	args := m.Called(db, profile)
	return args.Error(0)
}

func (m *MockDoctorProfileRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	args := m.Called(db, userID)
	profile, _ := args.Get(0).(*entity.DoctorProfile)
	return profile, args.Error(1)
}

func (m *MockDoctorProfileRepository) FindAllVerified(db *gorm.DB) ([]entity.DoctorProfile, error) {
	args := m.Called(db)
	profiles, _ := args.Get(0).([]entity.DoctorProfile)
	return profiles, args.Error(1)
}

func (m *MockDoctorProfileRepository) Update(db *gorm.DB, profile *entity.DoctorProfile) error {
	args := m.Called(db, profile)
	return args.Error(0)
}

func (m *MockDoctorProfileRepository) SetVerified(db *gorm.DB, userID uuid.UUID, verified bool) (int64, error) {
	args := m.Called(db, userID, verified)
	return args.Get(0).(int64), args.Error(1)
}

// MockDoctorScheduleRepository is a mock implementation of repository.DoctorScheduleRepository
type MockDoctorScheduleRepository struct {
	mock.Mock
}

func (m *MockDoctorScheduleRepository) Create(db *gorm.DB, schedule *entity.DoctorSchedule) error {
	args := m.Called(db, schedule)
	return args.Error(0)
}

func (m *MockDoctorScheduleRepository) FindByID(db *gorm.DB, id int) (*entity.DoctorSchedule, error) {
	args := m.Called(db, id)
	schedule, _ := args.Get(0).(*entity.DoctorSchedule)
	return schedule, args.Error(1)
}

func (m *MockDoctorScheduleRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorSchedule, error) {
	args := m.Called(db, doctorID)
	schedules, _ := args.Get(0).([]entity.DoctorSchedule)
	return schedules, args.Error(1)
}

func (m *MockDoctorScheduleRepository) FindByDoctorIDFromDate(db *gorm.DB, doctorID uuid.UUID, from time.Time) ([]entity.DoctorSchedule, error) {
	args := m.Called(db, doctorID, from)
	schedules, _ := args.Get(0).([]entity.DoctorSchedule)
	return schedules, args.Error(1)
}

func (m *MockDoctorScheduleRepository) FindAll(db *gorm.DB) ([]entity.DoctorSchedule, error) {
	args := m.Called(db)
	schedules, _ := args.Get(0).([]entity.DoctorSchedule)
	return schedules, args.Error(1)
}

func (m *MockDoctorScheduleRepository) Update(db *gorm.DB, schedule *entity.DoctorSchedule) error {
	args := m.Called(db, schedule)
	return args.Error(0)
}

func (m *MockDoctorScheduleRepository) Delete(db *gorm.DB, id int) (int64, error) {
	args := m.Called(db, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockAppointmentRepository is a mock implementation of repository.AppointmentRepository
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	args := m.Called(db, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	args := m.Called(db, id)
	appointment, _ := args.Get(0).(*entity.Appointment)
	return appointment, args.Error(1)
}

func (m *MockAppointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	args := m.Called(db, patientID)
	appointments, _ := args.Get(0).([]entity.Appointment)
	return appointments, args.Error(1)
}

func (m *MockAppointmentRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	args := m.Called(db, doctorID)
	appointments, _ := args.Get(0).([]entity.Appointment)
	return appointments, args.Error(1)
}

func (m *MockAppointmentRepository) FindByPaymentOrderID(db *gorm.DB, orderID uuid.UUID) (*entity.Appointment, error) {
	args := m.Called(db, orderID)
	appointment, _ := args.Get(0).(*entity.Appointment)
	return appointment, args.Error(1)
}

func (m *MockAppointmentRepository) SlotTaken(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeSlot string) (bool, error) {
	args := m.Called(db, doctorID, date, timeSlot)
	return args.Bool(0), args.Error(1)
}

func (m *MockAppointmentRepository) Complete(db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(db, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) Cancel(db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(db, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) SetTriage(db *gorm.DB, id uuid.UUID, priority, label string) (int64, error) {
	args := m.Called(db, id, priority, label)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentOrderRepository is a mock implementation of repository.PaymentOrderRepository
type MockPaymentOrderRepository struct {
	mock.Mock
}

func (m *MockPaymentOrderRepository) Create(db *gorm.DB, order *entity.PaymentOrder) error {
	args := m.Called(db, order)
	return args.Error(0)
}

func (m *MockPaymentOrderRepository) FindByGatewayOrderID(db *gorm.DB, gatewayOrderID string) (*entity.PaymentOrder, error) {
	args := m.Called(db, gatewayOrderID)
	order, _ := args.Get(0).(*entity.PaymentOrder)
	return order, args.Error(1)
}

func (m *MockPaymentOrderRepository) MarkPaid(db *gorm.DB, gatewayOrderID string, paymentID string) (int64, error) {
	args := m.Called(db, gatewayOrderID, paymentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentOrderRepository) FindStaleCreated(db *gorm.DB, cutoff time.Time) ([]entity.PaymentOrder, error) {
	args := m.Called(db, cutoff)
	orders, _ := args.Get(0).([]entity.PaymentOrder)
	return orders, args.Error(1)
}

func (m *MockPaymentOrderRepository) MarkExpired(db *gorm.DB, gatewayOrderID string) (int64, error) {
	args := m.Called(db, gatewayOrderID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMedicalRecordRepository is a mock implementation of repository.MedicalRecordRepository
type MockMedicalRecordRepository struct {
	mock.Mock
}

func (m *MockMedicalRecordRepository) Create(db *gorm.DB, record *entity.MedicalRecord) error {
	args := m.Called(db, record)
	return args.Error(0)
}

func (m *MockMedicalRecordRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.MedicalRecord, error) {
	args := m.Called(db, id)
	record, _ := args.Get(0).(*entity.MedicalRecord)
	return record, args.Error(1)
}

func (m *MockMedicalRecordRepository) FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) (*entity.MedicalRecord, error) {
	args := m.Called(db, appointmentID)
	record, _ := args.Get(0).(*entity.MedicalRecord)
	return record, args.Error(1)
}

func (m *MockMedicalRecordRepository) Update(db *gorm.DB, record *entity.MedicalRecord) error {
	args := m.Called(db, record)
	return args.Error(0)
}

// MockAuditService is a mock implementation of service.AuditService
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	args := m.Called(ctx, tx, userID, action, entityName, entityID, newValue)
	return args.Error(0)
}

func (m *MockAuditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	args := m.Called(ctx, tx, userID, action, entityName, entityID, oldValue, newValue)
	return args.Error(0)
}

func (m *MockAuditService) LogDelete(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error {
	args := m.Called(ctx, tx, userID, action, entityName, entityID, oldValue)
	return args.Error(0)
}

// MockMailer is a mock implementation of service.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(ctx context.Context, toEmail, toName, plainToken string) error {
	args := m.Called(ctx, toEmail, toName, plainToken)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, toEmail, toName, plainToken string) error {
	args := m.Called(ctx, toEmail, toName, plainToken)
	return args.Error(0)
}

func (m *MockMailer) SendPrescriptionSummary(ctx context.Context, toEmail, toName string, summary service.PrescriptionSummary) error {
	args := m.Called(ctx, toEmail, toName, summary)
	return args.Error(0)
}

// MockNotifier records enqueued notifications instead of delivering them.
type MockNotifier struct {
	Enqueued []service.PrescriptionIssued
}

func (m *MockNotifier) EnqueuePrescriptionIssued(n service.PrescriptionIssued) {
	m.Enqueued = append(m.Enqueued, n)
}

// MockPaymentGateway is a mock implementation of service.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, amountSubunits int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	args := m.Called(ctx, amountSubunits, currency, receipt, notes)
	return args.String(0), args.Error(1)
}
