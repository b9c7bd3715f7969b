package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	testGatewayKeyID  = "rzp_test_key"
	testGatewaySecret = "rzp_test_secret"
	testHoldTTL       = 15 * time.Minute
)

type bookingFixture struct {
	uc          BookingUsecase
	dbMock      sqlmock.Sqlmock
	userRepo    *MockUserRepository
	profileRepo *MockDoctorProfileRepository
	schedRepo   *MockDoctorScheduleRepository
	apptRepo    *MockAppointmentRepository
	orderRepo   *MockPaymentOrderRepository
	audit       *MockAuditService
	gateway     *MockPaymentGateway
	redisMock   redismock.ClientMock
}

func newBookingFixture(t *testing.T) *bookingFixture {
	db, dbMock := newTestDB(t)
	redisClient, redisMock := redismock.NewClientMock()

	f := &bookingFixture{
		dbMock:      dbMock,
		userRepo:    &MockUserRepository{},
		profileRepo: &MockDoctorProfileRepository{},
		schedRepo:   &MockDoctorScheduleRepository{},
		apptRepo:    &MockAppointmentRepository{},
		orderRepo:   &MockPaymentOrderRepository{},
		audit:       &MockAuditService{},
		gateway:     &MockPaymentGateway{},
		redisMock:   redisMock,
	}
	slotHolds := service.NewSlotHoldService(redisClient, silentLogger(), testHoldTTL)
	f.uc = NewBookingUsecase(db, silentLogger(), f.userRepo, f.profileRepo, f.schedRepo, f.apptRepo, f.orderRepo,
		f.audit, slotHolds, f.gateway, testGatewayKeyID, testGatewaySecret, "INR")
	return f
}

func signPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func futureDate() (time.Time, string) {
	d := time.Now().AddDate(0, 0, 2)
	date := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return date, date.Format("2006-01-02")
}

func slotHoldKeyFor(doctorID uuid.UUID, date time.Time, slot string) string {
	return fmt.Sprintf("%s%s:%s:%s", service.RedisSlotHoldKeyPrefix, doctorID, date.Format("2006-01-02"), slot)
}

func verifiedDoctorProfile(doctorID uuid.UUID, fee string) *entity.DoctorProfile {
	return &entity.DoctorProfile{
		UserID:          doctorID,
		LicenseNumber:   "LIC-1234",
		Specialization:  "Dermatology",
		ConsultationFee: decimal.RequireFromString(fee),
		IsVerified:      true,
	}
}

func validOrderRequest(doctorID uuid.UUID, dateStr string) *dto.CreatePaymentOrderRequest {
	return &dto.CreatePaymentOrderRequest{
		DoctorID:        doctorID,
		AppointmentDate: dateStr,
		TimeSlot:        "10:00",
		Intake: dto.IntakeRequest{
			FullName:       "Pat Example",
			PhoneNumber:    "098-765-4321",
			DateOfBirth:    "1990-06-15",
			Gender:         "F",
			Address:        "12 Main St",
			Symptoms:       "persistent rash",
			SevereSymptoms: []string{},
			EmergencyAck:   true,
		},
	}
}

func TestGetAvailableSlots_FiltersPastTakenAndHeld(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	date, _ := futureDate()
	yesterday := time.Now().AddDate(0, 0, -1)
	pastDate := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)

	schedules := []entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: pastDate, TimeSlot: "09:00"},
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "09:00"},
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "10:00"},
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "11:00"},
	}

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, mock.Anything).Return(schedules, nil)

	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "09:00").Return(true, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "10:00").Return(false, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "11:00").Return(false, nil)

	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(1)
	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "11:00")).SetVal(0)

	resp, err := f.uc.GetAvailableSlots(context.Background(), doctorID)

	assert.NoError(t, err)
	assert.Len(t, resp.Slots, 1)
	assert.Equal(t, "11:00", resp.Slots[0].TimeSlot)
}

func TestGetAvailableSlots_UnverifiedDoctor(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()

	profile := verifiedDoctorProfile(doctorID, "500.00")
	profile.IsVerified = false
	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(profile, nil)

	_, err := f.uc.GetAvailableSlots(context.Background(), doctorID)

	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestCreatePaymentOrder_Success(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	patientID := uuid.New()
	date, dateStr := futureDate()

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, date).Return([]entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "10:00"},
	}, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "10:00").Return(false, nil)

	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(0)
	f.redisMock.Regexp().ExpectSetNX(slotHoldKeyFor(doctorID, date, "10:00"), `.*`, testHoldTTL).SetVal(true)

	// 500.00 INR -> 50000 paise
	f.gateway.On("CreateOrder", mock.Anything, int64(50000), "INR", mock.AnythingOfType("string"), mock.Anything).Return("order_rzp_1", nil)

	f.dbMock.ExpectBegin()
	f.orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.PaymentOrder")).Return(nil)
	f.audit.On("LogCreate", mock.Anything, mock.Anything, &patientID, entity.AuditActionOrderCreate, "payment_order", mock.Anything, mock.Anything).Return(nil)
	f.dbMock.ExpectCommit()

	resp, err := f.uc.CreatePaymentOrder(context.Background(), patientID, validOrderRequest(doctorID, dateStr))

	assert.NoError(t, err)
	assert.Equal(t, "order_rzp_1", resp.GatewayOrderID)
	assert.Equal(t, int64(50000), resp.Amount)
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, testGatewayKeyID, resp.KeyID)

	created := f.orderRepo.Calls[0].Arguments.Get(1).(*entity.PaymentOrder)
	assert.Equal(t, entity.PaymentOrderStatusCreated, created.Status)
	assert.Equal(t, "0987654321", created.Intake.PhoneNumber)

	f.gateway.AssertExpectations(t)
	assert.NoError(t, f.dbMock.ExpectationsWereMet())
}

func TestCreatePaymentOrder_SlotHeldByAnotherOrder(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	date, dateStr := futureDate()

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, date).Return([]entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "10:00"},
	}, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "10:00").Return(false, nil)

	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(1)

	_, err := f.uc.CreatePaymentOrder(context.Background(), uuid.New(), validOrderRequest(doctorID, dateStr))

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePaymentOrder_LosesAcquireRace(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	date, dateStr := futureDate()

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, date).Return([]entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "10:00"},
	}, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "10:00").Return(false, nil)

	// The hold appears between the availability check and the SETNX.
	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(0)
	f.redisMock.Regexp().ExpectSetNX(slotHoldKeyFor(doctorID, date, "10:00"), `.*`, testHoldTTL).SetVal(false)

	_, err := f.uc.CreatePaymentOrder(context.Background(), uuid.New(), validOrderRequest(doctorID, dateStr))

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePaymentOrder_SlotNotInSchedule(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	date, dateStr := futureDate()

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, date).Return([]entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "14:00"},
	}, nil)

	_, err := f.uc.CreatePaymentOrder(context.Background(), uuid.New(), validOrderRequest(doctorID, dateStr))

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestCreatePaymentOrder_MissingEmergencyAck(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	_, dateStr := futureDate()

	req := validOrderRequest(doctorID, dateStr)
	req.Intake.EmergencyAck = false

	_, err := f.uc.CreatePaymentOrder(context.Background(), uuid.New(), req)

	assert.ErrorIs(t, err, ErrIntakeEmergencyAck)
	f.profileRepo.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
}

func TestCreatePaymentOrder_MissingSevereSymptomChecklist(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	_, dateStr := futureDate()

	req := validOrderRequest(doctorID, dateStr)
	req.Intake.SevereSymptoms = nil

	_, err := f.uc.CreatePaymentOrder(context.Background(), uuid.New(), req)

	assert.ErrorIs(t, err, ErrIntakeSevereSymptoms)
	f.profileRepo.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
}

func TestCreatePaymentOrder_EmptyChecklistIsValid(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	patientID := uuid.New()
	date, dateStr := futureDate()

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, date).Return([]entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "10:00"},
	}, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "10:00").Return(false, nil)
	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(0)
	f.redisMock.Regexp().ExpectSetNX(slotHoldKeyFor(doctorID, date, "10:00"), `.*`, testHoldTTL).SetVal(true)
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("order_rzp_1", nil)

	f.dbMock.ExpectBegin()
	f.orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.PaymentOrder")).Return(nil)
	f.audit.On("LogCreate", mock.Anything, mock.Anything, &patientID, entity.AuditActionOrderCreate, "payment_order", mock.Anything, mock.Anything).Return(nil)
	f.dbMock.ExpectCommit()

	req := validOrderRequest(doctorID, dateStr)
	req.Intake.SevereSymptoms = []string{}

	_, err := f.uc.CreatePaymentOrder(context.Background(), patientID, req)

	assert.NoError(t, err)
	created := f.orderRepo.Calls[0].Arguments.Get(1).(*entity.PaymentOrder)
	assert.NotNil(t, created.Intake.SevereSymptoms)
	assert.Empty(t, created.Intake.SevereSymptoms)
}

func TestCreatePaymentOrder_BirthDateInFuture(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	_, dateStr := futureDate()

	req := validOrderRequest(doctorID, dateStr)
	req.Intake.DateOfBirth = time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	_, err := f.uc.CreatePaymentOrder(context.Background(), uuid.New(), req)

	assert.ErrorIs(t, err, ErrIntakeBirthDateInFuture)
}

func TestVerifyPayment_CreatesAppointmentOnce(t *testing.T) {
	f := newBookingFixture(t)
	patientID := uuid.New()
	doctorID := uuid.New()
	date, _ := futureDate()

	order := &entity.PaymentOrder{
		ID:              uuid.New(),
		GatewayOrderID:  "order_rzp_1",
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		TimeSlot:        "10:00",
		ConsultationFee: decimal.RequireFromString("500.00"),
		AmountSubunits:  50000,
		Currency:        "INR",
		Status:          entity.PaymentOrderStatusCreated,
	}

	f.orderRepo.On("FindByGatewayOrderID", mock.Anything, "order_rzp_1").Return(order, nil)
	f.orderRepo.On("MarkPaid", mock.Anything, "order_rzp_1", "pay_1").Return(int64(1), nil)

	f.dbMock.ExpectBegin()
	f.apptRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Appointment")).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Appointment).ID = uuid.New()
	}).Return(nil)
	f.audit.On("LogCreate", mock.Anything, mock.Anything, &patientID, entity.AuditActionPaymentVerified, "appointment", mock.Anything, mock.Anything).Return(nil)
	f.dbMock.ExpectCommit()

	f.redisMock.ExpectDel(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(1)

	resp, err := f.uc.VerifyPayment(context.Background(), patientID, &dto.VerifyPaymentRequest{
		GatewayOrderID: "order_rzp_1",
		PaymentID:      "pay_1",
		Signature:      signPayment(testGatewaySecret, "order_rzp_1", "pay_1"),
	})

	assert.NoError(t, err)
	assert.Equal(t, "upcoming", resp.Status)
	assert.Equal(t, doctorID, resp.DoctorID)

	created := f.apptRepo.Calls[0].Arguments.Get(1).(*entity.Appointment)
	assert.Equal(t, &order.ID, created.PaymentOrderID)
	assert.True(t, created.ConsultationFee.Equal(order.ConsultationFee))
	assert.NoError(t, f.dbMock.ExpectationsWereMet())
	assert.NoError(t, f.redisMock.ExpectationsWereMet())
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	f := newBookingFixture(t)
	patientID := uuid.New()

	order := &entity.PaymentOrder{
		ID:             uuid.New(),
		GatewayOrderID: "order_rzp_1",
		PatientID:      patientID,
		Status:         entity.PaymentOrderStatusCreated,
	}
	f.orderRepo.On("FindByGatewayOrderID", mock.Anything, "order_rzp_1").Return(order, nil)

	_, err := f.uc.VerifyPayment(context.Background(), patientID, &dto.VerifyPaymentRequest{
		GatewayOrderID: "order_rzp_1",
		PaymentID:      "pay_1",
		Signature:      "forged-signature",
	})

	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
	f.orderRepo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	f.apptRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerifyPayment_WrongPatient(t *testing.T) {
	f := newBookingFixture(t)

	order := &entity.PaymentOrder{
		ID:             uuid.New(),
		GatewayOrderID: "order_rzp_1",
		PatientID:      uuid.New(),
		Status:         entity.PaymentOrderStatusCreated,
	}
	f.orderRepo.On("FindByGatewayOrderID", mock.Anything, "order_rzp_1").Return(order, nil)

	_, err := f.uc.VerifyPayment(context.Background(), uuid.New(), &dto.VerifyPaymentRequest{
		GatewayOrderID: "order_rzp_1",
		PaymentID:      "pay_1",
		Signature:      signPayment(testGatewaySecret, "order_rzp_1", "pay_1"),
	})

	assert.ErrorIs(t, err, ErrPaymentOrderNotFound)
}

func TestVerifyPayment_ExpiredOrder(t *testing.T) {
	f := newBookingFixture(t)
	patientID := uuid.New()

	order := &entity.PaymentOrder{
		ID:             uuid.New(),
		GatewayOrderID: "order_rzp_1",
		PatientID:      patientID,
		Status:         entity.PaymentOrderStatusExpired,
	}
	f.orderRepo.On("FindByGatewayOrderID", mock.Anything, "order_rzp_1").Return(order, nil)

	_, err := f.uc.VerifyPayment(context.Background(), patientID, &dto.VerifyPaymentRequest{
		GatewayOrderID: "order_rzp_1",
		PaymentID:      "pay_1",
		Signature:      signPayment(testGatewaySecret, "order_rzp_1", "pay_1"),
	})

	assert.ErrorIs(t, err, ErrPaymentOrderExpired)
	f.orderRepo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyPayment_DuplicateDeliveryReturnsExistingAppointment(t *testing.T) {
	f := newBookingFixture(t)
	patientID := uuid.New()
	doctorID := uuid.New()
	date, _ := futureDate()

	order := &entity.PaymentOrder{
		ID:              uuid.New(),
		GatewayOrderID:  "order_rzp_1",
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		TimeSlot:        "10:00",
		ConsultationFee: decimal.RequireFromString("500.00"),
		Status:          entity.PaymentOrderStatusPaid,
	}
	existing := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		TimeSlot:        "10:00",
		ConsultationFee: order.ConsultationFee,
		Status:          entity.AppointmentStatusUpcoming,
		PaymentOrderID:  &order.ID,
	}

	f.orderRepo.On("FindByGatewayOrderID", mock.Anything, "order_rzp_1").Return(order, nil)
	f.dbMock.ExpectBegin()
	f.orderRepo.On("MarkPaid", mock.Anything, "order_rzp_1", "pay_1").Return(int64(0), nil)
	f.apptRepo.On("FindByPaymentOrderID", mock.Anything, order.ID).Return(existing, nil)
	f.dbMock.ExpectRollback()

	resp, err := f.uc.VerifyPayment(context.Background(), patientID, &dto.VerifyPaymentRequest{
		GatewayOrderID: "order_rzp_1",
		PaymentID:      "pay_1",
		Signature:      signPayment(testGatewaySecret, "order_rzp_1", "pay_1"),
	})

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, resp.ID)
	f.apptRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.NoError(t, f.dbMock.ExpectationsWereMet())
}

func TestVerifyPayment_SlotRaceRollsOrderBackForRedelivery(t *testing.T) {
	f := newBookingFixture(t)
	patientID := uuid.New()
	doctorID := uuid.New()
	date, _ := futureDate()

	order := &entity.PaymentOrder{
		ID:              uuid.New(),
		GatewayOrderID:  "order_rzp_1",
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		TimeSlot:        "10:00",
		ConsultationFee: decimal.RequireFromString("500.00"),
		Status:          entity.PaymentOrderStatusCreated,
	}
	req := &dto.VerifyPaymentRequest{
		GatewayOrderID: "order_rzp_1",
		PaymentID:      "pay_1",
		Signature:      signPayment(testGatewaySecret, "order_rzp_1", "pay_1"),
	}

	f.orderRepo.On("FindByGatewayOrderID", mock.Anything, "order_rzp_1").Return(order, nil)

	// First delivery: the insert loses to a concurrent booking on the slot
	// index, and the rollback must take the paid mark down with it.
	f.dbMock.ExpectBegin()
	f.orderRepo.On("MarkPaid", mock.Anything, "order_rzp_1", "pay_1").Return(int64(1), nil).Once()
	f.apptRepo.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_appointments_active_slot",
	}).Once()
	f.dbMock.ExpectRollback()

	_, err := f.uc.VerifyPayment(context.Background(), patientID, req)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	// Redelivery of the same confirmation: the order is still created, so
	// the conditional update wins again and the booking completes.
	f.dbMock.ExpectBegin()
	f.orderRepo.On("MarkPaid", mock.Anything, "order_rzp_1", "pay_1").Return(int64(1), nil).Once()
	f.apptRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Appointment")).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Appointment).ID = uuid.New()
	}).Return(nil).Once()
	f.audit.On("LogCreate", mock.Anything, mock.Anything, &patientID, entity.AuditActionPaymentVerified, "appointment", mock.Anything, mock.Anything).Return(nil)
	f.dbMock.ExpectCommit()
	f.redisMock.ExpectDel(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(1)

	resp, err := f.uc.VerifyPayment(context.Background(), patientID, req)

	assert.NoError(t, err)
	assert.Equal(t, "upcoming", resp.Status)
	assert.NoError(t, f.dbMock.ExpectationsWereMet())
	assert.NoError(t, f.redisMock.ExpectationsWereMet())
}

func TestVerifyPayment_GatewayOrderUnknown(t *testing.T) {
	f := newBookingFixture(t)

	f.orderRepo.On("FindByGatewayOrderID", mock.Anything, "order_rzp_x").Return(nil, nil)

	_, err := f.uc.VerifyPayment(context.Background(), uuid.New(), &dto.VerifyPaymentRequest{
		GatewayOrderID: "order_rzp_x",
		PaymentID:      "pay_1",
		Signature:      "whatever",
	})

	assert.ErrorIs(t, err, ErrPaymentOrderNotFound)
}

func TestBookDirect_RaceLosesToUniqueIndex(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	date, dateStr := futureDate()

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, date).Return([]entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "10:00"},
	}, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "10:00").Return(false, nil)
	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(0)

	f.dbMock.ExpectBegin()
	f.apptRepo.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_appointments_active_slot",
	})
	f.dbMock.ExpectRollback()

	_, err := f.uc.BookDirect(context.Background(), uuid.New(), validOrderRequest(doctorID, dateStr))

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestBookDirect_SlotHeldByPendingOrder(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	date, dateStr := futureDate()

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, date).Return([]entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "10:00"},
	}, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "10:00").Return(false, nil)

	// Another patient is mid-payment on the slot.
	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(1)

	_, err := f.uc.BookDirect(context.Background(), uuid.New(), validOrderRequest(doctorID, dateStr))

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	f.apptRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.NoError(t, f.redisMock.ExpectationsWereMet())
}

func TestCreatePaymentOrder_GatewayFailureReleasesHold(t *testing.T) {
	f := newBookingFixture(t)
	doctorID := uuid.New()
	date, dateStr := futureDate()

	f.profileRepo.On("FindByUserID", mock.Anything, doctorID).Return(verifiedDoctorProfile(doctorID, "500.00"), nil)
	f.schedRepo.On("FindByDoctorIDFromDate", mock.Anything, doctorID, date).Return([]entity.DoctorSchedule{
		{DoctorID: doctorID, ScheduleDate: date, TimeSlot: "10:00"},
	}, nil)
	f.apptRepo.On("SlotTaken", mock.Anything, doctorID, date, "10:00").Return(false, nil)

	f.redisMock.ExpectExists(slotHoldKeyFor(doctorID, date, "10:00")).SetVal(0)
	f.redisMock.Regexp().ExpectSetNX(slotHoldKeyFor(doctorID, date, "10:00"), `.*`, testHoldTTL).SetVal(true)
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("gateway unavailable"))

	_, err := f.uc.CreatePaymentOrder(context.Background(), uuid.New(), validOrderRequest(doctorID, dateStr))

	assert.Error(t, err)
	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
