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
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound            = errors.New("doctor not found or not verified")
	ErrSlotNotAvailable          = errors.New("slot is not available")
	ErrSlotInPast                = errors.New("slot is in the past")
	ErrIntakeEmergencyAck        = errors.New("emergency disclaimer must be acknowledged")
	ErrIntakeSevereSymptoms      = errors.New("severe symptom checklist must be submitted, empty if none apply")
	ErrIntakeBirthDateInFuture   = errors.New("date of birth cannot be in the future")
	ErrPaymentOrderNotFound      = errors.New("payment order not found")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrPaymentOrderExpired       = errors.New("payment order has expired")
)

// subunitsPerUnit converts the decimal fee to gateway subunits (paise).
var subunitsPerUnit = decimal.NewFromInt(100)

type BookingUsecase interface {
	GetAvailableSlots(ctx context.Context, doctorID uuid.UUID) (*dto.AvailableSlotsResponse, error)
	CreatePaymentOrder(ctx context.Context, patientID uuid.UUID, req *dto.CreatePaymentOrderRequest) (*dto.PaymentOrderResponse, error)
	VerifyPayment(ctx context.Context, patientID uuid.UUID, req *dto.VerifyPaymentRequest) (*dto.AppointmentResponse, error)
	BookDirect(ctx context.Context, patientID uuid.UUID, req *dto.CreatePaymentOrderRequest) (*dto.AppointmentResponse, error)
}

type bookingUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	userRepo          repository.UserRepository
	doctorProfileRepo repository.DoctorProfileRepository
	scheduleRepo      repository.DoctorScheduleRepository
	appointmentRepo   repository.AppointmentRepository
	paymentOrderRepo  repository.PaymentOrderRepository
	auditService      service.AuditService
	slotHolds         *service.SlotHoldService
	gateway           service.PaymentGateway
	gatewayKeyID      string
	gatewaySecret     string
	currency          string
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	scheduleRepo repository.DoctorScheduleRepository,
	appointmentRepo repository.AppointmentRepository,
	paymentOrderRepo repository.PaymentOrderRepository,
	auditService service.AuditService,
	slotHolds *service.SlotHoldService,
	gateway service.PaymentGateway,
	gatewayKeyID string,
	gatewaySecret string,
	currency string,
) BookingUsecase {
	return &bookingUsecase{
		db:                db,
		log:               log,
		userRepo:          userRepo,
		doctorProfileRepo: doctorProfileRepo,
		scheduleRepo:      scheduleRepo,
		appointmentRepo:   appointmentRepo,
		paymentOrderRepo:  paymentOrderRepo,
		auditService:      auditService,
		slotHolds:         slotHolds,
		gateway:           gateway,
		gatewayKeyID:      gatewayKeyID,
		gatewaySecret:     gatewaySecret,
		currency:          currency,
	}
}

// GetAvailableSlots lists the doctor's bookable slots: strictly in the
// future, not occupied by a non-cancelled appointment, not held by a pending
// payment order.
func (u *bookingUsecase) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID) (*dto.AvailableSlotsResponse, error) {
	db := u.db.WithContext(ctx)

	profile, err := u.doctorProfileRepo.FindByUserID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if profile == nil || !profile.IsVerified {
		return nil, ErrDoctorNotFound
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	schedules, err := u.scheduleRepo.FindByDoctorIDFromDate(db, doctorID, today)
	if err != nil {
		u.log.Warnf("Failed to list doctor schedules: %+v", err)
		return nil, err
	}

	available := make([]entity.DoctorSchedule, 0, len(schedules))
	for _, slot := range schedules {
		if !slot.StartsAt().After(now) {
			continue
		}

		taken, err := u.appointmentRepo.SlotTaken(db, doctorID, slot.ScheduleDate, slot.TimeSlot)
		if err != nil {
			u.log.Warnf("Failed to check slot occupancy: %+v", err)
			return nil, err
		}
		if taken {
			continue
		}

		held, err := u.slotHolds.IsHeld(ctx, doctorID, slot.ScheduleDate, slot.TimeSlot)
		if err != nil {
			u.log.Warnf("Failed to check slot hold: %+v", err)
			return nil, err
		}
		if held {
			continue
		}

		available = append(available, slot)
	}

	return &dto.AvailableSlotsResponse{
		DoctorID: doctorID,
		Slots:    converter.SchedulesToSlotResponses(available),
	}, nil
}

// CreatePaymentOrder validates the intake, reserves the slot in Redis for the
// hold TTL, creates the gateway order and persists the payment order row. No
// appointment exists until the payment is verified.
func (u *bookingUsecase) CreatePaymentOrder(ctx context.Context, patientID uuid.UUID, req *dto.CreatePaymentOrderRequest) (*dto.PaymentOrderResponse, error) {
	db := u.db.WithContext(ctx)

	date, intake, err := u.validateIntake(req)
	if err != nil {
		return nil, err
	}

	profile, err := u.requireBookableSlot(ctx, db, req.DoctorID, date, req.TimeSlot)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	if err := u.slotHolds.Acquire(ctx, req.DoctorID, date, req.TimeSlot, orderID); err != nil {
		if errors.Is(err, service.ErrSlotHeld) {
			return nil, ErrSlotNotAvailable
		}
		return nil, err
	}

	// Anything failing past this point must free the hold, or the slot
	// stays blocked for the full TTL with no order behind it.
	fee := profile.ConsultationFee
	amountSubunits := fee.Mul(subunitsPerUnit).IntPart()

	gatewayOrderID, err := u.gateway.CreateOrder(ctx, amountSubunits, u.currency, orderID.String(), map[string]interface{}{
		"doctor_id":  req.DoctorID.String(),
		"patient_id": patientID.String(),
	})
	if err != nil {
		u.releaseHold(ctx, req.DoctorID, date, req.TimeSlot, orderID)
		return nil, err
	}

	order := &entity.PaymentOrder{
		ID:              orderID,
		GatewayOrderID:  gatewayOrderID,
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: date,
		TimeSlot:        req.TimeSlot,
		Intake:          intake,
		ConsultationFee: fee,
		AmountSubunits:  amountSubunits,
		Currency:        u.currency,
		Status:          entity.PaymentOrderStatusCreated,
	}

	tx := db.Begin()
	defer tx.Rollback()

	if err := u.paymentOrderRepo.Create(tx, order); err != nil {
		u.log.Warnf("Failed to create payment order: %+v", err)
		u.releaseHold(ctx, req.DoctorID, date, req.TimeSlot, orderID)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &patientID, entity.AuditActionOrderCreate, "payment_order", order.ID.String(), map[string]interface{}{
		"gateway_order_id": gatewayOrderID,
		"amount_subunits":  amountSubunits,
	}); err != nil {
		u.releaseHold(ctx, req.DoctorID, date, req.TimeSlot, orderID)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		u.releaseHold(ctx, req.DoctorID, date, req.TimeSlot, orderID)
		return nil, err
	}

	return converter.PaymentOrderToResponse(order, u.gatewayKeyID), nil
}

// VerifyPayment checks the gateway signature and, exactly once per order,
// turns the paid order into an upcoming appointment. A duplicate delivery
// loses the conditional update and gets the already-created appointment back.
func (u *bookingUsecase) VerifyPayment(ctx context.Context, patientID uuid.UUID, req *dto.VerifyPaymentRequest) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)

	order, err := u.paymentOrderRepo.FindByGatewayOrderID(db, req.GatewayOrderID)
	if err != nil {
		u.log.Warnf("Failed to find payment order: %+v", err)
		return nil, err
	}
	if order == nil || order.PatientID != patientID {
		return nil, ErrPaymentOrderNotFound
	}

	if !service.VerifyPaymentSignature(u.gatewaySecret, req.GatewayOrderID, req.PaymentID, req.Signature) {
		u.log.Warnf("Payment signature mismatch for order %s", req.GatewayOrderID)
		return nil, ErrPaymentVerificationFailed
	}

	if order.Status == entity.PaymentOrderStatusExpired {
		return nil, ErrPaymentOrderExpired
	}

	tx := db.Begin()
	defer tx.Rollback()

	// MarkPaid and the appointment insert share one transaction: a failed
	// insert rolls the order back to created, so the gateway's redelivery of
	// the same confirmation can still complete the booking. An order must
	// never sit paid without an appointment behind it.
	rows, err := u.paymentOrderRepo.MarkPaid(tx, req.GatewayOrderID, req.PaymentID)
	if err != nil {
		u.log.Warnf("Failed to mark payment order paid: %+v", err)
		return nil, err
	}
	if rows == 0 {
		// Duplicate delivery: an earlier verification committed the
		// appointment, return it. With no appointment the order can only
		// have been expired by the sweeper after the status read above.
		existing, err := u.appointmentRepo.FindByPaymentOrderID(tx, order.ID)
		if err != nil {
			u.log.Warnf("Failed to find appointment for paid order: %+v", err)
			return nil, err
		}
		if existing == nil {
			return nil, ErrPaymentOrderExpired
		}
		return converter.AppointmentToResponse(existing, true), nil
	}

	appointment := &entity.Appointment{
		PatientID:       order.PatientID,
		DoctorID:        order.DoctorID,
		AppointmentDate: order.AppointmentDate,
		TimeSlot:        order.TimeSlot,
		Intake:          order.Intake,
		ConsultationFee: order.ConsultationFee,
		Status:          entity.AppointmentStatusUpcoming,
		PaymentOrderID:  &order.ID,
	}

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		if isDuplicateKeyError(err, "slot") {
			return nil, ErrSlotNotAvailable
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &patientID, entity.AuditActionPaymentVerified, "appointment", appointment.ID.String(), map[string]interface{}{
		"gateway_order_id": order.GatewayOrderID,
		"payment_id":       req.PaymentID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	// The DB row now occupies the slot; drop the Redis hold.
	if err := u.slotHolds.Consume(ctx, order.DoctorID, order.AppointmentDate, order.TimeSlot); err != nil {
		u.log.Warnf("Failed to consume slot hold: %+v", err)
	}

	return converter.AppointmentToResponse(appointment, true), nil
}

// BookDirect books a slot without the payment leg. Kept for internal and
// fee-waived flows; the fee is still snapshotted from the doctor profile.
func (u *bookingUsecase) BookDirect(ctx context.Context, patientID uuid.UUID, req *dto.CreatePaymentOrderRequest) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)

	date, intake, err := u.validateIntake(req)
	if err != nil {
		return nil, err
	}

	profile, err := u.requireBookableSlot(ctx, db, req.DoctorID, date, req.TimeSlot)
	if err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: date,
		TimeSlot:        req.TimeSlot,
		Intake:          intake,
		ConsultationFee: profile.ConsultationFee,
		Status:          entity.AppointmentStatusUpcoming,
	}

	tx := db.Begin()
	defer tx.Rollback()

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		if isDuplicateKeyError(err, "slot") {
			return nil, ErrSlotNotAvailable
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &patientID, entity.AuditActionAppointmentBook, "appointment", appointment.ID.String(), map[string]interface{}{
		"doctor_id": req.DoctorID.String(),
		"date":      req.AppointmentDate,
		"time_slot": req.TimeSlot,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.AppointmentToResponse(appointment, true), nil
}

// validateIntake applies the server-side intake rules: date formats, phone
// shape, birth date not in the future, emergency acknowledgement, and the
// severe-symptom checklist answered (an empty answer is valid, omission is
// not).
func (u *bookingUsecase) validateIntake(req *dto.CreatePaymentOrderRequest) (time.Time, entity.Intake, error) {
	date, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		return time.Time{}, entity.Intake{}, ErrInvalidDateFormat
	}

	dob, err := time.Parse("2006-01-02", req.Intake.DateOfBirth)
	if err != nil {
		return time.Time{}, entity.Intake{}, ErrInvalidDateFormat
	}
	if dob.After(time.Now()) {
		return time.Time{}, entity.Intake{}, ErrIntakeBirthDateInFuture
	}

	phone, err := normalizePhoneNumber(req.Intake.PhoneNumber)
	if err != nil {
		return time.Time{}, entity.Intake{}, err
	}

	if !req.Intake.EmergencyAck {
		return time.Time{}, entity.Intake{}, ErrIntakeEmergencyAck
	}

	// A nil slice means the client never submitted the checklist; an empty
	// one means it was answered with nothing ticked.
	if req.Intake.SevereSymptoms == nil {
		return time.Time{}, entity.Intake{}, ErrIntakeSevereSymptoms
	}

	intake := converter.IntakeToEntity(&req.Intake)
	intake.PhoneNumber = phone

	return date, intake, nil
}

// requireBookableSlot checks the doctor is verified and the slot exists in
// the schedule, lies in the future, is not already occupied, and is not held
// by another patient's pending payment order.
func (u *bookingUsecase) requireBookableSlot(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time, timeSlot string) (*entity.DoctorProfile, error) {
	profile, err := u.doctorProfileRepo.FindByUserID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if profile == nil || !profile.IsVerified {
		return nil, ErrDoctorNotFound
	}

	schedules, err := u.scheduleRepo.FindByDoctorIDFromDate(db, doctorID, date)
	if err != nil {
		u.log.Warnf("Failed to list doctor schedules: %+v", err)
		return nil, err
	}
	scheduled := false
	for _, slot := range schedules {
		if slot.ScheduleDate.Equal(date) && slot.TimeSlot == timeSlot {
			scheduled = true
			break
		}
	}
	if !scheduled {
		return nil, ErrSlotNotAvailable
	}

	if !entity.SlotStartsAt(date, timeSlot).After(time.Now()) {
		return nil, ErrSlotInPast
	}

	taken, err := u.appointmentRepo.SlotTaken(db, doctorID, date, timeSlot)
	if err != nil {
		u.log.Warnf("Failed to check slot occupancy: %+v", err)
		return nil, err
	}
	if taken {
		return nil, ErrSlotNotAvailable
	}

	held, err := u.slotHolds.IsHeld(ctx, doctorID, date, timeSlot)
	if err != nil {
		u.log.Warnf("Failed to check slot hold: %+v", err)
		return nil, err
	}
	if held {
		return nil, ErrSlotNotAvailable
	}

	return profile, nil
}

func (u *bookingUsecase) releaseHold(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string, orderID uuid.UUID) {
	if err := u.slotHolds.Release(ctx, doctorID, date, timeSlot, orderID); err != nil {
		u.log.Warnf("Failed to release slot hold after error: %+v", err)
	}
}
