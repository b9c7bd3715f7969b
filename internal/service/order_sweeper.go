package service

import (
	"context"
	"time"

	"go-telehealth-booking/internal/domain/repository"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrderSweeper periodically expires payment orders that were created but
// never paid within the slot-hold window, and releases their slot holds.
// The Redis hold TTL already frees the slot on its own; the sweep keeps the
// database state honest and releases holds early after gateway failures.
type OrderSweeper struct {
	db        *gorm.DB
	log       *logrus.Logger
	orderRepo repository.PaymentOrderRepository
	slotHolds *SlotHoldService
	holdTTL   time.Duration

	scheduler *gocron.Scheduler
}

func NewOrderSweeper(
	db *gorm.DB,
	log *logrus.Logger,
	orderRepo repository.PaymentOrderRepository,
	slotHolds *SlotHoldService,
	holdTTL time.Duration,
	interval time.Duration,
) *OrderSweeper {
	s := &OrderSweeper{
		db:        db,
		log:       log,
		orderRepo: orderRepo,
		slotHolds: slotHolds,
		holdTTL:   holdTTL,
		scheduler: gocron.NewScheduler(time.UTC),
	}

	s.scheduler.Every(interval).Do(s.Sweep)

	return s
}

// Start begins sweeping asynchronously.
func (s *OrderSweeper) Start() {
	s.scheduler.StartAsync()
	s.log.Info("Payment order sweeper started")
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *OrderSweeper) Stop() {
	s.scheduler.Stop()
	s.log.Info("Payment order sweeper stopped")
}

// Sweep expires all stale unpaid orders once.
func (s *OrderSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.holdTTL)

	orders, err := s.orderRepo.FindStaleCreated(s.db.WithContext(ctx), cutoff)
	if err != nil {
		s.log.Warnf("Order sweep query failed: %+v", err)
		return
	}

	expired := 0
	for _, order := range orders {
		affected, err := s.orderRepo.MarkExpired(s.db.WithContext(ctx), order.GatewayOrderID)
		if err != nil {
			s.log.Warnf("Failed to expire order %s: %+v", order.GatewayOrderID, err)
			continue
		}
		if affected == 0 {
			// Paid or already expired between query and update.
			continue
		}

		if err := s.slotHolds.Release(ctx, order.DoctorID, order.AppointmentDate, order.TimeSlot, order.ID); err != nil {
			s.log.Warnf("Failed to release hold for expired order %s: %+v", order.GatewayOrderID, err)
		}
		expired++
	}

	if expired > 0 {
		s.log.Infof("Order sweep expired %d stale payment orders", expired)
	}
}
