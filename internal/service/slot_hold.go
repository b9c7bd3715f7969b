package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSlotHeld is returned when another patient holds the slot with a pending
// payment order.
var ErrSlotHeld = errors.New("slot is held by another pending booking")

// releaseIfOwnerScript deletes a hold only if it still belongs to the given
// order, so an expired-and-reacquired hold is never released by the old
// owner. Runs atomically inside Redis.
var releaseIfOwnerScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	// RedisSlotHoldKeyPrefix namespaces slot hold keys.
	RedisSlotHoldKeyPrefix = "slot:hold:"

	// Timeout for individual Redis operations
	slotHoldTimeout = 5 * time.Second
)

// SlotHoldService reserves a (doctor, date, time) slot in Redis for the
// lifetime of a pending payment order. The hold is the concurrency gate
// between "order created" and "payment verified": the database's partial
// unique index on non-cancelled appointments is the backstop, the hold is
// what keeps two patients from both paying for the same slot.
type SlotHoldService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	holdTTL     time.Duration
}

func NewSlotHoldService(redisClient *redis.Client, log *logrus.Logger, holdTTL time.Duration) *SlotHoldService {
	return &SlotHoldService{
		redisClient: redisClient,
		log:         log,
		holdTTL:     holdTTL,
	}
}

// Acquire places a hold owned by the given payment order.
// Returns ErrSlotHeld if another order currently holds the slot.
func (s *SlotHoldService) Acquire(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string, orderID uuid.UUID) error {
	key := slotHoldKey(doctorID, date, timeSlot)

	ok, err := s.redisClient.SetNX(ctx, key, orderID.String(), s.holdTTL).Result()
	if err != nil {
		s.log.Warnf("Failed to acquire slot hold %s: %+v", key, err)
		return fmt.Errorf("acquire slot hold %s: %w", key, err)
	}
	if !ok {
		return ErrSlotHeld
	}

	s.log.Debugf("Slot hold acquired: %s order=%s ttl=%v", key, orderID, s.holdTTL)
	return nil
}

// Release frees a hold if it is still owned by the given order. Used when
// order creation fails downstream of the hold, and by the stale-order
// sweeper. Losing the race is not an error.
func (s *SlotHoldService) Release(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string, orderID uuid.UUID) error {
	key := slotHoldKey(doctorID, date, timeSlot)

	if err := releaseIfOwnerScript.Run(ctx, s.redisClient, []string{key}, orderID.String()).Err(); err != nil {
		s.log.Warnf("Failed to release slot hold %s: %+v", key, err)
		return fmt.Errorf("release slot hold %s: %w", key, err)
	}

	s.log.Debugf("Slot hold released: %s order=%s", key, orderID)
	return nil
}

// Consume removes the hold after the appointment has been persisted. The
// slot is now occupied in the database, so the hold has done its job.
func (s *SlotHoldService) Consume(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string) error {
	key := slotHoldKey(doctorID, date, timeSlot)

	if err := s.redisClient.Del(ctx, key).Err(); err != nil {
		s.log.Warnf("Failed to consume slot hold %s: %+v", key, err)
		return fmt.Errorf("consume slot hold %s: %w", key, err)
	}
	return nil
}

// IsHeld reports whether a pending order currently holds the slot.
func (s *SlotHoldService) IsHeld(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string) (bool, error) {
	key := slotHoldKey(doctorID, date, timeSlot)

	exists, err := s.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check slot hold %s: %w", key, err)
	}
	return exists > 0, nil
}

func slotHoldKey(doctorID uuid.UUID, date time.Time, timeSlot string) string {
	return fmt.Sprintf("%s%s:%s:%s", RedisSlotHoldKeyPrefix, doctorID, date.Format("2006-01-02"), timeSlot)
}
