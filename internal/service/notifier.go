package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// notifyQueueSize bounds the in-flight notification backlog.
	notifyQueueSize = 256

	// notifySendTimeout caps one delivery attempt.
	notifySendTimeout = 10 * time.Second
)

// PrescriptionIssued is the notification payload queued after a prescription
// is persisted.
type PrescriptionIssued struct {
	PatientEmail string
	PatientName  string
	Summary      PrescriptionSummary
}

// Notifier dispatches best-effort notifications. Enqueue never blocks and
// never returns an error: the primary write has already succeeded and must
// not be contingent on email delivery. Failures are observable in logs only.
type Notifier interface {
	EnqueuePrescriptionIssued(n PrescriptionIssued)
}

// AsyncNotifier runs a single background worker draining a bounded queue.
// Call Stop() during graceful shutdown.
type AsyncNotifier struct {
	mailer Mailer
	log    *logrus.Logger

	queue    chan PrescriptionIssued
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

func NewAsyncNotifier(mailer Mailer, log *logrus.Logger) *AsyncNotifier {
	n := &AsyncNotifier{
		mailer:   mailer,
		log:      log,
		queue:    make(chan PrescriptionIssued, notifyQueueSize),
		stopChan: make(chan struct{}),
	}

	n.wg.Add(1)
	go n.worker()

	return n
}

func (n *AsyncNotifier) EnqueuePrescriptionIssued(msg PrescriptionIssued) {
	if n.stopped.Load() {
		n.log.Warnf("Notifier stopped, dropping prescription notification for %s", msg.PatientEmail)
		return
	}
	select {
	case n.queue <- msg:
	default:
		// Queue full. Drop rather than block the request path.
		n.log.Warnf("Notification queue full, dropping prescription notification for %s", msg.PatientEmail)
	}
}

// Stop drains nothing: queued notifications still in the channel are
// delivered before the worker exits, new enqueues are dropped.
func (n *AsyncNotifier) Stop() {
	if n.stopped.CompareAndSwap(false, true) {
		close(n.stopChan)
		n.wg.Wait()
		n.log.Info("Notifier stopped")
	}
}

func (n *AsyncNotifier) worker() {
	defer n.wg.Done()

	for {
		select {
		case msg := <-n.queue:
			n.deliver(msg)
		case <-n.stopChan:
			// Flush what is already queued.
			for {
				select {
				case msg := <-n.queue:
					n.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (n *AsyncNotifier) deliver(msg PrescriptionIssued) {
	ctx, cancel := context.WithTimeout(context.Background(), notifySendTimeout)
	defer cancel()

	if err := n.mailer.SendPrescriptionSummary(ctx, msg.PatientEmail, msg.PatientName, msg.Summary); err != nil {
		// Logged, never propagated: the stored record is the source of truth.
		n.log.Warnf("Failed to send prescription summary to %s: %+v", msg.PatientEmail, err)
		return
	}
	n.log.Infof("Prescription summary sent to %s", msg.PatientEmail)
}
