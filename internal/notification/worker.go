// Package notification pushes maintenance reminders to admins whose browsers
// subscribed to web push. It only reads fleet state.
package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-timesheet-backend/internal/maintenance"
	"fleet-timesheet-backend/internal/metrics"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers that check a machine for due
// maintenance after its hour-meter moved.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	store   *store.Store
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
	metrics metrics.Recorder
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, s *store.Store, webpushOptions *webpush.Options, log *zap.Logger, rec metrics.Recorder) *WorkerPool {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*16),
		db:      db,
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
		metrics: rec,
	}
}

// SetSender replaces the push transport.
func (wp *WorkerPool) SetSender(s NotificationSender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case machineID := <-wp.jobs:
			wp.remindForMachine(ctx, machineID)
		case <-ctx.Done():
			wp.log.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a machine for checking. It never blocks; when the queue is
// full the job is dropped.
func (wp *WorkerPool) Dispatch(machineID string) {
	select {
	case wp.jobs <- machineID:
	default:
		wp.log.Warn("notification queue full, dropping reminder check", zap.String("machine_id", machineID))
	}
}

// HourMeterAdvanced queues the machine for a reminder check.
func (wp *WorkerPool) HourMeterAdvanced(machineID string) {
	wp.Dispatch(machineID)
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

func (wp *WorkerPool) remindForMachine(ctx context.Context, machineID string) {
	machine, err := wp.store.GetMachine(ctx, machineID)
	if err != nil {
		wp.log.Error("failed to load machine for reminders", zap.String("machine_id", machineID), zap.Error(err))
		return
	}
	events, err := wp.store.ListMaintenance(ctx)
	if err != nil {
		wp.log.Error("failed to load maintenance for reminders", zap.String("machine_id", machineID), zap.Error(err))
		return
	}
	due := maintenance.DueReminders(events, machine)
	if len(due) == 0 {
		return
	}

	subscriptions, err := wp.adminSubscriptions(ctx)
	if err != nil {
		wp.log.Error("failed to fetch push subscriptions", zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	wp.log.Info("sending maintenance reminders",
		zap.String("machine_id", machineID),
		zap.Int("due", len(due)),
		zap.Int("subscriptions", len(subscriptions)),
	)
	for _, e := range due {
		message := fmt.Sprintf("%s: %s is due at %.1f h (hour-meter now %.1f h)",
			machine.Name, e.Description, *e.NextDueHourMeter, machine.CurrentHourMeter)
		for _, sub := range subscriptions {
			wp.sendNotification(ctx, sub, []byte(message))
		}
	}
}

// adminSubscriptions returns the subscriptions of active admins.
func (wp *WorkerPool) adminSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	ops, err := wp.store.ListOperators(ctx)
	if err != nil {
		return nil, err
	}
	var adminIDs []string
	for _, o := range ops {
		if o.IsActiveAdmin() {
			adminIDs = append(adminIDs, o.ID)
		}
	}
	if len(adminIDs) == 0 {
		return nil, nil
	}

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Where("operator_id IN ?", adminIDs).Find(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.metrics.IncReminder(false)
		wp.log.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.metrics.IncReminder(false)
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
		return
	}
	wp.metrics.IncReminder(resp.StatusCode < 300)
}
