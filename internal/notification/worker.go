package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"facility-asset-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// StatusChange is one committed status transition to fan out to the
// department's subscribers.
type StatusChange struct {
	RequestID  int64
	Department string
	From       model.RequestStatus
	To         model.RequestStatus
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan StatusChange
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	log     *logrus.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, log *logrus.Logger) *WorkerPool {
	if log == nil {
		log = logrus.New()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan StatusChange, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.WithField("worker", id).Debug("notification worker started")
	for {
		select {
		case change := <-wp.jobs:
			wp.sendNotificationsForChange(ctx, change)
		case <-ctx.Done():
			wp.log.WithField("worker", id).Debug("notification worker shutting down")
			return
		}
	}
}

// NotifyStatusChange enqueues a status change without blocking the update
// that produced it. Changes are dropped when the queue is full.
func (wp *WorkerPool) NotifyStatusChange(requestID int64, department string, from, to model.RequestStatus) {
	change := StatusChange{RequestID: requestID, Department: department, From: from, To: to}
	select {
	case wp.jobs <- change:
	default:
		wp.log.WithField("request", requestID).Warn("notification queue full, change dropped")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan StatusChange {
	return wp.jobs
}

// sendNotificationsForChange fetches the department's subscriptions and
// pushes the status change to each of them.
func (wp *WorkerPool) sendNotificationsForChange(ctx context.Context, change StatusChange) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_department_mapping sdm ON sdm.push_subscription_endpoint = push_subscriptions.endpoint").
		Joins("JOIN departments ON departments.id = sdm.department_id").
		Where("departments.name = ?", change.Department).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.WithError(err).WithField("department", change.Department).
			Error("failed to fetch subscriptions")
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	message := fmt.Sprintf("Yêu cầu mua sắm #%d (%s) đã chuyển sang trạng thái %q",
		change.RequestID, change.Department, change.To)

	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
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
		wp.log.WithError(err).WithField("endpoint", sub.Endpoint).Error("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.log.WithField("endpoint", sub.Endpoint).Info("subscription expired, deleting")
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.WithError(err).WithField("endpoint", sub.Endpoint).
				Error("failed to delete expired subscription")
		}
	}
}
