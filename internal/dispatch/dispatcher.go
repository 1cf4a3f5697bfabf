// internal/dispatch/dispatcher.go

// Package dispatch delivers PENDING notifications to guardians over email
// (SES) and SMS (SNS). Delivery is plumbing: the scheduler decides what to
// say and when; this package only moves composed messages out the door and
// records the SENT transition.
package dispatch

import (
	"context"
	"database/sql"
	"time"

	"immunization-engine/internal/common/config"
	"immunization-engine/internal/common/logger"
	"immunization-engine/internal/common/metrics"
	"immunization-engine/internal/models"
	"immunization-engine/internal/storage"
)

// EmailSender and SMSSender are satisfied by the AWS clients; tests supply
// in-memory fakes.
type EmailSender interface {
	SendSimpleEmail(ctx context.Context, from, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// Dispatcher drains due PENDING notifications in batches.
type Dispatcher struct {
	cfg           config.DispatchConfig
	db            *sql.DB
	notifications storage.NotificationRepository
	email         EmailSender
	sms           SMSSender
	logger        logger.Logger
}

func New(cfg config.DispatchConfig, db *sql.DB, notifications storage.NotificationRepository, email EmailSender, sms SMSSender, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:           cfg,
		db:            db,
		notifications: notifications,
		email:         email,
		sms:           sms,
		logger:        log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// DispatchDue sends every PENDING notification scheduled at or before the
// given time and returns how many were delivered. A failed send leaves the
// notification PENDING for the next round; one bad recipient never stalls
// the batch.
func (d *Dispatcher) DispatchDue(ctx context.Context, by time.Time) (int, error) {
	due, err := d.notifications.ListPendingDue(ctx, by, d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, n := range due {
		if err := d.dispatchOne(ctx, n); err != nil {
			d.logger.Error("dispatch failed", map[string]interface{}{
				"notification_id": n.ID,
				"child_id":        n.ChildID,
				"type":            n.Type,
				"error":           err,
			})
			continue
		}
		sent++
	}

	if len(due) > 0 {
		d.logger.Info("dispatch round complete", map[string]interface{}{
			"due":  len(due),
			"sent": sent,
		})
	}
	return sent, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, n models.Notification) error {
	email, phone, err := d.guardianContact(ctx, n.ChildID)
	if err != nil {
		return err
	}

	delivered := false

	if d.cfg.Email.Enabled && email != "" {
		if err := d.email.SendSimpleEmail(ctx, d.cfg.Email.FromEmail, email, n.Title, n.Message); err != nil {
			metrics.NotificationsDispatched.WithLabelValues("email", "error").Inc()
			return err
		}
		metrics.NotificationsDispatched.WithLabelValues("email", "success").Inc()
		delivered = true
	}

	if d.cfg.SMS.Enabled && phone != "" && d.smsEligible(n.Priority) {
		if err := d.sms.SendSMS(ctx, phone, n.Message); err != nil {
			metrics.NotificationsDispatched.WithLabelValues("sms", "error").Inc()
			return err
		}
		metrics.NotificationsDispatched.WithLabelValues("sms", "success").Inc()
		delivered = true
	}

	if !delivered {
		// No reachable channel. Marking SENT anyway would hide the gap;
		// leave it PENDING and let it expire on schedule.
		d.logger.Warn("no delivery channel for notification", map[string]interface{}{
			"notification_id": n.ID,
			"child_id":        n.ChildID,
		})
		return nil
	}

	return d.notifications.UpdateState(ctx, n.ID, models.StateSent)
}

// smsEligible gates SMS to priorities at or above the configured threshold.
func (d *Dispatcher) smsEligible(p models.Priority) bool {
	threshold := models.Priority(d.cfg.SMS.PriorityThreshold)
	if !threshold.Valid() {
		threshold = models.PriorityUrgent
	}
	return p.Rank() <= threshold.Rank()
}

// guardianContact resolves the guardian's email and phone for a child.
func (d *Dispatcher) guardianContact(ctx context.Context, childID string) (string, string, error) {
	var email, phone sql.NullString
	query := `
		SELECT g.email, g.phone
		FROM guardians g
		JOIN children c ON c.guardian_id = g.id
		WHERE c.id = $1`
	if err := d.db.QueryRowContext(ctx, query, childID).Scan(&email, &phone); err != nil {
		return "", "", err
	}
	return email.String, phone.String, nil
}
