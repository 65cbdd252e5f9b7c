package appointment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"klinika/common"
	"klinika/email"
	"klinika/models"
)

// Notifier delivers messages about appointments.
type Notifier interface {
	// NotifyCreated confirms a new submission to the client and the clinic.
	NotifyCreated(ctx context.Context, a *models.Appointment) error
	SendReminder(ctx context.Context, a *models.Appointment, message string) error
}

type Mailer interface {
	Configured() bool
	SendSubmissionReceived(a *models.Appointment) error
	SendClinicNotification(to string, a *models.Appointment) error
	SendReminder(a *models.Appointment, message string) error
}

type TextSender interface {
	Configured() bool
	Send(ctx context.Context, to, body string) error
}

// Dispatcher sends email through Mailer and text messages through TextSender.
type Dispatcher struct {
	Mail        Mailer
	Text        TextSender
	ClinicEmail string
	Log         *zap.Logger
}

var _ Notifier = (*Dispatcher)(nil)

func (d *Dispatcher) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d *Dispatcher) NotifyCreated(ctx context.Context, a *models.Appointment) error {
	if d.Mail == nil || !d.Mail.Configured() {
		return fmt.Errorf("%w: %v", common.ErrDispatch, email.ErrNotConfigured)
	}
	if d.ClinicEmail != "" {
		if err := d.Mail.SendClinicNotification(d.ClinicEmail, a); err != nil {
			d.logger().Warn("clinic notification failed", zap.Uint("appointment", a.ID), zap.Error(err))
		}
	}
	if err := d.Mail.SendSubmissionReceived(a); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDispatch, err)
	}
	return nil
}

// SendReminder texts clients who prefer the phone when SMS is available, emails everyone else.
func (d *Dispatcher) SendReminder(ctx context.Context, a *models.Appointment, message string) error {
	if a.ContactPreferences.Phone && d.Text != nil && d.Text.Configured() {
		body := fmt.Sprintf("%s\n%s %s", message, deref(a.Date), deref(a.Time))
		if err := d.Text.Send(ctx, a.Phone, body); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDispatch, err)
		}
		return nil
	}

	if d.Mail == nil || !d.Mail.Configured() {
		return fmt.Errorf("%w: %v", common.ErrDispatch, email.ErrNotConfigured)
	}
	if err := d.Mail.SendReminder(a, message); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDispatch, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
