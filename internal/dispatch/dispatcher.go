package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/staffbot/internal/domain"
	"github.com/hamed0406/staffbot/internal/health"
	"github.com/hamed0406/staffbot/internal/metrics"
	"github.com/hamed0406/staffbot/internal/notify"
	"github.com/hamed0406/staffbot/internal/whatsapp"
)

// Messenger delivers one text message. Errors may wrap *whatsapp.APIError.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
}

var ErrNoAdmin = errors.New("no admin phone configured")

// Dispatcher sends replies and broadcasts while keeping recipient health.
type Dispatcher struct {
	Logger     *zap.Logger
	Messenger  Messenger
	Health     *health.Tracker
	Staff      *domain.AllowList
	AdminPhone string
	Ops        notify.Notifier
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

func New(l *zap.Logger, m Messenger, h *health.Tracker, staff *domain.AllowList, adminPhone string) *Dispatcher {
	return &Dispatcher{
		Logger:     l,
		Messenger:  m,
		Health:     h,
		Staff:      staff,
		AdminPhone: adminPhone,
		Ops:        notify.Nop{},
		Metrics:    metrics.Nop(),
		Now:        time.Now,
	}
}

// Send delivers body to a recipient unless it is blocked. Failures are
// logged, never returned, and never retried. A "recipient not allowed"
// failure blocks the recipient and may alert the admin once per TTL.
func (d *Dispatcher) Send(ctx context.Context, to, body string) {
	if e, blocked := d.Health.Blocked(to, d.Now()); blocked {
		d.Metrics.Sends.WithLabelValues(metrics.SendSkipped).Inc()
		d.Logger.Warn("send_skipped_blocked",
			zap.String("to", to),
			zap.Int("code", e.ErrorCode),
			zap.Time("blocked_at", e.BlockedAt),
		)
		return
	}

	err := d.deliver(ctx, to, body)
	if err == nil {
		return
	}

	code, _ := whatsapp.ErrorCode(err)
	now := d.Now()
	if !d.Health.RecordFailure(to, code, now) {
		return
	}
	d.Metrics.Sends.WithLabelValues(metrics.SendBlocked).Inc()
	d.Logger.Warn("recipient_blocked", zap.String("to", to), zap.Int("code", code), zap.Duration("ttl", health.TTL))

	if d.AdminPhone == "" || to == d.AdminPhone {
		return
	}
	if !d.Health.ClaimAlert(to, now) {
		d.Logger.Info("admin_alert_throttled", zap.String("recipient", to))
		return
	}
	if err := d.SendAdminAlert(ctx, blockedRecipientAlert(to)); err != nil {
		d.Health.ForgetAlert(to, now)
		d.Logger.Error("admin_alert_failed", zap.String("recipient", to), zap.Error(err))
		return
	}
	d.Metrics.AdminAlerts.WithLabelValues("blocked_recipient").Inc()
}

// SendAdminAlert reaches the admin even if the admin is blocked and never
// triggers further alerts.
func (d *Dispatcher) SendAdminAlert(ctx context.Context, body string) error {
	if d.AdminPhone == "" {
		return ErrNoAdmin
	}
	if d.Ops != nil {
		if err := d.Ops.Send(ctx, "staffbot admin alert", body); err != nil {
			d.Logger.Warn("ops_mirror_failed", zap.Error(err))
		}
	}
	return d.deliver(ctx, d.AdminPhone, body)
}

// Broadcast sends body to every allow-listed phone concurrently and waits
// for all of them. Per-recipient failures stay inside Send.
func (d *Dispatcher) Broadcast(ctx context.Context, body string) int {
	phones := d.Staff.Phones()
	var g errgroup.Group
	for _, p := range phones {
		g.Go(func() error {
			d.Send(ctx, p, body)
			return nil
		})
	}
	_ = g.Wait()
	d.Logger.Info("broadcast_done", zap.Int("recipients", len(phones)))
	return len(phones)
}

func (d *Dispatcher) deliver(ctx context.Context, to, body string) error {
	if err := d.Messenger.SendText(ctx, to, body); err != nil {
		d.Metrics.Sends.WithLabelValues(metrics.SendFailed).Inc()
		code, _ := whatsapp.ErrorCode(err)
		d.Logger.Error("send_failed", zap.String("to", to), zap.Int("code", code), zap.Error(err))
		return err
	}
	d.Metrics.Sends.WithLabelValues(metrics.SendOK).Inc()
	d.Logger.Info("sent", zap.String("to", to), zap.Int("len", len(body)))
	return nil
}

func blockedRecipientAlert(to string) string {
	return fmt.Sprintf("⚠️ Не удалось отправить сообщение на %s. "+
		"Добавьте этот номер в разрешённый список WhatsApp Cloud API "+
		"(Meta Developers → App → WhatsApp → API Setup → Add phone number) "+
		"и попросите сотрудника написать боту, чтобы открыть 24-часовой диалог.",
		domain.DisplayPhone(to))
}
