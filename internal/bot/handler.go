package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/staffbot/internal/command"
	"github.com/hamed0406/staffbot/internal/domain"
	"github.com/hamed0406/staffbot/internal/health"
	"github.com/hamed0406/staffbot/internal/metrics"
	"github.com/hamed0406/staffbot/internal/repo"
	"github.com/hamed0406/staffbot/internal/sheets"
	"github.com/hamed0406/staffbot/internal/whatsapp"
)

// Outbound is the slice of the dispatcher the handler drives.
type Outbound interface {
	Send(ctx context.Context, to, body string)
	SendAdminAlert(ctx context.Context, body string) error
	Broadcast(ctx context.Context, body string) int
}

type Fallback interface {
	Reply(ctx context.Context, role domain.Role, text string) string
}

// Deps is everything one Handler owns. A fresh Handler per test gives
// isolated state.
type Deps struct {
	Logger     *zap.Logger
	Directory  domain.Directory
	Classifier *command.Classifier
	Store      repo.StateStore
	Journal    repo.Journal
	Sheets     sheets.Writer
	Out        Outbound
	Fallback   Fallback
	Health     *health.Tracker
	Metrics    *metrics.Metrics
	Location   *time.Location
	Now        func() time.Time
}

type request struct {
	log    *zap.Logger
	sender domain.Sender
	text   string
	match  command.Match
	at     time.Time
}

type intentHandler func(ctx context.Context, r request)

type Handler struct {
	Deps
	intents map[command.Intent]intentHandler
}

func New(d Deps) *Handler {
	if d.Journal == nil {
		d.Journal = repo.NopJournal{}
	}
	if d.Sheets == nil {
		d.Sheets = sheets.LogOnly{Logger: d.Logger}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Classifier == nil {
		d.Classifier = command.NewClassifier()
	}
	h := &Handler{Deps: d}
	h.intents = map[command.Intent]intentHandler{
		command.IntentShiftStart: h.shiftStart,
		command.IntentShiftStop:  h.shiftStop,
		command.IntentReport:     h.report,
		command.IntentMeal:       h.meal,
		command.IntentStatus:     h.status,
		command.IntentBroadcast:  h.broadcast,
		command.IntentStats:      h.stats,
		command.IntentAddStaff:   h.addStaff,
		command.IntentFallback:   h.fallback,
	}
	return h
}

// Handle processes one webhook notification. The HTTP layer has already
// acknowledged it, so nothing here reaches the sender as an error.
func (h *Handler) Handle(ctx context.Context, p *whatsapp.WebhookPayload) {
	log := h.Logger.With(zap.String("event_id", uuid.NewString()))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("handle_panic", zap.Any("panic", rec), zap.Stack("stack"))
		}
	}()

	in, ok := p.FirstMessage()
	if !ok {
		log.Debug("webhook_ignored")
		return
	}
	log = log.With(zap.String("from", in.Phone), zap.String("message_id", in.MessageID))

	sender, ok := h.Directory.Resolve(in.Phone, in.Name)
	if !ok {
		h.Metrics.Inbound.WithLabelValues("unauthorized").Inc()
		h.rejectUnknown(ctx, log, in)
		return
	}

	m := h.Classifier.Classify(in.Text, sender.Role)
	h.Metrics.Inbound.WithLabelValues(string(m.Intent)).Inc()
	log.Info("message_classified",
		zap.String("name", sender.Name),
		zap.String("role", string(sender.Role)),
		zap.String("intent", string(m.Intent)),
	)

	run, ok := h.intents[m.Intent]
	if !ok {
		run = h.fallback
	}
	run(ctx, request{log: log, sender: sender, text: in.Text, match: m, at: h.Now()})
}

func (h *Handler) rejectUnknown(ctx context.Context, log *zap.Logger, in whatsapp.Inbound) {
	log.Warn("unknown_sender", zap.String("phone", domain.DisplayPhone(in.Phone)))
	if h.Directory.AdminPhone != "" && h.Health.MarkUnknownSender(in.Phone) {
		if err := h.Out.SendAdminAlert(ctx, unknownSenderAlert(in.Phone, in.Text)); err != nil {
			log.Error("unknown_sender_alert_failed", zap.Error(err))
		} else {
			h.Metrics.AdminAlerts.WithLabelValues("unknown_sender").Inc()
		}
	}
	h.Out.Send(ctx, in.Phone, replyAccessDenied)
}

func (h *Handler) stamp(t time.Time) string {
	return t.In(h.Location).Format("02.01.2006, 15:04:05")
}

func (h *Handler) shiftStart(ctx context.Context, r request) {
	rec := h.Store.StartShift(r.sender.Phone, r.at)
	h.journalShift(ctx, r, rec)
	h.Sheets.Write(ctx, sheets.SheetShifts, sheets.Row{
		{Header: "phone", Value: r.sender.Phone},
		{Header: "status", Value: statusStarted},
		{Header: "timestamp", Value: h.stamp(r.at)},
	})
	h.Out.Send(ctx, r.sender.Phone, replyShiftStarted)
}

func (h *Handler) shiftStop(ctx context.Context, r request) {
	rec := h.Store.StopShift(r.sender.Phone, r.at)
	h.journalShift(ctx, r, rec)
	h.Sheets.Write(ctx, sheets.SheetShifts, sheets.Row{
		{Header: "phone", Value: r.sender.Phone},
		{Header: "status", Value: statusStopped},
		{Header: "timestamp", Value: h.stamp(r.at)},
	})
	h.Out.Send(ctx, r.sender.Phone, replyShiftStopped)
}

func (h *Handler) journalShift(ctx context.Context, r request, rec domain.ShiftRecord) {
	if err := h.Journal.RecordShift(ctx, rec, r.at); err != nil {
		r.log.Warn("journal_shift_failed", zap.Error(err))
	}
}

func (h *Handler) report(ctx context.Context, r request) {
	rep := h.Store.AppendReport(r.sender.Phone, r.text, r.at)
	if err := h.Journal.RecordReport(ctx, rep); err != nil {
		r.log.Warn("journal_report_failed", zap.Error(err))
	}
	h.Sheets.Write(ctx, sheets.SheetReports, sheets.Row{
		{Header: "phone", Value: r.sender.Phone},
		{Header: "text", Value: r.text},
		{Header: "timestamp", Value: h.stamp(r.at)},
	})
	h.Out.Send(ctx, r.sender.Phone, replyReportSaved)
}

func (h *Handler) meal(ctx context.Context, r request) {
	h.Sheets.Write(ctx, sheets.SheetMeals, sheets.Row{
		{Header: "phone", Value: r.sender.Phone},
		{Header: "text", Value: r.text},
		{Header: "timestamp", Value: h.stamp(r.at)},
	})
	h.Out.Send(ctx, r.sender.Phone, replyMealSaved)
}

func (h *Handler) status(ctx context.Context, r request) {
	status := notOnShift
	if rec, ok := h.Store.Shift(r.sender.Phone); ok && rec.Status != "" {
		status = string(rec.Status)
	}
	h.Out.Send(ctx, r.sender.Phone, replyStatus(status))
}

func (h *Handler) broadcast(ctx context.Context, r request) {
	body := r.match.Payload
	if body == "" {
		body = defaultBroadcast
	}
	n := h.Out.Broadcast(ctx, body)
	r.log.Info("broadcast_requested", zap.Int("recipients", n))
	h.Out.Send(ctx, r.sender.Phone, replyBroadcastSent)
}

func (h *Handler) stats(ctx context.Context, r request) {
	h.Out.Send(ctx, r.sender.Phone, replyStats(h.Store.CountOnShift(), h.Store.ReportCount()))
}

func (h *Handler) addStaff(ctx context.Context, r request) {
	phone := r.match.Payload
	if phone == "" || h.Directory.Staff == nil || !h.Directory.Staff.Add(phone) {
		h.Out.Send(ctx, r.sender.Phone, replyAddUsage)
		return
	}
	r.log.Info("staff_added", zap.String("phone", phone))
	h.Out.Send(ctx, r.sender.Phone, replyStaffAdded(phone))
}

func (h *Handler) fallback(ctx context.Context, r request) {
	h.Out.Send(ctx, r.sender.Phone, h.Fallback.Reply(ctx, r.sender.Role, r.text))
}
