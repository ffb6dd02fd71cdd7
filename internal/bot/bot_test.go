package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/staffbot/internal/ai"
	"github.com/hamed0406/staffbot/internal/assistant"
	"github.com/hamed0406/staffbot/internal/dispatch"
	"github.com/hamed0406/staffbot/internal/domain"
	"github.com/hamed0406/staffbot/internal/health"
	"github.com/hamed0406/staffbot/internal/repo/memory"
	"github.com/hamed0406/staffbot/internal/sheets"
	"github.com/hamed0406/staffbot/internal/whatsapp"
)

const admin = "491700000000"

type sent struct{ to, body string }

type fakeMessenger struct {
	mu    sync.Mutex
	calls []sent
}

func (f *fakeMessenger) SendText(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sent{to, body})
	return nil
}

func (f *fakeMessenger) to(phone string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.to == phone {
			out = append(out, c.body)
		}
	}
	return out
}

type fakeCompleter struct {
	reply string
	err   error
	got   []ai.Message
}

func (f *fakeCompleter) Complete(_ context.Context, msgs []ai.Message) (string, error) {
	f.got = msgs
	return f.reply, f.err
}

type row struct {
	sheet string
	row   sheets.Row
}

type fakeSheets struct {
	mu   sync.Mutex
	rows []row
}

func (f *fakeSheets) Write(_ context.Context, sheet string, r sheets.Row) {
	f.mu.Lock()
	f.rows = append(f.rows, row{sheet, r})
	f.mu.Unlock()
}

type fixture struct {
	h      *Handler
	msg    *fakeMessenger
	ai     *fakeCompleter
	sheets *fakeSheets
	store  *memory.Store
}

func newFixture(staff ...string) *fixture {
	log := zap.NewNop()
	msg := &fakeMessenger{}
	comp := &fakeCompleter{reply: "Привет!"}
	sh := &fakeSheets{}
	store := memory.New()
	tracker := health.NewTracker()
	allow := domain.NewAllowList(staff...)
	d := dispatch.New(log, msg, tracker, allow, admin)
	h := New(Deps{
		Logger:    log,
		Directory: domain.Directory{AdminPhone: admin, Staff: allow},
		Store:     store,
		Sheets:    sh,
		Out:       d,
		Fallback:  assistant.NewResponder(log, comp),
		Health:    tracker,
		Location:  time.UTC,
		Now:       func() time.Time { return time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC) },
	})
	return &fixture{h: h, msg: msg, ai: comp, sheets: sh, store: store}
}

func (f *fixture) say(from, text string) {
	p := whatsapp.NewTextPayload(from, "Ali", text)
	f.h.Handle(context.Background(), &p)
}

func TestHandle_ShiftStartRecordsAndReplies(t *testing.T) {
	f := newFixture("4911")
	f.say("+49 11", "Смена старт")

	require.Equal(t, []string{replyShiftStarted}, f.msg.to("4911"))
	rec, ok := f.store.Shift("4911")
	require.True(t, ok)
	require.Equal(t, domain.ShiftOn, rec.Status)
	require.Len(t, f.sheets.rows, 1)
	require.Equal(t, sheets.SheetShifts, f.sheets.rows[0].sheet)
	require.Equal(t, statusStarted, f.sheets.rows[0].row[1].Value)
	require.Equal(t, "01.10.2025, 09:30:00", f.sheets.rows[0].row[2].Value)
}

func TestHandle_ShiftStopThenStatus(t *testing.T) {
	f := newFixture("4911")
	f.say("4911", "status")
	f.say("4911", "ушёл")
	f.say("4911", "статус")

	require.Equal(t, []string{
		replyStatus(notOnShift),
		replyShiftStopped,
		replyStatus("off"),
	}, f.msg.to("4911"))
}

func TestHandle_ReportAndMealGoToTheirSheets(t *testing.T) {
	f := newFixture("4911")
	f.say("4911", "Отчёт: касса сдана")
	f.say("4911", "питание: суп")

	require.Equal(t, []string{replyReportSaved, replyMealSaved}, f.msg.to("4911"))
	require.Equal(t, 1, f.store.ReportCount())
	require.Equal(t, sheets.SheetReports, f.sheets.rows[0].sheet)
	require.Equal(t, "Отчёт: касса сдана", f.sheets.rows[0].row[1].Value)
	require.Equal(t, sheets.SheetMeals, f.sheets.rows[1].sheet)
}

func TestHandle_StatsForManager(t *testing.T) {
	f := newFixture("4911", "4912", "4913")
	at := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	for _, p := range []string{"4911", "4912", "4913"} {
		f.store.StartShift(p, at)
	}
	for i := 0; i < 7; i++ {
		f.store.AppendReport("4911", fmt.Sprintf("report %d", i), at)
	}

	f.say(admin, "Статистика")

	require.Equal(t, []string{"📈 На смене сейчас: 3. Всего отчётов за сегодня: 7."}, f.msg.to(admin))
}

func TestHandle_StaffCannotUseManagerCommands(t *testing.T) {
	f := newFixture("4911")
	f.say("4911", "статистика")

	require.Equal(t, []string{"Привет!"}, f.msg.to("4911"))
	require.Equal(t, assistant.Prompt(domain.RoleStaff), f.ai.got[0].Content)
}

func TestHandle_BroadcastReachesEveryStaffMember(t *testing.T) {
	f := newFixture("4911", "4912")
	f.say(admin, "Рассылка: собрание в 18:00")

	for _, p := range []string{"79133318413", "4911", "4912"} {
		require.Equal(t, []string{"собрание в 18:00"}, f.msg.to(p), p)
	}
	require.Equal(t, []string{replyBroadcastSent}, f.msg.to(admin))
}

func TestHandle_BroadcastDefaultText(t *testing.T) {
	f := newFixture()
	f.say(admin, "broadcast:   ")
	require.Equal(t, []string{defaultBroadcast}, f.msg.to("79133318413"))
}

func TestHandle_AddStaffOnceThenUsage(t *testing.T) {
	f := newFixture()
	f.say(admin, "добавить: +491234567890")
	f.say(admin, "добавить: 491234567890")
	f.say(admin, "добавить: позже")

	require.Equal(t, []string{
		"✅ Добавлен сотрудник: +491234567890",
		replyAddUsage,
		replyAddUsage,
	}, f.msg.to(admin))

	f.say("491234567890", "пришёл")
	require.Equal(t, []string{replyShiftStarted}, f.msg.to("491234567890"))
}

func TestHandle_UnknownSenderAlertsAdminOnce(t *testing.T) {
	f := newFixture()
	f.say("4999", "привет")
	f.say("4999", "привет ещё раз")

	alerts := f.msg.to(admin)
	require.Len(t, alerts, 1)
	require.Contains(t, alerts[0], "+4999")
	require.Contains(t, alerts[0], `Сообщение: "привет"`)
	require.Equal(t, []string{replyAccessDenied, replyAccessDenied}, f.msg.to("4999"))
	require.Equal(t, 0, f.store.ReportCount())
}

func TestHandle_IgnoresPayloadWithoutMessage(t *testing.T) {
	f := newFixture()
	f.h.Handle(context.Background(), &whatsapp.WebhookPayload{})
	f.h.Handle(context.Background(), nil)
	require.Empty(t, f.msg.calls)
}

func TestHandle_FallbackApologizesOnAIError(t *testing.T) {
	f := newFixture()
	f.ai.err = errors.New("upstream 500")
	f.say(admin, "как дела?")

	require.Equal(t, []string{assistant.Apology}, f.msg.to(admin))
	require.Equal(t, assistant.Prompt(domain.RoleManager), f.ai.got[0].Content)
	require.Equal(t, "как дела?", f.ai.got[1].Content)
}

func TestHandle_RecoversFromPanic(t *testing.T) {
	f := newFixture()
	f.h.Store = nil
	require.NotPanics(t, func() { f.say(admin, "статистика") })
}

func TestUnknownSenderAlert_Preview(t *testing.T) {
	long := strings.Repeat("я", 130)
	body := unknownSenderAlert("4999", long)
	require.Contains(t, body, strings.Repeat("я", 117)+"...\"")
	require.NotContains(t, body, strings.Repeat("я", 118))

	require.Contains(t, unknownSenderAlert("4999", ""), `"(пусто)"`)
}
