package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hamed0406/staffbot/internal/ai"
	"github.com/hamed0406/staffbot/internal/assistant"
	"github.com/hamed0406/staffbot/internal/bot"
	"github.com/hamed0406/staffbot/internal/config"
	"github.com/hamed0406/staffbot/internal/dispatch"
	"github.com/hamed0406/staffbot/internal/domain"
	"github.com/hamed0406/staffbot/internal/health"
	"github.com/hamed0406/staffbot/internal/httpapi"
	"github.com/hamed0406/staffbot/internal/logging"
	"github.com/hamed0406/staffbot/internal/metrics"
	"github.com/hamed0406/staffbot/internal/notify"
	"github.com/hamed0406/staffbot/internal/repo"
	"github.com/hamed0406/staffbot/internal/repo/memory"
	"github.com/hamed0406/staffbot/internal/repo/postgres"
	"github.com/hamed0406/staffbot/internal/scheduler"
	"github.com/hamed0406/staffbot/internal/sheets"
	"github.com/hamed0406/staffbot/internal/whatsapp"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var journal repo.Journal = repo.NopJournal{}
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_connect_failed", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("postgres_schema_failed", zap.Error(err))
		}
		journal = pg
	}

	var writer sheets.Writer = sheets.LogOnly{Logger: logger}
	if cfg.SheetID != "" && cfg.ServiceKey != "" {
		s, err := sheets.New(ctx, logger, cfg.SheetID, []byte(cfg.ServiceKey))
		if err != nil {
			logger.Error("sheets_init_failed", zap.Error(err))
		} else {
			writer = s
		}
	} else {
		logger.Warn("sheets_disabled")
	}

	adminPhone := domain.NormalizePhone(cfg.AdminPhone)
	if adminPhone == "" {
		logger.Warn("admin_phone_missing")
	}
	staff := domain.NewAllowList(cfg.StaffPhones...)
	tracker := health.NewTracker()

	wa := whatsapp.NewClient(cfg.GraphURL, cfg.WAToken, cfg.PhoneNumberID)
	out := dispatch.New(logger, wa, tracker, staff, adminPhone)
	out.Metrics = m
	var ops notify.Multi
	if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
		ops = append(ops, s)
	}
	if len(ops) > 0 {
		out.Ops = ops
	}

	completer := ai.NewClient(ai.Config{APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, Temperature: 0.8})
	handler := bot.New(bot.Deps{
		Logger:    logger,
		Directory: domain.Directory{AdminPhone: adminPhone, Staff: staff},
		Store:     memory.New(),
		Journal:   journal,
		Sheets:    writer,
		Out:       out,
		Fallback:  assistant.NewResponder(logger, completer),
		Health:    tracker,
		Metrics:   m,
		Location:  cfg.Location,
	})

	go scheduler.NewSweeper(logger, tracker, cfg.SweepInterval).Run(ctx)

	api := httpapi.NewServer(logger, cfg.VerifyToken, cfg.AppSecret, handler, reg)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.WebhookRPM, cfg.WebhookBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Int("staff", len(staff.Phones())),
		zap.Bool("journal", cfg.DatabaseURL != ""),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_failed", zap.Error(err))
	}
	api.Wait()
	logger.Info("api_stopped")
}
