package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/staffbot/internal/httpapi/middleware"
	"github.com/hamed0406/staffbot/internal/whatsapp"
)

const maxWebhookBody = 2 << 20

// Inbound consumes one decoded notification after it was acknowledged.
type Inbound interface {
	Handle(ctx context.Context, p *whatsapp.WebhookPayload)
}

type Server struct {
	Logger      *zap.Logger
	VerifyToken string
	AppSecret   string
	Inbound     Inbound
	Gatherer    prometheus.Gatherer

	wg sync.WaitGroup
}

func NewServer(l *zap.Logger, verifyToken, appSecret string, in Inbound, g prometheus.Gatherer) *Server {
	return &Server{Logger: l, VerifyToken: verifyToken, AppSecret: appSecret, Inbound: in, Gatherer: g}
}

// Router mounts the public routes. Rate limiting applies to /webhook only.
func (s *Server) Router(webhookRPM, webhookBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Assistant Doner Home: OK"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/webhook", func(r chi.Router) {
		r.Use(apimw.RateLimit(webhookRPM, webhookBurst))
		r.Use(apimw.VerifySignature(s.AppSecret, maxWebhookBody))
		r.Get("/", s.handleVerify)
		r.Post("/", s.handleWebhook)
	})

	return r
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if s.VerifyToken == "" || q.Get("hub.verify_token") != s.VerifyToken {
		s.Logger.Warn("webhook_verify_failed", zap.String("mode", q.Get("hub.mode")))
		w.WriteHeader(http.StatusForbidden)
		return
	}
	s.Logger.Info("webhook_verified")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// handleWebhook acknowledges first; Meta retries anything that is not a
// prompt 200, so the message is handled after the response.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var p whatsapp.WebhookPayload
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&p)
	w.WriteHeader(http.StatusOK)
	if err != nil {
		s.Logger.Warn("webhook_bad_payload", zap.Error(err))
		return
	}
	s.Logger.Debug("webhook_received", zap.String("object", p.Object))

	ctx := context.WithoutCancel(r.Context())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Inbound.Handle(ctx, &p)
	}()
}

// Wait blocks until in-flight webhook handling finishes.
func (s *Server) Wait() {
	s.wg.Wait()
}
