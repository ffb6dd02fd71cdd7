package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/staffbot/internal/httpapi/middleware"
	"github.com/hamed0406/staffbot/internal/whatsapp"
)

type fakeInbound struct {
	got chan whatsapp.Inbound
}

func (f *fakeInbound) Handle(_ context.Context, p *whatsapp.WebhookPayload) {
	in, _ := p.FirstMessage()
	f.got <- in
}

func setupServer(t *testing.T, secret string) (*Server, *fakeInbound, *httptest.Server) {
	t.Helper()
	in := &fakeInbound{got: make(chan whatsapp.Inbound, 4)}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "staffbot_test_total", Help: "t"}))
	srv := NewServer(zap.NewNop(), "verify-me", secret, in, reg)
	ts := httptest.NewServer(srv.Router(10_000, 10_000))
	t.Cleanup(ts.Close)
	return srv, in, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestRootHealthAndMetrics(t *testing.T) {
	_, _, ts := setupServer(t, "")

	if code, body := get(t, ts.URL+"/"); code != 200 || body != "Assistant Doner Home: OK" {
		t.Fatalf("root: %d %q", code, body)
	}
	if code, body := get(t, ts.URL+"/healthz"); code != 200 || body != "ok" {
		t.Fatalf("healthz: %d %q", code, body)
	}
	if code, body := get(t, ts.URL+"/metrics"); code != 200 || !strings.Contains(body, "staffbot_test_total") {
		t.Fatalf("metrics: %d %q", code, body)
	}
}

func TestVerifyHandshake(t *testing.T) {
	_, _, ts := setupServer(t, "")

	code, body := get(t, ts.URL+"/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345")
	if code != 200 || body != "12345" {
		t.Fatalf("want challenge echoed, got %d %q", code, body)
	}
	if code, _ := get(t, ts.URL+"/webhook?hub.verify_token=nope&hub.challenge=1"); code != http.StatusForbidden {
		t.Fatalf("wrong token: want 403, got %d", code)
	}
}

func TestWebhook_AcksAndHandles(t *testing.T) {
	srv, in, ts := setupServer(t, "")
	body := `{"entry":[{"changes":[{"value":{"contacts":[{"profile":{"name":"Ali"}}],` +
		`"messages":[{"from":"4911","id":"m1","type":"text","text":{"body":"статус"}}]}}]}]}`

	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	srv.Wait()
	got := <-in.got
	if got.Phone != "4911" || got.Text != "статус" || got.Name != "Ali" {
		t.Fatalf("unexpected inbound %+v", got)
	}
}

func TestWebhook_MalformedStillAcked(t *testing.T) {
	srv, in, ts := setupServer(t, "")

	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	srv.Wait()
	if len(in.got) != 0 {
		t.Fatalf("malformed body must not reach the handler")
	}
}

func TestWebhook_SignatureEnforced(t *testing.T) {
	srv, in, ts := setupServer(t, "app-secret")
	body := `{"entry":[]}`

	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unsigned body: want 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/webhook", strings.NewReader(body))
	req.Header.Set(apimw.SignatureHeader, apimw.Sign("app-secret", []byte(body)))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("signed body: want 200, got %d", resp.StatusCode)
	}
	srv.Wait()
	if got := <-in.got; got.Phone != "" {
		t.Fatalf("empty entry yields no message, got %+v", got)
	}
}
