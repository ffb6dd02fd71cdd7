package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string // API bind address, e.g. ":3000"
	LogDir      string // logs directory
	DatabaseURL string // optional event journal; empty disables it

	VerifyToken   string // webhook handshake token
	WAToken       string // Graph API bearer token
	PhoneNumberID string
	AppID         string
	AppSecret     string // also the X-Hub-Signature-256 key
	GraphURL      string

	AdminPhone  string
	StaffPhones []string

	OpenAIKey   string
	OpenAIModel string

	SheetID    string
	ServiceKey string // service account JSON

	SlackWebhook string
	Location     *time.Location

	WebhookRPM    int
	WebhookBurst  int
	SweepInterval time.Duration
}

// FromEnv loads .env when present, then reads the process environment.
func FromEnv() Config {
	_ = godotenv.Load()

	addr := os.Getenv("API_ADDR")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":3000"
		}
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		openAIKey = os.Getenv("OPENAI_KEY")
	}

	loc := time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	sweep := time.Minute
	if v := os.Getenv("SWEEP_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			sweep = time.Duration(ms) * time.Millisecond
		}
	}

	return Config{
		Addr:          addr,
		LogDir:        logDir,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
		WAToken:       os.Getenv("META_WA_TOKEN"),
		PhoneNumberID: os.Getenv("META_PHONE_NUMBER_ID"),
		AppID:         os.Getenv("META_APP_ID"),
		AppSecret:     os.Getenv("META_APP_SECRET"),
		GraphURL:      os.Getenv("META_GRAPH_URL"),
		AdminPhone:    os.Getenv("ADMIN_PHONE"),
		StaffPhones:   splitList(os.Getenv("STAFF_PHONES")),
		OpenAIKey:     openAIKey,
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		SheetID:       os.Getenv("GOOGLE_SHEET_ID"),
		ServiceKey:    os.Getenv("GOOGLE_SERVICE_KEY"),
		SlackWebhook:  os.Getenv("SLACK_WEBHOOK_URL"),
		Location:      loc,
		WebhookRPM:    atoiDefault(os.Getenv("WEBHOOK_RPM"), 600),
		WebhookBurst:  atoiDefault(os.Getenv("WEBHOOK_BURST"), 60),
		SweepInterval: sweep,
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
