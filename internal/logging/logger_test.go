package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_WritesToRotatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	log, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	log.Info("test_message_from_logging_test")
	_ = log.Sync()

	b, err := os.ReadFile(filepath.Join(dir, "staffbot.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"test_message_from_logging_test"`) {
		t.Fatalf("unexpected log content: %s", b)
	}
}
