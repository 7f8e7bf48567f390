package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMaskFieldRedactsSecrets(t *testing.T) {
	if got := MaskField("jwtSecret", "hunter2"); got.Value.String() != RedactedValue {
		t.Fatalf("expected secret to be redacted, got %s", got.Value)
	}
	if got := MaskField("route", "/v1/mint"); got.Value.String() != "/v1/mint" {
		t.Fatalf("allowlisted key must pass through, got %s", got.Value)
	}
	if got := MaskField("passphrase", ""); got.Value.String() != "" {
		t.Fatalf("empty values stay empty")
	}
}

func TestHandlerRedactsCredentialKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, slog.LevelInfo))
	logger.Info("auth configured",
		slog.String("auth_secret", "hunter2"),
		slog.String("Authorization", "Bearer abc"),
		slog.String("buyer", "skb1buyer"))
	line := buf.String()
	if strings.Contains(line, "hunter2") || strings.Contains(line, "Bearer abc") {
		t.Fatalf("credentials leaked: %s", line)
	}
	if !strings.Contains(line, "skb1buyer") {
		t.Fatalf("plain field missing: %s", line)
	}
	if !IsSensitive("keystorePassphrase") || IsSensitive("quantity") {
		t.Fatalf("unexpected sensitivity classification")
	}
}

func TestSetupWritesRotatedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mintd.log")
	logger, closer, err := Setup("mintd", "test", Options{File: path, MaxSizeMB: 1, Level: "info"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}()
	logger.Info("sale toggled", slog.Bool("enabled", true))
	logger.Debug("quote computed")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"message":"sale toggled"`, `"severity":"INFO"`, `"service":"mintd"`, `"env":"test"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %s", line, want)
		}
	}
	if strings.Contains(line, "quote computed") {
		t.Fatalf("debug line written at info level: %s", line)
	}
}

func TestParseLevel(t *testing.T) {
	for raw, want := range map[string]slog.Level{"": slog.LevelInfo, "DEBUG": slog.LevelDebug, "warning": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(raw)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected unknown level error")
	}
	if _, _, err := Setup("mintd", "", Options{Level: "loud"}); err == nil {
		t.Fatalf("expected Setup to reject unknown level")
	}
}
