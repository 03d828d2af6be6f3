package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bananas": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := Init(Config{Level: "info", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("hello from the test")
	logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "hello from the test") {
		t.Errorf("log message not written: %s", data)
	}
}

func TestInitLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := Init(Config{Level: "error", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("should be filtered")
	logger.Error("should be written")
	logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "should be filtered") {
		t.Error("info line written at error level")
	}
	if !strings.Contains(string(data), "should be written") {
		t.Error("error line missing")
	}
}

func TestDefaultInt(t *testing.T) {
	if defaultInt(0, 7) != 7 || defaultInt(-1, 7) != 7 {
		t.Error("non-positive values should fall back to the default")
	}
	if defaultInt(3, 7) != 3 {
		t.Error("positive values should pass through")
	}
}
