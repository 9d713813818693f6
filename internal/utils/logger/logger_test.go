package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLoggerNeverNil(t *testing.T) {
	prev := global
	global = nil
	t.Cleanup(func() { global = prev })

	if Logger() == nil {
		t.Fatal("Logger() returned nil before Init")
	}
	Logger().Infof("no-op logger accepts %s", "messages")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"", zapcore.InfoLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	prev := global
	t.Cleanup(func() { global = prev })

	flush, err := SetupLogger("debug")
	if err != nil {
		t.Fatalf("SetupLogger failed: %v", err)
	}
	defer flush()
	if !Logger().Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}

	if _, err := SetupLogger("bogus"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestStringListReport(t *testing.T) {
	r := NewStringListReport("base repo/x86_64")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add("https://example.com/pkg.rpm")
		}()
	}
	wg.Wait()
	if len(r.Items()) != 10 {
		t.Fatalf("expected 10 items, got %d", len(r.Items()))
	}

	dir := filepath.Join(t.TempDir(), "reports")
	path, err := r.WriteToFile(dir)
	if err != nil {
		t.Fatalf("WriteToFile failed: %v", err)
	}
	if filepath.Base(path) != "fetchurl-base_repo_x86_64.txt" {
		t.Errorf("unexpected report name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if got := strings.Count(string(data), "https://example.com/pkg.rpm\n"); got != 10 {
		t.Errorf("expected 10 lines, got %d", got)
	}
	if len(r.Items()) != 0 {
		t.Error("report not cleared after writing")
	}
}
