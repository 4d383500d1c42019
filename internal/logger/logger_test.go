package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
		ok   bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
	}

	for _, tt := range tests {
		got, ok := parseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWithKeepsInterface(t *testing.T) {
	for _, l := range []Logger{New("error", false), New("debug", true), Nop()} {
		child := l.With(String("cycle_id", "abc"), Int("servers", 2))
		if child == nil {
			t.Fatal("With returned nil")
		}
		child.Debug("debug line", Bool("ok", true))
		child.Infof("formatted %d", 1)
	}
}
