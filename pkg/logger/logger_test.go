package logger

import "testing"

func TestNewDoesNotPanicForKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l := New(level)
		if l == nil {
			t.Fatalf("New(%q) returned nil", level)
		}
		l.Debug("debug message", "level", level)
		l.Info("info message", "level", level)
		l.Warn("warn message", "level", level)
		l.Error("error message", "level", level)
	}
}

func TestNewDefaultsUnknownLevel(t *testing.T) {
	l := New("verbose")
	if l == nil {
		t.Fatal("New returned nil for unknown level")
	}
	l.Info("still works")
}
