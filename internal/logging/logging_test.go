package logging

import "testing"

func TestSetLevel(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original.String())

	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"DEBUG", LevelDebug},
	}

	for _, tt := range tests {
		SetLevel(tt.input)
		if got := GetLevel(); got != tt.want {
			t.Errorf("SetLevel(%q): GetLevel() = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original.String())

	SetLevel("warn")
	SetLevel("nonsense")
	if got := GetLevel(); got != LevelWarn {
		t.Errorf("unknown level changed state: GetLevel() = %v, want %v", got, LevelWarn)
	}
}

func TestIsDebugEnabled(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original.String())

	SetLevel("debug")
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled() = false at debug level")
	}

	SetLevel("info")
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() = true at info level")
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}
