package workers

import (
	"os"
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	// Save and restore original environment
	originalEnv := os.Getenv("SYNC_WORKERS")
	defer func() {
		if originalEnv != "" {
			os.Setenv("SYNC_WORKERS", originalEnv)
		} else {
			os.Unsetenv("SYNC_WORKERS")
		}
	}()

	os.Unsetenv("SYNC_WORKERS")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound task (1.0x multiplier)",
			multiplier: 1.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "I/O-bound task (2.0x multiplier)",
			multiplier: 2.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "Mixed task (1.5x multiplier)",
			multiplier: 1.5,
			limit:      0,
			minExpect:  1,
			maxExpect:  int(float64(availableCPU)*1.5) + 1,
		},
		{
			name:       "With limit lower than calculated",
			multiplier: 2.0,
			limit:      2,
			minExpect:  1,
			maxExpect:  2,
		},
		{
			name:       "Very low multiplier still returns at least 1",
			multiplier: 0.1,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)

			if got < tt.minExpect {
				t.Errorf("Count(%v, %d) = %d, expected >= %d", tt.multiplier, tt.limit, got, tt.minExpect)
			}
			if got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected <= %d", tt.multiplier, tt.limit, got, tt.maxExpect)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	originalEnv := os.Getenv("SYNC_WORKERS")
	defer func() {
		if originalEnv != "" {
			os.Setenv("SYNC_WORKERS", originalEnv)
		} else {
			os.Unsetenv("SYNC_WORKERS")
		}
	}()

	tests := []struct {
		name     string
		envValue string
		limit    int
		expected int
	}{
		{"valid override", "8", 0, 8},
		{"override capped by limit", "20", 10, 10},
		{"override below limit", "5", 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("SYNC_WORKERS", tt.envValue)
			got := Count(1.0, tt.limit)
			if got != tt.expected {
				t.Errorf("Count with SYNC_WORKERS=%s = %d, want %d", tt.envValue, got, tt.expected)
			}
		})
	}
}

func TestCountWithInvalidEnvOverride(t *testing.T) {
	originalEnv := os.Getenv("SYNC_WORKERS")
	defer func() {
		if originalEnv != "" {
			os.Setenv("SYNC_WORKERS", originalEnv)
		} else {
			os.Unsetenv("SYNC_WORKERS")
		}
	}()

	for _, bad := range []string{"invalid", "-3", "0"} {
		os.Setenv("SYNC_WORKERS", bad)
		got := Count(1.0, 0)
		if got < 1 {
			t.Errorf("Count with SYNC_WORKERS=%s = %d, want >= 1", bad, got)
		}
	}
}

func TestHelpers(t *testing.T) {
	if got := ForCPU(0); got < 1 {
		t.Errorf("ForCPU(0) = %d, want >= 1", got)
	}
	if got := ForIO(0); got < ForCPU(0) {
		t.Errorf("ForIO(0) = %d, want >= ForCPU(0) = %d", got, ForCPU(0))
	}
	if got := ForMixed(4); got > 4 {
		t.Errorf("ForMixed(4) = %d, want <= 4", got)
	}
}
