package startup

import (
	"runtime"
	"testing"

	"github.com/Znapy/pv-organizer/internal/config"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("OS/Arch = %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

func TestEffectiveWorkers(t *testing.T) {
	explicit := &config.Config{Workers: 7}
	if got := EffectiveWorkers(explicit); got != 7 {
		t.Errorf("EffectiveWorkers(explicit 7) = %d, want 7", got)
	}

	auto := &config.Config{Workers: 0}
	if got := EffectiveWorkers(auto); got < 1 {
		t.Errorf("EffectiveWorkers(auto) = %d, want >= 1", got)
	}
}

func TestEnabledString(t *testing.T) {
	if enabledString(true) != "ENABLED" {
		t.Error("enabledString(true) != ENABLED")
	}
	if enabledString(false) != "DISABLED" {
		t.Error("enabledString(false) != DISABLED")
	}
}
