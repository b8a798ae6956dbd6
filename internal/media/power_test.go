package media

import (
	"io"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRuntimePM_ActivateRelease(t *testing.T) {
	pm := NewRuntimePM(quietLogger())

	if state, enabled := pm.State("cam0"); state != PowerSuspended || enabled {
		t.Errorf("unknown device state = %s/%v, want suspended/false", state, enabled)
	}

	if err := pm.Activate("cam0"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if state, enabled := pm.State("cam0"); state != PowerActive || !enabled {
		t.Errorf("state after Activate = %s/%v", state, enabled)
	}

	if err := pm.Activate("cam0"); err == nil {
		t.Error("second Activate should fail while enabled")
	}

	pm.Release("cam0")
	if state, enabled := pm.State("cam0"); state != PowerSuspended || enabled {
		t.Errorf("state after Release = %s/%v", state, enabled)
	}

	// Re-activation after release is allowed.
	if err := pm.Activate("cam0"); err != nil {
		t.Errorf("Activate after Release: %v", err)
	}

	pm.Release("missing")
}
