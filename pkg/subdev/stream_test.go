package subdev

import "testing"

func TestSetStream_Idempotent(t *testing.T) {
	var transitions []bool
	dev := newTestDevice(t, newRecorder(), WithStreamObserver(func(enabled bool) {
		transitions = append(transitions, enabled)
	}))

	if dev.State() != StreamIdle {
		t.Fatalf("initial state %s", dev.State())
	}

	for i := 0; i < 2; i++ {
		if err := dev.SetStream(true); err != nil {
			t.Fatalf("SetStream(true) #%d: %v", i+1, err)
		}
		if !dev.Streaming() {
			t.Fatalf("not streaming after SetStream(true) #%d", i+1)
		}
	}
	if len(transitions) != 1 {
		t.Errorf("observer saw %d transitions, want 1", len(transitions))
	}

	if err := dev.SetStream(false); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetStream(false); err != nil {
		t.Fatal(err)
	}
	if dev.State() != StreamIdle {
		t.Errorf("state %s after stop", dev.State())
	}
	if len(transitions) != 2 || transitions[1] {
		t.Errorf("transitions = %v, want [true false]", transitions)
	}
}

func TestClose_StopsStreaming(t *testing.T) {
	var last *bool
	dev, err := New(WithLogger(quietLogger()), WithStreamObserver(func(enabled bool) {
		last = &enabled
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.SetStream(true); err != nil {
		t.Fatal(err)
	}
	dev.Close()

	if last == nil || *last {
		t.Error("observer not told about teardown stop")
	}
	if dev.State() != StreamIdle {
		t.Errorf("state %s after Close", dev.State())
	}
	// Stopping an already idle, closed device is still a no-op.
	if err := dev.SetStream(false); err != nil {
		t.Errorf("SetStream(false) after Close: %v", err)
	}
}
