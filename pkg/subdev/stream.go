package subdev

// StreamState is the streaming state of a device.
type StreamState string

// Streaming states.
const (
	StreamIdle      StreamState = "idle"
	StreamStreaming StreamState = "streaming"
)

// SetStream turns streaming on or off. Repeating the current state is a
// successful no-op.
func (d *Device) SetStream(enable bool) error {
	changed, err := d.setStream(enable)
	if changed {
		d.logger.Debug("set_stream", "enable", enable)
	}
	return err
}

func (d *Device) setStream(enable bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streaming == enable {
		return false, nil
	}
	if d.closed {
		return false, ErrClosed
	}

	d.streaming = enable
	if d.onStream != nil {
		d.onStream(enable)
	}
	return true, nil
}

// Streaming reports whether the device is streaming.
func (d *Device) Streaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streaming
}

// State returns the streaming state.
func (d *Device) State() StreamState {
	if d.Streaming() {
		return StreamStreaming
	}
	return StreamIdle
}
