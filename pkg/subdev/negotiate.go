package subdev

import (
	"fmt"
	"sync/atomic"
)

// Session is a per-client negotiation context holding a private trial format.
// The trial format is guarded by the device mutex.
type Session struct {
	dev   atomic.Pointer[Device]
	trial Format
}

// Open starts a negotiation session whose trial format is the default format.
// Sessions do not see each other's trial formats.
func (d *Device) Open() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &Session{trial: DefaultFormat(d.catalog)}
	s.dev.Store(d)
	return s
}

func (d *Device) checkSession(s *Session) error {
	if s == nil || s.dev.Load() != d {
		return ErrNoSession
	}
	return nil
}

func (d *Device) mode() Mode {
	return d.catalog.modes[d.modeIndex]
}

// SelectedMode returns the mode backing the active format.
func (d *Device) SelectedMode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode()
}

// EnumMbusCode returns the media bus code of the catalog entry at index.
func (d *Device) EnumMbusCode(index uint32) (uint32, error) {
	m, ok := d.catalog.At(index)
	if !ok {
		return 0, newError(CodeOutOfRange, fmt.Sprintf("code index %d", index), nil)
	}
	return m.Code, nil
}

// EnumFrameSize returns the fixed size of the catalog entry at index, which
// must carry the given code.
func (d *Device) EnumFrameSize(index uint32, code uint32) (FrameSizeRange, error) {
	m, ok := d.catalog.At(index)
	if !ok {
		return FrameSizeRange{}, newError(CodeOutOfRange, fmt.Sprintf("frame size index %d", index), nil)
	}
	if m.Code != code {
		return FrameSizeRange{}, newError(CodeCodeMismatch,
			fmt.Sprintf("index %d carries %s, not %s", index, CodeName(m.Code), CodeName(code)), nil)
	}
	return FrameSizeRange{
		MinWidth:  m.Width,
		MaxWidth:  m.Width,
		MinHeight: m.Height,
		MaxHeight: m.Height,
	}, nil
}

// GetFormat returns the trial format of s or the active format.
func (d *Device) GetFormat(s *Session, which Which) (Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	mode := d.mode()
	if which == WhichTrial {
		if err := d.checkSession(s); err != nil {
			return Format{}, err
		}
		s.trial.Code = mode.Code
		return s.trial, nil
	}

	// The active format is rebuilt from the selected mode on every read.
	d.fmt.Width = mode.Width
	d.fmt.Height = mode.Height
	d.fmt.Field = FieldNone
	ResetColorspace(&d.fmt)
	d.fmt.Code = mode.Code
	return d.fmt, nil
}

// SetFormat negotiates width x height. The code is always the selected
// mode's. A trial request stores the request in the session verbatim; an
// active request selects the nearest catalog mode and returns the format it
// implies. The stored active format is refreshed on the next GetFormat.
func (d *Device) SetFormat(s *Session, which Which, width, height uint32) (Format, error) {
	f, syncErr, err := d.setFormat(s, which, width, height)
	if err != nil || which == WhichTrial {
		return f, err
	}
	if syncErr != nil {
		d.logger.Warn("failed to sync controls to mode", "error", syncErr)
	}
	d.logger.Debug("set_fmt", "requested", fmt.Sprintf("%dx%d", width, height),
		"selected", fmt.Sprintf("%dx%d", f.Width, f.Height))
	return f, nil
}

func (d *Device) setFormat(s *Session, which Which, width, height uint32) (f Format, syncErr, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Format{}, nil, ErrClosed
	}
	code := d.mode().Code
	nearest := d.catalog.nearestIndex(width, height)

	if which == WhichTrial {
		if err := d.checkSession(s); err != nil {
			return Format{}, nil, err
		}
		s.trial.Width = width
		s.trial.Height = height
		s.trial.Code = code
		return s.trial, nil, nil
	}

	if nearest != d.modeIndex {
		d.modeIndex = nearest
		syncErr = d.syncControlsLocked(d.mode())
	}
	return formatFromMode(d.mode()), syncErr, nil
}

// syncControlsLocked moves the mode-dependent controls to m.
func (d *Device) syncControlsLocked(m Mode) error {
	if err := d.ctrls.setRangeLocked(CIDPixelRate, m.PixelRate, m.PixelRate, 1, m.PixelRate); err != nil {
		return err
	}
	if err := d.ctrls.updateLocked(CIDLinkFreq, int64(m.LinkFreqIndex)); err != nil {
		return err
	}
	if err := d.ctrls.updateLocked(CIDVBlank, m.VBlank); err != nil {
		return err
	}
	return d.ctrls.updateLocked(CIDHBlank, m.HBlank)
}

// FrameInterval returns the selected mode's frame interval.
func (d *Device) FrameInterval() Fraction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode().Interval
}

// Close discards the session. Later use fails with ErrNoSession. Closing
// twice, or from several goroutines, is safe.
func (s *Session) Close() {
	s.dev.Store(nil)
}
