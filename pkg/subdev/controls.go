package subdev

import (
	"fmt"
	"sort"
)

// ControlID is a stable control identifier (V4L2_CID_*).
type ControlID uint32

// Control identifiers.
const (
	CIDExposure             ControlID = 0x00980911
	CIDHFlip                ControlID = 0x00980914
	CIDVFlip                ControlID = 0x00980915
	CIDCameraOrientation    ControlID = 0x009a0922
	CIDCameraSensorRotation ControlID = 0x009a0923
	CIDVBlank               ControlID = 0x009e0901
	CIDHBlank               ControlID = 0x009e0902
	CIDAnalogueGain         ControlID = 0x009e0903
	CIDLinkFreq             ControlID = 0x009f0901
	CIDPixelRate            ControlID = 0x009f0902
	CIDDigitalGain          ControlID = 0x009f0905
)

// ControlType describes how a control value is interpreted.
type ControlType int

// Control types.
const (
	ControlTypeInteger ControlType = iota + 1
	ControlTypeBoolean
	ControlTypeMenu
	ControlTypeIntegerMenu
	ControlTypeInteger64
)

func (t ControlType) String() string {
	switch t {
	case ControlTypeInteger:
		return "integer"
	case ControlTypeBoolean:
		return "boolean"
	case ControlTypeMenu:
		return "menu"
	case ControlTypeIntegerMenu:
		return "integer_menu"
	case ControlTypeInteger64:
		return "integer64"
	default:
		return "unknown"
	}
}

// ControlFlags are V4L2_CTRL_FLAG_* bits.
type ControlFlags uint32

// Control flags.
const (
	FlagReadOnly ControlFlags = 0x0004
)

// ControlSpec declares a control before it is created.
type ControlSpec struct {
	ID      ControlID
	Name    string
	Type    ControlType
	Min     int64
	Max     int64
	Step    int64
	Default int64
	Flags   ControlFlags

	// IntMenu holds the values of an integer menu, Menu the labels of a menu.
	IntMenu []int64
	Menu    []string
}

// Control is a snapshot of a control and its current value.
type Control struct {
	ControlSpec
	Value int64
}

// ReadOnly reports whether the control rejects writes.
func (c Control) ReadOnly() bool {
	return c.Flags&FlagReadOnly != 0
}

// MenuValue returns the integer menu entry selected by Value.
func (c Control) MenuValue() (int64, bool) {
	if c.Type != ControlTypeIntegerMenu || c.Value < 0 || c.Value >= int64(len(c.IntMenu)) {
		return 0, false
	}
	return c.IntMenu[c.Value], true
}

// ControlHandler is the single dispatch point invoked for every value change.
// It runs with the device lock held. A returned error reverts the change.
type ControlHandler func(c Control) error

func ackControl(Control) error { return nil }

// registry owns the device controls. It has no lock of its own: every access
// happens under the device mutex.
type registry struct {
	ctrls   map[ControlID]*Control
	byName  map[string]ControlID
	handler ControlHandler
	err     error
}

func newRegistry(handler ControlHandler, hint int) *registry {
	if handler == nil {
		handler = ackControl
	}
	return &registry{
		ctrls:   make(map[ControlID]*Control, hint),
		byName:  make(map[string]ControlID, hint),
		handler: handler,
	}
}

// add creates a control. After the first failure every further add is a
// no-op and the failure is kept in r.err.
func (r *registry) add(spec ControlSpec) *Control {
	if r.err != nil {
		return nil
	}
	if err := validateSpec(spec); err != nil {
		r.err = err
		return nil
	}
	if _, exists := r.ctrls[spec.ID]; exists {
		r.err = fmt.Errorf("control %#x (%s) already exists", uint32(spec.ID), spec.Name)
		return nil
	}
	c := &Control{ControlSpec: spec, Value: spec.Default}
	r.ctrls[spec.ID] = c
	r.byName[spec.Name] = spec.ID
	return c
}

func validateSpec(s ControlSpec) error {
	if s.Name == "" {
		return fmt.Errorf("control %#x has no name", uint32(s.ID))
	}
	switch s.Type {
	case ControlTypeBoolean:
		if s.Min < 0 || s.Max > 1 {
			return fmt.Errorf("control %s: boolean range [%d,%d]", s.Name, s.Min, s.Max)
		}
	case ControlTypeIntegerMenu:
		if s.Max >= int64(len(s.IntMenu)) {
			return fmt.Errorf("control %s: menu max %d exceeds %d items", s.Name, s.Max, len(s.IntMenu))
		}
	case ControlTypeMenu:
		if s.Max >= int64(len(s.Menu)) {
			return fmt.Errorf("control %s: menu max %d exceeds %d items", s.Name, s.Max, len(s.Menu))
		}
	case ControlTypeInteger, ControlTypeInteger64:
	default:
		return fmt.Errorf("control %s: unknown type %d", s.Name, s.Type)
	}
	if s.Step <= 0 {
		return fmt.Errorf("control %s: step %d must be positive", s.Name, s.Step)
	}
	if s.Min > s.Max {
		return fmt.Errorf("control %s: min %d > max %d", s.Name, s.Min, s.Max)
	}
	if s.Default < s.Min || s.Default > s.Max {
		return fmt.Errorf("control %s: default %d outside [%d,%d]", s.Name, s.Default, s.Min, s.Max)
	}
	return nil
}

func (r *registry) free() {
	r.ctrls = make(map[ControlID]*Control)
	r.byName = make(map[string]ControlID)
}

func (r *registry) lookupLocked(id ControlID) (*Control, error) {
	c, ok := r.ctrls[id]
	if !ok {
		return nil, newError(CodeOutOfRange, fmt.Sprintf("unknown control %#x", uint32(id)), nil)
	}
	return c, nil
}

func (r *registry) idByName(name string) (ControlID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

func (r *registry) listLocked() []Control {
	out := make([]Control, 0, len(r.ctrls))
	for _, c := range r.ctrls {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func checkValue(c *Control, value int64) error {
	if value < c.Min || value > c.Max {
		return newError(CodeRange,
			fmt.Sprintf("%s: %d outside [%d,%d]", c.Name, value, c.Min, c.Max), nil)
	}
	if (value-c.Min)%c.Step != 0 {
		return newError(CodeRange,
			fmt.Sprintf("%s: %d not a multiple of step %d from %d", c.Name, value, c.Step, c.Min), nil)
	}
	return nil
}

// setLocked validates and commits a host write.
func (r *registry) setLocked(id ControlID, value int64) (Control, error) {
	c, err := r.lookupLocked(id)
	if err != nil {
		return Control{}, err
	}
	if c.ReadOnly() {
		return *c, newError(CodeReadOnly, c.Name+" is read-only", nil)
	}
	if err := checkValue(c, value); err != nil {
		return *c, err
	}
	return r.commitLocked(c, value)
}

// updateLocked changes a value on behalf of the device itself, bypassing the
// read-only flag. The value is clamped into range.
func (r *registry) updateLocked(id ControlID, value int64) error {
	c, ok := r.ctrls[id]
	if !ok {
		return nil
	}
	value = max(c.Min, min(c.Max, value))
	_, err := r.commitLocked(c, value)
	return err
}

// setRangeLocked replaces a control's bounds and default, moving the current
// value to the new default when it no longer fits.
func (r *registry) setRangeLocked(id ControlID, lo, hi, step, def int64) error {
	c, ok := r.ctrls[id]
	if !ok {
		return nil
	}
	spec := c.ControlSpec
	spec.Min, spec.Max, spec.Step, spec.Default = lo, hi, step, def
	if err := validateSpec(spec); err != nil {
		return newError(CodeRange, "invalid range", err)
	}
	c.ControlSpec = spec
	if checkValue(c, c.Value) != nil {
		_, err := r.commitLocked(c, def)
		return err
	}
	return nil
}

func (r *registry) commitLocked(c *Control, value int64) (Control, error) {
	if c.Value == value {
		return *c, nil
	}
	prev := c.Value
	c.Value = value
	if err := r.handler(*c); err != nil {
		c.Value = prev
		return *c, err
	}
	return *c, nil
}
