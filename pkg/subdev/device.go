package subdev

import (
	"log/slog"
	"sync"
)

// Default identity of the modelled part.
const (
	DefaultName       = "ds90ub940"
	DefaultCompatible = "ti,ds90ub940"
)

// MaxBlanking bounds the horizontal and vertical blanking controls.
const MaxBlanking = 0xffff

var defaultLinkFreqs = []int64{DefaultLinkFreq}

// Device is a software model of a camera sensor sub-device. All state is
// guarded by one mutex which the control registry shares.
type Device struct {
	name       string
	compatible string
	catalog    Catalog
	linkFreqs  []int64
	logger     *slog.Logger

	power    PowerManager
	graph    MediaGraph
	async    AsyncRegistrar
	identity IdentityProvider

	ctrlHandler ControlHandler
	onStream    StreamObserver

	props  Properties
	entity Entity

	mu        sync.Mutex
	fmt       Format
	modeIndex int
	streaming bool
	ctrls     *registry
	closed    bool
}

// Option configures a Device at construction.
type Option func(*Device)

// WithName sets the device name and bus compatible string.
func WithName(name, compatible string) Option {
	return func(d *Device) {
		d.name = name
		d.compatible = compatible
	}
}

// WithCatalog replaces the built-in mode catalog.
func WithCatalog(c Catalog) Option {
	return func(d *Device) {
		d.catalog = c
	}
}

// WithLinkFrequencies replaces the link frequency menu.
func WithLinkFrequencies(freqs ...int64) Option {
	return func(d *Device) {
		d.linkFreqs = freqs
	}
}

// WithLogger sets the device logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// WithPower sets the power manager collaborator.
func WithPower(p PowerManager) Option {
	return func(d *Device) {
		d.power = p
	}
}

// WithMediaGraph sets the media graph collaborator.
func WithMediaGraph(g MediaGraph) Option {
	return func(d *Device) {
		d.graph = g
	}
}

// WithAsyncRegistrar sets the bus collaborator.
func WithAsyncRegistrar(a AsyncRegistrar) Option {
	return func(d *Device) {
		d.async = a
	}
}

// WithIdentity sets the identity provider.
func WithIdentity(p IdentityProvider) Option {
	return func(d *Device) {
		d.identity = p
	}
}

// WithControlHandler sets the control dispatch callback.
func WithControlHandler(h ControlHandler) Option {
	return func(d *Device) {
		d.ctrlHandler = h
	}
}

// WithStreamObserver sets a callback for streaming transitions.
func WithStreamObserver(fn StreamObserver) Option {
	return func(d *Device) {
		d.onStream = fn
	}
}

// New constructs and registers a device. On failure every step already
// taken is undone in reverse order and no collaborator keeps a reference.
func New(opts ...Option) (*Device, error) {
	d := &Device{
		name:       DefaultName,
		compatible: DefaultCompatible,
		catalog:    DefaultCatalog(),
		linkFreqs:  defaultLinkFreqs,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With("device", d.name)
	if d.power == nil {
		d.power = noopPower{}
	}
	if d.graph == nil {
		d.graph = noopGraph{}
	}
	if d.async == nil {
		d.async = noopAsync{}
	}
	if d.identity == nil {
		d.identity = noopIdentity{}
	}
	if d.catalog.Len() == 0 {
		return nil, newError(CodeConstruction, "empty mode catalog", nil)
	}

	d.setDefaultFormat()

	if err := d.power.Activate(d.name); err != nil {
		return nil, newError(CodeConstruction, "failed to activate power", err)
	}

	var unwind []func()
	committed := false
	defer func() {
		if committed {
			return
		}
		for i := len(unwind) - 1; i >= 0; i-- {
			unwind[i]()
		}
	}()
	unwind = append(unwind, func() { d.power.Release(d.name) })

	if err := d.initControls(); err != nil {
		return nil, newError(CodeConstruction, "failed to init controls", err)
	}
	unwind = append(unwind, d.freeControls)

	d.entity = Entity{
		Name:       d.name,
		Function:   EntityFunctionCamSensor,
		Pads:       []Pad{{Index: 0, Flags: PadFlagSource}},
		HasDevnode: true,
		HasEvents:  true,
	}
	if err := d.graph.RegisterEntity(d.entity); err != nil {
		d.logger.Error("failed to init entity pads", "error", err)
		return nil, newError(CodeConstruction, "failed to init entity pads", err)
	}
	unwind = append(unwind, func() { d.graph.UnregisterEntity(d.name) })

	if err := d.async.RegisterSubdev(d); err != nil {
		d.logger.Error("failed to register sensor sub-device", "error", err)
		return nil, newError(CodeConstruction, "failed to register sensor sub-device", err)
	}

	committed = true
	d.logger.Info("probe success", "compatible", d.compatible, "modes", d.catalog.Len())
	return d, nil
}

func (d *Device) setDefaultFormat() {
	d.modeIndex = 0
	d.fmt = DefaultFormat(d.catalog)
}

func (d *Device) initControls() error {
	r := newRegistry(d.ctrlHandler, 11)
	mode := d.catalog.modes[d.modeIndex]

	r.add(ControlSpec{
		ID: CIDPixelRate, Name: "pixel_rate", Type: ControlTypeInteger64,
		Min: mode.PixelRate, Max: mode.PixelRate, Step: 1, Default: mode.PixelRate,
		Flags: FlagReadOnly,
	})
	r.add(ControlSpec{
		ID: CIDLinkFreq, Name: "link_frequency", Type: ControlTypeIntegerMenu,
		Min: 0, Max: int64(len(d.linkFreqs)) - 1, Step: 1, Default: int64(mode.LinkFreqIndex),
		Flags: FlagReadOnly, IntMenu: d.linkFreqs,
	})
	r.add(ControlSpec{
		ID: CIDVBlank, Name: "vertical_blanking", Type: ControlTypeInteger,
		Min: 0, Max: MaxBlanking, Step: 1, Default: mode.VBlank,
	})
	r.add(ControlSpec{
		ID: CIDHBlank, Name: "horizontal_blanking", Type: ControlTypeInteger,
		Min: 0, Max: MaxBlanking, Step: 1, Default: mode.HBlank,
	})
	r.add(ControlSpec{
		ID: CIDExposure, Name: "exposure", Type: ControlTypeInteger,
		Min: 0, Max: 1, Step: 1, Default: 0,
	})
	r.add(ControlSpec{
		ID: CIDAnalogueGain, Name: "analogue_gain", Type: ControlTypeInteger,
		Min: 0, Max: 1, Step: 1, Default: 0,
	})
	r.add(ControlSpec{
		ID: CIDDigitalGain, Name: "digital_gain", Type: ControlTypeInteger,
		Min: 0, Max: 1, Step: 1, Default: 0,
	})
	r.add(ControlSpec{
		ID: CIDHFlip, Name: "horizontal_flip", Type: ControlTypeBoolean,
		Min: 0, Max: 1, Step: 1, Default: 0,
	})
	r.add(ControlSpec{
		ID: CIDVFlip, Name: "vertical_flip", Type: ControlTypeBoolean,
		Min: 0, Max: 1, Step: 1, Default: 0,
	})

	props, err := d.identity.DeviceProperties(d.name)
	if err != nil {
		r.free()
		return newError(CodeControlInit, "failed to read device properties", err)
	}
	addPropertyControls(r, props)

	if r.err != nil {
		d.logger.Error("control init failed", "error", r.err)
		r.free()
		return newError(CodeControlInit, "control init failed", r.err)
	}

	d.props = props
	d.ctrls = r
	return nil
}

// addPropertyControls adds the identity controls that are known.
func addPropertyControls(r *registry, p Properties) {
	if p.Orientation != OrientationUnknown {
		r.add(ControlSpec{
			ID: CIDCameraOrientation, Name: "camera_orientation", Type: ControlTypeMenu,
			Min: 0, Max: int64(OrientationExternal), Step: 1, Default: int64(p.Orientation),
			Flags: FlagReadOnly, Menu: []string{"front", "back", "external"},
		})
	}
	if p.Rotation != RotationUnknown {
		r.add(ControlSpec{
			ID: CIDCameraSensorRotation, Name: "camera_sensor_rotation", Type: ControlTypeInteger,
			Min: 0, Max: 360, Step: 1, Default: int64(p.Rotation),
			Flags: FlagReadOnly,
		})
	}
}

func (d *Device) freeControls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctrls.free()
}

// Close unregisters the device and releases its resources. Calls after the
// first are no-ops.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.streaming {
		d.streaming = false
		if d.onStream != nil {
			d.onStream(false)
		}
	}
	d.mu.Unlock()

	d.async.UnregisterSubdev(d)
	d.graph.UnregisterEntity(d.name)
	d.freeControls()
	d.power.Release(d.name)
	d.logger.Info("removed")
}

// Closed reports whether Close has been called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Compatible returns the bus compatible string.
func (d *Device) Compatible() string {
	return d.compatible
}

// Entity returns the media entity descriptor.
func (d *Device) Entity() Entity {
	return d.entity
}

// Properties returns the identity properties read at construction.
func (d *Device) Properties() Properties {
	return d.props
}

// Catalog returns the mode catalog.
func (d *Device) Catalog() Catalog {
	return d.catalog
}

// Controls returns a snapshot of all controls ordered by id.
func (d *Device) Controls() []Control {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrls.listLocked()
}

// GetControl returns the current state of one control.
func (d *Device) GetControl(id ControlID) (Control, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Control{}, ErrClosed
	}
	c, err := d.ctrls.lookupLocked(id)
	if err != nil {
		return Control{}, err
	}
	return *c, nil
}

// LookupControl resolves a control name such as "exposure" to its id.
func (d *Device) LookupControl(name string) (ControlID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrls.idByName(name)
}

// SetControl validates and applies a new control value.
func (d *Device) SetControl(id ControlID, value int64) (Control, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Control{}, ErrClosed
	}
	return d.ctrls.setLocked(id, value)
}
