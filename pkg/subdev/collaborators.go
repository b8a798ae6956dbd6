package subdev

// PowerManager tracks whether the device is considered powered. The model
// never touches real hardware; the power state is only bookkeeping owned by
// the host.
type PowerManager interface {
	// Activate marks the device active and enables runtime power management.
	Activate(name string) error
	// Release disables runtime power management and marks the device suspended.
	Release(name string)
}

// EntityFunction is the media entity function (MEDIA_ENT_F_*).
type EntityFunction string

// Entity functions.
const (
	EntityFunctionCamSensor EntityFunction = "cam-sensor"
)

// PadFlags describe the direction of a pad.
type PadFlags uint32

// Pad flags.
const (
	PadFlagSink   PadFlags = 0x1
	PadFlagSource PadFlags = 0x2
)

// Pad is one media pad of an entity.
type Pad struct {
	Index uint32
	Flags PadFlags
}

// Entity describes the device's node in the media graph.
type Entity struct {
	Name     string
	Function EntityFunction
	Pads     []Pad
	// HasDevnode and HasEvents mirror the sub-device flags.
	HasDevnode bool
	HasEvents  bool
}

// MediaGraph registers the device's topology descriptor.
type MediaGraph interface {
	RegisterEntity(e Entity) error
	UnregisterEntity(name string)
}

// AsyncRegistrar announces the device to whoever waits for it on the bus.
type AsyncRegistrar interface {
	RegisterSubdev(d *Device) error
	UnregisterSubdev(d *Device)
}

// Orientation is the physical mounting of the camera (V4L2_CAMERA_ORIENTATION_*).
type Orientation int

// Orientations.
const (
	OrientationUnknown  Orientation = -1
	OrientationFront    Orientation = 0
	OrientationBack     Orientation = 1
	OrientationExternal Orientation = 2
)

// RotationUnknown marks an unset sensor rotation.
const RotationUnknown = -1

// Properties is the device identity supplied by the platform description.
type Properties struct {
	Vendor      string
	Model       string
	Orientation Orientation
	Rotation    int
}

// UnknownProperties returns identity properties with nothing set.
func UnknownProperties() Properties {
	return Properties{
		Orientation: OrientationUnknown,
		Rotation:    RotationUnknown,
	}
}

// IdentityProvider supplies device identity properties at construction.
type IdentityProvider interface {
	DeviceProperties(name string) (Properties, error)
}

// StreamObserver is told about every streaming transition. It runs with the
// device lock held.
type StreamObserver func(enabled bool)

type noopPower struct{}

func (noopPower) Activate(string) error { return nil }
func (noopPower) Release(string)        {}

type noopGraph struct{}

func (noopGraph) RegisterEntity(Entity) error { return nil }
func (noopGraph) UnregisterEntity(string)     {}

type noopAsync struct{}

func (noopAsync) RegisterSubdev(*Device) error { return nil }
func (noopAsync) UnregisterSubdev(*Device)     {}

type noopIdentity struct{}

func (noopIdentity) DeviceProperties(string) (Properties, error) {
	return UnknownProperties(), nil
}
