package subdev

// Which selects the format a negotiation call operates on.
type Which int

// Format targets.
const (
	// WhichTrial is the per-session scratch format.
	WhichTrial Which = iota
	// WhichActive is the device-global committed format.
	WhichActive
)

func (w Which) String() string {
	switch w {
	case WhichTrial:
		return "trial"
	case WhichActive:
		return "active"
	default:
		return "unknown"
	}
}

// ParseWhich converts "trial"/"try" or "active" into a Which.
func ParseWhich(s string) (Which, bool) {
	switch s {
	case "trial", "try":
		return WhichTrial, true
	case "active", "":
		return WhichActive, true
	default:
		return WhichActive, false
	}
}

// Format is a media bus frame format.
type Format struct {
	Width        uint32        `json:"width"`
	Height       uint32        `json:"height"`
	Code         uint32        `json:"code"`
	Field        Field         `json:"field"`
	Colorspace   Colorspace    `json:"colorspace"`
	YCbCrEnc     YCbCrEncoding `json:"ycbcr_enc"`
	Quantization Quantization  `json:"quantization"`
	XferFunc     XferFunc      `json:"xfer_func"`
}

// FrameSizeRange is the answer to a frame size enumeration.
type FrameSizeRange struct {
	MinWidth  uint32 `json:"min_width"`
	MaxWidth  uint32 `json:"max_width"`
	MinHeight uint32 `json:"min_height"`
	MaxHeight uint32 `json:"max_height"`
}

// ResetColorspace installs sRGB and its default encodings.
func ResetColorspace(f *Format) {
	f.Colorspace = ColorspaceSRGB
	f.YCbCrEnc = DefaultYCbCrEncoding(f.Colorspace)
	f.Quantization = DefaultQuantization(true, f.Colorspace, f.YCbCrEnc)
	f.XferFunc = DefaultXferFunc(f.Colorspace)
}

// formatFromMode derives a progressive sRGB format from a mode.
func formatFromMode(m Mode) Format {
	f := Format{
		Width:  m.Width,
		Height: m.Height,
		Code:   m.Code,
		Field:  FieldNone,
	}
	ResetColorspace(&f)
	return f
}

// DefaultFormat returns the format backed by the first catalog entry.
func DefaultFormat(c Catalog) Format {
	return formatFromMode(c.modes[0])
}
