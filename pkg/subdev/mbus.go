package subdev

import (
	"fmt"
	"strconv"
	"strings"
)

// Media bus pixel codes (MEDIA_BUS_FMT_*).
const (
	MbusFmtRGB888_1X24  uint32 = 0x100a
	MbusFmtBGR888_1X24  uint32 = 0x1013
	MbusFmtUYVY8_1X16   uint32 = 0x200f
	MbusFmtYUYV8_1X16   uint32 = 0x2011
	MbusFmtSRGGB10_1X10 uint32 = 0x300f
	MbusFmtSRGGB12_1X12 uint32 = 0x3012
)

var mbusCodeNames = map[uint32]string{
	MbusFmtRGB888_1X24:  "RGB888_1X24",
	MbusFmtBGR888_1X24:  "BGR888_1X24",
	MbusFmtUYVY8_1X16:   "UYVY8_1X16",
	MbusFmtYUYV8_1X16:   "YUYV8_1X16",
	MbusFmtSRGGB10_1X10: "SRGGB10_1X10",
	MbusFmtSRGGB12_1X12: "SRGGB12_1X12",
}

// CodeName returns the symbolic name of a media bus code.
func CodeName(code uint32) string {
	if name, ok := mbusCodeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", code)
}

// ParseCode accepts a symbolic name as printed by CodeName, with or without
// the MEDIA_BUS_FMT_ prefix, or a numeric code.
func ParseCode(s string) (uint32, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "MEDIA_BUS_FMT_")
	for code, n := range mbusCodeNames {
		if n == name {
			return code, nil
		}
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown media bus code %q", s)
	}
	return uint32(v), nil
}

// Field is the field order of a frame.
type Field uint32

// Field orders.
const (
	FieldAny        Field = 0
	FieldNone       Field = 1
	FieldTop        Field = 2
	FieldBottom     Field = 3
	FieldInterlaced Field = 4
)

// Colorspace identifies the chromaticities of the primaries and white point.
type Colorspace uint32

// Colorspaces.
const (
	ColorspaceDefault   Colorspace = 0
	ColorspaceSMPTE170M Colorspace = 1
	ColorspaceSMPTE240M Colorspace = 2
	ColorspaceRec709    Colorspace = 3
	ColorspaceJPEG      Colorspace = 7
	ColorspaceSRGB      Colorspace = 8
	ColorspaceOpRGB     Colorspace = 9
	ColorspaceBT2020    Colorspace = 10
	ColorspaceRaw       Colorspace = 11
	ColorspaceDCIP3     Colorspace = 12
)

// XferFunc is the transfer function.
type XferFunc uint32

// Transfer functions.
const (
	XferFuncDefault   XferFunc = 0
	XferFunc709       XferFunc = 1
	XferFuncSRGB      XferFunc = 2
	XferFuncOpRGB     XferFunc = 3
	XferFuncSMPTE240M XferFunc = 4
	XferFuncNone      XferFunc = 5
	XferFuncDCIP3     XferFunc = 6
)

// YCbCrEncoding is the Y'CbCr encoding.
type YCbCrEncoding uint32

// Y'CbCr encodings.
const (
	YCbCrEncDefault   YCbCrEncoding = 0
	YCbCrEnc601       YCbCrEncoding = 1
	YCbCrEnc709       YCbCrEncoding = 2
	YCbCrEncBT2020    YCbCrEncoding = 6
	YCbCrEncSMPTE240M YCbCrEncoding = 8
)

// Quantization is the quantization range.
type Quantization uint32

// Quantization ranges.
const (
	QuantizationDefault   Quantization = 0
	QuantizationFullRange Quantization = 1
	QuantizationLimRange  Quantization = 2
)

// DefaultYCbCrEncoding maps a colorspace to its default Y'CbCr encoding.
func DefaultYCbCrEncoding(cs Colorspace) YCbCrEncoding {
	switch cs {
	case ColorspaceRec709, ColorspaceDCIP3:
		return YCbCrEnc709
	case ColorspaceBT2020:
		return YCbCrEncBT2020
	case ColorspaceSMPTE240M:
		return YCbCrEncSMPTE240M
	default:
		return YCbCrEnc601
	}
}

// DefaultQuantization maps a colorspace to its default quantization.
// RGB and HSV encodings are full range except for BT.2020.
func DefaultQuantization(isRGBOrHSV bool, cs Colorspace, _ YCbCrEncoding) Quantization {
	if isRGBOrHSV && cs == ColorspaceBT2020 {
		return QuantizationLimRange
	}
	if isRGBOrHSV || cs == ColorspaceJPEG {
		return QuantizationFullRange
	}
	return QuantizationLimRange
}

// DefaultXferFunc maps a colorspace to its default transfer function.
func DefaultXferFunc(cs Colorspace) XferFunc {
	switch cs {
	case ColorspaceOpRGB:
		return XferFuncOpRGB
	case ColorspaceSMPTE240M:
		return XferFuncSMPTE240M
	case ColorspaceDCIP3:
		return XferFuncDCIP3
	case ColorspaceRaw:
		return XferFuncNone
	case ColorspaceSRGB, ColorspaceJPEG:
		return XferFuncSRGB
	default:
		return XferFunc709
	}
}
