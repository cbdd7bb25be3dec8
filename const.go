//Package clockless drives timing sensitive single wire LED strips (WS2812 and friends) from a pulse peripheral
//which has fewer output channels than there are strips.
//
//Every strip registers with a Driver. The last strip to call Show starts as many strips as there are channels and
//waits. Everything after that happens in the interrupt handler: channel memory is refilled one pixel at a time and
//a channel which finishes is handed to the next waiting strip.
package clockless

import (
	"errors"
	"log/slog"
	"math"
)

// Errors
var (
	ErrTooManyStrips         = errors.New("too many strips registered")
	ErrBufferAllocation      = errors.New("pulse buffer too large")
	ErrConfigInitialized     = errors.New("config already initialized")
	ErrConfigWrongValue      = errors.New("config value out of range")
	ErrNoPeripheral          = errors.New("no peripheral set")
	ErrNoTransmitter         = errors.New("no transmitter set")
	ErrModeNotSupported      = errors.New("mode not supported")
	ErrPinNotAllowed         = errors.New("selected pin not allowed")
	ErrNoHardware            = errors.New("no hardware found")
	ErrStripTypeNotSupported = errors.New("strip type not supported")
	ErrShowInProgress        = errors.New("show cycle in progress")
)

//Mode selects how pulses reach the hardware.
type Mode uint8

//Valid Modes
const (
	//ModeStreaming multiplexes all strips over the channels and refills channel memory from the interrupt handler.
	ModeStreaming Mode = iota
	//ModePrecompute converts a whole strip up front and hands it to a Transmitter. No multiplexing.
	ModePrecompute
)

func (m Mode) String() string {
	switch m {
	case ModeStreaming:
		return "streaming"
	case ModePrecompute:
		return "precompute"
	}
	return "unknown"
}

//StripType is the color order of the connected strip. Each byte holds the shift needed to extract the color
//from a 0x00RRGGBB value, in the order red, green, blue.
type StripType uint

//Valid StripTypes
const (
	StripRGB StripType = 0x00100800
	StripRBG StripType = 0x00100008
	StripGRB StripType = 0x00081000
	StripGBR StripType = 0x00080010
	StripBRG StripType = 0x00001008
	StripBGR StripType = 0x00000810
)

// Predefined fixed LED types
const (
	WS2812Strip = StripGRB
	WS2811Strip = StripRGB
	SK6812Strip = StripGRB
)

//shifts returns the shift for red, green and blue.
func (t StripType) shifts() (r, g, b uint8, err error) {
	switch t {
	case StripRGB, StripRBG, StripGRB, StripGBR, StripBRG, StripBGR:
	default:
		return 0, 0, 0, ErrStripTypeNotSupported
	}
	return uint8(t >> 16), uint8(t >> 8), uint8(t), nil
}

var gammaTable [256]uint8

//Enable Debug output
var Debug bool

var logger = slog.Default()

func init() {
	SetGamma(1)
}

//SetGamma recalculates the gamma table which is applied to every color after scaling. 1 disables correction.
func SetGamma(gamma float64) {
	if gamma <= 0 {
		gamma = 1
	}
	for x := 0; x < 256; x++ {
		gammaTable[x] = uint8(math.Round(math.Pow(float64(x)/255, gamma) * 255))
	}
}

//SetLogger sets the logger used for debug output. nil restores slog.Default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

func logOutput(msg string, args ...any) {
	if Debug {
		logger.Debug(msg, args...)
	}
}
