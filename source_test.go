package clockless

import (
	"errors"
	"testing"
)

func readPixel(p PixelSource) [3]uint8 {
	px := [3]uint8{p.ChannelByte(0), p.ChannelByte(1), p.ChannelByte(2)}
	p.Advance()
	p.StepDither()
	return px
}

func TestLEDsSourceOrder(t *testing.T) {
	tests := []struct {
		stripType StripType
		want      [3]uint8
	}{
		{StripRGB, [3]uint8{0x11, 0x22, 0x33}},
		{StripRBG, [3]uint8{0x11, 0x33, 0x22}},
		{StripGRB, [3]uint8{0x22, 0x11, 0x33}},
		{StripGBR, [3]uint8{0x22, 0x33, 0x11}},
		{StripBRG, [3]uint8{0x33, 0x11, 0x22}},
		{StripBGR, [3]uint8{0x33, 0x22, 0x11}},
	}
	led := RGB(0x11, 0x22, 0x33)
	for _, tt := range tests {
		src, err := NewLEDsSource(led, tt.stripType)
		if err != nil {
			t.Fatalf("NewLEDsSource(%#x): %v", tt.stripType, err)
		}
		if got := readPixel(src); got != tt.want {
			t.Errorf("strip type %#x got %x want %x", tt.stripType, got, tt.want)
		}
		if src.Has(1) {
			t.Errorf("strip type %#x: source not exhausted after one LED", tt.stripType)
		}
	}
}

func TestLEDsSourceUnknownType(t *testing.T) {
	_, err := NewLEDsSource(NewLEDStrip(1), StripType(0x18100800))
	if !errors.Is(err, ErrStripTypeNotSupported) {
		t.Fatalf("got %v want ErrStripTypeNotSupported", err)
	}
}

func TestLEDsSourceBrightness(t *testing.T) {
	leds := NewLEDStrip(2)
	leds.SetRGB(0, 0x22, 0xff, 0)
	leds.SetRGB(1, 0x80, 0x80, 0x80)
	src, _ := NewLEDsSource(leds, StripRGB)
	src.SetBrightness(128)
	src.Rewind()

	// scale8(x, 128) = x*129/256
	if got, want := readPixel(src), [3]uint8{17, 128, 0}; got != want {
		t.Fatalf("pixel 0 got %v want %v", got, want)
	}
	if got, want := readPixel(src), [3]uint8{64, 64, 64}; got != want {
		t.Fatalf("pixel 1 got %v want %v", got, want)
	}

	src.SetBrightness(0)
	src.Rewind()
	if got := readPixel(src); got != ([3]uint8{}) {
		t.Fatalf("brightness 0 got %v", got)
	}
}

func TestLEDsSourceDither(t *testing.T) {
	leds := NewLEDStrip(3)
	leds.Fill(0x101000)
	src, _ := NewLEDsSource(leds, StripRGB)
	src.SetDither(true)
	ditherFrame = 0
	src.Rewind()

	// frame 1: reversed bits 0x80, e = 256/255+1 = 2, d = scale8(0x80, 2) = 1, then e = 1.
	// d alternates 1, 0, 1 along the strip and zero bytes stay zero.
	want := [][3]uint8{{0x11, 0x11, 0}, {0x10, 0x10, 0}, {0x11, 0x11, 0}}
	for i, w := range want {
		if got := readPixel(src); got != w {
			t.Errorf("pixel %d got %x want %x", i, got, w)
		}
	}

	src.SetDither(false)
	src.Rewind()
	if got := readPixel(src); got != ([3]uint8{0x10, 0x10, 0}) {
		t.Fatalf("without dither got %x", got)
	}
}

func TestLEDsSourceGamma(t *testing.T) {
	defer SetGamma(1)
	SetGamma(2)
	src, _ := NewLEDsSource(RGB(0xff, 0x80, 0), StripRGB)
	got := readPixel(src)
	// round((128/255)^2 * 255) = 64
	if got != ([3]uint8{0xff, 64, 0}) {
		t.Fatalf("gamma 2 got %v", got)
	}
}
