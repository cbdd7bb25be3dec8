package clockless_test

import (
	"image/color"
	"testing"

	"github.com/DerLukas15/clockless"
)

func TestDisplaySize(t *testing.T) {
	_, _, strips := precomputeSetup(t, 18)
	tests := []struct {
		count int
		width int16
		x, y  int16
	}{
		{12, 4, 4, 3},
		{12, 0, 12, 1},
		{5, 9, 5, 1},
		{7, 3, 3, 2},
	}
	for _, tt := range tests {
		disp, err := clockless.NewDisplay(strips[0], tt.count, clockless.StripRGB, tt.width, false)
		if err != nil {
			t.Fatal(err)
		}
		if x, y := disp.Size(); x != tt.x || y != tt.y {
			t.Errorf("count %d width %d: got %dx%d want %dx%d", tt.count, tt.width, x, y, tt.x, tt.y)
		}
	}
	if _, err := clockless.NewDisplay(strips[0], 4, clockless.StripType(0x42), 2, false); err == nil {
		t.Fatalf("unknown strip type accepted")
	}
}

func TestDisplaySerpentine(t *testing.T) {
	_, _, strips := precomputeSetup(t, 18)
	disp, err := clockless.NewDisplay(strips[0], 6, clockless.StripRGB, 3, true)
	if err != nil {
		t.Fatal(err)
	}
	disp.SetPixel(0, 0, color.RGBA{R: 1})
	disp.SetPixel(0, 1, color.RGBA{R: 2})
	disp.SetPixel(2, 1, color.RGBA{R: 3})
	disp.SetPixel(3, 0, color.RGBA{R: 9})
	disp.SetPixel(0, -1, color.RGBA{R: 9})

	want := []uint32{0x010000, 0, 0, 0x030000, 0, 0x020000}
	leds := disp.LEDs()
	for i, w := range want {
		if got := leds.UInt32(i); got != w {
			t.Errorf("led %d got %#x want %#x", i, got, w)
		}
	}
}

func TestDisplayTransmits(t *testing.T) {
	_, sim, strips := precomputeSetup(t, 18)
	disp, err := clockless.NewDisplay(strips[0], 2, clockless.StripGRB, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	disp.SetPixel(0, 0, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff})
	disp.SetPixel(1, 0, color.RGBA{R: 0x01, G: 0x02, B: 0x03, A: 0xff})

	for i := 0; i < 2; i++ {
		if err := disp.Display(); err != nil {
			t.Fatal(err)
		}
	}
	trs := sim.Transmissions()
	if len(trs) != 2 {
		t.Fatalf("got %d transmissions want 2", len(trs))
	}
	want := expectItems([][3]uint8{{0x20, 0x10, 0x30}, {0x02, 0x01, 0x03}})
	for n, tr := range trs {
		if len(tr.Items) != len(want) || !sameItems(tr.Items[:len(want)-1], want[:len(want)-1]) {
			t.Fatalf("transmission %d not in GRB order", n)
		}
	}
}
