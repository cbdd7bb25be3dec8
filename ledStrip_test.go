package clockless

import (
	"image/color"
	"testing"
)

func stripValues(l *LEDStrip) []uint32 {
	out := make([]uint32, l.TotalCount())
	for i := range out {
		out[i] = l.UInt32(i)
	}
	return out
}

func equalValues(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLEDStripShift(t *testing.T) {
	tests := []struct {
		name  string
		shift func(l *LEDStrip)
		want  []uint32
	}{
		{"left 1", func(l *LEDStrip) { l.ShiftLeft(1) }, []uint32{2, 3, 4, 5, 1}},
		{"left 7", func(l *LEDStrip) { l.ShiftLeft(7) }, []uint32{3, 4, 5, 1, 2}},
		{"right 1", func(l *LEDStrip) { l.ShiftRight(1) }, []uint32{5, 1, 2, 3, 4}},
		{"right 5", func(l *LEDStrip) { l.ShiftRight(5) }, []uint32{1, 2, 3, 4, 5}},
		{"negative", func(l *LEDStrip) { l.ShiftLeft(-2) }, []uint32{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		l := NewLEDStrip(5)
		for i := 0; i < 5; i++ {
			l.SetDirect(i, uint32(i+1))
		}
		tt.shift(l)
		if got := stripValues(l); !equalValues(got, tt.want) {
			t.Errorf("%s: got %v want %v", tt.name, got, tt.want)
		}
	}
	NewLEDStrip(0).ShiftLeft(3)
}

func TestLEDStripAccess(t *testing.T) {
	l := NewLEDStrip(3)
	l.SetColor(0, color.RGBA{R: 1, G: 2, B: 3, A: 0xff})
	l.SetRGB(1, 4, 5, 6)
	l.SetDirect(2, 0xff070809)
	l.SetDirect(3, 1)
	l.SetDirect(-1, 1)

	if got := stripValues(l); !equalValues(got, []uint32{0x010203, 0x040506, 0x070809}) {
		t.Fatalf("got %x", got)
	}
	if l.Red(1) != 4 || l.Green(1) != 5 || l.Blue(1) != 6 {
		t.Fatalf("color accessors wrong for %x", l.UInt32(1))
	}
	if l.UInt32(5) != 0 || l.Red(-1) != 0 {
		t.Fatalf("out of range reads must be 0")
	}
	l.Fill(0x123456)
	if got := stripValues(l); !equalValues(got, []uint32{0x123456, 0x123456, 0x123456}) {
		t.Fatalf("Fill got %x", got)
	}
	l.Clear()
	if got := stripValues(l); !equalValues(got, []uint32{0, 0, 0}) {
		t.Fatalf("Clear got %x", got)
	}
}

func TestSingleLED(t *testing.T) {
	led := ColorToSingleLED(color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff})
	if led != RGB(0x10, 0x20, 0x30) {
		t.Fatalf("ColorToSingleLED got %#x", uint32(led))
	}
	if led.ToColor() != (color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}) {
		t.Fatalf("ToColor got %v", led.ToColor())
	}
	if got := RGB(0xff, 0x80, 0).Scale(128); got != RGB(128, 64, 0) {
		t.Fatalf("Scale got %#x", uint32(got))
	}
	if led.TotalCount() != 1 || led.UInt32(0) != 0x102030 {
		t.Fatalf("SingleLED as LEDs wrong")
	}
}
