package clockless

import "testing"

func TestTimingNS(t *testing.T) {
	got := TimingNS(250, 625, 375, 240000000)
	if got != (Timing{T1: 60, T2: 150, T3: 90}) {
		t.Fatalf("TimingNS WS2812 got %+v", got)
	}
	// rounds up
	if got := TimingNS(1, 5, 0, 240000000); got != (Timing{T1: 1, T2: 2, T3: 0}) {
		t.Fatalf("TimingNS rounding got %+v", got)
	}
}

func TestEncodeTiming(t *testing.T) {
	tests := []struct {
		name      string
		timing    Timing
		cycles    uint32
		zero, one [2]uint32 // high, low
	}{
		{"ws2812", WS2812Timing, 6, [2]uint32{10, 40}, [2]uint32{35, 15}},
		{"truncates", Timing{T1: 7, T2: 7, T3: 7}, 6, [2]uint32{1, 2}, [2]uint32{2, 1}},
		{"divider 1", Timing{T1: 3, T2: 4, T3: 5}, 1, [2]uint32{3, 9}, [2]uint32{7, 5}},
	}
	for _, tt := range tests {
		zero, one := encodeTiming(tt.timing, tt.cycles)
		if !zero.Level0() || zero.Level1() || !one.Level0() || one.Level1() {
			t.Errorf("%s: levels must be high then low, got zero=%#x one=%#x", tt.name, zero, one)
		}
		if got := [2]uint32{zero.Duration0(), zero.Duration1()}; got != tt.zero {
			t.Errorf("%s: zero got %v want %v", tt.name, got, tt.zero)
		}
		if got := [2]uint32{one.Duration0(), one.Duration1()}; got != tt.one {
			t.Errorf("%s: one got %v want %v", tt.name, got, tt.one)
		}
	}
}

func TestItemLayout(t *testing.T) {
	it := NewItem(true, 35, false, 15)
	if uint32(it) != 0x000f8023 {
		t.Fatalf("NewItem got %#08x want 0x000f8023", uint32(it))
	}
	it = it.WithDuration1(2000)
	if uint32(it) != 0x07d08023 {
		t.Fatalf("WithDuration1 got %#08x want 0x07d08023", uint32(it))
	}
	if it.Duration0() != 35 || !it.Level0() || it.Level1() {
		t.Fatalf("WithDuration1 changed the first half: %#08x", uint32(it))
	}
	if NewItem(true, 0x8000, true, 0) != Item(itemLevel0|itemLevel1) {
		t.Fatalf("durations must be truncated to 15 bits")
	}
}
