package clockless

import (
	"errors"
	"testing"
)

func TestNewRejectsUnknownMode(t *testing.T) {
	if _, err := New(Mode(7)); !errors.Is(err, ErrModeNotSupported) {
		t.Fatalf("got %v want ErrModeNotSupported", err)
	}
}

func TestDefaults(t *testing.T) {
	d, err := New(ModeStreaming)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.cyclesPerTick(); got != 6 {
		t.Errorf("cyclesPerTick got %d want 6", got)
	}
	if got := d.tickHz(); got != 40000000 {
		t.Errorf("tickHz got %d want 40000000", got)
	}
	if got := d.resetTicks(); got != 2000 {
		t.Errorf("resetTicks got %d want 2000", got)
	}
	if err := d.SetResetDuration(100); err != nil {
		t.Fatal(err)
	}
	if got := d.resetTicks(); got != 100 {
		t.Errorf("resetTicks after SetResetDuration got %d want 100", got)
	}
}

func TestSetters(t *testing.T) {
	d, _ := New(ModeStreaming)
	if err := d.SetMaxChannels(12); err != nil || d.maxChannels != MaxChannels {
		t.Errorf("SetMaxChannels(12) err=%v max=%d", err, d.maxChannels)
	}
	if err := d.SetMaxChannels(0); err != nil || d.maxChannels != 1 {
		t.Errorf("SetMaxChannels(0) err=%v max=%d", err, d.maxChannels)
	}
	wrong := []struct {
		name string
		err  error
	}{
		{"SetClockDivider", d.SetClockDivider(0)},
		{"SetCPUFrequency", d.SetCPUFrequency(0)},
		{"SetMemBlockSize small", d.SetMemBlockSize(40)},
		{"SetMemBlockSize large", d.SetMemBlockSize(1024)},
		{"SetResetDuration", d.SetResetDuration(0x8000)},
		{"SetMaxPrecomputeItems", d.SetMaxPrecomputeItems(10)},
		{"SetMaxStrips", d.SetMaxStrips(0)},
	}
	for _, w := range wrong {
		if !errors.Is(w.err, ErrConfigWrongValue) {
			t.Errorf("%s: got %v want ErrConfigWrongValue", w.name, w.err)
		}
	}
}

func TestTooManyStrips(t *testing.T) {
	d, _ := New(ModeStreaming)
	if err := d.SetMaxStrips(2); err != nil {
		t.Fatal(err)
	}
	for pin := uint32(0); pin < 2; pin++ {
		if _, err := d.AddStrip(pin, WS2812Timing); err != nil {
			t.Fatalf("AddStrip %d: %v", pin, err)
		}
	}
	s, err := d.AddStrip(9, WS2812Timing)
	if !errors.Is(err, ErrTooManyStrips) || s != nil {
		t.Fatalf("third strip got %v, %v want ErrTooManyStrips", s, err)
	}
	if d.Strips() != 2 {
		t.Fatalf("registry holds %d strips after failed add", d.Strips())
	}
	if err := d.SetMaxStrips(1); !errors.Is(err, ErrConfigWrongValue) {
		t.Fatalf("shrinking below registered strips got %v", err)
	}
}

func TestInitialize(t *testing.T) {
	d, _ := New(ModeStreaming)
	if err := d.Initialize(); !errors.Is(err, ErrNoPeripheral) {
		t.Fatalf("without peripheral got %v", err)
	}
	p, _ := New(ModePrecompute)
	if err := p.Initialize(); !errors.Is(err, ErrNoTransmitter) {
		t.Fatalf("without transmitter got %v", err)
	}

	d, f, strips, err := newTestDriver(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.config) != MaxChannels || f.config[3].ClockDivider != 2 || f.config[3].MemBlockSize != 64 {
		t.Fatalf("channel config got %+v", f.config)
	}
	if f.handler == nil {
		t.Fatalf("no interrupt handler installed")
	}
	if strips[0].one != NewItem(true, 35, false, 15) || strips[0].zero != NewItem(true, 10, false, 40) {
		t.Fatalf("strip items not encoded: one=%#x zero=%#x", strips[0].one, strips[0].zero)
	}
	if err := d.Initialize(); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if len(f.config) != MaxChannels {
		t.Fatalf("second Initialize configured again")
	}

	checks := []error{
		d.SetMaxChannels(2),
		d.SetClockDivider(4),
		d.SetPeripheral(f),
		func() error { _, err := d.AddStrip(3, WS2812Timing); return err }(),
	}
	for i, err := range checks {
		if !errors.Is(err, ErrConfigInitialized) {
			t.Errorf("check %d: got %v want ErrConfigInitialized", i, err)
		}
	}
}

func TestStop(t *testing.T) {
	d, f, _, err := newTestDriver(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	d.numStarted = 1
	if err := d.Stop(); !errors.Is(err, ErrShowInProgress) {
		t.Fatalf("Stop during cycle got %v", err)
	}
	d.numStarted = 0
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if f.handler != nil {
		t.Fatalf("handler still installed")
	}
	if f.masked != 0 {
		t.Fatalf("interrupt mask left held: %d", f.masked)
	}
	if err := d.SetMaxChannels(2); err != nil {
		t.Fatalf("setter after Stop: %v", err)
	}
}
