package clockless

import (
	"sync"

	"github.com/DerLukas15/clockless/internal/mathx"
	"github.com/pkg/errors"
)

//Driver is the main struct which holds all information.
/*
A Driver owns one peripheral (ModeStreaming) or one Transmitter (ModePrecompute) and all strips registered with it.
Strips are added with AddStrip before the Driver is initialized. Initialize is called by the first Show if it was not
called before.

There are only some methods possible once the Driver has been initialized. Use method Stop to deinitialize the Driver.
*/
type Driver struct {
	mu sync.Mutex // guards the configuration below

	mode        Mode
	peripheral  Peripheral
	transmitter Transmitter

	maxChannels        int
	maxStrips          int
	clockDivider       uint8
	cpuFrequency       uint32
	memBlockSize       int
	resetDuration      uint32 // ticks. 0 derives it from the clock divider
	maxPrecomputeItems int

	initialized bool

	// Shared with the interrupt handler. Task context holds the interrupt mask while touching these.
	registry   []*Strip
	onChannel  [MaxChannels]int // registry index per channel, -1 when free
	next       int
	numStarted int
	numDone    int
	cycles     uint64
	events     []event
	sem        chan struct{}

	items []uint32 // precompute buffer, guarded by mu
}

//New returns a new Driver for mode.
/*
Default MaxChannels: 8

Default MaxStrips: 32

Default ClockDivider: 2 at a CPU frequency of 240 MHz

Default reset duration: 50 µs
*/
func New(mode Mode) (*Driver, error) {
	switch mode {
	case ModeStreaming, ModePrecompute:
	default:
		return nil, errors.Wrap(ErrModeNotSupported, "New")
	}
	d := &Driver{
		mode:               mode,
		maxChannels:        MaxChannels,
		maxStrips:          DefaultMaxStrips,
		clockDivider:       DefaultClockDivider,
		cpuFrequency:       DefaultCPUFrequency,
		memBlockSize:       DefaultMemBlockSize,
		maxPrecomputeItems: 32768,
		events:             make([]event, 0, 2*MaxChannels),
		sem:                make(chan struct{}, 1),
	}
	for ch := range d.onChannel {
		d.onChannel[ch] = -1
	}
	// The barrier starts out open.
	d.sem <- struct{}{}
	return d, nil
}

//Mode returns the mode the Driver was created with.
func (d *Driver) Mode() Mode {
	return d.mode
}

//SetPeripheral sets the pulse peripheral used in ModeStreaming.
func (d *Driver) SetPeripheral(p Peripheral) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetPeripheral")
	}
	d.peripheral = p
	return nil
}

//SetTransmitter sets the backend used in ModePrecompute.
func (d *Driver) SetTransmitter(t Transmitter) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetTransmitter")
	}
	d.transmitter = t
	return nil
}

//SetMaxChannels limits the number of channels used. Values are clamped to [1, MaxChannels].
func (d *Driver) SetMaxChannels(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetMaxChannels")
	}
	d.maxChannels = mathx.Clamp(n, 1, MaxChannels)
	return nil
}

//SetMaxStrips sets the capacity of the strip registry. It can not be lower than the number of registered strips.
func (d *Driver) SetMaxStrips(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetMaxStrips")
	}
	if n < 1 || n < len(d.registry) {
		return errors.Wrap(ErrConfigWrongValue, "config SetMaxStrips")
	}
	d.maxStrips = n
	return nil
}

//SetClockDivider sets the divider between the source clock and the channel tick.
func (d *Driver) SetClockDivider(divider uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetClockDivider")
	}
	if divider == 0 {
		return errors.Wrap(ErrConfigWrongValue, "config SetClockDivider")
	}
	d.clockDivider = divider
	return nil
}

//SetCPUFrequency sets the CPU frequency the strip Timings are expressed in.
func (d *Driver) SetCPUFrequency(hz uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetCPUFrequency")
	}
	if hz == 0 {
		return errors.Wrap(ErrConfigWrongValue, "config SetCPUFrequency")
	}
	d.cpuFrequency = hz
	return nil
}

//SetMemBlockSize sets the number of items in one channel memory. It must hold at least two fills.
func (d *Driver) SetMemBlockSize(items int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetMemBlockSize")
	}
	if items < 2*PulsesPerFill || items > MaxChannels*DefaultMemBlockSize {
		return errors.Wrap(ErrConfigWrongValue, "config SetMemBlockSize")
	}
	d.memBlockSize = items
	return nil
}

//SetResetDuration sets the low time after the last bit in ModePrecompute, in ticks.
func (d *Driver) SetResetDuration(ticks uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetResetDuration")
	}
	if ticks > MaxItemDuration {
		return errors.Wrap(ErrConfigWrongValue, "config SetResetDuration")
	}
	d.resetDuration = ticks
	return nil
}

//SetMaxPrecomputeItems limits the items a single strip may need in ModePrecompute.
func (d *Driver) SetMaxPrecomputeItems(items int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.Wrap(ErrConfigInitialized, "config SetMaxPrecomputeItems")
	}
	if items < PulsesPerFill {
		return errors.Wrap(ErrConfigWrongValue, "config SetMaxPrecomputeItems")
	}
	d.maxPrecomputeItems = items
	return nil
}

//tickHz is the channel tick frequency.
func (d *Driver) tickHz() uint32 {
	return SourceClock / uint32(d.clockDivider)
}

//cyclesPerTick is the number of CPU cycles per channel tick.
func (d *Driver) cyclesPerTick() uint32 {
	return d.cpuFrequency / d.tickHz()
}

func (d *Driver) resetTicks() uint32 {
	if d.resetDuration != 0 {
		return d.resetDuration
	}
	ticks := uint64(resetDurationNS) * uint64(d.tickHz()) / 1000000000
	return uint32(mathx.Clamp(ticks, 1, uint64(MaxItemDuration)))
}

//AddStrip registers a strip on pin. Strips are started in the order they were added.
func (d *Driver) AddStrip(pin uint32, timing Timing) (*Strip, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil, errors.Wrap(ErrConfigInitialized, "config AddStrip")
	}
	if len(d.registry) >= d.maxStrips {
		return nil, errors.Wrap(ErrTooManyStrips, "config AddStrip")
	}
	s := &Strip{
		driver:  d,
		index:   len(d.registry),
		pin:     pin,
		timing:  timing,
		channel: -1,
	}
	d.registry = append(d.registry, s)
	logOutput("strip added", "index", s.index, "pin", pin)
	return s, nil
}

//Strips returns the number of registered strips.
func (d *Driver) Strips() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.registry)
}

//Initialize configures the backend. Calling it on an initialized Driver does nothing.
func (d *Driver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initializeLocked()
}

func (d *Driver) initializeLocked() error {
	if d.initialized {
		return nil
	}
	if d.cyclesPerTick() == 0 {
		return errors.Wrap(ErrConfigWrongValue, "config initialize")
	}
	for _, s := range d.registry {
		s.zero, s.one = encodeTiming(s.timing, d.cyclesPerTick())
	}
	switch d.mode {
	case ModeStreaming:
		if d.peripheral == nil {
			return errors.Wrap(ErrNoPeripheral, "config initialize")
		}
		logOutput("configuring channels", "channels", d.maxChannels, "divider", d.clockDivider)
		for ch := 0; ch < d.maxChannels; ch++ {
			err := d.peripheral.ConfigureChannel(ChannelConfig{
				Channel:      ch,
				ClockDivider: d.clockDivider,
				MemBlockSize: d.memBlockSize,
			})
			if err != nil {
				return errors.Wrap(err, "config initialize")
			}
			d.peripheral.SetThresholdInterrupt(ch, PulsesPerFill, true)
		}
		err := d.peripheral.SetInterruptHandler(d.handleInterrupt)
		if err != nil {
			return errors.Wrap(err, "config initialize")
		}
	case ModePrecompute:
		if d.transmitter == nil {
			return errors.Wrap(ErrNoTransmitter, "config initialize")
		}
		err := d.transmitter.Configure(TransmitterConfig{
			ClockDivider: d.clockDivider,
			TickHz:       d.tickHz(),
		})
		if err != nil {
			return errors.Wrap(err, "config initialize")
		}
	}
	d.initialized = true
	logOutput("driver initialized", "mode", d.mode.String(), "strips", len(d.registry))
	return nil
}

//Stop deinitializes the Driver so that it can be configured again. It fails while a show cycle is in progress.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	switch d.mode {
	case ModeStreaming:
		d.peripheral.MaskInterrupts()
		busy := d.numStarted != 0
		if !busy {
			for ch := 0; ch < d.maxChannels; ch++ {
				d.peripheral.SetThresholdInterrupt(ch, PulsesPerFill, false)
				d.peripheral.SetDoneInterrupt(ch, false)
			}
		}
		d.peripheral.UnmaskInterrupts()
		if busy {
			return errors.Wrap(ErrShowInProgress, "config Stop")
		}
		err := d.peripheral.SetInterruptHandler(nil)
		if err != nil {
			return errors.Wrap(err, "config Stop")
		}
	case ModePrecompute:
		err := d.transmitter.Close()
		if err != nil {
			return errors.Wrap(err, "config Stop")
		}
	}
	d.initialized = false
	return nil
}
