//Package rmtsim simulates the pulse peripheral used by clockless. Channels send one item per Step and raise the same
//status bits as the hardware. The installed interrupt handler runs synchronously from Step, and no channel moves while
//interrupts are masked, so the handler is never late.
package rmtsim

import (
	"context"
	"sync"

	"github.com/DerLukas15/clockless"
	"github.com/pkg/errors"
)

var (
	_ clockless.Peripheral  = (*Peripheral)(nil)
	_ clockless.Transmitter = (*Peripheral)(nil)
)

// Errors
var (
	ErrWrongChannel = errors.New("channel out of range")
)

//statusMask covers the done and threshold bits of all channels.
var statusMask = func() uint32 {
	var m uint32
	for ch := 0; ch < clockless.MaxChannels; ch++ {
		m |= clockless.DoneBit(ch) | clockless.ThresholdBit(ch)
	}
	return m
}()

//Start is a StartTransmission call.
type Start struct {
	Channel int
	Pin     uint32
}

//Transmission is everything a channel sent between start and terminator. Channel is -1 for Transmit.
type Transmission struct {
	Channel int
	Pin     uint32
	Items   []uint32
}

//Writes counts the items written to channel memory while a pin was routed to the channel.
type Writes struct {
	Data       int
	Terminator int
}

type channel struct {
	configured bool
	divider    uint8
	memSize    int
	mem        []uint32
	unread     []bool // written but not yet sent

	pin       uint32
	pinSet    bool
	running   bool
	pos       int
	sent      int
	out       []uint32
	threshold int
	thrEnable bool
	doneEnab  bool
}

//Peripheral is a simulated pulse peripheral. The zero value is not usable, use New.
type Peripheral struct {
	irqMu sync.Mutex // interrupt mask, held for every Step
	mu    sync.Mutex // guards everything below

	channels [clockless.MaxChannels]channel
	status   uint32
	handler  func()
	kick     chan struct{}

	starts        []Start
	transmissions []Transmission
	released      []uint32
	writes        map[uint32]*Writes
	overwrites    int
	txConfig      clockless.TransmitterConfig
}

//New returns a simulated peripheral with all channels idle.
func New() *Peripheral {
	return &Peripheral{
		kick:   make(chan struct{}, 1),
		writes: make(map[uint32]*Writes),
	}
}

func (p *Peripheral) wake() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Peripheral) ConfigureChannel(cfg clockless.ChannelConfig) error {
	if cfg.Channel < 0 || cfg.Channel >= clockless.MaxChannels {
		return errors.Wrap(ErrWrongChannel, "configure")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &p.channels[cfg.Channel]
	c.configured = true
	c.divider = cfg.ClockDivider
	c.memSize = cfg.MemBlockSize
	c.mem = make([]uint32, cfg.MemBlockSize)
	c.unread = make([]bool, cfg.MemBlockSize)
	return nil
}

func (p *Peripheral) SetThresholdInterrupt(ch int, threshold int, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[ch].threshold = threshold
	p.channels[ch].thrEnable = enabled
}

func (p *Peripheral) SetDoneInterrupt(ch int, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[ch].doneEnab = enabled
}

func (p *Peripheral) SetPin(ch int, pin uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[ch].pin = pin
	p.channels[ch].pinSet = true
}

func (p *Peripheral) ReleasePin(pin uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.channels {
		c := &p.channels[i]
		if c.pinSet && c.pin == pin {
			c.pinSet = false
		}
	}
	p.released = append(p.released, pin)
}

//WriteItem stores item. Replacing an item that has not been sent with a different one counts as an overwrite.
func (p *Peripheral) WriteItem(ch, index int, item uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &p.channels[ch]
	if c.unread[index] && c.mem[index] != item {
		p.overwrites++
	}
	c.mem[index] = item
	c.unread[index] = true
	if c.pinSet {
		w := p.writes[c.pin]
		if w == nil {
			w = &Writes{}
			p.writes[c.pin] = w
		}
		if item == 0 {
			w.Terminator++
		} else {
			w.Data++
		}
	}
}

func (p *Peripheral) StartTransmission(ch int) {
	p.mu.Lock()
	c := &p.channels[ch]
	c.running = true
	c.pos = 0
	c.sent = 0
	c.out = nil
	p.starts = append(p.starts, Start{Channel: ch, Pin: c.pin})
	p.mu.Unlock()
	p.wake()
}

func (p *Peripheral) InterruptStatus() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Peripheral) ClearInterrupt(mask uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status &^= mask
}

func (p *Peripheral) SetInterruptHandler(handler func()) error {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
	p.wake()
	return nil
}

func (p *Peripheral) MaskInterrupts() {
	p.irqMu.Lock()
}

func (p *Peripheral) UnmaskInterrupts() {
	p.irqMu.Unlock()
}

//Raise sets status bits as if the hardware had raised them.
func (p *Peripheral) Raise(mask uint32) {
	p.mu.Lock()
	p.status |= mask
	p.mu.Unlock()
	p.wake()
}

//Step sends one item on every running channel and runs the handler if a status bit is set.
//It reports whether anything happened. The clock stalls while interrupts are masked.
func (p *Peripheral) Step() bool {
	p.irqMu.Lock()
	defer p.irqMu.Unlock()

	p.mu.Lock()
	active := false
	for ch := range p.channels {
		c := &p.channels[ch]
		if !c.running {
			continue
		}
		active = true
		p.stepChannel(ch, c)
	}
	pending := p.status&statusMask != 0 && p.handler != nil
	handler := p.handler
	p.mu.Unlock()

	if pending {
		handler()
	}
	return active || pending
}

//stepChannel sends the item at the read position. Caller holds mu.
func (p *Peripheral) stepChannel(ch int, c *channel) {
	item := c.mem[c.pos]
	c.unread[c.pos] = false
	if item&0x7fff == 0 {
		c.running = false
		for i := range c.unread {
			c.unread[i] = false
		}
		p.transmissions = append(p.transmissions, Transmission{Channel: ch, Pin: c.pin, Items: c.out})
		c.out = nil
		if c.doneEnab {
			p.status |= clockless.DoneBit(ch)
		}
		return
	}
	c.out = append(c.out, item)
	c.pos++
	if c.pos == c.memSize {
		c.pos = 0
	}
	c.sent++
	if c.thrEnable && c.threshold > 0 && c.sent%c.threshold == 0 {
		p.status |= clockless.ThresholdBit(ch)
	}
}

//Run steps the peripheral until ctx is done, sleeping while nothing is running.
func (p *Peripheral) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.Step() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.kick:
		}
	}
}

//Configure records cfg. Part of clockless.Transmitter.
func (p *Peripheral) Configure(cfg clockless.TransmitterConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txConfig = cfg
	return nil
}

//Transmit records items as a finished transmission. Part of clockless.Transmitter.
func (p *Peripheral) Transmit(pin uint32, items []uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transmissions = append(p.transmissions, Transmission{Channel: -1, Pin: pin, Items: append([]uint32(nil), items...)})
	return nil
}

//Close is part of clockless.Transmitter.
func (p *Peripheral) Close() error {
	return nil
}

//TransmitterConfig returns the config passed to Configure.
func (p *Peripheral) TransmitterConfig() clockless.TransmitterConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.txConfig
}

//Starts returns every StartTransmission in call order.
func (p *Peripheral) Starts() []Start {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Start(nil), p.starts...)
}

//Transmissions returns every finished transmission in completion order.
func (p *Peripheral) Transmissions() []Transmission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Transmission(nil), p.transmissions...)
}

//Released returns every released pin in call order.
func (p *Peripheral) Released() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint32(nil), p.released...)
}

//Writes returns the write counters of pin.
func (p *Peripheral) Writes(pin uint32) Writes {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w := p.writes[pin]; w != nil {
		return *w
	}
	return Writes{}
}

//Overwrites returns how often an unsent item was replaced by a different one.
func (p *Peripheral) Overwrites() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overwrites
}

//Configured reports whether ch was configured and with which clock divider.
func (p *Peripheral) Configured(ch int) (bool, uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[ch].configured, p.channels[ch].divider
}

//Reset forgets all recorded activity.
func (p *Peripheral) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts = nil
	p.transmissions = nil
	p.released = nil
	p.writes = make(map[uint32]*Writes)
	p.overwrites = 0
}
