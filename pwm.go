package clockless

import (
	"fmt"
	"os"
	"time"

	"github.com/DerLukas15/clockless/internal/mathx"
	"github.com/DerLukas15/rpigpio"
	"github.com/DerLukas15/rpihardware"
	"github.com/DerLukas15/rpimemmap"
	"github.com/pkg/errors"
)

/*
 * Pin map of alternate pin configuration for PWM
 * GPIO    PWM0   PWM1
 *  12      0
 *  13             0
 *  18      5
 *  19             5
 *  40      0
 *  41             0
 *  45             0
 */

const (
	registerPWMBusOffset uint32 = 0x0020c000

	//Register Offsets
	registerOffsetPWMCtl  uint32 = 0x00 // Control
	registerOffsetPWMSta  uint32 = 0x04 // Status
	registerOffsetPWMDmac uint32 = 0x08 // DMA control
	registerOffsetPWMRng1 uint32 = 0x10 // Channel 1 range
	registerOffsetPWMFif1 uint32 = 0x18 // Channel 1 fifo
	registerOffsetPWMRng2 uint32 = 0x20 // Channel 2 range

	//PWM register values
	registerValuePWMDmacEnab uint32 = (1 << 31) // Start PWM DMA

	registerValuePWMCtlPwen1 uint32 = (1 << 0)  // Chan 1: enable
	registerValuePWMCtlMode1 uint32 = (1 << 1)  // Chan 1: serializer mode
	registerValuePWMCtlPola1 uint32 = (1 << 4)  // Chan 1: polarisation
	registerValuePWMCtlUsef1 uint32 = (1 << 5)  // Chan 1: use Fifo
	registerValuePWMCtlClrf1 uint32 = (1 << 6)  // Chan 1: clear fifo
	registerValuePWMCtlPwen2 uint32 = (1 << 8)  // Chan 2: enable
	registerValuePWMCtlMode2 uint32 = (1 << 9)  // Chan 2: serializer mode
	registerValuePWMCtlPola2 uint32 = (1 << 12) // Chan 2: polarisation
	registerValuePWMCtlUsef2 uint32 = (1 << 13) // Chan 2: use Fifo

	registerValuePWMStaBerr uint32 = (1 << 8) // Bus Error bit

	//DefaultPWMBitRate gives three PWM bits per bit of a 800 kHz strip.
	DefaultPWMBitRate uint32 = 2400000
)

var (
	registerValuePWMDmacPanic = func(val uint32) uint32 { return ((val & 0xff) << 8) }
	registerValuePWMDmacDreq  = func(val uint32) uint32 { return ((val & 0xff) << 0) }
)

type pwmPinDefinition struct {
	pin     uint32
	altMode rpigpio.Mode
}

// Mapping of pin to alternate function per PWM channel
var pwmChannels = [2][]pwmPinDefinition{
	{
		{pin: 12, altMode: rpigpio.ModeAlternate0},
		{pin: 18, altMode: rpigpio.ModeAlternate5},
		{pin: 40, altMode: rpigpio.ModeAlternate0},
	},
	{
		{pin: 13, altMode: rpigpio.ModeAlternate0},
		{pin: 19, altMode: rpigpio.ModeAlternate5},
		{pin: 41, altMode: rpigpio.ModeAlternate0},
		{pin: 45, altMode: rpigpio.ModeAlternate0},
	},
}

//lookupPWMPin returns the PWM channel and alternate function of pin.
func lookupPWMPin(pin uint32) (int, rpigpio.Mode, error) {
	for ch, table := range pwmChannels {
		for _, def := range table {
			if def.pin == pin {
				return ch, def.altMode, nil
			}
		}
	}
	return 0, 0, errors.Wrap(ErrPinNotAllowed, fmt.Sprintf("pin %d", pin))
}

//pwmDevice is the PWM block in serializer mode, fed through its FIFO.
type pwmDevice struct {
	mem rpimemmap.MemMap
}

func (p *pwmDevice) initialize() error {
	if p.mem != nil {
		return nil
	}
	p.mem = rpimemmap.NewPeripheral(uint32(os.Getpagesize()))
	err := p.mem.Map(registerPWMBusOffset, rpimemmap.MemDevDefault, 0)
	if err != nil {
		p.mem = nil
		return errors.Wrap(err, "pwm initialize")
	}
	logOutput("pwm mapped", "mem", p.mem.String())
	return nil
}

//enable serializes 32 bit words from the FIFO on channel, optionally inverted.
func (p *pwmDevice) enable(channel int, invert bool) {
	*rpimemmap.Reg32(p.mem, registerOffsetPWMCtl) = 0
	time.Sleep(10 * time.Microsecond)
	*rpimemmap.Reg32(p.mem, registerOffsetPWMRng1) = 32 //32-bits per word to serialize
	*rpimemmap.Reg32(p.mem, registerOffsetPWMRng2) = 32
	time.Sleep(10 * time.Microsecond)
	*rpimemmap.Reg32(p.mem, registerOffsetPWMCtl) = registerValuePWMCtlClrf1
	time.Sleep(10 * time.Microsecond)
	*rpimemmap.Reg32(p.mem, registerOffsetPWMDmac) = registerValuePWMDmacEnab | registerValuePWMDmacPanic(7) | registerValuePWMDmacDreq(3)
	time.Sleep(10 * time.Microsecond)

	ctl, enab := registerValuePWMCtlUsef1|registerValuePWMCtlMode1, registerValuePWMCtlPwen1
	pola := registerValuePWMCtlPola1
	if channel == 1 {
		ctl, enab = registerValuePWMCtlUsef2|registerValuePWMCtlMode2, registerValuePWMCtlPwen2
		pola = registerValuePWMCtlPola2
	}
	if invert {
		ctl |= pola
	}
	*rpimemmap.Reg32(p.mem, registerOffsetPWMCtl) = ctl
	time.Sleep(10 * time.Microsecond)
	*rpimemmap.Reg32(p.mem, registerOffsetPWMCtl) |= enab
	time.Sleep(10 * time.Microsecond)
}

//fifoBusAddr is the address the DMA engine writes to.
func (p *pwmDevice) fifoBusAddr() uint32 {
	return p.mem.BusAddr() + registerOffsetPWMFif1
}

func (p *pwmDevice) busError() bool {
	return *rpimemmap.Reg32(p.mem, registerOffsetPWMSta)&registerValuePWMStaBerr != 0
}

func (p *pwmDevice) cleanup() error {
	if p.mem == nil {
		return nil
	}
	*rpimemmap.Reg32(p.mem, registerOffsetPWMCtl) = 0
	err := p.mem.Unmap()
	if err != nil {
		return errors.Wrap(err, "pwm cleanup")
	}
	p.mem = nil
	return nil
}

//PWMTransmitter is a Transmitter for the Raspberry Pi. Items are serialized into PWM bits and moved to the PWM FIFO
//by DMA, one strip at a time.
type PWMTransmitter struct {
	dmaChannel uint32
	bitRate    uint32
	invert     bool

	hardware *rpihardware.Hardware
	tickHz   uint32
	clock    clockDevice
	dma      dmaDevice
	pwm      pwmDevice
	cb       controlBlock
	data     rpimemmap.MemMap
	dataSize uint32
	words    []uint32
	pins     map[uint32]*rpigpio.Pin

	// Timing for next transmit
	busyUntil time.Time
}

//NewPWMTransmitter returns a PWMTransmitter.
/*
Default DMAChannel: 10

Default bit rate: 2.4 MHz
*/
func NewPWMTransmitter() *PWMTransmitter {
	return &PWMTransmitter{
		dmaChannel: 10,
		bitRate:    DefaultPWMBitRate,
		pins:       make(map[uint32]*rpigpio.Pin),
	}
}

//SetDMAChannel sets the DMA channel to use. There are some DMA channels used by the system.
func (t *PWMTransmitter) SetDMAChannel(channel uint32) error {
	if t.hardware != nil {
		return errors.Wrap(ErrConfigInitialized, "pwm SetDMAChannel")
	}
	if channel > 14 {
		return errors.Wrap(ErrConfigWrongValue, "pwm SetDMAChannel")
	}
	t.dmaChannel = channel
	return nil
}

//SetBitRate sets the PWM serializer bit rate. Higher rates follow the item durations more closely.
func (t *PWMTransmitter) SetBitRate(hz uint32) error {
	if t.hardware != nil {
		return errors.Wrap(ErrConfigInitialized, "pwm SetBitRate")
	}
	if hz == 0 {
		return errors.Wrap(ErrConfigWrongValue, "pwm SetBitRate")
	}
	t.bitRate = hz
	return nil
}

//SetInvert inverts the output, for level shifters which invert.
func (t *PWMTransmitter) SetInvert(invert bool) error {
	if t.hardware != nil {
		return errors.Wrap(ErrConfigInitialized, "pwm SetInvert")
	}
	t.invert = invert
	return nil
}

//Configure maps the clock, DMA and PWM devices and starts the PWM clock.
func (t *PWMTransmitter) Configure(cfg TransmitterConfig) error {
	if cfg.TickHz == 0 {
		return errors.Wrap(ErrConfigWrongValue, "pwm configure")
	}
	logOutput("Initializing GPIO package")
	err := rpigpio.Initialize()
	if err != nil {
		return errors.Wrap(err, "pwm configure")
	}
	hw, err := rpihardware.Check()
	if err != nil {
		return errors.Wrap(ErrNoHardware, err.Error())
	}
	err = t.clock.initialize()
	if err != nil {
		return errors.Wrap(err, "pwm configure")
	}
	err = t.clock.setupPWM(hw.OscFreq, t.bitRate)
	if err != nil {
		return errors.Wrap(err, "pwm configure")
	}
	err = t.dma.initialize(t.dmaChannel)
	if err != nil {
		return errors.Wrap(err, "pwm configure")
	}
	err = t.pwm.initialize()
	if err != nil {
		return errors.Wrap(err, "pwm configure")
	}
	err = t.cb.initialize(hw)
	if err != nil {
		return errors.Wrap(err, "pwm configure")
	}
	t.hardware = hw
	t.tickHz = cfg.TickHz
	return nil
}

//Transmit serializes items and starts the DMA transfer. It waits for the previous transfer to finish first.
func (t *PWMTransmitter) Transmit(pin uint32, items []uint32) error {
	if t.hardware == nil {
		return errors.Wrap(ErrNoHardware, "pwm Transmit")
	}
	channel, altMode, err := lookupPWMPin(pin)
	if err != nil {
		return errors.Wrap(err, "pwm Transmit")
	}
	t.words = serializeItems(items, t.tickHz, t.bitRate, t.words[:0])
	size := uint32(len(t.words) * 4)

	if wait := time.Until(t.busyUntil); wait > 0 {
		time.Sleep(wait)
	}
	for t.dma.busy() {
		time.Sleep(10 * time.Microsecond)
	}

	err = t.ensureData(size)
	if err != nil {
		return errors.Wrap(err, "pwm Transmit")
	}
	for i, w := range t.words {
		*rpimemmap.Reg32(t.data, uint32(i*4)) = w
	}

	gpio, err := t.pin(pin)
	if err != nil {
		return errors.Wrap(err, "pwm Transmit")
	}
	gpio.Mode(altMode)
	t.pwm.enable(channel, t.invert)
	t.cb.setup(t.data.BusAddr(), t.pwm.fifoBusAddr(), size)
	t.dma.start(t.cb.busAddr())

	bits := int64(len(t.words)) * 32
	t.busyUntil = time.Now().Add(time.Duration(bits * int64(time.Second) / int64(t.bitRate)))
	if Debug {
		logOutput("pwm transfer started", "pin", pin, "channel", channel, "bytes", size, "status", t.status())
	}
	return nil
}

//ensureData makes the uncached data buffer at least size bytes large.
func (t *PWMTransmitter) ensureData(size uint32) error {
	if t.data != nil && t.dataSize >= size {
		return nil
	}
	if t.data != nil {
		err := t.data.Unmap()
		if err != nil {
			return err
		}
		t.data = nil
	}
	logOutput("Initializing PWM data storage", "bytes", size)
	t.data = rpimemmap.NewUncached(size)
	err := mapUncached(t.data, t.hardware)
	if err != nil {
		t.data = nil
		return err
	}
	t.dataSize = size
	return nil
}

func (t *PWMTransmitter) pin(num uint32) (*rpigpio.Pin, error) {
	if p, ok := t.pins[num]; ok {
		return p, nil
	}
	p, err := rpigpio.NewPin(num)
	if err != nil {
		return nil, err
	}
	t.pins[num] = p
	return p, nil
}

func (t *PWMTransmitter) status() string {
	return fmt.Sprintf("dma busy: %t dma error: %t pwm bus error: %t", t.dma.busy(), t.dma.failed(), t.pwm.busError())
}

//Close stops all devices, frees memory and drives the used pins low.
func (t *PWMTransmitter) Close() error {
	if t.hardware == nil {
		return nil
	}
	if err := t.pwm.cleanup(); err != nil {
		return err
	}
	if err := t.clock.cleanup(); err != nil {
		return err
	}
	if err := t.dma.cleanup(); err != nil {
		return err
	}
	if err := t.cb.cleanup(); err != nil {
		return err
	}
	if t.data != nil {
		if err := t.data.Unmap(); err != nil {
			return errors.Wrap(err, "pwm cleanup data")
		}
		t.data = nil
		t.dataSize = 0
	}
	for _, p := range t.pins {
		p.Mode(rpigpio.ModeOut)
		p.Set(0)
	}
	t.hardware = nil
	return nil
}

//serializeItems expands items into PWM bits, MSB first in 32 bit words, and appends them to dst.
//Each half of an item becomes its duration at bitRate, at least one bit.
func serializeItems(items []uint32, tickHz, bitRate uint32, dst []uint32) []uint32 {
	w := bitWriter{words: dst}
	for _, v := range items {
		it := Item(v)
		w.write(it.Level0(), halfBits(it.Duration0(), tickHz, bitRate))
		w.write(it.Level1(), halfBits(it.Duration1(), tickHz, bitRate))
	}
	return w.words
}

func halfBits(ticks, tickHz, bitRate uint32) uint32 {
	if ticks == 0 {
		return 0
	}
	n := mathx.RoundDiv(uint64(ticks)*uint64(bitRate), uint64(tickHz))
	if n == 0 {
		n = 1
	}
	return uint32(n)
}

type bitWriter struct {
	words []uint32
	n     int // bits written since the first word
}

func (w *bitWriter) write(level bool, count uint32) {
	for ; count > 0; count-- {
		pos := w.n % 32
		if pos == 0 {
			w.words = append(w.words, 0)
		}
		if level {
			w.words[len(w.words)-1] |= 1 << (31 - pos)
		}
		w.n++
	}
}
