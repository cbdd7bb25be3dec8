package clockless

import "github.com/pkg/errors"

//Strip is one logical LED strip registered with a Driver.
type Strip struct {
	driver *Driver
	index  int
	pin    uint32
	timing Timing

	zero, one Item // set during Initialize

	// Owned by the interrupt handler while the strip is on a channel.
	pixels  PixelSource
	cursor  int
	channel int
}

//Pin returns the output pin of the strip.
func (s *Strip) Pin() uint32 {
	return s.pin
}

//Index returns the position of the strip in the start order.
func (s *Strip) Index() int {
	return s.index
}

//Show sends px on the strip.
/*
In ModeStreaming every registered strip has to call Show once per cycle. All calls except the last return immediately;
the last one starts the transmission and returns once every strip is done. px must stay valid until then. There is no
timeout: if a channel never finishes, the last Show never returns.

In ModePrecompute Show converts px and hands it to the Transmitter right away.
*/
func (s *Strip) Show(px PixelSource) error {
	d := s.driver
	if err := d.Initialize(); err != nil {
		return errors.Wrap(err, "strip Show")
	}
	if d.mode == ModePrecompute {
		return s.showPrecomputed(px)
	}
	p := d.peripheral

	p.MaskInterrupts()
	first := d.numStarted == 0
	p.UnmaskInterrupts()
	if first {
		<-d.sem
	}

	p.MaskInterrupts()
	s.pixels = px
	s.cursor = 0
	d.numStarted++
	last := d.numStarted == len(d.registry)
	if last {
		d.startCycle()
	}
	p.UnmaskInterrupts()
	if !last {
		return nil
	}

	<-d.sem
	d.sem <- struct{}{}
	return nil
}

//startOnChannel binds the strip to ch and primes two fills.
func (s *Strip) startOnChannel(ch int) {
	p := s.driver.peripheral
	s.channel = ch
	p.SetPin(ch, s.pin)
	s.cursor = 0
	s.fillNext()
	s.fillNext()
	p.SetDoneInterrupt(ch, true)
}

//fillNext writes the next pixel into channel memory at the cursor, or 8 terminators once the pixels are exhausted.
func (s *Strip) fillNext() {
	mem := s.driver.peripheral
	size := s.driver.memBlockSize

	if s.pixels == nil || !s.pixels.Has(1) {
		for j := 0; j < 8; j++ {
			mem.WriteItem(s.channel, (s.cursor+j)%size, 0)
		}
		return
	}

	pixel := uint32(s.pixels.ChannelByte(0))<<24 | uint32(s.pixels.ChannelByte(1))<<16 | uint32(s.pixels.ChannelByte(2))<<8
	s.pixels.Advance()
	s.pixels.StepDither()

	one, zero := uint32(s.one), uint32(s.zero)
	for j := 0; j < PulsesPerFill; j++ {
		v := zero
		if pixel&0x80000000 != 0 {
			v = one
		}
		mem.WriteItem(s.channel, s.cursor, v)
		pixel <<= 1
		s.cursor++
		if s.cursor == size {
			s.cursor = 0
		}
	}
}
