package clockless

import "github.com/pkg/errors"

//TransmitterConfig is handed to a Transmitter during Initialize.
type TransmitterConfig struct {
	ClockDivider uint8
	TickHz       uint32 // Item durations are counted in ticks of this frequency
}

//Transmitter sends a whole strip of Items at once. It is the backend of ModePrecompute.
type Transmitter interface {
	Configure(cfg TransmitterConfig) error
	//Transmit sends items on pin and returns once the hardware has taken them.
	Transmit(pin uint32, items []uint32) error
	Close() error
}

//showPrecomputed converts all of px to items, extends the last low phase by the reset duration and transmits them.
func (s *Strip) showPrecomputed(px PixelSource) error {
	d := s.driver
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := d.convertAll(s, px)
	if err != nil {
		return errors.Wrap(err, "strip Show")
	}
	if len(items) == 0 {
		return nil
	}
	err = d.transmitter.Transmit(s.pin, items)
	if err != nil {
		return errors.Wrap(err, "strip Show")
	}
	return nil
}

//convertAll fills the precompute buffer. Caller holds mu.
func (d *Driver) convertAll(s *Strip, px PixelSource) ([]uint32, error) {
	items := d.items[:0]
	one, zero := uint32(s.one), uint32(s.zero)
	for px != nil && px.Has(1) {
		if len(items)+PulsesPerFill > d.maxPrecomputeItems {
			return nil, ErrBufferAllocation
		}
		for i := 0; i < 3; i++ {
			b := px.ChannelByte(i)
			for j := 7; j >= 0; j-- {
				if b&(1<<j) != 0 {
					items = append(items, one)
				} else {
					items = append(items, zero)
				}
			}
		}
		px.Advance()
		px.StepDither()
	}
	d.items = items
	if len(items) > 0 {
		last := len(items) - 1
		items[last] = uint32(Item(items[last]).WithDuration1(d.resetTicks()))
	}
	return items, nil
}
