package clockless

// fakePeripheral records what the driver does without simulating any timing.
type fakePeripheral struct {
	mem      [MaxChannels][]uint32
	writes   int
	status   uint32
	cleared  []uint32
	pins     [MaxChannels]uint32
	released []uint32
	started  []int
	handler  func()
	masked   int
	config   []ChannelConfig
}

var _ Peripheral = (*fakePeripheral)(nil)

func (f *fakePeripheral) ConfigureChannel(cfg ChannelConfig) error {
	f.config = append(f.config, cfg)
	f.mem[cfg.Channel] = make([]uint32, cfg.MemBlockSize)
	return nil
}
func (f *fakePeripheral) SetThresholdInterrupt(ch int, threshold int, enabled bool) {}
func (f *fakePeripheral) SetDoneInterrupt(ch int, enabled bool) {}
func (f *fakePeripheral) SetPin(ch int, pin uint32) { f.pins[ch] = pin }
func (f *fakePeripheral) ReleasePin(pin uint32) { f.released = append(f.released, pin) }
func (f *fakePeripheral) StartTransmission(ch int) { f.started = append(f.started, ch) }
func (f *fakePeripheral) InterruptStatus() uint32 { return f.status }
func (f *fakePeripheral) MaskInterrupts() { f.masked++ }
func (f *fakePeripheral) UnmaskInterrupts() { f.masked-- }

func (f *fakePeripheral) WriteItem(ch, index int, item uint32) {
	f.mem[ch][index] = item
	f.writes++
}

func (f *fakePeripheral) ClearInterrupt(mask uint32) {
	f.cleared = append(f.cleared, mask)
	f.status &^= mask
}

func (f *fakePeripheral) SetInterruptHandler(h func()) error {
	f.handler = h
	return nil
}

// pixelList is a PixelSource over fixed wire order bytes.
type pixelList struct {
	px    [][3]uint8
	pos   int
	steps int
}

func (p *pixelList) Has(n int) bool { return p.pos+n <= len(p.px) }
func (p *pixelList) ChannelByte(i int) uint8 { return p.px[p.pos][i] }
func (p *pixelList) Advance() { p.pos++ }
func (p *pixelList) StepDither() { p.steps++ }

// newTestDriver returns an initialized streaming driver on a fakePeripheral with one WS2812 strip per pin.
func newTestDriver(pins ...uint32) (*Driver, *fakePeripheral, []*Strip, error) {
	d, err := New(ModeStreaming)
	if err != nil {
		return nil, nil, nil, err
	}
	f := &fakePeripheral{}
	if err := d.SetPeripheral(f); err != nil {
		return nil, nil, nil, err
	}
	var strips []*Strip
	for _, pin := range pins {
		s, err := d.AddStrip(pin, WS2812Timing)
		if err != nil {
			return nil, nil, nil, err
		}
		strips = append(strips, s)
	}
	if err := d.Initialize(); err != nil {
		return nil, nil, nil, err
	}
	return d, f, strips, nil
}
