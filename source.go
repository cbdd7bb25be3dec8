package clockless

import "math/bits"

//PixelSource yields the bytes of a strip pixel by pixel, already in wire order and scaled.
/*
The refill engine calls Has(1), then ChannelByte(0), ChannelByte(1), ChannelByte(2), Advance and StepDither for every
pixel. These calls happen in the interrupt handler and must not block or allocate.
*/
type PixelSource interface {
	Has(n int) bool
	ChannelByte(i int) uint8
	Advance()
	StepDither()
}

var ditherFrame uint8

//LEDsSource is a PixelSource over LEDs.
type LEDsSource struct {
	leds   LEDs
	pos    int
	shifts [3]uint8
	scale  uint8
	dither bool

	d, e [3]uint8
}

//NewLEDsSource returns a source for leds in the color order of stripType at full brightness without dithering.
func NewLEDsSource(leds LEDs, stripType StripType) (*LEDsSource, error) {
	r, g, b, err := stripType.shifts()
	if err != nil {
		return nil, err
	}
	return &LEDsSource{
		leds:   leds,
		shifts: [3]uint8{r, g, b},
		scale:  255,
	}, nil
}

//SetBrightness scales all colors by brightness/256. Takes effect on the next Rewind.
func (p *LEDsSource) SetBrightness(brightness uint8) {
	p.scale = brightness
}

//SetDither enables binary temporal dithering. Takes effect on the next Rewind.
func (p *LEDsSource) SetDither(enabled bool) {
	p.dither = enabled
}

//Rewind moves back to the first LED and starts a new dither frame.
func (p *LEDsSource) Rewind() {
	p.pos = 0
	p.d = [3]uint8{}
	p.e = [3]uint8{}
	if !p.dither {
		return
	}
	ditherFrame++
	q := bits.Reverse8(ditherFrame)
	for i := range p.e {
		if p.scale == 0 {
			continue
		}
		p.e[i] = uint8(256/uint32(p.scale) + 1)
		p.d[i] = scale8(q, p.e[i])
		p.e[i]--
	}
}

func (p *LEDsSource) Has(n int) bool {
	return p.pos+n <= p.leds.TotalCount()
}

func (p *LEDsSource) ChannelByte(i int) uint8 {
	c := uint8(p.leds.UInt32(p.pos) >> p.shifts[i])
	if c != 0 {
		c = qadd8(c, p.d[i])
	}
	return gammaTable[scale8(c, p.scale)]
}

func (p *LEDsSource) Advance() {
	p.pos++
}

func (p *LEDsSource) StepDither() {
	for i := range p.d {
		p.d[i] = p.e[i] - p.d[i]
	}
}

//scale8 returns i*(scale+1)/256.
func scale8(i, scale uint8) uint8 {
	return uint8(uint32(i) * (uint32(scale) + 1) >> 8)
}

//qadd8 adds with saturation at 255.
func qadd8(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}
