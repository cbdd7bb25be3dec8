package clockless

import (
	"image/color"

	"tinygo.org/x/drivers"
)

var _ drivers.Displayer = (*Display)(nil)

//Display draws on a strip laid out as a matrix of width columns, so code written for TinyGo displays can drive it.
type Display struct {
	strip      *Strip
	leds       *LEDStrip
	source     *LEDsSource
	width      int16
	height     int16
	serpentine bool
}

//NewDisplay returns a Display over count LEDs on strip. Rows are width LEDs long; with serpentine every other row
//runs backwards. A width of 0 makes a single row.
func NewDisplay(strip *Strip, count int, stripType StripType, width int16, serpentine bool) (*Display, error) {
	leds := NewLEDStrip(count)
	source, err := NewLEDsSource(leds, stripType)
	if err != nil {
		return nil, err
	}
	if width <= 0 || int(width) > count {
		width = int16(count)
	}
	height := int16(1)
	if width > 0 {
		height = int16(count / int(width))
	}
	return &Display{
		strip:      strip,
		leds:       leds,
		source:     source,
		width:      width,
		height:     height,
		serpentine: serpentine,
	}, nil
}

//LEDs returns the buffer behind the display.
func (d *Display) LEDs() *LEDStrip {
	return d.leds
}

//Source returns the pixel source used by Display, for brightness and dithering.
func (d *Display) Source() *LEDsSource {
	return d.source
}

func (d *Display) Size() (x, y int16) {
	return d.width, d.height
}

//SetPixel sets the LED at x, y. Pixels outside the matrix are ignored.
func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return
	}
	if d.serpentine && y%2 == 1 {
		x = d.width - 1 - x
	}
	d.leds.SetRGB(int(y)*int(d.width)+int(x), c.R, c.G, c.B)
}

//Display sends the buffer with Show. In ModeStreaming it only transmits once every strip of the Driver has shown.
func (d *Display) Display() error {
	d.source.Rewind()
	return d.strip.Show(d.source)
}
