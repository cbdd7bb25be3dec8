package clockless

import "image/color"

//SingleLED is one LED as 0x00RRGGBB. It satisfies LEDs with a TotalCount of 1.
type SingleLED uint32

//RGB returns the SingleLED for r, g and b.
func RGB(r, g, b uint8) SingleLED {
	return SingleLED(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

//ColorToSingleLED premultiplies c by its alpha and drops the alpha.
func ColorToSingleLED(c color.Color) SingleLED {
	// RGBA returns alpha premultiplied values in [0, 65535]
	red, green, blue, _ := c.RGBA()
	return RGB(uint8(red>>8), uint8(green>>8), uint8(blue>>8))
}

//ToColor returns the LED as an opaque color.RGBA.
func (l SingleLED) ToColor() color.RGBA {
	return color.RGBA{R: l.Red(0), G: l.Green(0), B: l.Blue(0), A: 0xff}
}

//Scale returns the LED with every color multiplied by brightness/256.
func (l SingleLED) Scale(brightness uint8) SingleLED {
	return RGB(scale8(l.Red(0), brightness), scale8(l.Green(0), brightness), scale8(l.Blue(0), brightness))
}

func (l SingleLED) Red(int) uint8 { return uint8(l >> 16) }
func (l SingleLED) Green(int) uint8 { return uint8(l >> 8) }
func (l SingleLED) Blue(int) uint8 { return uint8(l) }
func (l SingleLED) UInt32(int) uint32 { return uint32(l) & 0xffffff }
func (l SingleLED) TotalCount() int { return 1 }
