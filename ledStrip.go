package clockless

import "image/color"

//LEDStrip is a buffer for a physical continuous strip of LEDs. Values are 0x00RRGGBB.
type LEDStrip struct {
	leds []uint32
}

//NewLEDStrip returns a LEDStrip with count LEDs, all off.
func NewLEDStrip(count int) *LEDStrip {
	if count < 0 {
		count = 0
	}
	return &LEDStrip{leds: make([]uint32, count)}
}

//TotalCount returns the number of LEDs in the strip.
func (l *LEDStrip) TotalCount() int {
	return len(l.leds)
}

func (l *LEDStrip) inRange(position int) bool {
	return position >= 0 && position < len(l.leds)
}

//Red returns the red color amount at position.
func (l *LEDStrip) Red(position int) uint8 {
	return SingleLED(l.UInt32(position)).Red(0)
}

//Green returns the green color amount at position.
func (l *LEDStrip) Green(position int) uint8 {
	return SingleLED(l.UInt32(position)).Green(0)
}

//Blue returns the blue color amount at position.
func (l *LEDStrip) Blue(position int) uint8 {
	return SingleLED(l.UInt32(position)).Blue(0)
}

//UInt32 returns the color at position. Format 0x00RRGGBB
func (l *LEDStrip) UInt32(position int) uint32 {
	if !l.inRange(position) {
		return 0
	}
	return l.leds[position]
}

//SetColor sets the color at position from c.
func (l *LEDStrip) SetColor(position int, c color.Color) {
	l.SetDirect(position, uint32(ColorToSingleLED(c)))
}

//SetRGB sets the color at position.
func (l *LEDStrip) SetRGB(position int, r, g, b uint8) {
	l.SetDirect(position, uint32(RGB(r, g, b)))
}

//SetDirect sets the color value at position directly. Format 0x00RRGGBB
func (l *LEDStrip) SetDirect(position int, val uint32) {
	if !l.inRange(position) {
		return
	}
	l.leds[position] = val & 0xffffff
}

//Fill sets every LED to val.
func (l *LEDStrip) Fill(val uint32) {
	for i := range l.leds {
		l.leds[i] = val & 0xffffff
	}
}

//Clear turns every LED off.
func (l *LEDStrip) Clear() {
	l.Fill(0)
}

//ShiftRight shifts the LED colors by shift to the right. Everything leaving on the right wraps around.
//Use ShiftLeft instead of negative shifts.
func (l *LEDStrip) ShiftRight(shift int) {
	n := len(l.leds)
	if shift <= 0 || n == 0 || shift%n == 0 {
		return
	}
	l.rotate(n - shift%n)
}

//ShiftLeft shifts the LED colors by shift to the left. Everything leaving on the left wraps around.
//Use ShiftRight instead of negative shifts.
func (l *LEDStrip) ShiftLeft(shift int) {
	n := len(l.leds)
	if shift <= 0 || n == 0 || shift%n == 0 {
		return
	}
	l.rotate(shift % n)
}

//rotate moves the LED at k to position 0, in place.
func (l *LEDStrip) rotate(k int) {
	reverse(l.leds[:k])
	reverse(l.leds[k:])
	reverse(l.leds)
}

func reverse(s []uint32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
