package clockless

//LEDs is a run of LEDs. Position is the physical position on the strip starting at 0.
type LEDs interface {
	Red(position int) uint8
	Green(position int) uint8
	Blue(position int) uint8
	UInt32(position int) uint32 //Format 0x00RRGGBB
	TotalCount() int
}
