package clockless

//Channel layout of the pulse peripheral (ESP32 RMT).
const (
	MaxChannels                = 8        // Transmit channels of the peripheral
	SourceClock         uint32 = 80000000 // Peripheral source clock in Hz
	DefaultCPUFrequency uint32 = 240000000
	DefaultMemBlockSize        = 64 // Items per channel memory block
	PulsesPerFill              = 24 // Items written per refill, one pixel
	DefaultClockDivider uint8  = 2
	DefaultMaxStrips           = 32
	resetDurationNS            = 50000
)

//DoneBit is the status bit raised when channel ch has sent its terminator.
func DoneBit(ch int) uint32 { return 1 << (uint(ch) * 3) }

//ThresholdBit is the status bit raised each time channel ch has sent another threshold worth of items.
func ThresholdBit(ch int) uint32 { return 1 << (24 + uint(ch)) }

//ChannelConfig is applied once per channel during Initialize.
type ChannelConfig struct {
	Channel      int
	ClockDivider uint8
	MemBlockSize int // Items in the channel memory
}

//ChannelMemory is the part of the peripheral the refill engine writes to.
type ChannelMemory interface {
	WriteItem(ch, index int, item uint32)
}

//Peripheral is a pulse peripheral with MaxChannels channels sharing one interrupt line.
/*
All methods except MaskInterrupts and UnmaskInterrupts may be called from the interrupt handler. While the mask is held
the handler must not run.
*/
type Peripheral interface {
	ChannelMemory
	ConfigureChannel(cfg ChannelConfig) error
	//SetThresholdInterrupt raises ThresholdBit every threshold items sent on ch.
	SetThresholdInterrupt(ch int, threshold int, enabled bool)
	SetDoneInterrupt(ch int, enabled bool)
	//SetPin routes the output of ch to pin.
	SetPin(ch int, pin uint32)
	//ReleasePin disconnects pin from any channel.
	ReleasePin(pin uint32)
	//StartTransmission starts sending ch from index 0 of its memory.
	StartTransmission(ch int)
	InterruptStatus() uint32
	ClearInterrupt(mask uint32)
	SetInterruptHandler(handler func()) error
	MaskInterrupts()
	UnmaskInterrupts()
}
