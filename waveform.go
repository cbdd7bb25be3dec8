package clockless

import "github.com/DerLukas15/clockless/internal/mathx"

//Item is one pulse pair in the layout of channel memory:
//bits 0-14 duration0, bit 15 level0, bits 16-30 duration1, bit 31 level1.
//The zero Item ends a transmission.
type Item uint32

const (
	itemDurationMask uint32 = 0x7fff
	itemLevel0       uint32 = 1 << 15
	itemLevel1       uint32 = 1 << 31

	//MaxItemDuration is the longest duration in ticks a single half of an Item can hold.
	MaxItemDuration = itemDurationMask
)

//NewItem packs two level/duration pairs. Durations are truncated to 15 bits.
func NewItem(level0 bool, duration0 uint32, level1 bool, duration1 uint32) Item {
	v := duration0&itemDurationMask | (duration1&itemDurationMask)<<16
	if level0 {
		v |= itemLevel0
	}
	if level1 {
		v |= itemLevel1
	}
	return Item(v)
}

func (i Item) Level0() bool { return uint32(i)&itemLevel0 != 0 }
func (i Item) Duration0() uint32 { return uint32(i) & itemDurationMask }
func (i Item) Level1() bool { return uint32(i)&itemLevel1 != 0 }
func (i Item) Duration1() uint32 { return uint32(i) >> 16 & itemDurationMask }

//WithDuration1 returns i with the second duration replaced.
func (i Item) WithDuration1(d uint32) Item {
	return Item(uint32(i)&^(itemDurationMask<<16) | (d&itemDurationMask)<<16)
}

//Timing describes a chipset in CPU cycles. A one bit is high for T1+T2 and low for T3,
//a zero bit is high for T1 and low for T2+T3.
type Timing struct {
	T1, T2, T3 uint32
}

//TimingNS converts nanosecond timings to CPU cycles at cpuHz, rounding up.
func TimingNS(t1, t2, t3 uint32, cpuHz uint32) Timing {
	c := func(ns uint32) uint32 {
		return uint32(mathx.CeilDiv(uint64(ns)*uint64(cpuHz), 1000000000))
	}
	return Timing{T1: c(t1), T2: c(t2), T3: c(t3)}
}

//Chipset timings at the default CPU frequency.
var (
	WS2812Timing  = TimingNS(250, 625, 375, DefaultCPUFrequency)
	WS2811Timing  = TimingNS(320, 320, 640, DefaultCPUFrequency)
	WS2813Timing  = TimingNS(320, 320, 640, DefaultCPUFrequency)
	SK6812Timing  = TimingNS(300, 300, 600, DefaultCPUFrequency)
	TM1809Timing  = TimingNS(350, 350, 450, DefaultCPUFrequency)
	UCS1903Timing = TimingNS(500, 1500, 500, DefaultCPUFrequency)
)

//encodeTiming returns the two Items of a strip. cyclesPerTick is the number of CPU cycles per peripheral tick.
func encodeTiming(t Timing, cyclesPerTick uint32) (zero, one Item) {
	if cyclesPerTick == 0 {
		cyclesPerTick = 1
	}
	one = NewItem(true, (t.T1+t.T2)/cyclesPerTick, false, t.T3/cyclesPerTick)
	zero = NewItem(true, t.T1/cyclesPerTick, false, (t.T2+t.T3)/cyclesPerTick)
	return zero, one
}
