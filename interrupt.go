package clockless

type eventKind uint8

const (
	eventRefill eventKind = iota // channel memory has room for another fill
	eventDone                    // channel has sent its terminator
)

type event struct {
	channel int
	kind    eventKind
}

//decodeStatus appends the events of status to dst[:0], channels ascending, refill before done on the same channel.
func decodeStatus(status uint32, dst []event) []event {
	dst = dst[:0]
	for ch := 0; ch < MaxChannels; ch++ {
		if status&ThresholdBit(ch) != 0 {
			dst = append(dst, event{channel: ch, kind: eventRefill})
		}
		if status&DoneBit(ch) != 0 {
			dst = append(dst, event{channel: ch, kind: eventDone})
		}
	}
	return dst
}

func (e event) bit() uint32 {
	if e.kind == eventDone {
		return DoneBit(e.channel)
	}
	return ThresholdBit(e.channel)
}

//handleInterrupt is installed as the peripheral interrupt handler.
func (d *Driver) handleInterrupt() {
	d.events = decodeStatus(d.peripheral.InterruptStatus(), d.events)
	for _, ev := range d.events {
		d.apply(ev)
	}
}

//apply acknowledges ev and runs its transition. Events for a channel without a strip are dropped.
func (d *Driver) apply(ev event) {
	d.peripheral.ClearInterrupt(ev.bit())
	idx := d.onChannel[ev.channel]
	if idx < 0 {
		return
	}
	switch ev.kind {
	case eventRefill:
		d.registry[idx].fillNext()
	case eventDone:
		d.doneOnChannel(ev.channel)
	}
}
