package clockless

// Everything in this file runs either in the interrupt handler or in task context with interrupts masked.

//assignNext binds the next pending strip to ch and primes its memory. It reports false if no strip is pending.
func (d *Driver) assignNext(ch int) bool {
	if d.next >= len(d.registry) {
		return false
	}
	s := d.registry[d.next]
	d.next++
	d.onChannel[ch] = s.index
	s.startOnChannel(ch)
	return true
}

//startCycle fills up to maxChannels channels in ascending order and then starts them.
func (d *Driver) startCycle() {
	d.next = 0
	ch := 0
	for ch < d.maxChannels && d.assignNext(ch) {
		ch++
	}
	for i := 0; i < ch; i++ {
		d.peripheral.StartTransmission(i)
	}
}

//doneOnChannel hands ch to the next pending strip or opens the barrier once every strip is done.
func (d *Driver) doneOnChannel(ch int) {
	s := d.registry[d.onChannel[ch]]
	d.peripheral.ReleasePin(s.pin)
	s.channel = -1
	d.onChannel[ch] = -1
	d.numDone++

	if d.numDone == len(d.registry) {
		d.next = 0
		d.numStarted = 0
		d.numDone = 0
		d.cycles++
		select {
		case d.sem <- struct{}{}:
		default:
		}
		return
	}
	if d.assignNext(ch) {
		d.peripheral.StartTransmission(ch)
	}
}

//Cycles returns the number of completed show cycles.
func (d *Driver) Cycles() uint64 {
	if !d.masked() {
		return d.cycles
	}
	defer d.peripheral.UnmaskInterrupts()
	return d.cycles
}

//Progress returns how many strips joined the current cycle and how many of them are done.
func (d *Driver) Progress() (started, done int) {
	if !d.masked() {
		return d.numStarted, d.numDone
	}
	defer d.peripheral.UnmaskInterrupts()
	return d.numStarted, d.numDone
}

//masked masks interrupts if there is a peripheral.
func (d *Driver) masked() bool {
	d.mu.Lock()
	p := d.peripheral
	d.mu.Unlock()
	if p == nil {
		return false
	}
	p.MaskInterrupts()
	return true
}
