package clockless

import (
	"os"
	"time"

	"github.com/DerLukas15/rpimemmap"
	"github.com/pkg/errors"
)

const (
	//Register Offsets
	registerOffsetDmaCs       uint32 = 0x00
	registerOffsetDmaConblkAd uint32 = 0x04
	registerOffsetDmaDebug    uint32 = 0x20
	registerOffsetDmaEnable   uint32 = 0xff0

	//Register values Cs
	registerValueDmaCsReset                 uint32 = (1 << 31)
	registerValueDmaCsWaitOutstandingWrites uint32 = (1 << 28)
	registerValueDmaCsError                 uint32 = (1 << 8)
	registerValueDmaCsInt                   uint32 = (1 << 2)
	registerValueDmaCsEnd                   uint32 = (1 << 1)
	registerValueDmaCsActive                uint32 = (1 << 0)

	registerDMABusOffset uint32 = 0x00007000
)

//helper functions for dma register
var (
	registerValueDmaCsPanicPriority = func(val uint32) uint32 { return ((val & 0xf) << 20) }
	registerValueDmaCsPriority      = func(val uint32) uint32 { return ((val & 0xf) << 16) }

	registerOffsetDmaChannel = func(ch uint32, r uint32) uint32 { //Adds channel specific offset to address
		return ch*0x100 + r
	}
)

//dmaDevice is the DMA controller with one channel in use.
type dmaDevice struct {
	mem     rpimemmap.MemMap
	channel uint32
}

//map the dma device and enable the channel.
func (d *dmaDevice) initialize(channel uint32) error {
	if d.mem == nil {
		d.mem = rpimemmap.NewPeripheral(uint32(os.Getpagesize()))
		err := d.mem.Map(registerDMABusOffset, rpimemmap.MemDevDefault, 0)
		if err != nil {
			d.mem = nil
			return errors.Wrap(err, "dma initialize")
		}
		logOutput("dma mapped", "mem", d.mem.String())
	}
	d.channel = channel
	*rpimemmap.Reg32(d.mem, registerOffsetDmaEnable) |= (1 << channel)
	return nil
}

func (d *dmaDevice) reg(r uint32) *uint32 {
	return rpimemmap.Reg32(d.mem, registerOffsetDmaChannel(d.channel, r))
}

//reset the channel, aborting a running transfer.
func (d *dmaDevice) stop() {
	if d.mem == nil {
		return
	}
	*d.reg(registerOffsetDmaCs) = registerValueDmaCsReset
}

//busy reports whether the channel is still transferring.
func (d *dmaDevice) busy() bool {
	if d.mem == nil {
		return false
	}
	return *d.reg(registerOffsetDmaCs)&registerValueDmaCsActive != 0
}

//failed reports the error flag of the channel.
func (d *dmaDevice) failed() bool {
	if d.mem == nil {
		return false
	}
	return *d.reg(registerOffsetDmaCs)&registerValueDmaCsError != 0
}

//start a transfer described by the control block at cbAddress.
func (d *dmaDevice) start(cbAddress uint32) {
	d.stop()
	time.Sleep(10 * time.Microsecond)
	*d.reg(registerOffsetDmaCs) = registerValueDmaCsInt | registerValueDmaCsEnd
	time.Sleep(10 * time.Microsecond)
	*d.reg(registerOffsetDmaConblkAd) = cbAddress
	*d.reg(registerOffsetDmaDebug) = 7
	*d.reg(registerOffsetDmaCs) = registerValueDmaCsWaitOutstandingWrites | registerValueDmaCsPanicPriority(15) | registerValueDmaCsPriority(15)
	*d.reg(registerOffsetDmaCs) |= registerValueDmaCsActive
}

//disable the channel and unmap the device.
func (d *dmaDevice) cleanup() error {
	if d.mem == nil {
		return nil
	}
	d.stop()
	*rpimemmap.Reg32(d.mem, registerOffsetDmaEnable) &= ^(1 << d.channel)
	err := d.mem.Unmap()
	if err != nil {
		return errors.Wrap(err, "dma cleanup")
	}
	d.mem = nil
	return nil
}
