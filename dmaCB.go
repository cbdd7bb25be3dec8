package clockless

import (
	"os"

	"github.com/DerLukas15/rpihardware"
	"github.com/DerLukas15/rpimemmap"
	"github.com/pkg/errors"
)

const (
	//register offsets dmaCB
	registerOffsetDmaCBTi             uint32 = 0 * 4
	registerOffsetDmaCBSrcAddress     uint32 = 1 * 4
	registerOffsetDmaCBDestAddress    uint32 = 2 * 4
	registerOffsetDmaCBTransferLength uint32 = 3 * 4
	registerOffsetDmaCB2DModeStride   uint32 = 4 * 4
	registerOffsetDmaCBNextCBAddress  uint32 = 5 * 4

	//register values dmaCB Ti
	registerValueDmaCBTiWaitResp     uint32 = 1 << 3
	registerValueDmaCBTiDestDreq     uint32 = 1 << 6
	registerValueDmaCBTiSrcInc       uint32 = 1 << 8
	registerValueDmaCBTiNoWideBursts uint32 = 1 << 26

	dmaPermapPWM uint32 = 5
)

var registerValueDmaCBTiPermap = func(val uint32) uint32 {
	return ((val & 0x1f) << 16)
}

//mapUncached maps mem as uncached memory the DMA engine can read.
func mapUncached(mem rpimemmap.MemMap, hw *rpihardware.Hardware) error {
	allocationFlags := rpimemmap.UncachedMemFlagDirect
	if hw.RPiType == rpihardware.RPiType1 {
		allocationFlags = 0xc
	}
	return mem.Map(0, "", allocationFlags)
}

//controlBlock is the single DMA control block feeding the PWM FIFO.
type controlBlock struct {
	mem rpimemmap.MemMap
}

func (cb *controlBlock) initialize(hw *rpihardware.Hardware) error {
	if cb.mem != nil {
		return nil
	}
	cb.mem = rpimemmap.NewUncached(uint32(os.Getpagesize())) // rounded to the page size anyway
	err := mapUncached(cb.mem, hw)
	if err != nil {
		cb.mem = nil
		return errors.Wrap(err, "dma control block initialize")
	}
	logOutput("dma control block mapped", "mem", cb.mem.String())
	return nil
}

//setup a transfer of length bytes from src to the PWM FIFO at dest, paced by the PWM data request.
func (cb *controlBlock) setup(src, dest, length uint32) {
	*rpimemmap.Reg32(cb.mem, registerOffsetDmaCBTi) = registerValueDmaCBTiNoWideBursts | registerValueDmaCBTiWaitResp |
		registerValueDmaCBTiDestDreq | registerValueDmaCBTiSrcInc | registerValueDmaCBTiPermap(dmaPermapPWM)
	*rpimemmap.Reg32(cb.mem, registerOffsetDmaCBSrcAddress) = src
	*rpimemmap.Reg32(cb.mem, registerOffsetDmaCBDestAddress) = dest
	*rpimemmap.Reg32(cb.mem, registerOffsetDmaCBTransferLength) = length
	*rpimemmap.Reg32(cb.mem, registerOffsetDmaCB2DModeStride) = 0
	*rpimemmap.Reg32(cb.mem, registerOffsetDmaCBNextCBAddress) = 0
}

func (cb *controlBlock) busAddr() uint32 {
	return cb.mem.BusAddr()
}

func (cb *controlBlock) cleanup() error {
	if cb.mem == nil {
		return nil
	}
	err := cb.mem.Unmap()
	if err != nil {
		return errors.Wrap(err, "dma control block cleanup")
	}
	cb.mem = nil
	return nil
}
