package clockless

import (
	"os"
	"time"

	"github.com/DerLukas15/clockless/internal/mathx"
	"github.com/DerLukas15/rpimemmap"
	"github.com/pkg/errors"
)

const (
	registerClockBusOffset uint32 = 0x00101000

	//register offsets
	registerOffsetClkPwmCtl uint32 = 0xa0 // PWM Control
	registerOffsetClkPwmDiv uint32 = 0xa4 // PWM Div

	registerValueClkPasswd uint32 = 0x5a000000 // Password used by the clock registers

	//Ctl register
	registerValueClkCtlSrcOsc uint32 = (1 << 0) // Set Source from oscillator
	registerValueClkCtlEnab   uint32 = (1 << 4) // Enable clock
	registerValueClkCtlKill   uint32 = (1 << 5) // Kill and reset
	registerValueClkCtlBusy   uint32 = (1 << 7) // Set if running
)

var registerValueClkDivDivi = func(val uint32) uint32 { return ((val & 0xfff) << 12) } // Integer part of divisor

//clockDevice is the clock manager of the SoC.
type clockDevice struct {
	mem rpimemmap.MemMap
}

//map the clock device. Mapping twice is a no-op.
func (c *clockDevice) initialize() error {
	if c.mem != nil {
		logOutput("clock already initialized. Skipping")
		return nil
	}
	c.mem = rpimemmap.NewPeripheral(uint32(os.Getpagesize()))
	err := c.mem.Map(registerClockBusOffset, rpimemmap.MemDevDefault, 0)
	if err != nil {
		c.mem = nil
		return errors.Wrap(err, "clock initialize")
	}
	logOutput("clock mapped", "mem", c.mem.String())
	return nil
}

//pwmDivisor is the integer divisor from oscFreq to one PWM bit per bitRate.
func pwmDivisor(oscFreq, bitRate uint32) uint32 {
	return mathx.Clamp(oscFreq/bitRate, 1, 0xfff)
}

//setupPWM runs the PWM clock at bitRate from the oscillator and waits until it is running.
func (c *clockDevice) setupPWM(oscFreq, bitRate uint32) error {
	if bitRate == 0 {
		return errors.Wrap(ErrConfigWrongValue, "clock setup")
	}
	c.stopPWM()
	*rpimemmap.Reg32(c.mem, registerOffsetClkPwmDiv) = registerValueClkPasswd | registerValueClkDivDivi(pwmDivisor(oscFreq, bitRate))
	*rpimemmap.Reg32(c.mem, registerOffsetClkPwmCtl) = registerValueClkPasswd | registerValueClkCtlSrcOsc
	*rpimemmap.Reg32(c.mem, registerOffsetClkPwmCtl) = registerValueClkPasswd | registerValueClkCtlSrcOsc | registerValueClkCtlEnab
	time.Sleep(10 * time.Microsecond)
	for (*rpimemmap.Reg32(c.mem, registerOffsetClkPwmCtl) & registerValueClkCtlBusy) == 0 {
		time.Sleep(1 * time.Microsecond)
	}
	logOutput("PWM clock running", "divisor", pwmDivisor(oscFreq, bitRate))
	return nil
}

//stopPWM kills the pwm clock and waits until it stopped.
func (c *clockDevice) stopPWM() {
	if c.mem == nil {
		return
	}
	*rpimemmap.Reg32(c.mem, registerOffsetClkPwmCtl) = registerValueClkPasswd | registerValueClkCtlKill
	time.Sleep(10 * time.Microsecond)
	for (*rpimemmap.Reg32(c.mem, registerOffsetClkPwmCtl) & registerValueClkCtlBusy) != 0 {
		time.Sleep(1 * time.Microsecond)
	}
}

func (c *clockDevice) cleanup() error {
	if c.mem == nil {
		return nil
	}
	c.stopPWM()
	err := c.mem.Unmap()
	if err != nil {
		return errors.Wrap(err, "clock cleanup")
	}
	c.mem = nil
	return nil
}
