package lift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectMode(t *testing.T) {
	a := assert.New(t)
	a.Equal(Hold, SelectMode(false, false))
	a.Equal(Manual, SelectMode(true, false))
	a.Equal(Manual, SelectMode(false, true))
	a.Equal(Manual, SelectMode(true, true))
	a.Equal("hold", Hold.String())
	a.Equal("manual", Manual.String())
	a.Equal("unknown lift mode 7", Mode(7).String())
}

func TestHoldPower(t *testing.T) {
	a := assert.New(t)
	test := func(target, position, expected int) {
		a.Equal(expected, HoldPower(target, position, DefaultGain), "target %v position %v", target, position)
	}
	test(500, 500, 0)
	test(600, 500, 70)
	test(400, 500, -70)
	test(501, 500, 0)
	test(502, 500, 1)
	test(510, 500, 7)
	test(490, 500, -7)
	test(127, 0, 88)
	test(5000, 0, 88)
	test(-5000, 0, -88)
}

func TestHoldAtTarget(t *testing.T) {
	a := assert.New(t)
	c := NewController(500)
	mode, power := c.Update(false, false, 500)
	a.Equal(Hold, mode)
	a.Equal(0, power)
	a.Equal(Powers{}, Split(power))
}

func TestHoldBelowTarget(t *testing.T) {
	a := assert.New(t)
	c := NewController(600)
	mode, power := c.Update(false, false, 500)
	a.Equal(Hold, mode)
	a.Equal(70, power)
	a.Equal(Powers{TopLeft: -70, BottomLeft: 70, TopRight: -70, BottomRight: 70}, Split(power))
	a.Equal(600, c.Target, "hold must not move the target")
}

func TestManual(t *testing.T) {
	a := assert.New(t)
	test := func(up, down bool, expectedPower int) {
		c := NewController(100)
		mode, power := c.Update(up, down, 321)
		a.Equal(Manual, mode)
		a.Equal(expectedPower, power, "up %v down %v", up, down)
		a.Equal(321, c.Target, "target must follow the position")
	}
	test(true, false, 127)
	test(false, true, -127)
	test(true, true, 0)
}

func TestReleaseHoldsWhereStopped(t *testing.T) {
	a := assert.New(t)
	c := NewController(0)
	c.Update(true, false, 50)
	c.Update(true, false, 120)
	mode, power := c.Update(false, false, 120)
	a.Equal(Hold, mode)
	a.Equal(0, power)

	// Sagging after release is corrected
	_, power = c.Update(false, false, 101)
	a.Equal(13, power)
}

func TestSplit(t *testing.T) {
	a := assert.New(t)
	p := Split(-127)
	a.Equal(127, p.TopLeft)
	a.Equal(-127, p.BottomLeft)
	a.Equal(127, p.TopRight)
	a.Equal(-127, p.BottomRight)
	a.Equal("left 127/-127 right 127/-127", p.String())
}

func TestManualPower(t *testing.T) {
	a := assert.New(t)
	a.Equal(127, ManualPower(true, false))
	a.Equal(-127, ManualPower(false, true))
	a.Equal(0, ManualPower(true, true))
	a.Equal(0, ManualPower(false, false))
}
