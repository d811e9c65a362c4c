package lift

import "fmt"

const (
	MaxPower = 127

	// Position errors beyond this are treated as this large
	MaxError = 127

	DefaultGain = 0.7
)

type Mode int

const (
	// Hold drives the lift towards the remembered target position
	Hold = Mode(iota)
	// Manual drives the lift at full power while an override button is held
	Manual
)

func (m Mode) String() string {
	switch m {
	case Hold:
		return "hold"
	case Manual:
		return "manual"
	default:
		return fmt.Sprintf("unknown lift mode %d", int(m))
	}
}

// SelectMode is evaluated fresh every cycle. Pressing both buttons still counts as Manual.
func SelectMode(up, down bool) Mode {
	if up || down {
		return Manual
	}
	return Hold
}

// Powers holds the power of the four lift motors. The motors on top are mounted opposite
// to the motors at the bottom.
type Powers struct {
	TopLeft, BottomLeft   int
	TopRight, BottomRight int
}

func (p Powers) String() string {
	return fmt.Sprintf("left %v/%v right %v/%v", p.TopLeft, p.BottomLeft, p.TopRight, p.BottomRight)
}

// Split distributes one lift power to the four motors.
func Split(power int) Powers {
	return Powers{
		TopLeft:     -power,
		BottomLeft:  power,
		TopRight:    -power,
		BottomRight: power,
	}
}

// HoldPower is a pure proportional controller. The result is truncated towards zero.
func HoldPower(target, position int, gain float64) int {
	err := target - position
	if err > MaxError {
		err = MaxError
	}
	if err < -MaxError {
		err = -MaxError
	}
	return int(float64(err) * gain)
}

// ManualPower is the override power. It does not depend on the lift position.
func ManualPower(up, down bool) int {
	return MaxPower * (boolToInt(up) - boolToInt(down))
}

type Controller struct {
	// The position held while no override button is pressed
	Target int
	Gain   float64
}

func NewController(position int) *Controller {
	return &Controller{
		Target: position,
		Gain:   DefaultGain,
	}
}

// Update returns the mode and lift power for one cycle. In Manual mode, the target follows the
// current position, so releasing the buttons holds the lift where it stopped.
func (c *Controller) Update(up, down bool, position int) (Mode, int) {
	mode := SelectMode(up, down)
	if mode == Manual {
		c.Target = position
		return mode, ManualPower(up, down)
	}
	return mode, HoldPower(c.Target, position, c.Gain)
}

func boolToInt(b bool) (res int) {
	if b {
		res = 1
	}
	return
}
