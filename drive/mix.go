package drive

import (
	"fmt"

	"github.com/antongulenko/liftbot/curve"
)

// WheelPowers holds the power commanded to each of the six drive motors, in -127..127.
// The values already include the sign required by the mounting orientation of each motor.
type WheelPowers struct {
	FrontLeft, MidLeft, BackLeft    int
	FrontRight, MidRight, BackRight int
}

var WheelNames = [...]string{"front-left", "mid-left", "back-left", "front-right", "mid-right", "back-right"}

// Values returns the powers in the order of WheelNames.
func (w WheelPowers) Values() [6]int {
	return [6]int{w.FrontLeft, w.MidLeft, w.BackLeft, w.FrontRight, w.MidRight, w.BackRight}
}

func (w WheelPowers) String() string {
	return fmt.Sprintf("left %v/%v/%v right %v/%v/%v",
		w.FrontLeft, w.MidLeft, w.BackLeft, w.FrontRight, w.MidRight, w.BackRight)
}

// Holonomic mixes forward, strafe and rotation requests for the omni-wheel drivetrain.
// The mid wheels are mounted crosswise, so strafing spins them against the front and back wheels.
func Holonomic(forward, strafe, rotate int) WheelPowers {
	right := forward - strafe
	left := forward + strafe
	return WheelPowers{
		FrontRight: curve.Scale(right - rotate),
		MidRight:   curve.Scale(right + rotate),
		BackRight:  -curve.Scale(right + rotate),
		FrontLeft:  -curve.Scale(left + rotate),
		MidLeft:    -curve.Scale(left - rotate),
		BackLeft:   curve.Scale(left - rotate),
	}
}

// Differential drives both sides like a tank. Mid motors are mounted reversed relative to the
// front and back motors, and the right gearbox mirrors the left one.
func Differential(left, right int) WheelPowers {
	l := curve.Scale(left)
	r := curve.Scale(right)
	return WheelPowers{
		FrontLeft:  l,
		MidLeft:    -l,
		BackLeft:   l,
		FrontRight: -r,
		MidRight:   r,
		BackRight:  -r,
	}
}
