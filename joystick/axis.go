package joystick

import (
	"flag"
	"math"

	"github.com/antongulenko/liftbot/curve"
)

// Axis selects one direction of a joystick hat and converts its position to -127..127.
type Axis struct {
	Hat  int
	UseY bool

	Invert bool

	// Positions between these values are bound to zero
	ZeroFrom, ZeroTo float64
}

func (a *Axis) RegisterFlags(prefix string, desc string) {
	flag.IntVar(&a.Hat, prefix, a.Hat, "Index of the joystick hat for "+desc)
	flag.BoolVar(&a.UseY, prefix+"Y", a.UseY, "Use Y instead of X axis for "+desc)
	flag.BoolVar(&a.Invert, prefix+"Invert", a.Invert, "Invert axis direction of "+desc)
	flag.Float64Var(&a.ZeroFrom, prefix+"ZeroFrom", a.ZeroFrom, "Start of the zero interval of "+desc)
	flag.Float64Var(&a.ZeroTo, prefix+"ZeroTo", a.ZeroTo, "End of the zero interval of "+desc)
}

// Value converts hat coordinates in -1..1 to a stick value in -127..127.
func (a *Axis) Value(x, y float32) int {
	val := float64(x)
	if a.UseY {
		val = float64(y)
	}
	if a.Invert {
		val = -val
	}
	if val >= a.ZeroFrom && val <= a.ZeroTo {
		return 0
	}
	return curve.Clamp(int(math.Round(val * curve.MaxPower)))
}
