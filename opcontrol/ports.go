package opcontrol

import (
	"github.com/antongulenko/liftbot/drive"
	"github.com/antongulenko/liftbot/lift"
)

// Input is the operator input sampled once per cycle. Axes are in -127..127.
type Input struct {
	Forward int
	Strafe  int
	Rotate  int

	// Tank-style stick values, used instead of the holonomic axes when Differential is set
	Left         int
	Right        int
	Differential bool

	LiftUp    bool
	LiftDown  bool
	LiftReset bool
}

type Inputs interface {
	Read() Input
}

type DriveActuators interface {
	SetDrive(powers drive.WheelPowers) error
}

type LiftActuators interface {
	SetLift(powers lift.Powers) error
}

// Encoder reports the lift position in sensor counts. ResetPosition makes the current position zero.
type Encoder interface {
	Position() (int, error)
	ResetPosition() error
}
