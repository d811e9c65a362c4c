// Package opcontrol runs the operator control session: every cycle it reads the operator input,
// drives the six drive motors and holds or moves the lift.
package opcontrol

import (
	"context"
	"flag"
	"time"

	"github.com/antongulenko/liftbot/drive"
	"github.com/antongulenko/liftbot/lift"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const DefaultPeriod = 20 * time.Millisecond

var DefaultLoop = Loop{
	Period:   DefaultPeriod,
	LiftGain: lift.DefaultGain,
}

type Loop struct {
	Inputs  Inputs
	Drive   DriveActuators
	Lift    LiftActuators
	Encoder Encoder

	Period   time.Duration
	LiftGain float64

	controller *lift.Controller
	liftMode   lift.Mode
	cycles     uint64
}

func (l *Loop) RegisterFlags() {
	flag.DurationVar(&l.Period, "period", l.Period, "Duration of one control cycle")
	flag.Float64Var(&l.LiftGain, "lift-gain", l.LiftGain, "Proportional gain of the lift position hold")
}

// Start begins a fresh session: the lift holds whatever position it is at right now.
func (l *Loop) Start() error {
	if l.LiftGain <= 0 {
		return errors.Errorf("lift gain must be positive, got %v", l.LiftGain)
	}
	position, err := l.Encoder.Position()
	if err != nil {
		return errors.Wrap(err, "failed to read initial lift position")
	}
	l.controller = lift.NewController(position)
	l.controller.Gain = l.LiftGain
	l.liftMode = lift.Hold
	l.cycles = 0
	log.Printf("Starting operator control, holding lift at position %v", position)
	return nil
}

// Step executes one control cycle. Start must have been called before.
func (l *Loop) Step() {
	in := l.Inputs.Read()
	l.cycles++

	var wheels drive.WheelPowers
	if in.Differential {
		wheels = drive.Differential(in.Left, in.Right)
	} else {
		wheels = drive.Holonomic(in.Forward, in.Strafe, in.Rotate)
	}
	if err := l.Drive.SetDrive(wheels); err != nil {
		log.Errorf("Failed to set drive motors to %v: %v", wheels, err)
	}

	// The reset only moves the zero point. The held target stays as it is.
	if in.LiftReset {
		if err := l.Encoder.ResetPosition(); err != nil {
			log.Errorln("Failed to reset lift position:", err)
		}
	}
	var mode lift.Mode
	var power int
	position, err := l.Encoder.Position()
	if err != nil {
		// Without a position only the override can move the lift. The target is left alone.
		mode = lift.SelectMode(in.LiftUp, in.LiftDown)
		if mode == lift.Manual {
			power = lift.ManualPower(in.LiftUp, in.LiftDown)
		}
		log.Errorf("Failed to read lift position in cycle %v, lift %v power %v: %v", l.cycles, mode, power, err)
	} else {
		mode, power = l.controller.Update(in.LiftUp, in.LiftDown, position)
	}
	if mode != l.liftMode {
		log.Debugf("Lift mode changed to %v (position %v)", mode, position)
		l.liftMode = mode
	}
	powers := lift.Split(power)
	if err := l.Lift.SetLift(powers); err != nil {
		log.Errorf("Failed to set lift motors to %v: %v", powers, err)
	}
	log.Debugf("Cycle %v: drive %v, lift %v power %v (position %v, target %v)",
		l.cycles, wheels, mode, power, position, l.controller.Target)
}

// Run hosts the loop until the context is cancelled, then stops all motors.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Start(); err != nil {
		return err
	}
	period := l.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for ctx.Err() == nil {
		l.Step()
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
	log.Printf("Operator control stopped after %v cycles", l.cycles)
	return l.Stop()
}

// Stop commands zero power to all motors.
func (l *Loop) Stop() error {
	return multierr.Combine(
		l.Drive.SetDrive(drive.WheelPowers{}),
		l.Lift.SetLift(lift.Powers{}),
	)
}

func (l *Loop) LiftTarget() int {
	if l.controller == nil {
		return 0
	}
	return l.controller.Target
}

func (l *Loop) LiftMode() lift.Mode {
	return l.liftMode
}

func (l *Loop) Cycles() uint64 {
	return l.cycles
}
