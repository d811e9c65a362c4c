package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/liftbot/curve"
	"github.com/antongulenko/liftbot/drive"
	"github.com/antongulenko/liftbot/ft260"
	"github.com/antongulenko/liftbot/lift"
	"github.com/antongulenko/liftbot/opcontrol"
	"github.com/antongulenko/liftbot/robot"
	log "github.com/sirupsen/logrus"
)

type commandFunc func() error

var (
	r         = robot.DefaultRobot
	loop      = opcontrol.DefaultLoop
	command   = "scan"
	duration  = 2 * time.Second
	sleepTime = 200 * time.Millisecond
	samples   = 10
	commands  = map[string]commandFunc{
		"none":   func() error { return nil },
		"scan":   scan,
		"curve":  printCurve,
		"drive":  setDrive,
		"lift":   setLift,
		"sensor": readSensor,
		"hold":   holdLift,
	}

	forward, strafe, rotate int
	left, right             int
	tankDrive               bool
	liftPower               int
)

func main() {
	r.RegisterFlags()
	loop.RegisterFlags()
	flag.StringVar(&command, "c", command, fmt.Sprintf("Command to execute, one of: %v", commandNames()))
	flag.DurationVar(&duration, "duration", duration, "Time to keep the motors running (drive, lift and hold commands)")
	flag.DurationVar(&sleepTime, "sleep", sleepTime, "Sleep time between lift sensor samples (sensor command)")
	flag.IntVar(&samples, "samples", samples, "Number of lift sensor samples (sensor command)")
	flag.IntVar(&forward, "forward", forward, "Forward input for the drive command (-127..127)")
	flag.IntVar(&strafe, "strafe", strafe, "Strafe input for the drive command (-127..127)")
	flag.IntVar(&rotate, "rotate", rotate, "Rotation input for the drive command (-127..127)")
	flag.BoolVar(&tankDrive, "tank", tankDrive, "Use -left and -right instead of -forward, -strafe and -rotate (drive command)")
	flag.IntVar(&left, "left", left, "Left side input for tank-style driving (-127..127)")
	flag.IntVar(&right, "right", right, "Right side input for tank-style driving (-127..127)")
	flag.IntVar(&liftPower, "power", liftPower, "Power of the lift command (-127..127)")
	golib.RegisterLogFlags()
	flag.Parse()
	golib.ConfigureLogging()
	golib.Checkerr(doMain())
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func doMain() error {
	commandFunc, ok := commands[command]
	if !ok {
		return fmt.Errorf("Unknown command %v, available commands: %v", command, commandNames())
	}
	defer func() {
		golib.Printerr(r.Cleanup())
	}()
	if command != "curve" {
		if err := r.SetupBus(); err != nil {
			return err
		}
	}
	return commandFunc()
}

func scan() error {
	slaves, err := ft260.I2cScan(r.Bus())
	if err != nil {
		return err
	}
	log.Printf("Scanned slaves: %#02v", slaves)
	return nil
}

func printCurve() error {
	table := curve.Table()
	for start := 0; start < len(table); start += 16 {
		log.Printf("%3v: %3v", start, table[start:start+16])
	}
	return nil
}

func runFor(description string) {
	log.Printf("%v for %v...", description, duration)
	time.Sleep(duration)
}

func setDrive() error {
	if err := r.InitMotors(); err != nil {
		return err
	}
	var wheels drive.WheelPowers
	if tankDrive {
		wheels = drive.Differential(left, right)
	} else {
		wheels = drive.Holonomic(forward, strafe, rotate)
	}
	if err := r.Motors.SetDrive(wheels); err != nil {
		return err
	}
	runFor("Driving " + wheels.String())
	return r.Motors.Stop()
}

func setLift() error {
	if err := r.InitMotors(); err != nil {
		return err
	}
	powers := lift.Split(liftPower)
	if err := r.Motors.SetLift(powers); err != nil {
		return err
	}
	runFor("Moving lift " + powers.String())
	return r.Motors.Stop()
}

func readSensor() error {
	if err := r.InitLiftSensor(); err != nil {
		return err
	}
	for i := 0; i < samples; i++ {
		if i > 0 {
			time.Sleep(sleepTime)
		}
		pos, err := r.LiftSensor.Position()
		if err != nil {
			return err
		}
		log.Printf("Lift position: %v", pos)
	}
	return nil
}

// noInput keeps all sticks centered and no buttons pressed.
type noInput struct{}

func (noInput) Read() opcontrol.Input {
	return opcontrol.Input{}
}

// holdLift runs the control loop without joystick, so the lift holds its current position.
func holdLift() error {
	if err := r.InitMotors(); err != nil {
		return err
	}
	if err := r.InitLiftSensor(); err != nil {
		return err
	}
	loop.Inputs = noInput{}
	loop.Drive = &r.Motors
	loop.Lift = &r.Motors
	loop.Encoder = &r.LiftSensor
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()
	log.Printf("Holding lift for %v...", duration)
	if err := loop.Run(ctx); err != nil {
		return err
	}
	log.Printf("Lift target %v after %v cycles", loop.LiftTarget(), loop.Cycles())
	return nil
}
