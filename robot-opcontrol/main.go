package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/liftbot/joystick"
	"github.com/antongulenko/liftbot/opcontrol"
	"github.com/antongulenko/liftbot/robot"
	log "github.com/sirupsen/logrus"
)

var (
	r       = robot.DefaultRobot
	gamepad = &joystick.DefaultGamepad
	loop    = opcontrol.DefaultLoop
)

func main() {
	r.RegisterFlags()
	gamepad.RegisterFlags()
	loop.RegisterFlags()
	golib.RegisterFlags(golib.FlagsAll)
	flag.Parse()
	golib.ConfigureLogging()
	golib.Checkerr(doMain())
}

func doMain() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C disables the robot: the loop stops all motors before the peripherals are released
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		log.Println("Received signal", <-c)
		cancel()
	}()

	defer func() {
		golib.Printerr(r.Cleanup())
	}()
	if err := r.Setup(); err != nil {
		return err
	}
	log.Println("Successfully initialized robot, now connecting joystick...")

	go gamepad.Run(ctx)
	loop.Inputs = gamepad
	loop.Drive = &r.Motors
	loop.Lift = &r.Motors
	loop.Encoder = &r.LiftSensor
	return loop.Run(ctx)
}
