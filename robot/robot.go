// Package robot connects the motor driver and the lift sensor over one of several I2C transports.
package robot

import (
	"flag"
	"io"

	"github.com/antongulenko/liftbot/ads1115"
	"github.com/antongulenko/liftbot/ft260"
	"github.com/antongulenko/liftbot/pca9685"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var DefaultRobot = Robot{
	UsbDevice:       "",
	I2cFreq:         uint(400),
	I2cRequestQueue: 20,
	Motors: Motors{
		I2cAddr:   pca9685.ADDRESS,
		Frequency: pca9685.MotorFrequency,
		Wiring:    DefaultWiring,
	},
	LiftSensor: LiftSensor{
		I2cAddr: ads1115.ADDR_GND,
		Divisor: 8,
	},
}

type Robot struct {
	UsbDevice       string
	I2cBusName      string
	I2cDevfs        string
	I2cFreq         uint
	I2cRequestQueue int
	NoI2cSequencer  bool
	Dummy           bool
	WiringFile      string

	Motors     Motors
	LiftSensor LiftSensor

	bus       ft260.I2cBus
	closer    io.Closer
	sequencer *sequencedI2cBus
}

func (r *Robot) RegisterFlags() {
	flag.StringVar(&r.UsbDevice, "dev", r.UsbDevice, "Specify a USB path for FT260")
	flag.StringVar(&r.I2cBusName, "i2c-bus", r.I2cBusName, "Use the named I2C bus of the host instead of the FT260 (e.g. 1 or /dev/i2c-1)")
	flag.StringVar(&r.I2cDevfs, "i2c-devfs", r.I2cDevfs, "Use the given i2c-dev device file instead of the FT260 (e.g. /dev/i2c-1)")
	flag.UintVar(&r.I2cFreq, "freq", r.I2cFreq, "The I2C bus frequency in kHz (60 - 3400)")
	flag.BoolVar(&r.NoI2cSequencer, "no-i2c-sequencer", r.NoI2cSequencer, "Disable the extra goroutine for sequencing I2C commands")
	flag.BoolVar(&r.Dummy, "dummy", r.Dummy, "Disable USB/I2C peripherals, only log I2C writes")
	flag.StringVar(&r.WiringFile, "wiring", r.WiringFile, "YAML file assigning PWM channels to motors")
	flag.IntVar(&r.LiftSensor.Divisor, "lift-divisor", r.LiftSensor.Divisor, "Divide raw lift sensor values by this")
	flag.BoolVar(&r.LiftSensor.Invert, "lift-invert", r.LiftSensor.Invert, "Invert the direction of the lift sensor")
}

// Setup opens the I2C transport and initializes all devices.
func (r *Robot) Setup() error {
	if err := r.SetupBus(); err != nil {
		return err
	}
	if err := r.InitMotors(); err != nil {
		return err
	}
	if err := r.InitLiftSensor(); err != nil {
		return err
	}
	log.Println("Successfully initialized I2C peripherals")
	return nil
}

// SetupBus only opens the I2C transport, without touching any device.
func (r *Robot) SetupBus() error {
	if r.bus != nil {
		return nil
	}
	return r.openBus()
}

// InitMotors loads the optional wiring file and initializes the motor driver.
func (r *Robot) InitMotors() error {
	if r.WiringFile != "" {
		wiring, err := LoadWiring(r.WiringFile, r.Motors.Wiring)
		if err != nil {
			return err
		}
		r.Motors.Wiring = wiring
	}
	r.Motors.Wiring.log()
	return errors.Wrap(r.Motors.Init(r.bus), "failed to initialize motor driver")
}

func (r *Robot) InitLiftSensor() error {
	return errors.Wrap(r.LiftSensor.Init(r.bus), "failed to initialize lift sensor")
}

func (r *Robot) openBus() error {
	var bus ft260.I2cBus
	switch {
	case r.Dummy:
		log.Println("Dummy robot: skipping initialization of USB/I2C peripherals")
		bus = new(dummyI2cBus)
	case r.I2cBusName != "":
		periphBus, err := openPeriphBus(r.I2cBusName, r.I2cFreq)
		if err != nil {
			return err
		}
		bus, r.closer = periphBus, periphBus
	case r.I2cDevfs != "":
		devfs := openDevfsBus(r.I2cDevfs)
		bus, r.closer = devfs, devfs
	default:
		usb, err := ft260.OpenPath(r.UsbDevice)
		if err != nil {
			return errors.Wrap(err, "failed to open FT260")
		}
		r.closer = usb
		if err := usb.ConfigureI2c(r.I2cFreq); err != nil {
			return errors.Wrap(err, "failed to configure FT260")
		}
		bus = usb
	}
	if !r.Dummy && !r.NoI2cSequencer {
		r.sequencer = newSequencedI2cBus(bus, r.I2cRequestQueue)
		go r.sequencer.handleI2cRequests()
		bus = r.sequencer
	}
	r.bus = bus
	return nil
}

func (r *Robot) Bus() ft260.I2cBus {
	return r.bus
}

// Cleanup stops all motors and releases the I2C transport. Calling it again does nothing.
func (r *Robot) Cleanup() (err error) {
	if r.Motors.bus != nil {
		err = multierr.Append(err, r.Motors.Stop())
		r.Motors.bus = nil
	}
	if r.sequencer != nil {
		r.sequencer.Close()
		r.sequencer = nil
	}
	if r.closer != nil {
		err = multierr.Append(err, r.closer.Close())
		r.closer = nil
	}
	r.bus = nil
	return
}
