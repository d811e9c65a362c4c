package robot

import (
	"github.com/antongulenko/liftbot/ads1115"
	"github.com/antongulenko/liftbot/ft260"
	log "github.com/sirupsen/logrus"
)

// Measure AIN0 against GND continuously in 0..4V, comparator disabled
const liftSensorConfig = ads1115.CONFIG_MUX_0GND | ads1115.CONFIG_PGA_4V | ads1115.CONFIG_DR_475 | ads1115.CONFIG_COMP_QUE_OFF

// LiftSensor reads the lift potentiometer through an ADS1115.
// Positions are raw conversion counts relative to the last reset, divided by Divisor.
type LiftSensor struct {
	I2cAddr byte
	Divisor int
	Invert  bool

	bus    ft260.I2cBus
	offset int
}

func (s *LiftSensor) Init(bus ft260.I2cBus) error {
	s.bus = bus
	if s.Divisor == 0 {
		s.Divisor = 1
	}
	log.Printf("Initializing lift sensor ADC at %#02x...", s.I2cAddr)
	return ads1115.Configure(s.bus, s.I2cAddr, liftSensorConfig)
}

func (s *LiftSensor) raw() (int, error) {
	val, err := ads1115.ReadRegisterDirectly(s.bus, s.I2cAddr)
	if err != nil {
		return 0, err
	}
	if s.Invert {
		return -int(val), nil
	}
	return int(val), nil
}

func (s *LiftSensor) Position() (int, error) {
	val, err := s.raw()
	if err != nil {
		return 0, err
	}
	return (val - s.offset) / s.Divisor, nil
}

// ResetPosition makes the current position the new zero.
func (s *LiftSensor) ResetPosition() error {
	val, err := s.raw()
	if err != nil {
		return err
	}
	log.Printf("Resetting lift sensor zero from %v to %v", s.offset, val)
	s.offset = val
	return nil
}
