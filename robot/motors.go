package robot

import (
	"github.com/antongulenko/liftbot/curve"
	"github.com/antongulenko/liftbot/drive"
	"github.com/antongulenko/liftbot/ft260"
	"github.com/antongulenko/liftbot/lift"
	"github.com/antongulenko/liftbot/pca9685"
	log "github.com/sirupsen/logrus"
)

// Motors drives all ten motor controllers through one PCA9685. It is not safe for concurrent use.
type Motors struct {
	I2cAddr   byte
	Frequency float64
	Wiring    Wiring

	bus    ft260.I2cBus
	state  [pca9685.NUM_OUTPUTS]float64
	output pca9685.PwmOutput
}

// Init configures the PWM frequency and sends a neutral pulse to every wired motor.
func (m *Motors) Init(bus ft260.I2cBus) error {
	if err := m.Wiring.Validate(); err != nil {
		return err
	}
	m.bus = bus
	log.Printf("Initializing PWM driver at %#02x with %vHz...", m.I2cAddr, m.Frequency)
	write := func(data ...byte) error {
		return m.bus.I2cWrite(m.I2cAddr, data...)
	}
	if err := pca9685.Init(write, m.Frequency); err != nil {
		return err
	}
	m.state = [pca9685.NUM_OUTPUTS]float64{}
	return m.Stop()
}

func (m *Motors) onTime(power int) float64 {
	return pca9685.MotorOnTime(power, curve.MaxPower, m.Frequency)
}

func (m *Motors) SetDrive(p drive.WheelPowers) error {
	channels := m.Wiring.Drive()
	for i, power := range p.Values() {
		m.state[channels[i]] = m.onTime(power)
	}
	return m.flush()
}

func (m *Motors) SetLift(p lift.Powers) error {
	channels := m.Wiring.Lift()
	for i, power := range [...]int{p.TopLeft, p.BottomLeft, p.TopRight, p.BottomRight} {
		m.state[channels[i]] = m.onTime(power)
	}
	return m.flush()
}

// Stop sends a neutral pulse to every wired motor, rewriting all channels.
func (m *Motors) Stop() error {
	for _, channel := range m.Wiring.channels() {
		m.state[channel] = m.onTime(0)
	}
	m.output.Invalidate()
	return m.flush()
}

func (m *Motors) flush() error {
	data := m.output.Update(pca9685.LED0, m.state[:])
	if data == nil {
		return nil
	}
	log.Debugf("Updating %v PWM value(s) starting at register %#02x", (len(data)-1)/pca9685.BYTE_PER_OUTPUT, data[0])
	if err := m.bus.I2cWrite(m.I2cAddr, data...); err != nil {
		// Make sure the next update rewrites all channels
		m.output.Invalidate()
		return err
	}
	return nil
}
