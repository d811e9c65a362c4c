package robot

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/exp/io/i2c"
	periph "periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

// periphBus uses an I2C bus of the host, looked up in the periph registry (e.g. "1" or "/dev/i2c-1").
type periphBus struct {
	bus periph.BusCloser
}

func openPeriphBus(name string, freqKHz uint) (*periphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host drivers")
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open I2C bus %q", name)
	}
	if freqKHz > 0 {
		if err := bus.SetSpeed(physic.Frequency(freqKHz) * physic.KiloHertz); err != nil {
			log.Warnf("Failed to set speed of I2C bus %v to %vkHz: %v", bus, freqKHz, err)
		}
	}
	log.Printf("Opened I2C bus %v", bus)
	return &periphBus{bus: bus}, nil
}

func (b *periphBus) I2cWrite(addr byte, data ...byte) error {
	return b.bus.Tx(uint16(addr), data, nil)
}

func (b *periphBus) I2cRead(addr byte, data []byte) error {
	return b.bus.Tx(uint16(addr), nil, data)
}

func (b *periphBus) I2cWriteRead(addr byte, out, in []byte) error {
	return b.bus.Tx(uint16(addr), out, in)
}

func (b *periphBus) I2cGet(addr byte, registerAddr byte, size int) ([]byte, error) {
	data := make([]byte, size)
	err := b.bus.Tx(uint16(addr), []byte{registerAddr}, data)
	return data, err
}

func (b *periphBus) Close() error {
	return b.bus.Close()
}

// devfsBus talks to the i2c-dev device file directly. Every slave address gets its own handle.
type devfsBus struct {
	devfs   *i2c.Devfs
	devices map[byte]*i2c.Device
}

func openDevfsBus(deviceFile string) *devfsBus {
	return &devfsBus{
		devfs:   &i2c.Devfs{Dev: deviceFile},
		devices: make(map[byte]*i2c.Device),
	}
}

func (b *devfsBus) device(addr byte) (*i2c.Device, error) {
	if dev, ok := b.devices[addr]; ok {
		return dev, nil
	}
	dev, err := i2c.Open(b.devfs, int(addr))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open I2C slave %#02x on %v", addr, b.devfs.Dev)
	}
	b.devices[addr] = dev
	return dev, nil
}

func (b *devfsBus) I2cWrite(addr byte, data ...byte) error {
	dev, err := b.device(addr)
	if err != nil {
		return err
	}
	return dev.Write(data)
}

func (b *devfsBus) I2cRead(addr byte, data []byte) error {
	dev, err := b.device(addr)
	if err != nil {
		return err
	}
	return dev.Read(data)
}

// I2cWriteRead issues two separate transactions, the i2c-dev interface has no repeated start.
func (b *devfsBus) I2cWriteRead(addr byte, out, in []byte) error {
	dev, err := b.device(addr)
	if err != nil {
		return err
	}
	if err := dev.Write(out); err != nil {
		return err
	}
	return dev.Read(in)
}

func (b *devfsBus) I2cGet(addr byte, registerAddr byte, size int) ([]byte, error) {
	dev, err := b.device(addr)
	if err != nil {
		return nil, err
	}
	data := make([]byte, size)
	err = dev.ReadReg(registerAddr, data)
	return data, err
}

func (b *devfsBus) Close() (err error) {
	for addr, dev := range b.devices {
		err = multierr.Append(err, dev.Close())
		delete(b.devices, addr)
	}
	return
}

// dummyI2cBus logs all writes and reads zeros.
type dummyI2cBus struct {
	writes int
}

func (b *dummyI2cBus) I2cWrite(addr byte, data ...byte) error {
	b.writes++
	log.Printf("Dummy I2C write %v to %#02x: %v", b.writes, addr, formatBytes(data))
	return nil
}

func (b *dummyI2cBus) I2cRead(addr byte, data []byte) error {
	for i := range data {
		data[i] = 0
	}
	return nil
}

func (b *dummyI2cBus) I2cWriteRead(addr byte, out, in []byte) error {
	if err := b.I2cWrite(addr, out...); err != nil {
		return err
	}
	return b.I2cRead(addr, in)
}

func (b *dummyI2cBus) I2cGet(addr byte, registerAddr byte, size int) ([]byte, error) {
	data := make([]byte, size)
	return data, b.I2cWriteRead(addr, []byte{registerAddr}, data)
}

func formatBytes(data []byte) string {
	return fmt.Sprintf("% 02x", data)
}
