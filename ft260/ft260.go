// Package ft260 talks to the FTDI FT260 USB-to-I2C bridge through USB HID reports.
package ft260

import (
	"errors"
	"fmt"

	"github.com/karalabe/hid"
	log "github.com/sirupsen/logrus"
)

const (
	FTDIVendorId   = 0x0403
	FT260ProductId = 0x6030

	// The I2C function is exposed on the first HID interface, UART on the second
	i2cInterface = 0

	maxReportLen = 64
)

// I2cBus is implemented by every transport that can reach the I2C devices of the robot.
type I2cBus interface {
	I2cWrite(addr byte, data ...byte) error
	I2cRead(addr byte, data []byte) error
	I2cWriteRead(addr byte, out, in []byte) error
	I2cGet(addr byte, registerAddr byte, size int) ([]byte, error)
}

type ReportOut interface {
	Marshall(data []byte) error
	ReportID() byte
	ReportLen() int
}

type Ft260 struct {
	Path string
	dev  *hid.Device
}

// OpenPath opens the FT260 at the given USB path. An empty path selects the first FT260 found.
func OpenPath(path string) (*Ft260, error) {
	if !hid.Supported() {
		return nil, errors.New("USB HID is not supported on this platform")
	}
	var candidates []hid.DeviceInfo
	for _, info := range hid.Enumerate(FTDIVendorId, FT260ProductId) {
		if info.Interface == i2cInterface && (path == "" || info.Path == path) {
			candidates = append(candidates, info)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("No FT260 found with vendorID=%04x productID=%04x path=%q", FTDIVendorId, FT260ProductId, path)
	}
	if len(candidates) > 1 {
		log.Warnf("%v FT260 devices connected, using the first one", len(candidates))
	}
	info := candidates[0]
	log.Printf("Opening USB HID device %v (USB %v): %v (%04x) from %v (%04x), Release %v",
		info.Path, info.Interface, info.Product, info.ProductID, info.Manufacturer, info.VendorID, info.Release)
	dev, err := info.Open()
	if err != nil {
		return nil, err
	}
	return &Ft260{
		Path: info.Path,
		dev:  dev,
	}, nil
}

func (f *Ft260) Close() error {
	return f.dev.Close()
}

func (f *Ft260) Write(report ReportOut) error {
	data := make([]byte, report.ReportLen()+1)
	data[0] = report.ReportID()
	if err := report.Marshall(data[1:]); err != nil {
		return err
	}
	n, err := f.dev.Write(data)
	if err == nil && n != len(data) {
		err = fmt.Errorf("ft260: wrong write len (%v instead of %v)", n, len(data))
	}
	return err
}

// readI2cInput reads one I2C input report and copies its payload into buf.
func (f *Ft260) readI2cInput(buf []byte) (int, error) {
	data := make([]byte, maxReportLen)
	n, err := f.dev.Read(data)
	if err != nil {
		return 0, err
	}
	if n < 2 {
		return 0, fmt.Errorf("ft260: short read of %v byte", n)
	}
	if id := data[0]; id < ReportID_I2CInOut || id > ReportID_I2CInOut_Max {
		return 0, fmt.Errorf("ft260: unexpected report id %02x", id)
	}
	payloadLen := int(data[1])
	if n < payloadLen+2 {
		return 0, fmt.Errorf("ft260: short I2C input report (%v byte, needed %v)", n, payloadLen+2)
	}
	return copy(buf, data[2:2+payloadLen]), nil
}
