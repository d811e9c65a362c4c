package ft260

import "fmt"

const (
	ReportID_I2CRead      = 0xC2 // Output
	ReportID_I2CInOut     = 0xD0 // 0xD0 - 0xDE, Input, Output
	ReportID_I2CInOut_Max = 0xDE

	// Every report ID above 0xD0 carries 4 more payload byte
	I2CMaxPayload = (1 + ReportID_I2CInOut_Max - ReportID_I2CInOut) * 4

	MinSlaveAddr = 0x08
	MaxSlaveAddr = 0x77
)

const (
	I2C_MasterNone         = 0x0
	I2C_MasterStart        = 0x2
	I2C_MasterRepStart     = 0x3
	I2C_MasterStop         = 0x4
	I2C_MasterStartStop    = 0x6
	I2C_MasterRepStartStop = 0x7
)

// Data of ReportID_I2CInOut Interrupt Out
type OperationI2cWrite struct {
	SlaveAddr byte // 0..127
	Condition byte // I2C_Master...
	// 1 byte payload len
	Payload []byte
}

func (r *OperationI2cWrite) ReportID() byte {
	if len(r.Payload) == 0 {
		return ReportID_I2CInOut
	}
	return ReportID_I2CInOut + byte((len(r.Payload)-1)/4)
}

// The payload is padded up to the size of the report ID
func (r *OperationI2cWrite) ReportLen() int {
	return 3 + 4*int(r.ReportID()-ReportID_I2CInOut+1)
}

func (r *OperationI2cWrite) Marshall(b []byte) error {
	if len(r.Payload) > I2CMaxPayload {
		return fmt.Errorf("Payload len %v exceeds maximum size of %v", len(r.Payload), I2CMaxPayload)
	}
	if r.SlaveAddr&0x80 != 0 {
		return fmt.Errorf("Invalid I2C slave address: %02x", r.SlaveAddr)
	}
	b[0] = r.SlaveAddr
	b[1] = r.Condition
	b[2] = byte(len(r.Payload))
	copy(b[3:], r.Payload)
	return nil
}

// Data of ReportID_I2CRead Interrupt Out
type OperationI2cRead struct {
	SlaveAddr byte   // 0..127
	Condition byte   // I2C_Master...
	Len       uint16 // data length (little endian)
}

func (r *OperationI2cRead) ReportID() byte {
	return ReportID_I2CRead
}

func (r *OperationI2cRead) ReportLen() int {
	return 4
}

func (r *OperationI2cRead) Marshall(b []byte) error {
	if r.SlaveAddr&0x80 != 0 {
		return fmt.Errorf("Invalid I2C slave address: %02x", r.SlaveAddr)
	}
	b[0] = r.SlaveAddr
	b[1] = r.Condition
	b[2], b[3] = byte(r.Len), byte(r.Len>>8)
	return nil
}

// i2cSplitTransaction splits data into chunks fitting into one report each. Only the first chunk
// starts the transaction. The last chunk ends it, if stop is set.
func i2cSplitTransaction(stop bool, data []byte) (payloads [][]byte, conditions []byte) {
	for start := 0; start < len(data); start += I2CMaxPayload {
		end := start + I2CMaxPayload
		if end > len(data) {
			end = len(data)
		}
		cond := byte(I2C_MasterNone)
		if start == 0 {
			cond |= I2C_MasterStart
		}
		if end == len(data) && stop {
			cond |= I2C_MasterStop
		}
		payloads = append(payloads, data[start:end])
		conditions = append(conditions, cond)
	}
	return
}

func (f *Ft260) i2cWrite(addr byte, stop bool, data []byte) error {
	payloads, conditions := i2cSplitTransaction(stop, data)
	for i, payload := range payloads {
		err := f.Write(&OperationI2cWrite{
			SlaveAddr: addr,
			Condition: conditions[i],
			Payload:   payload,
		})
		if err != nil {
			return fmt.Errorf("I2C write to %02x failed (chunk %v of %v): %v", addr, i+1, len(payloads), err)
		}
	}
	return nil
}

func (f *Ft260) i2cRead(addr byte, condition byte, data []byte) error {
	err := f.Write(&OperationI2cRead{
		SlaveAddr: addr,
		Condition: condition,
		Len:       uint16(len(data)),
	})
	if err != nil {
		return err
	}
	for received := 0; received < len(data); {
		n, err := f.readI2cInput(data[received:])
		if err != nil {
			return fmt.Errorf("I2C read from %02x failed after %v of %v byte: %v", addr, received, len(data), err)
		}
		received += n
	}
	return nil
}

func (f *Ft260) I2cWrite(addr byte, data ...byte) error {
	return f.i2cWrite(addr, true, data)
}

func (f *Ft260) I2cRead(addr byte, data []byte) error {
	return f.i2cRead(addr, I2C_MasterStartStop, data)
}

func (f *Ft260) I2cWriteRead(addr byte, out, in []byte) error {
	if err := f.i2cWrite(addr, false, out); err != nil {
		return err
	}
	return f.i2cRead(addr, I2C_MasterRepStartStop, in)
}

func (f *Ft260) I2cGet(addr byte, registerAddr byte, size int) ([]byte, error) {
	data := make([]byte, size)
	err := f.I2cWriteRead(addr, []byte{registerAddr}, data)
	return data, err
}

// I2cScan returns the addresses of all slaves that acknowledge a single-byte read.
func I2cScan(bus I2cBus) ([]byte, error) {
	var slaves []byte
	buf := make([]byte, 1)
	for addr := byte(MinSlaveAddr); addr <= MaxSlaveAddr; addr++ {
		if err := bus.I2cRead(addr, buf); err == nil {
			slaves = append(slaves, addr)
		}
	}
	return slaves, nil
}
