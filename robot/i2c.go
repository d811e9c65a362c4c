package robot

import (
	"errors"

	"github.com/antongulenko/liftbot/ft260"
	log "github.com/sirupsen/logrus"
)

var ErrBusClosed = errors.New("I2C bus is closed")

const (
	I2cWrite = iota + 1
	I2cRead
	I2cWriteRead
	I2cGet
)

type I2cRequest struct {
	Type        int
	Addr        byte
	DataWrite   []byte
	DataRead    []byte
	GetRegister byte // Only for I2cGet
	GetSize     int  // Only for I2cGet
	Error       error

	done chan struct{}
}

// sequencedI2cBus hands all requests to one goroutine, so that the bus is never used concurrently.
type sequencedI2cBus struct {
	bus   ft260.I2cBus
	queue chan *I2cRequest
	stop  chan struct{}
}

func newSequencedI2cBus(bus ft260.I2cBus, queueSize int) *sequencedI2cBus {
	return &sequencedI2cBus{
		bus:   bus,
		queue: make(chan *I2cRequest, queueSize),
		stop:  make(chan struct{}),
	}
}

func (s *sequencedI2cBus) handleI2cRequests() {
	for {
		select {
		case req := <-s.queue:
			s.handle(req)
		case <-s.stop:
			return
		}
	}
}

func (s *sequencedI2cBus) handle(req *I2cRequest) {
	defer close(req.done)
	switch req.Type {
	case I2cWrite:
		req.Error = s.bus.I2cWrite(req.Addr, req.DataWrite...)
	case I2cRead:
		req.Error = s.bus.I2cRead(req.Addr, req.DataRead)
	case I2cWriteRead:
		req.Error = s.bus.I2cWriteRead(req.Addr, req.DataWrite, req.DataRead)
	case I2cGet:
		req.DataRead, req.Error = s.bus.I2cGet(req.Addr, req.GetRegister, req.GetSize)
	default:
		log.Errorln("Ignoring invalid I2C request with type", req.Type)
		req.Error = errors.New("invalid I2C request type")
	}
}

// Close stops the sequencer goroutine. Requests issued afterwards fail with ErrBusClosed.
func (s *sequencedI2cBus) Close() {
	close(s.stop)
}

// I2cRequest queues the request and waits for it to be handled. The result is stored in the request.
func (s *sequencedI2cBus) I2cRequest(req *I2cRequest) error {
	select {
	case <-s.stop:
		return ErrBusClosed
	default:
	}
	req.done = make(chan struct{})
	select {
	case s.queue <- req:
	case <-s.stop:
		return ErrBusClosed
	}
	select {
	case <-req.done:
		return nil
	case <-s.stop:
		// The sequencer might still finish the request, but nobody is waiting for it
		return ErrBusClosed
	}
}

func (s *sequencedI2cBus) I2cWrite(addr byte, data ...byte) error {
	req := &I2cRequest{
		Type:      I2cWrite,
		Addr:      addr,
		DataWrite: data,
	}
	if err := s.I2cRequest(req); err != nil {
		return err
	}
	return req.Error
}

func (s *sequencedI2cBus) I2cRead(addr byte, data []byte) error {
	req := &I2cRequest{
		Type:     I2cRead,
		Addr:     addr,
		DataRead: data,
	}
	if err := s.I2cRequest(req); err != nil {
		return err
	}
	return req.Error
}

func (s *sequencedI2cBus) I2cWriteRead(addr byte, out, in []byte) error {
	req := &I2cRequest{
		Type:      I2cWriteRead,
		Addr:      addr,
		DataRead:  in,
		DataWrite: out,
	}
	if err := s.I2cRequest(req); err != nil {
		return err
	}
	return req.Error
}

func (s *sequencedI2cBus) I2cGet(addr byte, registerAddr byte, size int) ([]byte, error) {
	req := &I2cRequest{
		Type:        I2cGet,
		Addr:        addr,
		GetRegister: registerAddr,
		GetSize:     size,
	}
	if err := s.I2cRequest(req); err != nil {
		return nil, err
	}
	return req.DataRead, req.Error
}
