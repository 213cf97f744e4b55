package light

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"lightful/debug"
)

var (
	ErrNotReady         = errors.New("strip has not acknowledged the last frame")
	ErrHandshakeTimeout = errors.New("timed out waiting for the pixel controller")
)

// SerialStrip drives a microcontroller over a serial line. Protocol:
//
//	controller -> "<anything>\n"   booted (opening the port resets it)
//	host       -> 1 byte           pixel count
//	controller -> "\n"             ready
//	host       -> 4 bytes/pixel    little-endian 0x00RRGGBB per pixel
//	controller -> "\n"             frame shown, ready for the next one
type SerialStrip struct {
	*Buffer

	port    io.ReadWriteCloser
	name    string
	acks    chan struct{}
	waiting bool
	frame   []byte

	mu      sync.Mutex
	readErr error
}

// SerialPorts lists serial devices that could be a pixel controller
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

// OpenSerialStrip opens the device and runs the setup handshake
func OpenSerialStrip(name string, baud, pixels int, timeout time.Duration) (*SerialStrip, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	debug.Info("serial", "port opened: %s at %d baud", name, baud)

	s, err := NewSerialStrip(p, pixels, timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.name = name
	return s, nil
}

// NewSerialStrip runs the handshake over an already open connection
func NewSerialStrip(port io.ReadWriteCloser, pixels int, timeout time.Duration) (*SerialStrip, error) {
	if pixels <= 0 || pixels > 255 {
		port.Close()
		return nil, fmt.Errorf("pixel count %d does not fit the 1-byte setup message", pixels)
	}

	s := &SerialStrip{
		Buffer: NewBuffer(pixels),
		port:   port,
		acks:   make(chan struct{}, 1),
		frame:  make([]byte, 4*pixels),
	}

	r := bufio.NewReader(port)
	done := make(chan error, 1)
	go func() {
		done <- s.handshake(r, pixels)
	}()

	select {
	case err := <-done:
		if err != nil {
			port.Close()
			return nil, err
		}
	case <-time.After(timeout):
		port.Close()
		return nil, ErrHandshakeTimeout
	}

	debug.Info("serial", "handshake complete, %d pixels", pixels)
	go s.readAcks(r)
	return s, nil
}

func (s *SerialStrip) handshake(r *bufio.Reader, pixels int) error {
	line, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("waiting for setup message: %w", err)
	}
	debug.Log("serial", "setup message: %q", line)

	if _, err := s.port.Write([]byte{byte(pixels)}); err != nil {
		return fmt.Errorf("sending pixel count: %w", err)
	}

	if _, err := r.ReadString('\n'); err != nil {
		return fmt.Errorf("waiting for setup ack: %w", err)
	}
	return nil
}

// readAcks turns every newline from the controller into a ready signal
func (s *SerialStrip) readAcks(r *bufio.Reader) {
	for {
		if _, err := r.ReadString('\n'); err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			if !errors.Is(err, io.EOF) {
				debug.Error("serial", "read: %v", err)
			}
			return
		}
		select {
		case s.acks <- struct{}{}:
		default:
		}
	}
}

func (s *SerialStrip) Name() string {
	return s.name
}

// Ready reports whether the last frame was acknowledged. Never blocks. A
// dead connection reports ready so the next Push surfaces the error.
func (s *SerialStrip) Ready() bool {
	if !s.waiting {
		return true
	}
	select {
	case <-s.acks:
		s.waiting = false
		return true
	default:
		return s.Err() != nil
	}
}

// Push sends the current pixels. Call only when Ready.
func (s *SerialStrip) Push() error {
	if !s.Ready() {
		return ErrNotReady
	}
	if err := s.Err(); err != nil {
		return err
	}

	for i, c := range s.Pixels() {
		binary.LittleEndian.PutUint32(s.frame[4*i:], uint32(c&0x00FFFFFF))
	}
	if _, err := s.port.Write(s.frame); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	s.waiting = true
	return s.Buffer.Push()
}

// Err returns the error that stopped the ack reader, if any
func (s *SerialStrip) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

func (s *SerialStrip) Close() error {
	debug.Info("serial", "closing port")
	return s.port.Close()
}
