package transport

import (
	"context"
	"fmt"

	"go.bug.st/serial"
)

// SerialConfig configures a Serial transport.
type SerialConfig struct {
	Port     string
	BaudRate int // default 8192, the ALDL bus rate on VX/VY PCMs
}

func (c SerialConfig) withDefaults() SerialConfig {
	if c.BaudRate == 0 {
		c.BaudRate = 8192
	}
	return c
}

// Serial is a Transport backed by a real serial port (USB-to-ALDL cable).
type Serial struct {
	cfg  SerialConfig
	port serial.Port
}

// NewSerial returns a Serial transport for cfg.Port. Open must be called
// before use.
func NewSerial(cfg SerialConfig) *Serial {
	return &Serial{cfg: cfg.withDefaults()}
}

func (s *Serial) Open(ctx context.Context) error {
	if s.port != nil {
		return nil
	}
	mode := &serial.Mode{
		BaudRate: s.cfg.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(s.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", s.cfg.Port, err)
	}
	// A short per-call read timeout keeps readExact's cancellation
	// responsive; readExact itself supplies the real deadline via ctx.
	if err := p.SetReadTimeout(pollInterval); err != nil {
		p.Close()
		return fmt.Errorf("transport: set read timeout: %w", err)
	}
	s.port = p
	return nil
}

func (s *Serial) ReadExact(ctx context.Context, n int) ([]byte, error) {
	if s.port == nil {
		return nil, fmt.Errorf("transport: serial port not open")
	}
	return readExact(ctx, s.port, n)
}

func (s *Serial) ReadAvailable() ([]byte, error) {
	if s.port == nil {
		return nil, fmt.Errorf("transport: serial port not open")
	}
	buf := make([]byte, 256)
	n, err := s.port.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (s *Serial) Write(ctx context.Context, data []byte) error {
	if s.port == nil {
		return fmt.Errorf("transport: serial port not open")
	}
	_, err := s.port.Write(data)
	return err
}

func (s *Serial) Drain() error {
	if s.port == nil {
		return nil
	}
	return s.port.ResetInputBuffer()
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// ListPorts returns the system's available serial port names.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
