package mcu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"penarm/host/serial"
	"penarm/protocol"
)

// Connection errors
var (
	ErrNotConnected = errors.New("mcu: not connected")
	ErrNotReady     = errors.New("mcu: no ready banner")
)

// MCU represents a line-protocol connection to the arm controller
type MCU struct {
	port    io.ReadWriteCloser
	replies chan string
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger

	mu        sync.Mutex
	err       error
	connected bool
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU(logger *slog.Logger) *MCU {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCU{
		logger: logger,
	}
}

// Connect connects to the controller on device
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		m.logger.Warn("flush failed", "device", cfg.Device, "err", err)
	}

	m.Attach(port)
	m.logger.Info("connected", "device", cfg.Device, "baud", cfg.Baud)
	return nil
}

// Attach starts reading replies from an already open port
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.port = port
	m.replies = make(chan string, 64)
	m.done = make(chan struct{})
	m.connected = true

	m.wg.Add(1)
	go m.readLoop()
}

// readLoop splits incoming bytes into reply lines until the port fails or
// the connection is closed
func (m *MCU) readLoop() {
	defer m.wg.Done()
	defer close(m.replies)

	asm := protocol.NewLineAssembler(protocol.LineSinkFunc(func(line []byte) bool {
		select {
		case m.replies <- string(line):
			return true
		case <-m.done:
			return false
		}
	}))

	buf := make([]byte, protocol.MessageMax)
	for {
		n, err := m.port.Read(buf)
		if n > 0 {
			asm.Write(buf[:n])
		}
		if err == nil {
			continue
		}

		select {
		case <-m.done:
			return
		default:
		}
		// tarm/serial reports a read timeout as io.EOF
		if errors.Is(err, io.EOF) {
			continue
		}
		m.mu.Lock()
		m.err = err
		m.mu.Unlock()
		m.logger.Error("read failed", "err", err)
		return
	}
}

// Replies returns the channel of reply lines. It is closed when the
// connection ends.
func (m *MCU) Replies() <-chan string {
	return m.replies
}

// SendLine writes one command line
func (m *MCU) SendLine(line string) error {
	if !m.connected {
		return ErrNotConnected
	}
	if _, err := io.WriteString(m.port, line+"\n"); err != nil {
		return fmt.Errorf("failed to send %q: %w", line, err)
	}
	m.logger.Debug("sent", "line", line)
	return nil
}

// WaitReady waits for the controller's ready banner, discarding any other
// replies
func (m *MCU) WaitReady(ctx context.Context, timeout time.Duration) error {
	if !m.connected {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
		case line, ok := <-m.replies:
			if !ok {
				return fmt.Errorf("%w: connection closed", ErrNotReady)
			}
			if line == protocol.SignalReady {
				return nil
			}
			m.logger.Debug("discarded before ready", "line", line)
		}
	}
}

// Err returns the error that ended the read loop, if any
func (m *MCU) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close closes the connection and waits for the reader to stop
func (m *MCU) Close() error {
	if !m.connected {
		return nil
	}
	m.connected = false
	close(m.done)
	err := m.port.Close()
	m.wg.Wait()
	return err
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}
