package scs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/hipsterbrown/feetech-servo/transports"
	"go.uber.org/zap"
)

// DefaultBaudRate is the factory baud rate of SCS servos.
const DefaultBaudRate = 1_000_000

// Config holds configuration for a Transport.
type Config struct {
	// Port is the serial port path (e.g., "/dev/ttyUSB0" or "COM4").
	Port string

	// BaudRate is the communication speed. Default is 1000000.
	BaudRate int

	// Timeout bounds the wait for one status packet. Default is 100ms.
	Timeout time.Duration

	// MinCommandGap is the minimum time between commands. Default is 1ms.
	MinCommandGap time.Duration

	// Logger receives packet traces at debug level. Default is a no-op logger.
	Logger *zap.Logger
}

func (c *Config) setDefaults() {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.Timeout == 0 {
		c.Timeout = 100 * time.Millisecond
	}
	if c.MinCommandGap == 0 {
		c.MinCommandGap = time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Transport owns one serial port and performs one write-then-read exchange at
// a time.
type Transport struct {
	port     feetech.Transport
	portName string
	baudRate int
	timeout  time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	lastCmdTime time.Time
	minCmdGap   time.Duration
	closed      bool
}

// Open opens the serial port described by cfg.
func Open(cfg Config) (*Transport, error) {
	cfg.setDefaults()

	port, err := transports.OpenSerial(transports.SerialConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, &ConnectionError{Port: cfg.Port, BaudRate: cfg.BaudRate, Err: err}
	}

	cfg.Logger.Info("serial port opened",
		zap.String("port", cfg.Port),
		zap.Int("baud", cfg.BaudRate))

	return New(port, cfg), nil
}

// New wraps an already open port.
func New(port feetech.Transport, cfg Config) *Transport {
	cfg.setDefaults()
	return &Transport{
		port:        port,
		portName:    cfg.Port,
		baudRate:    cfg.BaudRate,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger.With(zap.String("port", cfg.Port)),
		minCmdGap:   cfg.MinCommandGap,
		lastCmdTime: time.Now(),
	}
}

// PortName returns the serial port path.
func (t *Transport) PortName() string {
	return t.portName
}

// BaudRate returns the configured baud rate.
func (t *Transport) BaudRate() int {
	return t.baudRate
}

// Close releases the serial port. It is safe to call more than once and on a
// nil Transport.
func (t *Transport) Close() error {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	t.logger.Debug("closing serial port")
	return t.port.Close()
}

// Exchange sends one instruction packet to id and waits for its status packet.
// Failures are reported through Response.Result, never as a panic or error.
// Packets to BroadcastID are not answered; they succeed once written.
func (t *Transport) Exchange(ctx context.Context, id, inst byte, params []byte) Response {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return Response{ID: id, Result: PortError, Err: ErrClosed}
	}

	if err := t.sendPacketLocked(Encode(id, inst, params)); err != nil {
		return Response{ID: id, Result: PortError, Err: err}
	}

	if id == BroadcastID {
		return Response{ID: id, Result: Success}
	}

	resp := t.readStatusLocked(ctx)
	if resp.Result == Success && resp.ID != id {
		resp.Err = fmt.Errorf("expected servo %d, got %d", id, resp.ID)
		resp.Result = WrongID
	}
	if resp.Result != Success {
		t.logger.Debug("exchange failed",
			zap.Uint8("id", id),
			zap.Stringer("result", resp.Result),
			zap.Error(resp.Err))
	}
	return resp
}

func (t *Transport) enforceCommandGap() {
	elapsed := time.Since(t.lastCmdTime)
	if elapsed < t.minCmdGap {
		time.Sleep(t.minCmdGap - elapsed)
	}
}

func (t *Transport) sendPacketLocked(packet []byte) error {
	t.enforceCommandGap()

	// Drop anything left over from an earlier, timed out exchange.
	t.port.Flush()

	t.logger.Debug("tx", zap.String("packet", hex.EncodeToString(packet)))

	n, err := t.port.Write(packet)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n != len(packet) {
		return fmt.Errorf("incomplete write: %d of %d bytes", n, len(packet))
	}

	t.lastCmdTime = time.Now()

	// Half-duplex turnaround
	time.Sleep(100 * time.Microsecond)

	return nil
}

func (t *Transport) readStatusLocked(ctx context.Context) Response {
	buf := make([]byte, 0, 64)
	chunk := make([]byte, 64)
	deadline := time.Now().Add(t.timeout)

	for {
		select {
		case <-ctx.Done():
			return Response{Result: Timeout, Err: ctx.Err()}
		default:
		}

		if len(buf) >= minStatusLen {
			if resp, complete := parseStatus(buf); complete {
				t.logger.Debug("rx", zap.String("packet", hex.EncodeToString(buf)))
				return resp
			}
		}

		if time.Now().After(deadline) {
			if len(buf) == 0 {
				return Response{Result: Timeout, Err: feetech.ErrNoResponse}
			}
			return Response{
				Result: Timeout,
				Err:    fmt.Errorf("%w: partial packet % X", feetech.ErrTimeout, buf),
			}
		}

		remaining := max(time.Until(deadline), 10*time.Millisecond)
		t.port.SetReadTimeout(remaining)

		n, err := t.port.Read(chunk)
		if n == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				return Response{Result: PortError, Err: fmt.Errorf("read failed: %w", err)}
			}
			// Nothing yet; a read timeout is expected while waiting.
			time.Sleep(time.Millisecond)
			continue
		}
		buf = append(buf, chunk[:n]...)
		if err != nil {
			t.logger.Debug("read returned data with error", zap.Error(err))
		}
	}
}
