package ring

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

// ErrNotFound is returned when no ring matched before the scan timed out.
var ErrNotFound = errors.New("ring not found")

// Config holds configuration for connecting to a ring.
type Config struct {
	// Address is the Bluetooth address (e.g., "32:31:47:36:08:07"). When empty,
	// the first ring advertising Name is used.
	Address string

	// Name is the advertised name to match. Default is any "COLMI" device.
	Name string

	// ScanTimeout bounds the search for the ring. Default is 30s.
	ScanTimeout time.Duration

	// Settle is the wait after subscribing before commands are accepted.
	// Default is 2s.
	Settle time.Duration

	// Adapter is the Bluetooth adapter to use. Default is bluetooth.DefaultAdapter.
	Adapter *bluetooth.Adapter

	Logger *zap.Logger
}

func (c *Config) setDefaults() {
	if c.ScanTimeout == 0 {
		c.ScanTimeout = 30 * time.Second
	}
	if c.Settle == 0 {
		c.Settle = 2 * time.Second
	}
	if c.Adapter == nil {
		c.Adapter = bluetooth.DefaultAdapter
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Sample is the most recent accelerometer reading.
type Sample struct {
	Accel Acceleration
	At    time.Time
}

// Client is a connection to one ring. Notifications are handled on the
// Bluetooth stack's goroutine; they only replace the latest sample.
type Client struct {
	address string
	logger  *zap.Logger

	write      func(p []byte) error
	disconnect func() error

	latest    atomic.Pointer[Sample]
	streaming atomic.Bool
	battery   chan int

	// writeMu serializes command writes.
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newClient(address string, logger *zap.Logger) *Client {
	return &Client{
		address: address,
		logger:  logger.With(zap.String("ring", address)),
		battery: make(chan int, 1),
	}
}

// Connect finds the ring described by cfg, subscribes to its notifications
// and returns a client ready for commands.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	cfg.setDefaults()

	if err := cfg.Adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth: %w", err)
	}

	found, err := find(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := newClient(found.Address.String(), cfg.Logger)
	c.logger.Info("connecting", zap.String("name", found.LocalName()))

	device, err := cfg.Adapter.Connect(found.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.address, err)
	}
	c.disconnect = device.Disconnect

	if err := c.subscribe(device); err != nil {
		device.Disconnect()
		return nil, err
	}

	// The ring ignores commands sent right after subscribing.
	select {
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	case <-time.After(cfg.Settle):
	}

	c.logger.Info("connected")
	return c, nil
}

func (c *Client) subscribe(device bluetooth.Device) error {
	services, err := device.DiscoverServices([]bluetooth.UUID{mainService, rxtxService})
	if err != nil {
		return fmt.Errorf("discover services: %w", err)
	}

	var writeChar *bluetooth.DeviceCharacteristic
	notify := 0
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			return fmt.Errorf("discover characteristics of %s: %w", svc.UUID(), err)
		}
		for i := range chars {
			char := chars[i]
			switch char.UUID() {
			case mainNotifyChar, rxtxNotifyChar:
				if err := char.EnableNotifications(c.handleNotification); err != nil {
					return fmt.Errorf("enable notifications on %s: %w", char.UUID(), err)
				}
				notify++
			case rxtxWriteChar:
				writeChar = &char
			}
		}
	}

	if writeChar == nil {
		return fmt.Errorf("ring has no %s characteristic", RXTXWriteCharUUID)
	}
	if notify == 0 {
		return errors.New("ring has no notify characteristic")
	}

	c.write = func(p []byte) error {
		_, err := writeChar.WriteWithoutResponse(p)
		return err
	}
	return nil
}

// find scans until a ring matching cfg advertises, or the scan times out.
func find(ctx context.Context, cfg Config) (bluetooth.ScanResult, error) {
	var found bluetooth.ScanResult
	ok := false

	err := scan(ctx, cfg.Adapter, cfg.ScanTimeout, func(r bluetooth.ScanResult) bool {
		if !matches(r, cfg.Address, cfg.Name) {
			return false
		}
		found, ok = r, true
		return true
	})
	if err != nil {
		return found, err
	}
	if !ok {
		return found, fmt.Errorf("%w: address %q name %q", ErrNotFound, cfg.Address, cfg.Name)
	}
	return found, nil
}

func matches(r bluetooth.ScanResult, address, name string) bool {
	if address != "" {
		return r.Address.String() == address
	}
	return hasNamePrefix(r.LocalName(), name)
}

// Address returns the ring's Bluetooth address.
func (c *Client) Address() string {
	return c.address
}

func (c *Client) send(ctx context.Context, cmd Packet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.logger.Debug("tx", zap.String("packet", hex.EncodeToString(cmd.Bytes())))
	if err := c.write(cmd.Bytes()); err != nil {
		return fmt.Errorf("write %02x command: %w", cmd[0], err)
	}
	return nil
}

// StartStreaming switches the ring to metric units and enables raw sensor
// notifications.
func (c *Client) StartStreaming(ctx context.Context) error {
	c.logger.Info("start streaming")
	if err := c.send(ctx, CmdSetUnitsMetric); err != nil {
		return err
	}
	if err := c.send(ctx, CmdEnableRawSensor); err != nil {
		return err
	}
	c.streaming.Store(true)
	return nil
}

// StopStreaming disables raw sensor notifications. The latest sample is kept.
func (c *Client) StopStreaming(ctx context.Context) error {
	c.logger.Info("stop streaming")
	c.streaming.Store(false)
	return c.send(ctx, CmdDisableRawSensor)
}

// Streaming reports whether raw sensor data was requested.
func (c *Client) Streaming() bool {
	return c.streaming.Load()
}

// BatteryLevel requests the battery level and waits for the answer.
func (c *Client) BatteryLevel(ctx context.Context) (int, error) {
	// Drop an answer to an earlier, abandoned request.
	select {
	case <-c.battery:
	default:
	}

	if err := c.send(ctx, CmdBattery); err != nil {
		return 0, err
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case level := <-c.battery:
		c.logger.Info("battery", zap.Int("level", level))
		return level, nil
	}
}

// Latest returns the most recent accelerometer sample, if any arrived.
func (c *Client) Latest() (Sample, bool) {
	s := c.latest.Load()
	if s == nil {
		return Sample{}, false
	}
	return *s, true
}

// ClosedPercent returns the closure derived from the latest sample, or 0
// before the first one.
func (c *Client) ClosedPercent() float64 {
	s, ok := c.Latest()
	if !ok {
		return 0
	}
	return s.Accel.ClosedPercent()
}

// Close disconnects from the ring. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.logger.Info("disconnecting")
		if c.disconnect != nil {
			c.closeErr = c.disconnect()
		}
	})
	return c.closeErr
}

func (c *Client) handleNotification(buf []byte) {
	if err := verify(buf); err != nil {
		c.logger.Debug("dropping notification", zap.Error(err), zap.String("packet", hex.EncodeToString(buf)))
		return
	}
	c.logger.Debug("rx", zap.String("packet", hex.EncodeToString(buf)))

	switch {
	case buf[0] == typeBattery:
		select {
		case c.battery <- int(buf[1]):
		default:
			c.logger.Debug("battery answer dropped, nobody waiting")
		}

	case buf[0] == typeRawSensor && buf[1] == subtypeAccelerometer:
		accel, err := DecodeAcceleration(buf)
		if err != nil {
			return
		}
		c.latest.Store(&Sample{Accel: accel, At: time.Now()})
		c.logger.Debug("accelerometer",
			zap.Int16("x", accel.X),
			zap.Int16("y", accel.Y),
			zap.Int16("z", accel.Z))
	}
}
