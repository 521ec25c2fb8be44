// Package follow closes the hand as far as the ring wearer closes theirs.
package follow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/bionichand/pkg/hand"
	"go.uber.org/zap"
)

// Source provides the wearer's fist closure. *ring.Client implements it.
type Source interface {
	StartStreaming(ctx context.Context) error
	StopStreaming(ctx context.Context) error
	ClosedPercent() float64
}

// Gripper moves the hand. *hand.Hand implements it.
type Gripper interface {
	Grip(ctx context.Context, percent float64) error
	Perform(ctx context.Context, g hand.Gesture) error
}

// State represents the current state of following.
type State struct {
	Percent   float64
	Timestamp time.Time
	Error     error
}

// Config holds configuration for the controller.
type Config struct {
	// Hz is the polling rate. Default is 2, the ring reports about once per second.
	Hz     int
	Logger *zap.Logger
}

// stopTimeout bounds the disable command sent on shutdown.
const stopTimeout = 2 * time.Second

// Controller manages the follow control loop.
type Controller struct {
	source  Source
	gripper Gripper
	hz      int
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	stateCh chan State
	logCh   chan string
}

// NewController creates a new follow controller.
func NewController(source Source, gripper Gripper, cfg Config) *Controller {
	if cfg.Hz <= 0 {
		cfg.Hz = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Controller{
		source:  source,
		gripper: gripper,
		hz:      cfg.Hz,
		logger:  cfg.Logger,
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the polling frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Running reports whether the control loop is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) log(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c.logger.Info(text)

	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), text)
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start opens the hand, starts ring streaming and grips on every tick until
// ctx is done. Stopping sends the ring its disable command; a grip already
// on the bus is not interrupted.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	if g, ok := hand.Lookup("open"); ok {
		if err := c.gripper.Perform(ctx, g); err != nil {
			c.log("Warning: failed to open hand: %v", err)
		}
	}

	if err := c.source.StartStreaming(ctx); err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		c.log("Error: start streaming: %v", err)
		return fmt.Errorf("start streaming: %w", err)
	}

	c.log("Following ring at %d Hz", c.hz)

	// Control loop
	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

func (c *Controller) step(ctx context.Context) {
	percent := c.source.ClosedPercent()

	if err := c.gripper.Grip(ctx, percent); err != nil {
		c.log("Grip error: %v", err)
		c.sendState(State{Percent: percent, Error: err, Timestamp: time.Now()})
		return
	}

	c.sendState(State{
		Percent:   percent,
		Timestamp: time.Now(),
	})
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := c.source.StopStreaming(ctx); err != nil {
		c.log("Warning: failed to stop ring streaming: %v", err)
	} else {
		c.log("Ring streaming disabled")
	}
	c.log("Following stopped")
}
