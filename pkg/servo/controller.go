// Package servo provides semantic commands for SCS0009 bus servos: ping,
// moving state, speed and angle in human units.
package servo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/bionichand/pkg/scs"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.uber.org/zap"
)

// Bus performs one instruction/status exchange at a time.
// *scs.Transport implements it.
type Bus interface {
	Exchange(ctx context.Context, id, inst byte, params []byte) scs.Response
	Close() error
}

// Config holds configuration for a Controller opened on a serial port.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration

	// Profile selects the degree mapping. Default is NarrowProfile.
	Profile Profile

	Logger *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for command traces.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller issues commands to the servos on one bus. It owns the bus and
// closes it exactly once.
type Controller struct {
	bus     Bus
	profile Profile
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// New opens the serial port and returns a controller for it.
func New(cfg Config) (*Controller, error) {
	if cfg.Profile == (Profile{}) {
		cfg.Profile = NarrowProfile
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, err
	}

	bus, err := scs.Open(scs.Config{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Timeout:  cfg.Timeout,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return NewController(bus, cfg.Profile, WithLogger(cfg.Logger))
}

// NewController binds bus to the command API. The bus is closed if the
// profile is invalid.
func NewController(bus Bus, profile Profile, opts ...Option) (*Controller, error) {
	c := &Controller{
		bus:     bus,
		profile: profile,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := profile.Validate(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Profile returns the controller's degree mapping.
func (c *Controller) Profile() Profile {
	return c.profile
}

// Close releases the bus. Later calls return the first result.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.bus.Close()
	})
	return c.closeErr
}

// Ping checks that servo id answers and returns its model number.
func (c *Controller) Ping(ctx context.Context, id int) (int, error) {
	if err := validateID(id, false); err != nil {
		return 0, err
	}

	resp := c.bus.Exchange(ctx, byte(id), scs.InstPing, nil)
	if err := checkResponse(id, "ping", resp); err != nil {
		return 0, err
	}

	data, err := c.read(ctx, id, "ping", regModelNumber)
	if err != nil {
		return 0, err
	}
	return int(codec.DecodeWord(data)), nil
}

// IsMoving reports whether servo id is still travelling to its goal.
func (c *Controller) IsMoving(ctx context.Context, id int) (bool, error) {
	if err := validateID(id, false); err != nil {
		return false, err
	}

	data, err := c.read(ctx, id, "read moving", regMoving)
	if err != nil {
		return false, err
	}
	return data[0] != 0, nil
}

// Position returns the present raw position of servo id.
func (c *Controller) Position(ctx context.Context, id int) (int, error) {
	if err := validateID(id, false); err != nil {
		return 0, err
	}

	data, err := c.read(ctx, id, "read position", regPresentPosition)
	if err != nil {
		return 0, err
	}
	return int(codec.DecodeWord(data)), nil
}

// SetSpeed sets the running speed of servo id as a percentage in [0, 100].
func (c *Controller) SetSpeed(ctx context.Context, id int, percent float64) error {
	if err := validateID(id, true); err != nil {
		return err
	}
	raw, err := c.profile.MapSpeed(percent)
	if err != nil {
		return err
	}

	c.logger.Debug("set speed",
		zap.Int("id", id),
		zap.Float64("percent", percent),
		zap.Int("raw", raw))

	return c.write(ctx, id, "set speed", regRunningSpeed, raw)
}

// MoveAngle moves servo id to degree around the profile's default centre.
func (c *Controller) MoveAngle(ctx context.Context, id int, degree float64) error {
	return c.MoveAngleWithCenter(ctx, id, degree, c.profile.Center)
}

// MoveAngleWithCenter moves servo id to degree with its calibration centre
// at center. Mirrored servos get a negated degree from the caller.
func (c *Controller) MoveAngleWithCenter(ctx context.Context, id int, degree float64, center int) error {
	if err := validateID(id, true); err != nil {
		return err
	}
	raw, err := c.profile.MapPositionWithCenter(degree, center)
	if err != nil {
		return err
	}

	c.logger.Debug("move",
		zap.Int("id", id),
		zap.Float64("degree", degree),
		zap.Int("center", center),
		zap.Int("raw", raw))

	return c.write(ctx, id, "move", regGoalPosition, raw)
}

// SetTorque enables or releases the holding torque of servo id. A released
// servo can be turned by hand.
func (c *Controller) SetTorque(ctx context.Context, id int, enabled bool) error {
	if err := validateID(id, true); err != nil {
		return err
	}
	value := 0
	if enabled {
		value = 1
	}
	return c.write(ctx, id, "set torque", regTorqueEnable, value)
}

// Scan pings every ID in [startID, endID] and returns the servos that answer.
func (c *Controller) Scan(ctx context.Context, startID, endID int) ([]feetech.FoundServo, error) {
	if startID < 0 || endID > int(scs.MaxServoID) || startID > endID {
		return nil, fmt.Errorf("%w: ID range %d to %d", ErrInvalidArgument, startID, endID)
	}

	var found []feetech.FoundServo
	for id := startID; id <= endID; id++ {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		default:
		}

		modelNum, err := c.Ping(ctx, id)
		if err != nil {
			c.logger.Debug("scan: no servo", zap.Int("id", id), zap.Error(err))
			continue
		}

		f := feetech.FoundServo{ID: id, ModelNumber: modelNum}
		if model, ok := feetech.GetModelByNumber(modelNum); ok {
			f.Model = model
		}
		found = append(found, f)
	}
	return found, nil
}

func (c *Controller) read(ctx context.Context, id int, op string, reg feetech.Register) ([]byte, error) {
	resp := c.bus.Exchange(ctx, byte(id), scs.InstRead, []byte{reg.Address, byte(reg.Size)})
	if err := checkResponse(id, op, resp); err != nil {
		return nil, err
	}
	if len(resp.Params) < reg.Size {
		return nil, &CommunicationError{
			ID:     id,
			Op:     op,
			Result: scs.Corrupt,
			Err:    fmt.Errorf("short read: %d of %d bytes", len(resp.Params), reg.Size),
		}
	}
	return resp.Params[:reg.Size], nil
}

func (c *Controller) write(ctx context.Context, id int, op string, reg feetech.Register, value int) error {
	params := []byte{reg.Address}
	if reg.Size == 2 {
		params = append(params, codec.EncodeWord(uint16(value))...)
	} else {
		params = append(params, byte(value))
	}

	resp := c.bus.Exchange(ctx, byte(id), scs.InstWrite, params)
	return checkResponse(id, op, resp)
}

// checkResponse turns a non-success exchange into a CommunicationError and
// raised status flags into a ServoError.
func checkResponse(id int, op string, resp scs.Response) error {
	if resp.Result != scs.Success {
		return &CommunicationError{ID: id, Op: op, Result: resp.Result, Err: resp.Err}
	}
	if resp.Status.HasError() {
		return &ServoError{ID: id, Op: op, Status: resp.Status}
	}
	return nil
}

func validateID(id int, allowBroadcast bool) error {
	if allowBroadcast && id == int(scs.BroadcastID) {
		return nil
	}
	if id < 0 || id > int(scs.MaxServoID) {
		return fmt.Errorf("%w: servo ID %d (valid range: 0-%d)", ErrInvalidArgument, id, scs.MaxServoID)
	}
	return nil
}
