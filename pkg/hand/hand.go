package hand

import (
	"context"
	"time"

	"github.com/gwillem/bionichand/pkg/servo"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Actuator is the subset of servo.Controller the hand needs.
type Actuator interface {
	SetSpeed(ctx context.Context, id int, percent float64) error
	MoveAngleWithCenter(ctx context.Context, id int, degree float64, center int) error
	Close() error
}

// GripSpeed is the servo speed used while following a closure percentage.
const GripSpeed = 50

// thumbGripOffset keeps the thumb slightly in from open while gripping so it
// clears the other fingers.
const thumbGripOffset = 20

// Hand represents the bionic hand with its servo pairs.
type Hand struct {
	act         Actuator
	calibration Calibration
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Hand.
type Option func(*Hand)

// WithLogger sets the logger for finger moves.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Hand) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithSleep replaces the pause between gesture steps.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(h *Hand) {
		h.sleep = sleep
	}
}

// NewHand wraps an actuator driving the servos in cal.
func NewHand(act Actuator, cal Calibration, opts ...Option) (*Hand, error) {
	if err := cal.Validate(); err != nil {
		return nil, errors.Wrap(err, "calibration")
	}

	h := &Hand{
		act:         act,
		calibration: cal,
		logger:      zap.NewNop(),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Connect opens the serial bus described by cfg and returns the hand on it.
func Connect(cfg *Config, logger *zap.Logger) (*Hand, error) {
	profile, err := cfg.ServoProfile()
	if err != nil {
		return nil, err
	}

	ctrl, err := servo.New(servo.Config{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Profile:  profile,
		Logger:   logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open bus")
	}

	h, err := NewHand(ctrl, cfg.Calibration, WithLogger(logger))
	if err != nil {
		ctrl.Close()
		return nil, err
	}
	return h, nil
}

// Close closes the hand's bus connection.
func (h *Hand) Close() error {
	return h.act.Close()
}

// Calibration returns the hand's calibration.
func (h *Hand) Calibration() Calibration {
	return h.calibration
}

// MoveFinger sets the speed of both servos of finger, then moves them to
// their angles around their calibrated centres.
func (h *Hand) MoveFinger(ctx context.Context, finger FingerName, right, left, speed float64) error {
	fc, ok := h.calibration[finger]
	if !ok {
		return errors.Wrapf(servo.ErrInvalidArgument, "unknown finger %q", finger)
	}

	h.logger.Debug("move finger",
		zap.String("finger", string(finger)),
		zap.Float64("right", right),
		zap.Float64("left", left),
		zap.Float64("speed", speed))

	if err := h.act.SetSpeed(ctx, fc.RightID, speed); err != nil {
		return errors.Wrapf(err, "%s right speed", finger)
	}
	if err := h.act.SetSpeed(ctx, fc.LeftID, speed); err != nil {
		return errors.Wrapf(err, "%s left speed", finger)
	}
	if err := h.act.MoveAngleWithCenter(ctx, fc.RightID, right, fc.RightCenter); err != nil {
		return errors.Wrapf(err, "%s right move", finger)
	}
	if err := h.act.MoveAngleWithCenter(ctx, fc.LeftID, left, fc.LeftCenter); err != nil {
		return errors.Wrapf(err, "%s left move", finger)
	}
	return nil
}

// Grip closes index, middle and ring to percent (0 open, 100 closed) and
// holds the thumb just inside open.
func (h *Hand) Grip(ctx context.Context, percent float64) error {
	if percent < 0 || percent > 100 {
		return errors.Wrapf(servo.ErrInvalidArgument, "grip %v%% outside 0..100", percent)
	}

	for _, finger := range []FingerName{Index, Middle, Ring} {
		right, left := h.calibration[finger].Denormalize(percent)
		if err := h.MoveFinger(ctx, finger, right, left, GripSpeed); err != nil {
			return err
		}
	}

	thumb := h.calibration[Thumb]
	right := thumb.Open + thumbGripOffset
	return h.MoveFinger(ctx, Thumb, right, -right, GripSpeed)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
