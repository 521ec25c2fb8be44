package hand

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gwillem/bionichand/pkg/ring"
	"github.com/gwillem/bionichand/pkg/servo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actuatorCall struct {
	Op     string
	ID     int
	Value  float64
	Center int
}

// fakeActuator records commands; failOn makes the matching op return err.
type fakeActuator struct {
	calls  []actuatorCall
	failOn string
	err    error
	closed int
}

func (a *fakeActuator) SetSpeed(_ context.Context, id int, percent float64) error {
	a.calls = append(a.calls, actuatorCall{Op: "speed", ID: id, Value: percent})
	if a.failOn == "speed" {
		return a.err
	}
	return nil
}

func (a *fakeActuator) MoveAngleWithCenter(_ context.Context, id int, degree float64, center int) error {
	a.calls = append(a.calls, actuatorCall{Op: "move", ID: id, Value: degree, Center: center})
	if a.failOn == "move" {
		return a.err
	}
	return nil
}

func (a *fakeActuator) Close() error {
	a.closed++
	return nil
}

// moves returns the move commands keyed by servo ID, last write wins.
func (a *fakeActuator) moves() map[int]actuatorCall {
	out := make(map[int]actuatorCall)
	for _, c := range a.calls {
		if c.Op == "move" {
			out[c.ID] = c
		}
	}
	return out
}

func newTestHand(t *testing.T, act Actuator, opts ...Option) *Hand {
	t.Helper()
	h, err := NewHand(act, DefaultCalibration(), opts...)
	require.NoError(t, err)
	return h
}

func TestHand_MoveFinger(t *testing.T) {
	act := &fakeActuator{}
	h := newTestHand(t, act)

	require.NoError(t, h.MoveFinger(context.Background(), Index, -40, 40, 30))

	want := []actuatorCall{
		{Op: "speed", ID: 1, Value: 30},
		{Op: "speed", ID: 2, Value: 30},
		{Op: "move", ID: 1, Value: -40, Center: 545},
		{Op: "move", ID: 2, Value: 40, Center: 475},
	}
	assert.Equal(t, want, act.calls)
}

func TestHand_MoveFingerUnknown(t *testing.T) {
	act := &fakeActuator{}
	h := newTestHand(t, act)

	err := h.MoveFinger(context.Background(), "pinky", 0, 0, 30)
	assert.ErrorIs(t, err, servo.ErrInvalidArgument)
	assert.Empty(t, act.calls)
}

func TestHand_MoveFingerError(t *testing.T) {
	act := &fakeActuator{failOn: "move", err: errors.New("bus down")}
	h := newTestHand(t, act)

	err := h.MoveFinger(context.Background(), Ring, 0, 0, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ring right move")
	assert.Contains(t, err.Error(), "bus down")
}

func TestHand_Grip(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		finger  float64
	}{
		{"open", 0, -40},
		{"half", 50, 22.5},
		{"closed", 100, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := &fakeActuator{}
			h := newTestHand(t, act)

			require.NoError(t, h.Grip(context.Background(), tt.percent))

			moves := act.moves()
			for _, id := range []int{1, 3, 5} {
				assert.InDelta(t, tt.finger, moves[id].Value, 0.001, "servo %d", id)
				assert.InDelta(t, -tt.finger, moves[id+1].Value, 0.001, "servo %d", id+1)
			}
			assert.Equal(t, -20.0, moves[7].Value)
			assert.Equal(t, 20.0, moves[8].Value)

			for _, c := range act.calls {
				if c.Op == "speed" {
					assert.Equal(t, float64(GripSpeed), c.Value)
				}
			}
		})
	}
}

func TestHand_GripOutOfRange(t *testing.T) {
	act := &fakeActuator{}
	h := newTestHand(t, act)

	assert.ErrorIs(t, h.Grip(context.Background(), 101), servo.ErrInvalidArgument)
	assert.ErrorIs(t, h.Grip(context.Background(), -5), servo.ErrInvalidArgument)
	assert.Empty(t, act.calls)
}

func TestHand_GripFromRing(t *testing.T) {
	tests := []struct {
		x      int16
		finger float64
	}{
		{0, -40},
		{4096, 22.5},
		{8192, 85},
		{-8192, 85},
		{-32768, 85},
	}

	for _, tt := range tests {
		act := &fakeActuator{}
		h := newTestHand(t, act)

		percent := ring.Acceleration{X: tt.x}.ClosedPercent()
		require.NoError(t, h.Grip(context.Background(), percent), "x=%d", tt.x)
		assert.InDelta(t, tt.finger, act.moves()[1].Value, 0.001, "x=%d", tt.x)
	}
}

func TestHand_Close(t *testing.T) {
	act := &fakeActuator{}
	h := newTestHand(t, act)

	require.NoError(t, h.Close())
	assert.Equal(t, 1, act.closed)
}

func TestNewHand_InvalidCalibration(t *testing.T) {
	_, err := NewHand(&fakeActuator{}, Calibration{Index: {RightID: 1, LeftID: 2}})
	assert.Error(t, err)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
