package main

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gwillem/bionichand/pkg/follow"
	"github.com/gwillem/bionichand/pkg/hand"
	"github.com/gwillem/bionichand/pkg/servo"
)

func foundServos(ids ...int) []feetech.FoundServo {
	servos := make([]feetech.FoundServo, 0, len(ids))
	for _, id := range ids {
		servos = append(servos, feetech.FoundServo{ID: id, ModelNumber: 9})
	}
	return servos
}

func TestIsHand(t *testing.T) {
	ids := hand.DefaultCalibration().ServoIDs()

	assert.True(t, isHand(foundServos(1, 2, 3, 4, 5, 6, 7, 8), ids))
	assert.True(t, isHand(foundServos(1, 2, 3, 4, 5, 6, 7, 8, 9), ids))
	assert.False(t, isHand(foundServos(1, 2, 3, 4, 5, 6, 7), ids))
	assert.False(t, isHand(nil, ids))
	assert.False(t, isHand(foundServos(1), nil))
}

func TestIDRange(t *testing.T) {
	ids := []int{7, 8, 1, 2}
	assert.Equal(t, 1, minID(ids))
	assert.Equal(t, 8, maxID(ids))
}

func TestCalibrationModel_EnterNeedsAllPositions(t *testing.T) {
	cal := hand.DefaultCalibration()
	m := newCalibrationModel(nil, cal)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, next.(calibrationModel).done)

	for _, id := range cal.ServoIDs() {
		m.positions[id] = 500
	}
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, next.(calibrationModel).done)
	assert.Empty(t, next.View())
}

func TestCalibrationModel_Cancel(t *testing.T) {
	m := newCalibrationModel(nil, hand.DefaultCalibration())
	m.positions[1] = 500

	assert.Contains(t, m.View(), "500")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.False(t, next.(calibrationModel).done)
}

func TestFollowModel(t *testing.T) {
	ctrl := follow.NewController(nil, nil, follow.Config{Hz: 4})
	m := initialFollowModel(ctrl, "COLMI R12_0807", 80)

	next, _ := m.Update(stateMsg(follow.State{Percent: 42}))
	fm := next.(followModel)
	assert.Equal(t, 42.0, fm.percent)
	assert.Contains(t, fm.View(), "4 Hz")
	assert.Contains(t, fm.View(), "battery 80%")

	next, cmd := fm.Update(tea.KeyMsg{Type: tea.KeySpace})
	require.NotNil(t, cmd)
	assert.Equal(t, "Following stopped.\n", next.View())
}

func TestFollowModel_KeepsLogTail(t *testing.T) {
	m := initialFollowModel(follow.NewController(nil, nil, follow.Config{}), "ring", -1)
	for i := 0; i < maxLogs+3; i++ {
		m.addLog("line")
	}
	assert.Len(t, m.logs, maxLogs)
	assert.NotContains(t, m.View(), "battery")
}

type holdCall struct {
	op     string
	id     int
	center int
	on     bool
}

type fakeHolder struct {
	calls   []holdCall
	moveErr error
}

func (f *fakeHolder) MoveAngleWithCenter(_ context.Context, id int, degree float64, center int) error {
	f.calls = append(f.calls, holdCall{op: "move", id: id, center: center})
	return f.moveErr
}

func (f *fakeHolder) SetTorque(_ context.Context, id int, enabled bool) error {
	f.calls = append(f.calls, holdCall{op: "torque", id: id, on: enabled})
	return nil
}

func TestHoldServos(t *testing.T) {
	f := &fakeHolder{}
	holdServos(context.Background(), f, []int{1, 2}, map[int]int{1: 530})

	want := []holdCall{
		{op: "move", id: 1, center: 530},
		{op: "torque", id: 1, on: true},
		{op: "torque", id: 2, on: true},
	}
	assert.Equal(t, want, f.calls)
}

func TestHoldServos_CancelledCalibration(t *testing.T) {
	m := newCalibrationModel(nil, hand.DefaultCalibration())
	m.positions[1] = 500
	m.positions[2] = 480
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	cm := next.(calibrationModel)
	require.False(t, cm.done)

	// Torque comes back on every servo even when moves fail.
	f := &fakeHolder{moveErr: errors.New("no status packet received")}
	ids := hand.DefaultCalibration().ServoIDs()
	holdServos(context.Background(), f, ids, cm.positions)

	var torqued []int
	for _, c := range f.calls {
		if c.op == "torque" && c.on {
			torqued = append(torqued, c.id)
		}
	}
	assert.Equal(t, ids, torqued)
}

func TestNewLogger(t *testing.T) {
	defer func() { opts.Verbose = false }()

	opts.Verbose = false
	quiet := newLogger()
	assert.False(t, quiet.Core().Enabled(zap.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zap.WarnLevel))

	opts.Verbose = true
	verbose := newLogger()
	assert.True(t, verbose.Core().Enabled(zap.DebugLevel))
}

type zeroCall struct {
	op     string
	id     int
	value  float64
	center int
}

type fakeZeroer struct {
	calls []zeroCall
	err   error
}

func (f *fakeZeroer) SetSpeed(_ context.Context, id int, percent float64) error {
	f.calls = append(f.calls, zeroCall{op: "speed", id: id, value: percent})
	return f.err
}

func (f *fakeZeroer) MoveAngleWithCenter(_ context.Context, id int, degree float64, center int) error {
	f.calls = append(f.calls, zeroCall{op: "move", id: id, value: degree, center: center})
	return nil
}

func TestZeroTargets(t *testing.T) {
	cal := hand.DefaultCalibration()

	all, err := zeroTargets(cal, servo.NarrowProfile, 0, false)
	require.NoError(t, err)
	require.Len(t, all, 8)
	for _, target := range all {
		assert.Equal(t, 512, target.center)
	}

	calibrated, err := zeroTargets(cal, servo.NarrowProfile, 0, true)
	require.NoError(t, err)
	assert.Equal(t, zeroTarget{id: 1, center: 545}, calibrated[0])
	assert.Equal(t, zeroTarget{id: 2, center: 475}, calibrated[1])

	one, err := zeroTargets(cal, servo.NarrowProfile, 4, true)
	require.NoError(t, err)
	assert.Equal(t, []zeroTarget{{id: 4, center: 511}}, one)

	one, err = zeroTargets(cal, servo.NarrowProfile, 12, false)
	require.NoError(t, err)
	assert.Equal(t, []zeroTarget{{id: 12, center: 512}}, one)

	_, err = zeroTargets(cal, servo.NarrowProfile, 12, true)
	assert.Error(t, err)
}

func TestZeroServos(t *testing.T) {
	f := &fakeZeroer{}
	targets := []zeroTarget{{id: 1, center: 545}, {id: 2, center: 475}}
	require.NoError(t, zeroServos(context.Background(), f, targets, 50))

	want := []zeroCall{
		{op: "speed", id: 1, value: 50},
		{op: "move", id: 1, value: 0, center: 545},
		{op: "speed", id: 2, value: 50},
		{op: "move", id: 2, value: 0, center: 475},
	}
	assert.Equal(t, want, f.calls)
}

func TestZeroServos_StopsOnError(t *testing.T) {
	f := &fakeZeroer{err: errors.New("no status packet received")}
	err := zeroServos(context.Background(), f, []zeroTarget{{id: 1, center: 512}, {id: 2, center: 512}}, 50)
	assert.ErrorContains(t, err, "servo 1 speed")
	assert.Len(t, f.calls, 1)
}
