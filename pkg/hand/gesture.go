package hand

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Move sets one finger's servo pair to absolute angles.
type Move struct {
	Finger FingerName
	Right  float64
	Left   float64
}

// Step runs its moves at one speed, then waits Pause.
type Step struct {
	Speed float64
	Moves []Move
	Pause time.Duration
}

// Gesture is a named hand shape reached through a sequence of steps.
type Gesture struct {
	Name        string
	Description string
	Steps       []Step
}

const gestureSpeed = 30

const (
	settlePause = 500 * time.Millisecond
	wagPause    = 300 * time.Millisecond
	wagSpeed    = 50
)

func opened(f FingerName) Move {
	return Move{Finger: f, Right: DefaultOpenAngle, Left: -DefaultOpenAngle}
}

func closed(f FingerName) Move {
	return Move{Finger: f, Right: DefaultClosedAngle, Left: -DefaultClosedAngle}
}

func at(f FingerName, right, left float64) Move {
	return Move{Finger: f, Right: right, Left: left}
}

// thumbAcross tucks the thumb over the closed fingers.
var thumbAcross = Step{Speed: gestureSpeed, Moves: []Move{at(Thumb, 60, -60)}}

var pointStep = Step{
	Speed: gestureSpeed,
	Moves: []Move{opened(Index), closed(Middle), closed(Ring)},
	Pause: settlePause,
}

func wag() []Step {
	steps := make([]Step, 0, 6)
	for i := range 6 {
		m := at(Index, 0, 85)
		if i%2 == 1 {
			m = at(Index, -85, 0)
		}
		s := Step{Speed: wagSpeed, Moves: []Move{m}}
		if i < 5 {
			s.Pause = wagPause
		}
		steps = append(steps, s)
	}
	return steps
}

var gestures = map[string]Gesture{
	"open": {
		Description: "Open all fingers",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{opened(Index), opened(Middle), opened(Ring), opened(Thumb)}},
		},
	},
	"close": {
		Description: "Make a fist",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{closed(Index), closed(Middle), closed(Ring)}, Pause: settlePause},
			{Speed: gestureSpeed, Moves: []Move{at(Thumb, 20, -20)}},
		},
	},
	"point": {
		Description: "Point with the index finger",
		Steps:       []Step{pointStep, thumbAcross},
	},
	"no-no": {
		Description: "Wag the index finger",
		Steps: append([]Step{
			pointStep,
			{Speed: gestureSpeed, Moves: thumbAcross.Moves, Pause: time.Second},
		}, wag()...),
	},
	"horns": {
		Description: "Index and little finger up",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{at(Index, -20, 60), closed(Middle), at(Ring, -60, 20)}, Pause: settlePause},
			thumbAcross,
		},
	},
	"victory": {
		Description: "Victory sign with index and middle finger",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{at(Index, 0, 85), at(Middle, -85, 0), closed(Ring)}, Pause: settlePause},
			thumbAcross,
		},
	},
	"scissor": {
		Description: "Scissors in rock paper scissors",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{at(Index, -30, 50), at(Middle, -50, 30), closed(Ring)}, Pause: settlePause},
			thumbAcross,
		},
	},
	"thumbs-up": {
		Description: "Thumbs up",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{opened(Thumb)}, Pause: settlePause},
			{Speed: gestureSpeed, Moves: []Move{closed(Index), closed(Middle), closed(Ring)}},
		},
	},
	"perfect": {
		Description: "Thumb and index form a circle",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{at(Index, 35, -35), opened(Middle), opened(Ring), at(Thumb, 15, -15)}},
		},
	},
	"three": {
		Description: "Count three",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{at(Index, -30, 50), at(Middle, -50, 30), closed(Ring), at(Thumb, -40, -60)}},
		},
	},
	"four": {
		Description: "Count four",
		Steps: []Step{
			{Speed: gestureSpeed, Moves: []Move{opened(Index), opened(Middle), opened(Ring)}, Pause: settlePause},
			{Speed: gestureSpeed, Moves: []Move{at(Thumb, -40, -60)}},
		},
	},
}

// Lookup returns the gesture called name.
func Lookup(name string) (Gesture, bool) {
	g, ok := gestures[name]
	if !ok {
		return Gesture{}, false
	}
	g.Name = name
	return g, true
}

// GestureNames returns the names of all gestures, sorted.
func GestureNames() []string {
	names := make([]string, 0, len(gestures))
	for name := range gestures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Perform runs the steps of g in order. Cancelling ctx stops it between
// moves or during a pause; a move already sent is not undone.
func (h *Hand) Perform(ctx context.Context, g Gesture) error {
	h.logger.Info("gesture", zap.String("name", g.Name))

	for i, step := range g.Steps {
		for _, m := range step.Moves {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, "gesture %s", g.Name)
			}
			if err := h.MoveFinger(ctx, m.Finger, m.Right, m.Left, step.Speed); err != nil {
				return errors.Wrapf(err, "gesture %s step %d", g.Name, i+1)
			}
		}
		if step.Pause > 0 {
			if err := h.sleep(ctx, step.Pause); err != nil {
				return errors.Wrapf(err, "gesture %s", g.Name)
			}
		}
	}
	return nil
}
