package hand

import "github.com/pkg/errors"

// FingerCalibration holds the servo pair and travel of one finger.
// Angles are for the right servo; the left servo gets the negation.
type FingerCalibration struct {
	RightID     int     `json:"right_id"`
	LeftID      int     `json:"left_id"`
	RightCenter int     `json:"right_center"`
	LeftCenter  int     `json:"left_center"`
	Open        float64 `json:"open"`
	Closed      float64 `json:"closed"`
}

// Calibration holds calibration data for all fingers, keyed by finger name.
type Calibration map[FingerName]FingerCalibration

// Finger travel of the right servo, in degrees.
const (
	DefaultOpenAngle   = -40.0
	DefaultClosedAngle = 85.0
)

// DefaultCalibration returns the centres measured on the reference hand.
func DefaultCalibration() Calibration {
	return Calibration{
		Index:  {RightID: 1, LeftID: 2, RightCenter: 545, LeftCenter: 475, Open: DefaultOpenAngle, Closed: DefaultClosedAngle},
		Middle: {RightID: 3, LeftID: 4, RightCenter: 549, LeftCenter: 511, Open: DefaultOpenAngle, Closed: DefaultClosedAngle},
		Ring:   {RightID: 5, LeftID: 6, RightCenter: 480, LeftCenter: 518, Open: DefaultOpenAngle, Closed: DefaultClosedAngle},
		Thumb:  {RightID: 7, LeftID: 8, RightCenter: 518, LeftCenter: 498, Open: DefaultOpenAngle, Closed: DefaultClosedAngle},
	}
}

// Normalize converts a right servo angle to a closure percentage, 0 fully
// open and 100 fully closed.
func (c FingerCalibration) Normalize(right float64) float64 {
	span := c.Closed - c.Open
	if span == 0 {
		return 0
	}
	return (right - c.Open) / span * 100
}

// Denormalize converts a closure percentage to mirrored servo angles.
func (c FingerCalibration) Denormalize(percent float64) (right, left float64) {
	right = c.Open + (c.Closed-c.Open)*percent/100
	return right, -right
}

// ServoIDs returns the servo IDs of all fingers, right servo first.
func (c Calibration) ServoIDs() []int {
	ids := make([]int, 0, 2*len(c))
	// Use AllFingers() to ensure consistent ordering
	for _, name := range AllFingers() {
		if fc, ok := c[name]; ok {
			ids = append(ids, fc.RightID, fc.LeftID)
		}
	}
	return ids
}

// ByID returns the finger driven by servo id and whether it is the right
// servo of the pair.
func (c Calibration) ByID(id int) (name FingerName, right bool, ok bool) {
	for fn, fc := range c {
		switch id {
		case fc.RightID:
			return fn, true, true
		case fc.LeftID:
			return fn, false, true
		}
	}
	return "", false, false
}

// Validate checks that every finger is calibrated and no servo is shared.
func (c Calibration) Validate() error {
	seen := make(map[int]FingerName)
	for _, name := range AllFingers() {
		fc, ok := c[name]
		if !ok {
			return errors.Errorf("finger %s is not calibrated", name)
		}
		for _, id := range []int{fc.RightID, fc.LeftID} {
			if other, dup := seen[id]; dup {
				return errors.Errorf("servo %d used by both %s and %s", id, other, name)
			}
			seen[id] = name
		}
	}
	for name := range c {
		if !name.Valid() {
			return errors.Errorf("unknown finger %q", name)
		}
	}
	return nil
}
