// Package hand drives the bionic hand: four fingers, each pulled by a mirrored
// pair of SCS0009 servos.
package hand

// FingerName identifies a finger of the hand.
type FingerName string

// Finger names, in servo ID order.
const (
	Index  FingerName = "index"
	Middle FingerName = "middle"
	Ring   FingerName = "ring"
	Thumb  FingerName = "thumb"
)

// AllFingers returns all finger names in order (matching servo IDs 1-8, right
// servo first).
func AllFingers() []FingerName {
	return []FingerName{
		Index,
		Middle,
		Ring,
		Thumb,
	}
}

// Valid reports whether f names a finger of the hand.
func (f FingerName) Valid() bool {
	for _, name := range AllFingers() {
		if f == name {
			return true
		}
	}
	return false
}
