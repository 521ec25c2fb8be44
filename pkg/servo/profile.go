package servo

import (
	"fmt"
	"math"
)

// Profile describes how degrees and percentages map onto SCS0009 register
// values. Both the wide and narrow hands use the same servo; they differ in the
// degree range callers may ask for and in centre override support.
type Profile struct {
	Name string

	// MinDegree and MaxDegree bound the accepted input.
	MinDegree float64
	MaxDegree float64

	// TravelMin and TravelMax are the degrees at MinPosition and MaxPosition.
	TravelMin float64
	TravelMax float64

	MinPosition int
	MaxPosition int

	// Center is the raw position of the mechanical zero.
	Center int

	MinSpeed int
	MaxSpeed int

	// CenterOverride allows per-call calibration centres.
	CenterOverride bool
}

// WideProfile accepts the full -150..150 degree travel.
var WideProfile = Profile{
	Name:        "wide",
	MinDegree:   -150,
	MaxDegree:   150,
	TravelMin:   -150,
	TravelMax:   150,
	MinPosition: 0,
	MaxPosition: 1024,
	Center:      512,
	MinSpeed:    1,
	MaxSpeed:    2048,
}

// NarrowProfile limits fingers to -85..85 degrees and supports calibration
// centres.
var NarrowProfile = Profile{
	Name:           "narrow",
	MinDegree:      -85,
	MaxDegree:      85,
	TravelMin:      -150,
	TravelMax:      150,
	MinPosition:    0,
	MaxPosition:    1024,
	Center:         512,
	MinSpeed:       1,
	MaxSpeed:       2048,
	CenterOverride: true,
}

// ProfileByName returns the built-in profile called name.
func ProfileByName(name string) (Profile, bool) {
	switch name {
	case WideProfile.Name:
		return WideProfile, true
	case NarrowProfile.Name:
		return NarrowProfile, true
	default:
		return Profile{}, false
	}
}

// ProfileNames lists the built-in profiles.
func ProfileNames() []string {
	return []string{WideProfile.Name, NarrowProfile.Name}
}

// Validate checks that the profile describes a usable mapping.
func (p Profile) Validate() error {
	switch {
	case p.MinDegree >= p.MaxDegree:
		return fmt.Errorf("%w: profile %q degree range %v..%v", ErrInvalidArgument, p.Name, p.MinDegree, p.MaxDegree)
	case p.TravelMin >= p.TravelMax:
		return fmt.Errorf("%w: profile %q travel %v..%v", ErrInvalidArgument, p.Name, p.TravelMin, p.TravelMax)
	case p.MinDegree < p.TravelMin || p.MaxDegree > p.TravelMax:
		return fmt.Errorf("%w: profile %q degree range exceeds travel", ErrInvalidArgument, p.Name)
	case p.MinPosition >= p.MaxPosition:
		return fmt.Errorf("%w: profile %q position range %d..%d", ErrInvalidArgument, p.Name, p.MinPosition, p.MaxPosition)
	case p.MinSpeed > p.MaxSpeed:
		return fmt.Errorf("%w: profile %q speed range %d..%d", ErrInvalidArgument, p.Name, p.MinSpeed, p.MaxSpeed)
	case p.MaxPosition > math.MaxUint16 || p.MaxSpeed > math.MaxUint16 || p.MinPosition < 0 || p.MinSpeed < 0:
		return fmt.Errorf("%w: profile %q values do not fit a register word", ErrInvalidArgument, p.Name)
	}
	return nil
}

// MapSpeed converts a percentage in [0, 100] to a raw speed. The result is
// truncated, so 0 maps to MinSpeed and 100 to MaxSpeed.
func (p Profile) MapSpeed(percent float64) (int, error) {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return 0, fmt.Errorf("%w: speed %v%% outside 0..100", ErrInvalidArgument, percent)
	}
	return int(float64(p.MinSpeed) + percent/100*float64(p.MaxSpeed-p.MinSpeed)), nil
}

// MapPosition converts degree to a raw position around the profile's centre.
func (p Profile) MapPosition(degree float64) (int, error) {
	return p.mapPosition(degree, p.Center)
}

// MapPositionWithCenter converts degree to a raw position with the whole
// range shifted by center - p.Center. Values are never clamped: a shift that
// leaves MinPosition..MaxPosition is an error.
func (p Profile) MapPositionWithCenter(degree float64, center int) (int, error) {
	if !p.CenterOverride && center != p.Center {
		return 0, fmt.Errorf("%w: profile %q does not support centre override", ErrInvalidArgument, p.Name)
	}
	return p.mapPosition(degree, center)
}

func (p Profile) mapPosition(degree float64, center int) (int, error) {
	if math.IsNaN(degree) || degree < p.MinDegree || degree > p.MaxDegree {
		return 0, fmt.Errorf("%w: angle %v outside %v..%v degrees", ErrInvalidArgument, degree, p.MinDegree, p.MaxDegree)
	}

	span := float64(p.MaxPosition - p.MinPosition)
	frac := (degree - p.TravelMin) / (p.TravelMax - p.TravelMin)
	raw := center - p.Center + int(math.Round(frac*span)) + p.MinPosition

	if raw < p.MinPosition || raw > p.MaxPosition {
		return 0, fmt.Errorf("%w: angle %v with centre %d gives position %d outside %d..%d",
			ErrInvalidArgument, degree, center, raw, p.MinPosition, p.MaxPosition)
	}
	return raw, nil
}
