package servo

import (
	"errors"
	"fmt"

	"github.com/gwillem/bionichand/pkg/scs"
	"github.com/hipsterbrown/feetech-servo/feetech"
)

// ErrInvalidArgument is returned for out-of-range IDs, degrees and speeds.
// Nothing is sent on the bus when it is returned.
var ErrInvalidArgument = errors.New("invalid argument")

// CommunicationError reports a failed exchange: the servo did not answer, or
// the answer could not be trusted.
type CommunicationError struct {
	ID     int
	Op     string
	Result scs.Result
	Err    error
}

func (e *CommunicationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("servo %d %s: %s: %v", e.ID, e.Op, e.Result, e.Err)
	}
	return fmt.Sprintf("servo %d %s: %s", e.ID, e.Op, e.Result)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// ServoError reports fault flags set in a servo's status packet.
type ServoError struct {
	ID     int
	Op     string
	Status feetech.StatusError
}

func (e *ServoError) Error() string {
	return fmt.Sprintf("servo %d %s failed: %s", e.ID, e.Op, e.Status.Error())
}

// Has reports whether flag is set in the status byte.
func (e *ServoError) Has(flag feetech.StatusError) bool {
	return e.Status&flag != 0
}

// IsTimeout reports whether err is a CommunicationError caused by a missing
// status packet.
func IsTimeout(err error) bool {
	var commErr *CommunicationError
	return errors.As(err, &commErr) && commErr.Result == scs.Timeout
}

// GetServoError extracts a ServoError from an error chain, if present.
func GetServoError(err error) (*ServoError, bool) {
	var servoErr *ServoError
	if errors.As(err, &servoErr) {
		return servoErr, true
	}
	return nil, false
}
