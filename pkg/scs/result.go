package scs

import (
	"errors"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// Result is the communication outcome of one exchange.
type Result int

const (
	Success Result = iota
	Timeout
	Corrupt
	ChecksumMismatch
	WrongID
	PortError
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Timeout:
		return "no status packet received"
	case Corrupt:
		return "incorrect status packet"
	case ChecksumMismatch:
		return "status packet checksum mismatch"
	case WrongID:
		return "status packet from wrong servo"
	case PortError:
		return "port error"
	default:
		return "unknown error"
	}
}

// ErrClosed is the detail of a PortError on a closed transport.
var ErrClosed = errors.New("transport is closed")

// Response is the parsed status packet of one exchange.
// Result is Success only when a complete, checksum-valid packet from the
// addressed servo was read. Status holds the device error flags.
type Response struct {
	ID     byte
	Params []byte
	Status feetech.StatusError
	Result Result
	Err    error
}

// OK reports whether the exchange succeeded and the servo reported no fault.
func (r Response) OK() bool {
	return r.Result == Success && !r.Status.HasError()
}
