package scs

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// ConnectionError reports that the serial port could not be opened or
// configured. It is fatal for the transport; nothing is retried.
type ConnectionError struct {
	Port     string
	BaudRate int
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.BaudRate != 0 && isBaudError(e.Err) {
		return fmt.Sprintf("connection %s: failed to set baud rate %d: %v", e.Port, e.BaudRate, e.Err)
	}
	return fmt.Sprintf("connection %s: failed to open port: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func isBaudError(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		return portErr.Code() == serial.InvalidSpeed
	}
	return false
}
