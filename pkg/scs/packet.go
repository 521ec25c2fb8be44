// Package scs implements the half-duplex serial bus transport for Feetech SCS
// series servos: instruction framing, status packet parsing and checksums.
package scs

import (
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// Instruction codes used by the command layer.
const (
	InstPing  = feetech.InstPing
	InstRead  = feetech.InstRead
	InstWrite = feetech.InstWrite
)

// Special IDs.
const (
	BroadcastID byte = feetech.BroadcastID
	MaxServoID  byte = feetech.MaxServoID
)

const (
	header = 0xFF

	// header(2) + id(1) + length(1) + error(1) + checksum(1)
	minStatusLen = 6
)

// Checksum returns the one's complement of the byte sum of data.
// data is everything after the two header bytes. Status packets are
// verified with it.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum
}

var codec = feetech.NewProtocol(feetech.ProtocolSCS)

// Encode builds an instruction packet:
// FF FF id length instruction params... checksum
func Encode(id, inst byte, params []byte) []byte {
	return codec.Encode(feetech.Packet{ID: id, Instruction: inst, Parameters: params})
}

// parseStatus looks for one status packet in buf.
// It returns complete=false while more bytes are needed. Bytes before the
// header are skipped.
func parseStatus(buf []byte) (resp Response, complete bool) {
	i := 0
	for ; i+1 < len(buf); i++ {
		if buf[i] == header && buf[i+1] == header {
			break
		}
	}
	// The ID can never be 0xFF, so a run of header bytes is one header.
	for i+2 < len(buf) && buf[i+2] == header {
		i++
	}
	buf = buf[i:]
	if len(buf) < 4 {
		return Response{}, false
	}

	length := int(buf[3])
	if length < 2 {
		return Response{
			ID:     buf[2],
			Result: Corrupt,
			Err:    fmt.Errorf("invalid length byte %d", length),
		}, true
	}

	total := 4 + length
	if len(buf) < total {
		return Response{}, false
	}

	want := Checksum(buf[2 : total-1])
	if got := buf[total-1]; got != want {
		return Response{
			ID:     buf[2],
			Result: ChecksumMismatch,
			Err:    fmt.Errorf("checksum mismatch: expected 0x%02X, got 0x%02X", want, got),
		}, true
	}

	resp = Response{
		ID:     buf[2],
		Status: feetech.StatusError(buf[4]),
		Result: Success,
	}
	if n := length - 2; n > 0 {
		resp.Params = make([]byte, n)
		copy(resp.Params, buf[5:5+n])
	}
	return resp, true
}
