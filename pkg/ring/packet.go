// Package ring talks to a Colmi R12 smart ring over Bluetooth LE and turns
// its accelerometer stream into a hand closure percentage.
package ring

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PacketSize is the fixed length of every command and notification.
const PacketSize = 16

// Packet is one command or notification frame. The last byte is the sum of
// the others, modulo 256.
type Packet [PacketSize]byte

// Packet types and sub types.
const (
	typeBattery          = 0x03
	typeSetUnits         = 0x0a
	typeRawSensor        = 0xa1
	subtypeEnable        = 0x04
	subtypeDisable       = 0x05
	subtypeAccelerometer = 0x03
)

// Commands understood by the ring. Raw sensor data arrives about once per
// second once enabled.
var (
	CmdBattery          = NewCommand(typeBattery)
	CmdSetUnitsMetric   = NewCommand(typeSetUnits, 0x02, 0x00)
	CmdEnableRawSensor  = NewCommand(typeRawSensor, subtypeEnable)
	CmdDisableRawSensor = NewCommand(typeRawSensor, subtypeDisable)
)

// Checksum returns the sum of the first 15 bytes of data, modulo 256.
func Checksum(data []byte) byte {
	var sum byte
	for i := 0; i < len(data) && i < PacketSize-1; i++ {
		sum += data[i]
	}
	return sum
}

// NewCommand zero-pads payload to 15 bytes and appends the checksum.
func NewCommand(payload ...byte) Packet {
	if len(payload) > PacketSize-1 {
		panic(fmt.Sprintf("ring command payload too long: %d bytes", len(payload)))
	}
	var p Packet
	copy(p[:], payload)
	p[PacketSize-1] = Checksum(p[:])
	return p
}

// Bytes returns the packet as a slice for writing.
func (p Packet) Bytes() []byte {
	return p[:]
}

// verify checks the length and trailing checksum of a received frame.
func verify(data []byte) error {
	if len(data) != PacketSize {
		return fmt.Errorf("packet length %d, want %d", len(data), PacketSize)
	}
	if got, want := data[PacketSize-1], Checksum(data); got != want {
		return fmt.Errorf("checksum %#02x, want %#02x", got, want)
	}
	return nil
}

// Acceleration is one raw accelerometer reading.
type Acceleration struct {
	X, Y, Z int16
}

// accelFullScale is the |X| reading treated as a fully closed fist.
const accelFullScale = 8192.0

// DecodeAcceleration reads three big-endian int16 values at bytes 2..8 of an
// accelerometer notification.
func DecodeAcceleration(data []byte) (Acceleration, error) {
	if len(data) < 8 {
		return Acceleration{}, fmt.Errorf("accelerometer packet too short: %d bytes", len(data))
	}
	return Acceleration{
		X: int16(binary.BigEndian.Uint16(data[2:4])),
		Y: int16(binary.BigEndian.Uint16(data[4:6])),
		Z: int16(binary.BigEndian.Uint16(data[6:8])),
	}, nil
}

// ClosedPercent maps |X| onto 0..100, saturating at accelFullScale.
func (a Acceleration) ClosedPercent() float64 {
	x := math.Abs(float64(a.X))
	if x > accelFullScale {
		x = accelFullScale
	}
	return x / (accelFullScale / 100)
}
