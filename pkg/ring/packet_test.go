package ring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  Packet
		want []byte
	}{
		{
			name: "battery",
			cmd:  CmdBattery,
			want: []byte{0x03, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x03},
		},
		{
			name: "metric units",
			cmd:  CmdSetUnitsMetric,
			want: []byte{0x0a, 0x02, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x0c},
		},
		{
			name: "enable raw sensor",
			cmd:  CmdEnableRawSensor,
			want: []byte{0xa1, 0x04, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xa5},
		},
		{
			name: "disable raw sensor",
			cmd:  CmdDisableRawSensor,
			want: []byte{0xa1, 0x05, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xa6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.cmd.Bytes()); diff != "" {
				t.Errorf("command mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewCommand_TooLong(t *testing.T) {
	assert.Panics(t, func() { NewCommand(make([]byte, 16)...) })
}

func TestChecksum_Wraps(t *testing.T) {
	data := []byte{0xff, 0xff, 0x03}
	assert.Equal(t, byte(0x01), Checksum(data))

	// Bytes past the 15th are ignored.
	full := make([]byte, PacketSize)
	full[15] = 0x42
	assert.Equal(t, byte(0), Checksum(full))
}

// accelPacket builds an accelerometer notification with a valid checksum.
func accelPacket(x, y, z int16) []byte {
	p := NewCommand(typeRawSensor, subtypeAccelerometer,
		byte(uint16(x)>>8), byte(x),
		byte(uint16(y)>>8), byte(y),
		byte(uint16(z)>>8), byte(z))
	return p.Bytes()
}

func TestDecodeAcceleration(t *testing.T) {
	a, err := DecodeAcceleration(accelPacket(-4096, 1, 8192))
	require.NoError(t, err)
	assert.Equal(t, Acceleration{X: -4096, Y: 1, Z: 8192}, a)

	// 0xFF 0xFE is -2 in two's complement.
	a, err = DecodeAcceleration([]byte{0xa1, 0x03, 0xff, 0xfe, 0x00, 0x00, 0x80, 0x00})
	require.NoError(t, err)
	assert.Equal(t, int16(-2), a.X)
	assert.Equal(t, int16(-32768), a.Z)

	_, err = DecodeAcceleration([]byte{0xa1, 0x03, 0x00})
	assert.Error(t, err)
}

func TestAcceleration_ClosedPercent(t *testing.T) {
	tests := []struct {
		x    int16
		want float64
	}{
		{0, 0},
		{4096, 50},
		{-4096, 50},
		{8192, 100},
		{-8192, 100},
		{20000, 100},   // clamped
		{-32768, 100},  // clamped
		{819, 9.99755}, // not rounded
	}

	for _, tt := range tests {
		got := Acceleration{X: tt.x}.ClosedPercent()
		assert.InDelta(t, tt.want, got, 0.0001, "x=%d", tt.x)
	}
}

func TestVerify(t *testing.T) {
	assert.NoError(t, verify(accelPacket(1, 2, 3)))

	bad := accelPacket(1, 2, 3)
	bad[15]++
	assert.Error(t, verify(bad))

	assert.Error(t, verify([]byte{0x03, 0x50}))
}
