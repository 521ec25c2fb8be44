package scs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		id     byte
		inst   byte
		params []byte
		want   []byte
	}{
		{
			name: "ping",
			id:   1,
			inst: InstPing,
			want: []byte{0xFF, 0xFF, 0x01, 0x02, 0x01, 0xFB},
		},
		{
			name:   "read moving",
			id:     1,
			inst:   InstRead,
			params: []byte{66, 1},
			// 1+4+2+66+1 = 74 = 0x4A
			want: []byte{0xFF, 0xFF, 0x01, 0x04, 0x02, 0x42, 0x01, 0xB5},
		},
		{
			name:   "write goal position 546",
			id:     1,
			inst:   InstWrite,
			params: []byte{42, 0x02, 0x22},
			// 1+5+3+42+2+34 = 87 = 0x57
			want: []byte{0xFF, 0xFF, 0x01, 0x05, 0x03, 0x2A, 0x02, 0x22, 0xA8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.id, tt.inst, tt.params)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_MatchesSCSProtocol(t *testing.T) {
	proto := feetech.NewProtocol(feetech.ProtocolSCS)

	assert.Equal(t, proto.PingPacket(7), Encode(7, InstPing, nil))
	assert.Equal(t, proto.ReadPacket(3, 56, 2), Encode(3, InstRead, []byte{56, 2}))
	assert.Equal(t, proto.WritePacket(BroadcastID, 40, []byte{0}), Encode(BroadcastID, InstWrite, []byte{40, 0}))

	// Status packets are verified with the same checksum.
	pkt := Encode(1, InstPing, nil)
	assert.Equal(t, pkt[len(pkt)-1], Checksum(pkt[2:len(pkt)-1]))
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0xFC), Checksum([]byte{0x01, 0x02, 0x00}))
	// Sum wraps modulo 256 before inversion.
	assert.Equal(t, byte(0xFE), Checksum([]byte{0xFE, 0x03}))
}

func TestParseStatus(t *testing.T) {
	t.Run("ack", func(t *testing.T) {
		resp, complete := parseStatus([]byte{0xFF, 0xFF, 0x01, 0x02, 0x00, 0xFC})
		require.True(t, complete)
		assert.Equal(t, Success, resp.Result)
		assert.Equal(t, byte(1), resp.ID)
		assert.Empty(t, resp.Params)
		assert.False(t, resp.Status.HasError())
	})

	t.Run("params and status flags", func(t *testing.T) {
		// id 3, error 0x20, one param 0x01: 3+3+0x20+1 = 39 = 0x27
		resp, complete := parseStatus([]byte{0xFF, 0xFF, 0x03, 0x03, 0x20, 0x01, 0xD8})
		require.True(t, complete)
		assert.Equal(t, Success, resp.Result)
		assert.Equal(t, []byte{0x01}, resp.Params)
		assert.Equal(t, feetech.ErrOverload, resp.Status)
		assert.False(t, resp.OK())
	})

	t.Run("garbage before header", func(t *testing.T) {
		resp, complete := parseStatus([]byte{0x00, 0x13, 0xFF, 0xFF, 0x01, 0x02, 0x00, 0xFC})
		require.True(t, complete)
		assert.Equal(t, Success, resp.Result)
		assert.Equal(t, byte(1), resp.ID)
	})

	t.Run("extra header byte", func(t *testing.T) {
		resp, complete := parseStatus([]byte{0xFF, 0xFF, 0xFF, 0x01, 0x02, 0x00, 0xFC})
		require.True(t, complete)
		assert.Equal(t, Success, resp.Result)
	})

	t.Run("corrupted checksum", func(t *testing.T) {
		resp, complete := parseStatus([]byte{0xFF, 0xFF, 0x01, 0x02, 0x00, 0xFD})
		require.True(t, complete)
		assert.Equal(t, ChecksumMismatch, resp.Result)
		assert.Error(t, resp.Err)
	})

	t.Run("invalid length", func(t *testing.T) {
		resp, complete := parseStatus([]byte{0xFF, 0xFF, 0x01, 0x01, 0x00, 0xFD})
		require.True(t, complete)
		assert.Equal(t, Corrupt, resp.Result)
	})

	t.Run("incomplete", func(t *testing.T) {
		_, complete := parseStatus([]byte{0xFF, 0xFF, 0x01, 0x04, 0x00, 0x00})
		assert.False(t, complete)

		_, complete = parseStatus([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0xFF})
		assert.False(t, complete)
	})
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "no status packet received", Timeout.String())
	assert.Equal(t, "unknown error", Result(99).String())
}
