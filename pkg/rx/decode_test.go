package rx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledrx/pkg/capture"
	"ledrx/pkg/edge"
	"ledrx/pkg/rx"
	"ledrx/pkg/timing"
)

// ws2812b is the nominal timing the decode tests transmit with:
// a 1 bit is high 800ns / low 450ns, a 0 bit is high 400ns / low 850ns.
var ws2812b = timing.ChipsetTiming{Name: "WS2812B", T1: 400, T2: 400, T3: 450, ResetUs: 50000}

func profile() timing.Profile {
	return timing.NewProfile(ws2812b, 150)
}

// pair returns one (high, low) pulse pair.
func pair(highNs, lowNs uint32) []edge.Edge {
	return []edge.Edge{{High: true, Ns: highNs}, {High: false, Ns: lowNs}}
}

func TestDecodeEmptyInput(t *testing.T) {
	p := profile()
	out := make([]byte, 16)

	_, err := rx.Decode(nil, &p, true, out)
	assert.ErrorIs(t, err, rx.ErrNoEdges)

	_, err = rx.Decode([]edge.Edge{}, &p, true, out)
	assert.ErrorIs(t, err, rx.ErrNoEdges)
}

func TestDecodeNoTransmissionEdge(t *testing.T) {
	p := profile()
	out := make([]byte, 16)

	// only idle polarity edges: aligned capture with zero bytes is a success
	edges := []edge.Edge{{High: false, Ns: 800}, {High: false, Ns: 450}}
	n, err := rx.Decode(edges, &p, true, out)

	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDecodeZeroBytesIsNotAnError(t *testing.T) {
	p := profile()
	out := make([]byte, 16)

	// aligned, but the pair matches no bit window
	n, err := rx.Decode(pair(5000, 5000), &p, true, out)

	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"all ones", []byte{0xFF}},
		{"alternating", []byte{0xAA}},
		{"three bytes in order", []byte{0xFF, 0x00, 0xAA}},
		{"zero byte", []byte{0x00}},
		{"ascii", []byte("ledrx")},
	}

	p := profile()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]byte, len(tt.data))
			n, err := rx.Decode(capture.Encode(ws2812b, tt.data), &p, true, out)

			require.NoError(t, err)
			require.Equal(t, len(tt.data), n)
			assert.Equal(t, tt.data, out[:n])
		})
	}
}

func TestDecodeNominalPairs(t *testing.T) {
	p := profile()

	// 0xFF as eight explicit bit 1 pairs
	var edges []edge.Edge
	for i := 0; i < 8; i++ {
		edges = append(edges, pair(800, 450)...)
	}

	out := make([]byte, 4)
	n, err := rx.Decode(edges, &p, true, out)

	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(0xFF), out[0])
}

func TestDecodeAlignmentInvariant(t *testing.T) {
	p := profile()
	payload := capture.Encode(ws2812b, []byte{0xA5, 0x3C})

	// leading idle polarity edges are pre transmission noise
	noisy := append([]edge.Edge{
		{High: false, Ns: 123456},
		{High: false, Ns: 700},
		{High: false, Ns: 90},
	}, payload...)

	wantOut := make([]byte, 8)
	wantN, err := rx.Decode(payload, &p, true, wantOut)
	require.NoError(t, err)

	gotOut := make([]byte, 8)
	gotN, err := rx.Decode(noisy, &p, true, gotOut)
	require.NoError(t, err)

	assert.Equal(t, wantN, gotN)
	assert.Equal(t, wantOut[:wantN], gotOut[:gotN])
}

func TestDecodeIdempotent(t *testing.T) {
	p := profile()
	edges := capture.Encode(ws2812b, []byte{0xDE, 0xAD, 0xBE, 0xEF})

	out1 := make([]byte, 8)
	n1, err1 := rx.Decode(edges, &p, true, out1)

	out2 := make([]byte, 8)
	n2, err2 := rx.Decode(edges, &p, true, out2)

	assert.Equal(t, n1, n2)
	assert.Equal(t, err1, err2)
	assert.Equal(t, out1, out2)
}

func TestDecodeCapacity(t *testing.T) {
	p := profile()
	data := []byte{0x01, 0x02, 0x03}
	edges := capture.Encode(ws2812b, data)

	// any output buffer below the true decoded length overflows cleanly
	for size := 0; size < len(data); size++ {
		n, err := rx.DecodeStrict(edges, &p, true, make([]byte, size), rx.DefaultMaxErrorRate)
		assert.ErrorIs(t, err, rx.ErrBufferOverflow, "size %d", size)
		assert.Equal(t, 0, n)
	}

	// any output buffer of at least the true length yields the same bytes
	for size := len(data); size < len(data)+3; size++ {
		out := make([]byte, size)
		n, err := rx.Decode(edges, &p, true, out)
		require.NoError(t, err, "size %d", size)
		require.Equal(t, len(data), n)
		assert.Equal(t, data, out[:n])
	}
}

func TestDecodeStopsAtFirstMismatch(t *testing.T) {
	p := profile()

	edges := capture.Encode(ws2812b, []byte{0x5A})
	edges = append(edges, pair(2000, 2000)...) // matches neither window
	edges = append(edges, capture.Encode(ws2812b, []byte{0xFF})...)

	out := make([]byte, 8)
	n, err := rx.Decode(edges, &p, true, out)

	// the mismatch ends the valid data, assembled bytes are kept
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(0x5A), out[0])
}

func TestDecodePartialByteDiscarded(t *testing.T) {
	p := profile()

	// one full byte plus four valid bit pairs: the half byte is not emitted
	edges := capture.Encode(ws2812b, []byte{0x77})
	for i := 0; i < 4; i++ {
		edges = append(edges, pair(800, 450)...)
	}

	out := make([]byte, 8)
	n, err := rx.Decode(edges, &p, true, out)

	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(0x77), out[0])
}

func TestDecodeDanglingHighEdge(t *testing.T) {
	p := profile()

	edges := capture.Encode(ws2812b, []byte{0x0F})
	edges = append(edges, edge.Edge{High: true, Ns: 800})

	out := make([]byte, 8)
	n, err := rx.Decode(edges, &p, true, out)

	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(0x0F), out[0])
}

func TestDecodeGapTolerance(t *testing.T) {
	p := profile()
	p.GapTolerance = 60_000_000 // 60ms, above the 50ms reset threshold

	// two frames separated by a 55ms low pulse
	edges := capture.Encode(ws2812b, []byte{0xFF})
	edges = append(edges, pair(800, 55_000_000)...)
	edges = append(edges, capture.Encode(ws2812b, []byte{0xAA})...)

	out := make([]byte, 8)
	n, err := rx.Decode(edges, &p, true, out)

	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, []byte{0xFF, 0xAA}, out[:n])

	// without gap tolerance the same low pulse terminates decoding
	p.GapTolerance = 0
	n, err = rx.Decode(edges, &p, true, out)

	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(0xFF), out[0])
}

func TestDecodeStartPolarityHigh(t *testing.T) {
	p := profile()

	// on a line idling high, transmission starts with the first low edge;
	// the pair order (high, low) is unchanged from the aligned index on
	payload := []edge.Edge{
		{High: false, Ns: 800}, {High: true, Ns: 450},
		{High: false, Ns: 800}, {High: true, Ns: 450},
		{High: false, Ns: 800}, {High: true, Ns: 450},
		{High: false, Ns: 800}, {High: true, Ns: 450},
		{High: false, Ns: 800}, {High: true, Ns: 450},
		{High: false, Ns: 800}, {High: true, Ns: 450},
		{High: false, Ns: 800}, {High: true, Ns: 450},
		{High: false, Ns: 800}, {High: true, Ns: 450},
	}
	edges := append([]edge.Edge{{High: true, Ns: 99999}}, payload...)

	out := make([]byte, 4)
	n, err := rx.Decode(edges, &p, false, out)

	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(0xFF), out[0])
}

func TestDecodeStrict(t *testing.T) {
	p := profile()

	t.Run("mismatches below the limit decode through", func(t *testing.T) {
		// 16 valid pairs and 1 mismatch: rate 1/17
		edges := capture.Encode(ws2812b, []byte{0xC3})
		edges = append(edges, pair(2000, 2000)...)
		edges = append(edges, capture.Encode(ws2812b, []byte{0x3C})...)

		out := make([]byte, 8)
		n, err := rx.DecodeStrict(edges, &p, true, out, rx.DefaultMaxErrorRate)

		require.NoError(t, err)
		require.Equal(t, 2, n)
		assert.Equal(t, []byte{0xC3, 0x3C}, out[:n])
	})

	t.Run("mismatches above the limit fail", func(t *testing.T) {
		edges := pair(800, 450)
		for i := 0; i < 3; i++ {
			edges = append(edges, pair(2000, 2000)...)
		}

		out := make([]byte, 8)
		n, err := rx.DecodeStrict(edges, &p, true, out, rx.DefaultMaxErrorRate)

		assert.ErrorIs(t, err, rx.ErrHighErrorRate)
		assert.Equal(t, 0, n)
	})

	t.Run("reset length low ends the frame cleanly", func(t *testing.T) {
		// the 60ms low pulse is the idle return, not a mismatch
		edges := capture.Encode(ws2812b, []byte{0x81})
		edges = append(edges, pair(800, 60_000_000)...)

		out := make([]byte, 8)
		n, err := rx.DecodeStrict(edges, &p, true, out, 0)

		require.NoError(t, err)
		require.Equal(t, 1, n)
		assert.Equal(t, byte(0x81), out[0])
	})

	t.Run("empty input still fails", func(t *testing.T) {
		_, err := rx.DecodeStrict(nil, &p, true, make([]byte, 8), rx.DefaultMaxErrorRate)
		assert.ErrorIs(t, err, rx.ErrNoEdges)
	})
}

func TestDecodeDoesNotMutateEdges(t *testing.T) {
	p := profile()
	edges := capture.Encode(ws2812b, []byte{0x42})

	before := make([]edge.Edge, len(edges))
	copy(before, edges)

	_, err := rx.Decode(edges, &p, true, make([]byte, 4))

	require.NoError(t, err)
	assert.Equal(t, before, edges)
}

func TestDecodeToleranceBoundaries(t *testing.T) {
	p := profile()

	tests := []struct {
		name   string
		highNs uint32
		lowNs  uint32
		want   int
	}{
		{"bit1 lower bounds", 650, 300, 1},
		{"bit1 upper bounds", 950, 600, 1},
		{"high below bit1 window", 649, 450, 0},
		{"low above bit1 window", 800, 601, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// eight identical pairs: a byte decodes only if the pair is valid
			var edges []edge.Edge
			for i := 0; i < 8; i++ {
				edges = append(edges, pair(tt.highNs, tt.lowNs)...)
			}

			out := make([]byte, 4)
			n, err := rx.Decode(edges, &p, true, out)

			require.NoError(t, err)
			require.Equal(t, tt.want, n)
			if tt.want == 1 {
				assert.Equal(t, byte(0xFF), out[0])
			}
		})
	}
}
