package trace_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledrx/pkg/edge"
	"ledrx/pkg/trace"
)

func testEdges() []edge.Edge {
	return []edge.Edge{
		{High: true, Ns: 800},
		{High: false, Ns: 450},
		{High: true, Ns: 400},
		{High: false, Ns: 850},
	}
}

func TestNew(t *testing.T) {
	edges := testEdges()
	tr := trace.New("WS2812B", "bench capture", edges)

	assert.Equal(t, trace.Version, tr.Header.Version)
	assert.Equal(t, "WS2812B", tr.Header.Chipset)
	assert.Equal(t, "bench capture", tr.Header.Note)
	assert.False(t, tr.Header.Created.IsZero())
	_, err := uuid.Parse(tr.Header.ID)
	assert.NoError(t, err)

	// the edges are copied, mutating the source does not change the trace
	edges[0].Ns = 1
	assert.Equal(t, uint32(800), tr.Edges[0].Ns)
}

func TestWriteRead(t *testing.T) {
	tr := trace.New("WS2812B", "", testEdges())

	var buf bytes.Buffer
	require.NoError(t, tr.Write(&buf))

	got, err := trace.Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, tr.Header.ID, got.Header.ID)
	assert.Equal(t, tr.Header.Chipset, got.Header.Chipset)
	assert.Equal(t, tr.Header.Version, got.Header.Version)
	assert.Equal(t, tr.Edges, got.Edges)
}

func TestWriteDeterministic(t *testing.T) {
	tr := trace.New("SK6812", "", testEdges())

	var a, b bytes.Buffer
	require.NoError(t, tr.Write(&a))
	require.NoError(t, tr.Write(&b))

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestReadBadVersion(t *testing.T) {
	tr := trace.New("WS2812B", "", testEdges())
	tr.Header.Version = trace.Version + 1

	var buf bytes.Buffer
	require.NoError(t, tr.Write(&buf))

	_, err := trace.Read(&buf)
	assert.ErrorIs(t, err, trace.ErrVersion)
}

func TestSaveLoad(t *testing.T) {
	tr := trace.New("WS2812B", "roundtrip", testEdges())
	path := filepath.Join(t.TempDir(), tr.Header.ID+".trace")

	require.NoError(t, tr.Save(path))

	got, err := trace.Load(path)
	require.NoError(t, err)

	assert.Equal(t, tr.Header.ID, got.Header.ID)
	assert.Equal(t, tr.Edges, got.Edges)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := trace.Load(filepath.Join(t.TempDir(), "missing.trace"))
	assert.Error(t, err)
}
