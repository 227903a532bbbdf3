// Package trace persists captured edge sequences as files, so captures can
// be inspected and replayed without hardware.
//
// The on disk format is CBOR with deterministic encoding: a header followed
// by the edge list. Identical traces encode to identical bytes.
package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"ledrx/pkg/edge"
)

// Version is the current trace file format version.
const Version = 1

var ErrVersion = errors.New("unsupported trace version")

// encMode is the deterministic CBOR encoder mode for trace files.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for trace files.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnix,
	}
	if encMode, err = encOpts.EncMode(); err != nil {
		panic(fmt.Sprintf("trace encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}
	if decMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("trace decoder mode: %v", err))
	}
}

// Header describes one recorded capture.
type Header struct {
	Version int    `cbor:"version"`
	ID      string `cbor:"id"`
	// Chipset is the name the capture was configured for, diagnostic only.
	Chipset string    `cbor:"chipset,omitempty"`
	Created time.Time `cbor:"created"`
	Note    string    `cbor:"note,omitempty"`
}

// Trace is one recorded capture: a header plus the ordered edges.
type Trace struct {
	Header Header
	Edges  []edge.Edge
}

// record is the on disk shape of one edge.
type record struct {
	High bool   `cbor:"h"`
	Ns   uint32 `cbor:"ns"`
}

// file is the on disk shape of a trace.
type file struct {
	Header Header   `cbor:"header"`
	Edges  []record `cbor:"edges"`
}

// New builds a trace from captured edges with a fresh id and timestamp.
// The edges are copied, the capture buffer may be reset afterwards.
func New(chipset, note string, edges []edge.Edge) *Trace {
	t := &Trace{
		Header: Header{
			Version: Version,
			ID:      uuid.NewString(),
			Chipset: chipset,
			Created: time.Now(),
			Note:    note,
		},
		Edges: make([]edge.Edge, len(edges)),
	}
	copy(t.Edges, edges)
	return t
}

// Write encodes the trace to w.
func (t *Trace) Write(w io.Writer) error {
	f := file{
		Header: t.Header,
		Edges:  make([]record, len(t.Edges)),
	}
	for i, e := range t.Edges {
		f.Edges[i] = record{High: e.High, Ns: e.Ns}
	}

	if err := encMode.NewEncoder(w).Encode(&f); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return nil
}

// Read decodes one trace from r.
func Read(r io.Reader) (*Trace, error) {
	var f file
	if err := decMode.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding trace: %w", err)
	}
	if f.Header.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, f.Header.Version)
	}

	t := &Trace{
		Header: f.Header,
		Edges:  make([]edge.Edge, len(f.Edges)),
	}
	for i, rec := range f.Edges {
		t.Edges[i] = edge.Edge{High: rec.High, Ns: edge.Clamp(rec.Ns)}
	}
	return t, nil
}

// Save writes the trace to a file.
func (t *Trace) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = t.Write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Load reads a trace from a file.
func Load(path string) (*Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return Read(file)
}
