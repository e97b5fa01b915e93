package extractor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/azybler/map_partitioner/pkg/graph"
	"github.com/azybler/map_partitioner/pkg/storage"
)

// ErrNotFinalized is returned for a mapping stream whose count does not match
// its records, which is what a writer that never reached Close leaves behind.
var ErrNotFinalized = errors.New("mapping file was not finalized")

// MappingReader reads the records written by a MappingWriter in order.
type MappingReader struct {
	r     io.Reader
	count uint64
	read  uint64
}

// NewMappingReader validates the fingerprint and reads the record count.
func NewMappingReader(r io.Reader) (*MappingReader, error) {
	if err := storage.ReadFingerprint(r); err != nil {
		return nil, err
	}
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read record count: %w", err)
	}
	return &MappingReader{r: r, count: count}, nil
}

// Count returns the record count from the header.
func (mr *MappingReader) Count() uint64 { return mr.count }

// Read returns the next record, or io.EOF once Count records have been read.
func (mr *MappingReader) Read() (Mapping, error) {
	if mr.read == mr.count {
		return Mapping{}, io.EOF
	}
	var m Mapping
	if err := binary.Read(mr.r, binary.LittleEndian, &m); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Mapping{}, fmt.Errorf("read record %d of %d: %w", mr.read, mr.count, err)
	}
	if err := validate(m); err != nil {
		return Mapping{}, fmt.Errorf("record %d: %w", mr.read, err)
	}
	mr.read++
	return m, nil
}

// ReadAll reads every remaining record and checks that nothing follows them.
func (mr *MappingReader) ReadAll() ([]Mapping, error) {
	out := make([]Mapping, 0, min(mr.count-mr.read, 1<<20))
	for {
		m, err := mr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := storage.ExpectEOF(mr.r); err != nil {
		return nil, fmt.Errorf("%w: data after %d records", ErrNotFinalized, mr.count)
	}
	return out, nil
}

func validate(m Mapping) error {
	if m.U == graph.SpecialNodeID || m.V == graph.SpecialNodeID {
		return fmt.Errorf("invalid node id (%d, %d)", m.U, m.V)
	}
	if m.Head == graph.SpecialEdgeID && m.Tail == graph.SpecialEdgeID {
		return fmt.Errorf("mapping (%d, %d) has neither head nor tail", m.U, m.V)
	}
	return nil
}

// ReadMappingFile loads every record of a mapping file. It fails on a foreign
// or incompatible fingerprint, on a short file and on a file that was never
// finalized.
func ReadMappingFile(path string) ([]Mapping, error) {
	fr, err := storage.OpenFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping file %s: %w", path, err)
	}
	defer fr.Close()

	count, err := fr.ReadElementCount64()
	if err != nil {
		return nil, fmt.Errorf("read record count: %w", err)
	}
	mr := &MappingReader{r: fr.Reader(), count: count}
	mappings, err := mr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mappings, nil
}
