package partition

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"unsafe"

	"github.com/azybler/map_partitioner/pkg/graph"
	"github.com/azybler/map_partitioner/pkg/storage"
)

const maxNodes = 100_000_000

// fileHeader follows the fingerprint.
type fileHeader struct {
	NumNodes uint32
	MaxDepth uint32
}

// Cells is the persisted form of a Result: everything the downstream index
// builder needs, without the graph.
type Cells struct {
	MaxDepth int
	CellIDs  []CellID       // by original node id
	Depth    []uint8        // by original node id
	Order    []graph.NodeID // physical position -> original node id
}

// NumberOfNodes returns the number of nodes covered.
func (c *Cells) NumberOfNodes() int { return len(c.CellIDs) }

// Cells extracts the persisted part of r.
func (r *Result) Cells() *Cells {
	return &Cells{MaxDepth: r.MaxDepth, CellIDs: r.CellIDs, Depth: r.Depth, Order: r.Order}
}

// WriteCells serializes c to path. Layout after the fingerprint: header,
// cell ids, leaf depths, physical order, CRC32 of everything after the
// fingerprint. The file is written to path+".tmp" and renamed on success.
func WriteCells(path string, c *Cells) error {
	n := len(c.CellIDs)
	if len(c.Depth) != n || len(c.Order) != n {
		return fmt.Errorf("inconsistent cells: %d ids, %d depths, %d order entries", n, len(c.Depth), len(c.Order))
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	buf := bufio.NewWriterSize(f, 64*1024)
	if err := storage.WriteFingerprint(buf); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}

	w := &crc32Writer{w: buf, hash: crc32.NewIEEE()}
	hdr := fileHeader{NumNodes: uint32(n), MaxDepth: uint32(c.MaxDepth)}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := writeSlice(w, c.CellIDs); err != nil {
		return fmt.Errorf("write CellIDs: %w", err)
	}
	if err := writeSlice(w, c.Depth); err != nil {
		return fmt.Errorf("write Depth: %w", err)
	}
	if err := writeSlice(w, c.Order); err != nil {
		return fmt.Errorf("write Order: %w", err)
	}

	if err := binary.Write(buf, binary.LittleEndian, w.hash.Sum32()); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadCells loads a file written by WriteCells.
func ReadCells(path string) (*Cells, error) {
	fr, err := storage.OpenFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	r := &crc32Reader{r: fr.Reader(), hash: crc32.NewIEEE()}
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("NumNodes %d exceeds limit %d", hdr.NumNodes, maxNodes)
	}
	if hdr.MaxDepth > MaxSupportedDepth {
		return nil, fmt.Errorf("MaxDepth %d exceeds %d", hdr.MaxDepth, MaxSupportedDepth)
	}

	n := int(hdr.NumNodes)
	c := &Cells{MaxDepth: int(hdr.MaxDepth)}
	if c.CellIDs, err = readSlice[CellID](r, n); err != nil {
		return nil, fmt.Errorf("read CellIDs: %w", err)
	}
	if c.Depth, err = readSlice[uint8](r, n); err != nil {
		return nil, fmt.Errorf("read Depth: %w", err)
	}
	if c.Order, err = readSlice[graph.NodeID](r, n); err != nil {
		return nil, fmt.Errorf("read Order: %w", err)
	}

	expected := r.hash.Sum32()
	var stored uint32
	if err := binary.Read(fr.Reader(), binary.LittleEndian, &stored); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if stored != expected {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", stored, expected)
	}
	if err := storage.ExpectEOF(fr.Reader()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := validateOrder(c.Order); err != nil {
		return nil, err
	}
	for i, d := range c.Depth {
		if int(d) > c.MaxDepth {
			return nil, fmt.Errorf("Depth[%d]=%d exceeds MaxDepth=%d", i, d, c.MaxDepth)
		}
	}
	if c.MaxDepth < MaxSupportedDepth {
		for i, id := range c.CellIDs {
			if uint64(id)>>uint(c.MaxDepth) != 0 {
				return nil, fmt.Errorf("CellIDs[%d]=%#x uses more than MaxDepth=%d bits", i, uint64(id), c.MaxDepth)
			}
		}
	}
	return c, nil
}

// validateOrder checks that order is a permutation of [0, len(order)).
func validateOrder(order []graph.NodeID) error {
	seen := make([]bool, len(order))
	for i, id := range order {
		if int(id) >= len(order) {
			return fmt.Errorf("Order[%d]=%d >= NumNodes=%d", i, id, len(order))
		}
		if seen[id] {
			return fmt.Errorf("Order[%d]=%d repeats", i, id)
		}
		seen[id] = true
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice. The on-disk layout is the host's,
// which is little endian on every supported platform.

func writeSlice[T CellID | uint8 | graph.NodeID](w io.Writer, s []T) error {
	if len(s) == 0 {
		return nil
	}
	var zero T
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
	_, err := w.Write(b)
	return err
}

func readSlice[T CellID | uint8 | graph.NodeID](r io.Reader, n int) ([]T, error) {
	s := make([]T, n)
	if n == 0 {
		return s, nil
	}
	var zero T
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*int(unsafe.Sizeof(zero)))
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

type crc32Writer struct {
	w    io.Writer
	hash hash.Hash32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash hash.Hash32
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
