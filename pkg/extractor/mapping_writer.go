// Package extractor persists the mapping between the node-based road network
// and the edge-based graph the query engine is built on.
package extractor

import (
	"fmt"

	"github.com/azybler/map_partitioner/pkg/graph"
	"github.com/azybler/map_partitioner/pkg/storage"
)

// Mapping ties a node-based segment (U, V) to the edge-based nodes of its two
// traversals. Head is the U -> V traversal, Tail the V -> U one; either may be
// SpecialEdgeID, but not both.
type Mapping struct {
	U, V graph.NodeID
	Head graph.EdgeID
	Tail graph.EdgeID
}

// MappingWriter streams Mapping records to a file laid out as
// [fingerprint][uint64 count][record]*count. It is not safe for concurrent
// use.
//
// The file only appears at its final path once Close succeeds. Close patches
// the count and must run on every exit path, typically through defer.
type MappingWriter struct {
	fw     *storage.FileWriter
	count  uint64
	closed bool
}

// NewMappingWriter creates the output and writes the fingerprint and a
// placeholder count of zero.
func NewMappingWriter(path string) (*MappingWriter, error) {
	fw, err := storage.CreateFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("create mapping file %s: %w", path, err)
	}
	if err := fw.WriteElementCount64(0); err != nil {
		fw.Close()
		return nil, err
	}
	return &MappingWriter{fw: fw}, nil
}

// WriteMapping appends one record. It panics when u or v is SpecialNodeID or
// when both head and tail are SpecialEdgeID: such a record can only come from
// a bug in the caller.
func (w *MappingWriter) WriteMapping(u, v graph.NodeID, head, tail graph.EdgeID) error {
	if u == graph.SpecialNodeID || v == graph.SpecialNodeID {
		panic(fmt.Sprintf("extractor: mapping with invalid node id (%d, %d)", u, v))
	}
	if head == graph.SpecialEdgeID && tail == graph.SpecialEdgeID {
		panic(fmt.Sprintf("extractor: mapping (%d, %d) has neither head nor tail", u, v))
	}

	if err := w.fw.WriteOne(&Mapping{U: u, V: v, Head: head, Tail: tail}); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of records written so far.
func (w *MappingWriter) Count() uint64 { return w.count }

// Close writes the record count, flushes and publishes the file. On an I/O
// error nothing is published and the error is returned. Calling Close again
// returns the same result.
func (w *MappingWriter) Close() error {
	if !w.closed && w.count > 0 {
		if err := w.fw.PatchElementCount64(w.count); err != nil {
			w.closed = true
			w.fw.Close()
			return err
		}
	}
	w.closed = true
	return w.fw.Close()
}
