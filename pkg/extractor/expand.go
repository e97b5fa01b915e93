package extractor

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/azybler/map_partitioner/pkg/graph"
)

// AssignEdgeBasedNodes numbers the traversals of every segment in input
// order. Each allowed direction becomes one edge-based node: the forward
// traversal is the head, the backward one the tail. Segments without any
// allowed direction are skipped.
func AssignEdgeBasedNodes(segments []graph.Segment) []Mapping {
	mappings := make([]Mapping, 0, len(segments))
	next := graph.EdgeID(0)
	for _, s := range segments {
		if !s.Forward && !s.Backward {
			continue
		}
		m := Mapping{U: s.U, V: s.V, Head: graph.SpecialEdgeID, Tail: graph.SpecialEdgeID}
		if s.Forward {
			m.Head = next
			next++
		}
		if s.Backward {
			m.Tail = next
			next++
		}
		mappings = append(mappings, m)
	}
	return mappings
}

// EdgeBasedNodeCount returns the number of edge-based nodes in mappings.
func EdgeBasedNodeCount(mappings []Mapping) int {
	n := 0
	for _, m := range mappings {
		if m.Head != graph.SpecialEdgeID {
			n++
		}
		if m.Tail != graph.SpecialEdgeID {
			n++
		}
	}
	return n
}

// WriteMappingFile writes mappings to path.
func WriteMappingFile(path string, mappings []Mapping, logger *log.Logger) (err error) {
	if logger == nil {
		logger = log.Default()
	}

	w, err := NewMappingWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("finalize mapping file: %w", cerr)
		}
	}()

	for _, m := range mappings {
		if err := w.WriteMapping(m.U, m.V, m.Head, m.Tail); err != nil {
			return err
		}
	}
	logger.Info("wrote node to edge mapping", "path", path, "records", w.Count())
	return nil
}
