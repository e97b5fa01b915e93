// Package graph holds the in-memory road network used by the partitioner: a
// compact node/segment network built from OSM data and the CSR-style
// BisectionGraph that recursive bisection reorders in place.
package graph

import "math"

// NodeID is a dense node index in [0, N).
type NodeID uint32

// EdgeID identifies a node of the edge-based graph.
type EdgeID uint32

// Sentinels for missing ids.
const (
	SpecialNodeID NodeID = math.MaxUint32
	SpecialEdgeID EdgeID = math.MaxUint32
)

// InputEdge is the minimal directed edge shape the BisectionGraph is built
// from. Payloads of richer edge types are dropped by AdaptToBisectionEdge.
type InputEdge struct {
	Source NodeID
	Target NodeID
}
