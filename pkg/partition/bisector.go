// Package partition computes a hierarchical recursive bisection of a
// BisectionGraph.
package partition

import (
	"errors"
	"math"

	"github.com/azybler/map_partitioner/pkg/graph"
)

// ErrNotSplittable is returned by a Bisector for views that cannot be divided.
var ErrNotSplittable = errors.New("partition: view cannot be split")

// Bisection is a two-way split of a view. Right is indexed by local position
// (global id - view.Begin()).
type Bisection struct {
	Right     []bool
	LeftSize  int
	CutEdges  int     // directed edges crossing the split
	Imbalance float64 // |left - n/2| / n
	Degraded  bool    // no candidate met the balance bounds
}

// RightSize returns the number of nodes on the right side.
func (b *Bisection) RightSize() int { return len(b.Right) - b.LeftSize }

// Bisector computes a balanced minimum edge cut split of a view. It must not
// modify the view.
type Bisector interface {
	Bisect(view graph.View, epsilon float64) (*Bisection, error)
}

// BalanceBounds returns the inclusive range [lo, hi] each side must fall in for
// a split of n nodes with tolerance epsilon. Both bounds are clamped to
// [1, n-1].
func BalanceBounds(n int, epsilon float64) (lo, hi int) {
	lo = int(math.Ceil(float64(n)*(0.5-epsilon) - 1e-9))
	hi = int(math.Floor(float64(n)*(0.5+epsilon) + 1e-9))
	lo = max(lo, 1)
	hi = min(hi, n-1)
	return lo, hi
}

// IsBalanced reports whether a split with left nodes on the left and n-left on
// the right satisfies the balance bounds.
func IsBalanced(left, n int, epsilon float64) bool {
	lo, hi := BalanceBounds(n, epsilon)
	right := n - left
	return left >= lo && left <= hi && right >= lo && right <= hi
}

func imbalance(left, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Abs(float64(left)-float64(n)/2) / float64(n)
}

// evaluate fills in the derived fields of a bisection.
func evaluate(view graph.View, right []bool, epsilon float64) *Bisection {
	n := len(right)
	left := 0
	for _, r := range right {
		if !r {
			left++
		}
	}

	cut := 0
	begin := view.Begin()
	for id, node := range view.Nodes() {
		side := right[id-begin]
		for _, e := range view.Edges(node) {
			if view.Contains(e.Target) && right[e.Target-begin] != side {
				cut++
			}
		}
	}

	return &Bisection{
		Right:     right,
		LeftSize:  left,
		CutEdges:  cut,
		Imbalance: imbalance(left, n),
		Degraded:  !IsBalanced(left, n, epsilon),
	}
}
