package partition

import (
	"fmt"
	"math/bits"
)

// MaxSupportedDepth is the number of levels a CellID can encode.
const MaxSupportedDepth = 64

// CellID is a node's path through the bisection tree, one bit per level with
// level 0 in the most significant used bit. 0 is left, 1 is right. Levels
// below the node's leaf are zero.
type CellID uint64

// levelBit returns the bit for depth in an id of maxDepth levels.
func levelBit(depth, maxDepth int) CellID {
	return CellID(1) << uint(maxDepth-1-depth)
}

// Prefix returns the first k levels of c, right-aligned.
func (c CellID) Prefix(k, maxDepth int) uint64 {
	if k == 0 {
		return 0
	}
	return uint64(c) >> uint(maxDepth-k)
}

// CommonPrefix returns the number of leading levels a and b share.
func CommonPrefix(a, b CellID, maxDepth int) int {
	if maxDepth == 0 {
		return 0
	}
	diff := uint64(a^b) << uint(MaxSupportedDepth-maxDepth)
	return min(bits.LeadingZeros64(diff), maxDepth)
}

// Format renders the first depth levels as a bit string, e.g. "0110".
func (c CellID) Format(depth, maxDepth int) string {
	if depth == 0 {
		return "root"
	}
	return fmt.Sprintf("%0*b", depth, c.Prefix(depth, maxDepth))
}
