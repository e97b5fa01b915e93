package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellIDLayout(t *testing.T) {
	const maxDepth = 4
	// right, left, right, then a leaf: 1010.
	c := levelBit(0, maxDepth) | levelBit(2, maxDepth)

	assert.Equal(t, CellID(0b1010), c)
	assert.NotZero(t, c&levelBit(0, maxDepth))
	assert.Zero(t, c&levelBit(1, maxDepth))
	assert.NotZero(t, c&levelBit(2, maxDepth))
	assert.Zero(t, c&levelBit(3, maxDepth))

	assert.Equal(t, uint64(0), c.Prefix(0, maxDepth))
	assert.Equal(t, uint64(0b1), c.Prefix(1, maxDepth))
	assert.Equal(t, uint64(0b101), c.Prefix(3, maxDepth))
	assert.Equal(t, "101", c.Format(3, maxDepth))
	assert.Equal(t, "root", c.Format(0, maxDepth))
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, 4, CommonPrefix(0b1010, 0b1010, 4))
	assert.Equal(t, 2, CommonPrefix(0b1010, 0b1001, 4))
	assert.Equal(t, 0, CommonPrefix(0b1010, 0b0010, 4))
	assert.Equal(t, 0, CommonPrefix(0, 0, 0))
	assert.Equal(t, 64, CommonPrefix(1<<63, 1<<63, 64))
	assert.Equal(t, 63, CommonPrefix(1, 0, 64))
}
