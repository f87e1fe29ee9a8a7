/*
DESCRIPTION
  context.go provides the above/left neighbour-context grid a tile
  maintains while parsing: per-4x4-unit flags that both condition the
  CDF context of later blocks and get overwritten by every block the
  parser visits.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

// maxSBUnits4x4 is the number of 4x4 units spanned by one dimension of the
// largest superblock (128x128 / 4 = 32), the per-row/column capacity of the
// neighbour-context grid.
const maxSBUnits4x4 = 32

// txSize64x64 is the canonical "no better information yet" transform size
// neighbour context is reset to at tile start.
const txSize64x64 = 4

// switchableFilter is the neighbour-context reset value for interpolation
// filter, matching the frame-wide SWITCHABLE sentinel.
const switchableFilter = 4

// neighbourUnit holds the per-4x4-unit flags the partition and block
// parsers read to form contexts and write after every decoded block, per
// the neighbour-context grid's field list.
type neighbourUnit struct {
	intra    bool
	skip     bool
	uvMode   uint8
	txSize   uint8
	refFrame int8
	filter   uint8
	paletteSize uint8 // luma palette size (0 if no palette), per §3's palette-size context field.
	partition uint8 // decided block level (log2 4x4 units) this position was last parsed at.
	segID    int

	mv      mv   // this position's decoded motion vector, read by the reference-MV engine's spatial scan.
	intrabc bool // true if mv was produced by the intra-bc branch (refFrame -1 is ambiguous with "no neighbour" otherwise).
}

// tileContext holds one tile's above and left neighbour-context rows, each
// indexed at 4x4 granularity across the tile's width/height in superblock
// units.
type tileContext struct {
	above []neighbourUnit
	left  []neighbourUnit
}

// newTileContext allocates a tileContext sized for a tile sbCols wide and
// sbRows tall, at 4x4 granularity, and resets it to canonical start-of-tile
// values.
func newTileContext(sbCols, sbRows, sb4 int) *tileContext {
	c := &tileContext{
		above: make([]neighbourUnit, sbCols*sb4),
		left:  make([]neighbourUnit, sbRows*sb4),
	}
	c.reset(true)
	return c
}

// reset restores the grid to the canonical start-of-tile values: intra
// (as if the frame were a keyframe), DC chroma prediction, the largest
// transform size, no reference (-1), a switchable filter and a zero
// palette size.
// isKeyframe selects whether intra starts true (key/intra-only frames) or
// false (inter frames, where a neighbour outside the tile defaults to
// not-intra so contexts lean toward inter modes).
func (c *tileContext) reset(isKeyframe bool) {
	def := neighbourUnit{
		intra:    isKeyframe,
		uvMode:   0, // DC_PRED.
		txSize:   txSize64x64,
		refFrame: -1,
		filter:   switchableFilter,
		partition: bl128,
	}
	for i := range c.above {
		c.above[i] = def
	}
	for i := range c.left {
		c.left[i] = def
	}
}

// fillAbove stamps unit across the above row from 4x4 column x for bw4
// units, the "fill rectangle with value" writeback the block parser
// performs after decoding each syntax element group.
func (c *tileContext) fillAbove(x, bw4 int, unit neighbourUnit) {
	for i := x; i < x+bw4 && i < len(c.above); i++ {
		c.above[i] = unit
	}
}

// fillLeft stamps unit across the left column from 4x4 row y for bh4
// units.
func (c *tileContext) fillLeft(y, bh4 int, unit neighbourUnit) {
	for i := y; i < y+bh4 && i < len(c.left); i++ {
		c.left[i] = unit
	}
}

// aboveAt returns the above-row neighbour context at 4x4 column x, or the
// canonical default if x falls outside the tile (frame boundary).
func (c *tileContext) aboveAt(x int) neighbourUnit {
	if x < 0 || x >= len(c.above) {
		return neighbourUnit{txSize: txSize64x64, refFrame: -1, filter: switchableFilter, partition: bl128}
	}
	return c.above[x]
}

// leftAt returns the left-column neighbour context at 4x4 row y, or the
// canonical default if y falls outside the tile.
func (c *tileContext) leftAt(y int) neighbourUnit {
	if y < 0 || y >= len(c.left) {
		return neighbourUnit{txSize: txSize64x64, refFrame: -1, filter: switchableFilter, partition: bl128}
	}
	return c.left[y]
}

// skipContext derives the skip CDF context index from the above/left
// neighbours' skip flags: 0 if neither is skipped, 1 if exactly one is,
// 2 if both are.
func skipContext(above, left neighbourUnit) int {
	n := 0
	if above.skip {
		n++
	}
	if left.skip {
		n++
	}
	return n
}

// intraContext derives the is_inter CDF context index from whether the
// above/left neighbours are themselves intra-coded.
func intraContext(above, left neighbourUnit, haveAbove, haveLeft bool) int {
	switch {
	case haveAbove && haveLeft:
		if above.intra && left.intra {
			return 3
		}
		if above.intra || left.intra {
			return 1
		}
		return 0
	case haveAbove:
		if above.intra {
			return 2
		}
		return 0
	case haveLeft:
		if left.intra {
			return 2
		}
		return 0
	default:
		return 0
	}
}

// paletteYCtx derives the has_palette_y CDF's context from whether the
// above/left neighbours themselves carry a luma palette.
func paletteYCtx(above, left neighbourUnit) int {
	ctx := 0
	if above.paletteSize > 0 {
		ctx++
	}
	if left.paletteSize > 0 {
		ctx++
	}
	return ctx
}

// partitionContext derives the partition CDF's boolean above/left context:
// a neighbour whose stored size at this position is smaller than the
// current block counts as "split" for that edge.
func partitionContext(above, left neighbourUnit, blSizeLog2 int) (aboveSplit, leftSplit bool) {
	aboveSplit = int(above.partition) < blSizeLog2
	leftSplit = int(left.partition) < blSizeLog2
	return
}
