/*
DESCRIPTION
  partition.go implements the recursive superblock partition walker (§4.G):
  descent from a tile's superblock size down to 4x4, selecting one of the
  ten partition shapes at each level, driving the block parser at every
  leaf and stamping the partition context into the neighbour-context grid.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import "errors"

// partitionShape enumerates the ten partition symbols a superblock level
// may decode to, in bitstream order.
type partitionShape uint8

const (
	partNone partitionShape = iota
	partH
	partV
	partSplit
	partHorzA // T_TOP_SPLIT: two blocks on top, one wide block below.
	partHorzB // T_BOTTOM_SPLIT: one wide block above, two below.
	partVertA // T_LEFT_SPLIT: two blocks on the left, one tall block at right.
	partVertB // T_RIGHT_SPLIT: one tall block at left, two at right.
	partH4
	partV4
)

// Block-level indices, one per square size from 4x4 (leaf, never
// partitioned) up to 128x128, expressed as log2 of the side length in 4x4
// units.
const (
	bl4 = iota
	bl8
	bl16
	bl32
	bl64
	bl128
)

// errInvalidPartition reports a syntax violation the partition walker
// cannot recover from: an illegal shape for the current chroma layout or
// block level, per §4.G / §7(b).
var errInvalidPartition = errors.New("av1dec: invalid partition for this block level or chroma layout")

// partitionWalker descends a tile's superblock tree, reading one partition
// symbol per internal node and invoking the block parser at every leaf.
type partitionWalker struct {
	msac *MSAC
	cdf  *CDFTable
	ctx  *tileContext
	bp   *blockParser
	seq  *SeqHeader

	frameWidth4  int // frame width in 4x4 units, for edge clipping.
	frameHeight4 int
}

// newPartitionWalker returns a partitionWalker over one tile, sharing the
// block parser's MSAC, CDF and neighbour-context state.
func newPartitionWalker(bp *blockParser, seq *SeqHeader, frameWidth4, frameHeight4 int) *partitionWalker {
	return &partitionWalker{
		msac: bp.msac, cdf: bp.cdf, ctx: bp.ctx, bp: bp, seq: seq,
		frameWidth4: frameWidth4, frameHeight4: frameHeight4,
	}
}

// blSizeUnits returns the side length, in 4x4 units, of block level bl.
func blSizeUnits(bl int) int {
	return 1 << uint(bl)
}

// decodePartition parses the partition tree rooted at 4x4 position (x, y)
// with block level bl, recursing per §4.G's rules, and returns a non-nil
// error only on an unrecoverable syntax violation.
func (w *partitionWalker) decodePartition(x, y, bl int) error {
	units := blSizeUnits(bl)
	if x >= w.frameWidth4 || y >= w.frameHeight4 {
		return nil
	}

	if bl == bl4 {
		_, err := w.bp.decodeBlock(x, y, units, units, x%16 == 0 && y%16 == 0)
		return err
	}

	haveRight := x+units <= w.frameWidth4
	haveBottom := y+units <= w.frameHeight4

	above := w.ctx.aboveAt(x)
	left := w.ctx.leftAt(y)
	aboveSplit, leftSplit := partitionContext(above, left, bl)
	pctx := 0
	if aboveSplit {
		pctx += 2
	}
	if leftSplit {
		pctx++
	}

	var shape partitionShape
	switch {
	case haveRight && haveBottom:
		shape = w.readShape(bl, pctx)
	case haveRight:
		// Only a horizontal split is possible at this edge: gather_left.
		if w.msac.DecodeBool(1 << 14) {
			shape = partSplit
		} else {
			shape = partH
		}
	case haveBottom:
		// Only a vertical split is possible: gather_top.
		if w.msac.DecodeBool(1 << 14) {
			shape = partSplit
		} else {
			shape = partV
		}
	default:
		shape = partSplit
	}

	if err := w.validateShape(shape, bl); err != nil {
		return err
	}

	half := units / 2
	var err error
	switch shape {
	case partNone:
		_, err = w.bp.decodeBlock(x, y, units, units, x%16 == 0 && y%16 == 0)
	case partH:
		if err = w.decodeBlockLeaf(x, y, units, half); err != nil {
			return err
		}
		err = w.decodeBlockLeaf(x, y+half, units, half)
	case partV:
		if err = w.decodeBlockLeaf(x, y, half, units); err != nil {
			return err
		}
		err = w.decodeBlockLeaf(x+half, y, half, units)
	case partSplit:
		if bl == bl8 {
			// At BL_8x8, SPLIT recurses directly into four 4x4 leaves
			// rather than four branches, per §4.G.
			for _, p := range [][2]int{{x, y}, {x + 1, y}, {x, y + 1}, {x + 1, y + 1}} {
				if _, err = w.bp.decodeBlock(p[0], p[1], 1, 1, false); err != nil {
					return err
				}
			}
		} else {
			for _, p := range [][2]int{{x, y}, {x + half, y}, {x, y + half}, {x + half, y + half}} {
				if err = w.decodePartition(p[0], p[1], bl-1); err != nil {
					return err
				}
			}
		}
	case partHorzA:
		if err = w.decodeBlockLeaf(x, y, half, half); err != nil {
			return err
		}
		if err = w.decodeBlockLeaf(x+half, y, half, half); err != nil {
			return err
		}
		err = w.decodeBlockLeaf(x, y+half, units, half)
	case partHorzB:
		if err = w.decodeBlockLeaf(x, y, units, half); err != nil {
			return err
		}
		if err = w.decodeBlockLeaf(x, y+half, half, half); err != nil {
			return err
		}
		err = w.decodeBlockLeaf(x+half, y+half, half, half)
	case partVertA:
		if err = w.decodeBlockLeaf(x, y, half, half); err != nil {
			return err
		}
		if err = w.decodeBlockLeaf(x, y+half, half, half); err != nil {
			return err
		}
		err = w.decodeBlockLeaf(x+half, y, half, units)
	case partVertB:
		if err = w.decodeBlockLeaf(x, y, half, units); err != nil {
			return err
		}
		if err = w.decodeBlockLeaf(x+half, y, half, half); err != nil {
			return err
		}
		err = w.decodeBlockLeaf(x+half, y+half, half, half)
	case partH4:
		q := units / 4
		for i := 0; i < 4; i++ {
			if err = w.decodeBlockLeaf(x, y+i*q, units, q); err != nil {
				return err
			}
		}
	case partV4:
		q := units / 4
		for i := 0; i < 4; i++ {
			if err = w.decodeBlockLeaf(x+i*q, y, q, units); err != nil {
				return err
			}
		}
	}
	return err
}

// decodeBlockLeaf decodes one terminal block of size (bw4, bh4) at 4x4
// position (x, y), the common case every non-SPLIT partition shape
// decomposes into.
func (w *partitionWalker) decodeBlockLeaf(x, y, bw4, bh4 int) error {
	_, err := w.bp.decodeBlock(x, y, bw4, bh4, x%16 == 0 && y%16 == 0)
	return err
}

// readShape decodes the partition symbol for an interior node at block
// level bl and context pctx: at BL_8x8 only the four shapes NONE/H/V/SPLIT
// (no T-shapes, no H4/V4), at BL_128x128 eight (no H4/V4), and all ten at
// every other level.
func (w *partitionWalker) readShape(bl, pctx int) partitionShape {
	if bl == bl8 {
		v := w.msac.DecodeSymbolAdapt(w.cdf.Partition[pctx][:5], 4)
		return partitionShape(v)
	}
	n := 10
	if bl == bl128 {
		n = 8 // PARTITION_H4/V4 disallowed at BL_128x128.
	}
	v := w.msac.DecodeSymbolAdapt(w.cdf.Partition[pctx][:n+1], n)
	return partitionShape(v)
}

// validateShape rejects shapes the current chroma layout or block level
// cannot support, per §4.G / §7(b): a 4:2:2 layout forbids V-family
// partitions (V, VertA, VertB, V4) at the leaf level, and BL_128x128
// forbids H4/V4 (already excluded from readShape's symbol range, checked
// again here for shapes inherited unconditionally such as edge fallbacks).
func (w *partitionWalker) validateShape(shape partitionShape, bl int) error {
	if bl == bl128 && (shape == partH4 || shape == partV4) {
		return errInvalidPartition
	}
	if w.seq.ColorConfig.Subsampling == chroma422 && bl == bl8 {
		switch shape {
		case partV, partVertA, partVertB, partV4:
			return errInvalidPartition
		}
	}
	return nil
}
