/*
DESCRIPTION
  tilerow.go drives one tile row's superblock iteration: resets the CDEF
  index slots for each superblock, conditionally parses loop-restoration
  unit syntax per plane, hands each superblock to the partition walker,
  and publishes row progress for the reconstruction driver to wait on.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import "sync/atomic"

// restUnitParams holds one loop-restoration unit's decoded parameters for
// either a Wiener or a self-guided-projection filter; fields not used by
// the unit's kind are left zero.
type restUnitParams struct {
	Type      restorationType
	WienerTap [2][3]int // [vertical/horizontal][tap index], the two free taps per axis.
	SgrSet    int
	SgrXqd    [2]int
}

// tileRowState carries the per-plane restoration-unit history a tile needs
// across its superblock row: the previous unit's parameters, which every
// subsequent unit's Wiener/sgrproj fields are coded as a subexp difference
// against.
type tileRowState struct {
	prevRestUnit [3]restUnitParams
}

// tileRowDriver iterates the superblocks of one tile row, per §4.H.
type tileRowDriver struct {
	bp    *blockParser
	walk  *partitionWalker
	cdf   *CDFTable
	msac  *MSAC
	fh    *FrameHeader
	seq   *SeqHeader
	state tileRowState

	sbSize4      int // superblock side length in 4x4 units (16 or 32).
	tileColStart int // 4x4-unit column where this tile begins.
	tileColEnd   int
	frameWidth4  int
	frameHeight4 int

	progress int64 // superblock rows completed, published atomically.
}

// newTileRowDriver returns a driver for one tile's row iteration, sharing
// the block parser and CDF state the partition walker mutates.
func newTileRowDriver(bp *blockParser, seq *SeqHeader, fh *FrameHeader, tileColStart, tileColEnd, frameWidth4, frameHeight4 int) *tileRowDriver {
	sb4 := 16
	if seq.Use128x128Superblock {
		sb4 = 32
	}
	return &tileRowDriver{
		bp:           bp,
		walk:         newPartitionWalker(bp, seq, frameWidth4, frameHeight4),
		cdf:          bp.cdf,
		msac:         bp.msac,
		fh:           fh,
		seq:          seq,
		sbSize4:      sb4,
		tileColStart: tileColStart,
		tileColEnd:   tileColEnd,
		frameWidth4:  frameWidth4,
		frameHeight4: frameHeight4,
	}
}

// Progress returns the number of superblock rows this driver has
// completed so far, safe to call from another goroutine.
func (d *tileRowDriver) Progress() int64 {
	return atomic.LoadInt64(&d.progress)
}

// decodeRow parses every superblock in the tile row starting at 4x4 row
// sbRowY, left to right across the tile's column range, per §4.H.
func (d *tileRowDriver) decodeRow(sbRowY int) error {
	for x := d.tileColStart; x < d.tileColEnd; x += d.sbSize4 {
		d.bp.cdefIdx = d.bp.cdefIdx[:0]
		d.bp.sbOriginX = x
		d.bp.sbOriginY = sbRowY

		for plane := 0; plane < 3; plane++ {
			if d.fh.LR.Type[plane] == restoreNone {
				continue
			}
			if err := d.maybeDecodeRestUnit(plane, x, sbRowY); err != nil {
				return err
			}
		}

		bl := bl64
		if d.seq.Use128x128Superblock {
			bl = bl128
		}
		if err := d.walk.decodePartition(x, sbRowY, bl); err != nil {
			return err
		}
	}
	atomic.AddInt64(&d.progress, 1)
	return nil
}

// maybeDecodeRestUnit conditionally parses one loop-restoration unit for
// plane at the superblock whose top-left 4x4 corner is (x, y): only when
// the superblock aligns to that plane's restoration-unit grid and lies
// sufficiently inside the frame, applying the half_unit round-half-up rule
// at the bottom/right edges (only when there is more than one unit in that
// dimension), per §4.H.
func (d *tileRowDriver) maybeDecodeRestUnit(plane, x, y int) error {
	unitSize4 := 16 << uint(d.fh.LR.UnitShift)
	if plane > 0 {
		unitSize4 = 16 << uint(d.fh.LR.UVShift)
	}
	if x%unitSize4 != 0 || y%unitSize4 != 0 {
		return nil
	}

	unitsWide := (d.frameWidth4 + unitSize4 - 1) / unitSize4
	unitsTall := (d.frameHeight4 + unitSize4 - 1) / unitSize4
	if unitsWide > 1 && x+unitSize4/2 >= d.frameWidth4 {
		return nil // half_unit round-half-up: the trailing partial column merges left.
	}
	if unitsTall > 1 && y+unitSize4/2 >= d.frameHeight4 {
		return nil
	}

	kind := d.fh.LR.Type[plane]
	var unit restUnitParams
	if kind == restoreSwitchable {
		v := d.msac.DecodeSymbolAdapt(d.cdf.RestoreType[:], 2)
		unit.Type = restorationType(v)
	} else {
		unit.Type = kind
	}

	prev := d.state.prevRestUnit[plane]
	switch unit.Type {
	case restoreWiener:
		for axis := 0; axis < 2; axis++ {
			for tap := 0; tap < 3; tap++ {
				ref := prev.WienerTap[axis][tap]
				unit.WienerTap[axis][tap] = d.msac.DecodeSubexp(ref, 1, 4)
			}
		}
	case restoreSgrproj:
		unit.SgrSet = d.msac.DecodeBools(4)
		unit.SgrXqd[0] = d.msac.DecodeSubexp(prev.SgrXqd[0], 1, 4)
		unit.SgrXqd[1] = d.msac.DecodeSubexp(prev.SgrXqd[1], 1, 4)
	}
	d.state.prevRestUnit[plane] = unit
	return d.msac.Err()
}
