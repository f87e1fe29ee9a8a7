/*
DESCRIPTION
  mvpred.go provides the reference-MV candidate engine: spatial and
  temporal motion-vector prediction used to seed NEARESTMV/NEARMV/NEWMV
  decoding and to derive the newmv/zeromv/refmv block-parser contexts.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
  mrmod <mcmoranbjr@gmail.com>
*/

package av1dec

// maxRefMVStack is the candidate stack's capacity, per the reference-MV
// engine's "up to 8" bound.
const maxRefMVStack = 8

// mv is a quarter-pel motion vector, row then column, matching the AV1
// spec's (mv[0], mv[1]) ordering.
type mv struct {
	Row, Col int32
}

// add returns the sum of two motion vectors.
func (a mv) add(b mv) mv {
	return mv{Row: a.Row + b.Row, Col: a.Col + b.Col}
}

// refMVCandidate is one entry of the candidate stack: a motion vector for
// each of up to two reference frames, and its accumulated weight.
type refMVCandidate struct {
	ThisMV mv
	CompMV mv
	Weight int
}

// refMVStack accumulates candidates during the spatial/temporal scan and
// exposes the engine's final outputs: the merged candidate list plus the
// newmv/zeromv/refmv contexts and the two shortlist MVs used to seed
// NEARESTMV/NEARMV.
type refMVStack struct {
	candidates      []refMVCandidate
	newMVCount      int
	foundMatch      bool
	closeMatches    int
	totalMatches    int
}

// globalMotionPlane exposes the subset of a frame's global-motion state
// the reference-MV engine needs: the model for a given reference index.
type globalMotionPlane interface {
	globalMV(ref int, bx, by int) mv
}

// tileBounds clips row/col candidate positions to a tile's decoded extent,
// per the engine's "row/col bounds clipping at tile edges" requirement.
type tileBounds struct {
	MinRow4, MaxRow4 int
	MinCol4, MaxCol4 int
}

func (b tileBounds) contains(row4, col4 int) bool {
	return row4 >= b.MinRow4 && row4 < b.MaxRow4 && col4 >= b.MinCol4 && col4 < b.MaxCol4
}

// newRefMVStack returns an empty candidate accumulator ready for a spatial
// scan over one block.
func newRefMVStack() *refMVStack {
	return &refMVStack{}
}

// addCandidate merges cand into the stack: if an existing entry has the
// same MV pair, its weight is increased instead of inserting a duplicate,
// per the engine's "duplicates merged and weighted" requirement. The
// search is linear since the stack is capped at maxRefMVStack entries.
func (s *refMVStack) addCandidate(cand refMVCandidate) {
	for i := range s.candidates {
		if s.candidates[i].ThisMV == cand.ThisMV && s.candidates[i].CompMV == cand.CompMV {
			s.candidates[i].Weight += cand.Weight
			return
		}
	}
	if len(s.candidates) >= maxRefMVStack {
		return
	}
	s.candidates = append(s.candidates, cand)
}

// spatialMatch reports whether neighbour unit u is a usable candidate for
// refFrame: its stored reference must match, and for the intrabc pseudo
// reference (-1) the unit must itself have been decoded as intrabc, since
// an absent/unfilled neighbour also defaults to refFrame -1.
func spatialMatch(u neighbourUnit, refFrame int8) bool {
	if u.refFrame != refFrame {
		return false
	}
	if refFrame == -1 {
		return u.intrabc
	}
	return true
}

// scanSpatial walks the block's top edge (y-1 row, x..x+bw4-1 columns) and
// left edge (x-1 column, y..y+bh4-1 rows) at 4x4 granularity in the AV1
// priority order (top row right-to-left bias before left column), adding a
// candidate for every neighbour whose reference frame matches refFrame,
// that falls within the tile's decoded bounds. bounds rejects neighbours
// outside the current tile (frame boundary, or a not-yet-decoded tile),
// matching the engine's row/col clipping requirement.
func (s *refMVStack) scanSpatial(ctx *tileContext, bounds tileBounds, x, y, bw4, bh4 int, refFrame int8) {
	for i := bw4 - 1; i >= 0; i-- {
		row4, col4 := y-1, x+i
		if !bounds.contains(row4, col4) {
			continue
		}
		above := ctx.aboveAt(col4)
		if !spatialMatch(above, refFrame) {
			continue
		}
		s.foundMatch = true
		s.totalMatches++
		if i == bw4-1 {
			s.closeMatches++
		}
		s.addCandidate(refMVCandidate{ThisMV: above.mv, Weight: 2})
	}
	for i := 0; i < bh4; i++ {
		row4, col4 := y+i, x-1
		if !bounds.contains(row4, col4) {
			continue
		}
		left := ctx.leftAt(row4)
		if !spatialMatch(left, refFrame) {
			continue
		}
		s.foundMatch = true
		s.totalMatches++
		if i == 0 {
			s.closeMatches++
		}
		s.addCandidate(refMVCandidate{ThisMV: left.mv, Weight: 2})
	}
}

// temporalSource exposes a reference frame's saved motion field at 4x4
// granularity, for the temporal-projection stage of the reference-MV scan.
type temporalSource struct {
	mvs    []mv
	stride int
}

// at returns the saved motion vector at 4x4 position (row4, col4), or
// ok=false if that position was never stamped with a non-zero vector (an
// all-zero stored entry is treated as "no candidate", the same convention
// the intrabc zero-mv fallback already relies on) or falls outside the
// stored plane.
func (t *temporalSource) at(row4, col4 int) (mv, bool) {
	if t == nil || t.mvs == nil {
		return mv{}, false
	}
	if row4 < 0 || col4 < 0 || t.stride <= 0 {
		return mv{}, false
	}
	idx := row4*t.stride + col4
	if idx < 0 || idx >= len(t.mvs) {
		return mv{}, false
	}
	v := t.mvs[idx]
	if v == (mv{}) {
		return mv{}, false
	}
	return v, true
}

// scanTemporal projects the order-hint-nearest reference's saved motion
// field onto the current block, clipped to +/-(512<<sb128) per the
// engine's temporal-projection bound. sb128 is 1 when the sequence uses
// 128x128 superblocks, 0 otherwise.
func (s *refMVStack) scanTemporal(projected mv, sb128 int, weight int) {
	bound := int32(512 << uint(sb128))
	projected.Row = int32(clip3(int(-bound), int(bound), int(projected.Row)))
	projected.Col = int32(clip3(int(-bound), int(bound), int(projected.Col)))
	s.addCandidate(refMVCandidate{ThisMV: projected, Weight: weight})
}

// context returns the newmv/zeromv/refmv CDF context indices derived from
// the scan's match counts, per the block parser's inter-mode contexts.
func (s *refMVStack) context() (newMVCtx, refMVCtx int) {
	switch {
	case s.closeMatches == 0:
		newMVCtx = 0
	case s.closeMatches == 1:
		newMVCtx = 1
	default:
		newMVCtx = 2
	}
	switch {
	case s.totalMatches == 0:
		refMVCtx = 0
	case s.totalMatches < 2:
		refMVCtx = 1
	default:
		refMVCtx = 2
	}
	return
}

// shortlist returns the two candidate MVs used to seed NEARESTMV and
// NEARMV, padding with the zero vector if the stack has fewer than two
// entries.
func (s *refMVStack) shortlist() (nearest, near mv) {
	if len(s.candidates) > 0 {
		nearest = s.candidates[0].ThisMV
	}
	if len(s.candidates) > 1 {
		near = s.candidates[1].ThisMV
	}
	return
}
