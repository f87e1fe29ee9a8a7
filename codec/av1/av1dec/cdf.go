/*
DESCRIPTION
  cdf.go implements the per-tile CDF table: a value-typed bundle of every
  adaptive-CDF array the block parser and tile-row driver consult, with the
  clone/mutate/publish lifecycle described in section 4.C — initialize from
  baseline constants or a reference slot, clone into each tile's working
  copy, mutate during parsing, and optionally publish (after averaging) as
  the frame's output CDF.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package av1dec

import "reflect"

// CDFTable is a value-typed bundle of all per-context CDF arrays used by
// the block parser (§4.F), the partition walker (§4.G) and the tile-row
// driver (§4.H). It is deliberately a plain struct of arrays rather than a
// map, so that cloning it is a single shallow struct copy (Go arrays, as
// opposed to slices, copy by value). Every field is a fixed-size [N]uint16
// array or an array of such, which Average walks generically via
// reflection rather than enumerating each field by hand.
type CDFTable struct {
	Partition       [4][11]uint16 // indexed by block-level context; 10 shapes (4.G).
	Skip            [3][2]uint16 // indexed by neighbour-skip context; each entry is prob+counter.
	IntraYMode      [14]uint16
	IntraYModeKey   [5][5][14]uint16 // above/left intra-mode indexed, key and intra-only frames.
	UVMode          [2][15]uint16    // indexed by cfl allowed; 14 symbols (13 directional/smooth/paeth modes + CFL).
	AngleDelta      [8][8]uint16     // indexed by directional y-mode.
	CflSign         [9]uint16
	CflAlpha        [6][17]uint16
	PaletteYMode    [7][3][3]uint16
	PaletteUVMode   [2][3]uint16
	PaletteSizeY    [7][8]uint16 // indexed by bsize group; 7 sizes (2..8).
	PaletteSizeUV   [7][8]uint16
	FilterIntra     [22][3]uint16 // indexed by block size.
	TxSize          [3][4][3]uint16
	Intra           [4][3]uint16 // inter-frame intra-decision, indexed by ctx.
	IntrabcMode     [3]uint16
	CompMode        [5][3]uint16
	CompRefType     [5][3]uint16
	SingleRef       [3][7][3]uint16
	NewMVMode       [6][3]uint16
	ZeroMVMode      [2][3]uint16
	RefMVMode       [6][3]uint16
	DRLMode         [3][3]uint16
	MotionMode      [22][4]uint16 // indexed by block size.
	InterIntra      [4][3]uint16
	InterIntraMode  [4][5][3]uint16
	WedgeInterIntra [22][3]uint16
	CompoundType    [22][3]uint16
	RestoreType     [3]uint16
	SubpelFilter    [2][4][4]uint16

	// MV residual CDFs (§4.F stages 9-10), indexed by component (0=row,
	// 1=col) where the syntax calls for a per-component context.
	MVJoint     [5]uint16
	MVSign      [2][2]uint16
	MVClass     [2][12]uint16
	MVClass0Bit [2][2]uint16
	MVClass0FR  [2][5]uint16
	MVClass0HP  [2][2]uint16
	MVBits      [2][10][2]uint16 // indexed by component, then bit position.
	MVFR        [2][5]uint16
	MVHP        [2][2]uint16

	// TxfmSplit holds the variable-tx split-tree CDFs (§4.F stage 12),
	// indexed by a depth/size context derived from the current tx node.
	TxfmSplit [5][2]uint16
}

// NewCDFTable returns a CDF table initialized to the baseline constants for
// baseQIdx. This is used when primary_ref_frame is NONE (§7: "A frame with
// primary_ref_frame=NONE initializes its CDF from the baseline table for
// its base quantiser, never from the reference store.").
func NewCDFTable(baseQIdx int) *CDFTable {
	t := &CDFTable{}
	part := baselinePartitionCDF(baseQIdx)
	for i := range t.Partition {
		t.Partition[i] = part
	}
	t.Skip = baselineSkipCDF(baseQIdx)
	t.IntraYMode = baselineIntraYModeCDF(baseQIdx)
	for i := range t.IntraYModeKey {
		for j := range t.IntraYModeKey[i] {
			t.IntraYModeKey[i][j] = t.IntraYMode
		}
	}

	t.MVJoint = baselineMVJointCDF()
	for c := range t.MVSign {
		t.MVSign[c] = baselineMVSignCDF()
		t.MVClass[c] = baselineMVClassCDF()
		t.MVClass0Bit[c] = baselineMVClass0BitCDF()
		t.MVClass0FR[c] = baselineMVClass0FRCDF()
		t.MVClass0HP[c] = baselineMVClass0HPCDF()
		t.MVFR[c] = baselineMVFRCDF()
		t.MVHP[c] = baselineMVHPCDF()
		for b := range t.MVBits[c] {
			t.MVBits[c][b] = baselineMVBitsCDF()
		}
	}
	for i := range t.TxfmSplit {
		t.TxfmSplit[i] = [2]uint16{16384, 0}
	}

	return t
}

// Clone returns an independent copy of the table, as required at the start
// of each tile (§4.C step 2): "each tile clones the input table into its
// own working copy". Because CDFTable is composed entirely of fixed-size
// arrays, a plain dereference-and-copy is sufficient and never aliases the
// source.
func (t *CDFTable) Clone() *CDFTable {
	cp := *t
	return &cp
}

// Average combines the receiver with other entry-by-entry, producing the
// publish-time averaging step named in §4.C step 4 ("after an averaging
// step"): the output CDF is the unweighted mean of the chosen tile's final
// copy and the frame's starting (input) table, rounded to the nearest
// integer probability. Every field of CDFTable reduces to nested arrays of
// uint16, so the walk is done once, generically, via reflection, rather
// than duplicated per field.
func (t *CDFTable) Average(other *CDFTable) *CDFTable {
	out := &CDFTable{}
	averageArrays(reflect.ValueOf(out).Elem(), reflect.ValueOf(t).Elem(), reflect.ValueOf(other).Elem())
	return out
}

// averageArrays walks dst/a/b in lockstep, averaging every uint16 leaf and
// recursing into nested arrays.
func averageArrays(dst, a, b reflect.Value) {
	switch dst.Kind() {
	case reflect.Array:
		for i := 0; i < dst.Len(); i++ {
			averageArrays(dst.Index(i), a.Index(i), b.Index(i))
		}
	case reflect.Uint16:
		dst.SetUint((a.Uint() + b.Uint() + 1) / 2)
	}
}
