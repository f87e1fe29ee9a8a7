/*
DESCRIPTION
  framehdr.go provides the structure and parser for a Frame Header OBU: the
  per-frame dimensions, quantiser, segmentation, loop-filter, CDEF,
  restoration, transform mode, reference indices, tile grid and global
  motion state enumerated in section 3 of the parsing core's data model.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
  mrmod <mcmoranbjr@gmail.com>
*/

package av1dec

import (
	"bytes"
	"fmt"

	"github.com/ausocean/av1dec/codec/av1/av1dec/bits"
)

// frameType enumerates the frame_type field.
type frameType uint8

// Frame type constants.
const (
	frameKey frameType = iota
	frameInter
	frameIntraOnly
	frameSwitch
)

const primaryRefNone = 7
const numRefFrames = 8
const refsPerFrame = 7

// SegmentationParams holds the per-frame segmentation state: enabled,
// update-map, temporal, preskip, per-segment feature data, last-active-id,
// per section 3's frame-header data model.
type SegmentationParams struct {
	Enabled         bool
	UpdateMap       bool
	TemporalUpdate  bool
	UpdateData      bool
	FeatureEnabled  [8][8]bool
	FeatureData     [8][8]int
	LastActiveSegID int
	PreSkip         bool
}

// LoopFilterParams holds the per-frame loop-filter levels and mode/ref
// deltas.
type LoopFilterParams struct {
	Level        [4]uint8
	Sharpness    uint8
	DeltaEnabled bool
	RefDeltas    [numRefFrames]int
	ModeDeltas   [2]int
}

// CDEFParams holds the per-frame CDEF strengths.
type CDEFParams struct {
	DampingMinus3  uint8
	BitsLog2       uint8
	YPriStrength   [8]uint8
	YSecStrength   [8]uint8
	UVPriStrength  [8]uint8
	UVSecStrength  [8]uint8
}

// restorationType enumerates a plane's loop-restoration kind.
type restorationType uint8

// Loop-restoration kind constants.
const (
	restoreNone restorationType = iota
	restoreWiener
	restoreSgrproj
	restoreSwitchable
)

// LRParams holds the per-plane loop-restoration kind and unit size.
type LRParams struct {
	Type       [3]restorationType
	UnitShift  uint8
	UVShift    uint8
}

// txMode enumerates the frame-wide transform-size selection policy.
type txMode uint8

// Transform mode constants.
const (
	txModeOnly4x4 txMode = iota
	txModeLargest
	txModeSelect
)

// GlobalMotionParams holds one reference's global-motion model.
type GlobalMotionParams struct {
	Type   uint8 // IDENTITY, TRANSLATION, ROTZOOM, AFFINE.
	Params [6]int32
}

// gmIdentity is GlobalMotionParams.Type's no-motion value.
const gmIdentity = 0

// globalTranslation extracts the translation-only component of a
// global-motion model, the simplified form the reference-MV engine's
// GLOBALMV mode needs: full per-pixel ROTZOOM/AFFINE warp belongs to the
// local-warp path (deriveLocalWarp/warp.go), not this translation lookup.
func globalTranslation(p GlobalMotionParams) mv {
	if p.Type == gmIdentity {
		return mv{}
	}
	return mv{Row: p.Params[1] >> 13, Col: p.Params[0] >> 13}
}

// frameGlobalMotion adapts a frame header's global-motion model array to
// the reference-MV engine's globalMotionPlane interface, used to seed
// GLOBALMV block decoding (§4.E). ref follows readSingleRef's 0..6
// simplified convention, offset by one to reach GlobalMotion's 1..7
// (LAST..ALTREF) slots; bx/by are ignored, matching the translation-only
// simplification above.
type frameGlobalMotion struct {
	models *[numRefFrames]GlobalMotionParams
}

func (g frameGlobalMotion) globalMV(ref int, bx, by int) mv {
	idx := ref + 1
	if g.models == nil || idx < 1 || idx >= numRefFrames {
		return mv{}
	}
	return globalTranslation(g.models[idx])
}

// TileInfo holds the tile grid: log2 column/row counts and the start
// superblock of each column/row.
type TileInfo struct {
	Log2Cols    int
	Log2Rows    int
	ColStartSb  []int
	RowStartSb  []int
	ContextUpdateTileID int
	TileSizeBytes       int
}

// FrameHeader describes a Frame Header OBU (or the frame_header portion of
// a combined FRAME OBU).
type FrameHeader struct {
	ShowExistingFrame bool
	FrameToShowMapIdx uint8

	Type               frameType
	ShowFrame          bool
	ShowableFrame      bool
	ErrorResilientMode bool
	DisableCDFUpdate   bool

	AllowScreenContentTools bool
	ForceIntegerMV          bool
	AllowHighPrecisionMV    bool

	CurrentFrameID int

	FrameSizeOverrideFlag bool
	OrderHint             int
	PrimaryRefFrame       uint8

	RefreshFrameFlags uint8
	RefFrameIdx       [refsPerFrame]int8
	OrderHints        [numRefFrames]int

	FrameWidth  int
	FrameHeight int
	RenderWidth int
	RenderHeight int
	SuperresDenom int

	AllowIntrabc bool

	InterpolationFilter uint8
	IsFilterSwitchable  bool
	IsMotionModeSwitchable bool
	UseRefFrameMVs      bool

	DisableFrameEndUpdateCDF bool

	Tiles TileInfo

	BaseQIdx       int
	DeltaQYDc      int
	DeltaQUDc      int
	DeltaQUAc      int
	DeltaQVDc      int
	DeltaQVAc      int
	UsingQMatrix   bool

	Segmentation SegmentationParams

	DeltaQPresent bool
	DeltaQRes     uint8
	DeltaLFPresent bool
	DeltaLFRes     uint8
	DeltaLFMulti   bool

	LoopFilter LoopFilterParams
	CDEF       CDEFParams
	LR         LRParams

	TxMode txMode

	ReferenceSelect bool
	SkipModePresent bool
	SkipModeFrame   [2]uint8

	AllowWarpedMotion bool
	ReducedTxSet      bool

	GlobalMotion [numRefFrames]GlobalMotionParams
}

// NewFrameHeader parses a Frame Header OBU payload against the governing
// sequence header, and returns it as a new FrameHeader.
func NewFrameHeader(payload []byte, seq *SeqHeader) (*FrameHeader, error) {
	br := bits.NewBitReader(bytes.NewReader(payload))
	return NewFrameHeaderFromReader(br, seq)
}

// NewFrameHeaderFromReader parses an uncompressed_header() from br against
// the governing sequence header, returning it as a new FrameHeader. Unlike
// NewFrameHeader, the caller keeps br afterwards, so it can resume reading
// (byte_alignment() then a tile_group_obu()) from the same position — the
// OBU_FRAME case, where a frame header and its tile group share one OBU
// payload.
func NewFrameHeaderFromReader(br *bits.BitReader, seq *SeqHeader) (*FrameHeader, error) {
	f := &FrameHeader{}
	r := newFieldReader(br)

	idLen := 0
	if seq.FrameIDNumbersPresentFlag {
		idLen = int(seq.AdditionalFrameIDLenMinus1) + int(seq.DeltaFrameIDLengthMinus2) + 3
	}

	if seq.ReducedStillPictureHeader {
		f.Type = frameKey
		f.ShowFrame = true
		f.ShowableFrame = false
	} else {
		f.ShowExistingFrame = r.readBit()
		if f.ShowExistingFrame {
			f.FrameToShowMapIdx = uint8(r.readBits(3))
			if seq.FrameIDNumbersPresentFlag {
				r.readBits(idLen) // display_frame_id.
			}
			if r.err() != nil {
				return nil, fmt.Errorf("error from fieldReader: %v", r.err())
			}
			return f, nil
		}
		f.Type = frameType(r.readBits(2))
		f.ShowFrame = r.readBit()
		if !f.ShowFrame {
			f.ShowableFrame = r.readBit()
		} else {
			f.ShowableFrame = f.Type != frameKey
		}
		if f.Type == frameSwitch || (f.Type == frameKey && f.ShowFrame) {
			f.ErrorResilientMode = true
		} else {
			f.ErrorResilientMode = r.readBit()
		}
	}

	f.DisableCDFUpdate = r.readBit()

	if seq.SeqForceScreenContentTools == 2 {
		f.AllowScreenContentTools = r.readBit()
	} else {
		f.AllowScreenContentTools = seq.SeqForceScreenContentTools != 0
	}
	if f.AllowScreenContentTools {
		if seq.SeqForceIntegerMV == 2 {
			f.ForceIntegerMV = r.readBit()
		} else {
			f.ForceIntegerMV = seq.SeqForceIntegerMV != 0
		}
	}
	if frameIsIntra(f.Type) {
		f.ForceIntegerMV = true
	}

	if seq.FrameIDNumbersPresentFlag {
		f.CurrentFrameID = int(r.readBits(idLen))
	}

	if f.Type == frameSwitch {
		f.FrameSizeOverrideFlag = true
	} else if !seq.ReducedStillPictureHeader {
		f.FrameSizeOverrideFlag = r.readBit()
	}

	f.OrderHint = int(r.readBits(int(seq.OrderHintBits)))

	if frameIsIntra(f.Type) || f.ErrorResilientMode {
		f.PrimaryRefFrame = primaryRefNone
	} else {
		f.PrimaryRefFrame = uint8(r.readBits(3))
	}

	if !frameIsIntra(f.Type) {
		f.RefreshFrameFlags = 0xff
	}
	if f.Type == frameKey || f.Type == frameIntraOnly {
		if !(f.Type == frameKey && f.ShowFrame) {
			f.RefreshFrameFlags = uint8(r.readBits(8))
		} else {
			f.RefreshFrameFlags = 0xff
		}
	} else if f.Type != frameSwitch {
		f.RefreshFrameFlags = uint8(r.readBits(8))
	}

	if frameIsIntra(f.Type) {
		if err := parseFrameSize(r, f, seq); err != nil {
			return nil, err
		}
		if f.AllowScreenContentTools && f.FrameWidth == f.UpscaledWidth() {
			f.AllowIntrabc = r.readBit()
		}
	} else {
		for i := 0; i < refsPerFrame; i++ {
			f.RefFrameIdx[i] = int8(r.readBits(3))
			if seq.FrameIDNumbersPresentFlag {
				r.readBits(int(seq.DeltaFrameIDLengthMinus2) + 2)
			}
		}
		if f.FrameSizeOverrideFlag && !f.ErrorResilientMode {
			r.readBit() // found_ref, simplified: assumes not found, frame_size() follows.
		}
		if err := parseFrameSize(r, f, seq); err != nil {
			return nil, err
		}
		if seq.EnableOrderHint {
			f.IsFilterSwitchable = true
		}
		f.InterpolationFilter = uint8(r.readBits(2))
		if f.InterpolationFilter == 4 { // SWITCHABLE.
			f.IsFilterSwitchable = true
		}
		if f.ForceIntegerMV {
			f.AllowHighPrecisionMV = false
		} else {
			f.AllowHighPrecisionMV = r.readBit()
		}
		f.IsMotionModeSwitchable = r.readBit()
		if !(f.ErrorResilientMode || !seq.EnableRefFrameMVs) {
			f.UseRefFrameMVs = r.readBit()
		}
	}

	if !seq.ReducedStillPictureHeader && !f.DisableCDFUpdate {
		f.DisableFrameEndUpdateCDF = r.readBit()
	} else {
		f.DisableFrameEndUpdateCDF = true
	}

	if err := parseTileInfo(r, f, seq); err != nil {
		return nil, err
	}
	if err := parseQuantizationParams(r, f, seq); err != nil {
		return nil, err
	}
	if err := parseSegmentationParams(r, f); err != nil {
		return nil, err
	}
	if err := parseDeltaQParams(r, f); err != nil {
		return nil, err
	}
	if err := parseDeltaLFParams(r, f); err != nil {
		return nil, err
	}
	if err := parseLoopFilterParams(r, f, seq); err != nil {
		return nil, err
	}
	if err := parseCDEFParams(r, f, seq); err != nil {
		return nil, err
	}
	if err := parseLRParams(r, f, seq); err != nil {
		return nil, err
	}
	if err := parseTxMode(r, f); err != nil {
		return nil, err
	}

	if !frameIsIntra(f.Type) {
		f.ReferenceSelect = r.readBit()
	}

	if err := parseSkipModeParams(r, f, seq); err != nil {
		return nil, err
	}

	if !frameIsIntra(f.Type) && !f.ErrorResilientMode && seq.EnableWarpedMotion {
		f.AllowWarpedMotion = r.readBit()
	}
	f.ReducedTxSet = r.readBit()

	if !frameIsIntra(f.Type) {
		if err := parseGlobalMotionParams(r, f); err != nil {
			return nil, err
		}
	}

	if r.err() != nil {
		return nil, fmt.Errorf("error from fieldReader: %v", r.err())
	}
	return f, nil
}

// frameIsIntra reports whether t is one of the two intra frame types.
func frameIsIntra(t frameType) bool {
	return t == frameKey || t == frameIntraOnly
}

// UpscaledWidth returns the frame's pre-superres-downscale width, used by
// the allow_intrabc gating condition and by the reconstruction collaborator
// for superres upsampling.
func (f *FrameHeader) UpscaledWidth() int {
	return f.FrameWidth
}

func parseFrameSize(r *fieldReader, f *FrameHeader, seq *SeqHeader) error {
	if f.FrameSizeOverrideFlag {
		f.FrameWidth = int(r.readBits(int(seq.FrameWidthBitsMinus1)+1)) + 1
		f.FrameHeight = int(r.readBits(int(seq.FrameHeightBitsMinus1)+1)) + 1
	} else {
		f.FrameWidth = seq.MaxFrameWidth
		f.FrameHeight = seq.MaxFrameHeight
	}
	if seq.EnableSuperres {
		useSuperres := r.readBit()
		if useSuperres {
			f.SuperresDenom = int(r.readBits(3)) + 9 // SUPERRES_DENOM_MIN.
		} else {
			f.SuperresDenom = 8 // SUPERRES_NUM.
		}
	} else {
		f.SuperresDenom = 8
	}
	renderAndFrameSizeDiffer := r.readBit()
	if renderAndFrameSizeDiffer {
		f.RenderWidth = int(r.readBits(16)) + 1
		f.RenderHeight = int(r.readBits(16)) + 1
	} else {
		f.RenderWidth = f.FrameWidth
		f.RenderHeight = f.FrameHeight
	}
	return r.err()
}

func parseTileInfo(r *fieldReader, f *FrameHeader, seq *SeqHeader) error {
	sbSize := 64
	if seq.Use128x128Superblock {
		sbSize = 128
	}
	sbCols := (f.FrameWidth + sbSize - 1) / sbSize
	sbRows := (f.FrameHeight + sbSize - 1) / sbSize

	uniform := r.readBit()
	if uniform {
		f.Tiles.Log2Cols = tileLog2(1, sbCols)
		f.Tiles.Log2Rows = tileLog2(1, sbRows)
		for i := 0; i < (1 << uint(f.Tiles.Log2Cols)); i++ {
			f.Tiles.ColStartSb = append(f.Tiles.ColStartSb, i*sbCols>>uint(f.Tiles.Log2Cols))
		}
		f.Tiles.ColStartSb = append(f.Tiles.ColStartSb, sbCols)
		for i := 0; i < (1 << uint(f.Tiles.Log2Rows)); i++ {
			f.Tiles.RowStartSb = append(f.Tiles.RowStartSb, i*sbRows>>uint(f.Tiles.Log2Rows))
		}
		f.Tiles.RowStartSb = append(f.Tiles.RowStartSb, sbRows)
	} else {
		// Explicit tile-width/height lists are not parsed: the frame is
		// treated as a single tile in each dimension, and no
		// widthInSbsMinus1 / heightInSbsMinus1 bits are read.
		f.Tiles.ColStartSb = []int{0, sbCols}
		f.Tiles.RowStartSb = []int{0, sbRows}
	}

	numTiles := (len(f.Tiles.ColStartSb) - 1) * (len(f.Tiles.RowStartSb) - 1)
	if numTiles > 1 {
		f.Tiles.ContextUpdateTileID = int(r.readBits(f.Tiles.Log2Cols + f.Tiles.Log2Rows))
		f.Tiles.TileSizeBytes = int(r.readBits(2)) + 1
	}
	return r.err()
}

// tileLog2 returns the smallest k such that (blkSize << k) >= target.
func tileLog2(blkSize, target int) int {
	k := 0
	for (blkSize << uint(k)) < target {
		k++
	}
	return k
}

func parseQuantizationParams(r *fieldReader, f *FrameHeader, seq *SeqHeader) error {
	f.BaseQIdx = int(r.readBits(8))
	f.DeltaQYDc = readDeltaQ(r)
	if !seq.ColorConfig.MonoChrome {
		diffUVDelta := false
		if seq.ColorConfig.SeparateUVDeltaQ {
			diffUVDelta = r.readBit()
		}
		f.DeltaQUDc = readDeltaQ(r)
		f.DeltaQUAc = readDeltaQ(r)
		if diffUVDelta {
			f.DeltaQVDc = readDeltaQ(r)
			f.DeltaQVAc = readDeltaQ(r)
		} else {
			f.DeltaQVDc = f.DeltaQUDc
			f.DeltaQVAc = f.DeltaQUAc
		}
	}
	f.UsingQMatrix = r.readBit()
	if f.UsingQMatrix {
		r.readBits(4) // qm_y.
		r.readBits(4) // qm_u.
		if seq.ColorConfig.SeparateUVDeltaQ {
			r.readBits(4) // qm_v.
		}
	}
	return r.err()
}

func readDeltaQ(r *fieldReader) int {
	if r.readBit() {
		return int(r.readSigned(6))
	}
	return 0
}

func parseSegmentationParams(r *fieldReader, f *FrameHeader) error {
	s := &f.Segmentation
	s.Enabled = r.readBit()
	if s.Enabled {
		if f.PrimaryRefFrame == primaryRefNone {
			s.UpdateMap = true
			s.TemporalUpdate = false
			s.UpdateData = true
		} else {
			s.UpdateMap = r.readBit()
			if s.UpdateMap {
				s.TemporalUpdate = r.readBit()
			}
			s.UpdateData = r.readBit()
		}
		if s.UpdateData {
			segFeatureBits := [8]int{1, 1, 1, 1, 1, 0, 0, 0}
			segFeatureSigned := [8]bool{true, true, true, true, false, false, false, false}
			segFeatureMax := [8]int{255, 63, 63, 63, 255, 0, 0, 0}
			for i := 0; i < 8; i++ {
				for j := 0; j < 8; j++ {
					enabled := r.readBit()
					s.FeatureEnabled[i][j] = enabled
					if !enabled {
						continue
					}
					bitsN := segFeatureBits[j]
					limit := segFeatureMax[j]
					if bitsN == 0 {
						continue
					}
					var v int
					if segFeatureSigned[j] {
						v = int(r.readSigned(bitsN))
						if v < -limit {
							v = -limit
						}
						if v > limit {
							v = limit
						}
					} else {
						v = int(r.readBits(bitsN))
						if v > limit {
							v = limit
						}
					}
					s.FeatureData[i][j] = v
				}
			}
		}
	}
	s.LastActiveSegID = 0
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if s.FeatureEnabled[i][j] && i > s.LastActiveSegID {
				s.LastActiveSegID = i
			}
		}
	}
	return r.err()
}

func parseDeltaQParams(r *fieldReader, f *FrameHeader) error {
	if f.BaseQIdx > 0 {
		f.DeltaQPresent = r.readBit()
	}
	if f.DeltaQPresent {
		f.DeltaQRes = uint8(r.readBits(2))
	}
	return r.err()
}

func parseDeltaLFParams(r *fieldReader, f *FrameHeader) error {
	if f.DeltaQPresent {
		if !f.AllowIntrabc {
			f.DeltaLFPresent = r.readBit()
		}
		if f.DeltaLFPresent {
			f.DeltaLFRes = uint8(r.readBits(2))
			f.DeltaLFMulti = r.readBit()
		}
	}
	return r.err()
}

func parseLoopFilterParams(r *fieldReader, f *FrameHeader, seq *SeqHeader) error {
	if f.AllowIntrabc {
		f.LoopFilter.RefDeltas = [numRefFrames]int{1, 0, 0, 0, 0, -1, -1, -1}
		return nil
	}
	lf := &f.LoopFilter
	lf.Level[0] = uint8(r.readBits(6))
	lf.Level[1] = uint8(r.readBits(6))
	if !seq.ColorConfig.MonoChrome && (lf.Level[0] != 0 || lf.Level[1] != 0) {
		lf.Level[2] = uint8(r.readBits(6))
		lf.Level[3] = uint8(r.readBits(6))
	}
	lf.Sharpness = uint8(r.readBits(3))
	lf.DeltaEnabled = r.readBit()
	if lf.DeltaEnabled {
		if r.readBit() { // delta_update.
			for i := 0; i < numRefFrames; i++ {
				if r.readBit() {
					lf.RefDeltas[i] = int(r.readSigned(6))
				}
			}
			for i := 0; i < 2; i++ {
				if r.readBit() {
					lf.ModeDeltas[i] = int(r.readSigned(6))
				}
			}
		}
	}
	return r.err()
}

func parseCDEFParams(r *fieldReader, f *FrameHeader, seq *SeqHeader) error {
	if f.AllowIntrabc || !seq.EnableCDEF {
		f.CDEF.BitsLog2 = 0
		f.CDEF.YPriStrength[0] = 0
		return nil
	}
	c := &f.CDEF
	c.DampingMinus3 = uint8(r.readBits(2))
	c.BitsLog2 = uint8(r.readBits(2))
	n := 1 << c.BitsLog2
	for i := 0; i < n; i++ {
		c.YPriStrength[i] = uint8(r.readBits(4))
		c.YSecStrength[i] = uint8(r.readBits(2))
		if c.YSecStrength[i] == 3 {
			c.YSecStrength[i]++
		}
		if !seq.ColorConfig.MonoChrome {
			c.UVPriStrength[i] = uint8(r.readBits(4))
			c.UVSecStrength[i] = uint8(r.readBits(2))
			if c.UVSecStrength[i] == 3 {
				c.UVSecStrength[i]++
			}
		}
	}
	return r.err()
}

func parseLRParams(r *fieldReader, f *FrameHeader, seq *SeqHeader) error {
	if f.AllowIntrabc || !seq.EnableRestoration {
		return nil
	}
	usesLR := false
	usesChromaLR := false
	for i := 0; i < 3; i++ {
		t := restorationType(r.readBits(2))
		f.LR.Type[i] = t
		if t != restoreNone {
			usesLR = true
			if i > 0 {
				usesChromaLR = true
			}
		}
	}
	if usesLR {
		if seq.Use128x128Superblock {
			f.LR.UnitShift = uint8(r.readBits(1)) + 1
		} else {
			f.LR.UnitShift = uint8(r.readBits(1))
			if f.LR.UnitShift != 0 {
				f.LR.UnitShift += uint8(r.readBits(1))
			}
		}
		f.LR.UVShift = 0
		if seq.ColorConfig.Subsampling == chroma420 && usesChromaLR {
			f.LR.UVShift = uint8(r.readBits(1))
		}
	}
	return r.err()
}

func parseTxMode(r *fieldReader, f *FrameHeader) error {
	if r.readBit() {
		f.TxMode = txModeSelect
	} else {
		f.TxMode = txModeLargest
	}
	return r.err()
}

func parseSkipModeParams(r *fieldReader, f *FrameHeader, seq *SeqHeader) error {
	skipModeAllowed := false
	if !frameIsIntra(f.Type) && seq.EnableOrderHint && !f.ErrorResilientMode {
		skipModeAllowed = true
	}
	if skipModeAllowed {
		f.SkipModePresent = r.readBit()
	}
	return r.err()
}

func parseGlobalMotionParams(r *fieldReader, f *FrameHeader) error {
	for ref := 1; ref < numRefFrames; ref++ {
		f.GlobalMotion[ref].Type = 0 // IDENTITY.
		isGlobal := r.readBit()
		if !isGlobal {
			continue
		}
		isRotZoom := r.readBit()
		var typ uint8 = 2 // ROTZOOM.
		if !isRotZoom {
			isTranslation := r.readBit()
			if isTranslation {
				typ = 1 // TRANSLATION.
			} else {
				typ = 3 // AFFINE.
			}
		}
		f.GlobalMotion[ref].Type = typ
		n := 2
		if typ >= 2 {
			n = 4
		}
		if typ == 3 {
			n = 6
		}
		for i := 0; i < n; i++ {
			f.GlobalMotion[ref].Params[i] = int32(r.readSubExp(0, 1<<16))
		}
		if r.err() != nil {
			return r.err()
		}
	}
	return nil
}
