/*
DESCRIPTION
  frame.go is the frame driver named in §4.I: it allocates the per-tile
  parsing state for one frame, drives every tile to completion (serially
  or across a shared tile pool), and resolves which tile's CDF copy
  becomes the frame's output CDF; the reference store is refreshed by
  the caller, Decoder.dispatchFrame. The
  frame-parallel ring of slots and the cross-frame CDF propagation that
  sit above this live in scheduler.go; this file is what one ring slot
  actually runs.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import (
	"fmt"
	"sync"
)

// tileGeometry describes one tile's 4x4-unit extent within the frame,
// derived from the frame header's tile grid (§3: "tiling boundaries in
// 4x4 units").
type tileGeometry struct {
	row, col               int
	colStart4, colEnd4     int
	rowStart4, rowEnd4     int
}

// tileGrid computes every tile's geometry for a frame of the given
// dimensions, per the uniform tile-grid derivation in the frame header
// (§3's "tile grid (log2 cols/rows, start-sb arrays)").
func tileGrid(seq *SeqHeader, fh *FrameHeader) []tileGeometry {
	sb4 := 16
	if seq.Use128x128Superblock {
		sb4 = 32
	}
	frameWidth4 := (fh.FrameWidth + 3) / 4
	frameHeight4 := (fh.FrameHeight + 3) / 4

	cols := 1 << uint(fh.Tiles.Log2Cols)
	rows := 1 << uint(fh.Tiles.Log2Rows)
	colStarts := fh.Tiles.ColStartSb
	rowStarts := fh.Tiles.RowStartSb
	if len(colStarts) < cols+1 {
		colStarts = uniformStarts(cols, frameWidth4, sb4)
	}
	if len(rowStarts) < rows+1 {
		rowStarts = uniformStarts(rows, frameHeight4, sb4)
	}

	grid := make([]tileGeometry, 0, rows*cols)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			g := tileGeometry{
				row:       ty,
				col:       tx,
				colStart4: mini(colStarts[tx]*sb4, frameWidth4),
				colEnd4:   mini(colStarts[tx+1]*sb4, frameWidth4),
				rowStart4: mini(rowStarts[ty]*sb4, frameHeight4),
				rowEnd4:   mini(rowStarts[ty+1]*sb4, frameHeight4),
			}
			grid = append(grid, g)
		}
	}
	return grid
}

// uniformStarts divides n superblock rows/columns spanning dim4 4x4 units
// evenly across count tiles, used when the frame header didn't carry an
// explicit start-sb array (this core's simplified uniform-tile path, see
// DESIGN.md's framehdr.go note).
func uniformStarts(count, dim4, sb4 int) []int {
	sbTotal := (dim4 + sb4 - 1) / sb4
	starts := make([]int, count+1)
	for i := 0; i <= count; i++ {
		starts[i] = i * sbTotal / count
	}
	return starts
}

// FrameResult is what decoding one frame produces for the reference store
// and, in frame-parallel pass-1 mode, for pass 2 to consume: the per-tile
// output CDF chosen for publication and the pass-1 block records.
type FrameResult struct {
	CDF     *CDFTable
	Records []*blockInfo // populated only when pass1Only is set.

	// MVPlane is this frame's decoded motion field at 4x4 granularity,
	// row-major with stride MVStride, for later frames' temporal
	// reference-MV projection (§4.E).
	MVPlane  []mv
	MVStride int
}

// FrameDriver runs the tile-row drivers for one frame, per §4.I. It holds
// no per-decoder-instance state beyond what's passed in; a single
// FrameDriver value is reused across frames.
type FrameDriver struct {
	// Recon is the bit-depth-selected reconstruction kernel bundle (§9's
	// "deep vtable-per-bit-depth", picked once per frame). May hold
	// noopReconstructor values for a parse-only run.
	Recon bitDepthKernels

	// Tiles is the shared tile-worker pool (§5's tile pool). Nil means
	// single-threaded: every tile decodes serially on the calling
	// goroutine, matching n_tc=1.
	Tiles *tilePool
}

// DecodeFrame parses every tile of one frame's compressed payload and
// returns the frame's output CDF (nil if the frame disables context
// update) and, when pass1Only is set, the full per-block record array for
// a later pass 2 to consume (§4.I's two-pass frame-parallel mode).
//
// tilePayloads must have exactly 1<<Log2Cols * 1<<Log2Rows entries, one
// per tile in raster order, matching the OBU tile-group's tile_num
// ordering.
func (d *FrameDriver) DecodeFrame(seq *SeqHeader, fh *FrameHeader, tilePayloads [][]byte, inputCDF *CDFTable, pass1Only bool, temporal *temporalSource) (*FrameResult, error) {
	grid := tileGrid(seq, fh)
	if len(tilePayloads) != len(grid) {
		return nil, fmt.Errorf("av1dec: got %d tile payloads, want %d for a %dx%d tile grid",
			len(tilePayloads), len(grid), 1<<uint(fh.Tiles.Log2Cols), 1<<uint(fh.Tiles.Log2Rows))
	}

	frameWidth4 := (fh.FrameWidth + 3) / 4
	frameHeight4 := (fh.FrameHeight + 3) / 4
	mvPlane := make([]mv, frameWidth4*frameHeight4)

	recon := d.Recon.pick(seq.ColorConfig.HighBitdepth)
	outCDFs := make([]*CDFTable, len(grid))
	errs := make([]error, len(grid))
	var allRecords []*blockInfo
	var recMu sync.Mutex

	run := func(i int) {
		cdf, recs, err := d.decodeTile(seq, fh, grid[i], tilePayloads[i], inputCDF, recon, pass1Only, mvPlane, frameWidth4, temporal)
		outCDFs[i] = cdf
		errs[i] = err
		if pass1Only && len(recs) > 0 {
			recMu.Lock()
			allRecords = append(allRecords, recs...)
			recMu.Unlock()
		}
	}

	if d.Tiles == nil {
		for i := range grid {
			run(i)
		}
	} else {
		d.Tiles.RunAll(len(grid), run)
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	if !pass1Only {
		sbRows := (frameHeight4 + sb4Units(seq) - 1) / sb4Units(seq)
		for sbRow := 0; sbRow < sbRows; sbRow++ {
			if err := recon.FilterSBRow(sbRow); err != nil {
				return nil, err
			}
		}
	}

	res := &FrameResult{Records: allRecords, MVPlane: mvPlane, MVStride: frameWidth4}
	if !fh.DisableFrameEndUpdateCDF {
		id := fh.Tiles.ContextUpdateTileID
		if id < 0 || id >= len(outCDFs) {
			id = 0
		}
		res.CDF = outCDFs[id].Average(inputCDF)
	}
	return res, nil
}

// sb4Units returns the 4x4-unit side length of this sequence's superblock.
func sb4Units(seq *SeqHeader) int {
	if seq.Use128x128Superblock {
		return 32
	}
	return 16
}

// decodeTile decodes one tile end to end: clones the input CDF, builds a
// fresh neighbour-context grid and range coder, and walks every
// superblock row in the tile via the tile-row driver (§4.H), returning
// the tile's final (mutated) CDF copy for the caller to consider for
// publication.
func (d *FrameDriver) decodeTile(seq *SeqHeader, fh *FrameHeader, g tileGeometry, payload []byte, inputCDF *CDFTable, recon Reconstructor, pass1Only bool, mvPlane []mv, mvStride int, temporal *temporalSource) (*CDFTable, []*blockInfo, error) {
	msac := NewMSAC(payload, fh.DisableCDFUpdate)
	cdf := inputCDF.Clone()

	sb4 := sb4Units(seq)
	sbCols := (g.colEnd4 - g.colStart4 + sb4 - 1) / sb4
	sbRows := (g.rowEnd4 - g.rowStart4 + sb4 - 1) / sb4
	ctx := newTileContext(maxi(sbCols, 1), maxi(sbRows, 1), sb4)
	ctx.reset(fh.Type == frameKey || fh.Type == frameIntraOnly)

	bp := newBlockParser(msac, cdf, ctx, seq, fh)
	bp.bounds = tileBounds{MinRow4: g.rowStart4, MaxRow4: g.rowEnd4, MinCol4: g.colStart4, MaxCol4: g.colEnd4}
	bp.gmv = frameGlobalMotion{models: &fh.GlobalMotion}
	bp.temporal = temporal
	bp.mvPlane = mvPlane
	bp.mvStride = mvStride
	frameWidth4 := (fh.FrameWidth + 3) / 4
	frameHeight4 := (fh.FrameHeight + 3) / 4
	driver := newTileRowDriver(bp, seq, fh, g.colStart4, g.colEnd4, frameWidth4, frameHeight4)

	var records []*blockInfo
	if pass1Only {
		bp.onBlock = func(b *blockInfo) { records = append(records, b) }
	} else {
		bp.recon = recon
	}

	for y := g.rowStart4; y < g.rowEnd4; y += sb4 {
		if err := driver.decodeRow(y); err != nil {
			return nil, nil, err
		}
	}
	if err := msac.Err(); err != nil {
		return nil, nil, err
	}
	return cdf, records, nil
}
