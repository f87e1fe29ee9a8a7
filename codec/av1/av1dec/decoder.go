/*
DESCRIPTION
  decoder.go provides the top-level entry point named in §6 ("Exposed to
  the CLI/muxer... Submit one access unit (OBUs). The driver parses
  sequence/frame headers, classifies the frame, and invokes submit_frame.
  Flush. Drain out_delayed and release all reference holdings."). It walks
  one access unit's OBUs, maintains the current sequence header, splits a
  tile_group_obu into per-tile payloads, and drives the scheduler and
  reference store for every coded frame.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import (
	"bytes"
	"fmt"

	"github.com/ausocean/av1dec/codec/av1/av1dec/bits"
	"github.com/ausocean/utils/logging"
)

// Decoder is the core's top-level object: it owns the sequence header in
// force, the reference store, and the frame-parallel scheduler, and
// accepts one access unit (a temporal delimiter plus every OBU up to the
// next one, per obu/lex.go's framing) at a time.
type Decoder struct {
	sched *Scheduler
	refs  *refStore
	alloc Allocator
	log   logging.Logger

	seq *SeqHeader

	// pendingFH holds a Frame Header OBU parsed ahead of its tile groups,
	// for the OBU_FRAME_HEADER + OBU_TILE_GROUP* split framing (as opposed
	// to a single combined OBU_FRAME).
	pendingFH     *FrameHeader
	pendingTiles  [][]byte
	pendingTarget int // total tiles pendingFH's frame header declares.
}

// NewDecoder returns a Decoder with an nFC-slot frame pool sharing an
// nTC-worker tile pool (§5), producing pictures through alloc and pixels
// through recon. nFC=1, nTC=1 is single-threaded decoding. log is
// constructed at decoder-construction time and threaded through every
// frame this Decoder dispatches; a nil log discards every message.
func NewDecoder(nFC, nTC int, alloc Allocator, recon bitDepthKernels, log logging.Logger) *Decoder {
	if log == nil {
		log = noopLogger{}
	}
	return &Decoder{
		sched: NewScheduler(nFC, nTC, recon),
		refs:  newRefStore(),
		alloc: alloc,
		log:   log,
	}
}

// noopLogger discards every message, the fallback a nil log argument to
// NewDecoder gets so d.log is never itself nil.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...interface{})   {}
func (noopLogger) Info(msg string, args ...interface{})    {}
func (noopLogger) Warning(msg string, args ...interface{}) {}
func (noopLogger) Error(msg string, args ...interface{})   {}
func (noopLogger) Fatal(msg string, args ...interface{})   {}

// SubmitUnit parses every OBU in one access unit's raw bytes and, for each
// coded frame it completes, dispatches it to the scheduler and refreshes
// the reference store, per §6's "Submit one access unit (OBUs)."
func (d *Decoder) SubmitUnit(obus []byte) error {
	br := bits.NewBitReader(bytes.NewReader(obus))
	for br.BytesRead() < len(obus) {
		h, err := NewOBUHeader(br, 0)
		if err != nil {
			return fmt.Errorf("av1dec: could not parse OBU header: %w", err)
		}
		if err := d.handleOBU(h); err != nil {
			return err
		}
		if br.Err() != nil {
			return fmt.Errorf("av1dec: bitstream error: %w", br.Err())
		}
	}
	return nil
}

// handleOBU dispatches one parsed OBU by type.
func (d *Decoder) handleOBU(h *OBUHeader) error {
	switch h.Type {
	case obuTemporalDelimiter:
		d.pendingFH = nil
		d.pendingTiles = nil
	case obuSequenceHeader:
		seq, err := NewSeqHeader(h.Payload)
		if err != nil {
			return fmt.Errorf("av1dec: could not parse sequence header: %w", err)
		}
		d.seq = seq
	case obuFrameHeader, obuRedundantFrameHeader:
		if d.seq == nil {
			return fmt.Errorf("av1dec: frame header OBU before any sequence header")
		}
		fh, err := NewFrameHeader(h.Payload, d.seq)
		if err != nil {
			return fmt.Errorf("av1dec: could not parse frame header: %w", err)
		}
		if fh.ShowExistingFrame {
			return d.showExistingFrame(fh)
		}
		d.beginFrame(fh)
	case obuTileGroup:
		return d.handleTileGroup(h.Payload)
	case obuFrame:
		return d.handleCombinedFrame(h.Payload)
	}
	return nil
}

// beginFrame records a freshly parsed frame header as pending, awaiting
// one or more OBU_TILE_GROUP payloads before it can be dispatched.
func (d *Decoder) beginFrame(fh *FrameHeader) {
	d.pendingFH = fh
	d.pendingTarget = numTiles(fh)
	d.pendingTiles = d.pendingTiles[:0]
}

// handleCombinedFrame parses an OBU_FRAME payload (a frame header
// immediately followed by its tile group in the same OBU) and dispatches
// it once the tile group completes the frame.
func (d *Decoder) handleCombinedFrame(payload []byte) error {
	if d.seq == nil {
		return fmt.Errorf("av1dec: FRAME OBU before any sequence header")
	}
	br := bits.NewBitReader(bytes.NewReader(payload))
	fh, err := NewFrameHeaderFromReader(br, d.seq)
	if err != nil {
		return fmt.Errorf("av1dec: could not parse combined frame header: %w", err)
	}
	br.Flush() // byte_alignment() before tile_group_obu().
	rest := payload[br.BytesRead():]

	if fh.ShowExistingFrame {
		return d.showExistingFrame(fh)
	}
	d.beginFrame(fh)
	return d.handleTileGroup(rest)
}

// handleTileGroup splits one tile_group_obu payload into per-tile byte
// slices and, once every tile named by the pending frame header's tile
// grid has arrived, dispatches the frame.
func (d *Decoder) handleTileGroup(payload []byte) error {
	if d.pendingFH == nil {
		return fmt.Errorf("av1dec: tile group OBU with no pending frame header")
	}
	tiles, err := splitTileGroup(payload, d.pendingTarget)
	if err != nil {
		return err
	}
	d.pendingTiles = append(d.pendingTiles, tiles...)
	if len(d.pendingTiles) < d.pendingTarget {
		return nil
	}
	fh := d.pendingFH
	tilePayloads := d.pendingTiles
	d.pendingFH = nil
	d.pendingTiles = nil
	return d.dispatchFrame(fh, tilePayloads)
}

// numTiles returns the total tile count a frame header's tile grid names.
func numTiles(fh *FrameHeader) int {
	return (1 << uint(fh.Tiles.Log2Cols)) * (1 << uint(fh.Tiles.Log2Rows))
}

// splitTileGroup parses tile_group_obu()'s header fields (whether this
// group carries every tile or a contiguous subrange, and the leb128-coded
// size of every tile but the last) and returns the raw payload bytes of
// each named tile in order.
func splitTileGroup(payload []byte, numTilesTotal int) ([][]byte, error) {
	if numTilesTotal <= 1 {
		return [][]byte{payload}, nil
	}

	br := bits.NewBitReader(bytes.NewReader(payload))
	r := newFieldReader(br)

	startAndEndPresent := false
	if numTilesTotal > 1 {
		startAndEndPresent = r.readBit()
	}
	start, end := 0, numTilesTotal-1
	if startAndEndPresent {
		tgBits := floorLog2Ceil(numTilesTotal)
		start = int(r.readBits(tgBits))
		end = int(r.readBits(tgBits))
	}
	if r.err() != nil {
		return nil, fmt.Errorf("av1dec: could not parse tile_group_obu header: %w", r.err())
	}
	br.Flush()

	n := end - start + 1
	tiles := make([][]byte, 0, n)
	rest := payload[br.BytesRead():]
	for i := 0; i < n; i++ {
		if i == n-1 {
			tiles = append(tiles, rest)
			break
		}
		tr := newFieldReader(bits.NewBitReader(bytes.NewReader(rest)))
		szMinus1 := tr.readLEB128()
		if tr.err() != nil {
			return nil, fmt.Errorf("av1dec: could not parse tile_size_minus_1: %w", tr.err())
		}
		sz := int(szMinus1) + 1
		off := leb128Len(szMinus1)
		if off+sz > len(rest) {
			return nil, fmt.Errorf("av1dec: tile %d size %d exceeds remaining payload", start+i, sz)
		}
		tiles = append(tiles, rest[off:off+sz])
		rest = rest[off+sz:]
	}
	return tiles, nil
}

// floorLog2Ceil returns ceil(log2(n)), the bit width tile_group_obu uses
// to code tg_start/tg_end.
func floorLog2Ceil(n int) int {
	bits := 0
	for (1 << uint(bits)) < n {
		bits++
	}
	return bits
}

// leb128Len returns the number of bytes a leb128 encoding of v occupies.
func leb128Len(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// dispatchFrame resolves the frame's input CDF (baseline or inherited
// from its primary reference, per §4.C), submits it to the scheduler, and
// refreshes the reference store with the result.
func (d *Decoder) dispatchFrame(fh *FrameHeader, tilePayloads [][]byte) error {
	inputCDF := d.inputCDFFor(fh)

	var pic *Picture
	if d.alloc != nil {
		p, err := d.alloc.Alloc(fh.FrameWidth, fh.FrameHeight, d.seq.ColorConfig.BitDepth())
		if err != nil {
			return fmt.Errorf("av1dec: could not allocate picture: %w", err)
		}
		pic = p
	}

	job := &frameJob{
		seq:          d.seq,
		fh:           fh,
		tilePayloads: tilePayloads,
		inputCDF:     inputCDF,
		refreshSlot:  -1,
	}
	if fh.UseRefFrameMVs {
		job.temporal = d.buildTemporalSource(fh)
	}
	d.log.Debug("dispatching frame", "type", fh.Type, "width", fh.FrameWidth, "height", fh.FrameHeight)
	d.sched.SubmitFrame(job)
	<-job.done

	// §7: producers publish picture progress to unblock waiters even on a
	// failed frame, so a temporal MV read in a later frame that raced this
	// one doesn't hang forever on a frame that will never complete.
	if pic != nil {
		pic.MarkDone()
	}
	if job.err != nil {
		d.log.Error("frame decode failed", "error", job.err.Error())
		return job.err
	}

	entry := &refEntry{
		Picture:      pic,
		GlobalMotion: fh.GlobalMotion,
		OrderHint:    fh.OrderHint,
		RefMVs:       job.result.MVPlane,
		MVStride:     job.result.MVStride,
	}
	if job.result.CDF != nil {
		entry.CDF = job.result.CDF
	} else {
		entry.CDF = inputCDF
	}
	d.refs.Refresh(fh.RefreshFrameFlags, entry)
	return nil
}

// buildTemporalSource picks the order-hint-nearest reference among fh's
// ref_frame_idx set that holds a saved motion field, and returns it as the
// reference-MV engine's temporal projection source (§4.E), or nil if none
// of the references have one yet (e.g. the first inter frame after a
// keyframe).
func (d *Decoder) buildTemporalSource(fh *FrameHeader) *temporalSource {
	var best *refEntry
	bestDist := -1
	for _, idx := range fh.RefFrameIdx {
		e := d.refs.Get(int(idx))
		if e == nil {
			continue
		}
		if e.RefMVs == nil {
			d.refs.Release(e)
			continue
		}
		dist := fh.OrderHint - e.OrderHint
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			if best != nil {
				d.refs.Release(best)
			}
			best, bestDist = e, dist
		} else {
			d.refs.Release(e)
		}
	}
	if best == nil {
		return nil
	}
	defer d.refs.Release(best)
	return &temporalSource{mvs: best.RefMVs, stride: best.MVStride}
}

// inputCDFFor resolves a frame's starting CDF table: the baseline
// constants for its base quantiser when primary_ref_frame is NONE, or the
// referenced slot's published CDF otherwise (§7's "A frame with
// primary_ref_frame=NONE initializes its CDF from the baseline table...
// never from the reference store").
func (d *Decoder) inputCDFFor(fh *FrameHeader) *CDFTable {
	if fh.PrimaryRefFrame == primaryRefNone {
		return NewCDFTable(fh.BaseQIdx)
	}
	idx := fh.RefFrameIdx[fh.PrimaryRefFrame]
	if idx < 0 || int(idx) >= numRefFrames {
		return NewCDFTable(fh.BaseQIdx)
	}
	e := d.refs.Get(int(idx))
	if e == nil {
		return NewCDFTable(fh.BaseQIdx)
	}
	defer d.refs.Release(e)
	return e.CDF
}

// showExistingFrame handles show_existing_frame=1: no new picture is
// decoded; the slot named by frame_to_show_map_idx is looked up and
// released again, and an empty slot is an error. No reference slot is
// refreshed, even when the shown frame is a key frame.
func (d *Decoder) showExistingFrame(fh *FrameHeader) error {
	e := d.refs.Get(int(fh.FrameToShowMapIdx))
	if e == nil {
		return fmt.Errorf("av1dec: show_existing_frame referenced an empty slot %d", fh.FrameToShowMapIdx)
	}
	d.refs.Release(e)
	return nil
}

// Flush waits for in-flight frame-pool work to finish and then releases
// every reference the decoder still holds, emptying all reference slots.
// This core has no output reordering delay of its own (that belongs to
// the muxer collaborator), so there is no delayed output to drain.
func (d *Decoder) Flush() {
	d.log.Debug("flushing decoder")
	d.sched.Close()
	d.refs.mu.Lock()
	for i, e := range d.refs.slots {
		if e != nil {
			e.refs--
			d.refs.slots[i] = nil
		}
	}
	d.refs.mu.Unlock()
}
