/*
DESCRIPTION
  picture.go provides the picture allocator interface and the
  reference-counted buffer primitive named as external collaborators in
  §6: a picture's planes are allocated by something outside this core, but
  the ref-counted handle and the atomic per-plane progress counters that
  the frame driver publishes and later frames' reference reads wait on are
  specified concretely here.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import (
	"runtime"
	"sync/atomic"
)

// PlaneType distinguishes the granularity a picture_wait call blocks on:
// a specific colour plane's reconstructed rows, or (PlaneTypeBlock) the
// parser's own row progress, which satisfies a waiting reader before
// reconstruction of that row has happened at all (§4: "PLANE_TYPE_BLOCK is
// satisfied as soon as parsing... has progressed past that row").
type PlaneType uint8

const (
	PlaneTypeY PlaneType = iota
	PlaneTypeUV
	PlaneTypeBlock
)

// RefBuf is the reference-counted buffer primitive named in §6:
// ref_create(size), ref_inc(r), ref_dec(r). The reference store holds one
// count per occupied slot; a parser holds one count per refp[i] it reads
// from, per §9's guidance to model back-references as explicit counted
// handles rather than raw pointers.
type RefBuf struct {
	Data []byte
	refs int32
}

// RefCreate allocates a new RefBuf of size bytes with one reference held
// by the caller.
func RefCreate(size int) *RefBuf {
	return &RefBuf{Data: make([]byte, size), refs: 1}
}

// Inc adds one reference.
func (r *RefBuf) Inc() {
	atomic.AddInt32(&r.refs, 1)
}

// Dec releases one reference and returns the count remaining; callers
// that observe 0 own the last release and may recycle Data.
func (r *RefBuf) Dec() int32 {
	return atomic.AddInt32(&r.refs, -1)
}

// Plane is one colour plane of a decoded picture per §6's output surface
// layout: row stride at least 128-pixel-aligned width times the sample
// size, 10-bit samples stored in little-endian 16-bit words with upper
// bits zero.
type Plane struct {
	Buf      *RefBuf
	Stride   int
	Width    int
	Height   int
	BitDepth int
}

// Picture is one decoded frame's three planes plus the atomic progress
// counters a frame driver publishes as rows complete, so a later frame's
// parser can call picture_wait on this one without holding its pixel data.
type Picture struct {
	Y, U, V Plane

	yProgress     int64
	uvProgress    int64
	blockProgress int64
}

// Allocator allocates a Picture for the given luma dimensions and bit
// depth. It is an external collaborator (§6): this core never touches a
// pixel buffer itself, only calls through this interface to obtain one.
type Allocator interface {
	Alloc(width, height, bitDepth int) (*Picture, error)
}

// PublishRow records that plane type t has been produced up to pixel row
// y, unblocking any picture_wait callers waiting at or before that row.
func (p *Picture) PublishRow(t PlaneType, y int) {
	switch t {
	case PlaneTypeY:
		atomic.StoreInt64(&p.yProgress, int64(y))
	case PlaneTypeUV:
		atomic.StoreInt64(&p.uvProgress, int64(y))
	case PlaneTypeBlock:
		atomic.StoreInt64(&p.blockProgress, int64(y))
	}
}

// Progress returns the last row published for plane type t.
func (p *Picture) Progress(t PlaneType) int64 {
	switch t {
	case PlaneTypeY:
		return atomic.LoadInt64(&p.yProgress)
	case PlaneTypeUV:
		return atomic.LoadInt64(&p.uvProgress)
	default:
		return atomic.LoadInt64(&p.blockProgress)
	}
}

// Wait blocks until plane type t has progressed to at least pixel row y,
// per §4's picture_wait(r, pixel_y, plane_type). The atomic load is the
// fast path named in §5; this implementation's slow path cooperatively
// yields rather than parking on a mutex+condvar, which is sufficient for
// a picture whose producer runs on another goroutine in the same process.
func (p *Picture) Wait(t PlaneType, y int) {
	for p.Progress(t) < int64(y) {
		runtime.Gosched()
	}
}

// MarkDone publishes every plane type's progress to the frame's full
// height, unblocking every waiter even if reconstruction errored midway,
// per §7: "Frame-parallel producers signal their output CDF and picture
// progress to UINT_MAX even on error to unblock waiters."
func (p *Picture) MarkDone() {
	const done = int64(1) << 62
	atomic.StoreInt64(&p.yProgress, done)
	atomic.StoreInt64(&p.uvProgress, done)
	atomic.StoreInt64(&p.blockProgress, done)
}

// heapAllocator is the default Allocator: it allocates a Picture's planes
// directly on the Go heap, 4:2:0 chroma, sized for the worst case (a real
// muxer-facing allocator would size chroma from the sequence header's
// subsampling, an external-collaborator refinement beyond this core's own
// concern, per §6).
type heapAllocator struct{}

// NewSimpleAllocator returns an Allocator that backs every plane with a
// freshly allocated RefBuf, suitable for a CLI that has no pixel-buffer
// pool of its own to hand in.
func NewSimpleAllocator() Allocator { return heapAllocator{} }

func (heapAllocator) Alloc(width, height, bitDepth int) (*Picture, error) {
	sampleSize := 1
	if bitDepth > 8 {
		sampleSize = 2
	}
	newPlane := func(w, h int) Plane {
		stride := ((w + 127) &^ 127) * sampleSize
		return Plane{
			Buf:      RefCreate(stride * h),
			Stride:   stride,
			Width:    w,
			Height:   h,
			BitDepth: bitDepth,
		}
	}
	cw, ch := (width+1)/2, (height+1)/2
	return &Picture{
		Y: newPlane(width, height),
		U: newPlane(cw, ch),
		V: newPlane(cw, ch),
	}, nil
}
