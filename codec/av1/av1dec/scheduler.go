/*
DESCRIPTION
  scheduler.go implements the two worker pools and the frame-parallel ring
  of slots named in §5: a tile pool shared by every in-flight frame, a
  frame pool of n_fc slots each owning one frame's parser state, and the
  CDF-propagation primitives a later frame's primary_ref read blocks on
  without holding the producer's pixel frame. Grounded on the teacher's
  Revid lifecycle idiom (sync.WaitGroup, chan error, a running bool,
  New/Start/Stop) from revid/revid.go, generalized from one media pipeline
  to a pool of concurrent frame pipelines.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import "sync"

// tilePool is the tile worker pool shared among all frame slots (§5's
// "Tile pool (size n_tc): shared among all frame slots; picks tasks from
// whichever frame has them available"). A nil *tilePool, used as a
// FrameDriver.Tiles value, means single-threaded (n_tc=1): every tile
// runs in-line instead.
type tilePool struct {
	mu   sync.Mutex
	cond *sync.Cond

	tasks   []func()
	pending int // tasks submitted but not yet completed, across all RunAll calls in flight.
	done    chan struct{}

	closing bool
	wg      sync.WaitGroup
}

// newTilePool starts n tile workers, each suspending on the task queue's
// condition variable until work is available (§5's "Tile workers suspend
// on the task queue's condition variable").
func newTilePool(n int) *tilePool {
	p := &tilePool{}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *tilePool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.tasks) == 0 && !p.closing {
			p.cond.Wait()
		}
		if len(p.tasks) == 0 && p.closing {
			p.mu.Unlock()
			return
		}
		task := p.tasks[0]
		p.tasks = p.tasks[1:]
		p.mu.Unlock()

		task()
	}
}

// RunAll submits n tasks (task(0)..task(n-1)) to the pool and blocks until
// all of them have completed, used by the frame driver to parse every
// tile of one frame across the shared pool (§5: "tile-row workers consume
// (tile_col, sbrow) tasks").
func (p *tilePool) RunAll(n int, task func(i int)) {
	var wg sync.WaitGroup
	wg.Add(n)

	p.mu.Lock()
	for i := 0; i < n; i++ {
		i := i
		p.tasks = append(p.tasks, func() {
			defer wg.Done()
			task(i)
		})
	}
	p.cond.Broadcast()
	p.mu.Unlock()

	wg.Wait()
}

// Close signals every worker to exit once its current task finishes and
// waits for them all to stop.
func (p *tilePool) Close() {
	p.mu.Lock()
	p.closing = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

// cdfPropagator implements the "wait/signal/ref/unref" CDF propagation
// primitives named in §4.I: a later frame can block on a predecessor
// slot's output CDF becoming available without holding that predecessor's
// pixel frame. One cdfPropagator is shared by every slot in a Scheduler's
// frame pool.
type cdfPropagator struct {
	mu   sync.Mutex
	cond *sync.Cond

	cdf [numRefFrames]*CDFTable
	gen [numRefFrames]uint64
	ref [numRefFrames]int32
}

func newCDFPropagator() *cdfPropagator {
	p := &cdfPropagator{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Signal publishes t as slot idx's current CDF and wakes every waiter
// blocked in Wait for that slot.
func (p *cdfPropagator) Signal(idx int, t *CDFTable) {
	p.mu.Lock()
	p.cdf[idx] = t
	p.gen[idx]++
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Wait blocks until slot idx's CDF generation advances past afterGen,
// then returns the new CDF and its generation. Pass afterGen=0 to wait
// for the first publication.
func (p *cdfPropagator) Wait(idx int, afterGen uint64) (*CDFTable, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.gen[idx] <= afterGen {
		p.cond.Wait()
	}
	return p.cdf[idx], p.gen[idx]
}

// Ref and Unref track how many in-flight frames are waiting on slot idx's
// CDF, so the scheduler knows when it's safe to let a slot's previous
// occupant go; the reference store's own per-entry refcount (refstore.go)
// is the authority for the picture itself, this is purely the CDF
// thread's bookkeeping named in §4.I.
func (p *cdfPropagator) Ref(idx int) {
	p.mu.Lock()
	p.ref[idx]++
	p.mu.Unlock()
}

func (p *cdfPropagator) Unref(idx int) {
	p.mu.Lock()
	p.ref[idx]--
	p.mu.Unlock()
}

// frameJob is one unit of work submitted to the frame pool: a frame ready
// to decode plus everywhere its result needs to go.
type frameJob struct {
	seq          *SeqHeader
	fh           *FrameHeader
	tilePayloads [][]byte
	inputCDF     *CDFTable
	pass1Only    bool
	// temporal, when non-nil, supplies the order-hint-nearest reference's
	// saved motion field for this frame's reference-MV temporal projection
	// (§4.E); nil disables temporal candidates (e.g. use_ref_frame_mvs=0).
	temporal *temporalSource

	// refreshSlot, when >= 0, is the CDF-propagator slot this frame's
	// output CDF should be signalled on once decoding completes, mirroring
	// one bit of refresh_frame_flags for CDF-propagation purposes (a frame
	// may refresh several slots; the propagator is signalled once per
	// slot by the caller after Submit returns).
	refreshSlot int

	result *FrameResult
	err    error
	done   chan struct{}
}

// frameSlot is one ring position in the frame pool (§5's "Frame pool
// (size n_fc): each slot owns one in-flight frame's parser state").
type frameSlot struct {
	mu   sync.Mutex
	cond *sync.Cond
	busy bool
}

// Scheduler drives the frame-parallel pipeline described in §4.I and §5:
// a ring of n_fc frame slots, a shared tile pool of n_tc workers, and a
// CDF propagator frames can block on instead of the pixel frame itself.
// Single-threaded decoding (n_fc=1, n_tc=1) is the degenerate case: every
// SubmitFrame call runs synchronously on the calling goroutine.
type Scheduler struct {
	driver FrameDriver
	slots  []*frameSlot
	cdfs   *cdfPropagator

	mu   sync.Mutex
	next int // round-robin index into slots, per "submit_frame advances a round-robin index".

	wg sync.WaitGroup
}

// NewScheduler returns a Scheduler with nFC frame slots sharing a tile
// pool of nTC workers and the given bit-depth reconstruction kernels.
// nFC=1, nTC=1 is single-threaded decoding.
func NewScheduler(nFC, nTC int, recon bitDepthKernels) *Scheduler {
	s := &Scheduler{cdfs: newCDFPropagator()}
	s.driver.Recon = recon
	if nTC > 1 {
		s.driver.Tiles = newTilePool(nTC)
	}
	if nFC < 1 {
		nFC = 1
	}
	s.slots = make([]*frameSlot, nFC)
	for i := range s.slots {
		sl := &frameSlot{}
		sl.cond = sync.NewCond(&sl.mu)
		s.slots[i] = sl
	}
	return s
}

// SubmitFrame decodes one frame, blocking until the round-robin slot it
// lands on is free (§5: "The frame-parallel submitter suspends on the
// target frame slot's frame-done condition"), then runs the frame driver
// either synchronously (nFC=1) or on a slot goroutine so the caller can go
// on to submit the next frame into a different slot while this one is
// still decoding.
func (s *Scheduler) SubmitFrame(job *frameJob) {
	s.mu.Lock()
	slot := s.slots[s.next]
	s.next = (s.next + 1) % len(s.slots)
	s.mu.Unlock()

	slot.mu.Lock()
	for slot.busy {
		slot.cond.Wait()
	}
	slot.busy = true
	slot.mu.Unlock()

	job.done = make(chan struct{})

	run := func() {
		defer func() {
			slot.mu.Lock()
			slot.busy = false
			slot.cond.Broadcast()
			slot.mu.Unlock()
			close(job.done)
		}()

		res, err := s.driver.DecodeFrame(job.seq, job.fh, job.tilePayloads, job.inputCDF, job.pass1Only, job.temporal)
		job.result, job.err = res, err
		if err == nil && res.CDF != nil && job.refreshSlot >= 0 {
			s.cdfs.Signal(job.refreshSlot, res.CDF)
		} else if err != nil && job.refreshSlot >= 0 {
			// §7: "Frame-parallel producers signal their output CDF... to
			// UINT_MAX even on error to unblock waiters" — here, signal
			// the input CDF forward unchanged so a blocked dependant
			// proceeds rather than hanging on a frame that never finished.
			s.cdfs.Signal(job.refreshSlot, job.inputCDF)
		}
	}

	if len(s.slots) == 1 {
		run()
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		run()
	}()
}

// Wait blocks until every SubmitFrame call's goroutine has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close tears down the shared tile pool, if one was created.
func (s *Scheduler) Close() {
	s.wg.Wait()
	if s.driver.Tiles != nil {
		s.driver.Tiles.Close()
	}
}
