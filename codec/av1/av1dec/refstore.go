/*
DESCRIPTION
  refstore.go provides the reference store: the eight-slot table a frame's
  refresh_frame_flags writes into and later frames' ref_frame_idx reads
  from, holding each slot's picture, CDF, segmentation map, MV-reference
  state, global motion and film grain together, reference-counted per §9's
  "model each picture as an owning resource handle with an explicit
  reference counter; never use a raw back-pointer from picture → holders."

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import "sync"

// refEntry is everything one reference-frame slot holds together, per §4
// ("the current frame's picture, CDF, segmap, refmvs, global-motion, and
// film-grain are written into that slot").
type refEntry struct {
	Picture      *Picture
	CDF          *CDFTable
	SegMap       []int
	GlobalMotion [numRefFrames]GlobalMotionParams
	OrderHint    int

	// RefMVs is this frame's decoded motion field at 4x4 granularity
	// (MVStride columns per row), the temporal reference-MV engine's
	// projection source for frames that reference this slot.
	RefMVs   []mv
	MVStride int

	refs int32
}

// refStore is the eight-slot reference-frame table. It is mutated only by
// the frame-submission thread (§5: "the reference store and CDF ring are
// mutated only by the frame-submission thread"); readers hold a reference
// count and never mutate a slot's contents.
type refStore struct {
	mu    sync.Mutex
	slots [numRefFrames]*refEntry
}

// newRefStore returns an empty reference store.
func newRefStore() *refStore {
	return &refStore{}
}

// Get returns the entry in slot idx with its reference count incremented,
// or nil if the slot is unoccupied. Callers must call Release when done.
func (s *refStore) Get(idx int) *refEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.slots[idx]
	if e != nil {
		e.refs++
	}
	return e
}

// Release decrements e's reference count.
func (s *refStore) Release(e *refEntry) {
	if e == nil {
		return
	}
	s.mu.Lock()
	e.refs--
	s.mu.Unlock()
}

// Refresh writes e into every slot named by a set bit of refreshFrameFlags,
// displacing each slot's prior holder by decrementing its reference count
// (§4: "displacing prior holders via reference-count decrement").
func (s *refStore) Refresh(refreshFrameFlags uint8, e *refEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < numRefFrames; i++ {
		if refreshFrameFlags&(1<<uint(i)) == 0 {
			continue
		}
		if prior := s.slots[i]; prior != nil {
			prior.refs--
		}
		e.refs++
		s.slots[i] = e
	}
}
