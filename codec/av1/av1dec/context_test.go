package av1dec

import "testing"

func TestNewTileContextResetsToCanonicalDefaults(t *testing.T) {
	c := newTileContext(2, 2, 16)
	for i, u := range c.above {
		if u.txSize != txSize64x64 || u.refFrame != -1 || u.filter != switchableFilter {
			t.Fatalf("above[%d] = %+v, want canonical defaults", i, u)
		}
	}
}

func TestFillAboveOverwritesRange(t *testing.T) {
	c := newTileContext(2, 2, 16)
	u := neighbourUnit{intra: true, skip: true, segID: 3}
	c.fillAbove(4, 4, u)
	for i := 4; i < 8; i++ {
		if c.above[i] != u {
			t.Errorf("above[%d] = %+v, want %+v", i, c.above[i], u)
		}
	}
	if c.above[3] == u || c.above[8] == u {
		t.Error("fillAbove wrote outside its range")
	}
}

func TestAboveAtOutOfRangeReturnsDefault(t *testing.T) {
	c := newTileContext(1, 1, 16)
	got := c.aboveAt(-1)
	if got.refFrame != -1 || got.txSize != txSize64x64 {
		t.Errorf("out-of-range aboveAt = %+v, want canonical default", got)
	}
}

func TestSkipContext(t *testing.T) {
	tests := []struct {
		above, left neighbourUnit
		want        int
	}{
		{neighbourUnit{}, neighbourUnit{}, 0},
		{neighbourUnit{skip: true}, neighbourUnit{}, 1},
		{neighbourUnit{}, neighbourUnit{skip: true}, 1},
		{neighbourUnit{skip: true}, neighbourUnit{skip: true}, 2},
	}
	for _, test := range tests {
		if got := skipContext(test.above, test.left); got != test.want {
			t.Errorf("skipContext(%+v, %+v) = %d, want %d", test.above, test.left, got, test.want)
		}
	}
}

func TestIntraContextBothNeighboursIntra(t *testing.T) {
	above := neighbourUnit{intra: true}
	left := neighbourUnit{intra: true}
	if got := intraContext(above, left, true, true); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestIntraContextNoNeighbours(t *testing.T) {
	if got := intraContext(neighbourUnit{}, neighbourUnit{}, false, false); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
