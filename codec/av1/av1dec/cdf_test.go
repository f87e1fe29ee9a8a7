/*
DESCRIPTION
  cdf_test.go tests the CDF table's clone and averaging lifecycle.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package av1dec

import "testing"

func TestNewCDFTableSeedsFromBaseline(t *testing.T) {
	tbl := NewCDFTable(40)
	want := baselineSkipCDF(40)
	if tbl.Skip != want {
		t.Errorf("Skip = %v, want %v", tbl.Skip, want)
	}
	for i := range tbl.Partition {
		if tbl.Partition[i] != baselinePartitionCDF(40) {
			t.Errorf("Partition[%d] not seeded from baseline", i)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := NewCDFTable(10)
	clone := tbl.Clone()
	clone.Skip[0][0] = 1234
	if tbl.Skip[0][0] == 1234 {
		t.Error("mutating clone affected original, Clone did not deep-copy arrays")
	}
}

func TestAverageRoundsToNearest(t *testing.T) {
	a := &CDFTable{}
	b := &CDFTable{}
	a.Skip = [3][2]uint16{{100, 0}, {200, 0}, {300, 0}}
	b.Skip = [3][2]uint16{{101, 0}, {201, 0}, {301, 0}}
	avg := a.Average(b)
	want := [3][2]uint16{{101, 0}, {201, 0}, {301, 0}}
	if avg.Skip != want {
		t.Errorf("Skip average = %v, want %v", avg.Skip, want)
	}
}

func TestAverageDoesNotMutateInputs(t *testing.T) {
	a := NewCDFTable(0)
	b := NewCDFTable(255)
	aBefore := *a
	bBefore := *b
	_ = a.Average(b)
	if *a != aBefore {
		t.Error("Average mutated receiver")
	}
	if *b != bBefore {
		t.Error("Average mutated argument")
	}
}
