package tlb

import (
	"testing"

	"defs"
	"mem"
	"stats"
)

type fakeIPT struct {
	calls []mem.Va_t
}

func (f *fakeIPT) TLBUpdateBit(vaddr mem.Va_t, pid defs.Pid_t) bool {
	f.calls = append(f.calls, vaddr)
	return true
}

func TestInsertFillsFreeEntriesFirst(t *testing.T) {
	var st stats.VM
	ipt := &fakeIPT{}
	tl := New(2, ipt, &st)

	tl.Insert(0x1000, 1, 0, false)
	tl.Insert(0x2000, 1, 1, false)

	if st.TLBFaultsFree.Get() != 2 {
		t.Fatalf("TLBFaultsFree = %d, want 2", st.TLBFaultsFree.Get())
	}
	if st.TLBFaultsReplace.Get() != 0 {
		t.Fatalf("TLBFaultsReplace = %d, want 0", st.TLBFaultsReplace.Get())
	}
	if !tl.EntryValid(0) || !tl.EntryValid(1) {
		t.Fatal("both entries should be valid")
	}
}

func TestInsertEvictsRoundRobinAndNotifiesIPT(t *testing.T) {
	var st stats.VM
	ipt := &fakeIPT{}
	tl := New(1, ipt, &st)

	tl.Insert(0x1000, 1, 0, false)
	tl.Insert(0x2000, 1, 1, false)

	if st.TLBFaultsReplace.Get() != 1 {
		t.Fatalf("TLBFaultsReplace = %d, want 1", st.TLBFaultsReplace.Get())
	}
	if len(ipt.calls) != 1 || ipt.calls[0] != 0x1000 {
		t.Fatalf("IPT notified with %v, want [0x1000]", ipt.calls)
	}
}

func TestInsertDirtyBitPolicy(t *testing.T) {
	var st stats.VM
	ipt := &fakeIPT{}
	tl := New(2, ipt, &st)

	tl.Insert(0x1000, 1, 0, true)
	if tl.entries[0].dirty {
		t.Fatal("read-only (text) page must not take the dirty bit")
	}

	tl.Insert(0x2000, 1, 1, false)
	if !tl.entries[1].dirty {
		t.Fatal("writable (data/stack) page must take the dirty bit")
	}
}

func TestInvalidateNoopOnSamePid(t *testing.T) {
	var st stats.VM
	ipt := &fakeIPT{}
	tl := New(1, ipt, &st)
	tl.Invalidate(1) // switch to pid 1: the one counted invalidation
	tl.Insert(0x1000, 1, 0, false)

	tl.Invalidate(1)
	if st.TLBInvalidations.Get() != 1 {
		t.Fatal("Invalidate for the already-running pid must be a no-op")
	}
	if !tl.EntryValid(0) {
		t.Fatal("entry should survive a same-pid invalidate")
	}
}

func TestInvalidateFlushesAndNotifiesOnPidChange(t *testing.T) {
	var st stats.VM
	ipt := &fakeIPT{}
	tl := New(2, ipt, &st)
	tl.Insert(0x1000, 1, 0, false)
	tl.Insert(0x2000, 1, 1, false)

	tl.Invalidate(2)

	if st.TLBInvalidations.Get() != 1 {
		t.Fatalf("TLBInvalidations = %d, want 1", st.TLBInvalidations.Get())
	}
	if tl.EntryValid(0) || tl.EntryValid(1) {
		t.Fatal("every entry should be cleared")
	}
	if len(ipt.calls) != 2 {
		t.Fatalf("IPT notified %d times, want 2", len(ipt.calls))
	}
}

func TestNumEntries(t *testing.T) {
	tl := New(4, &fakeIPT{}, &stats.VM{})
	if tl.NumEntries() != 4 {
		t.Fatalf("NumEntries() = %d, want 4", tl.NumEntries())
	}
}
