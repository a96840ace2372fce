package ipt

import (
	"testing"

	"defs"
	"mem"
	"stats"
)

type fakeStore struct {
	stored []mem.Va_t
}

func (f *fakeStore) Store(vaddr mem.Va_t, pid defs.Pid_t, frame int) defs.Err_t {
	f.stored = append(f.stored, vaddr)
	return 0
}

type fakeLoader struct {
	loaded int
	fail   defs.Err_t
}

func (f *fakeLoader) LoadPage(vaddr mem.Va_t, pid defs.Pid_t, frame int) defs.Err_t {
	f.loaded++
	return f.fail
}

func newTestTable(nFrames int, store SwapStore, loader Loader) *Table {
	ram := mem.NewRAM(nFrames)
	return NewTable(ram, store, loader, &stats.VM{})
}

func TestGetFrameFillsFreeEntries(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{}
	tbl := newTestTable(2, store, loader)

	f1, err := tbl.GetFrame(0x1000, 1)
	if err != 0 {
		t.Fatalf("GetFrame err = %v", err)
	}
	f2, err := tbl.GetFrame(0x2000, 1)
	if err != 0 {
		t.Fatalf("GetFrame err = %v", err)
	}
	if f1 == f2 {
		t.Fatal("two distinct pages must not share a frame")
	}
	if loader.loaded != 2 {
		t.Fatalf("loader called %d times, want 2", loader.loaded)
	}
	if len(store.stored) != 0 {
		t.Fatal("no eviction should have been needed yet")
	}
}

func TestGetFrameHitsIPTWithoutLoading(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{}
	tbl := newTestTable(2, store, loader)

	tbl.GetFrame(0x1000, 1)
	loader.loaded = 0

	frame, err := tbl.GetFrame(0x1000, 1)
	if err != 0 {
		t.Fatalf("GetFrame err = %v", err)
	}
	if loader.loaded != 0 {
		t.Fatal("a resident page must not re-trigger the loader")
	}
	if frame < 0 {
		t.Fatal("expected a valid frame")
	}
}

func TestGetFrameEvictsWhenTableIsFull(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{}
	tbl := newTestTable(1, store, loader)

	tbl.GetFrame(0x1000, 1)
	// The TLB drops 0x1000 first; a TLB-resident frame is never a victim.
	tbl.TLBUpdateBit(0x1000, 1)
	tbl.GetFrame(0x2000, 1)

	if len(store.stored) != 1 || store.stored[0] != 0x1000 {
		t.Fatalf("stored = %v, want [0x1000]", store.stored)
	}
}

func TestGetFrameSurfacesLoaderError(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{fail: defs.ESEGV}
	tbl := newTestTable(1, store, loader)

	_, err := tbl.GetFrame(0x1000, 1)
	if err != defs.ESEGV {
		t.Fatalf("GetFrame err = %v, want ESEGV", err)
	}
}

func TestFreePagesClearsOwnedEntriesOnly(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{}
	tbl := newTestTable(2, store, loader)

	tbl.GetFrame(0x1000, 1)
	tbl.GetFrame(0x2000, 2)

	tbl.FreePages(1)

	if _, ok := tbl.Resolve(0x1000, 1); ok {
		t.Fatal("pid 1's page should have been freed")
	}
	if _, ok := tbl.Resolve(0x2000, 2); !ok {
		t.Fatal("pid 2's page should be untouched")
	}
}

func TestGetContiguousPagesFindsFreeRun(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{}
	tbl := newTestTable(4, store, loader)

	frame, err := tbl.GetContiguousPages(3)
	if err != 0 {
		t.Fatalf("GetContiguousPages err = %v", err)
	}
	if frame != 0 {
		t.Fatalf("frame = %d, want 0", frame)
	}
	for i := 0; i < 3; i++ {
		if !tbl.entries[i].kern || !tbl.entries[i].valid {
			t.Fatalf("frame %d should be marked kern+valid", i)
		}
	}
	if tbl.entries[3].kern {
		t.Fatal("frame 3 is outside the reservation and must be untouched")
	}
}

func TestGetContiguousPagesRejectsOversizeRequest(t *testing.T) {
	tbl := newTestTable(2, &fakeStore{}, &fakeLoader{})
	if _, err := tbl.GetContiguousPages(3); err != defs.ENOMEM {
		t.Fatalf("err = %v, want ENOMEM", err)
	}
}

func TestFreeContiguousPagesReleasesReservation(t *testing.T) {
	tbl := newTestTable(4, &fakeStore{}, &fakeLoader{})
	frame, _ := tbl.GetContiguousPages(2)
	tbl.FreeContiguousPages(frame)

	if tbl.entries[frame].kern || tbl.entries[frame].valid {
		t.Fatal("released frame should no longer be kern/valid")
	}
}

func TestTLBUpdateBitClearsTLBAndSetsRef(t *testing.T) {
	tbl := newTestTable(1, &fakeStore{}, &fakeLoader{})
	tbl.GetFrame(0x1000, 1)

	if !tbl.TLBUpdateBit(0x1000, 1) {
		t.Fatal("expected a matching entry")
	}
	if tbl.entries[0].tlb {
		t.Fatal("tlb bit should have been cleared")
	}
	if !tbl.entries[0].ref {
		t.Fatal("ref bit should have been set")
	}
}

func TestCopyPTEntriesDuplicatesIntoFreeFrame(t *testing.T) {
	tbl := newTestTable(2, &fakeStore{}, &fakeLoader{})
	tbl.GetFrame(0x1000, 1)
	copy(tbl.frames.Frame(0), []byte{1, 2, 3, 4})

	tbl.PrepareCopyPT(1)
	tbl.CopyPTEntries(1, 2)
	tbl.EndCopyPT(1)

	frame, ok := tbl.Resolve(0x1000, 2)
	if !ok {
		t.Fatal("pid 2 should now have a copy of the page")
	}
	got := tbl.frames.Frame(frame)[:4]
	want := []byte{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("copied frame = %v, want %v", got, want)
		}
	}
}
