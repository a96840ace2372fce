package swap

import (
	"errors"
	"testing"

	"as"
	"defs"
	"mem"
	"stats"
	"vfs"
)

type fakeProvider struct {
	textBase, dataBase mem.Va_t
	textPages, dataPages int
}

func (p *fakeProvider) TextBase() mem.Va_t         { return p.textBase }
func (p *fakeProvider) TextPages() int              { return p.textPages }
func (p *fakeProvider) DataBase() mem.Va_t          { return p.dataBase }
func (p *fakeProvider) DataPages() int              { return p.dataPages }
func (p *fakeProvider) TextHeader() as.ProgHeader   { return as.ProgHeader{} }
func (p *fakeProvider) DataHeader() as.ProgHeader   { return as.ProgHeader{} }
func (p *fakeProvider) InitialOffsetText() uintptr  { return 0 }
func (p *fakeProvider) InitialOffsetData() uintptr  { return 0 }
func (p *fakeProvider) ELF() vfs.File                { return nil }
func (p *fakeProvider) Valid() bool                 { return true }

type fakeRegistry struct {
	m map[defs.Pid_t]as.Provider
}

func (r *fakeRegistry) Get(pid defs.Pid_t) (as.Provider, bool) {
	p, ok := r.m[pid]
	return p, ok
}

type memFile struct {
	data []byte
}

func newMemFile(size int) *memFile { return &memFile{data: make([]byte, size)} }

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off) > len(f.data) {
		return 0, errors.New("out of range")
	}
	n := copy(p, f.data[off:])
	return n, nil
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	if int(off)+len(p) > len(f.data) {
		return 0, errors.New("out of range")
	}
	n := copy(f.data[off:], p)
	return n, nil
}

func testSetup(nSlots int) (*Manager, *fakeRegistry, *mem.RAM) {
	ram := mem.NewRAM(2)
	reg := &fakeRegistry{m: map[defs.Pid_t]as.Provider{
		1: &fakeProvider{textBase: 0x1000, textPages: 1, dataBase: 0x2000, dataPages: 1},
	}}
	file := newMemFile(nSlots * mem.PGSIZE)
	m := Init(file, ram, nSlots, reg, &stats.VM{})
	return m, reg, ram
}

func TestStoreThenLoadRoundTrips(t *testing.T) {
	m, _, ram := testSetup(4)
	copy(ram.Frame(0), []byte{9, 8, 7, 6})

	if err := m.Store(0x1000, 1, 0); err != 0 {
		t.Fatalf("Store err = %v", err)
	}
	if m.stats.SwapfileWrites.Get() != 1 {
		t.Fatalf("SwapfileWrites = %d, want 1", m.stats.SwapfileWrites.Get())
	}

	for i := range ram.Frame(1) {
		ram.Frame(1)[i] = 0
	}
	found, err := m.Load(0x1000, 1, 1)
	if err != 0 || !found {
		t.Fatalf("Load = (%v, %v), want (true, 0)", found, err)
	}
	got := ram.Frame(1)[:4]
	want := []byte{9, 8, 7, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("loaded = %v, want %v", got, want)
		}
	}
}

func TestLoadMissReturnsFalse(t *testing.T) {
	m, _, ram := testSetup(4)
	found, err := m.Load(0x1000, 1, 0)
	if err != 0 || found {
		t.Fatalf("Load = (%v, %v), want (false, 0)", found, err)
	}
	_ = ram
}

func TestStorePanicsWhenFull(t *testing.T) {
	m, _, _ := testSetup(1)
	if err := m.Store(0x1000, 1, 0); err != 0 {
		t.Fatalf("first store err = %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when the swapfile has no free slots")
		}
	}()
	m.Store(0x2000, 1, 0)
}

func TestFreeProcessReturnsSlotsToFreeList(t *testing.T) {
	m, _, _ := testSetup(2)
	m.Store(0x1000, 1, 0)
	m.FreeProcess(1)

	if err := m.Store(0x1000, 1, 0); err != 0 {
		t.Fatalf("store after free err = %v", err)
	}
	if err := m.Store(0x2000, 1, 0); err != 0 {
		t.Fatalf("second store after free err = %v", err)
	}
}

func TestDuplicateCopiesSwapResidentPages(t *testing.T) {
	m, reg, ram := testSetup(4)
	reg.m[2] = reg.m[1]

	copy(ram.Frame(0), []byte{1, 2, 3, 4})
	m.Store(0x1000, 1, 0)

	if err := m.Duplicate(1, 2); err != 0 {
		t.Fatalf("Duplicate err = %v", err)
	}

	found, err := m.Load(0x1000, 2, 1)
	if err != 0 || !found {
		t.Fatalf("Load after duplicate = (%v, %v)", found, err)
	}
	got := ram.Frame(1)[:4]
	want := []byte{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("duplicated frame = %v, want %v", got, want)
		}
	}
}

func TestOptimizeCompactsOffsets(t *testing.T) {
	m, _, _ := testSetup(4)
	m.Store(0x1000, 1, 0)
	m.FreeProcess(1)
	m.Optimize()

	offsets := map[int64]bool{}
	for p := m.free; p != nil; p = p.next {
		offsets[p.offset] = true
	}
	for i := 0; i < 4; i++ {
		if !offsets[int64(i*mem.PGSIZE)] {
			t.Fatalf("missing compacted offset %d", i*mem.PGSIZE)
		}
	}
}
