// Package ipt implements the inverted page table: the single,
// frame-indexed table shared by every process that the TLB manager and
// the page-fault handler consult to resolve a virtual address to a
// physical frame. Grounded on original_source/vm/pt.c and
// include/pt.h.
package ipt

import (
	"sync"

	"defs"
	"mem"
	"stats"
)

// SwapStore is the subset of the swap manager the table calls into when
// a frame it is evicting or relocating must be written out.
type SwapStore interface {
	Store(vaddr mem.Va_t, pid defs.Pid_t, frame int) defs.Err_t
}

// Loader is the subset of the fault/segment-load package the table
// calls into to fill a frame that is not resident anywhere yet.
type Loader interface {
	LoadPage(vaddr mem.Va_t, pid defs.Pid_t, frame int) defs.Err_t
}

// entry is one inverted-page-table row: a frame's owner, virtual page,
// and the six control bits of spec.md §4.1 (VALID, REF, KERN, TLB, IO,
// SWAP).
type entry struct {
	pid   defs.Pid_t
	vpage mem.Va_t

	valid bool
	ref   bool
	kern  bool
	tlb   bool
	io    bool
	swap  bool
}

// removable reports whether the frame is a candidate for eviction or
// reclaim at all: not pinned by kmalloc, not currently in the TLB, not
// frozen for a fork in progress, and not mid I/O.
func (e *entry) removable() bool {
	return !e.kern && !e.tlb && !e.swap && !e.io
}

func isFree(e *entry) bool {
	return !e.valid && !e.tlb && !e.kern && !e.io && !e.swap
}

// Table is the inverted page table.
type Table struct {
	mu         sync.Mutex
	cv         *sync.Cond
	entries    []entry
	allocSize  []int
	nextVictim int

	frames *mem.RAM
	store  SwapStore
	loader Loader
	stats  *stats.VM
}

// SetLoader binds the table's segment loader. It exists separately from
// NewTable because the loader (biscuit/src/fault.Handler) itself needs a
// reference to the table it loads into; vmkernel's boot sequence
// constructs the table first with a nil loader, then closes the cycle
// with SetLoader once the loader is built.
func (t *Table) SetLoader(loader Loader) {
	t.mu.Lock()
	t.loader = loader
	t.mu.Unlock()
}

// NewTable builds a table covering frames.NFrames() frames. loader may
// be nil and supplied later via SetLoader.
func NewTable(frames *mem.RAM, store SwapStore, loader Loader, st *stats.VM) *Table {
	n := frames.NFrames()
	t := &Table{
		entries:   make([]entry, n),
		allocSize: make([]int, n),
		frames:    frames,
		store:     store,
		loader:    loader,
		stats:     st,
	}
	for i := range t.allocSize {
		t.allocSize[i] = -1
	}
	t.cv = sync.NewCond(&t.mu)
	return t
}

func (t *Table) findFreeEntryLocked() int {
	for i := range t.entries {
		if isFree(&t.entries[i]) {
			return i
		}
	}
	return -1
}

func (t *Table) resolveLocked(vaddr mem.Va_t, pid defs.Pid_t) int {
	for i := range t.entries {
		e := &t.entries[i]
		if e.pid == pid && e.vpage == vaddr && !e.kern {
			return i
		}
	}
	return -1
}

func (t *Table) addEntryLocked(i int, vaddr mem.Va_t, pid defs.Pid_t) {
	t.entries[i].vpage = vaddr
	t.entries[i].pid = pid
}

// Resolve looks up vaddr for pid without faulting it in, marking it
// present-in-TLB on a hit. It is getPAddressPT.
func (t *Table) Resolve(vaddr mem.Va_t, pid defs.Pid_t) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.resolveLocked(vaddr, pid)
	if i < 0 {
		return 0, false
	}
	t.entries[i].tlb = true
	return i, true
}

// GetFrame resolves vaddr for pid to a physical frame, faulting it in
// (via a free entry or by evicting a victim) if it is not already
// resident. It is getFramePT.
func (t *Table) GetFrame(vaddr mem.Va_t, pid defs.Pid_t) (int, defs.Err_t) {
	t.mu.Lock()
	if i := t.resolveLocked(vaddr, pid); i >= 0 {
		t.entries[i].tlb = true
		t.stats.TLBReloads.Inc()
		t.mu.Unlock()
		return i, 0
	}

	frame := t.findFreeEntryLocked()
	if frame >= 0 {
		t.entries[frame].valid = true
		t.entries[frame].io = true
		t.addEntryLocked(frame, vaddr, pid)
	} else {
		frame = t.findVictimLocked(vaddr, pid)
	}
	t.mu.Unlock()

	if err := t.loader.LoadPage(vaddr, pid, frame); err != 0 {
		return 0, err
	}

	t.mu.Lock()
	t.entries[frame].io = false
	t.entries[frame].tlb = true
	t.mu.Unlock()
	return frame, 0
}

// findVictimLocked runs the second-chance circular scan of spec.md
// §4.1: two full revolutions clearing reference bits before a caller
// blocks waiting for another process to free something. Called with
// t.mu held; drops it around the blocking swap-out write and while
// waiting on t.cv.
func (t *Table) findVictimLocked(vaddr mem.Va_t, pid defs.Pid_t) int {
	n := len(t.entries)
	end := t.nextVictim
	revolutions := 0
	i := t.nextVictim
	for {
		e := &t.entries[i]
		if e.removable() {
			if !e.ref {
				oldPid := e.pid
				oldVaddr := e.vpage
				wasValid := e.valid
				*e = entry{}
				t.addEntryLocked(i, vaddr, pid)
				e.io = true
				e.valid = true
				if wasValid {
					t.mu.Unlock()
					t.store.Store(oldVaddr, oldPid, i)
					t.mu.Lock()
				}
				t.nextVictim = (i + 1) % n
				return i
			}
			e.ref = false
		}
		if (i+1)%n == end {
			if revolutions < 1 {
				revolutions++
			} else {
				t.cv.Wait()
				revolutions = 0
			}
		}
		i = (i + 1) % n
	}
}

// FreePages releases every non-kernel page owned by pid. It is
// freePages.
func (t *Table) FreePages(pid defs.Pid_t) {
	t.mu.Lock()
	for i := range t.entries {
		e := &t.entries[i]
		if e.pid == pid && e.valid && !e.kern {
			*e = entry{}
		}
	}
	t.cv.Broadcast()
	t.mu.Unlock()
}

// GetContiguousPages reserves nPages physically contiguous frames for
// kernel use, first by searching for an already-free run and, failing
// that, by evicting a run of victims. It is getContiguousPages.
func (t *Table) GetContiguousPages(nPages int) (int, defs.Err_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if nPages <= 0 || nPages > len(t.entries) {
		return 0, defs.ENOMEM
	}

	if frame, ok := t.findFreeRunLocked(nPages); ok {
		return frame, 0
	}

	revolutions := 0
	for {
		if frame, ok := t.findVictimRunLocked(nPages); ok {
			return frame, 0
		}
		t.nextVictim = 0
		if revolutions < 2 {
			revolutions++
			continue
		}
		t.cv.Wait()
		revolutions = 0
	}
}

func (t *Table) findFreeRunLocked(nPages int) (int, bool) {
	first := -1
	for i := 0; i < len(t.entries); i++ {
		if isFree(&t.entries[i]) && (i == 0 || !isFree(&t.entries[i-1])) {
			first = i
		}
		if first >= 0 && isFree(&t.entries[i]) && i-first == nPages-1 {
			for j := first; j <= i; j++ {
				t.entries[j].valid = true
				t.entries[j].kern = true
			}
			t.allocSize[first] = nPages
			return first, true
		}
	}
	return 0, false
}

// findVictimRunLocked is getContiguousPages' second pass: a run of
// nPages frames that can all be evicted this revolution, each cleared
// with the same second-chance courtesy findVictimLocked gives a single
// frame.
func (t *Table) findVictimRunLocked(nPages int) (int, bool) {
	n := len(t.entries)
	first, run := -1, 0
	for i := t.nextVictim; i < n; i++ {
		e := &t.entries[i]
		if !e.removable() {
			first, run = -1, 0
			continue
		}
		if e.ref && e.valid {
			e.ref = false
			first, run = -1, 0
			continue
		}
		if first < 0 {
			first, run = i, 0
		}
		run++
		if run == nPages {
			for j := first; j <= i; j++ {
				oldPid := t.entries[j].pid
				oldVaddr := t.entries[j].vpage
				wasValid := t.entries[j].valid
				t.entries[j] = entry{}
				t.entries[j].kern = true
				t.entries[j].valid = true
				if wasValid {
					t.entries[j].io = true
					t.mu.Unlock()
					t.store.Store(oldVaddr, oldPid, j)
					t.mu.Lock()
					t.entries[j].io = false
				}
			}
			t.allocSize[first] = nPages
			t.nextVictim = (i + 1) % n
			return first, true
		}
	}
	return 0, false
}

// FreeContiguousPages releases a kernel reservation made by
// GetContiguousPages, identified by its first frame.
func (t *Table) FreeContiguousPages(frame int) {
	t.mu.Lock()
	n := t.allocSize[frame]
	for i := frame; i < frame+n; i++ {
		t.entries[i].valid = false
		t.entries[i].kern = false
	}
	t.allocSize[frame] = -1
	t.cv.Broadcast()
	t.mu.Unlock()
}

// TLBUpdateBit clears a frame's TLB-resident bit and sets its reference
// bit, called by the TLB manager when it evicts or invalidates an
// entry. It reports whether a matching, valid IPT row was found.
func (t *Table) TLBUpdateBit(vaddr mem.Va_t, pid defs.Pid_t) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		e := &t.entries[i]
		if e.vpage == vaddr && e.pid == pid && e.valid {
			e.tlb = false
			e.ref = true
			return true
		}
	}
	return false
}

// PrepareCopyPT freezes every valid, non-kernel page owned by pid ahead
// of a fork, so none of them can be chosen as an eviction victim while
// copyPTEntries is running.
func (t *Table) PrepareCopyPT(pid defs.Pid_t) {
	t.mu.Lock()
	for i := range t.entries {
		e := &t.entries[i]
		if e.pid == pid && !e.kern && e.valid {
			e.swap = true
		}
	}
	t.mu.Unlock()
}

// EndCopyPT thaws pid's pages once the fork's copy has finished and
// wakes anything waiting for victims.
func (t *Table) EndCopyPT(pid defs.Pid_t) {
	t.mu.Lock()
	for i := range t.entries {
		e := &t.entries[i]
		if e.pid == pid && !e.kern && e.valid {
			e.swap = false
		}
	}
	t.cv.Broadcast()
	t.mu.Unlock()
}

// CopyPTEntries duplicates every valid, non-kernel page of old into new
// pages owned by new pid: in RAM via a direct frame copy when a free
// entry is available, or straight to swap when the table is full. It is
// copyPTEntries, called between PrepareCopyPT and EndCopyPT.
func (t *Table) CopyPTEntries(oldPid, newPid defs.Pid_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		src := &t.entries[i]
		if src.pid != oldPid || !src.valid || src.kern {
			continue
		}
		vaddr := src.vpage
		pos := t.findFreeEntryLocked()
		if pos < 0 {
			t.mu.Unlock()
			t.store.Store(vaddr, newPid, i)
			t.mu.Lock()
			continue
		}
		t.entries[pos] = entry{}
		t.addEntryLocked(pos, vaddr, newPid)
		t.entries[pos].valid = true
		copy(t.frames.Frame(pos), t.frames.Frame(i))
	}
}
