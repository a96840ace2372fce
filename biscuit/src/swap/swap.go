// Package swap implements the swap file manager: a fixed-size pool of
// on-disk page slots, a free list, and per-process per-segment lists of
// slots in use. Grounded on original_source/vm/swapfile.c and
// include/swapfile.h.
package swap

import (
	"fmt"
	"strings"
	"sync"

	"as"
	"defs"
	"mem"
	"stats"
	"vfs"
)

// page is one swap-file slot descriptor: spec.md §4.2's per-descriptor
// lock and condition variable guard the in-flight "storing" flag so a
// load never reads a slot mid-write.
type page struct {
	mu      sync.Mutex
	cv      *sync.Cond
	storing bool
	vaddr   mem.Va_t
	offset  int64
	next    *page
}

func newPage(offset int64) *page {
	p := &page{offset: offset}
	p.cv = sync.NewCond(&p.mu)
	return p
}

// Manager is the swap file.
type Manager struct {
	mu   sync.Mutex
	file vfs.File
	ram  *mem.RAM
	kbuf []byte
	free *page

	textPages  map[defs.Pid_t]*page
	dataPages  map[defs.Pid_t]*page
	stackPages map[defs.Pid_t]*page

	registry as.Registry
	stats    *stats.VM
}

// Init builds a swap manager backed by file, holding nSlots pages, using
// registry to classify a fault's virtual address into a segment. It is
// initSwapfile.
func Init(file vfs.File, ram *mem.RAM, nSlots int, registry as.Registry, st *stats.VM) *Manager {
	m := &Manager{
		file:       file,
		ram:        ram,
		kbuf:       make([]byte, mem.PGSIZE),
		textPages:  make(map[defs.Pid_t]*page),
		dataPages:  make(map[defs.Pid_t]*page),
		stackPages: make(map[defs.Pid_t]*page),
		registry:   registry,
		stats:      st,
	}
	// Built back to front so the free list's head ends up at offset 0.
	for i := nSlots - 1; i >= 0; i-- {
		p := newPage(int64(i * mem.PGSIZE))
		p.next = m.free
		m.free = p
	}
	return m
}

func (m *Manager) listFor(seg as.Segment) map[defs.Pid_t]*page {
	switch seg {
	case as.SegText:
		return m.textPages
	case as.SegData:
		return m.dataPages
	case as.SegStack:
		return m.stackPages
	default:
		return nil
	}
}

// Load restores vaddr's contents for pid into frame if they are held in
// the swap file, unlinking the slot from the process's list before
// waiting out any in-flight store and only returning the slot to the
// free list once the read completes. It is loadSwapFrame.
func (m *Manager) Load(vaddr mem.Va_t, pid defs.Pid_t, frame int) (bool, defs.Err_t) {
	prov, ok := m.registry.Get(pid)
	if !ok {
		return false, defs.EINVAL
	}
	list := m.listFor(as.Classify(prov, vaddr))
	if list == nil {
		// Outside every segment: nothing can have been swapped out here.
		return false, 0
	}

	m.mu.Lock()
	var prev *page
	p := list[pid]
	for p != nil && p.vaddr != vaddr {
		prev = p
		p = p.next
	}
	if p == nil {
		m.mu.Unlock()
		return false, 0
	}
	if prev != nil {
		prev.next = p.next
	} else {
		list[pid] = p.next
	}
	m.mu.Unlock()

	p.mu.Lock()
	for p.storing {
		p.cv.Wait()
	}
	p.mu.Unlock()

	m.stats.PTFaultsDisk.Inc()

	if _, err := m.file.ReadAt(m.ram.Frame(frame), p.offset); err != nil {
		return false, defs.EIO
	}

	p.vaddr = 0
	m.mu.Lock()
	p.next = m.free
	m.free = p
	m.mu.Unlock()

	m.stats.PTFaultsFromSwap.Inc()
	return true, 0
}

// Store writes frame's contents out to a free swap slot and links that
// slot into pid's per-segment list, classified from vaddr. It is
// storeSwapFrame. It implements ipt.SwapStore.
func (m *Manager) Store(vaddr mem.Va_t, pid defs.Pid_t, frame int) defs.Err_t {
	prov, ok := m.registry.Get(pid)
	if !ok {
		return defs.EINVAL
	}
	list := m.listFor(as.Classify(prov, vaddr))
	if list == nil {
		return defs.EFAULT
	}

	m.mu.Lock()
	free := m.free
	if free == nil {
		m.mu.Unlock()
		panic("swap: swapfile is full")
	}
	m.free = free.next
	free.next = list[pid]
	list[pid] = free
	free.vaddr = vaddr
	free.mu.Lock()
	free.storing = true
	free.mu.Unlock()
	m.mu.Unlock()

	_, err := m.file.WriteAt(m.ram.Frame(frame), free.offset)

	free.mu.Lock()
	free.storing = false
	free.cv.Broadcast()
	free.mu.Unlock()

	if err != nil {
		return defs.EIO
	}
	m.stats.SwapfileWrites.Inc()
	return 0
}

// FreeProcess releases every swap slot held by pid across all three
// segment lists, waiting out any in-flight store on each slot first. It
// is freeProcessPagesInSwap.
func (m *Manager) FreeProcess(pid defs.Pid_t) {
	for _, list := range []map[defs.Pid_t]*page{m.textPages, m.dataPages, m.stackPages} {
		m.mu.Lock()
		head := list[pid]
		delete(list, pid)
		m.mu.Unlock()

		for elem := head; elem != nil; {
			elem.mu.Lock()
			for elem.storing {
				elem.cv.Wait()
			}
			elem.mu.Unlock()

			next := elem.next
			m.mu.Lock()
			elem.next = m.free
			m.free = elem
			m.mu.Unlock()
			elem = next
		}
	}
}

// Duplicate copies every swap slot pid1 owns into new slots owned by
// pid2, reading each source through the manager's scratch buffer rather
// than through RAM, since neither side of a swap-to-swap copy is
// resident. It is duplicateSwapPages.
func (m *Manager) Duplicate(pid1, pid2 defs.Pid_t) defs.Err_t {
	for _, list := range []map[defs.Pid_t]*page{m.textPages, m.dataPages, m.stackPages} {
		m.mu.Lock()
		src := list[pid1]
		m.mu.Unlock()

		for ptr := src; ptr != nil; ptr = ptr.next {
			m.mu.Lock()
			free := m.free
			if free == nil {
				m.mu.Unlock()
				return defs.ENOMEM
			}
			m.free = free.next
			free.next = list[pid2]
			list[pid2] = free
			m.mu.Unlock()

			ptr.mu.Lock()
			for ptr.storing {
				ptr.cv.Wait()
			}
			ptr.mu.Unlock()

			if _, err := m.file.ReadAt(m.kbuf, ptr.offset); err != nil {
				return defs.EIO
			}
			if _, err := m.file.WriteAt(m.kbuf, free.offset); err != nil {
				return defs.EIO
			}
			free.vaddr = ptr.vaddr
		}
	}
	return 0
}

// Optimize reassigns every free slot's on-disk offset starting from
// zero, so low offsets (the fastest to seek to) are handed out first.
// It is optimizeSwapfile.
func (m *Manager) Optimize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.free
	for i := 0; p != nil; i++ {
		p.offset = int64(i * mem.PGSIZE)
		p = p.next
	}
}

// DebugDump renders pid's three per-segment swap lists as text. It is
// printPageLists.
func (m *Manager) DebugDump(pid defs.Pid_t) string {
	var b strings.Builder
	for _, seg := range []struct {
		name string
		list map[defs.Pid_t]*page
	}{
		{"text", m.textPages}, {"data", m.dataPages}, {"stack", m.stackPages},
	} {
		fmt.Fprintf(&b, "%s:", seg.name)
		m.mu.Lock()
		for p := seg.list[pid]; p != nil; p = p.next {
			fmt.Fprintf(&b, " [vaddr=%#x offset=%d]", p.vaddr, p.offset)
		}
		m.mu.Unlock()
		b.WriteByte('\n')
	}
	return b.String()
}
