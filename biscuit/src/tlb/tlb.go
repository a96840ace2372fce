// Package tlb simulates the processor's software-managed translation
// lookaside buffer: a fixed number of entries, round-robin victim
// selection, no ASID field. Grounded on original_source/vm/vm_tlb.c.
package tlb

import (
	"fmt"
	"strings"
	"sync"

	"defs"
	"mem"
	"stats"
)

// IPTNotifier is the subset of the inverted page table the TLB manager
// notifies when it evicts or invalidates an entry, so the IPT can clear
// the entry's TLB-resident bit and set its reference bit (tlbUpdateBit).
type IPTNotifier interface {
	TLBUpdateBit(vaddr mem.Va_t, pid defs.Pid_t) bool
}

type tlbEntry struct {
	valid bool
	dirty bool
	vaddr mem.Va_t
	pid   defs.Pid_t
	frame int
}

// TLB is the fixed-size translation cache.
type TLB struct {
	mu       sync.Mutex
	entries  []tlbEntry
	nextVict int
	prevPid  defs.Pid_t
	havePrev bool

	ipt   IPTNotifier
	stats *stats.VM
}

// New builds a TLB with n entries.
func New(n int, ipt IPTNotifier, st *stats.VM) *TLB {
	return &TLB{entries: make([]tlbEntry, n), ipt: ipt, stats: st}
}

// Insert writes a (vaddr, frame) translation into the TLB, preferring a
// free entry and otherwise evicting the next round-robin victim. The
// dirty bit is set unless readOnly is true (spec.md §4.5's policy: text
// pages never take the dirty bit, data/stack pages always do). It is
// tlbInsert.
func (t *TLB) Insert(vaddr mem.Va_t, pid defs.Pid_t, frame int, readOnly bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if !t.entries[i].valid {
			t.entries[i] = tlbEntry{valid: true, dirty: !readOnly, vaddr: vaddr, pid: pid, frame: frame}
			t.stats.TLBFaultsFree.Inc()
			return
		}
	}

	i := t.nextVict
	t.nextVict = (t.nextVict + 1) % len(t.entries)
	prev := t.entries[i]
	if prev.valid {
		t.ipt.TLBUpdateBit(prev.vaddr, prev.pid)
	}
	t.entries[i] = tlbEntry{valid: true, dirty: !readOnly, vaddr: vaddr, pid: pid, frame: frame}
	t.stats.TLBFaultsReplace.Inc()
}

// EntryValid reports whether slot i currently holds a valid
// translation. It is tlbEntryIsValid.
func (t *TLB) EntryValid(i int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[i].valid
}

// Invalidate flushes the whole TLB when the running process changes,
// handing each evicted entry back to the IPT first. A no-op if pid is
// the same process that last ran. It is tlbInvalidate.
func (t *TLB) Invalidate(pid defs.Pid_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.havePrev && pid == t.prevPid {
		return
	}
	t.stats.TLBInvalidations.Inc()
	for i := range t.entries {
		if t.entries[i].valid {
			t.ipt.TLBUpdateBit(t.entries[i].vaddr, t.entries[i].pid)
		}
		t.entries[i] = tlbEntry{}
	}
	t.prevPid = pid
	t.havePrev = true
}

// NumEntries reports the TLB's fixed size.
func (t *TLB) NumEntries() int {
	return len(t.entries)
}

// DebugDump renders every valid entry as text. It is tlbPrint.
func (t *TLB) DebugDump() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var b strings.Builder
	for i, e := range t.entries {
		if !e.valid {
			continue
		}
		fmt.Fprintf(&b, "[%d] pid=%d vaddr=%#x frame=%d dirty=%t\n", i, e.pid, e.vaddr, e.frame, e.dirty)
	}
	return b.String()
}
