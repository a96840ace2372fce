// Package vmkernel wires the IPT, TLB, swap manager, and fault handler
// into one bootable unit, following original_source/vm/addrspace.c's
// vm_bootstrap: swap file first, then the inverted page table. The
// statistics block is allocated before either, since both take it.
package vmkernel

import (
	"as"
	"defs"
	"fault"
	"ipt"
	"limits"
	"mem"
	"stats"
	"swap"
	"tlb"

	"github.com/pkg/errors"

	"biscuit/internal/config"
	"biscuit/internal/vfsdisk"
)

// Kernel is the booted VM subsystem, ready to take faults and
// fork-duplication requests from whatever process layer sits above it.
type Kernel struct {
	Stats    *stats.VM
	RAM      *mem.RAM
	Registry as.Registry
	IPT      *ipt.Table
	TLB      *tlb.TLB
	Swap     *swap.Manager
	Handler  *fault.Handler

	swapFile *vfsdisk.File
}

// Boot constructs a Kernel from cfg. The swap file is opened (and
// created/grown to limits.Syslimit.SwapSlots pages if needed) before
// the IPT, matching vm_bootstrap's initSwapfile-then-initPT order; the
// fault handler is wired in last since it closes the cycle back into
// the IPT via ipt.Table.SetLoader.
func Boot(cfg config.Config) (*Kernel, error) {
	st := &stats.VM{}
	ram := mem.NewRAM(cfg.NFrames)
	registry := as.NewTable()

	slots := int(limits.Syslimit.SwapSlots.Get())
	swapBytes := int64(slots) * int64(mem.PGSIZE)
	sf, err := vfsdisk.Open(cfg.SwapFilePath, swapBytes)
	if err != nil {
		return nil, errors.Wrap(err, "vmkernel: boot")
	}
	sw := swap.Init(sf, ram, slots, registry, st)

	pt := ipt.NewTable(ram, sw, nil, st)
	tl := tlb.New(cfg.NTLBEntries, pt, st)
	fh := fault.NewHandler(pt, tl, sw, registry, ram, st)
	pt.SetLoader(fh)

	return &Kernel{
		Stats:    st,
		RAM:      ram,
		Registry: registry,
		IPT:      pt,
		TLB:      tl,
		Swap:     sw,
		Handler:  fh,
		swapFile: sf,
	}, nil
}

// Fault handles a page fault for pid at addr, the entry point a process
// layer calls from its trap handler.
func (k *Kernel) Fault(pid defs.Pid_t, typ defs.FaultType, addr mem.Va_t) fault.Outcome {
	return k.Handler.VMFault(pid, typ, addr)
}

// Shutdown checks the statistics invariants and closes the swap file.
// The returned warnings are non-nil only if a counter invariant from
// spec.md §8 failed to hold; vmkernd logs them at shutdown but does not
// treat them as fatal.
func (k *Kernel) Shutdown() ([]string, error) {
	warnings := k.Stats.CheckInvariants()
	if err := k.swapFile.Close(); err != nil {
		return warnings, errors.Wrap(err, "vmkernel: shutdown")
	}
	return warnings, nil
}
