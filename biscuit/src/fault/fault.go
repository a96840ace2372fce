// Package fault implements the page-fault handler and ELF segment
// loader, and the fork-duplication sequence that ties the IPT, TLB, and
// swap manager together. Grounded on original_source/vm/vm_tlb.c
// (vm_fault), vm/segments.c (loadPage/loadELFPage), and
// vm/addrspace.c (as_copy).
package fault

import (
	"as"
	"defs"
	"ipt"
	"mem"
	"stats"
	"swap"
	"tlb"
	"util"
)

// Outcome reports how a fault resolved: handled transparently, or
// requiring the caller to terminate the faulting process.
type Outcome struct {
	Err      defs.Err_t
	Exited   bool
	ExitCode int
}

// Handler wires the IPT, TLB, swap manager, and address-space registry
// into the fault path of spec.md §4.3 and §4.5.
type Handler struct {
	ipt      *ipt.Table
	tlb      *tlb.TLB
	swap     *swap.Manager
	registry as.Registry
	ram      *mem.RAM
	stats    *stats.VM
}

// NewHandler builds a fault handler over the given collaborators.
func NewHandler(i *ipt.Table, t *tlb.TLB, s *swap.Manager, reg as.Registry, ram *mem.RAM, st *stats.VM) *Handler {
	return &Handler{ipt: i, tlb: t, swap: s, registry: reg, ram: ram, stats: st}
}

// VMFault is vm_fault: it dispatches on the access type, resolves the
// faulting address to a frame through the IPT (faulting it in if
// necessary via LoadPage), and installs the translation in the TLB.
func (h *Handler) VMFault(pid defs.Pid_t, typ defs.FaultType, addr mem.Va_t) Outcome {
	h.stats.TLBFaults.Inc()
	vaddr := addr.Pgdown()

	switch typ {
	case defs.FaultRead, defs.FaultWrite:
	case defs.FaultReadOnly:
		return Outcome{Exited: true, ExitCode: 0}
	default:
		return Outcome{Err: defs.EINVAL}
	}

	prov, ok := h.registry.Get(pid)
	if !ok {
		return Outcome{Err: defs.EINVAL}
	}
	if !prov.Valid() {
		return Outcome{Err: defs.EINVAL}
	}

	frame, err := h.ipt.GetFrame(vaddr, pid)
	if err == defs.ESEGV {
		return Outcome{Exited: true, ExitCode: -1}
	}
	if err != 0 {
		return Outcome{Err: err}
	}

	readOnly := as.Classify(prov, vaddr) == as.SegText
	h.tlb.Insert(vaddr, pid, frame, readOnly)
	return Outcome{}
}

// LoadPage fills frame with vaddr's contents for pid: from swap if
// resident there, otherwise from the ELF image (text/data) or by
// zero-filling (stack). It is loadPage, and implements ipt.Loader.
func (h *Handler) LoadPage(vaddr mem.Va_t, pid defs.Pid_t, frame int) defs.Err_t {
	if found, err := h.swap.Load(vaddr, pid, frame); err != 0 {
		return err
	} else if found {
		return 0
	}

	prov, ok := h.registry.Get(pid)
	if !ok {
		return defs.EINVAL
	}

	switch as.Classify(prov, vaddr) {
	case as.SegText:
		h.stats.PTFaultsDisk.Inc()
		err := fillSegmentPage(h.ram, prov.ELF(), frame, prov.TextBase(), vaddr, prov.TextHeader(), prov.InitialOffsetText())
		if err != 0 {
			return err
		}
		h.stats.PTFaultsFromELF.Inc()
		return 0

	case as.SegData:
		h.stats.PTFaultsDisk.Inc()
		err := fillSegmentPage(h.ram, prov.ELF(), frame, prov.DataBase(), vaddr, prov.DataHeader(), prov.InitialOffsetData())
		if err != 0 {
			return err
		}
		h.stats.PTFaultsFromELF.Inc()
		return 0

	case as.SegStack:
		zero(h.ram.Frame(frame))
		h.stats.PTFaultsZeroed.Inc()
		return 0

	default:
		return defs.ESEGV
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// fillSegmentPage computes the per-page file/zero split for one page of
// an ELF text or data segment and reads it in. The first page of a
// segment not starting on a page boundary is partially zero-filled up
// to initOffset; the last page with filesz < memsz is read up to
// filesz and zero-filled beyond it; pages entirely past filesz are pure
// zero-fill with no I/O.
func fillSegmentPage(ram *mem.RAM, elf vfsReaderAt, frame int, base mem.Va_t, vaddr mem.Va_t, hdr as.ProgHeader, initOffset uintptr) defs.Err_t {
	buf := ram.Frame(frame)
	pageOff := int64(vaddr - base)

	sz := int64(mem.PGSIZE)
	var additionalOffset int64
	filesz := int64(hdr.Filesz)
	initOff := int64(initOffset)

	if initOff != 0 && pageOff == 0 {
		zero(buf)
		additionalOffset = initOff
		sz = util.Min(filesz+additionalOffset, int64(mem.PGSIZE))
	} else {
		if filesz+initOff-pageOff < int64(mem.PGSIZE) {
			zero(buf)
			sz = filesz + initOff - pageOff
		}
		if filesz+initOff-pageOff < 0 {
			zero(buf)
			return 0
		}
	}

	readLen := sz - additionalOffset
	if readLen <= 0 {
		return 0
	}
	readLen = util.Min(readLen, int64(mem.PGSIZE)-additionalOffset)

	dst := buf[additionalOffset : additionalOffset+readLen]
	if _, err := elf.ReadAt(dst, hdr.Offset+pageOff); err != nil {
		return defs.EIO
	}
	return 0
}

// vfsReaderAt is the single method fillSegmentPage needs from an ELF
// handle; as.Provider.ELF() satisfies it via vfs.File.
type vfsReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

// Copy runs the fork-duplication sequence of spec.md §4.4: freeze the
// source process's frames, duplicate its swap-resident pages, copy its
// RAM-resident pages (falling back to a direct swap store if the IPT
// has no free slot), then thaw.
func (h *Handler) Copy(oldPid, newPid defs.Pid_t) defs.Err_t {
	h.ipt.PrepareCopyPT(oldPid)
	defer h.ipt.EndCopyPT(oldPid)

	if err := h.swap.Duplicate(oldPid, newPid); err != 0 {
		return err
	}
	h.ipt.CopyPTEntries(oldPid, newPid)
	return 0
}
