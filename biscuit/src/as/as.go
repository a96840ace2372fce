// Package as models the AddressSpace collaborator spec.md §3 and §6
// describe as external: per-process segment geometry, ELF offsets, and a
// handle to the backing ELF object. Grounded on original_source's
// vm/addrspace.c (as_create/as_copy/as_define_region/as_is_correct).
package as

import (
	"sync"

	"defs"
	"mem"
	"vfs"
)

/// Segment names a region of a process's address space.
type Segment int

const (
	SegNone Segment = iota
	SegText
	SegData
	SegStack
)

func (s Segment) String() string {
	switch s {
	case SegText:
		return "text"
	case SegData:
		return "data"
	case SegStack:
		return "stack"
	default:
		return "none"
	}
}

/// UserStack is USERSTACK: the top of the stack segment. Classify counts
/// addresses up to and including it as stack.
const UserStack mem.Va_t = 0x80000000

/// ProgHeader is the subset of an ELF program header this subsystem reads:
/// the file offset of the segment and its on-file/in-memory sizes.
type ProgHeader struct {
	Offset int64
	Filesz uintptr
	Memsz  uintptr
}

/// Provider is the narrow, per-process view the IPT, swap manager, and
/// segment loader consult. It is the Go stand-in for "struct addrspace".
type Provider interface {
	TextBase() mem.Va_t
	TextPages() int
	DataBase() mem.Va_t
	DataPages() int
	TextHeader() ProgHeader
	DataHeader() ProgHeader
	InitialOffsetText() uintptr
	InitialOffsetData() uintptr
	ELF() vfs.File
	/// Valid reports whether the address space is well formed, the Go
	/// analogue of as_is_correct (supplemented per SPEC_FULL §12).
	Valid() bool
}

/// Space is the concrete Provider used outside of tests.
type Space struct {
	VBaseText  mem.Va_t
	NPagesText int
	VBaseData  mem.Va_t
	NPagesData int

	ProgHeadText ProgHeader
	ProgHeadData ProgHeader

	InitOffsetText uintptr
	InitOffsetData uintptr

	ELFFile *ElfHandle
}

func (s *Space) TextBase() mem.Va_t           { return s.VBaseText }
func (s *Space) TextPages() int               { return s.NPagesText }
func (s *Space) DataBase() mem.Va_t           { return s.VBaseData }
func (s *Space) DataPages() int               { return s.NPagesData }
func (s *Space) TextHeader() ProgHeader       { return s.ProgHeadText }
func (s *Space) DataHeader() ProgHeader       { return s.ProgHeadData }
func (s *Space) InitialOffsetText() uintptr   { return s.InitOffsetText }
func (s *Space) InitialOffsetData() uintptr   { return s.InitOffsetData }
func (s *Space) ELF() vfs.File                { return s.ELFFile }

/// Valid mirrors as_is_correct's essential check: a well formed address
/// space has a non-empty text segment and a data segment that starts at or
/// after the end of text.
func (s *Space) Valid() bool {
	if s.NPagesText <= 0 {
		return false
	}
	textEnd := s.VBaseText + mem.Va_t(s.NPagesText*mem.PGSIZE)
	return s.VBaseData >= textEnd
}

/// ElfHandle refcounts a vfs.File the way as_copy/as_destroy refcount the
/// ELF vnode across fork: every address space sharing the same ELF image
/// holds one reference, and the file is only meant to be closed by the
/// caller once the count reaches zero.
type ElfHandle struct {
	mu  sync.Mutex
	ref int
	vfs.File
}

/// NewElfHandle wraps f with a starting reference count of one.
func NewElfHandle(f vfs.File) *ElfHandle {
	return &ElfHandle{ref: 1, File: f}
}

/// Incref adds a reference, as as_copy does on fork.
func (e *ElfHandle) Incref() {
	e.mu.Lock()
	e.ref++
	e.mu.Unlock()
}

/// Decref drops a reference and reports whether it reached zero, mirroring
/// as_destroy's vn_refcount check.
func (e *ElfHandle) Decref() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ref--
	if e.ref < 0 {
		panic("as: ElfHandle refcount underflow")
	}
	return e.ref == 0
}

/// Classify implements the shared classification rule of spec.md §4.2/§4.3:
/// text, then data, then stack (strictly above the data segment's end, at
/// or below UserStack), else none.
func Classify(p Provider, vaddr mem.Va_t) Segment {
	textEnd := p.TextBase() + mem.Va_t(p.TextPages()*mem.PGSIZE)
	if vaddr >= p.TextBase() && vaddr <= textEnd {
		return SegText
	}
	dataEnd := p.DataBase() + mem.Va_t(p.DataPages()*mem.PGSIZE)
	if vaddr >= p.DataBase() && vaddr <= dataEnd {
		return SegData
	}
	if vaddr > dataEnd && vaddr <= UserStack {
		return SegStack
	}
	return SegNone
}

/// Registry resolves a pid to its address space. IPT, the swap manager,
/// and the fault handler all take one so that eviction and duplication
/// classify against the frame's actual owner rather than the calling
/// process (see DESIGN.md open question on this).
type Registry interface {
	Get(pid defs.Pid_t) (Provider, bool)
}

/// Table is the concrete Registry: a process-wide map guarded by a mutex,
/// populated by whatever process-lifecycle layer sits above this package
/// (out of scope per spec.md §1).
type Table struct {
	mu     sync.RWMutex
	spaces map[defs.Pid_t]Provider
}

/// NewTable returns an empty registry.
func NewTable() *Table {
	return &Table{spaces: make(map[defs.Pid_t]Provider)}
}

/// Register associates pid with p, overwriting any previous entry.
func (t *Table) Register(pid defs.Pid_t, p Provider) {
	t.mu.Lock()
	t.spaces[pid] = p
	t.mu.Unlock()
}

/// Unregister removes pid's address space.
func (t *Table) Unregister(pid defs.Pid_t) {
	t.mu.Lock()
	delete(t.spaces, pid)
	t.mu.Unlock()
}

/// Get returns pid's address space, if registered.
func (t *Table) Get(pid defs.Pid_t) (Provider, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.spaces[pid]
	return p, ok
}
