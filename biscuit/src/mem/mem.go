// Package mem holds the page-size constants and the simulated physical
// memory backing the IPT. See DESIGN.md for why this replaces the
// teacher's Physmem_t/dmap.go (both depend on biscuit's own patched Go
// runtime and on x86 hardware page tables, neither of which apply to a
// software-TLB MIPS-like target running as a hosted Go process).
package mem

import (
	"fmt"

	"util"
)

/// PGSHIFT is the base-2 exponent for the page size.
const PGSHIFT uint = 12

/// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

/// PGOFFSET masks the offset bits of an address.
const PGOFFSET uintptr = uintptr(PGSIZE - 1)

/// PGMASK masks the page number bits of an address.
const PGMASK uintptr = ^PGOFFSET

/// Pa_t is a physical address: a byte offset into the simulated RAM.
type Pa_t uintptr

/// Va_t is a virtual address.
type Va_t uintptr

/// Pgdown aligns v down to its containing page.
func (v Va_t) Pgdown() Va_t { return Va_t(util.Rounddown(uintptr(v), uintptr(PGSIZE))) }

/// Pgoff returns the offset of v within its page.
func (v Va_t) Pgoff() uintptr { return uintptr(v) & PGOFFSET }

/// Bytepg_t is one page's worth of bytes.
type Bytepg_t [PGSIZE]uint8

/// Frame converts a physical address to a frame index.
func (p Pa_t) Frame() int { return int(p) / PGSIZE }

/// FrameAddr converts a frame index back to its physical address.
func FrameAddr(frame int) Pa_t { return Pa_t(frame * PGSIZE) }

/// RAM simulates the machine's physical memory as a flat byte slice, one
/// slot of PGSIZE bytes per frame. There is no hardware MMU to alias
/// through on this target, so a frame's contents are just a slice into the
/// backing array — the kernel-alias load/store the spec describes is this
/// slice itself.
type RAM struct {
	bytes   []byte
	nframes int
}

/// NewRAM allocates a simulated RAM pool of nframes frames.
func NewRAM(nframes int) *RAM {
	if nframes <= 0 {
		panic("mem: RAM requires at least one frame")
	}
	return &RAM{
		bytes:   make([]byte, nframes*PGSIZE),
		nframes: nframes,
	}
}

/// NFrames reports how many frames this RAM pool holds.
func (r *RAM) NFrames() int { return r.nframes }

/// Frame returns the byte slice backing physical frame i. The slice aliases
/// the RAM's storage; writes through it are visible to every other holder
/// of the same frame index.
func (r *RAM) Frame(i int) []byte {
	if i < 0 || i >= r.nframes {
		panic(fmt.Sprintf("mem: frame index %d out of range [0,%d)", i, r.nframes))
	}
	base := i * PGSIZE
	return r.bytes[base : base+PGSIZE]
}

/// FrameAt is Frame keyed by physical address rather than frame index.
func (r *RAM) FrameAt(pa Pa_t) []byte {
	return r.Frame(pa.Frame())
}
