// Package limits holds the system-wide sizing defaults of the VM core:
// frame, swap-slot, TLB-entry and process counts, and a kernel-contiguous
// reservation size. Grounded on the
// teacher's Sysatomic_t/Syslimit_t texture
// (.../biscuit/src/limits/limits.go).
package limits

import (
	"sync/atomic"
	"unsafe"
)

/// Sysatomic_t is a numeric limit that can be atomically updated.
type Sysatomic_t int64

func (s *Sysatomic_t) aptr() *int64 {
	return (*int64)(unsafe.Pointer(s))
}

/// Given increases the limit by the provided amount.
func (s *Sysatomic_t) Given(n uint) {
	atomic.AddInt64(s.aptr(), int64(n))
}

/// Taken tries to decrement the limit by the provided amount, returning
/// true on success and leaving the limit unchanged on failure.
func (s *Sysatomic_t) Taken(n uint) bool {
	g := atomic.AddInt64(s.aptr(), -int64(n))
	if g >= 0 {
		return true
	}
	atomic.AddInt64(s.aptr(), int64(n))
	return false
}

/// Get reads the current value.
func (s *Sysatomic_t) Get() int64 {
	return atomic.LoadInt64(s.aptr())
}

/// Syslimit_t holds the sizing limits the VM core is built against.
type Syslimit_t struct {
	// MaxProc is the default process count copied into config.Default.
	// The swap manager and IPT keep per-pid state in maps and do not
	// check it.
	MaxProc int

	// KmallocMaxPages is a kernel-contiguous reservation size limit.
	// ipt.Table.GetContiguousPages does not check it; it only rejects
	// requests larger than the whole table.
	KmallocMaxPages int

	// NFrames is the default size of the IPT and the simulated RAM pool
	// (copied into config.Default).
	NFrames Sysatomic_t

	// SwapSlots sizes the swap file: 9MiB/PAGE_SIZE slots.
	SwapSlots Sysatomic_t

	// NTLBEntries is the default TLB size (copied into config.Default).
	NTLBEntries int
}

/// Syslimit holds the process-wide limits, set to MkSysLimit's defaults.
/// vmkernel.Boot reads SwapSlots from it; nothing in this repository
/// overwrites it.
var Syslimit *Syslimit_t = MkSysLimit()

/// MkSysLimit returns the default limit set.
func MkSysLimit() *Syslimit_t {
	return &Syslimit_t{
		MaxProc:         256,
		KmallocMaxPages: 64,
		NFrames:         Sysatomic_t(1024),
		SwapSlots:       Sysatomic_t((9 << 20) / 4096),
		NTLBEntries:     64,
	}
}
