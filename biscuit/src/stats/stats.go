// Package stats counts the VM core's fault/reload/replace/zero/elf/swap
// events. Grounded on the teacher's Counter_t/Stats2String texture
// (.../biscuit/src/stats/stats.go) and on original_source/vm/stats.c for
// the exact counter set and the shutdown invariant checks.
package stats

import (
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"unsafe"
)

/// Counter_t is a statistical counter, atomically incremented.
type Counter_t int64

/// Inc increments the counter by one.
func (c *Counter_t) Inc() {
	n := (*int64)(unsafe.Pointer(c))
	atomic.AddInt64(n, 1)
}

/// Get reads the counter's current value.
func (c *Counter_t) Get() int64 {
	n := (*int64)(unsafe.Pointer(c))
	return atomic.LoadInt64(n)
}

/// VM holds every counter named in spec.md §6.
type VM struct {
	TLBFaults        Counter_t
	TLBFaultsFree    Counter_t
	TLBFaultsReplace Counter_t
	TLBInvalidations Counter_t
	TLBReloads       Counter_t

	PTFaultsZeroed     Counter_t
	PTFaultsDisk       Counter_t
	PTFaultsFromELF    Counter_t
	PTFaultsFromSwap   Counter_t
	SwapfileWrites     Counter_t
}

/// String renders every counter, one per line, in the teacher's
/// Stats2String layout.
func (s *VM) String() string {
	v := reflect.ValueOf(s).Elem()
	var b strings.Builder
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if c, ok := f.Addr().Interface().(*Counter_t); ok {
			b.WriteString("\n\t")
			b.WriteString(v.Type().Field(i).Name)
			b.WriteString(": ")
			b.WriteString(strconv.FormatInt(c.Get(), 10))
		}
	}
	b.WriteString("\n")
	return b.String()
}

/// CheckInvariants ports constraintsCheck/printStatistics's correctness
/// checks (original_source/vm/stats.c): each failing check becomes one
/// warning string; an empty result means everything balanced.
func (s *VM) CheckInvariants() []string {
	var warnings []string

	faults := s.TLBFaults.Get()
	free := s.TLBFaultsFree.Get()
	replace := s.TLBFaultsReplace.Get()
	reload := s.TLBReloads.Get()
	zeroed := s.PTFaultsZeroed.Get()
	disk := s.PTFaultsDisk.Get()
	elf := s.PTFaultsFromELF.Get()
	swap := s.PTFaultsFromSwap.Get()

	if faults != free+replace {
		warnings = append(warnings, "tlb_faults_with_free + tlb_faults_with_replace != tlb_faults")
	}
	if faults != reload+disk+zeroed {
		warnings = append(warnings, "tlb_reloads + pt_faults_disk + pt_faults_zeroed != tlb_faults")
	}
	if disk != elf+swap {
		warnings = append(warnings, "pt_faults_from_elf + pt_faults_from_swapfile != pt_faults_disk")
	}
	return warnings
}
