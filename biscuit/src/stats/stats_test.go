package stats

import "testing"

func TestCounterIncGet(t *testing.T) {
	var c Counter_t
	for i := 0; i < 5; i++ {
		c.Inc()
	}
	if got := c.Get(); got != 5 {
		t.Fatalf("Get() = %d, want 5", got)
	}
}

func TestCheckInvariantsBalanced(t *testing.T) {
	var vm VM
	vm.TLBReloads.Inc()
	vm.PTFaultsZeroed.Inc()
	vm.PTFaultsDisk.Inc()
	vm.PTFaultsFromELF.Inc()
	vm.TLBFaultsFree.Inc()
	vm.TLBFaultsFree.Inc()
	vm.TLBFaultsReplace.Inc()
	vm.TLBFaults.Inc()
	vm.TLBFaults.Inc()
	vm.TLBFaults.Inc()

	if w := vm.CheckInvariants(); len(w) != 0 {
		t.Fatalf("CheckInvariants() = %v, want none", w)
	}
}

func TestCheckInvariantsCatchesMismatch(t *testing.T) {
	var vm VM
	vm.TLBFaults.Inc()

	w := vm.CheckInvariants()
	if len(w) == 0 {
		t.Fatal("CheckInvariants() = empty, want at least one warning")
	}
}

func TestStringListsEveryCounter(t *testing.T) {
	var vm VM
	vm.TLBFaults.Inc()
	s := vm.String()
	for _, name := range []string{
		"TLBFaults", "TLBFaultsFree", "TLBFaultsReplace", "TLBInvalidations",
		"TLBReloads", "PTFaultsZeroed", "PTFaultsDisk", "PTFaultsFromELF",
		"PTFaultsFromSwap", "SwapfileWrites",
	} {
		if !contains(s, name) {
			t.Errorf("String() missing counter %q", name)
		}
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
