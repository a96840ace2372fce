// Package vmstats exposes biscuit/src/stats.VM as a Prometheus
// collector, in the style of talyz-systemd_exporter's Collector: one
// prometheus.Desc per counter, built once in NewCollector and emitted
// fresh on every scrape in Collect.
package vmstats

import (
	"github.com/prometheus/client_golang/prometheus"

	"stats"
)

const namespace = "vmkern"

// Collector adapts a *stats.VM to prometheus.Collector.
type Collector struct {
	vm *stats.VM

	tlbFaults        *prometheus.Desc
	tlbFaultsFree    *prometheus.Desc
	tlbFaultsReplace *prometheus.Desc
	tlbInvalidations *prometheus.Desc
	tlbReloads       *prometheus.Desc

	ptFaultsZeroed   *prometheus.Desc
	ptFaultsDisk     *prometheus.Desc
	ptFaultsFromELF  *prometheus.Desc
	ptFaultsFromSwap *prometheus.Desc
	swapfileWrites   *prometheus.Desc
}

// NewCollector wraps vm for Prometheus registration.
func NewCollector(vm *stats.VM) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &Collector{
		vm:               vm,
		tlbFaults:        desc("tlb_faults_total", "Page faults handled."),
		tlbFaultsFree:    desc("tlb_faults_with_free_total", "Page faults resolved into a free TLB entry."),
		tlbFaultsReplace: desc("tlb_faults_with_replace_total", "Page faults that evicted a TLB entry."),
		tlbInvalidations: desc("tlb_invalidations_total", "Full TLB invalidations on context switch."),
		tlbReloads:       desc("tlb_reloads_total", "Faults resolved from an already-resident IPT entry."),
		ptFaultsZeroed:   desc("pt_faults_zeroed_total", "Faults filled by zero-fill (stack)."),
		ptFaultsDisk:     desc("pt_faults_disk_total", "Faults requiring a disk read (ELF or swap)."),
		ptFaultsFromELF:  desc("pt_faults_from_elf_total", "Faults filled by reading the ELF image."),
		ptFaultsFromSwap: desc("pt_faults_from_swapfile_total", "Faults filled by reading the swap file."),
		swapfileWrites:   desc("pt_swapfile_writes_total", "Pages written out to the swap file."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tlbFaults
	ch <- c.tlbFaultsFree
	ch <- c.tlbFaultsReplace
	ch <- c.tlbInvalidations
	ch <- c.tlbReloads
	ch <- c.ptFaultsZeroed
	ch <- c.ptFaultsDisk
	ch <- c.ptFaultsFromELF
	ch <- c.ptFaultsFromSwap
	ch <- c.swapfileWrites
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	emit := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	emit(c.tlbFaults, c.vm.TLBFaults.Get())
	emit(c.tlbFaultsFree, c.vm.TLBFaultsFree.Get())
	emit(c.tlbFaultsReplace, c.vm.TLBFaultsReplace.Get())
	emit(c.tlbInvalidations, c.vm.TLBInvalidations.Get())
	emit(c.tlbReloads, c.vm.TLBReloads.Get())
	emit(c.ptFaultsZeroed, c.vm.PTFaultsZeroed.Get())
	emit(c.ptFaultsDisk, c.vm.PTFaultsDisk.Get())
	emit(c.ptFaultsFromELF, c.vm.PTFaultsFromELF.Get())
	emit(c.ptFaultsFromSwap, c.vm.PTFaultsFromSwap.Get())
	emit(c.swapfileWrites, c.vm.SwapfileWrites.Get())
}
