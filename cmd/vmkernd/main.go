// Command vmkernd runs the demand-paged VM core as a standalone daemon:
// it boots the IPT/TLB/swap/fault subsystem, serves its counters on a
// Prometheus /metrics endpoint, and notifies systemd once ready.
// Grounded on talyz-systemd_exporter's systemd/systemd.go for the
// kingpin flag, procfs, and prometheus/common/log usage, and its
// go.mod for the surrounding ecosystem (coreos/go-systemd,
// povilasv/prommod).
package main

import (
	"net/http"
	"os"

	"github.com/coreos/go-systemd/daemon"
	"github.com/povilasv/prommod"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/log"
	"github.com/prometheus/procfs"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"mem"

	"biscuit/internal/config"
	"biscuit/internal/vmkernel"
	"biscuit/internal/vmstats"
)

var (
	configPath = kingpin.Flag("config", "Path to the daemon's JSON config file.").Default("vmkernd.json").String()
	procPath   = kingpin.Flag("path.procfs", "procfs mountpoint, used to size the simulated RAM pool from real available memory.").Default(procfs.DefaultMountPoint).String()
	listenAddr = kingpin.Flag("web.listen-address", "Address to serve /metrics on; overrides the config file's metrics_addr when set.").String()
)

func main() {
	log.AddFlags(kingpin.CommandLine)
	kingpin.Parse()

	cfg, err := loadOrSeedConfig(*configPath)
	if err != nil {
		log.Fatalf("vmkernd: config: %v", err)
	}
	if *listenAddr != "" {
		cfg.MetricsAddr = *listenAddr
	}
	sizeFromProcfs(&cfg, *procPath)

	k, err := vmkernel.Boot(cfg)
	if err != nil {
		log.Fatalf("vmkernd: boot: %v", err)
	}

	watcher, err := config.Watch(*configPath)
	if err != nil {
		log.Warnf("vmkernd: config watch disabled: %v", err)
	} else {
		go logConfigReloads(watcher)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(vmstats.NewCollector(k.Stats))
	reg.MustRegister(prommod.NewCollector("vmkernd"))

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warnf("vmkernd: sd_notify failed: %v", err)
	} else if ok {
		log.Infof("vmkernd: notified systemd readiness")
	}

	log.Infof("vmkernd: serving metrics on %s", cfg.MetricsAddr)
	if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
		shutdown(k)
		log.Fatalf("vmkernd: metrics server: %v", err)
	}
}

func loadOrSeedConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// sizeFromProcfs stands in for mainbus_ramsize(): when cfg.NFrames is
// not positive it samples the host's available memory to pick a
// simulated frame count. config.Default and config.Load both yield a
// positive NFrames, so for the configs main builds the frame count is
// never taken from procfs.
func sizeFromProcfs(cfg *config.Config, procPath string) {
	if cfg.NFrames > 0 {
		return
	}
	fs, err := procfs.NewFS(procPath)
	if err != nil {
		log.Warnf("vmkernd: procfs unavailable, keeping default frame count: %v", err)
		return
	}
	mi, err := fs.Meminfo()
	if err != nil || mi.MemAvailable == nil {
		log.Warnf("vmkernd: meminfo unavailable, keeping default frame count: %v", err)
		return
	}
	availBytes := *mi.MemAvailable * 1024
	frames := int(availBytes / uint64(mem.PGSIZE) / 64)
	if frames > 0 {
		cfg.NFrames = frames
	}
}

func logConfigReloads(w *config.Watcher) {
	for {
		select {
		case c, ok := <-w.Updates:
			if !ok {
				return
			}
			log.Infof("vmkernd: config reloaded: swap=%s metrics=%s", c.SwapFilePath, c.MetricsAddr)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warnf("vmkernd: config reload failed: %v", err)
		}
	}
}

func shutdown(k *vmkernel.Kernel) {
	warnings, err := k.Shutdown()
	for _, w := range warnings {
		log.Errorf("vmkernd: statistics invariant failed: %s", w)
	}
	if err != nil {
		log.Warnf("vmkernd: shutdown: %v", err)
	}
	log.Info(k.Stats.String())
}
