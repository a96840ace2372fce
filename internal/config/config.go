// Package config loads and live-reloads the vmkernd daemon's
// configuration: page-size-derived sizing knobs, the swap file path,
// and the metrics bind address. Grounded on
// SeleniaProject-Orizon's fsnotify watcher
// (internal/runtime/vfs/watch_fsnotify.go) for the reload loop, and its
// packagemanager/resolver.go for the semver.Constraints schema gate.
package config

import (
	"encoding/json"
	"os"
	"sync"

	semver "github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"limits"
)

// schemaConstraint is the set of config-file schema versions this build
// understands. Bumped only when Config gains or loses a field in a way
// that changes on-disk meaning.
var schemaConstraint = mustConstraint("^1.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Config is vmkernd's on-disk configuration document.
type Config struct {
	Schema string `json:"schema"`

	SwapFilePath string `json:"swap_file_path"`
	MetricsAddr  string `json:"metrics_addr"`

	NFrames     int `json:"n_frames"`
	NTLBEntries int `json:"n_tlb_entries"`
	MaxProc     int `json:"max_proc"`
}

// Default returns a Config seeded from limits.MkSysLimit's defaults.
func Default() Config {
	l := limits.MkSysLimit()
	return Config{
		Schema:       "1.0.0",
		SwapFilePath: "vmkernd.swap",
		MetricsAddr:  ":9601",
		NFrames:      int(l.NFrames.Get()),
		NTLBEntries:  l.NTLBEntries,
		MaxProc:      l.MaxProc,
	}
}

// Load reads and validates a Config from path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	v, err := semver.NewVersion(c.Schema)
	if err != nil {
		return errors.Wrapf(err, "config: schema %q is not a version", c.Schema)
	}
	if !schemaConstraint.Check(v) {
		return errors.Errorf("config: schema %s does not satisfy %s", c.Schema, schemaConstraint)
	}
	if c.NFrames <= 0 {
		return errors.New("config: n_frames must be positive")
	}
	if c.NTLBEntries <= 0 {
		return errors.New("config: n_tlb_entries must be positive")
	}
	if c.SwapFilePath == "" {
		return errors.New("config: swap_file_path must be set")
	}
	return nil
}

// Watcher reloads Config from path whenever it changes on disk and
// publishes valid revisions on Updates. A parse or validation failure
// on reload is reported on Errors and the previous Config is kept in
// effect. Both channels hold one value; a send that finds the channel
// full is dropped.
type Watcher struct {
	w   *fsnotify.Watcher
	mu  sync.Mutex
	cur Config

	Updates chan Config
	Errors  chan error
}

// Watch starts watching path, which must already exist and parse as a
// valid Config.
func Watch(path string) (*Watcher, error) {
	cur, err := Load(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "config: new watcher")
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "config: watch %s", path)
	}

	w := &Watcher{
		w:       fw,
		cur:     cur,
		Updates: make(chan Config, 1),
		Errors:  make(chan error, 1),
	}
	go w.loop(path)
	return w, nil
}

func (w *Watcher) loop(path string) {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			next, err := Load(path)
			if err != nil {
				select {
				case w.Errors <- err:
				default:
				}
				continue
			}
			w.mu.Lock()
			w.cur = next
			w.mu.Unlock()
			select {
			case w.Updates <- next:
			default:
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

// Current returns the most recently loaded valid Config.
func (w *Watcher) Current() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cur
}

// Close stops the watch.
func (w *Watcher) Close() error {
	return w.w.Close()
}
