// Package vfsdisk is the concrete, file-backed implementation of the
// vfs.File collaborator: a regular host file accessed with pread/pwrite
// instead of a buffered os.File, the same direct-block-I/O posture a
// kernel disk driver takes toward its backing store. Grounded on the
// golang.org/x/sys/unix usage pattern in the pack's service repo.
package vfsdisk

import (
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
	"golang.org/x/sys/unix"

	"vfs"
)

// File is a host file opened for page-granular pread/pwrite.
type File struct {
	f *os.File
}

var _ vfs.File = (*File)(nil)

// Open opens path for reading and writing, creating it if it does not
// exist, and grows it to size if size > 0 and the file (new or
// existing) is currently smaller. A larger file is left as it is.
func Open(path string, size int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "vfsdisk: open %s", path)
	}
	if size > 0 {
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "vfsdisk: stat %s", path)
		}
		if fi.Size() < size {
			log.Debugf("vfsdisk: growing %s from %d to %d bytes", path, fi.Size(), size)
			if err := f.Truncate(size); err != nil {
				f.Close()
				return nil, errors.Wrapf(err, "vfsdisk: truncate %s", path)
			}
		}
	}
	return &File{f: f}, nil
}

func (d *File) ReadAt(p []byte, off int64) (int, error) {
	n, err := unix.Pread(int(d.f.Fd()), p, off)
	if err != nil {
		return n, errors.Wrapf(err, "vfsdisk: pread at %d", off)
	}
	return n, nil
}

func (d *File) WriteAt(p []byte, off int64) (int, error) {
	n, err := unix.Pwrite(int(d.f.Fd()), p, off)
	if err != nil {
		return n, errors.Wrapf(err, "vfsdisk: pwrite at %d", off)
	}
	return n, nil
}

// Close releases the underlying host file descriptor.
func (d *File) Close() error {
	return d.f.Close()
}
