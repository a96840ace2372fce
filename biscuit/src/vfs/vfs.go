// Package vfs is the narrow VFS collaborator this subsystem consumes
// (spec.md §6): page-granular reads and writes against a backing object,
// either the swap file or an ELF image vnode.
package vfs

import "io"

/// File is everything the swap manager and segment loader need from a
/// backing object. It mirrors a UIO descriptor of {buffer, length, file
/// offset, direction} with the two stdlib interfaces that already model
/// exactly that shape.
type File interface {
	io.ReaderAt
	io.WriterAt
}
