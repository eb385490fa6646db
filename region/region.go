// Package region owns the externally supplied block of bytes a slabpool
// pool manages: a file-backed mmap for real cross-process sharing, or a
// plain heap buffer for tests. Neither slabpool nor its callers need to
// know which backend produced the []byte they were handed.
package region

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Region is a mapped block of memory plus however the implementation needs
// to tear it back down.
type Region struct {
	bytes  []byte
	file   *os.File
	mapped bool
}

// Bytes returns the region's backing slice. The slice is valid until Close.
func (r *Region) Bytes() []byte { return r.bytes }

// Create truncates (or creates) the file at path to size bytes and maps it
// shared, read-write — the typical "first process" path, which then calls
// slabpool.NewPool on the returned bytes.
func Create(path string, size int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "region: open %s", path)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "region: truncate %s to %d", path, size)
	}
	b, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "region: mmap %s", path)
	}
	return &Region{bytes: b, file: f, mapped: true}, nil
}

// Attach maps an existing file at path shared, read-write, for a process
// that did not create the region — the typical "second process" path,
// which then calls slabpool.Attach on the returned bytes.
func Attach(path string) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "region: open %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "region: stat %s", path)
	}
	b, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "region: mmap %s", path)
	}
	return &Region{bytes: b, file: f, mapped: true}, nil
}

// Close unmaps the region, if it was backed by a mapped file, and closes
// the backing file.
func (r *Region) Close() error {
	if !r.mapped {
		return nil
	}
	if err := unix.Munmap(r.bytes); err != nil {
		return errors.Wrap(err, "region: munmap")
	}
	return r.file.Close()
}
