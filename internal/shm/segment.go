// Package shm maps named shared memory segments that several processes of the
// same host attach to.
package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rocketscienceinc/gridcapture/internal/apperror"
)

const devShm = "/dev/shm"

var ErrInvalidName = errors.New("invalid segment name")

// Segment is a named region mapped into this process.
type Segment struct {
	name string
	path string
	file *os.File
	mem  []byte
}

// Path - returns the file backing a segment name.
func Path(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || strings.ContainsRune(name, '/') {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return filepath.Join(baseDir(), name), nil
}

func baseDir() string {
	if info, err := os.Stat(devShm); err == nil && info.IsDir() {
		return devShm
	}

	return os.TempDir()
}

// Create - creates (or truncates) the named segment to size bytes and maps it read-write.
func Create(name string, size int, perm os.FileMode) (*Segment, error) {
	path, err := Path(name)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, perm)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment %s: %w", name, err)
	}

	// umask may have narrowed the mode requested above.
	if err = file.Chmod(perm); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to chmod segment %s: %w", name, err)
	}

	if err = file.Truncate(int64(size)); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to size segment %s: %w", name, err)
	}

	mem, err := mapFile(file, size, true)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to map segment %s: %w", name, err)
	}

	return &Segment{name: name, path: path, file: file, mem: mem}, nil
}

// Open - attaches an existing segment. Read-only segments must never be written to.
func Open(name string, size int, writable bool) (*Segment, error) {
	path, err := Path(name)
	if err != nil {
		return nil, err
	}

	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment %s: %w", name, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat segment %s: %w", name, err)
	}

	if info.Size() < int64(size) {
		file.Close()
		return nil, fmt.Errorf("segment %s holds %d bytes, want %d: %w", name, info.Size(), size, apperror.ErrSegmentTooSmall)
	}

	mem, err := mapFile(file, size, writable)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to map segment %s: %w", name, err)
	}

	return &Segment{name: name, path: path, file: file, mem: mem}, nil
}

// Name - returns the segment name.
func (that *Segment) Name() string {
	return that.name
}

// Bytes - returns the mapped region. It stays valid until Close.
func (that *Segment) Bytes() []byte {
	return that.mem
}

// Close - unmaps the region and closes the backing file.
func (that *Segment) Close() error {
	var errs []error

	if that.mem != nil {
		if err := unmap(that.mem); err != nil {
			errs = append(errs, fmt.Errorf("failed to unmap segment %s: %w", that.name, err))
		}
		that.mem = nil
	}

	if that.file != nil {
		if err := that.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close segment %s: %w", that.name, err))
		}
		that.file = nil
	}

	return errors.Join(errs...)
}

// Unlink - removes the segment name. Processes that still map it keep their view.
func (that *Segment) Unlink() error {
	if err := os.Remove(that.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to unlink segment %s: %w", that.name, err)
	}

	return nil
}
