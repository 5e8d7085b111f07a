//go:build linux || darwin

package shm

import (
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(file *os.File, size int, writable bool) ([]byte, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}

	return unix.Mmap(int(file.Fd()), 0, size, prot, unix.MAP_SHARED)
}

func unmap(mem []byte) error {
	return unix.Munmap(mem)
}
