//go:build !linux && !darwin

package shm

import (
	"os"

	"github.com/rocketscienceinc/gridcapture/internal/apperror"
)

func mapFile(_ *os.File, _ int, _ bool) ([]byte, error) {
	return nil, apperror.ErrUnsupportedOnHost
}

func unmap(_ []byte) error {
	return nil
}
