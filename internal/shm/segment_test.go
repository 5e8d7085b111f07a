//go:build linux || darwin

package shm

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/gridcapture/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newName() string {
	return "gridcapture_test_" + uuid.NewString()
}

func TestSegment_CreateAndOpen(t *testing.T) {
	// Given: a freshly created segment
	name := newName()
	created, err := Create(name, 4096, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = created.Close()
		_ = created.Unlink()
	})

	// When: the creator writes into it and another mapping attaches
	copy(created.Bytes(), "grid")

	opened, err := Open(name, 4096, false)
	require.NoError(t, err)
	defer opened.Close()

	// Then: the second mapping observes the same bytes
	assert.Equal(t, "grid", string(opened.Bytes()[:4]))
	assert.Len(t, opened.Bytes(), 4096)
}

func TestSegment_OpenErrors(t *testing.T) {
	t.Run("missing segment", func(t *testing.T) {
		// When: opening a name that was never created
		_, err := Open(newName(), 64, false)

		// Then: the not-exist error surfaces
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("segment smaller than requested", func(t *testing.T) {
		// Given: a small segment
		name := newName()
		created, err := Create(name, 64, 0o644)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = created.Close()
			_ = created.Unlink()
		})

		// When: attaching with a larger expected size
		_, err = Open(name, 128, true)

		// Then: ErrSegmentTooSmall is returned
		require.ErrorIs(t, err, apperror.ErrSegmentTooSmall)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := Create("a/b", 64, 0o644)

		require.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestSegment_Unlink(t *testing.T) {
	// Given: a created segment
	name := newName()
	created, err := Create(name, 64, 0o666)
	require.NoError(t, err)

	// When: it is unlinked and closed
	require.NoError(t, created.Unlink())
	require.NoError(t, created.Close())

	// Then: the name is gone and unlinking again is harmless
	path, err := Path(name)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NoError(t, created.Unlink())
}
