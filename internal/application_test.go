//go:build linux || darwin

package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/gridcapture/internal/arbiter"
	"github.com/rocketscienceinc/gridcapture/internal/config"
	"github.com/rocketscienceinc/gridcapture/internal/entity"
	"github.com/rocketscienceinc/gridcapture/internal/shm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errRedisDown = errors.New("redis down")

func script(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	return path
}

func testConfig(players ...string) *config.Config {
	return &config.Config{
		LogLevel: "debug",
		Board:    config.Board{Width: 10, Height: 10, Seed: 11},
		Turn:     config.Turn{Timeout: 2 * time.Second, DelayPolicy: arbiter.DelayExcludesRender},
		Players:  players,
		SharedMemory: config.SharedMemory{
			State: "test_state_" + uuid.NewString(),
			Sync:  "test_sync_" + uuid.NewString(),
		},
	}
}

func assertUnlinked(t *testing.T, conf *config.Config) {
	t.Helper()

	for _, name := range []string{conf.SharedMemory.State, conf.SharedMemory.Sync} {
		path, err := shm.Path(name)
		require.NoError(t, err)
		assert.NoFileExists(t, path)
	}
}

func TestGame_Play(t *testing.T) {
	t.Run("scripted players", func(t *testing.T) {
		// Given: one player walking south three times and one that leaves at once
		walker := script(t, "walker", `printf '\004\004\004'`)
		quitter := script(t, "quitter", `exit 2`)
		conf := testConfig(walker, quitter)
		var out bytes.Buffer

		// When: the game is played
		report, err := NewGame(slog.New(slog.NewTextHandler(io.Discard, nil)), conf, &out).Play(context.Background())

		// Then: every figure ends up in the report
		require.NoError(t, err)
		assert.Equal(t, entity.ReasonNoActivePlayers, report.Reason)
		assert.Equal(t, int64(11), report.Seed)
		require.Len(t, report.Players, 2)

		assert.Equal(t, "walker", report.Players[0].Name)
		assert.Equal(t, uint32(3), report.Players[0].ValidMoves)
		assert.Positive(t, report.Players[0].Score)
		assert.True(t, report.Players[0].Disconnected)
		assert.Zero(t, report.Players[0].Exit.Code)

		assert.Equal(t, "quitter", report.Players[1].Name)
		assert.Zero(t, report.Players[1].ValidMoves)
		assert.Equal(t, 2, report.Players[1].Exit.Code)
		assert.Positive(t, report.Players[1].PID)

		assert.Equal(t, []int{0}, report.Winners())
		assert.Contains(t, out.String(), "winner: walker")
		assertUnlinked(t, conf)
	})

	t.Run("missing player binary aborts the setup", func(t *testing.T) {
		conf := testConfig(filepath.Join(t.TempDir(), "missing"))

		_, err := NewGame(slog.New(slog.NewTextHandler(io.Discard, nil)), conf, io.Discard).Play(context.Background())

		require.Error(t, err)
		assertUnlinked(t, conf)
	})
}

type mockReportRepo struct {
	mock.Mock
}

func (that *mockReportRepo) CreateOrUpdate(ctx context.Context, report *entity.Report) error {
	return that.Called(ctx, report).Error(0)
}

func TestPublishReport(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the report", func(t *testing.T) {
		// Given: a repository accepting the report
		repo := &mockReportRepo{}
		report := &entity.Report{ID: "game-1"}
		repo.On("CreateOrUpdate", mock.Anything, report).Return(nil).Once()

		// When: it is published
		err := publishReport(ctx, repo, report)

		// Then: the repository received it
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		repo := &mockReportRepo{}
		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Report")).Return(errRedisDown).Once()

		err := publishReport(ctx, repo, &entity.Report{ID: "game-2"})

		require.ErrorIs(t, err, errRedisDown)
		repo.AssertExpectations(t)
	})

	t.Run("refuses reports without id", func(t *testing.T) {
		repo := &mockReportRepo{}

		err := publishReport(ctx, repo, &entity.Report{})

		require.ErrorIs(t, err, ErrReportWithoutID)
		repo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
	})
}
