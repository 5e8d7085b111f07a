package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrPlayerNotFound    = errors.New("player not found in shared state")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrBoardSize         = errors.New("board size out of range")
	ErrPlayerCount       = errors.New("player count out of range")
	ErrSegmentTooSmall   = errors.New("shared memory segment is too small")
	ErrStateMismatch     = errors.New("shared state does not match expected dimensions")
	ErrUnsupportedOnHost = errors.New("shared memory is not supported on this platform")
)
