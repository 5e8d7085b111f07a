// Package process starts the agent binaries the master coordinates and reaps them.
package process

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/rocketscienceinc/gridcapture/internal/entity"
)

var ErrEmptyPath = errors.New("agent path is empty")

// Agent is a running child process.
type Agent struct {
	Path string
	Name string
	PID  int

	// Channel carries the proposals of a player. Nil for the observer.
	Channel io.ReadCloser

	cmd *exec.Cmd
}

// Launcher starts agents with the launch contract "<path> <width> <height>".
type Launcher struct {
	logger *slog.Logger
	width  int
	height int
	env    []string
}

// NewLauncher - env is appended to the master environment of every child.
func NewLauncher(logger *slog.Logger, width, height int, env ...string) *Launcher {
	return &Launcher{
		logger: logger.With("component", "launcher"),
		width:  width,
		height: height,
		env:    env,
	}
}

// SpawnPlayer - starts a player whose standard output becomes its move channel.
func (that *Launcher) SpawnPlayer(path string) (*Agent, error) {
	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create move channel: %w", err)
	}

	agent, err := that.spawn(path, writer)

	// The child owns the write end now. Once it exits the master sees end of stream.
	if closeErr := writer.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close write end: %w", closeErr)
	}

	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	agent.Channel = reader

	return agent, nil
}

// SpawnView - starts the observer on the master's terminal.
func (that *Launcher) SpawnView(path string) (*Agent, error) {
	return that.spawn(path, os.Stdout)
}

func (that *Launcher) spawn(path string, stdout *os.File) (*Agent, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	cmd := exec.Command(path, strconv.Itoa(that.width), strconv.Itoa(that.height))
	cmd.Stdin = nil
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), that.env...)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", path, err)
	}

	that.logger.Debug("agent started", "path", path, "pid", cmd.Process.Pid)

	return &Agent{
		Path: path,
		Name: filepath.Base(path),
		PID:  cmd.Process.Pid,
		cmd:  cmd,
	}, nil
}

// Wait - reaps the agent and closes its channel.
func (that *Agent) Wait() entity.ExitStatus {
	err := that.cmd.Wait()

	if that.Channel != nil {
		_ = that.Channel.Close()
	}

	return exitStatus(that.cmd.ProcessState, err)
}

// Kill - terminates an agent that did not exit on its own.
func (that *Agent) Kill() error {
	if err := that.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill %d: %w", that.PID, err)
	}

	return nil
}

func exitStatus(state *os.ProcessState, err error) entity.ExitStatus {
	if state == nil {
		status := entity.ExitStatus{Code: -1}
		if err != nil {
			status.Err = err.Error()
		}

		return status
	}

	status := entity.ExitStatus{Code: state.ExitCode()}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = ws.Signal().String()
	}

	return status
}
