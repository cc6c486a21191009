// Package instance keeps two writers from opening the same store: the TUI,
// the MCP server and backup restore hold a PID lockfile in the config
// directory while they run.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

var ErrAlreadyRunning = errors.New("another mydiary instance is running")

type Lock struct {
	path string
	pid  int
}

// LockPath returns the lockfile location inside configDir.
func LockPath(configDir string) string {
	return filepath.Join(configDir, constants.LockfileName)
}

// Running returns the PID recorded in configDir's lockfile if that process
// is still a live mydiary.
func Running(configDir string) (int, bool) {
	content, err := os.ReadFile(LockPath(configDir))
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		logger.Warn("Ignoring malformed lockfile", "path", LockPath(configDir))
		return 0, false
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return 0, false
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return 0, false
	}
	return pid, true
}

// Acquire takes the lock for this process. A lockfile left by a process
// that is gone is taken over.
func Acquire(configDir string) (*Lock, error) {
	self := getpidFunc()
	if pid, ok := Running(configDir); ok && pid != self {
		return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	path := LockPath(configDir)
	if err := os.WriteFile(path, []byte(strconv.Itoa(self)), 0600); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	logger.Debug("Acquired instance lock", "path", path, "pid", self)
	return &Lock{path: path, pid: self}, nil
}

// Release removes the lockfile if it still belongs to this process.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	content, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if strings.TrimSpace(string(content)) != strconv.Itoa(l.pid) {
		return nil
	}
	return os.Remove(l.path)
}
