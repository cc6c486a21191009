package instance

import (
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/mitchellh/go-ps"
)

type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

func stubProcesses(t *testing.T, self int, running map[int]string) {
	t.Helper()
	origFind, origPid := findProcessFunc, getpidFunc
	t.Cleanup(func() {
		findProcessFunc, getpidFunc = origFind, origPid
	})

	getpidFunc = func() int { return self }
	findProcessFunc = func(pid int) (ps.Process, error) {
		exe, ok := running[pid]
		if !ok {
			return nil, nil
		}
		return fakeProcess{pid: pid, executable: exe}, nil
	}
}

func writeLock(t *testing.T, dir string, content string) {
	t.Helper()
	if err := os.WriteFile(LockPath(dir), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write lockfile: %v", err)
	}
}

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	stubProcesses(t, 100, map[int]string{100: "mydiary"})

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	content, _ := os.ReadFile(LockPath(dir))
	if string(content) != "100" {
		t.Errorf("lockfile = %q", content)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(LockPath(dir)); !os.IsNotExist(err) {
		t.Error("lockfile should be removed")
	}
}

func TestAcquireBlockedByLiveInstance(t *testing.T) {
	dir := t.TempDir()
	stubProcesses(t, 100, map[int]string{200: "mydiary"})
	writeLock(t, dir, "200")

	_, err := Acquire(dir)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestAcquireTakesOverStaleLock(t *testing.T) {
	tests := []struct {
		name    string
		content string
		running map[int]string
	}{
		{"dead process", "300", map[int]string{}},
		{"pid reused by another program", "300", map[int]string{300: "bash"}},
		{"malformed", "not-a-pid", map[int]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			stubProcesses(t, 100, tt.running)
			writeLock(t, dir, tt.content)

			lock, err := Acquire(dir)
			if err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
			defer lock.Release()

			if pid, ok := Running(dir); ok {
				t.Errorf("test process is not named mydiary, Running reported pid %d", pid)
			}
		})
	}
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	dir := t.TempDir()
	stubProcesses(t, 100, map[int]string{})

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	writeLock(t, dir, strconv.Itoa(555))

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(LockPath(dir)); err != nil {
		t.Error("lock owned by another process should stay")
	}
}

func TestRunning(t *testing.T) {
	dir := t.TempDir()
	stubProcesses(t, 1, map[int]string{42: "mydiary"})

	if _, ok := Running(dir); ok {
		t.Error("no lockfile means nothing is running")
	}
	writeLock(t, dir, "42\n")
	if pid, ok := Running(dir); !ok || pid != 42 {
		t.Errorf("Running = %d, %v", pid, ok)
	}
}
