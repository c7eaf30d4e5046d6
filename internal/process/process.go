// Package process owns subprocesses started during grading. A Handle is
// always released with Close, which kills the whole process group.
package process

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/programme-lv/amqp-grader/internal/drain"
	"golang.org/x/sync/errgroup"
)

const reapTimeout = 5 * time.Second

type Spec struct {
	Command []string
	Dir     string
	// Env is appended to the grader's own environment.
	Env []string
	// WriteSettle is slept after every WriteLine.
	WriteSettle time.Duration
}

type LaunchError struct {
	Command []string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

type Handle struct {
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      *drain.Buffer
	stderr      *drain.Buffer
	writeSettle time.Duration

	writeMu   sync.Mutex
	done      chan struct{}
	waitErr   error
	closeOnce sync.Once
	closeErr  error
}

// Start spawns spec.Command and begins pumping its output into buffers.
func Start(spec Spec) (*Handle, error) {
	if len(spec.Command) == 0 {
		return nil, &LaunchError{Err: errors.New("empty command")}
	}

	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.SysProcAttr = sysProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &LaunchError{Command: spec.Command, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Command: spec.Command, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Command: spec.Command, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Command: spec.Command, Err: err}
	}

	h := &Handle{
		cmd:         cmd,
		stdin:       stdin,
		stdout:      &drain.Buffer{},
		stderr:      &drain.Buffer{},
		writeSettle: spec.WriteSettle,
		done:        make(chan struct{}),
	}

	var pumps errgroup.Group
	pumps.Go(func() error {
		_, err := io.Copy(h.stdout, stdout)
		return err
	})
	pumps.Go(func() error {
		_, err := io.Copy(h.stderr, stderr)
		return err
	})

	// exec requires every read from the pipes to finish before Wait.
	go func() {
		if err := pumps.Wait(); err != nil {
			slog.Debug("output pump stopped", "pid", cmd.Process.Pid, "err", err)
		}
		h.waitErr = cmd.Wait()
		close(h.done)
	}()

	Live.add(h)
	slog.Debug("process started", "pid", cmd.Process.Pid, "cmd", strings.Join(spec.Command, " "))
	return h, nil
}

func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *Handle) Stdout() drain.Source { return h.stdout }

func (h *Handle) Stderr() drain.Source { return h.stderr }

func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Done is closed once the process has exited and its output is fully
// buffered.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process exits or timeout elapses and reports
// whether it exited.
func (h *Handle) Wait(timeout time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// ExitCode is -1 while the process is running or when it was killed.
func (h *Handle) ExitCode() int {
	if h.Alive() {
		return -1
	}
	return h.cmd.ProcessState.ExitCode()
}

// WriteLine sends text and a newline to the process, then sleeps the
// configured settle delay. There is no acknowledgment to wait for.
func (h *Handle) WriteLine(text string) error {
	h.writeMu.Lock()
	_, err := io.WriteString(h.stdin, text+"\n")
	h.writeMu.Unlock()
	if err != nil {
		slog.Warn("unable to write to process input", "pid", h.Pid(), "err", err)
		return fmt.Errorf("failed to write to process input: %w", err)
	}
	if h.writeSettle > 0 {
		time.Sleep(h.writeSettle)
	}
	return nil
}

// Close forcefully terminates the process group. It is safe to call more
// than once and from every exit path.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		defer Live.remove(h)

		h.stdin.Close()
		if h.Alive() {
			if err := killGroup(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
				h.closeErr = fmt.Errorf("failed to kill process %d: %w", h.Pid(), err)
			}
		}
		if !h.Wait(reapTimeout) {
			slog.Warn("process not reaped after kill", "pid", h.Pid(), "timeout", reapTimeout)
		}
	})
	return h.closeErr
}
