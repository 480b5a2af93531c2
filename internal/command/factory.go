package command

import (
	"io"
	"os/exec"
	"syscall"
)

// SpawnSpec describes a process to spawn. The environment is the final,
// fully merged KEY=VALUE list handed to the OS.
type SpawnSpec struct {
	Command    string
	Args       []string
	WorkingDir string
	Env        []string
	Cols       int
	Rows       int
}

// Session is a live spawned process as seen by the runner. Implementations
// wire the child differently (plain pipes or a pseudo-terminal) but expose a
// uniform lifecycle.
type Session interface {
	// PID returns the OS process id.
	PID() int
	// Streams returns the readers the runner pumps for output. Pipe-backed
	// sessions return separate stdout and stderr; PTY sessions return a
	// single combined stream with a nil stderr.
	Streams() (stdout, stderr io.Reader)
	// Terminate requests graceful shutdown.
	Terminate() error
	// Kill forcefully terminates the process.
	Kill() error
	// Wait blocks until the process exits. Commands killed by a signal
	// report the conventional 128+signal exit code.
	Wait() (exitCode int, signalName string, err error)
}

// Resizer is implemented by sessions whose terminal window can be resized.
type Resizer interface {
	Resize(cols, rows uint16) error
}

// Factory spawns OS processes. The runner picks a factory per request:
// ExecFactory for plain piped children, PtyFactory for commands that need a
// terminal.
type Factory interface {
	Spawn(spec SpawnSpec) (Session, error)
}

// ExecFactory spawns commands as direct children with piped stdout/stderr.
// Children run in their own process group so stops reach the whole tree.
type ExecFactory struct{}

// NewExecFactory creates a factory for pipe-backed child processes.
func NewExecFactory() *ExecFactory { return &ExecFactory{} }

func (f *ExecFactory) Spawn(spec SpawnSpec) (Session, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	if spec.WorkingDir != "" {
		cmd.Dir = spec.WorkingDir
	}
	cmd.Env = spec.Env
	setProcGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execSession{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// execSession is a pipe-backed child process.
type execSession struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (s *execSession) PID() int { return s.cmd.Process.Pid }

func (s *execSession) Streams() (io.Reader, io.Reader) { return s.stdout, s.stderr }

// Terminate signals the whole process group so children of the command
// (package-manager wrappers, dev-server watchers) shut down with it.
func (s *execSession) Terminate() error {
	return terminateProcessGroup(s.cmd.Process.Pid)
}

func (s *execSession) Kill() error {
	return killProcessGroup(s.cmd.Process.Pid)
}

func (s *execSession) Wait() (int, string, error) {
	err := s.cmd.Wait()
	if err == nil {
		return 0, "", nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return 1, "", err
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() {
			return 128 + int(ws.Signal()), ws.Signal().String(), err
		}
		return ws.ExitStatus(), "", err
	}
	return exitErr.ExitCode(), "", err
}
