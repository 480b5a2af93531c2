package command

import (
	"io"
	"os/exec"
	"sync"
)

// PtyFactory spawns commands attached to a pseudo-terminal. The child sees a
// real terminal, so interactive programs enable their full output and accept
// input through the PTY. Process group management is left to the PTY; Setpgid
// conflicts with terminal control.
type PtyFactory struct {
	defaultCols int
	defaultRows int
}

// NewPtyFactory creates a factory for PTY-backed commands. The dimensions
// are used when a request does not carry its own.
func NewPtyFactory(defaultCols, defaultRows int) *PtyFactory {
	if defaultCols <= 0 {
		defaultCols = 120
	}
	if defaultRows <= 0 {
		defaultRows = 32
	}
	return &PtyFactory{defaultCols: defaultCols, defaultRows: defaultRows}
}

func (f *PtyFactory) Spawn(spec SpawnSpec) (Session, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	if spec.WorkingDir != "" {
		cmd.Dir = spec.WorkingDir
	}
	cmd.Env = spec.Env

	cols, rows := spec.Cols, spec.Rows
	if cols <= 0 {
		cols = f.defaultCols
	}
	if rows <= 0 {
		rows = f.defaultRows
	}

	ptmx, err := startPTYWithSize(cmd, cols, rows)
	if err != nil {
		return nil, err
	}
	return &ptySession{cmd: cmd, ptmx: ptmx}, nil
}

// ptySession is a PTY-backed child process. Output arrives on the single
// combined PTY stream; input and resizes go through the same handle.
type ptySession struct {
	cmd       *exec.Cmd
	ptmx      PtyHandle
	closeOnce sync.Once
}

func (s *ptySession) PID() int { return s.cmd.Process.Pid }

func (s *ptySession) Streams() (io.Reader, io.Reader) { return s.ptmx, nil }

func (s *ptySession) Write(b []byte) (int, error) { return s.ptmx.Write(b) }

func (s *ptySession) Resize(cols, rows uint16) error { return s.ptmx.Resize(cols, rows) }

// Terminate closes the PTY, which delivers SIGHUP to the foreground process
// group, and follows up with a direct terminate for programs that detach
// from the controlling terminal.
func (s *ptySession) Terminate() error {
	s.closePty()
	return terminateProcess(s.cmd.Process)
}

func (s *ptySession) Kill() error {
	return s.cmd.Process.Kill()
}

func (s *ptySession) Wait() (int, string, error) {
	code, signalName, err := waitPtyProcess(s.cmd, s.ptmx)
	s.closePty()
	return code, signalName, err
}

func (s *ptySession) closePty() {
	s.closeOnce.Do(func() { _ = s.ptmx.Close() })
}
