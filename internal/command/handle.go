package command

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Handle tracks a single registered command: its metadata, live session,
// buffered output and lifecycle channels. Handles stay registered after the
// process terminates so callers can inspect status, output and exit info
// until they are explicitly removed.
type Handle struct {
	mu   sync.Mutex
	info Info
	req  RunRequest

	sess   Session
	buffer *ringBuffer
	stream bool
	screen *ScreenTracker // non-nil for PTY commands
	grace  time.Duration

	stopOnce   sync.Once
	stopSignal chan struct{} // signals output pumps to exit
	waitDone   chan struct{} // closed when the reaper observed the exit
}

func newHandle(id string, req RunRequest, sess Session, bufferMaxBytes int64, grace time.Duration) *Handle {
	now := time.Now().UTC()
	if req.BufferMaxBytes > 0 {
		bufferMaxBytes = req.BufferMaxBytes
	}
	if grace <= 0 {
		grace = 2 * time.Second
	}
	h := &Handle{
		info: Info{
			ID:         id,
			Category:   req.Category,
			Kind:       req.Kind,
			Command:    req.Command,
			Args:       req.Args,
			WorkingDir: req.WorkingDir,
			Pty:        req.Pty,
			Status:     StatusRunning,
			PID:        sess.PID(),
			StartedAt:  now,
			UpdatedAt:  now,
		},
		req:        req,
		sess:       sess,
		buffer:     newRingBuffer(bufferMaxBytes),
		stream:     !req.DisableStreaming,
		grace:      grace,
		stopSignal: make(chan struct{}),
		waitDone:   make(chan struct{}),
	}
	if req.Pty {
		h.screen = NewScreenTracker(req.Cols, req.Rows)
	}
	return h
}

// ID returns the command id. Immutable after creation.
func (h *Handle) ID() string { return h.info.ID }

// Running reports whether the command is still in the running state.
func (h *Handle) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.info.Status == StatusRunning
}

// Done returns a channel that is closed once the process exit has been
// observed and the exit info recorded.
func (h *Handle) Done() <-chan struct{} { return h.waitDone }

// Snapshot returns a copy of the command state. Output is only included when
// requested since buffers can be large.
func (h *Handle) Snapshot(includeOutput bool) Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	info := h.info
	if includeOutput && h.buffer != nil {
		info.Output = h.buffer.snapshot()
	}
	return info
}

// transition moves a running command to the given status. The first observer
// of a termination wins; once the status left running it never changes
// again. Returns true when this caller performed the transition.
func (h *Handle) transition(to Status) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.info.Status != StatusRunning {
		return false
	}
	h.info.Status = to
	h.info.UpdatedAt = time.Now().UTC()
	return true
}

// setExit records the exit info. The reaper calls this exactly once after
// Wait returns, independent of who performed the status transition.
func (h *Handle) setExit(exit ExitInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info.Exit = &exit
	h.info.UpdatedAt = time.Now().UTC()
}

// request returns a copy of the original run request, used to respawn the
// command with identical parameters on restart.
func (h *Handle) request() RunRequest {
	req := h.req
	if len(h.req.Env) > 0 {
		req.Env = make(map[string]string, len(h.req.Env))
		for k, v := range h.req.Env {
			req.Env[k] = v
		}
	}
	return req
}

// beginStop signals the output pumps, transitions the status for the first
// stop observer and requests process termination, escalating to a kill if
// the process outlives the grace period. It returns immediately; the reaper
// observes the actual exit. Returns true when this call performed the status
// transition.
func (h *Handle) beginStop() bool {
	moved := h.transition(StatusStopped)
	h.stopOnce.Do(func() {
		close(h.stopSignal)
		_ = h.sess.Terminate()
		go func() {
			select {
			case <-h.waitDone:
			case <-time.After(h.grace):
				_ = h.sess.Kill()
			}
		}()
	})
	return moved
}

// kill force-terminates the process without the graceful phase.
func (h *Handle) kill() {
	_ = h.sess.Kill()
}

// Input writes data to the command's stdin. Only PTY-backed commands accept
// input.
func (h *Handle) Input(data []byte) error {
	w, ok := h.sess.(io.Writer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTerminal, h.ID())
	}
	_, err := w.Write(data)
	return err
}

// Resize changes the terminal window size for PTY-backed commands.
func (h *Handle) Resize(cols, rows uint16) error {
	rs, ok := h.sess.(Resizer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTerminal, h.ID())
	}
	if h.screen != nil {
		h.screen.Resize(int(cols), int(rows))
	}
	return rs.Resize(cols, rows)
}

// Screen returns the rendered terminal screen for PTY-backed commands, or
// ("", false) for pipe-backed commands.
func (h *Handle) Screen() (string, bool) {
	if h.screen == nil {
		return "", false
	}
	return h.screen.Render(), true
}
