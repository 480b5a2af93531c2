// Package command provides the execution registry for workspace commands:
// dev servers, builds, test runs and other processes launched on behalf of
// clients.
//
// The Runner validates and spawns commands through pluggable process
// factories (direct piped children or pseudo-terminals), registers them
// under stable derived ids, streams their output over the event bus and
// records how they terminated. The Registry keeps every handle queryable,
// including terminated ones, until it is explicitly removed.
//
// Lifecycle:
//  1. Run validates the executable, derives the id and spawns the process.
//     A running command under the same id is stopped and replaced.
//  2. Background goroutines pump stdout/stderr into a memory-bounded ring
//     buffer and publish output events.
//  3. The reaper goroutine waits for the exit and resolves the final status:
//     completed (exit 0), failed (non-zero), or stopped when an explicit
//     stop got there first.
//  4. Stop requests termination and returns immediately, escalating to a
//     kill after the grace period. Remove and RemoveAll stop first, so no
//     process is ever orphaned by registry bookkeeping.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/procdock/procdock/internal/common/logger"
	"github.com/procdock/procdock/internal/events/bus"
	"github.com/procdock/procdock/internal/tracing"
)

// RunnerOptions tunes spawning and shutdown behavior.
type RunnerOptions struct {
	// BufferMaxBytes caps each command's output buffer. Defaults to 1MB.
	BufferMaxBytes int64
	// StopGracePeriod is the delay between the graceful terminate and the
	// forced kill. Defaults to 2s.
	StopGracePeriod time.Duration
}

// Runner is the service surface for launching and controlling commands. It
// owns the spawn path; registry lookups, stops and removals are delegated to
// the Registry so both expose the same semantics.
type Runner struct {
	logger   *logger.Logger
	registry *Registry
	bus      bus.EventBus
	exec     Factory
	pty      Factory

	bufferMaxBytes int64
	stopGrace      time.Duration
}

// NewRunner creates a runner on top of the given registry and factories.
// The event bus may be nil; output and status events are then skipped.
func NewRunner(registry *Registry, execFactory, ptyFactory Factory, eventBus bus.EventBus, opts RunnerOptions, log *logger.Logger) *Runner {
	return &Runner{
		logger:         log.WithFields(zap.String("component", "command-runner")),
		registry:       registry,
		bus:            eventBus,
		exec:           execFactory,
		pty:            ptyFactory,
		bufferMaxBytes: opts.BufferMaxBytes,
		stopGrace:      opts.StopGracePeriod,
	}
}

// Registry returns the underlying registry.
func (r *Runner) Registry() *Registry { return r.registry }

// Run validates, spawns and registers a command, returning its initial
// snapshot. The command is registered before Run returns, so a successful
// result is immediately visible to Find. A running command under the same
// derived id is stopped and replaced.
func (r *Runner) Run(ctx context.Context, req RunRequest) (Info, error) {
	ctx, span := tracing.TraceCommandRun(ctx, req.Category, req.Command)
	defer span.End()

	info, err := r.run(ctx, req)
	tracing.TraceCommandResult(span, info.ID, err)
	return info, err
}

func (r *Runner) run(ctx context.Context, req RunRequest) (Info, error) {
	if req.Command == "" {
		return Info{}, fmt.Errorf("command is required")
	}
	if err := validateExecutable(req.Command, req.WorkingDir); err != nil {
		return Info{}, err
	}

	id := DeriveID(req.Category, req.Command, req.WorkingDir)

	if existing, ok := r.registry.handle(id); ok {
		if existing.Running() {
			r.logger.Info("replacing running command", zap.String("command_id", id))
		}
		if err := r.stopAndAwait(ctx, existing); err != nil {
			return Info{}, err
		}
	}

	args, env, ports, err := resolvePorts(req.Args, req.Env)
	if err != nil {
		return Info{}, &SpawnError{Command: req.Command, Err: err}
	}

	factory := r.exec
	if req.Pty {
		factory = r.pty
	}
	sess, err := factory.Spawn(SpawnSpec{
		Command:    req.Command,
		Args:       args,
		WorkingDir: req.WorkingDir,
		Env:        mergeEnv(env),
		Cols:       req.Cols,
		Rows:       req.Rows,
	})
	if err != nil {
		return Info{}, &SpawnError{Command: req.Command, Err: err}
	}

	// The snapshot shows the resolved command line; the stored request keeps
	// the placeholder form so a restart allocates fresh ports.
	h := newHandle(id, req, sess, r.bufferMaxBytes, r.stopGrace)
	h.info.Args = args
	h.info.Ports = ports
	if err := r.registry.Register(h); err != nil {
		// Lost a registration race for this id. Reap the fresh process so
		// it neither survives unregistered nor lingers as a zombie.
		h.kill()
		go func() { _, _, _ = sess.Wait() }()
		return Info{}, err
	}

	r.logger.Info("command started",
		zap.String("command_id", id),
		zap.String("category", req.Category),
		zap.String("command", req.Command),
		zap.Strings("args", args),
		zap.String("working_dir", req.WorkingDir),
		zap.Bool("pty", req.Pty),
		zap.Int("pid", sess.PID()),
	)
	publishStatusEvent(r.bus, r.logger, h.Snapshot(false))

	stdout, stderr := sess.Streams()
	go r.pump(h, stdout, "stdout")
	if stderr != nil {
		go r.pump(h, stderr, "stderr")
	}
	go r.reap(h)

	return h.Snapshot(false), nil
}

// Restart stops the command, waits for the process to terminate and spawns
// it again with the original request under the same id. Returns ErrNotFound
// when the id is not registered.
func (r *Runner) Restart(ctx context.Context, id string) (Info, error) {
	ctx, span := tracing.TraceCommandRestart(ctx, id)
	defer span.End()

	info, err := r.restart(ctx, id)
	tracing.TraceCommandResult(span, info.ID, err)
	return info, err
}

func (r *Runner) restart(ctx context.Context, id string) (Info, error) {
	h, ok := r.registry.handle(id)
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.logger.Info("restarting command", zap.String("command_id", id))
	req := h.request()
	if err := r.stopAndAwait(ctx, h); err != nil {
		return Info{}, err
	}
	return r.run(ctx, req)
}

// Stop requests termination of the given running commands and returns without
// waiting for their exits.
func (r *Runner) Stop(ids ...string) error { return r.registry.Stop(ids...) }

// Remove stops the command if needed and deletes it from the registry.
func (r *Runner) Remove(id string) error { return r.registry.Remove(id) }

// RemoveAll stops every running command and clears the registry.
func (r *Runner) RemoveAll() { r.registry.RemoveAll() }

// Find returns a snapshot of the command with the given id.
func (r *Runner) Find(id string, scope Scope, includeOutput bool) (Info, error) {
	return r.registry.Find(id, scope, includeOutput)
}

// List returns command snapshots, most recent first.
func (r *Runner) List(scope Scope) []Info { return r.registry.List(scope) }

// Input writes data to a PTY-backed command's stdin.
func (r *Runner) Input(id string, data []byte) error {
	h, ok := r.registry.handle(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h.Input(data)
}

// Resize changes the terminal size of a PTY-backed command.
func (r *Runner) Resize(id string, cols, rows uint16) error {
	h, ok := r.registry.handle(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h.Resize(cols, rows)
}

// Screen returns the rendered terminal screen of a PTY-backed command, used
// to bring late-joining clients up to date.
func (r *Runner) Screen(id string) (string, error) {
	h, ok := r.registry.handle(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	screen, ok := h.Screen()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoTerminal, id)
	}
	return screen, nil
}

// Shutdown stops every command and waits for the processes to exit within
// the context deadline. Commands that outlive the deadline are force-killed.
func (r *Runner) Shutdown(ctx context.Context) error {
	live := r.registry.liveHandles()
	r.logger.Info("shutting down command runner", zap.Int("running", len(live)))
	r.registry.RemoveAll()

	group, ctx := errgroup.WithContext(ctx)
	for _, h := range live {
		h := h
		group.Go(func() error {
			select {
			case <-h.Done():
				return nil
			case <-ctx.Done():
				h.kill()
				return ctx.Err()
			}
		})
	}
	return group.Wait()
}

// stopAndAwait stops a command and blocks until its exit has been observed,
// so a successor under the same id never overlaps its predecessor.
func (r *Runner) stopAndAwait(ctx context.Context, h *Handle) error {
	if h.beginStop() {
		publishStatusEvent(r.bus, r.logger, h.Snapshot(false))
	}
	select {
	case <-h.Done():
		return nil
	case <-ctx.Done():
		h.kill()
		return ctx.Err()
	}
}

// pump reads a process output stream in chunks, buffers them and publishes
// output events until the stream ends or the command is stopped.
func (r *Runner) pump(h *Handle, reader io.Reader, stream string) {
	buf := bufio.NewReader(reader)
	for {
		select {
		case <-h.stopSignal:
			return
		default:
		}

		data := make([]byte, 4096)
		n, err := buf.Read(data)
		if n > 0 {
			chunk := OutputChunk{
				Stream:    stream,
				Data:      string(data[:n]),
				Timestamp: time.Now().UTC(),
			}
			h.buffer.append(chunk)
			if h.screen != nil {
				h.screen.Write(data[:n])
			}
			if h.stream {
				publishOutputEvent(r.bus, r.logger, h.ID(), chunk)
			}
		}
		if err != nil {
			if err != io.EOF {
				r.logger.Debug("command output read ended",
					zap.String("command_id", h.ID()),
					zap.Error(err))
			}
			return
		}
	}
}

// reap waits for the process to exit, resolves the final status and records
// the exit info. Runs once per handle; the handle's Done channel closes when
// it returns.
func (r *Runner) reap(h *Handle) {
	defer close(h.waitDone)

	code, signalName, err := h.sess.Wait()
	exit := ExitInfo{
		Code:       code,
		Signal:     signalName,
		FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		// Normal non-zero exits surface through the code; anything else
		// (wait failures, I/O errors) is recorded as a runtime error.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			exit.Error = err.Error()
		}
	}

	status := StatusCompleted
	if code != 0 || exit.Error != "" {
		status = StatusFailed
	}

	// First observer of the termination wins: an explicit stop that already
	// moved the status keeps it. Exit info is recorded either way.
	h.transition(status)
	h.setExit(exit)

	info := h.Snapshot(false)
	r.logger.Info("command exited",
		zap.String("command_id", info.ID),
		zap.String("status", string(info.Status)),
		zap.Int("exit_code", code),
		zap.String("signal", signalName),
	)
	publishStatusEvent(r.bus, r.logger, info)
}

// validateExecutable checks that the requested executable can be launched:
// explicit paths must point at an existing file, bare names must resolve via
// PATH. Relative paths are evaluated against the working directory, matching
// how the spawned process resolves them.
func validateExecutable(executable, workingDir string) error {
	if strings.ContainsRune(executable, os.PathSeparator) || strings.ContainsRune(executable, '/') {
		path := executable
		if !filepath.IsAbs(path) {
			path = filepath.Join(workingDir, path)
		}
		fi, err := os.Stat(path)
		if err != nil {
			return &ExecutableNotFoundError{Path: executable, Err: err}
		}
		if fi.IsDir() {
			return &ExecutableNotFoundError{Path: executable, Err: fmt.Errorf("%s is a directory", path)}
		}
		return nil
	}
	if _, err := exec.LookPath(executable); err != nil {
		return &ExecutableNotFoundError{Path: executable, Err: err}
	}
	return nil
}
