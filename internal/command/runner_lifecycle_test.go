package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunnerStopMarksStopped(t *testing.T) {
	r := newTestRunner(t, nil)

	info, err := r.Run(context.Background(), RunRequest{
		Category: "test",
		Command:  "sleep",
		Args:     []string{"60"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if err := r.Stop(info.ID); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// The status flips to stopped as soon as Stop returns, before the
	// process exit has been observed
	current, err := r.Find(info.ID, ScopeAll, false)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if current.Status != StatusStopped {
		t.Fatalf("status = %v immediately after Stop(), want stopped", current.Status)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		current, err = r.Find(info.ID, ScopeAll, false)
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if current.Exit != nil {
			if current.Status != StatusStopped {
				t.Errorf("status = %v after exit, want stopped to stick", current.Status)
			}
			if current.Exit.Code != 143 {
				t.Errorf("exit code = %d, want 143 for a terminated process", current.Exit.Code)
			}
			if current.Exit.Signal == "" {
				t.Error("exit signal is empty for a signal-terminated process")
			}
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("exit info never recorded after Stop()")
}

func TestRunnerStopUnknownID(t *testing.T) {
	r := newTestRunner(t, nil)
	if err := r.Stop("test-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stop(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRunnerReplacesExistingCommand(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := RunRequest{Category: "serve", Command: "sleep", Args: []string{"60"}}
	first, err := r.Run(ctx, req)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	second, err := r.Run(ctx, req)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("ids differ: %s vs %s, want the same derived id", first.ID, second.ID)
	}
	if first.PID == second.PID {
		t.Error("PIDs are equal, want a fresh process")
	}
	if second.Status != StatusRunning {
		t.Errorf("replacement status = %v, want running", second.Status)
	}
	if r.registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1 entry per id", r.registry.Len())
	}
}

func TestRunnerRestart(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := r.Run(ctx, RunRequest{
		Category: "serve",
		Command:  "sleep",
		Args:     []string{"60"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	restarted, err := r.Restart(ctx, info.ID)
	if err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if restarted.ID != info.ID {
		t.Errorf("restarted id = %s, want %s", restarted.ID, info.ID)
	}
	if restarted.PID == info.PID {
		t.Error("restarted PID equals the original, want a fresh process")
	}
	if restarted.Status != StatusRunning {
		t.Errorf("restarted status = %v, want running", restarted.Status)
	}
	if r.registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.registry.Len())
	}

	// A second restart in sequence still yields one process per id
	again, err := r.Restart(ctx, info.ID)
	if err != nil {
		t.Fatalf("second Restart() error = %v", err)
	}
	if again.PID == restarted.PID {
		t.Error("second restart reused the PID, want a fresh process")
	}
	if r.registry.Len() != 1 {
		t.Errorf("Len() = %d after second restart, want 1", r.registry.Len())
	}
}

func TestRunnerRestartUnknownID(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Restart(context.Background(), "test-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Restart(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRunnerRemoveMidStream(t *testing.T) {
	r := newTestRunner(t, nil)

	info, err := r.Run(context.Background(), RunRequest{
		Category: "test",
		Command:  "yes",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Wait until the pumps are demonstrably flowing
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if outputContains(r, info.ID, "y") {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if !outputContains(r, info.ID, "y") {
		t.Fatal("command produced no output")
	}

	if err := r.Remove(info.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := r.Find(info.ID, ScopeAll, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find() after Remove() error = %v, want ErrNotFound", err)
	}
	if r.registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.registry.Len())
	}

	// Give the pumps a moment to observe the stop; the test fails by
	// panicking if removal broke a producer
	time.Sleep(100 * time.Millisecond)
}

func TestRunnerShutdown(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx := context.Background()

	var ids []string
	for _, category := range []string{"serve", "build"} {
		info, err := r.Run(ctx, RunRequest{
			Category: category,
			Command:  "sleep",
			Args:     []string{"60"},
		})
		if err != nil {
			t.Fatalf("Run(%s) error = %v", category, err)
		}
		ids = append(ids, info.ID)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if r.registry.Len() != 0 {
		t.Errorf("Len() = %d after shutdown, want 0", r.registry.Len())
	}
	for _, id := range ids {
		if _, err := r.Find(id, ScopeAll, false); !errors.Is(err, ErrNotFound) {
			t.Errorf("Find(%s) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestRunnerInputAndResizeRequireTerminal(t *testing.T) {
	r := newTestRunner(t, nil)

	info, err := r.Run(context.Background(), RunRequest{
		Category: "test",
		Command:  "sleep",
		Args:     []string{"60"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if err := r.Input(info.ID, []byte("data\n")); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Input() on a pipe-backed command error = %v, want ErrNoTerminal", err)
	}
	if err := r.Resize(info.ID, 100, 40); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Resize() on a pipe-backed command error = %v, want ErrNoTerminal", err)
	}
	if _, err := r.Screen(info.ID); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Screen() on a pipe-backed command error = %v, want ErrNoTerminal", err)
	}

	if err := r.Input("test-missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Input(missing) error = %v, want ErrNotFound", err)
	}
	if err := r.Resize("test-missing", 80, 24); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resize(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := r.Screen("test-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Screen(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRunnerPtyCapturesOutputAndScreen(t *testing.T) {
	r := newTestRunner(t, nil)

	info, err := r.Run(context.Background(), RunRequest{
		Category: "term",
		Command:  "sh",
		Args:     []string{"-c", "echo hello-pty; sleep 2"},
		Pty:      true,
		Cols:     80,
		Rows:     24,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !info.Pty {
		t.Error("Pty flag not set on the snapshot")
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if outputContains(r, info.ID, "hello-pty") {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if !outputContains(r, info.ID, "hello-pty") {
		t.Fatal("PTY output never contained the expected text")
	}

	// The screen tracker keeps a rendered view of the terminal
	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		screen, err := r.Screen(info.ID)
		if err != nil {
			t.Fatalf("Screen() error = %v", err)
		}
		if strings.Contains(screen, "hello-pty") {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("rendered screen never contained the expected text")
}

func TestRunnerPtyInput(t *testing.T) {
	r := newTestRunner(t, nil)

	info, err := r.Run(context.Background(), RunRequest{
		Category: "term",
		Command:  "cat",
		Pty:      true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if err := r.Input(info.ID, []byte("hello-input\n")); err != nil {
		t.Fatalf("Input() error = %v", err)
	}

	// The terminal echoes the input and cat writes it back
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if outputContains(r, info.ID, "hello-input") {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if !outputContains(r, info.ID, "hello-input") {
		t.Fatal("PTY output never echoed the input")
	}

	if err := r.Resize(info.ID, 100, 40); err != nil {
		t.Errorf("Resize() error = %v", err)
	}
	if err := r.Stop(info.ID); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
