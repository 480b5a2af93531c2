package command

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/procdock/procdock/internal/events/bus"
)

// fakeSession satisfies Session without spawning a real process, so registry
// semantics can be tested deterministically.
type fakeSession struct {
	mu       sync.Mutex
	finished bool
	exitCode int
	signal   string
	done     chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{done: make(chan struct{})}
}

func (s *fakeSession) PID() int                        { return 4242 }
func (s *fakeSession) Streams() (io.Reader, io.Reader) { return strings.NewReader(""), nil }
func (s *fakeSession) Terminate() error                { s.finish(143, "terminated"); return nil }
func (s *fakeSession) Kill() error                     { s.finish(137, "killed"); return nil }

func (s *fakeSession) Wait() (int, string, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, s.signal, nil
}

func (s *fakeSession) finish(code int, signal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.exitCode = code
	s.signal = signal
	close(s.done)
}

func (s *fakeSession) wasFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func newFakeHandle(id string) (*Handle, *fakeSession) {
	sess := newFakeSession()
	req := RunRequest{Category: "test", Command: "/bin/true"}
	return newHandle(id, req, sess, 1024, 50*time.Millisecond), sess
}

func TestRegistryRegisterDuplicateID(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 10, log)

	first, _ := newFakeHandle("test-abc")
	if err := registry.Register(first); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	second, _ := newFakeHandle("test-abc")
	err := registry.Register(second)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Register() error = %v, want ErrDuplicateID", err)
	}
	if registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", registry.Len())
	}
}

func TestRegistryRegisterReplacesTerminalEntry(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 10, log)

	first, _ := newFakeHandle("test-abc")
	if err := registry.Register(first); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Simulate the first command terminating
	first.transition(StatusCompleted)

	second, _ := newFakeHandle("test-abc")
	if err := registry.Register(second); err != nil {
		t.Fatalf("Register() after termination error = %v", err)
	}
	if registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", registry.Len())
	}

	info, err := registry.Find("test-abc", ScopeAll, false)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if info.Status != StatusRunning {
		t.Errorf("Find() Status = %v, want running (the replacement)", info.Status)
	}
}

func TestRegistryFindScopes(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 2, log)

	for _, id := range []string{"test-a", "test-b", "test-c"} {
		h, _ := newFakeHandle(id)
		if err := registry.Register(h); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}

	// All three are visible in the full scope
	if _, err := registry.Find("test-a", ScopeAll, false); err != nil {
		t.Errorf("Find(test-a, all) error = %v", err)
	}

	// Only the two newest are in the recent scope
	if _, err := registry.Find("test-a", ScopeRecent, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(test-a, recent) error = %v, want ErrNotFound", err)
	}
	if _, err := registry.Find("test-b", ScopeRecent, false); err != nil {
		t.Errorf("Find(test-b, recent) error = %v", err)
	}
	if _, err := registry.Find("test-c", ScopeRecent, false); err != nil {
		t.Errorf("Find(test-c, recent) error = %v", err)
	}

	if _, err := registry.Find("test-missing", ScopeAll, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRegistryListOrder(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 2, log)

	for _, id := range []string{"test-a", "test-b", "test-c"} {
		h, _ := newFakeHandle(id)
		if err := registry.Register(h); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}

	all := registry.List(ScopeAll)
	if len(all) != 3 {
		t.Fatalf("List(all) returned %d entries, want 3", len(all))
	}
	wantOrder := []string{"test-c", "test-b", "test-a"}
	for i, info := range all {
		if info.ID != wantOrder[i] {
			t.Errorf("List(all)[%d].ID = %s, want %s", i, info.ID, wantOrder[i])
		}
	}

	recent := registry.List(ScopeRecent)
	if len(recent) != 2 {
		t.Fatalf("List(recent) returned %d entries, want 2", len(recent))
	}
	if recent[0].ID != "test-c" || recent[1].ID != "test-b" {
		t.Errorf("List(recent) = [%s %s], want [test-c test-b]", recent[0].ID, recent[1].ID)
	}
}

func TestRegistryStopTransitionsFirstObserver(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 10, log)

	h, sess := newFakeHandle("test-stop")
	if err := registry.Register(h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := registry.Stop("test-stop"); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	info, err := registry.Find("test-stop", ScopeAll, false)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if info.Status != StatusStopped {
		t.Errorf("Status = %v, want stopped immediately after Stop()", info.Status)
	}
	if !sess.wasFinished() {
		t.Error("expected termination to be requested")
	}

	// Stopping again is a no-op
	if err := registry.Stop("test-stop"); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestRegistryStopNotFound(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 10, log)

	if err := registry.Stop("test-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stop(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRegistryStopManyProcessesEveryID(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 10, log)

	first, firstSess := newFakeHandle("test-a")
	second, secondSess := newFakeHandle("test-b")
	for _, h := range []*Handle{first, second} {
		if err := registry.Register(h); err != nil {
			t.Fatalf("Register(%s) error = %v", h.ID(), err)
		}
	}

	// The unknown id is reported but does not stop the sweep
	err := registry.Stop("test-a", "test-missing", "test-b")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Stop() error = %v, want ErrNotFound for the unknown id", err)
	}
	if !firstSess.wasFinished() || !secondSess.wasFinished() {
		t.Error("expected termination requested for every known id")
	}

	if err := registry.Stop("test-a", "test-b"); err != nil {
		t.Errorf("Stop() of known ids error = %v, want nil", err)
	}
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 10, log)

	h, sess := newFakeHandle("test-remove")
	if err := registry.Register(h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := registry.Remove("test-remove"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !sess.wasFinished() {
		t.Error("expected removal to stop the running command first")
	}
	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", registry.Len())
	}

	// Removing again (and removing unknown ids) succeeds quietly
	if err := registry.Remove("test-remove"); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
	if err := registry.Remove("test-never-existed"); err != nil {
		t.Errorf("Remove(unknown) error = %v", err)
	}
}

func TestRegistryRemoveAll(t *testing.T) {
	log := newTestLogger(t)
	registry := NewRegistry(nil, 10, log)

	sessions := make([]*fakeSession, 0, 3)
	for _, id := range []string{"test-a", "test-b", "test-c"} {
		h, sess := newFakeHandle(id)
		if err := registry.Register(h); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
		sessions = append(sessions, sess)
	}

	registry.RemoveAll()

	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", registry.Len())
	}
	for i, sess := range sessions {
		if !sess.wasFinished() {
			t.Errorf("session %d was not terminated", i)
		}
	}
}

func TestRegistryPublishesLifecycleEvents(t *testing.T) {
	log := newTestLogger(t)
	eventBus := bus.NewMemoryEventBus(log)
	defer eventBus.Close()

	registry := NewRegistry(eventBus, 10, log)

	var mu sync.Mutex
	var types []string
	sub, err := eventBus.Subscribe("command.>", func(ctx context.Context, event *bus.Event) error {
		mu.Lock()
		types = append(types, event.Type)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	h, _ := newFakeHandle("test-events")
	if err := registry.Register(h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Stop("test-events"); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := registry.Remove("test-events"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"command.registered", "command.status", "command.removed"}
	if len(types) != len(want) {
		t.Fatalf("received %d events %v, want %d", len(types), types, len(want))
	}
	for i, typ := range want {
		if types[i] != typ {
			t.Errorf("event[%d] = %s, want %s", i, types[i], typ)
		}
	}
}
