package command

import (
	"testing"
	"time"

	v1 "github.com/procdock/procdock/pkg/api/v1"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusStopped, StatusCompleted, StatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	if StatusRunning.Terminal() {
		t.Error("running.Terminal() = true, want false")
	}
}

func TestInfoToAPI(t *testing.T) {
	now := time.Now().UTC()
	info := Info{
		ID:         "serve-abc123",
		Category:   "serve",
		Kind:       "ng",
		Command:    "/usr/bin/env",
		Args:       []string{"sh", "-c", "true"},
		WorkingDir: "/tmp",
		Pty:        true,
		Status:     StatusFailed,
		PID:        4242,
		StartedAt:  now,
		UpdatedAt:  now,
		Exit: &ExitInfo{
			Code:       3,
			Signal:     "terminated",
			FinishedAt: now,
		},
		Output: []OutputChunk{
			{Stream: "stdout", Data: "hello\n", Timestamp: now},
			{Stream: "stderr", Data: "oops\n", Timestamp: now},
		},
	}

	api := info.ToAPI()

	if api.ID != info.ID {
		t.Errorf("expected ID %s, got %s", info.ID, api.ID)
	}
	if api.Category != info.Category {
		t.Errorf("expected Category %s, got %s", info.Category, api.Category)
	}
	if api.Kind != info.Kind {
		t.Errorf("expected Kind %s, got %s", info.Kind, api.Kind)
	}
	if api.Status != v1.CommandFailed {
		t.Errorf("expected Status %s, got %s", v1.CommandFailed, api.Status)
	}
	if !api.Pty {
		t.Error("expected Pty true")
	}
	if api.PID != info.PID {
		t.Errorf("expected PID %d, got %d", info.PID, api.PID)
	}
	if api.Exit == nil {
		t.Fatal("expected Exit to be set")
	}
	if api.Exit.Code != 3 || api.Exit.Signal != "terminated" {
		t.Errorf("expected Exit 3/terminated, got %d/%s", api.Exit.Code, api.Exit.Signal)
	}
	if len(api.Output) != 2 {
		t.Fatalf("expected 2 output chunks, got %d", len(api.Output))
	}
	if api.Output[1].Stream != "stderr" || api.Output[1].Data != "oops\n" {
		t.Errorf("unexpected second chunk: %+v", api.Output[1])
	}
}

func TestInfoToAPIWithEmptyOptionalFields(t *testing.T) {
	info := Info{
		ID:     "build-xyz",
		Status: StatusRunning,
	}

	api := info.ToAPI()

	if api.Exit != nil {
		t.Errorf("expected nil Exit, got %+v", api.Exit)
	}
	if api.Output != nil {
		t.Errorf("expected nil Output, got %+v", api.Output)
	}
	if api.Status != v1.CommandRunning {
		t.Errorf("expected Status %s, got %s", v1.CommandRunning, api.Status)
	}
}
