package command

import (
	"time"

	v1 "github.com/procdock/procdock/pkg/api/v1"
)

// Status represents the lifecycle state of a registered command.
type Status string

const (
	// StatusRunning means the process is alive and producing output.
	StatusRunning Status = "running"
	// StatusStopped means the command was terminated by an explicit stop.
	StatusStopped Status = "stopped"
	// StatusCompleted means the process exited on its own with code 0.
	StatusCompleted Status = "completed"
	// StatusFailed means the process exited on its own with a non-zero code
	// or hit a runtime error.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is a final state. A handle in a
// terminal state never transitions again.
func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusCompleted || s == StatusFailed
}

// Scope selects which registry entries an operation considers.
type Scope string

const (
	// ScopeRecent restricts lookups to the most recently registered entries.
	ScopeRecent Scope = "recent"
	// ScopeAll considers every registered entry.
	ScopeAll Scope = "all"
)

// OutputChunk is a single piece of captured process output.
type OutputChunk struct {
	Stream    string    `json:"stream"` // "stdout" or "stderr"
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ExitInfo describes how a process terminated.
type ExitInfo struct {
	Code       int       `json:"code"`
	Signal     string    `json:"signal,omitempty"` // signal name when terminated by a signal
	Error      string    `json:"error,omitempty"`  // runtime error outside normal exit reporting
	FinishedAt time.Time `json:"finished_at"`
}

// Info is a point-in-time snapshot of a registered command.
type Info struct {
	ID         string         `json:"id"`
	Category   string         `json:"category"`
	Kind       string         `json:"kind,omitempty"`
	Command    string         `json:"command"`
	Args       []string       `json:"args,omitempty"`
	WorkingDir string         `json:"working_dir"`
	Pty        bool           `json:"pty"`
	Status     Status         `json:"status"`
	PID        int            `json:"pid,omitempty"`
	Ports      map[string]int `json:"ports,omitempty"` // listen ports allocated for $PORT placeholders
	StartedAt  time.Time      `json:"started_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Exit       *ExitInfo      `json:"exit,omitempty"`
	Output     []OutputChunk  `json:"output,omitempty"` // only populated when explicitly requested
}

// ToAPI converts the snapshot to its API type
func (i Info) ToAPI() *v1.Command {
	var output []v1.OutputChunk
	for _, chunk := range i.Output {
		output = append(output, v1.OutputChunk{
			Stream:    chunk.Stream,
			Data:      chunk.Data,
			Timestamp: chunk.Timestamp,
		})
	}

	cmd := &v1.Command{
		ID:         i.ID,
		Category:   i.Category,
		Kind:       i.Kind,
		Command:    i.Command,
		Args:       i.Args,
		WorkingDir: i.WorkingDir,
		Pty:        i.Pty,
		Status:     v1.CommandStatus(i.Status),
		PID:        i.PID,
		Ports:      i.Ports,
		StartedAt:  i.StartedAt,
		UpdatedAt:  i.UpdatedAt,
		Output:     output,
	}
	if i.Exit != nil {
		cmd.Exit = &v1.ExitInfo{
			Code:       i.Exit.Code,
			Signal:     i.Exit.Signal,
			Error:      i.Exit.Error,
			FinishedAt: i.Exit.FinishedAt,
		}
	}
	return cmd
}

// RunRequest contains parameters for launching a new command.
type RunRequest struct {
	Category   string            `json:"category,omitempty"` // grouping label, part of the derived id
	Kind       string            `json:"kind,omitempty"`     // executable kind tag ("ng", "npm", ...), display only
	Command    string            `json:"command"`            // executable path or name resolved via PATH
	Args       []string          `json:"args,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Env        map[string]string `json:"env,omitempty"` // merged over the parent environment

	// Pty runs the command attached to a pseudo-terminal instead of plain
	// pipes. PTY commands accept input and window resizes.
	Pty  bool `json:"pty,omitempty"`
	Cols int  `json:"cols,omitempty"`
	Rows int  `json:"rows,omitempty"`

	// DisableStreaming suppresses incremental output events. Output is still
	// buffered and the exit result is still captured and published.
	DisableStreaming bool `json:"disable_streaming,omitempty"`

	// BufferMaxBytes overrides the runner's default output buffer cap.
	BufferMaxBytes int64 `json:"buffer_max_bytes,omitempty"`
}
