package v1

import "time"

// CommandStatus represents the lifecycle state of a tracked command
type CommandStatus string

const (
	CommandRunning   CommandStatus = "running"
	CommandStopped   CommandStatus = "stopped"
	CommandCompleted CommandStatus = "completed"
	CommandFailed    CommandStatus = "failed"
)

// OutputChunk is a single captured piece of process output
type OutputChunk struct {
	Stream    string    `json:"stream"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ExitInfo describes how a tracked process terminated
type ExitInfo struct {
	Code       int       `json:"code"`
	Signal     string    `json:"signal,omitempty"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Command represents a tracked command
type Command struct {
	ID         string         `json:"id"`
	Category   string         `json:"category"`
	Kind       string         `json:"kind,omitempty"`
	Command    string         `json:"command"`
	Args       []string       `json:"args,omitempty"`
	WorkingDir string         `json:"working_dir"`
	Pty        bool           `json:"pty"`
	Status     CommandStatus  `json:"status"`
	PID        int            `json:"pid,omitempty"`
	Ports      map[string]int `json:"ports,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Exit       *ExitInfo      `json:"exit,omitempty"`
	Output     []OutputChunk  `json:"output,omitempty"`
}

// CommandList is the response for command listing endpoints
type CommandList struct {
	Commands []*Command `json:"commands"`
	Total    int        `json:"total"`
}

// RunCommandRequest for launching a new command
type RunCommandRequest struct {
	Category         string            `json:"category,omitempty"`
	Kind             string            `json:"kind,omitempty"`
	Command          string            `json:"command" binding:"required"`
	Args             []string          `json:"args,omitempty"`
	WorkingDir       string            `json:"working_dir,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	Pty              bool              `json:"pty,omitempty"`
	Cols             int               `json:"cols,omitempty"`
	Rows             int               `json:"rows,omitempty"`
	DisableStreaming bool              `json:"disable_streaming,omitempty"`
}

// InputRequest for writing to a command's terminal
type InputRequest struct {
	Data string `json:"data" binding:"required"`
}

// ResizeRequest for resizing a command's terminal
type ResizeRequest struct {
	Cols uint16 `json:"cols" binding:"required"`
	Rows uint16 `json:"rows" binding:"required"`
}
