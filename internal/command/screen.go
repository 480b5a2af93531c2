package command

import (
	"strings"
	"sync"

	"github.com/tuzig/vt10x"
)

// ScreenTracker feeds PTY output through a virtual terminal emulator and
// keeps the rendered screen available. Clients that attach to a PTY command
// after it started get the current screen instead of replaying the raw
// escape-sequence stream, which only renders correctly in a live terminal.
type ScreenTracker struct {
	mu   sync.Mutex
	term vt10x.Terminal
	cols int
	rows int
}

// NewScreenTracker creates a tracker with the given dimensions.
// Defaults to 120x32 when unset.
func NewScreenTracker(cols, rows int) *ScreenTracker {
	if cols <= 0 {
		cols = 120
	}
	if rows <= 0 {
		rows = 32
	}
	return &ScreenTracker{
		term: vt10x.New(vt10x.WithSize(cols, rows)),
		cols: cols,
		rows: rows,
	}
}

// Write feeds raw PTY output to the virtual terminal.
func (t *ScreenTracker) Write(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.term.Write(data)
}

// Resize updates the virtual terminal size to match the real PTY.
func (t *ScreenTracker) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.term.Resize(cols, rows)
	t.cols = cols
	t.rows = rows
}

// Render returns the visible screen as plain text, one line per terminal
// row, with trailing blank space trimmed.
func (t *ScreenTracker) Render() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := make([]string, t.rows)
	for row := 0; row < t.rows; row++ {
		chars := make([]rune, 0, t.cols)
		for col := 0; col < t.cols; col++ {
			g := t.term.Cell(col, row)
			if g.Char == 0 {
				chars = append(chars, ' ')
			} else {
				chars = append(chars, g.Char)
			}
		}
		lines[row] = strings.TrimRight(string(chars), " ")
	}

	// Trim trailing empty rows so short screens serialize compactly.
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}
