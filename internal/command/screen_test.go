package command

import (
	"strings"
	"testing"
)

func TestScreenTrackerRendersPlainText(t *testing.T) {
	tracker := NewScreenTracker(20, 5)
	tracker.Write([]byte("hello\r\nworld\r\n"))

	screen := tracker.Render()
	if !strings.Contains(screen, "hello") {
		t.Errorf("expected screen to contain %q, got %q", "hello", screen)
	}
	if !strings.Contains(screen, "world") {
		t.Errorf("expected screen to contain %q, got %q", "world", screen)
	}
}

func TestScreenTrackerStripsEscapeSequences(t *testing.T) {
	tracker := NewScreenTracker(40, 5)
	tracker.Write([]byte("\x1b[31mred text\x1b[0m\r\n"))

	screen := tracker.Render()
	if !strings.Contains(screen, "red text") {
		t.Errorf("expected rendered text without escapes, got %q", screen)
	}
	if strings.Contains(screen, "\x1b") {
		t.Errorf("expected no raw escape bytes in render, got %q", screen)
	}
}

func TestScreenTrackerTrimsTrailingBlankRows(t *testing.T) {
	tracker := NewScreenTracker(10, 8)
	tracker.Write([]byte("one line\r\n"))

	screen := tracker.Render()
	if got := len(strings.Split(screen, "\n")); got > 2 {
		t.Errorf("expected trailing blank rows trimmed, got %d lines: %q", got, screen)
	}
}

func TestScreenTrackerResize(t *testing.T) {
	tracker := NewScreenTracker(10, 3)
	tracker.Resize(30, 6)
	tracker.Write([]byte("wide line after resize\r\n"))

	screen := tracker.Render()
	if !strings.Contains(screen, "wide line after resize") {
		t.Errorf("expected resized terminal to hold the full line, got %q", screen)
	}

	// Invalid dimensions are ignored
	tracker.Resize(0, -1)
	if got := tracker.Render(); !strings.Contains(got, "wide line after resize") {
		t.Errorf("expected content preserved after ignored resize, got %q", got)
	}
}
