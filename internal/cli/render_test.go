package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/tasklists/internal/domain"
)

func TestRender_Empty(t *testing.T) {
	out := NewRenderer().Render(&domain.Snapshot{})

	if !strings.Contains(out, "No lists yet") {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestRender_Lists(t *testing.T) {
	snap := domain.DefaultSnapshot()
	urgent := snap.Find("urgent")
	task, _ := domain.NewTask(7, "urgent", "File taxes")
	task.Toggle(time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))
	urgent.AppendTask(task)
	snap.Find("important").Collapsed = true

	out := NewRenderer().Render(snap)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "▾") || !strings.Contains(lines[0], "Urgent") || !strings.Contains(lines[0], "(urgent)") {
		t.Errorf("Unexpected urgent header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "[✓]") || !strings.Contains(lines[1], "File taxes") || !strings.Contains(lines[1], "7") {
		t.Errorf("Unexpected task line: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "▸") || !strings.Contains(lines[2], "Important") {
		t.Errorf("Unexpected collapsed header: %q", lines[2])
	}
}
