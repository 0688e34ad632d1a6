package domain

import (
	"errors"
	"testing"
	"time"
)

func TestListID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Urgent", "urgent"},
		{"  Work Stuff  ", "work-stuff"},
		{"Home\t\tand   Garden", "home-and-garden"},
		{"ALREADY-hyphenated", "already-hyphenated"},
	}

	for _, tc := range tests {
		if got := ListID(tc.name); got != tc.want {
			t.Errorf("ListID(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestNewList(t *testing.T) {
	l, err := NewList("  Weekend Plans ")
	if err != nil {
		t.Fatalf("NewList failed: %v", err)
	}
	if l.ID != "weekend-plans" || l.Name != "Weekend Plans" {
		t.Errorf("Unexpected list: id=%q name=%q", l.ID, l.Name)
	}
	if l.Tasks == nil || len(l.Tasks) != 0 {
		t.Errorf("Expected empty non-nil task slice, got %#v", l.Tasks)
	}

	if _, err := NewList("   "); !errors.Is(err, ErrEmptyListName) {
		t.Errorf("Expected ErrEmptyListName, got %v", err)
	}
}

func TestNewTask(t *testing.T) {
	task, err := NewTask(42, "urgent", "  Buy milk ")
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.Text != "Buy milk" || task.Completed || task.CompletedDate != nil || task.List != "urgent" {
		t.Errorf("Unexpected task: %+v", task)
	}

	if _, err := NewTask(43, "urgent", " \n "); !errors.Is(err, ErrEmptyTaskText) {
		t.Errorf("Expected ErrEmptyTaskText, got %v", err)
	}
}

func TestTaskToggle(t *testing.T) {
	task, _ := NewTask(1, "urgent", "Call the bank")
	now := time.Date(2024, 4, 1, 10, 30, 0, 0, time.UTC)

	task.Toggle(now)
	if !task.Completed || task.CompletedDate == nil || !task.CompletedDate.Equal(now) {
		t.Fatalf("Expected completed with date %v, got %+v", now, task)
	}

	task.Toggle(now.Add(time.Hour))
	if task.Completed || task.CompletedDate != nil {
		t.Errorf("Expected uncompleted without date, got %+v", task)
	}
}

func TestListRemoveAndAppend(t *testing.T) {
	l, _ := NewList("Chores")
	for i, text := range []string{"dishes", "laundry", "vacuum"} {
		task, _ := NewTask(int64(i+1), l.ID, text)
		if err := l.AppendTask(task); err != nil {
			t.Fatalf("AppendTask failed: %v", err)
		}
	}

	removed, err := l.RemoveTask(1)
	if err != nil {
		t.Fatalf("RemoveTask failed: %v", err)
	}
	if removed.Text != "dishes" {
		t.Errorf("Removed wrong task: %+v", removed)
	}
	if _, err := l.RemoveTask(1); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}

	if err := l.AppendTask(removed); err != nil {
		t.Fatalf("AppendTask failed: %v", err)
	}
	var order []string
	for _, task := range l.Tasks {
		order = append(order, task.Text)
	}
	if got := order[len(order)-1]; got != "dishes" {
		t.Errorf("Re-appended task should be last, order=%v", order)
	}

	dup, _ := NewTask(2, l.ID, "again")
	if err := l.AppendTask(dup); !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("Expected ErrDuplicateTask, got %v", err)
	}
}

func TestListCloneIsDeep(t *testing.T) {
	l, _ := NewList("Chores")
	task, _ := NewTask(1, l.ID, "dishes")
	task.Toggle(time.Now())
	l.AppendTask(task)

	c := l.Clone()
	c.Tasks[0].Text = "changed"
	*c.Tasks[0].CompletedDate = time.Time{}

	if l.Tasks[0].Text != "dishes" {
		t.Error("Clone shares task with original")
	}
	if l.Tasks[0].CompletedDate.IsZero() {
		t.Error("Clone shares completion date with original")
	}
}
