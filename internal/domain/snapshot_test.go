package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultSnapshot(t *testing.T) {
	snap := DefaultSnapshot()

	if len(snap.Lists) != 2 {
		t.Fatalf("Expected 2 default lists, got %d", len(snap.Lists))
	}
	if snap.Lists[0].ID != "urgent" || snap.Lists[0].Name != "Urgent" {
		t.Errorf("Unexpected first list: %+v", snap.Lists[0])
	}
	if snap.Lists[1].ID != "important" || snap.Lists[1].Name != "Important" {
		t.Errorf("Unexpected second list: %+v", snap.Lists[1])
	}
	if snap.TaskCount() != 0 {
		t.Errorf("Default lists should be empty, got %d tasks", snap.TaskCount())
	}
}

func TestSnapshotAddRejectsDuplicateID(t *testing.T) {
	snap := DefaultSnapshot()
	dup, _ := NewList("URGENT")

	if err := snap.Add(dup); !errors.Is(err, ErrListExists) {
		t.Errorf("Expected ErrListExists, got %v", err)
	}
	if len(snap.Lists) != 2 {
		t.Errorf("Snapshot should still have 2 lists, got %d", len(snap.Lists))
	}
}

func TestSnapshotJSONPreservesListOrder(t *testing.T) {
	snap := &Snapshot{}
	for _, name := range []string{"Zeta", "Alpha", "Mid Week"} {
		l, _ := NewList(name)
		snap.Lists = append(snap.Lists, l)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"zeta":{"name":"Zeta","tasks":[],"collapsed":false},` +
		`"alpha":{"name":"Alpha","tasks":[],"collapsed":false},` +
		`"mid-week":{"name":"Mid Week","tasks":[],"collapsed":false}}`
	if string(data) != want {
		t.Errorf("Unexpected encoding:\n got %s\nwant %s", data, want)
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(snap, &decoded); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotDecodesBrowserFormat(t *testing.T) {
	data := `{
		"urgent": {"name": "Urgent", "collapsed": true, "tasks": [
			{"id": 1711965600000, "text": "Buy milk", "completed": true,
			 "completedDate": "2024-04-01T10:00:00.000Z", "list": "urgent"},
			{"id": 1711965600001, "text": "Pay rent", "completed": false,
			 "completedDate": null, "list": "urgent"}
		]},
		"important": {"name": "Important", "collapsed": false, "tasks": []}
	}`

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	urgent := snap.Find("urgent")
	if urgent == nil || !urgent.Collapsed || len(urgent.Tasks) != 2 {
		t.Fatalf("Unexpected urgent list: %+v", urgent)
	}

	done := urgent.Tasks[0]
	want := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	if done.CompletedDate == nil || !done.CompletedDate.Equal(want) {
		t.Errorf("Expected completedDate %v, got %v", want, done.CompletedDate)
	}
	if urgent.Tasks[1].CompletedDate != nil {
		t.Errorf("Expected nil completedDate, got %v", urgent.Tasks[1].CompletedDate)
	}
	if snap.MaxTaskID() != 1711965600001 {
		t.Errorf("MaxTaskID = %d", snap.MaxTaskID())
	}
}

func TestSnapshotValidate(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"duplicate list", `{"a":{"name":"A","tasks":[]},"a":{"name":"A2","tasks":[]}}`},
		{"empty list id", `{"":{"name":"","tasks":[]}}`},
		{"task claims other list", `{"a":{"name":"A","tasks":[{"id":1,"text":"x","list":"b"}]}}`},
		{"task without text", `{"a":{"name":"A","tasks":[{"id":1,"text":"","list":"a"}]}}`},
		{"duplicate task id", `{"a":{"name":"A","tasks":[{"id":1,"text":"x","list":"a"},{"id":1,"text":"y","list":"a"}]}}`},
		{"null task", `{"a":{"name":"A","tasks":[null]}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var snap Snapshot
			if err := json.Unmarshal([]byte(tc.data), &snap); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if err := snap.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("Expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestSnapshotUnmarshalRejectsNonObjects(t *testing.T) {
	for _, data := range []string{`[]`, `"lists"`, `42`} {
		var snap Snapshot
		err := json.Unmarshal([]byte(data), &snap)
		if err == nil {
			t.Errorf("Expected error decoding %s", data)
			continue
		}
		if !strings.Contains(err.Error(), ErrInvalidSnapshot.Error()) {
			t.Errorf("Expected invalid snapshot error for %s, got %v", data, err)
		}
	}
}

func TestSnapshotNormalize(t *testing.T) {
	stale := time.Now()
	snap := &Snapshot{Lists: []*List{{
		ID:   "a",
		Name: "A",
		Tasks: []*Task{
			{ID: 1, Text: "x", List: "a", Completed: false, CompletedDate: &stale},
		},
	}, {
		ID:   "b",
		Name: "B",
	}}}

	snap.Normalize()

	if snap.Lists[0].Tasks[0].CompletedDate != nil {
		t.Error("Normalize should clear completedDate on uncompleted task")
	}
	if snap.Lists[1].Tasks == nil {
		t.Error("Normalize should replace nil task slice")
	}
}
