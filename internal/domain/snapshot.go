package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is the full ordered collection of lists held by the store.
// Its JSON form is an object keyed by list id, in list order.
type Snapshot struct {
	Lists []*List
}

type listJSON struct {
	Name      string  `json:"name"`
	Tasks     []*Task `json:"tasks"`
	Collapsed bool    `json:"collapsed"`
}

// DefaultSnapshot returns the state used when nothing has been persisted yet
func DefaultSnapshot() *Snapshot {
	urgent, _ := NewList("Urgent")
	important, _ := NewList("Important")
	return &Snapshot{Lists: []*List{urgent, important}}
}

// Find returns the list with the given id, or nil
func (s *Snapshot) Find(id string) *List {
	for _, l := range s.Lists {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Add appends a list, rejecting identifier collisions
func (s *Snapshot) Add(l *List) error {
	if s.Find(l.ID) != nil {
		return ErrListExists
	}
	s.Lists = append(s.Lists, l)
	return nil
}

// TaskCount returns the number of tasks across all lists
func (s *Snapshot) TaskCount() int {
	n := 0
	for _, l := range s.Lists {
		n += len(l.Tasks)
	}
	return n
}

// MaxTaskID returns the largest task id present, or 0
func (s *Snapshot) MaxTaskID() int64 {
	var highest int64
	for _, l := range s.Lists {
		for _, t := range l.Tasks {
			if t.ID > highest {
				highest = t.ID
			}
		}
	}
	return highest
}

func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{Lists: make([]*List, len(s.Lists))}
	for i, l := range s.Lists {
		c.Lists[i] = l.Clone()
	}
	return c
}

// Validate checks the structural invariants of a decoded snapshot
func (s *Snapshot) Validate() error {
	if s.Lists == nil {
		return fmt.Errorf("%w: no lists", ErrInvalidSnapshot)
	}

	seen := make(map[string]bool, len(s.Lists))
	for _, l := range s.Lists {
		if l == nil || l.ID == "" {
			return fmt.Errorf("%w: list without id", ErrInvalidSnapshot)
		}
		if seen[l.ID] {
			return fmt.Errorf("%w: duplicate list %q", ErrInvalidSnapshot, l.ID)
		}
		seen[l.ID] = true

		ids := make(map[int64]bool, len(l.Tasks))
		for _, t := range l.Tasks {
			if t == nil {
				return fmt.Errorf("%w: null task in list %q", ErrInvalidSnapshot, l.ID)
			}
			if t.Text == "" {
				return fmt.Errorf("%w: task %d in list %q has no text", ErrInvalidSnapshot, t.ID, l.ID)
			}
			if t.List != l.ID {
				return fmt.Errorf("%w: task %d in list %q claims list %q", ErrInvalidSnapshot, t.ID, l.ID, t.List)
			}
			if ids[t.ID] {
				return fmt.Errorf("%w: duplicate task %d in list %q", ErrInvalidSnapshot, t.ID, l.ID)
			}
			ids[t.ID] = true
		}
	}
	return nil
}

// Normalize clears completion dates left on uncompleted tasks and
// replaces null task sequences with empty ones.
func (s *Snapshot) Normalize() {
	for _, l := range s.Lists {
		if l.Tasks == nil {
			l.Tasks = make([]*Task, 0)
		}
		for _, t := range l.Tasks {
			if !t.Completed {
				t.CompletedDate = nil
			}
		}
	}
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range s.Lists {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l.ID)
		if err != nil {
			return nil, err
		}
		tasks := l.Tasks
		if tasks == nil {
			tasks = []*Task{}
		}
		value, err := json.Marshal(listJSON{Name: l.Name, Tasks: tasks, Collapsed: l.Collapsed})
		if err != nil {
			return nil, fmt.Errorf("failed to encode list %q: %w", l.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected object, got %v", ErrInvalidSnapshot, tok)
	}

	lists := make([]*List, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		id, _ := tok.(string)

		var lj listJSON
		if err := dec.Decode(&lj); err != nil {
			return fmt.Errorf("%w: list %q: %v", ErrInvalidSnapshot, id, err)
		}
		lists = append(lists, &List{
			ID:        id,
			Name:      lj.Name,
			Tasks:     lj.Tasks,
			Collapsed: lj.Collapsed,
		})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	s.Lists = lists
	return nil
}
