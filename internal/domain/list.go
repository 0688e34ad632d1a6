package domain

import (
	"strings"
	"time"
)

type Task struct {
	ID            int64      `json:"id"`
	Text          string     `json:"text"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completedDate"`
	List          string     `json:"list"`
}

// NewTask creates an uncompleted task owned by listID
func NewTask(id int64, listID, text string) (*Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyTaskText
	}
	if listID == "" {
		return nil, ErrListNotFound
	}

	return &Task{
		ID:   id,
		Text: text,
		List: listID,
	}, nil
}

// Toggle flips the completion state, stamping or clearing the completion date
func (t *Task) Toggle(now time.Time) {
	t.Completed = !t.Completed
	if t.Completed {
		stamp := now.UTC()
		t.CompletedDate = &stamp
		return
	}
	t.CompletedDate = nil
}

func (t *Task) Clone() *Task {
	c := *t
	if t.CompletedDate != nil {
		d := *t.CompletedDate
		c.CompletedDate = &d
	}
	return &c
}

type List struct {
	ID        string
	Name      string
	Tasks     []*Task
	Collapsed bool
}

// ListID derives a list identifier from its display name:
// lower-cased, with every whitespace run replaced by a hyphen.
func ListID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// NewList creates an empty, expanded list
func NewList(name string) (*List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyListName
	}

	return &List{
		ID:    ListID(name),
		Name:  name,
		Tasks: make([]*Task, 0),
	}, nil
}

// FindTask returns the position and task with the given id, or -1 and nil
func (l *List) FindTask(id int64) (int, *Task) {
	for i, t := range l.Tasks {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

// AppendTask adds t at the end of the list
func (l *List) AppendTask(t *Task) error {
	if _, existing := l.FindTask(t.ID); existing != nil {
		return ErrDuplicateTask
	}
	t.List = l.ID
	l.Tasks = append(l.Tasks, t)
	return nil
}

// RemoveTask detaches the task with the given id and returns it
func (l *List) RemoveTask(id int64) (*Task, error) {
	i, t := l.FindTask(id)
	if t == nil {
		return nil, ErrTaskNotFound
	}
	l.Tasks = append(l.Tasks[:i:i], l.Tasks[i+1:]...)
	return t, nil
}

// CompletedCount reports how many tasks in the list are completed
func (l *List) CompletedCount() int {
	n := 0
	for _, t := range l.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

func (l *List) Clone() *List {
	c := &List{
		ID:        l.ID,
		Name:      l.Name,
		Collapsed: l.Collapsed,
		Tasks:     make([]*Task, len(l.Tasks)),
	}
	for i, t := range l.Tasks {
		c.Tasks[i] = t.Clone()
	}
	return c
}
