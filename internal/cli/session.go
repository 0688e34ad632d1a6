// Package cli is the interactive terminal front-end over the list-task store.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dmehra2102/tasklists/internal/app"
	"github.com/dmehra2102/tasklists/internal/domain"
	"github.com/dmehra2102/tasklists/internal/export"
)

// Command is one REPL command
type Command struct {
	Name        string
	Usage       string
	Description string
	Handler     func(ctx context.Context, args []string) bool // returns true to quit
}

// Session reads commands line by line and applies them to the store.
// It keeps the latest snapshot pushed by the store for rendering.
type Session struct {
	store    *app.Store
	out      io.Writer
	renderer *Renderer
	commands map[string]*Command

	mu          sync.Mutex
	latest      *domain.Snapshot
	unsubscribe func()
}

func NewSession(store *app.Store, out io.Writer) *Session {
	s := &Session{
		store:    store,
		out:      out,
		renderer: NewRenderer(),
		commands: make(map[string]*Command),
		latest:   store.Snapshot(),
	}
	s.unsubscribe = store.Subscribe(func(snap *domain.Snapshot) {
		s.mu.Lock()
		s.latest = snap
		s.mu.Unlock()
	})
	s.registerCommands()
	return s
}

// Close detaches the session from the store
func (s *Session) Close() {
	s.unsubscribe()
}

// Run executes commands from in until EOF, quit, or ctx is cancelled
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "Task lists. Type help for available commands.")
	s.render()

	// Read in a goroutine so cancellation does not wait for the next line
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(s.out, "> ")

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if s.Execute(ctx, line) {
				return nil
			}
		}
	}
}

// Execute handles a single input line. It returns true when the session should end.
func (s *Session) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)

	if task, ok := s.store.PendingDeletion(); ok {
		s.answerDelete(ctx, task, line)
		return false
	}

	if line == "" {
		return false
	}

	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])

	cmd, exists := s.commands[name]
	if !exists {
		fmt.Fprintf(s.out, "Unknown command: %s. Type help for available commands.\n", name)
		return false
	}

	return cmd.Handler(ctx, parts[1:])
}

func (s *Session) answerDelete(ctx context.Context, task *domain.Task, answer string) {
	switch strings.ToLower(answer) {
	case "y", "yes":
		if s.store.ConfirmDelete(ctx) {
			fmt.Fprintf(s.out, "Deleted %q. Type undo within %s to restore it.\n", task.Text, s.store.UndoWindow())
			s.render()
		}
	case "n", "no":
		s.store.CancelDelete(ctx)
		fmt.Fprintf(s.out, "Kept %q.\n", task.Text)
	default:
		fmt.Fprintf(s.out, "Delete %q? Please answer yes or no.\n", task.Text)
	}
}

func (s *Session) register(cmd *Command) {
	s.commands[strings.ToLower(cmd.Name)] = cmd
}

func (s *Session) registerCommands() {
	s.register(&Command{
		Name:        "lists",
		Usage:       "lists",
		Description: "Show all lists and their tasks",
		Handler: func(ctx context.Context, args []string) bool {
			s.render()
			return false
		},
	})

	s.register(&Command{
		Name:        "newlist",
		Usage:       "newlist <name>",
		Description: "Create a new list",
		Handler: func(ctx context.Context, args []string) bool {
			if len(args) == 0 {
				fmt.Fprintln(s.out, "Usage: newlist <name>")
				return false
			}

			name := strings.Join(args, " ")
			if !s.store.CreateList(ctx, name) {
				fmt.Fprintf(s.out, "List already exists: %s\n", domain.ListID(name))
				return false
			}

			fmt.Fprintf(s.out, "Created list: %s (%s)\n", name, domain.ListID(name))
			return false
		},
	})

	s.register(&Command{
		Name:        "add",
		Usage:       "add <list-id> <text>",
		Description: "Add a task to a list",
		Handler: func(ctx context.Context, args []string) bool {
			if len(args) < 2 {
				fmt.Fprintln(s.out, "Usage: add <list-id> <text>")
				return false
			}

			if !s.store.AddTask(ctx, args[0], strings.Join(args[1:], " ")) {
				fmt.Fprintf(s.out, "No list with id %s\n", args[0])
				return false
			}

			s.render()
			return false
		},
	})

	s.register(&Command{
		Name:        "toggle",
		Usage:       "toggle <list-id> <task-id>",
		Description: "Mark a task done or not done",
		Handler: func(ctx context.Context, args []string) bool {
			listID, taskID, ok := s.taskArgs("toggle", args)
			if !ok {
				return false
			}

			if !s.store.ToggleTask(ctx, listID, taskID) {
				fmt.Fprintf(s.out, "No task %d in list %s\n", taskID, listID)
				return false
			}

			s.render()
			return false
		},
	})

	s.register(&Command{
		Name:        "collapse",
		Usage:       "collapse <list-id>",
		Description: "Collapse or expand a list",
		Handler: func(ctx context.Context, args []string) bool {
			if len(args) != 1 {
				fmt.Fprintln(s.out, "Usage: collapse <list-id>")
				return false
			}

			if !s.store.ToggleListCollapsed(ctx, args[0]) {
				fmt.Fprintf(s.out, "No list with id %s\n", args[0])
				return false
			}

			s.render()
			return false
		},
	})

	s.register(&Command{
		Name:        "rm",
		Usage:       "rm <list-id> <task-id>",
		Description: "Delete a task (asks for confirmation)",
		Handler: func(ctx context.Context, args []string) bool {
			listID, taskID, ok := s.taskArgs("rm", args)
			if !ok {
				return false
			}

			if !s.store.RequestDelete(ctx, listID, taskID) {
				fmt.Fprintf(s.out, "No task %d in list %s\n", taskID, listID)
				return false
			}

			if task, ok := s.store.PendingDeletion(); ok {
				fmt.Fprintf(s.out, "Delete %q? (yes/no)\n", task.Text)
			}
			return false
		},
	})

	s.register(&Command{
		Name:        "undo",
		Usage:       "undo",
		Description: "Restore the most recently deleted task",
		Handler: func(ctx context.Context, args []string) bool {
			task, ok := s.store.UndoAvailable()
			if !ok || !s.store.Undo(ctx) {
				fmt.Fprintln(s.out, "Nothing to undo.")
				return false
			}

			fmt.Fprintf(s.out, "Restored %q.\n", task.Text)
			s.render()
			return false
		},
	})

	s.register(&Command{
		Name:        "export",
		Usage:       "export <file.pdf>",
		Description: "Write all lists to a PDF report",
		Handler: func(ctx context.Context, args []string) bool {
			if len(args) != 1 {
				fmt.Fprintln(s.out, "Usage: export <file.pdf>")
				return false
			}

			if err := export.PDFFile(s.snapshot(), args[0]); err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				return false
			}

			fmt.Fprintf(s.out, "Exported to %s\n", args[0])
			return false
		},
	})

	s.register(&Command{
		Name:        "help",
		Usage:       "help",
		Description: "Show available commands",
		Handler: func(ctx context.Context, args []string) bool {
			fmt.Fprintln(s.out, "Available commands:")

			cmds := make([]*Command, 0, len(s.commands))
			for _, cmd := range s.commands {
				cmds = append(cmds, cmd)
			}
			sort.Slice(cmds, func(i, j int) bool {
				return cmds[i].Name < cmds[j].Name
			})

			for _, cmd := range cmds {
				fmt.Fprintf(s.out, "  %-28s - %s\n", cmd.Usage, cmd.Description)
			}
			return false
		},
	})

	quit := func(ctx context.Context, args []string) bool {
		fmt.Fprintln(s.out, "Goodbye!")
		return true
	}
	s.register(&Command{Name: "quit", Usage: "quit", Description: "Exit", Handler: quit})
	s.register(&Command{Name: "exit", Usage: "exit", Description: "Exit", Handler: quit})
}

func (s *Session) taskArgs(name string, args []string) (string, int64, bool) {
	if len(args) != 2 {
		fmt.Fprintf(s.out, "Usage: %s <list-id> <task-id>\n", name)
		return "", 0, false
	}

	taskID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid task id: %s\n", args[1])
		return "", 0, false
	}
	return args[0], taskID, true
}

func (s *Session) snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Session) render() {
	fmt.Fprint(s.out, s.renderer.Render(s.snapshot()))
}
