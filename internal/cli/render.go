package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmehra2102/tasklists/internal/domain"
)

const completedLayout = "2006-01-02 15:04"

// Renderer draws a snapshot as terminal text
type Renderer struct {
	header lipgloss.Style
	count  lipgloss.Style
	id     lipgloss.Style
	done   lipgloss.Style
	date   lipgloss.Style
	empty  lipgloss.Style
}

func NewRenderer() *Renderer {
	return &Renderer{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		count:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		id:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		done:   lipgloss.NewStyle().Strikethrough(true).Faint(true),
		date:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("108")),
		empty:  lipgloss.NewStyle().Faint(true),
	}
}

// Render lists every list in order. Collapsed lists show only their header.
func (r *Renderer) Render(snap *domain.Snapshot) string {
	var b strings.Builder

	if len(snap.Lists) == 0 {
		b.WriteString(r.empty.Render("No lists yet. Create one with: newlist <name>"))
		b.WriteByte('\n')
		return b.String()
	}

	for _, l := range snap.Lists {
		arrow := "▾"
		if l.Collapsed {
			arrow = "▸"
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			arrow,
			r.header.Render(l.Name),
			r.id.Render("("+l.ID+")"),
			r.count.Render(fmt.Sprintf("%d", len(l.Tasks))),
		)
		if l.Collapsed {
			continue
		}

		if len(l.Tasks) == 0 {
			fmt.Fprintf(&b, "    %s\n", r.empty.Render("no tasks"))
			continue
		}
		for _, t := range l.Tasks {
			b.WriteString(r.renderTask(t))
		}
	}

	return b.String()
}

func (r *Renderer) renderTask(t *domain.Task) string {
	status := "[ ]"
	text := t.Text
	if t.Completed {
		status = "[✓]"
		text = r.done.Render(t.Text)
	}

	line := fmt.Sprintf("    %s %s  %s", status, r.id.Render(fmt.Sprintf("%d", t.ID)), text)
	if t.CompletedDate != nil {
		line += "  " + r.date.Render(t.CompletedDate.Local().Format(completedLayout))
	}
	return line + "\n"
}
