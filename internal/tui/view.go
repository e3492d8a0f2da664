package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("TODOs"))
	if m.loading {
		b.WriteString(" " + m.spin.View() + dimStyle.Render(" loading..."))
	}
	b.WriteString("\n\n")

	if m.searching || m.searchInput.Value() != "" {
		b.WriteString("search: " + m.searchInput.View() + "\n\n")
	}

	switch m.modal {
	case modalNewTask:
		b.WriteString(m.newTaskModalView())
	case modalUpload:
		b.WriteString(m.uploadModalView())
	default:
		b.WriteString(m.listView())
	}

	if m.errMsg != "" {
		b.WriteString("\n" + errStyle.Render(m.errMsg))
	} else if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}

	b.WriteString("\n" + dimStyle.Render("n new · space toggle · d delete · u upload · / search · r refresh · q quit"))
	return b.String()
}

func (m Model) listView() string {
	if len(m.todos) == 0 {
		return dimStyle.Render("no tasks — press n to create one")
	}
	var b strings.Builder
	for i, t := range m.todos {
		check := "[ ]"
		if t.Done {
			check = "[x]"
		}
		line := check + " " + t.Name + "  " + dimStyle.Render("due "+t.DueDate)
		if t.AttachmentURL != "" {
			line += dimStyle.Render("  (attachment)")
		}
		if t.Done {
			line = doneStyle.Render(line)
		}
		if i == m.cursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) newTaskModalView() string {
	return modalStyle.Render("New task\n\n" + m.nameInput.View() + "\n\n" + dimStyle.Render("enter create · esc cancel"))
}

func (m Model) uploadModalView() string {
	var phase string
	switch m.uploadPhase {
	case uploadRequestingURL:
		phase = m.spin.View() + " requesting upload url..."
	case uploadTransferring:
		phase = m.spin.View() + " uploading file..."
	default:
		phase = dimStyle.Render("enter upload · esc cancel")
	}
	return modalStyle.Render("Upload attachment\n\n" + m.fileInput.View() + "\n\n" + phase)
}
