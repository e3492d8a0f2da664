package tui

import (
	"context"
	"os"
	"time"

	"tasklist/internal/dto"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages produced by commands. All list/item mutations flow through these,
// never through the commands themselves.
type (
	todosLoadedMsg struct{ todos []dto.TodoResponse }
	loadFailedMsg  struct{ err error }

	todoCreatedMsg  struct{ todo dto.TodoResponse }
	createFailedMsg struct{ err error }

	toggleDoneMsg struct{ id string }
	toggleFailedMsg struct {
		id  string
		err error
	}

	todoDeletedMsg  struct{ id string }
	deleteFailedMsg struct {
		id  string
		err error
	}

	uploadURLMsg    struct{ url string }
	uploadedMsg     struct{}
	uploadFailedMsg struct{ err error }
)

const apiTimeout = 30 * time.Second

func (m Model) fetchTodos(search string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()
		todos, err := m.api.GetTodos(ctx, search)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return todosLoadedMsg{todos: todos}
	}
}

func (m Model) createTodo(name, dueDate string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()
		todo, err := m.api.CreateTodo(ctx, name, dueDate)
		if err != nil {
			return createFailedMsg{err: err}
		}
		return todoCreatedMsg{todo: todo}
	}
}

// persistToggle sends the item's complete state with the flipped done flag.
func (m Model) persistToggle(t dto.TodoResponse, done bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()
		if err := m.api.PatchTodo(ctx, t.TodoID, t.Name, t.DueDate, done); err != nil {
			return toggleFailedMsg{id: t.TodoID, err: err}
		}
		return toggleDoneMsg{id: t.TodoID}
	}
}

func (m Model) deleteTodo(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()
		if err := m.api.DeleteTodo(ctx, id); err != nil {
			return deleteFailedMsg{id: id, err: err}
		}
		return todoDeletedMsg{id: id}
	}
}

func (m Model) requestUploadURL(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()
		url, err := m.api.GetUploadURL(ctx, id)
		if err != nil {
			return uploadFailedMsg{err: err}
		}
		return uploadURLMsg{url: url}
	}
}

// transferFile reads the chosen file and PUTs it to the presigned URL.
func (m Model) transferFile(uploadURL, path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadFailedMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()
		if err := m.api.UploadFile(ctx, uploadURL, data); err != nil {
			return uploadFailedMsg{err: err}
		}
		return uploadedMsg{}
	}
}
