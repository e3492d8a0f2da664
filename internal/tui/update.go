package tui

import (
	"strings"
	"time"

	"tasklist/internal/dto"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchTodos(""))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case todosLoadedMsg:
		m.todos = msg.todos
		m.loading = false
		m.errMsg = ""
		m.clampCursor()
		return m, nil

	case loadFailedMsg:
		// Keep whatever list we had; on first load that is the empty list.
		m.loading = false
		m.errMsg = "failed to fetch todos: " + msg.err.Error()
		return m, nil

	case todoCreatedMsg:
		m.todos = append(m.todos, msg.todo)
		m.loading = false
		m.modal = modalNone
		m.nameInput.Reset()
		m.status = "task created"
		return m, nil

	case createFailedMsg:
		// Modal stays open with the typed name so the user can retry.
		m.loading = false
		m.errMsg = "could not create task: " + msg.err.Error()
		return m, nil

	case toggleDoneMsg:
		// The optimistic flip already happened; just release the guard.
		delete(m.inFlight, msg.id)
		return m, nil

	case toggleFailedMsg:
		// Roll the optimistic flip back.
		delete(m.inFlight, msg.id)
		if i := m.findTodo(msg.id); i >= 0 {
			m.todos[i].Done = !m.todos[i].Done
		}
		m.errMsg = "could not update task: " + msg.err.Error()
		return m, nil

	case todoDeletedMsg:
		delete(m.inFlight, msg.id)
		if i := m.findTodo(msg.id); i >= 0 {
			m.todos = append(m.todos[:i], m.todos[i+1:]...)
		}
		m.clampCursor()
		return m, nil

	case deleteFailedMsg:
		// The item stays in the list.
		delete(m.inFlight, msg.id)
		m.errMsg = "could not delete task: " + msg.err.Error()
		return m, nil

	case uploadURLMsg:
		m.uploadPhase = uploadTransferring
		return m, m.transferFile(msg.url, strings.TrimSpace(m.fileInput.Value()))

	case uploadedMsg:
		m.uploadPhase = uploadIdle
		m.modal = modalNone
		m.fileInput.Reset()
		m.uploadTarget = ""
		m.status = "file uploaded"
		m.loading = true
		// Refresh so the list picks up the now-valid attachment URL.
		return m, m.fetchTodos(strings.TrimSpace(m.searchInput.Value()))

	case uploadFailedMsg:
		// Whatever phase failed, the machine always exits to idle.
		m.uploadPhase = uploadIdle
		m.modal = modalNone
		m.fileInput.Reset()
		m.uploadTarget = ""
		m.errMsg = "could not upload file: " + msg.err.Error()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch {
	case m.modal == modalNewTask:
		return m.handleNewTaskKey(msg)
	case m.modal == modalUpload:
		return m.handleUploadKey(msg)
	case m.searching:
		return m.handleSearchKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, nil

	case "n":
		m.modal = modalNewTask
		m.errMsg = ""
		m.nameInput.Focus()
		return m, nil

	case "u":
		if t, ok := m.selected(); ok {
			m.modal = modalUpload
			m.uploadTarget = t.TodoID
			m.errMsg = ""
			m.fileInput.Focus()
		}
		return m, nil

	case "j", "down":
		if m.cursor < len(m.todos)-1 {
			m.cursor++
		}
		return m, nil

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case " ", "x":
		return m.toggleSelected()

	case "d":
		return m.deleteSelected()

	case "r":
		m.loading = true
		return m, m.fetchTodos(strings.TrimSpace(m.searchInput.Value()))
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.searchInput.Blur()
		m.loading = true
		return m, m.fetchTodos(strings.TrimSpace(m.searchInput.Value()))
	case tea.KeyEsc:
		m.searching = false
		m.searchInput.Reset()
		m.searchInput.Blur()
		m.loading = true
		return m, m.fetchTodos("")
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNewTaskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.errMsg = "please enter a task name"
			return m, nil
		}
		m.loading = true
		m.errMsg = ""
		return m, m.createTodo(name, defaultDueDate())
	case tea.KeyEsc:
		m.modal = modalNone
		m.nameInput.Reset()
		m.errMsg = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.uploadPhase != uploadIdle {
			// One upload in flight per instance; ignore repeat submits.
			return m, nil
		}
		if strings.TrimSpace(m.fileInput.Value()) == "" {
			m.errMsg = "a file should be selected"
			return m, nil
		}
		m.errMsg = ""
		m.uploadPhase = uploadRequestingURL
		return m, m.requestUploadURL(m.uploadTarget)
	case tea.KeyEsc:
		if m.uploadPhase != uploadIdle {
			// No cancellation: a started upload runs to completion or failure.
			return m, nil
		}
		m.modal = modalNone
		m.fileInput.Reset()
		m.uploadTarget = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.fileInput, cmd = m.fileInput.Update(msg)
	return m, cmd
}

// toggleSelected flips the selected item's done flag locally and persists the
// item's complete state. A failed persist rolls the flip back.
func (m Model) toggleSelected() (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok || m.inFlight[t.TodoID] {
		return m, nil
	}
	m.inFlight[t.TodoID] = true
	done := !t.Done
	m.todos[m.cursor].Done = done
	return m, m.persistToggle(t, done)
}

// deleteSelected removes the item locally only once the server confirms.
func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok || m.inFlight[t.TodoID] {
		return m, nil
	}
	m.inFlight[t.TodoID] = true
	return m, m.deleteTodo(t.TodoID)
}

func (m Model) selected() (dto.TodoResponse, bool) {
	if m.cursor < 0 || m.cursor >= len(m.todos) {
		return dto.TodoResponse{}, false
	}
	return m.todos[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.todos) {
		m.cursor = len(m.todos) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// defaultDueDate mirrors the server default: today + 7 days.
func defaultDueDate() string {
	return time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
}
