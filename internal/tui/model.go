// Package tui is the terminal client: it owns the local copy of the todo
// list and all transient interaction state, and talks to the API through
// commands. State only ever changes inside Update.
package tui

import (
	"context"

	"tasklist/internal/dto"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
)

// API is the surface of the backend the controller needs. Satisfied by
// *client.Client; tests substitute a fake.
type API interface {
	GetTodos(ctx context.Context, search string) ([]dto.TodoResponse, error)
	CreateTodo(ctx context.Context, name, dueDate string) (dto.TodoResponse, error)
	PatchTodo(ctx context.Context, id, name, dueDate string, done bool) error
	DeleteTodo(ctx context.Context, id string) error
	GetUploadURL(ctx context.Context, id string) (string, error)
	UploadFile(ctx context.Context, uploadURL string, data []byte) error
}

// uploadPhase is the upload flow's state machine. Every entry into a
// non-idle phase has a matching exit back to idle on success and failure.
type uploadPhase int

const (
	uploadIdle uploadPhase = iota
	uploadRequestingURL
	uploadTransferring
)

// modal identifies which overlay, if any, currently captures input.
type modal int

const (
	modalNone modal = iota
	modalNewTask
	modalUpload
)

type Model struct {
	api API

	todos  []dto.TodoResponse
	cursor int

	searchInput textinput.Model
	searching   bool

	modal     modal
	nameInput textinput.Model
	fileInput textinput.Model

	uploadPhase  uploadPhase
	uploadTarget string // todo id the upload modal points at

	// inFlight guards against rapid duplicate actions on the same item
	// (double delete, double toggle).
	inFlight map[string]bool

	loading bool
	spin    spinner.Model
	errMsg  string
	status  string

	width  int
	height int
}

// New returns the initial model; the list is fetched on Init.
func New(api API) Model {
	search := textinput.New()
	search.Placeholder = "search"
	search.CharLimit = 120

	name := textinput.New()
	name.Placeholder = "task name"
	name.CharLimit = 120

	file := textinput.New()
	file.Placeholder = "path to file"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		api:         api,
		searchInput: search,
		nameInput:   name,
		fileInput:   file,
		spin:        sp,
		inFlight:    make(map[string]bool),
		loading:     true,
	}
}

// Todos exposes the visible list (read-only, for inspection in tests).
func (m Model) Todos() []dto.TodoResponse { return m.todos }

// UploadPhase exposes the upload state machine's current phase.
func (m Model) UploadPhase() int { return int(m.uploadPhase) }

func (m Model) findTodo(id string) int {
	for i := range m.todos {
		if m.todos[i].TodoID == id {
			return i
		}
	}
	return -1
}
