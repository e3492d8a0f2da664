package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tasklist/internal/auth"
	dom "tasklist/internal/domain"
	"tasklist/internal/dto"
	"tasklist/internal/handlers"
	"tasklist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type memTodoRepo struct {
	todos   []dom.Todo
	touched bool
}

func (r *memTodoRepo) Create(_ context.Context, t dom.Todo) (dom.Todo, error) {
	r.touched = true
	r.todos = append(r.todos, t)
	return t, nil
}

func (r *memTodoRepo) GetByID(_ context.Context, userID int64, id string) (dom.Todo, error) {
	r.touched = true
	for _, t := range r.todos {
		if t.UserID == userID && t.ID == id {
			return t, nil
		}
	}
	return dom.Todo{}, pgx.ErrNoRows
}

func (r *memTodoRepo) List(_ context.Context, userID int64) ([]dom.Todo, error) {
	r.touched = true
	var out []dom.Todo
	for _, t := range r.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTodoRepo) Search(_ context.Context, userID int64, q string) ([]dom.Todo, error) {
	r.touched = true
	var out []dom.Todo
	for _, t := range r.todos {
		if t.UserID == userID && strings.Contains(strings.ToLower(t.Name), strings.ToLower(q)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTodoRepo) Update(_ context.Context, userID int64, id string, patch dom.Todo) (dom.Todo, error) {
	r.touched = true
	for i, t := range r.todos {
		if t.UserID == userID && t.ID == id {
			r.todos[i].Name = patch.Name
			r.todos[i].DueDate = patch.DueDate
			r.todos[i].Done = patch.Done
			return r.todos[i], nil
		}
	}
	return dom.Todo{}, pgx.ErrNoRows
}

func (r *memTodoRepo) Delete(_ context.Context, userID int64, id string) (bool, error) {
	r.touched = true
	for i, t := range r.todos {
		if t.UserID == userID && t.ID == id {
			r.todos = append(r.todos[:i], r.todos[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type stubBlobStore struct{}

func (stubBlobStore) PresignedUploadURL(_ context.Context, _ int64, todoID string) (string, error) {
	return "http://blob.test/upload/" + todoID, nil
}
func (stubBlobStore) ExistingIDs(_ context.Context, _ int64) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}
func (stubBlobStore) Remove(_ context.Context, _ int64, _ string) error { return nil }
func (stubBlobStore) AttachmentURL(_ int64, _ string) string            { return "" }

type testAPI struct {
	router *gin.Engine
	tokens *auth.Tokens
	repo   *memTodoRepo
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &memTodoRepo{}
	svc := service.NewTodoService(repo, nil, stubBlobStore{})
	h := handlers.NewTodoHandler(svc)
	tokens := auth.NewTokens("test-secret", time.Hour)

	r := gin.New()
	protected := r.Group("/api/v1", auth.RequireToken(tokens, nil))
	protected.POST("/todos", h.Create)
	protected.GET("/todos", h.List)
	protected.GET("/todos/:id", h.GetByID)
	protected.PATCH("/todos/:id", h.Update)
	protected.DELETE("/todos/:id", h.Delete)
	protected.POST("/todos/:id/attachment", h.UploadURL)

	return &testAPI{router: r, tokens: tokens, repo: repo}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := a.tokens.Issue(userID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (a *testAPI) create(t *testing.T, token, name string) dto.TodoResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/todos", token, map[string]string{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var out dto.ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return out.Item
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	api := newTestAPI(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/todos"},
		{http.MethodGet, "/api/v1/todos"},
		{http.MethodPatch, "/api/v1/todos/some-id"},
		{http.MethodDelete, "/api/v1/todos/some-id"},
		{http.MethodPost, "/api/v1/todos/some-id/attachment"},
	} {
		w := api.do(t, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
	}
	if api.repo.touched {
		t.Fatalf("store must not be touched before authentication")
	}

	w := api.do(t, http.MethodGet, "/api/v1/todos", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}
}

func TestCreateTodo(t *testing.T) {
	api := newTestAPI(t)
	item := api.create(t, api.token(t, 1), "Buy milk")

	if item.TodoID == "" {
		t.Fatalf("expected server-assigned todoId")
	}
	if item.Done {
		t.Fatalf("new item must not be done")
	}
	if item.Name != "Buy milk" {
		t.Fatalf("unexpected name %q", item.Name)
	}
	want := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	if item.DueDate != want {
		t.Fatalf("default due date: want %s, got %s", want, item.DueDate)
	}
}

func TestCreateValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, 1)

	w := api.do(t, http.MethodPost, "/api/v1/todos", token, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing name: expected 400, got %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/api/v1/todos", token, map[string]string{"name": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank name: expected 400, got %d", w.Code)
	}
}

func TestListReturnsEmptyArray(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/api/v1/todos", api.token(t, 1), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Fatalf("empty list must serialize as an empty array, got %s", w.Body.String())
	}
}

func TestListScopedAndSearchable(t *testing.T) {
	api := newTestAPI(t)
	alice := api.token(t, 1)
	bob := api.token(t, 2)

	api.create(t, alice, "Buy milk")
	api.create(t, alice, "Walk the dog")
	api.create(t, bob, "Bob's secret errand")

	w := api.do(t, http.MethodGet, "/api/v1/todos", alice, nil)
	var list dto.ListTodosResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("alice must see exactly her 2 items, got %d", len(list.Items))
	}
	for _, it := range list.Items {
		if strings.Contains(it.Name, "Bob") {
			t.Fatalf("cross-user leak: %q", it.Name)
		}
	}

	w = api.do(t, http.MethodGet, "/api/v1/todos?search=MILK", alice, nil)
	list = dto.ListTodosResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Name != "Buy milk" {
		t.Fatalf("search result: %+v", list.Items)
	}
}

func TestUpdateForeignTodo(t *testing.T) {
	api := newTestAPI(t)
	alice := api.token(t, 1)
	bob := api.token(t, 2)

	item := api.create(t, alice, "Alice's task")

	body := map[string]any{"name": "Taken over", "dueDate": item.DueDate, "done": true}
	w := api.do(t, http.MethodPatch, "/api/v1/todos/"+item.TodoID, bob, body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign update: expected 404, got %d", w.Code)
	}

	// Alice's record is intact.
	w = api.do(t, http.MethodGet, "/api/v1/todos/"+item.TodoID, alice, nil)
	var out dto.ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if out.Item.Name != "Alice's task" || out.Item.Done {
		t.Fatalf("foreign update mutated the record: %+v", out.Item)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, 1)
	item := api.create(t, token, "Buy milk")

	body := map[string]any{"name": item.Name, "dueDate": item.DueDate, "done": true}
	w := api.do(t, http.MethodPatch, "/api/v1/todos/"+item.TodoID, token, body)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodGet, "/api/v1/todos", token, nil)
	var list dto.ListTodosResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(list.Items))
	}
	got := list.Items[0]
	if !got.Done || got.Name != "Buy milk" || got.DueDate != item.DueDate {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDeleteTwice(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, 1)
	item := api.create(t, token, "Short-lived")

	w := api.do(t, http.MethodDelete, "/api/v1/todos/"+item.TodoID, token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("first delete: expected 204, got %d", w.Code)
	}
	w = api.do(t, http.MethodDelete, "/api/v1/todos/"+item.TodoID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestUploadURL(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, 1)
	item := api.create(t, token, "With attachment")

	w := api.do(t, http.MethodPost, "/api/v1/todos/"+item.TodoID+"/attachment", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("upload url: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out dto.UploadURLResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode upload url: %v", err)
	}
	if out.UploadURL == "" {
		t.Fatalf("expected an upload url")
	}

	w = api.do(t, http.MethodPost, "/api/v1/todos/unknown-id/attachment", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", w.Code)
	}
}
