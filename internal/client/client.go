// Package client is a thin HTTP client for the tasklist API. It mirrors the
// server's operations one to one and never retries on its own.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tasklist/internal/dto"
)

// Client calls the tasklist API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a Client for the given API base URL (e.g. "http://localhost:8080").
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken replaces the bearer token (after login).
func (c *Client) SetToken(token string) { c.token = token }

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out dto.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login",
		dto.LoginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// Register creates an account and stores the issued token on the client.
func (c *Client) Register(ctx context.Context, username, password string) error {
	var out dto.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register",
		dto.RegisterRequest{Username: username, Password: password}, &out)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// GetTodos fetches the caller's todos, optionally filtered by a search term.
func (c *Client) GetTodos(ctx context.Context, search string) ([]dto.TodoResponse, error) {
	path := "/api/v1/todos"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var out dto.ListTodosResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateTodo creates a todo. dueDate may be empty (server applies its default).
func (c *Client) CreateTodo(ctx context.Context, name, dueDate string) (dto.TodoResponse, error) {
	body := map[string]string{"name": name}
	if dueDate != "" {
		body["dueDate"] = dueDate
	}
	var out dto.ItemResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/todos", body, &out); err != nil {
		return dto.TodoResponse{}, err
	}
	return out.Item, nil
}

// PatchTodo replaces the todo's full mutable state.
func (c *Client) PatchTodo(ctx context.Context, id, name, dueDate string, done bool) error {
	body := map[string]any{"name": name, "dueDate": dueDate, "done": done}
	return c.do(ctx, http.MethodPatch, "/api/v1/todos/"+url.PathEscape(id), body, nil)
}

// DeleteTodo removes the todo.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/todos/"+url.PathEscape(id), nil, nil)
}

// GetUploadURL asks the server for a presigned attachment upload URL.
func (c *Client) GetUploadURL(ctx context.Context, id string) (string, error) {
	var out dto.UploadURLResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/todos/"+url.PathEscape(id)+"/attachment", nil, &out)
	if err != nil {
		return "", err
	}
	return out.UploadURL, nil
}

// UploadFile PUTs the file bytes directly to the presigned URL. The transfer
// bypasses the API entirely.
func (c *Client) UploadFile(ctx context.Context, uploadURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload failed: %s", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, e.Error)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}
