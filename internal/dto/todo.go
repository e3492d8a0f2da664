package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dom "tasklist/internal/domain"
)

// DueDate parses dueDate from JSON as either date-only ("2006-01-02") or
// RFC3339. Either way it is normalized to start of that day in UTC.
type DueDate struct{ t *time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			d.t = &day
			return nil
		}
	}
	return fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Ptr returns *time.Time for use in service/domain. Nil when absent.
func (d DueDate) Ptr() *time.Time { return d.t }

type CreateTodoRequest struct {
	Name    string  `json:"name" binding:"required,min=1,max=120"`
	DueDate DueDate `json:"dueDate"` // optional: "2026-02-19" or RFC3339
}

// UpdateTodoRequest is a full replace of the mutable fields. The client
// always sends the complete known state, so nothing is optional here.
type UpdateTodoRequest struct {
	Name    string  `json:"name" binding:"required,min=1,max=120"`
	DueDate DueDate `json:"dueDate" binding:"required"`
	Done    *bool   `json:"done" binding:"required"`
}

type TodoResponse struct {
	TodoID        string    `json:"todoId"`
	Name          string    `json:"name"`
	DueDate       string    `json:"dueDate"`
	Done          bool      `json:"done"`
	CreatedAt     time.Time `json:"createdAt"`
	AttachmentURL string    `json:"attachmentUrl,omitempty"`
}

// ItemResponse is the single-item envelope used by create/get/update.
type ItemResponse struct {
	Item TodoResponse `json:"item"`
}

type ListTodosResponse struct {
	Items []TodoResponse `json:"items"`
}

type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

func ToTodoResponse(t dom.Todo) TodoResponse {
	return TodoResponse{
		TodoID:        t.ID,
		Name:          t.Name,
		DueDate:       t.DueDate.Format("2006-01-02"),
		Done:          t.Done,
		CreatedAt:     t.CreatedAt,
		AttachmentURL: t.AttachmentURL,
	}
}

func ToTodoResponses(list []dom.Todo) []TodoResponse {
	out := make([]TodoResponse, len(list))
	for i := range list {
		out[i] = ToTodoResponse(list[i])
	}
	return out
}
