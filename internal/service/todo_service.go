package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"tasklist/internal/blob"
	"tasklist/internal/cache"
	dom "tasklist/internal/domain"
	"tasklist/internal/repo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyName = errors.New("name must not be blank")
)

// defaultDueDays is applied when a create request carries no due date.
const defaultDueDays = 7

type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	blobs blob.AttachmentStore
	sf    singleflight.Group
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
// If blobs is nil, attachments are disabled (no URLs are ever derived).
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache, blobs blob.AttachmentStore) *TodoService {
	return &TodoService{repo: r, cache: c, blobs: blobs}
}

// Create stores a new todo. The ID, creation time and done=false are
// server-assigned; a missing due date defaults to creation date + 7 days.
func (s *TodoService) Create(ctx context.Context, userID int64, name string, dueDate *time.Time) (dom.Todo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return dom.Todo{}, ErrEmptyName
	}

	now := time.Now().UTC()
	due := startOfDay(now).AddDate(0, 0, defaultDueDays)
	if dueDate != nil {
		due = startOfDay(*dueDate)
	}

	t, err := s.repo.Create(ctx, dom.Todo{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		DueDate:   due,
		Done:      false,
		CreatedAt: now,
	})
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// List returns the caller's todos in creation order. A non-empty search term
// filters by case-insensitive substring match on the name; an empty term is
// the full list. The result is never nil.
func (s *TodoService) List(ctx context.Context, userID int64, search string) ([]dom.Todo, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return s.cached(ctx, userID, "list:"+strconv.FormatInt(userID, 10),
			func(ctx context.Context) ([]dom.Todo, error) { return s.repo.List(ctx, userID) },
			func(ctx context.Context) ([]dom.Todo, error) { return s.cache.GetList(ctx, userID) },
			func(ctx context.Context, list []dom.Todo) error { return s.cache.SetList(ctx, userID, list) },
		)
	}
	return s.cached(ctx, userID, "search:"+strconv.FormatInt(userID, 10)+":"+strings.ToLower(search),
		func(ctx context.Context) ([]dom.Todo, error) { return s.repo.Search(ctx, userID, search) },
		func(ctx context.Context) ([]dom.Todo, error) { return s.cache.GetSearch(ctx, userID, search) },
		func(ctx context.Context, list []dom.Todo) error { return s.cache.SetSearch(ctx, userID, search, list) },
	)
}

func (s *TodoService) GetByID(ctx context.Context, userID int64, id string) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	list := []dom.Todo{t}
	s.fillAttachmentURLs(ctx, userID, list)
	return list[0], nil
}

// Update replaces the mutable fields (name, dueDate, done) wholesale.
// Unknown or foreign ids surface as ErrNotFound before any write is visible.
func (s *TodoService) Update(ctx context.Context, userID int64, id string, name string, dueDate time.Time, done bool) (dom.Todo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return dom.Todo{}, ErrEmptyName
	}
	t, err := s.repo.Update(ctx, userID, id, dom.Todo{
		Name:    name,
		DueDate: startOfDay(dueDate),
		Done:    done,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, userID)
	list := []dom.Todo{t}
	s.fillAttachmentURLs(ctx, userID, list)
	return list[0], nil
}

// Delete removes the todo and its attachment. Deleting an unknown or foreign
// id is ErrNotFound; the store ends in the same state either way.
func (s *TodoService) Delete(ctx context.Context, userID int64, id string) error {
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if s.blobs != nil {
		// Best effort: an orphaned blob is invisible once the row is gone.
		_ = s.blobs.Remove(ctx, userID, id)
	}
	s.invalidateCache(ctx, userID)
	return nil
}

// AttachmentUploadURL returns a short-lived URL for a direct client upload.
// It does not mutate the item: the attachment URL becomes valid once the
// client has PUT the bytes to the returned location.
func (s *TodoService) AttachmentUploadURL(ctx context.Context, userID int64, id string) (string, error) {
	if _, err := s.repo.GetByID(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	url, err := s.blobs.PresignedUploadURL(ctx, userID, id)
	if err != nil {
		return "", err
	}
	// The cached list was computed before this upload; drop it so the
	// client's post-upload refresh picks up the new attachment URL.
	s.invalidateCache(ctx, userID)
	return url, nil
}

func (s *TodoService) cached(
	ctx context.Context,
	userID int64,
	key string,
	fetch func(context.Context) ([]dom.Todo, error),
	get func(context.Context) ([]dom.Todo, error),
	set func(context.Context, []dom.Todo) error,
) ([]dom.Todo, error) {
	if s.cache == nil {
		list, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.fillAttachmentURLs(ctx, userID, list)
		return nonNil(list), nil
	}
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if list, err := get(ctx); err == nil && list != nil {
			return list, nil
		}
		list, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.fillAttachmentURLs(ctx, userID, list)
		list = nonNil(list)
		_ = set(ctx, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

// fillAttachmentURLs derives AttachmentURL for items whose object exists.
// Best effort: a blob store hiccup hides attachments, it does not fail reads.
func (s *TodoService) fillAttachmentURLs(ctx context.Context, userID int64, list []dom.Todo) {
	if s.blobs == nil || len(list) == 0 {
		return
	}
	ids, err := s.blobs.ExistingIDs(ctx, userID)
	if err != nil {
		return
	}
	for i := range list {
		if _, ok := ids[list[i].ID]; ok {
			list[i].AttachmentURL = s.blobs.AttachmentURL(userID, list[i].ID)
		}
	}
}

func (s *TodoService) invalidateCache(ctx context.Context, userID int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateUser(ctx, userID)
	}
}

func nonNil(list []dom.Todo) []dom.Todo {
	if list == nil {
		return []dom.Todo{}
	}
	return list
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
