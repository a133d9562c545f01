package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no todo has the requested id.
	ErrNotFound = errors.New("todo not found")

	// ErrConflict is returned by Create when the title is already taken.
	ErrConflict = errors.New("todo title already exists")
)

// Todo is one task record. JSON names match the public API.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch carries the optional fields of an update. A nil field keeps the
// current value. An empty Title or Content is treated the same as nil.
type Patch struct {
	Title     *string
	Content   *string
	Completed *bool
}

// Store is a mutex-guarded list of todos kept in insertion order.
type Store struct {
	mu    sync.Mutex
	todos []Todo
	now   func() time.Time // injectable for deterministic tests
	newID func() string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// List returns up to limit todos starting at (page-1)*limit. A page below 1
// is treated as 1 and a negative limit as 0. The result is never nil.
func (s *Store) List(page, limit int) []Todo {
	if page < 1 {
		page = 1
	}
	if limit < 0 {
		limit = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Todo, 0)
	// Guard the multiplication against overflow for absurd page numbers.
	if limit == 0 || page-1 > len(s.todos)/limit {
		return out
	}
	offset := (page - 1) * limit
	if offset >= len(s.todos) {
		return out
	}
	end := len(s.todos)
	if limit < end-offset {
		end = offset + limit
	}
	return append(out, s.todos[offset:end]...)
}

// Create appends a new todo with a fresh id. It returns ErrConflict without
// touching the collection if another todo already has title.
func (s *Store) Create(title, content string) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.todos {
		if t.Title == title {
			return Todo{}, ErrConflict
		}
	}

	now := s.now()
	t := Todo{
		ID:        s.newID(),
		Title:     title,
		Content:   content,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.todos = append(s.todos, t)
	return t, nil
}

// Get returns the todo with the given id.
func (s *Store) Get(id string) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Todo{}, ErrNotFound
	}
	return s.todos[i], nil
}

// Update applies p to the todo with the given id and refreshes UpdatedAt.
// Title uniqueness is not re-checked here.
func (s *Store) Update(id string, p Patch) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Todo{}, ErrNotFound
	}

	t := &s.todos[i]
	if p.Title != nil && *p.Title != "" {
		t.Title = *p.Title
	}
	if p.Content != nil && *p.Content != "" {
		t.Content = *p.Content
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}

	// UpdatedAt never moves backwards, even if the wall clock does.
	if now := s.now(); now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	}
	return *t, nil
}

// Delete removes the todo with the given id, keeping the order of the rest,
// and returns the removed record.
func (s *Store) Delete(id string) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Todo{}, ErrNotFound
	}
	removed := s.todos[i]
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	return removed, nil
}

// Len returns the number of todos currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.todos)
}

// All returns a copy of every todo in insertion order.
func (s *Store) All() []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.todos {
		if s.todos[i].ID == id {
			return i
		}
	}
	return -1
}
