package api

import "github.com/obsidianstack/todos/server/internal/store"

const (
	statusSuccess = "success"
	statusFail    = "fail"
)

// MessageResponse is the payload for GET /health and every failure.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TodoData wraps a single todo under "todo".
type TodoData struct {
	Todo store.Todo `json:"todo"`
}

// SingleTodoResponse is the payload for POST /todos and /todos/{id}.
type SingleTodoResponse struct {
	Status string   `json:"status"`
	Data   TodoData `json:"data"`
}

// TodoListResponse is the payload for GET /todos.
type TodoListResponse struct {
	Status  string       `json:"status"`
	Results int          `json:"results"`
	Todos   []store.Todo `json:"todos"`
}

// CreateTodoRequest is the body of POST /todos. Title must be present.
type CreateTodoRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// UpdateTodoRequest is the body of PATCH /todos/{id}. Absent fields, and
// empty strings for title or content, keep the current value.
type UpdateTodoRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Completed *bool   `json:"completed"`
}
