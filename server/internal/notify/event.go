package notify

import (
	"time"

	"github.com/obsidianstack/todos/server/internal/store"
)

// Event kinds.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Event describes one successful change to the todo collection. For Deleted
// events Todo holds the record as it was just before removal.
type Event struct {
	Type string     `json:"type"`
	Todo store.Todo `json:"todo"`
	At   time.Time  `json:"at"`
}

// Notifier receives change events. Implementations must not block the caller
// for long; the HTTP layer calls Notify inline after each mutation.
type Notifier interface {
	Notify(Event)
}

// Fanout forwards every event to each of its notifiers in order.
type Fanout []Notifier

// Notify implements Notifier.
func (f Fanout) Notify(ev Event) {
	for _, n := range f {
		if n != nil {
			n.Notify(ev)
		}
	}
}
