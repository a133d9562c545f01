// Package ws streams the todo list to WebSocket clients on /ws/todos.
//
// On connect a client receives {"event":"snapshot","data":{...}} with every
// todo; the same snapshot is re-sent every interval. Each successful change
// is pushed immediately as {"event":"todo.created"|"todo.updated"|"todo.deleted",
// "data":<notify.Event>}. Clients that cannot keep up are disconnected.
package ws
