// Package store holds the in-memory todo collection. A single mutex
// serializes every operation, reads included, so each of List, Create, Get,
// Update and Delete observes and leaves the collection in a consistent state.
//
// Nothing is persisted; the collection lives as long as the Store value.
package store
