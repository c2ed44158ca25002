// Package event implements the hybrid ready/deferred event queue that
// drives the worker loop: strictly-increasing event IDs, a ready FIFO, a
// time-ordered deferred heap, and per-(type,name) completion subscriptions.
package event

// Type is the event category. Each type has its own namespace of names.
type Type string

const (
	TypeShip      Type = "SHIP"
	TypeContract  Type = "CONTRACT"
	TypeAgent     Type = "AGENT"
	TypeSystem    Type = "SYSTEM"
	TypeView      Type = "VIEW"
	TypeStrategy  Type = "STRATEGY"
	TypeDefault   Type = "DEFAULT"
)

// Event is a unit of work enqueued for the worker. Args carries positional,
// heterogeneous payload specific to (Type, Name) — handlers type-assert the
// entries they expect.
type Event struct {
	ID   int64
	Type Type
	Name string
	Args []interface{}
}

// Key identifies a (Type, Name) pair for dispatch and subscription lookup.
type Key struct {
	Type Type
	Name string
}

func (e Event) Key() Key {
	return Key{Type: e.Type, Name: e.Name}
}
