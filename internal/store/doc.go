// Package store defines the persistence port the todo services depend on.
// Implementations live under internal/platform; the services only see the
// TodoStore interface, the TodoFilter query shape and the sentinel errors
// declared here.
package store
