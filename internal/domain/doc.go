// Package domain contains the todo entity, its invariants and the pure
// lifecycle rules that move a todo between states. Nothing in this package
// touches storage; operations take a todo, compute a detached copy with the
// new state and return it for the caller to persist.
package domain
