// Package events provides types and interfaces for todo lifecycle events.
//
// Services emit a TodoEvent after each committed write without knowing which
// handlers will process it. Handlers log events, forward them to a message
// bus, or record them in tests.
//
// The primary components are:
// - TodoEvent: a snapshot of a todo after a lifecycle change
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
