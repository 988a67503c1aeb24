// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the todo service and job scheduler, translating HTTP concerns to
// lifecycle operations.
package api
