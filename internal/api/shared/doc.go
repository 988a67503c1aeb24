// Package shared holds the request decoding, response writing and trace ID
// helpers used by the HTTP handlers and middleware.
package shared
