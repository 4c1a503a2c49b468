// Package http implements the dashboard HTTP handlers. It is a thin
// layer between transport and the store: handlers parse and validate
// requests, delegate to the store, and format responses; no pipeline
// logic lives here.
//
// Errors use the structured APIError envelope from internal/errors and
// are rendered with chi/render. Handlers are tested with httptest
// against the in-memory store.
package http
