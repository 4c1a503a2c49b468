// Package app wires the service together and manages its lifecycle.
//
// Initialization order: configuration, logging, storage, metrics, chart
// renderer, notification dispatcher, pipeline processor, Telegram edge,
// dashboard HTTP server. Each dependency is injected explicitly so any
// piece can be replaced in tests.
//
// The Telegram edge and the Postgres store are both optional: an empty
// bot token runs the pipeline with a log-only deliverer, and an empty
// DSN selects the in-memory store. Shutdown is signal-driven and
// graceful; the HTTP server drains before the process exits, and
// initialization errors are returned to main rather than exiting here.
package app
