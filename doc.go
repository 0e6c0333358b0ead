// Package fluxdesk is a helpdesk ticketing system with an asynchronous,
// event-triggered triage pipeline. Users submit tickets over the REST API;
// ticket creation publishes a domain event, and the triage workflow enriches
// the ticket with an AI-derived priority, required skills, and a suggested
// moderator — without blocking the creating request and without
// double-running side effects across retries.
//
// # Architecture
//
// FluxDesk follows a composable store pattern: each subsystem (ticket, user,
// event, workflow, dlq) defines its own store interface, and a single
// backend (store/memory for tests and development, store/mongo for
// production) implements all of them.
//
// The pipeline is an event bus plus a durable step executor. The bus
// delivers each published event at least once to every subscribed workflow
// handler, retrying whole runs with bounded exponential backoff. The step
// executor memoizes each labeled step's result in a per-run ledger, so a
// retried run skips steps that already succeeded — one welcome email, one
// analysis call, no matter how many attempts the run takes.
//
// All entity IDs are TypeIDs — type-prefixed, K-sortable, URL-safe.
package fluxdesk
