// Package dlq implements the dead letter queue for workflow runs that
// failed permanently — either a non-retriable error or an exhausted retry
// budget. Entries keep the triggering event payload so operators can
// inspect the failure and replay the run after fixing the cause.
package dlq
