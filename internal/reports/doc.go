// Package reports provides an HTTP client for the report generation job queue.
//
// # Overview
//
// The queue backend accepts report generation jobs (a template plus a
// dictated transcript), runs them on its own workers, and exposes their
// progress over a small JSON API. This package submits jobs and reads their
// state; it knows nothing about how the backend executes them.
//
// # API Endpoints
//
//   - POST /api/reports/jobs: submit a job (Idempotency-Key header)
//   - GET /api/reports/jobs/{id}: one job
//   - GET /api/reports/jobs?status=&limit=: the queue
//   - POST /api/reports/jobs/{id}/cancel: cancel a job
//   - GET /api/health: backend status, version and queue depth
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Set Accept: application/json and User-Agent: reportwatch/<version>
//   - Carry an X-Request-ID shared by every retry of the same call
//   - Send Authorization: Bearer <token> when a token is configured
//   - Get their own per-attempt timeout (15s by default)
//
// # Retries
//
// Transport failures, 429 and 5xx responses are retried with jittered
// exponential backoff (github.com/cenkalti/backoff/v4), starting at 250ms and
// capped at 5s between attempts, up to MaxRetries extra attempts. Other 4xx
// responses and undecodable bodies fail immediately. Cancelling the caller's
// context stops retrying.
//
// This is transient-error recovery only. Waiting for a job to finish is a
// separate concern handled by package poll, which never retries a failed
// probe on its own.
//
// # Error Handling
//
//   - *APIError: non-2xx responses, with status code and backend message
//   - ErrNotFound / ErrUnauthorized: matched with errors.Is on *APIError
//   - "decode response": the body was not the expected JSON
//   - "execute request": the request never got a response
package reports
