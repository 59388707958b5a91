package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking rows
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// destinationAttempts bounds how often an external transfer re-resolves a
	// payee destination that changed before it was locked.
	destinationAttempts = 3

	// IdempotencyPending marks a key whose first request is still running.
	IdempotencyPending = "processing"
)
