package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// ErrInFlight means the user already has a draw being computed.
	// Commands surface it as a friendly "still working on it" message.
	ErrInFlight = errors.New("fortune draw already in progress for this user")

	// ErrNoData means a stats or history query found nothing in the window.
	ErrNoData = errors.New("no fortune data recorded")

	// ErrNotFound means the targeted (user, day) record does not exist.
	ErrNotFound = errors.New("fortune record not found")

	// ErrConfirmRequired means a destructive command lacked the --confirm token.
	ErrConfirmRequired = errors.New("confirmation token required")

	// ErrDisabled means the plugin is switched off in configuration.
	ErrDisabled = errors.New("daily fortune is disabled")
)
