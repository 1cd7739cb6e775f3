package reminder

import "errors"

// Common errors
var (
	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrSenderNil is returned when a nil delivery channel is provided
	ErrSenderNil = errors.New("email sender cannot be nil")

	// ErrInvalidSession is returned for session values other than morning/evening
	ErrInvalidSession = errors.New("invalid session, use morning or evening")

	// ErrResolveEligibility is returned when an eligibility input read fails
	ErrResolveEligibility = errors.New("failed to resolve reminder eligibility")

	// ErrEnqueueFailed is returned when the bulk queue write fails
	ErrEnqueueFailed = errors.New("failed to enqueue reminders")

	// ErrClaimFailed is returned when the worker cannot claim a batch
	ErrClaimFailed = errors.New("failed to claim reminder batch")
)
