package audit

import "errors"

var (
	// ErrStorageNil is returned when a nil storage is provided
	ErrStorageNil = errors.New("audit storage cannot be nil")

	// ErrStorageNotAvailable indicates the storage backend is unavailable
	ErrStorageNotAvailable = errors.New("audit storage backend is unavailable")
)
