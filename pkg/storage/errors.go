package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when the provider configuration is incomplete
	ErrInvalidConfig = errors.New("invalid provider config")

	// ErrInvalidFile is returned when a file cannot be uploaded or deleted as given
	ErrInvalidFile = errors.New("invalid file")

	// ErrUnknownParam is returned for request or client option keys that are not supported
	ErrUnknownParam = errors.New("unknown parameter")
)

// OperationError reports a failed backend call.
type OperationError struct {
	Op     string // "upload" or "delete"
	Bucket string
	Key    string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
