package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDecodeFailed means the uploaded document could not be decoded at
	// all. Fatal for the extraction call; the session stays untouched.
	ErrDecodeFailed = errors.New("document decode failed")

	// ErrPageDetection marks a recovered per-page detector failure. The page
	// contributes zero tables and the rest of the document still processes.
	ErrPageDetection = errors.New("page detection failed")

	// ErrIndexNotFound means a requested table index is out of range or no
	// extraction result is installed.
	ErrIndexNotFound = errors.New("table index not found")

	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
