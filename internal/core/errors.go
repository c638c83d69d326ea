package core

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is returned by record stores that cannot be reached
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrRecordNotFound is returned by record sessions when a lookup has no match
	ErrRecordNotFound = errors.New("record not found")
	// ErrProviderUnavailable is returned when a provider cannot be constructed
	ErrProviderUnavailable = errors.New("extraction provider unavailable")
)

// ExtractionProviderError is returned when the external extraction call fails
// or its output cannot be parsed
type ExtractionProviderError struct {
	Provider string
	Err      error
}

func (e *ExtractionProviderError) Error() string {
	return fmt.Sprintf("extraction provider %s failed: %v", e.Provider, e.Err)
}

func (e *ExtractionProviderError) Unwrap() error {
	return e.Err
}

// IsExtractionProviderError reports whether err wraps an ExtractionProviderError
func IsExtractionProviderError(err error) bool {
	var target *ExtractionProviderError
	return errors.As(err, &target)
}
