package extractors

import (
	"errors"
	"fmt"
)

var ErrInvalidURL = errors.New("invalid URL provided")

// ExtractionError is the uniform failure returned by Service.Extract.
type ExtractionError struct {
	Platform    string
	Message     string
	Suggestion  string
	Unsupported bool
	Supported   []string
	Err         error
}

func (e *ExtractionError) Error() string {
	if e.Platform == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx answer from an upstream platform.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}
