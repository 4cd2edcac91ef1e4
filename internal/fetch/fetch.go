package fetch

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher returns the body of a page. Implementations bound every call by
// their own timeout and report failures as *Error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindStatus    Kind = "status"
	KindTransport Kind = "transport"
)

var (
	ErrTimeout   = errors.New("fetch timed out")
	ErrStatus    = errors.New("unexpected status")
	ErrTransport = errors.New("transport error")
)

// Error is a failed fetch of URL. StatusCode is set for KindStatus only.
type Error struct {
	URL        string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match on the failure kind with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrTransport:
		return e.Kind == KindTransport
	}
	return false
}
