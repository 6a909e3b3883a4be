package election

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStructureNotFound means an expected table or selector is absent.
	ErrStructureNotFound = errors.New("structure not found")
	// ErrMalformedLocation means the results banner did not split into area and sub-area.
	ErrMalformedLocation = errors.New("malformed location")
)

// TransportError reports a failed fetch.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Reason is a stable label for an error class.
type Reason string

// Reasons used by diagnostics and metrics.
const (
	ReasonTransport Reason = "transport"
	ReasonStructure Reason = "structure"
	ReasonLocation  Reason = "location"
	ReasonCanceled  Reason = "canceled"
	ReasonOther     Reason = "other"
)

// Classify maps err onto the error taxonomy.
func Classify(err error) Reason {
	var transportErr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.As(err, &transportErr):
		return ReasonTransport
	case errors.Is(err, ErrStructureNotFound):
		return ReasonStructure
	case errors.Is(err, ErrMalformedLocation):
		return ReasonLocation
	default:
		return ReasonOther
	}
}
