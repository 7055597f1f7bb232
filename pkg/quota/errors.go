package quota

import (
	"errors"
	"fmt"
)

var (
	ErrMissingKey    = errors.New("api key is required")
	ErrUnknownKey    = errors.New("unknown api key")
	ErrInactive      = errors.New("api key is not active")
	ErrQuotaExceeded = errors.New("daily limit exceeded")
	ErrInvalidLimits = errors.New("invalid plan limits")
)

// ExceededError reports a denied request together with the usage that was
// already reached and the plan limit.
type ExceededError struct {
	Used  int64
	Limit int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("daily limit exceeded: %d/%d used", e.Used, e.Limit)
}

func (e *ExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
