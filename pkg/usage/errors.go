package usage

import "errors"

var (
	ErrInvalidDay = errors.New("invalid usage day")
	ErrBlankKey   = errors.New("usage key is required")
)
