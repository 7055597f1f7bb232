package binder

import "errors"

var (
	ErrBinderNotApplicable  = errors.New("binder not applicable to request")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrInvalidQuery         = errors.New("failed to parse query parameters")
	ErrInvalidPath          = errors.New("failed to parse path parameters")
)
