package keys

import "errors"

var (
	ErrNotFound        = errors.New("api key not found")
	ErrKeyExists       = errors.New("api key already exists")
	ErrBlankKey        = errors.New("api key is required")
	ErrInvalidPlan     = errors.New("invalid plan")
	ErrKeyGeneration   = errors.New("failed to generate api key")
	ErrStoreNotDefined = errors.New("key store is not defined")
)
