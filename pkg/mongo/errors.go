package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrEmptyConnectionURL     = errors.New("empty mongo connection URL, use MONGODB_URL env var")
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
)

// IsDuplicateKeyError reports whether err is a unique index violation.
// Concurrent upserts on the same filter surface this error for all but one
// writer.
func IsDuplicateKeyError(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

// IsNotFoundError reports whether err is mongo.ErrNoDocuments.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, mongo.ErrNoDocuments)
}
