// Package mongo connects to MongoDB through the official v2 driver.
//
// New retries the initial connect and ping; NewWithDatabase returns the
// configured database handle. IsDuplicateKeyError classifies the races that
// concurrent upserts produce, so callers can retry them.
package mongo
