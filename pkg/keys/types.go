package keys

import (
	"context"
	"strings"
	"time"
)

// Plan is a named tier that determines the daily quota of a key.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

func (p Plan) String() string {
	return string(p)
}

// ParsePlan converts a stored plan value into a Plan.
// Empty values are read as free, matching the column default.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PlanFree, nil
	}
	if !p.Valid() {
		return "", ErrInvalidPlan
	}
	return p, nil
}

// Record is a persisted API key.
type Record struct {
	Key       string    `json:"api_key"`
	Plan      Plan      `json:"plan"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord returns a free, active record for key.
func NewRecord(key string, createdAt time.Time) Record {
	return Record{
		Key:       key,
		Plan:      PlanFree,
		Active:    true,
		CreatedAt: createdAt.UTC(),
	}
}

// Store persists key records. It is the only component allowed to mutate them.
type Store interface {
	// Insert stores a new record. Returns ErrKeyExists if the key is taken.
	Insert(ctx context.Context, rec Record) error

	// EnsureExists inserts a free, active record for key if it is absent.
	// It is a no-op for existing keys.
	EnsureExists(ctx context.Context, key string, createdAt time.Time) error

	// Get returns the record for key or ErrNotFound.
	Get(ctx context.Context, key string) (Record, error)

	// UpgradeToPro sets plan=pro and active=true, creating the record when
	// it does not exist yet. Applying it twice leaves the same state.
	UpgradeToPro(ctx context.Context, key string, createdAt time.Time) error

	// SetActive toggles the active flag. Returns ErrNotFound for unknown keys.
	SetActive(ctx context.Context, key string, active bool) error
}
