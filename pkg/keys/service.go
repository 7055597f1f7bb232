package keys

import (
	"context"
	"errors"
	"strings"
	"time"
)

// maxGenerateAttempts bounds retries when a freshly generated key collides.
const maxGenerateAttempts = 3

// Service issues keys and guards the Store against blank identifiers.
type Service struct {
	store    Store
	now      func() time.Time
	generate func() (string, error)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerator overrides the key generator.
func WithGenerator(fn func() (string, error)) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.generate = fn
		}
	}
}

// NewService creates a Service on top of store.
// Panics if store is nil: a service without storage is a wiring bug.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic(ErrStoreNotDefined)
	}
	s := &Service{
		store:    store,
		now:      time.Now,
		generate: GenerateKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateKey generates and persists a new free, active key.
func (s *Service) CreateKey(ctx context.Context) (Record, error) {
	var lastErr error
	for range maxGenerateAttempts {
		key, err := s.generate()
		if err != nil {
			return Record{}, err
		}

		rec := NewRecord(key, s.now())
		err = s.store.Insert(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrKeyExists) {
			return Record{}, err
		}
		lastErr = err
	}
	return Record{}, lastErr
}

// EnsureExists creates a free, active record for key unless one exists.
func (s *Service) EnsureExists(ctx context.Context, key string) error {
	key, err := normalize(key)
	if err != nil {
		return err
	}
	return s.store.EnsureExists(ctx, key, s.now())
}

// Get returns the record for key.
func (s *Service) Get(ctx context.Context, key string) (Record, error) {
	key, err := normalize(key)
	if err != nil {
		return Record{}, err
	}
	return s.store.Get(ctx, key)
}

// UpgradeToPro moves key to the pro plan and re-activates it.
func (s *Service) UpgradeToPro(ctx context.Context, key string) error {
	key, err := normalize(key)
	if err != nil {
		return err
	}
	return s.store.UpgradeToPro(ctx, key, s.now())
}

// SetActive enables or disables key.
func (s *Service) SetActive(ctx context.Context, key string, active bool) error {
	key, err := normalize(key)
	if err != nil {
		return err
	}
	return s.store.SetActive(ctx, key, active)
}

func normalize(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrBlankKey
	}
	return key, nil
}
