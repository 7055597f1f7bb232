package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/logger"
	"github.com/dmitrymomot/keymeter/pkg/usage"
)

// KeyResolver looks up key records. keys.Service and keys.Store satisfy it.
type KeyResolver interface {
	Get(ctx context.Context, key string) (keys.Record, error)
}

// Result describes an accepted request.
type Result struct {
	Plan       keys.Plan `json:"plan"`
	UsedToday  int64     `json:"used_today"`
	LimitToday int64     `json:"limit_today"`
	Day        usage.Day `json:"-"`
}

// Remaining returns how many requests are left today.
func (r Result) Remaining() int64 {
	return max(0, r.LimitToday-r.UsedToday)
}

// ResetAt returns the moment the counter rolls over to a new day.
func (r Result) ResetAt() time.Time {
	return r.Day.Next().Start()
}

// Enforcer counts requests against the daily plan limits.
type Enforcer struct {
	keys    KeyResolver
	ledger  usage.Ledger
	limits  Limits
	now     func() time.Time
	metrics *Metrics
	log     *slog.Logger
}

// Option configures an Enforcer.
type Option func(*Enforcer)

// WithClock overrides the wall clock used to pick the UTC day.
func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(e *Enforcer) { e.metrics = m }
}

// WithLogger sets the logger used for denied and failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enforcer) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEnforcer builds an Enforcer. It fails when limits are invalid.
func NewEnforcer(resolver KeyResolver, ledger usage.Ledger, limits Limits, opts ...Option) (*Enforcer, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	e := &Enforcer{
		keys:   resolver,
		ledger: ledger,
		limits: limits,
		now:    time.Now,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Limits returns the configured plan limits.
func (e *Enforcer) Limits() Limits {
	return e.limits
}

// Today returns the current UTC day as seen by the enforcer clock.
func (e *Enforcer) Today() usage.Day {
	return usage.DayOf(e.now())
}

// CheckAndCount accounts one request for key and decides whether it is allowed.
func (e *Enforcer) CheckAndCount(ctx context.Context, key string) (Result, error) {
	started := time.Now()

	rec, err := e.keys.Get(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, keys.ErrBlankKey):
			e.metrics.observe("", decisionUnknown, time.Since(started).Seconds())
			return Result{}, errors.Join(ErrMissingKey, err)
		case errors.Is(err, keys.ErrNotFound):
			e.metrics.observe("", decisionUnknown, time.Since(started).Seconds())
			return Result{}, ErrUnknownKey
		}
		e.metrics.observe("", decisionError, time.Since(started).Seconds())
		return Result{}, err
	}

	if !rec.Active {
		e.metrics.observe(rec.Plan.String(), decisionInactive, time.Since(started).Seconds())
		return Result{}, ErrInactive
	}

	limit := e.limits.For(rec.Plan)
	day := usage.DayOf(e.now())

	used, err := e.ledger.IncrementAndGet(ctx, rec.Key, day)
	if err != nil {
		e.metrics.observe(rec.Plan.String(), decisionError, time.Since(started).Seconds())
		e.log.ErrorContext(ctx, "usage increment failed",
			logger.APIKey(rec.Key),
			logger.Error(err),
			logger.Component("quota"),
		)
		return Result{}, err
	}

	if used > limit {
		e.metrics.observe(rec.Plan.String(), decisionExceeded, time.Since(started).Seconds())
		e.log.InfoContext(ctx, "daily limit exceeded",
			logger.APIKey(rec.Key),
			logger.Plan(rec.Plan.String()),
			slog.Int64("used", used-1),
			slog.Int64("limit", limit),
			logger.Component("quota"),
		)
		return Result{}, &ExceededError{Used: used - 1, Limit: limit}
	}

	e.metrics.observe(rec.Plan.String(), decisionAllowed, time.Since(started).Seconds())
	return Result{
		Plan:       rec.Plan,
		UsedToday:  used,
		LimitToday: limit,
		Day:        day,
	}, nil
}
