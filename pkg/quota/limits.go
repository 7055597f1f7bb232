package quota

import (
	"fmt"

	"github.com/dmitrymomot/keymeter/pkg/keys"
)

const (
	DefaultFreeLimit int64 = 25
	DefaultProLimit  int64 = 10000
)

// Limits holds the daily quota per plan.
type Limits struct {
	Free int64 `env:"FREE_LIMIT_PER_DAY" envDefault:"25"`
	Pro  int64 `env:"PRO_LIMIT_PER_DAY" envDefault:"10000"`
}

// DefaultLimits returns the stock free/pro quotas.
func DefaultLimits() Limits {
	return Limits{Free: DefaultFreeLimit, Pro: DefaultProLimit}
}

// For returns the limit of plan. Unknown plans get the free limit.
func (l Limits) For(plan keys.Plan) int64 {
	if plan == keys.PlanPro {
		return l.Pro
	}
	return l.Free
}

// Validate checks that both limits are positive and pro is not below free.
func (l Limits) Validate() error {
	if l.Free <= 0 || l.Pro <= 0 {
		return fmt.Errorf("%w: limits must be positive (free=%d, pro=%d)", ErrInvalidLimits, l.Free, l.Pro)
	}
	if l.Pro < l.Free {
		return fmt.Errorf("%w: pro limit %d is below free limit %d", ErrInvalidLimits, l.Pro, l.Free)
	}
	return nil
}
