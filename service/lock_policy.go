package service

import (
	"matka/models"
)

// LockPolicy decides when a number's accumulated stake makes it too risky to
// remain biddable or declarable. Evaluation never fails: unknown class tags
// fall back to the most conservative threshold.
type LockPolicy struct {
	thresholds models.LockThresholds
}

// NewLockPolicy creates a lock policy from the configured thresholds
func NewLockPolicy(thresholds models.LockThresholds) *LockPolicy {
	return &LockPolicy{thresholds: thresholds}
}

// IsLocked reports whether the aggregate should be locked under the given
// class tag. A previously set lock flag always wins: locking is monotonic
// within a round.
func (p *LockPolicy) IsLocked(aggregate *models.NumberAggregate, classTag string) bool {
	if aggregate == nil {
		return false
	}
	if aggregate.Locked {
		return true
	}
	return aggregate.TotalStaked >= p.thresholds.ThresholdFor(aggregate.NumberType, classTag)
}

// Threshold exposes the effective cap for a number space and class tag
func (p *LockPolicy) Threshold(numberType models.NumberType, classTag string) int64 {
	return p.thresholds.ThresholdFor(numberType, classTag)
}
