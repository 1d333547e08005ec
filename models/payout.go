package models

// PayoutTable maps number types and class tags to payout multipliers.
// Triple-digit bets carry a class tag selecting their tier; single-digit
// bets all pay the same multiplier.
type PayoutTable struct {
	SingleMultiplier  int64
	TripleMultipliers map[string]int64
}

// MultiplierFor returns the payout multiplier for a bet. An unrecognized
// triple class tag falls back to the lowest configured multiplier rather
// than failing open.
func (t PayoutTable) MultiplierFor(numberType NumberType, classTag string) int64 {
	if numberType == NumberTypeSingle {
		return t.SingleMultiplier
	}
	if m, ok := t.TripleMultipliers[classTag]; ok {
		return m
	}
	return lowestValue(t.TripleMultipliers)
}

// LockThresholds holds the per-class stake caps above which a number is
// locked against further bets and result declaration.
type LockThresholds struct {
	SingleThreshold  int64
	TripleThresholds map[string]int64
}

// ThresholdFor returns the lock threshold for a number space and class tag.
// An unrecognized triple class tag falls back to the lowest (most
// conservative) configured threshold.
func (t LockThresholds) ThresholdFor(numberType NumberType, classTag string) int64 {
	if numberType == NumberTypeSingle {
		return t.SingleThreshold
	}
	if v, ok := t.TripleThresholds[classTag]; ok {
		return v
	}
	return lowestValue(t.TripleThresholds)
}

func lowestValue(m map[string]int64) int64 {
	var lowest int64
	first := true
	for _, v := range m {
		if first || v < lowest {
			lowest = v
			first = false
		}
	}
	return lowest
}
