package models

// Valid ranges for the two number spaces
const (
	MinSingleNumber = 0
	MaxSingleNumber = 9
	MinTripleNumber = 0
	MaxTripleNumber = 999
)

// ValidNumber checks that a number is within its type's valid range
func ValidNumber(numberType NumberType, number int) bool {
	switch numberType {
	case NumberTypeSingle:
		return number >= MinSingleNumber && number <= MaxSingleNumber
	case NumberTypeTriple:
		return number >= MinTripleNumber && number <= MaxTripleNumber
	}
	return false
}

// DeriveDigit computes the single-digit result for a triple-digit winning
// number: the sum of its three digits reduced to the trailing digit
// (digit-sum mod 10). This is the one piece of numeric logic shared between
// candidate-liability computation and settlement; both must call this
// function, never reimplement it.
func DeriveDigit(triple int) int {
	hundreds := triple / 100
	tens := (triple / 10) % 10
	units := triple % 10
	return (hundreds + tens + units) % 10
}

// NumberAggregate is the per-round, per-number stake rollup
type NumberAggregate struct {
	RoundID     int64      `db:"round_id"`
	NumberType  NumberType `db:"number_type"`
	Number      int        `db:"number"`
	TotalStaked int64      `db:"total_staked"`
	EntryCount  int        `db:"entry_count"`
	Locked      bool       `db:"locked"`
}

// ProfitNumber is a triple-digit candidate ranked by operator liability
type ProfitNumber struct {
	Number    int
	Liability int64
	Locked    bool
}
