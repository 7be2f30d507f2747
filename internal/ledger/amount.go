package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("amount must not be negative")

// ParseAmount parses a decimal amount string. Used at the ingestion boundary,
// where a bad amount rejects the record.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// AmountOrZero parses s, treating anything unparseable or negative as zero.
// Aggregation uses this so a single bad stored row cannot poison a sum.
func AmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount the way it is stored
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// CanonicalAmount re-renders a valid amount string ("30.50" -> "30.5")
func CanonicalAmount(s string) (string, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return "", err
	}
	return FormatAmount(d), nil
}
