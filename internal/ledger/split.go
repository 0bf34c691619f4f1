package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/models"
)

// EqualShares divides amount evenly among participants, producing one split
// per participant. The per-head share is floored to cents and the leftover
// cents are handed out one each to the earliest participants, so shares are
// never negative and always sum to amount exactly. A sub-cent residue (an
// amount finer than cents) lands on the first participant.
func EqualShares(amount decimal.Decimal, participants []models.UserID) ([]models.Split, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}

	n := decimal.NewFromInt(int64(len(participants)))
	base := amount.Div(n).RoundDown(2)
	leftover := amount.Sub(base.Mul(n))
	cent := decimal.New(1, -2)

	splits := make([]models.Split, len(participants))
	for i, p := range participants {
		share := base
		if leftover.GreaterThanOrEqual(cent) {
			share = share.Add(cent)
			leftover = leftover.Sub(cent)
		}
		splits[i] = models.Split{User: p, Amount: share}
	}
	if !leftover.IsZero() {
		splits[0].Amount = splits[0].Amount.Add(leftover)
	}

	return splits, nil
}

// ValidateSplits checks the reconciliation invariant for an expense: splits
// are non-empty, each share is non-negative, no participant appears twice,
// and the shares sum to amount within SplitSumEpsilon. An expense violating
// any of these must be rejected before it is persisted.
func ValidateSplits(amount decimal.Decimal, splits []models.Split) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if len(splits) == 0 {
		return fmt.Errorf("expense must have at least one split")
	}

	seen := make(map[models.UserID]bool, len(splits))
	var sum decimal.Decimal
	for _, s := range splits {
		if s.Amount.IsNegative() {
			return fmt.Errorf("split for %s is negative: %s", s.User, s.Amount)
		}
		if seen[s.User] {
			return fmt.Errorf("duplicate split for %s", s.User)
		}
		seen[s.User] = true
		sum = sum.Add(s.Amount)
	}

	if sum.Sub(amount).Abs().GreaterThan(SplitSumEpsilon) {
		return fmt.Errorf("splits sum to %s, expense amount is %s", sum, amount)
	}

	return nil
}
