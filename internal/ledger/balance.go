// Package ledger computes balances from a room's expense and settlement set.
//
// All functions are pure: they take fully loaded records, share no state and
// are safe to call concurrently. Balances are recomputed from scratch on
// every query; there is no cached running ledger.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/models"
)

var (
	// SplitSumEpsilon is the tolerance for reconciling an expense's split
	// shares against its total at creation time.
	SplitSumEpsilon = decimal.New(1, -6) // 1e-6

	// SettleEpsilon is the tolerance below which a pairwise balance counts
	// as settled. Absorbs rounding noise from repeated divisions.
	SettleEpsilon = decimal.New(5, -3) // 0.005
)

// Pairwise is a sparse net-balance table. Pairwise[a][b] is the amount a is
// owed by b; negative means a owes b. Antisymmetric by construction:
// Pairwise[a][b] == Pairwise[b][a].Neg() for every recorded pair.
//
// A pair is present only if the two users shared at least one expense or
// settlement.
type Pairwise map[models.UserID]map[models.UserID]decimal.Decimal

// add records that creditor is owed amount by debtor, keeping both
// directions of the table in sync.
func (p Pairwise) add(creditor, debtor models.UserID, amount decimal.Decimal) {
	if p[creditor] == nil {
		p[creditor] = make(map[models.UserID]decimal.Decimal)
	}
	if p[debtor] == nil {
		p[debtor] = make(map[models.UserID]decimal.Decimal)
	}
	p[creditor][debtor] = p[creditor][debtor].Add(amount)
	p[debtor][creditor] = p[debtor][creditor].Sub(amount)
}

// PairwiseBalances nets every expense split and settlement into a pairwise
// balance table.
//
// A split whose user is the payer contributes nothing and is skipped, not
// rejected. A settlement counts as the debtor paying the creditor directly,
// so it moves the pair toward zero the same way an expense split would.
// Expense order does not affect the result.
func PairwiseBalances(expenses []*models.Expense, settlements []*models.Settlement) Pairwise {
	balances := make(Pairwise)

	for _, e := range expenses {
		for _, s := range e.Splits {
			if s.User == e.PaidBy {
				continue // payer owing themselves nets to zero
			}
			balances.add(e.PaidBy, s.User, s.Amount)
		}
	}

	for _, s := range settlements {
		balances.add(s.FromUser, s.ToUser, s.Amount)
	}

	return balances
}

// CounterpartyBalance is one entry of a user's balance view.
type CounterpartyBalance struct {
	User   models.UserID
	Amount decimal.Decimal // always non-negative in ToReceive/ToPay; zero-ish in Settled
}

// UserBalances buckets a user's counterparties by the sign of the net
// pairwise balance.
type UserBalances struct {
	// ToReceive lists counterparties who owe this user.
	ToReceive []CounterpartyBalance

	// ToPay lists counterparties this user owes.
	ToPay []CounterpartyBalance

	// Settled lists counterparties whose net balance is within SettleEpsilon
	// of zero. Users who never shared an expense are absent, not settled.
	Settled []CounterpartyBalance
}

// BalancesFor extracts one user's row of the pairwise table, classifying each
// counterparty as to-receive, to-pay or settled. Results are sorted by
// counterparty id so output is deterministic.
func BalancesFor(user models.UserID, balances Pairwise) *UserBalances {
	result := &UserBalances{}

	row := balances[user]
	counterparties := make([]models.UserID, 0, len(row))
	for c := range row {
		counterparties = append(counterparties, c)
	}
	sort.Slice(counterparties, func(i, j int) bool { return counterparties[i] < counterparties[j] })

	for _, c := range counterparties {
		v := row[c]
		switch {
		case v.GreaterThan(SettleEpsilon):
			result.ToReceive = append(result.ToReceive, CounterpartyBalance{User: c, Amount: v})
		case v.LessThan(SettleEpsilon.Neg()):
			result.ToPay = append(result.ToPay, CounterpartyBalance{User: c, Amount: v.Neg()})
		default:
			result.Settled = append(result.Settled, CounterpartyBalance{User: c, Amount: decimal.Zero})
		}
	}

	return result
}

// MemberSummary is one participant's paid/owed/net totals across a room.
type MemberSummary struct {
	User models.UserID

	// Paid is the sum of expense amounts this user paid, plus settlements
	// they sent.
	Paid decimal.Decimal

	// Owes is the sum of this user's split shares (including self-splits),
	// plus settlements they received.
	Owes decimal.Decimal

	// Net is Paid minus Owes. Summed over every participant it is zero:
	// each unit paid by someone is owed by someone, the payer included.
	Net decimal.Decimal
}

// Summarize computes per-participant totals over a room's full expense and
// settlement history. Every user who appears in any expense or settlement is
// included, whether or not they are still a room member; callers filter to
// the current member set for display.
func Summarize(expenses []*models.Expense, settlements []*models.Settlement) map[models.UserID]*MemberSummary {
	summaries := make(map[models.UserID]*MemberSummary)

	get := func(u models.UserID) *MemberSummary {
		if s, ok := summaries[u]; ok {
			return s
		}
		s := &MemberSummary{User: u}
		summaries[u] = s
		return s
	}

	for _, e := range expenses {
		get(e.PaidBy).Paid = get(e.PaidBy).Paid.Add(e.Amount)
		for _, split := range e.Splits {
			// Self-splits count here: they inflate Paid and Owes by the
			// same amount and cancel in Net.
			get(split.User).Owes = get(split.User).Owes.Add(split.Amount)
		}
	}

	for _, s := range settlements {
		get(s.FromUser).Paid = get(s.FromUser).Paid.Add(s.Amount)
		get(s.ToUser).Owes = get(s.ToUser).Owes.Add(s.Amount)
	}

	for _, s := range summaries {
		s.Net = s.Paid.Sub(s.Owes)
	}

	return summaries
}
