package models

import "github.com/shopspring/decimal"

// ExpenseID is an opaque identifier for an expense.
type ExpenseID string

// Expense represents an amount paid by one member on behalf of a subset of
// members. Expenses are append-only: an edit replaces the whole split set,
// never patches part of it, so Amount and Splits cannot drift apart.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID ExpenseID

	// RoomID is the room this expense belongs to.
	RoomID RoomID

	// PaidBy is the member who paid the full amount.
	PaidBy UserID

	// Amount is the total paid. Always positive.
	Amount decimal.Decimal

	// Reason is an optional description (e.g., "groceries").
	Reason string

	// Splits assigns each participant's share. Non-empty, and the shares
	// sum to Amount within SplitSumEpsilon.
	Splits []Split

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one participant's assigned share of an expense.
//
// A split whose User equals the expense's PaidBy is permitted: the payer
// owing themselves nets to zero and is ignored by pairwise balancing.
type Split struct {
	// User is the participant who owes this share.
	User UserID

	// Amount is the share owed. Non-negative.
	Amount decimal.Decimal
}

// Settlement represents a direct repayment between two room members,
// recorded to clear debt outside of any expense.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID SettlementID

	// RoomID is the room this settlement belongs to.
	RoomID RoomID

	// FromUser is the debtor settling up.
	FromUser UserID

	// ToUser is the creditor being paid.
	ToUser UserID

	// Amount is the payment amount. Always positive.
	Amount decimal.Decimal

	// Note is an optional description for the settlement.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}

// SettlementID is an opaque identifier for a settlement.
type SettlementID string
