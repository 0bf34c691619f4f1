// Package models defines the core domain models for the settlement ledger.
//
// # Entities
//
//   - User: a registered account, referenced everywhere else by UserID only
//   - Room: a shared expense group with an ordered member list and an admin
//   - Expense: an amount paid by one member, divided into Splits
//   - Split: one participant's share of a single expense
//   - Settlement: a direct repayment between two members
//
// # Design Principles
//
//  1. **Opaque ids**: UserID, RoomID, ExpenseID and SettlementID are distinct
//     types so they cannot be mixed up at call sites.
//  2. **Decimal amounts**: money is decimal.Decimal, never float64. Callers
//     compare amounts against an epsilon, never for exact equality.
//  3. **Avoid circular references**: models hold ids, not pointers to each
//     other.
//  4. **No behavior beyond invariant checks**: balance computation lives in
//     the ledger package, membership transitions in the membership package.
package models
