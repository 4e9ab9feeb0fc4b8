package model

import "time"

// Credit transaction types.  Every balance-affecting operation appends
// exactly one row of the matching type in the same unit of work as the
// balance mutation.
const (
	TxPurchase        = "PURCHASE"
	TxReservation     = "RESERVATION"
	TxRefund          = "REFUND"
	TxAdminAdjustment = "ADMIN_ADJUSTMENT"
)

// CreditTransaction mirrors the append-only `credit_transactions` table.
// Rows are never updated or deleted; corrections are new rows with the
// opposite sign.  The eventual invariant, checked by tests, is that the
// per-user sum of Amount equals users.credits.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user whose balance the row affects.
//  Amount      – signed credit delta (negative for debits).
//  Type        – PURCHASE, RESERVATION, REFUND or ADMIN_ADJUSTMENT.
//  ReferenceID – related entity (reservation id for RESERVATION/REFUND).
//  Note        – human-readable context for the entry.
//  CreatedAt   – creation timestamp.
type CreditTransaction struct {
	ID          uint64    // credit_transactions.id
	UserID      uint64    // credit_transactions.user_id
	Amount      int64     // credit_transactions.amount
	Type        string    // credit_transactions.tx_type
	ReferenceID *uint64   // credit_transactions.reference_id (nullable)
	Note        string    // credit_transactions.note
	CreatedAt   time.Time // credit_transactions.created_at
}
