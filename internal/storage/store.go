// Package storage persists the dues ledger: members, per-month payment
// records and surplus records.
package storage

import (
	"context"

	"prispevky/internal/core"
)

// Store is the ledger port the services depend on. It is implemented
// by the SQLite repository and by the in-memory store used in tests
// and the demo backend.
//
// Implementations must enforce at most one payment per
// (member, school year, month) and report a violation with
// core.ErrDuplicateMonth. Lookups of absent rows report
// core.ErrMemberNotFound / core.ErrPaymentNotFound; anything else is a
// storage failure and is surfaced wrapped, never swallowed.
type Store interface {
	// CreateMember inserts a new member and populates its ID.
	CreateMember(ctx context.Context, m *core.Member) error

	// ImportMembers inserts members in bulk inside one transaction and
	// returns them with IDs assigned.
	ImportMembers(ctx context.Context, members []core.Member) ([]core.Member, error)

	// GetMember returns a member by id regardless of the active flag.
	GetMember(ctx context.Context, id int64) (core.Member, error)

	// ListActiveMembers returns active members ordered by last name.
	ListActiveMembers(ctx context.Context) ([]core.Member, error)

	// DeactivateMember soft-deletes a member by clearing the active
	// flag. Payment history is kept.
	DeactivateMember(ctx context.Context, id int64) error

	// InsertPayments inserts a batch of payments in one transaction and
	// returns them with IDs assigned. The whole batch fails on a
	// duplicate month.
	InsertPayments(ctx context.Context, payments []core.Payment) ([]core.Payment, error)

	// InsertSurplus inserts one surplus record and populates its ID.
	InsertSurplus(ctx context.Context, s *core.Surplus) error

	// RecordAllocation writes the payments and the optional surplus of
	// one allocation atomically: either everything is committed or
	// nothing is. surplus may be nil.
	RecordAllocation(ctx context.Context, payments []core.Payment, surplus *core.Surplus) ([]core.Payment, error)

	// ListMemberPayments returns one member's payments for a school
	// year, ordered by month number.
	ListMemberPayments(ctx context.Context, memberID int64, schoolYear string) ([]core.Payment, error)

	// ListPayments returns all payments for a school year.
	ListPayments(ctx context.Context, schoolYear string) ([]core.Payment, error)

	// ListPaymentsForMonth returns all payments for one month of a
	// school year.
	ListPaymentsForMonth(ctx context.Context, schoolYear string, month int) ([]core.Payment, error)

	// GetPayment returns one payment by id.
	GetPayment(ctx context.Context, id int64) (core.Payment, error)

	// DeletePayment removes exactly one payment by id.
	DeletePayment(ctx context.Context, id int64) error

	// ListSurplus returns a member's surplus records, newest first.
	ListSurplus(ctx context.Context, memberID int64) ([]core.Surplus, error)

	// ListAllSurplus returns every surplus record (export).
	ListAllSurplus(ctx context.Context) ([]core.Surplus, error)

	// Close releases any resources held by the store.
	Close() error
}
