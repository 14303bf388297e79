// Package services orchestrates the dues ledger: it combines the
// allocation rules from core with the storage layer and the async
// spreadsheet sync.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prispevky/internal/amqp"
	"prispevky/internal/core"
	"prispevky/internal/storage"
)

// EventPublisher is the async side channel the ledger notifies after a
// successful write. Publishing is best effort; a failed publish never
// fails the request.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, eventType string, memberID int64, schoolYear string) error
}

// AllocationResult is what one cash payment turned into.
type AllocationResult struct {
	Member     core.Member
	SchoolYear string
	Amount     int64
	Payments   []core.Payment
	Surplus    *core.Surplus
}

// MemberStatusView is one member's ledger position in one school year.
type MemberStatusView struct {
	Member       core.Member
	SchoolYear   string
	Status       core.PaymentStatus
	State        core.PaidState
	Payments     []core.Payment
	SurplusTotal int64
}

// LedgerService records payments against the dues ledger. All writes go
// through the store in a single transaction; the duplicate-month rule
// lives in the storage layer, so concurrent allocations for the same
// member cannot double-cover a month.
type LedgerService struct {
	store     storage.Store
	publisher EventPublisher

	// now is swapped in tests to pin the school year.
	now func() time.Time
}

func NewLedgerService(store storage.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Used in tests.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// CurrentSchoolYear returns the school year the service clock falls in.
func (s *LedgerService) CurrentSchoolYear() string {
	return core.SchoolYear(s.now())
}

func (s *LedgerService) resolveSchoolYear(schoolYear string) (string, error) {
	if schoolYear == "" {
		return s.CurrentSchoolYear(), nil
	}
	if err := core.ValidateSchoolYear(schoolYear); err != nil {
		return "", err
	}
	return schoolYear, nil
}

func (s *LedgerService) activeMember(ctx context.Context, memberID int64) (core.Member, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return core.Member{}, err
	}
	if !member.IsActive {
		return core.Member{}, fmt.Errorf("member %d: %w", memberID, core.ErrMemberInactive)
	}
	return member, nil
}

// Allocate spreads amount over the member's unpaid months of the school
// year, oldest first, and writes the resulting payments plus any
// surplus atomically. An empty schoolYear means the current one.
func (s *LedgerService) Allocate(ctx context.Context, memberID, amount int64, schoolYear string) (AllocationResult, error) {
	year, err := s.resolveSchoolYear(schoolYear)
	if err != nil {
		return AllocationResult{}, err
	}
	member, err := s.activeMember(ctx, memberID)
	if err != nil {
		return AllocationResult{}, err
	}

	existing, err := s.store.ListMemberPayments(ctx, memberID, year)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("load paid months: %w", err)
	}
	paidMonths := make([]int, len(existing))
	for i, p := range existing {
		paidMonths[i] = p.Month
	}

	plan, err := core.PlanAllocation(amount, paidMonths)
	if err != nil {
		return AllocationResult{}, err
	}

	paidAt := s.now()
	payments := make([]core.Payment, len(plan.Months))
	for i, month := range plan.Months {
		payments[i] = core.Payment{
			MemberID:   memberID,
			SchoolYear: year,
			Month:      month,
			Amount:     core.MonthlyFee,
			PaidAt:     paidAt,
		}
	}
	var surplus *core.Surplus
	if plan.Surplus > 0 {
		surplus = &core.Surplus{
			MemberID:  memberID,
			Amount:    plan.Surplus,
			Note:      core.SurplusNote(amount),
			CreatedAt: paidAt,
		}
	}

	written, err := s.store.RecordAllocation(ctx, payments, surplus)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("record allocation: %w", err)
	}

	slog.InfoContext(ctx, "Payment allocated",
		"member_id", memberID,
		"school_year", year,
		"amount", amount,
		"months", plan.Months,
		"surplus", plan.Surplus)

	s.publish(ctx, amqp.EventPaymentRecorded, memberID, year)

	return AllocationResult{
		Member:     member,
		SchoolYear: year,
		Amount:     amount,
		Payments:   written,
		Surplus:    surplus,
	}, nil
}

// PayMonth records exactly one month at the monthly fee, without the
// allocation walk. Used when the treasurer ticks a single month off.
func (s *LedgerService) PayMonth(ctx context.Context, memberID int64, month int, schoolYear string) (core.Payment, error) {
	year, err := s.resolveSchoolYear(schoolYear)
	if err != nil {
		return core.Payment{}, err
	}
	if !core.IsSchoolMonth(month) {
		return core.Payment{}, fmt.Errorf("month %d: %w", month, core.ErrInvalidMonth)
	}
	if _, err := s.activeMember(ctx, memberID); err != nil {
		return core.Payment{}, err
	}

	payment := core.Payment{
		MemberID:   memberID,
		SchoolYear: year,
		Month:      month,
		Amount:     core.MonthlyFee,
		PaidAt:     s.now(),
	}
	written, err := s.store.InsertPayments(ctx, []core.Payment{payment})
	if err != nil {
		return core.Payment{}, err
	}

	slog.InfoContext(ctx, "Month paid",
		"member_id", memberID,
		"school_year", year,
		"month", month)

	s.publish(ctx, amqp.EventPaymentRecorded, memberID, year)
	return written[0], nil
}

// UndoPayment deletes one payment row, freeing its month for a new
// payment, and returns the deleted row. Surplus records born from the
// same allocation stay.
func (s *LedgerService) UndoPayment(ctx context.Context, paymentID int64) (core.Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return core.Payment{}, err
	}
	if err := s.store.DeletePayment(ctx, paymentID); err != nil {
		return core.Payment{}, err
	}

	slog.InfoContext(ctx, "Payment undone",
		"payment_id", paymentID,
		"member_id", payment.MemberID,
		"month", payment.Month)

	s.publish(ctx, amqp.EventPaymentUndone, payment.MemberID, payment.SchoolYear)
	return payment, nil
}

// MemberStatus returns one member's coverage, payments and accumulated
// surplus for a school year. Inactive members are readable here so
// their history survives deactivation.
func (s *LedgerService) MemberStatus(ctx context.Context, memberID int64, schoolYear string) (MemberStatusView, error) {
	year, err := s.resolveSchoolYear(schoolYear)
	if err != nil {
		return MemberStatusView{}, err
	}
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return MemberStatusView{}, err
	}

	payments, err := s.store.ListMemberPayments(ctx, memberID, year)
	if err != nil {
		return MemberStatusView{}, fmt.Errorf("load payments: %w", err)
	}
	surplus, err := s.store.ListSurplus(ctx, memberID)
	if err != nil {
		return MemberStatusView{}, fmt.Errorf("load surplus: %w", err)
	}
	var surplusTotal int64
	for _, sp := range surplus {
		surplusTotal += sp.Amount
	}

	status := core.StatusFromPayments(payments)
	return MemberStatusView{
		Member:       member,
		SchoolYear:   year,
		Status:       status,
		State:        core.Classify(status.PaidCount),
		Payments:     payments,
		SurplusTotal: surplusTotal,
	}, nil
}

func (s *LedgerService) publish(ctx context.Context, eventType string, memberID int64, schoolYear string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, eventType, memberID, schoolYear); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", eventType,
			"member_id", memberID,
			"error", err)
	}
}
