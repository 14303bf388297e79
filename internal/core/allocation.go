package core

import "fmt"

// AllocationPlan is the result of spreading a cash amount over the
// unpaid months of a school year. Months lists the newly covered months
// in school-year order; Surplus is whatever remained after the last
// whole month the amount could buy. The plan always conserves money:
// len(Months)*MonthlyFee + Surplus equals the original amount.
type AllocationPlan struct {
	Months  []int
	Surplus int64
}

// PlanAllocation walks the unpaid months of the school year in
// school-year order (September first) and consumes one MonthlyFee per
// month while the remainder still covers a whole month. A partial month
// is never created; whatever is left over becomes surplus. If every
// month is already paid, the whole amount is surplus.
//
// paidMonths may be in any order and may contain duplicates; months
// outside the school year are rejected.
func PlanAllocation(amount int64, paidMonths []int) (AllocationPlan, error) {
	if amount <= 0 {
		return AllocationPlan{}, ErrInvalidAmount
	}
	paid := make(map[int]bool, len(paidMonths))
	for _, m := range paidMonths {
		if !IsSchoolMonth(m) {
			return AllocationPlan{}, fmt.Errorf("paid month %d: %w", m, ErrInvalidMonth)
		}
		paid[m] = true
	}

	remaining := amount
	var months []int
	for _, m := range schoolYearMonths {
		if paid[m] {
			continue
		}
		if remaining < MonthlyFee {
			break
		}
		months = append(months, m)
		remaining -= MonthlyFee
	}
	return AllocationPlan{Months: months, Surplus: remaining}, nil
}

// SurplusNote is the note attached to a surplus record, referencing the
// original payment amount the remainder came from.
func SurplusNote(amount int64) string {
	return fmt.Sprintf("Přebytek z platby %d Kč", amount)
}

// PaymentStatus is the per-member month coverage derived from the
// member's payments in one school year.
type PaymentStatus struct {
	PaidMonths   []int
	UnpaidMonths []int
	PaidCount    int
	TotalMonths  int
}

// IsFullyPaid reports whether every school-year month is covered.
func (s PaymentStatus) IsFullyPaid() bool {
	return s.PaidCount == s.TotalMonths
}

// IsPaid reports whether the given month is covered.
func (s PaymentStatus) IsPaid(month int) bool {
	for _, m := range s.PaidMonths {
		if m == month {
			return true
		}
	}
	return false
}

// StatusFromPayments derives the month coverage from payment rows. Both
// slices come out in school-year order regardless of row order.
func StatusFromPayments(payments []Payment) PaymentStatus {
	paid := make(map[int]bool, len(payments))
	for _, p := range payments {
		paid[p.Month] = true
	}
	status := PaymentStatus{TotalMonths: len(schoolYearMonths)}
	for _, m := range schoolYearMonths {
		if paid[m] {
			status.PaidMonths = append(status.PaidMonths, m)
		} else {
			status.UnpaidMonths = append(status.UnpaidMonths, m)
		}
	}
	status.PaidCount = len(status.PaidMonths)
	return status
}
