package core

import "time"

// PaidState is the three-way classification of a member within one
// school year. Every active member falls into exactly one case.
type PaidState int

const (
	PaidNone PaidState = iota
	PaidPartially
	PaidFully
)

func (s PaidState) String() string {
	switch s {
	case PaidNone:
		return "unpaid"
	case PaidPartially:
		return "partial"
	case PaidFully:
		return "paid"
	}
	return "unknown"
}

// Classify maps a paid-month count to its PaidState.
func Classify(paidCount int) PaidState {
	switch {
	case paidCount == 0:
		return PaidNone
	case paidCount >= len(schoolYearMonths):
		return PaidFully
	}
	return PaidPartially
}

// ChoirStats is the organization-wide collection summary for one school
// year. TotalCollected sums raw payment amounts, independent of the
// per-member classification; TotalRemaining is clamped at zero because
// surplus can push collected past expected.
type ChoirStats struct {
	SchoolYear           string
	TotalMembers         int
	TotalCollected       int64
	TotalRemaining       int64
	TotalExpected        int64
	PercentCollected     float64
	FullyPaidMembers     int
	PartiallyPaidMembers int
	UnpaidMembers        int
}

// ComputeChoirStats aggregates all active members and all payments of
// one school year. Payments belonging to inactive or unknown members
// still count toward TotalCollected; the partition counts only the
// members given.
func ComputeChoirStats(schoolYear string, members []Member, payments []Payment) ChoirStats {
	stats := ChoirStats{
		SchoolYear:   schoolYear,
		TotalMembers: len(members),
	}

	monthsByMember := make(map[int64]map[int]bool)
	for _, p := range payments {
		if monthsByMember[p.MemberID] == nil {
			monthsByMember[p.MemberID] = make(map[int]bool)
		}
		monthsByMember[p.MemberID][p.Month] = true
		stats.TotalCollected += p.Amount
	}

	for _, m := range members {
		switch Classify(len(monthsByMember[m.ID])) {
		case PaidFully:
			stats.FullyPaidMembers++
		case PaidPartially:
			stats.PartiallyPaidMembers++
		case PaidNone:
			stats.UnpaidMembers++
		}
	}

	stats.TotalExpected = int64(len(members)) * TotalYearlyFee()
	remaining := stats.TotalExpected - stats.TotalCollected
	if remaining < 0 {
		remaining = 0
	}
	stats.TotalRemaining = remaining
	if stats.TotalExpected > 0 {
		stats.PercentCollected = float64(stats.TotalCollected) / float64(stats.TotalExpected) * 100
	}
	return stats
}

// UnpaidForMonth returns the active members with no payment row for the
// given month. During vacation months (July, August) nobody owes dues,
// so the result is always empty regardless of payment data.
func UnpaidForMonth(now time.Time, members []Member, monthPayments []Payment) []Member {
	month := int(now.Month())
	if !IsSchoolMonth(month) {
		return []Member{}
	}
	paid := make(map[int64]bool, len(monthPayments))
	for _, p := range monthPayments {
		if p.Month == month {
			paid[p.MemberID] = true
		}
	}
	unpaid := make([]Member, 0, len(members))
	for _, m := range members {
		if !paid[m.ID] {
			unpaid = append(unpaid, m)
		}
	}
	return unpaid
}
