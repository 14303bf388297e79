// Package core provides the pure domain logic of the dues tracker:
// the school-year calendar, the fee schedule, payment allocation and
// the derived payment statistics. Nothing in this package touches
// storage or the wall clock; callers pass the current time explicitly.
package core

import (
	"fmt"
	"time"
)

// MonthlyFee is the fixed dues amount per school-year month, in Kč.
const MonthlyFee int64 = 100

// schoolYearMonths is the fixed month sequence of a school year.
// September comes first even though it is numerically largest: it is
// the first month of the year the choir collects dues for.
var schoolYearMonths = [10]int{9, 10, 11, 12, 1, 2, 3, 4, 5, 6}

// SchoolYearMonths returns the ordered school-year months
// (September through June). The returned slice is a copy.
func SchoolYearMonths() []int {
	months := make([]int, len(schoolYearMonths))
	copy(months[:], schoolYearMonths[:])
	return months
}

// TotalYearlyFee returns the dues owed per member for a full school year.
func TotalYearlyFee() int64 {
	return int64(len(schoolYearMonths)) * MonthlyFee
}

// IsSchoolMonth reports whether the given calendar month carries a dues
// obligation. July and August are vacation months.
func IsSchoolMonth(month int) bool {
	for _, m := range schoolYearMonths {
		if m == month {
			return true
		}
	}
	return false
}

// SchoolYear returns the label of the school year the given date falls
// into, formatted "YYYY/YY". September through December belong to the
// year that starts in the current calendar year; January through August
// to the one that started the previous year.
func SchoolYear(now time.Time) string {
	year := now.Year()
	if int(now.Month()) >= 9 {
		return fmt.Sprintf("%d/%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%d/%02d", year-1, year%100)
}

var monthNames = map[int]string{
	1:  "Leden",
	2:  "Únor",
	3:  "Březen",
	4:  "Duben",
	5:  "Květen",
	6:  "Červen",
	7:  "Červenec",
	8:  "Srpen",
	9:  "Září",
	10: "Říjen",
	11: "Listopad",
	12: "Prosinec",
}

var monthNamesShort = map[int]string{
	1:  "Led",
	2:  "Úno",
	3:  "Bře",
	4:  "Dub",
	5:  "Kvě",
	6:  "Čer",
	7:  "Čvc",
	8:  "Srp",
	9:  "Zář",
	10: "Říj",
	11: "Lis",
	12: "Pro",
}

// MonthName returns the Czech name of the month, or "" for an invalid month.
func MonthName(month int) string {
	return monthNames[month]
}

// MonthNameShort returns the three-letter Czech month abbreviation.
func MonthNameShort(month int) string {
	return monthNamesShort[month]
}
