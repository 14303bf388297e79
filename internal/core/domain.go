package core

import (
	"errors"
	"strings"
	"time"
)

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type (
	// Gender is a display-label attribute only; no business rule reads it.
	Gender string

	// Member is the root entity. Members are never hard-deleted: payment
	// history must stay referentially intact, so removal clears IsActive.
	Member struct {
		ID        int64
		FirstName string
		LastName  string
		Gender    Gender
		Email     string
		Phone     string
		IsActive  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Payment covers exactly one month of one school year for one member.
	// At most one payment may exist per (member, school year, month);
	// the storage layer enforces that with a uniqueness constraint.
	// Payments are immutable; the only mutation is deletion (undo).
	Payment struct {
		ID         int64
		MemberID   int64
		SchoolYear string
		Month      int
		Amount     int64
		PaidAt     time.Time
	}

	// Surplus is the unallocated remainder of a payment that did not
	// evenly cover whole months. Surplus records accumulate per member
	// and are summed for display; they are never applied to later years.
	Surplus struct {
		ID        int64
		MemberID  int64
		Amount    int64
		Note      string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidMonth      = errors.New("month outside the school year")
	ErrEmptyFirstName    = errors.New("empty first name")
	ErrEmptyLastName     = errors.New("empty last name")
	ErrInvalidGender     = errors.New("invalid gender")
	ErrDuplicateMonth    = errors.New("month already paid")
	ErrMemberNotFound    = errors.New("member not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrMemberInactive    = errors.New("member is not active")
	ErrInvalidSchoolYear = errors.New("invalid school year label")
)

func (g Gender) Validate() error {
	switch g {
	case GenderMale, GenderFemale:
		return nil
	}
	return ErrInvalidGender
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.FirstName) == "" {
		return ErrEmptyFirstName
	}
	if strings.TrimSpace(m.LastName) == "" {
		return ErrEmptyLastName
	}
	if len(m.FirstName) > 100 || len(m.LastName) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if err := m.Gender.Validate(); err != nil {
		return err
	}
	return nil
}

// FullName returns "First Last" for logs and exports.
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

func (p Payment) Validate() error {
	if p.MemberID <= 0 {
		return ErrMemberNotFound
	}
	if !IsSchoolMonth(p.Month) {
		return ErrInvalidMonth
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if err := ValidateSchoolYear(p.SchoolYear); err != nil {
		return err
	}
	return nil
}

func (s Surplus) Validate() error {
	if s.MemberID <= 0 {
		return ErrMemberNotFound
	}
	if s.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateSchoolYear checks the "YYYY/YY" label format, including that
// the short year is the long year plus one.
func ValidateSchoolYear(label string) error {
	if len(label) != 7 || label[4] != '/' {
		return ErrInvalidSchoolYear
	}
	var year, short int
	for _, r := range label[:4] {
		if r < '0' || r > '9' {
			return ErrInvalidSchoolYear
		}
		year = year*10 + int(r-'0')
	}
	for _, r := range label[5:] {
		if r < '0' || r > '9' {
			return ErrInvalidSchoolYear
		}
		short = short*10 + int(r-'0')
	}
	if (year+1)%100 != short {
		return ErrInvalidSchoolYear
	}
	return nil
}
