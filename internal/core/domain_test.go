package core

import (
	"errors"
	"testing"
)

func TestMemberValidate(t *testing.T) {
	good := Member{FirstName: "Jana", LastName: "Svobodová", Gender: GenderFemale}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		m    Member
		want error
	}{
		{Member{FirstName: "", LastName: "Svobodová", Gender: GenderFemale}, ErrEmptyFirstName},
		{Member{FirstName: "   ", LastName: "Svobodová", Gender: GenderFemale}, ErrEmptyFirstName},
		{Member{FirstName: "Jana", LastName: "", Gender: GenderFemale}, ErrEmptyLastName},
		{Member{FirstName: "Jana", LastName: "Svobodová", Gender: "other"}, ErrInvalidGender},
		{Member{FirstName: "Jana", LastName: "Svobodová"}, ErrInvalidGender},
	}
	for i, tc := range bads {
		if err := tc.m.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestPaymentValidate(t *testing.T) {
	good := Payment{MemberID: 1, SchoolYear: "2024/25", Month: 9, Amount: MonthlyFee}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Payment{
		{MemberID: 0, SchoolYear: "2024/25", Month: 9, Amount: MonthlyFee},
		{MemberID: 1, SchoolYear: "2024/25", Month: 7, Amount: MonthlyFee}, // vacation
		{MemberID: 1, SchoolYear: "2024/25", Month: 13, Amount: MonthlyFee},
		{MemberID: 1, SchoolYear: "2024/25", Month: 9, Amount: 0},
		{MemberID: 1, SchoolYear: "2024-25", Month: 9, Amount: MonthlyFee},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestSurplusValidate(t *testing.T) {
	if err := (Surplus{MemberID: 1, Amount: 50}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Surplus{MemberID: 1, Amount: 0}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero surplus: got %v", err)
	}
	if err := (Surplus{MemberID: 1, Amount: -10}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative surplus: got %v", err)
	}
}

func TestMemberFullName(t *testing.T) {
	m := Member{FirstName: "Jan", LastName: "Novák"}
	if got := m.FullName(); got != "Jan Novák" {
		t.Errorf("FullName() = %q", got)
	}
}
