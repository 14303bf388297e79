package memory

import (
	"context"
	"errors"
	"testing"

	"prispevky/internal/core"
)

func newMember(t *testing.T, s *Store, first, last string) core.Member {
	t.Helper()
	m := core.Member{FirstName: first, LastName: last, Gender: core.GenderFemale}
	if err := s.CreateMember(context.Background(), &m); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	return m
}

func TestCreateAndGetMember(t *testing.T) {
	s := New()
	m := newMember(t, s, "Anna", "Nováková")
	if m.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if !m.IsActive {
		t.Fatal("new member should be active")
	}

	got, err := s.GetMember(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if got.FirstName != "Anna" || got.LastName != "Nováková" {
		t.Fatalf("got %q %q", got.FirstName, got.LastName)
	}

	if _, err := s.GetMember(context.Background(), 999); !errors.Is(err, core.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestListActiveMembersOrdering(t *testing.T) {
	s := New()
	newMember(t, s, "Petr", "Zeman")
	newMember(t, s, "Anna", "Bílá")
	newMember(t, s, "Jan", "Bílý")

	members, err := s.ListActiveMembers(context.Background())
	if err != nil {
		t.Fatalf("ListActiveMembers: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	if members[0].LastName != "Bílá" || members[2].LastName != "Zeman" {
		t.Fatalf("wrong order: %v", members)
	}
}

func TestDeactivateMember(t *testing.T) {
	s := New()
	m := newMember(t, s, "Anna", "Nováková")
	if err := s.DeactivateMember(context.Background(), m.ID); err != nil {
		t.Fatalf("DeactivateMember: %v", err)
	}
	members, _ := s.ListActiveMembers(context.Background())
	if len(members) != 0 {
		t.Fatalf("expected no active members, got %d", len(members))
	}
	// Soft delete keeps the row reachable.
	if _, err := s.GetMember(context.Background(), m.ID); err != nil {
		t.Fatalf("deactivated member should remain readable: %v", err)
	}
	if err := s.DeactivateMember(context.Background(), 999); !errors.Is(err, core.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestImportMembers(t *testing.T) {
	s := New()
	out, err := s.ImportMembers(context.Background(), []core.Member{
		{FirstName: "Anna", LastName: "Nováková", Gender: core.GenderFemale},
		{FirstName: "Jan", LastName: "Dvořák", Gender: core.GenderMale},
	})
	if err != nil {
		t.Fatalf("ImportMembers: %v", err)
	}
	if len(out) != 2 || out[0].ID == out[1].ID {
		t.Fatalf("expected 2 members with distinct IDs, got %v", out)
	}
}

func TestRecordAllocationAtomicity(t *testing.T) {
	s := New()
	m := newMember(t, s, "Anna", "Nováková")
	ctx := context.Background()

	first := []core.Payment{
		{MemberID: m.ID, SchoolYear: "2025/26", Month: 9, Amount: core.MonthlyFee},
	}
	if _, err := s.RecordAllocation(ctx, first, nil); err != nil {
		t.Fatalf("RecordAllocation: %v", err)
	}

	// Second batch collides on month 9; month 10 must not be written.
	dup := []core.Payment{
		{MemberID: m.ID, SchoolYear: "2025/26", Month: 10, Amount: core.MonthlyFee},
		{MemberID: m.ID, SchoolYear: "2025/26", Month: 9, Amount: core.MonthlyFee},
	}
	sp := &core.Surplus{MemberID: m.ID, Amount: 50, Note: core.SurplusNote(250)}
	if _, err := s.RecordAllocation(ctx, dup, sp); !errors.Is(err, core.ErrDuplicateMonth) {
		t.Fatalf("expected ErrDuplicateMonth, got %v", err)
	}

	payments, _ := s.ListMemberPayments(ctx, m.ID, "2025/26")
	if len(payments) != 1 || payments[0].Month != 9 {
		t.Fatalf("failed batch leaked writes: %v", payments)
	}
	surplus, _ := s.ListSurplus(ctx, m.ID)
	if len(surplus) != 0 {
		t.Fatalf("failed batch leaked surplus: %v", surplus)
	}
}

func TestRecordAllocationWithSurplus(t *testing.T) {
	s := New()
	m := newMember(t, s, "Anna", "Nováková")
	ctx := context.Background()

	payments := []core.Payment{
		{MemberID: m.ID, SchoolYear: "2025/26", Month: 9, Amount: core.MonthlyFee},
		{MemberID: m.ID, SchoolYear: "2025/26", Month: 10, Amount: core.MonthlyFee},
	}
	sp := &core.Surplus{MemberID: m.ID, Amount: 50, Note: core.SurplusNote(250)}
	out, err := s.RecordAllocation(ctx, payments, sp)
	if err != nil {
		t.Fatalf("RecordAllocation: %v", err)
	}
	if len(out) != 2 || out[0].ID == 0 || out[1].ID == 0 {
		t.Fatalf("expected payments with IDs, got %v", out)
	}
	if sp.ID == 0 {
		t.Fatal("expected surplus ID assigned")
	}
	records, _ := s.ListSurplus(ctx, m.ID)
	if len(records) != 1 || records[0].Amount != 50 {
		t.Fatalf("unexpected surplus records: %v", records)
	}
}

func TestListPaymentsFilters(t *testing.T) {
	s := New()
	a := newMember(t, s, "Anna", "Nováková")
	b := newMember(t, s, "Jan", "Dvořák")
	ctx := context.Background()

	batch := []core.Payment{
		{MemberID: a.ID, SchoolYear: "2025/26", Month: 9, Amount: core.MonthlyFee},
		{MemberID: a.ID, SchoolYear: "2025/26", Month: 10, Amount: core.MonthlyFee},
		{MemberID: b.ID, SchoolYear: "2025/26", Month: 9, Amount: core.MonthlyFee},
		{MemberID: a.ID, SchoolYear: "2024/25", Month: 9, Amount: core.MonthlyFee},
	}
	if _, err := s.InsertPayments(ctx, batch); err != nil {
		t.Fatalf("InsertPayments: %v", err)
	}

	year, _ := s.ListPayments(ctx, "2025/26")
	if len(year) != 3 {
		t.Fatalf("expected 3 payments in 2025/26, got %d", len(year))
	}
	mine, _ := s.ListMemberPayments(ctx, a.ID, "2025/26")
	if len(mine) != 2 {
		t.Fatalf("expected 2 payments for member, got %d", len(mine))
	}
	sep, _ := s.ListPaymentsForMonth(ctx, "2025/26", 9)
	if len(sep) != 2 {
		t.Fatalf("expected 2 September payments, got %d", len(sep))
	}
}

func TestDeletePayment(t *testing.T) {
	s := New()
	m := newMember(t, s, "Anna", "Nováková")
	ctx := context.Background()

	out, err := s.InsertPayments(ctx, []core.Payment{
		{MemberID: m.ID, SchoolYear: "2025/26", Month: 9, Amount: core.MonthlyFee},
	})
	if err != nil {
		t.Fatalf("InsertPayments: %v", err)
	}
	if err := s.DeletePayment(ctx, out[0].ID); err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}
	if err := s.DeletePayment(ctx, out[0].ID); !errors.Is(err, core.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}

	// The month is payable again after the undo.
	if _, err := s.InsertPayments(ctx, []core.Payment{
		{MemberID: m.ID, SchoolYear: "2025/26", Month: 9, Amount: core.MonthlyFee},
	}); err != nil {
		t.Fatalf("re-insert after delete: %v", err)
	}
}
