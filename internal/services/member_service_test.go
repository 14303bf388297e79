package services

import (
	"context"
	"errors"
	"testing"

	"prispevky/internal/core"
	"prispevky/internal/storage/memory"
)

func TestMemberCreateDetectsGender(t *testing.T) {
	svc := NewMemberService(memory.New(), nil)
	ctx := context.Background()

	tests := []struct {
		first string
		want  core.Gender
	}{
		{"Anna", core.GenderFemale},
		{"Jan", core.GenderMale},
		{"Lucie", core.GenderFemale},
		{"Nikola", core.GenderMale},
	}
	for _, tt := range tests {
		m, err := svc.Create(ctx, core.Member{FirstName: tt.first, LastName: "Testová"})
		if err != nil {
			t.Fatalf("Create(%s): %v", tt.first, err)
		}
		if m.Gender != tt.want {
			t.Errorf("Create(%s) gender = %v, want %v", tt.first, m.Gender, tt.want)
		}
	}
}

func TestMemberCreateKeepsExplicitGender(t *testing.T) {
	svc := NewMemberService(memory.New(), nil)
	m, err := svc.Create(context.Background(), core.Member{
		FirstName: "Anna", LastName: "Nováková", Gender: core.GenderMale,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Gender != core.GenderMale {
		t.Errorf("explicit gender overridden to %v", m.Gender)
	}
}

func TestMemberCreateValidation(t *testing.T) {
	svc := NewMemberService(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, core.Member{FirstName: "", LastName: "Nováková"}); !errors.Is(err, core.ErrEmptyFirstName) {
		t.Errorf("expected ErrEmptyFirstName, got %v", err)
	}
	if _, err := svc.Create(ctx, core.Member{FirstName: "Anna", LastName: "  "}); !errors.Is(err, core.ErrEmptyLastName) {
		t.Errorf("expected ErrEmptyLastName, got %v", err)
	}
}

func TestMemberImportAbortsOnBadRow(t *testing.T) {
	store := memory.New()
	svc := NewMemberService(store, nil)
	ctx := context.Background()

	_, err := svc.Import(ctx, []core.Member{
		{FirstName: "Anna", LastName: "Nováková"},
		{FirstName: "", LastName: "Dvořák"},
	})
	if !errors.Is(err, core.ErrEmptyFirstName) {
		t.Fatalf("expected ErrEmptyFirstName, got %v", err)
	}

	members, _ := store.ListActiveMembers(ctx)
	if len(members) != 0 {
		t.Fatalf("aborted import leaked %d members", len(members))
	}
}

func TestMemberImportAndList(t *testing.T) {
	svc := NewMemberService(memory.New(), nil)
	ctx := context.Background()

	out, err := svc.Import(ctx, []core.Member{
		{FirstName: "Anna", LastName: "Nováková"},
		{FirstName: "Jan", LastName: "Dvořák"},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 imported, got %d", len(out))
	}

	members, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(members) != 2 || members[0].LastName != "Dvořák" {
		t.Fatalf("unexpected roster: %v", members)
	}
}

func TestMemberDeactivate(t *testing.T) {
	svc := NewMemberService(memory.New(), nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, core.Member{FirstName: "Anna", LastName: "Nováková"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Deactivate(ctx, m.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if err := svc.Deactivate(ctx, 999); !errors.Is(err, core.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}

	members, _ := svc.List(ctx)
	if len(members) != 0 {
		t.Fatalf("expected empty roster, got %v", members)
	}
	// History stays readable.
	if _, err := svc.Get(ctx, m.ID); err != nil {
		t.Fatalf("Get after deactivate: %v", err)
	}
}
