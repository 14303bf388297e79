package services

import (
	"context"
	"fmt"
	"log/slog"

	"prispevky/internal/amqp"
	"prispevky/internal/core"
	"prispevky/internal/storage"
)

// MemberService manages the choir roster.
type MemberService struct {
	store     storage.Store
	publisher EventPublisher
}

func NewMemberService(store storage.Store, publisher EventPublisher) *MemberService {
	return &MemberService{store: store, publisher: publisher}
}

// Create registers one member. When no gender is given it is guessed
// from the first name using Czech name morphology.
func (s *MemberService) Create(ctx context.Context, member core.Member) (core.Member, error) {
	if member.Gender == "" {
		member.Gender = core.DetectGender(member.FirstName)
	}
	if err := member.Validate(); err != nil {
		return core.Member{}, err
	}
	if err := s.store.CreateMember(ctx, &member); err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}
	s.publishChange(ctx, member.ID)
	return member, nil
}

// Import registers a batch of members in one transaction. The whole
// batch is validated first so a bad row aborts before any write.
func (s *MemberService) Import(ctx context.Context, members []core.Member) ([]core.Member, error) {
	if len(members) == 0 {
		return []core.Member{}, nil
	}
	for i := range members {
		if members[i].Gender == "" {
			members[i].Gender = core.DetectGender(members[i].FirstName)
		}
		if err := members[i].Validate(); err != nil {
			return nil, fmt.Errorf("member %d (%s): %w", i+1, members[i].FullName(), err)
		}
	}
	out, err := s.store.ImportMembers(ctx, members)
	if err != nil {
		return nil, fmt.Errorf("import members: %w", err)
	}
	slog.InfoContext(ctx, "Roster import finished", "count", len(out))
	s.publishChange(ctx, 0)
	return out, nil
}

// List returns the active roster ordered by last name.
func (s *MemberService) List(ctx context.Context) ([]core.Member, error) {
	return s.store.ListActiveMembers(ctx)
}

// Get returns one member, active or not.
func (s *MemberService) Get(ctx context.Context, id int64) (core.Member, error) {
	return s.store.GetMember(ctx, id)
}

// Deactivate removes a member from the active roster. Payment history
// stays in the ledger.
func (s *MemberService) Deactivate(ctx context.Context, id int64) error {
	if err := s.store.DeactivateMember(ctx, id); err != nil {
		return err
	}
	s.publishChange(ctx, id)
	return nil
}

func (s *MemberService) publishChange(ctx context.Context, memberID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.EventMemberChanged, memberID, ""); err != nil {
		slog.ErrorContext(ctx, "Failed to publish member change",
			"member_id", memberID,
			"error", err)
	}
}
