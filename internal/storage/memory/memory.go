// Package memory provides an in-memory Store for tests and the demo
// backend. It enforces the same (member, school year, month)
// uniqueness rule as the SQLite repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"prispevky/internal/core"
	"prispevky/internal/storage"
)

// Ensure Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	members  map[int64]core.Member
	payments map[int64]core.Payment
	surplus  []core.Surplus

	nextMemberID  int64
	nextPaymentID int64
	nextSurplusID int64
}

func New() *Store {
	return &Store{
		members:  make(map[int64]core.Member),
		payments: make(map[int64]core.Payment),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateMember(_ context.Context, m *core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createMemberLocked(m)
	return nil
}

func (s *Store) createMemberLocked(m *core.Member) {
	s.nextMemberID++
	m.ID = s.nextMemberID
	m.IsActive = true
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	s.members[m.ID] = *m
}

func (s *Store) ImportMembers(_ context.Context, members []core.Member) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Member, len(members))
	for i := range members {
		m := members[i]
		s.createMemberLocked(&m)
		out[i] = m
	}
	return out, nil
}

func (s *Store) GetMember(_ context.Context, id int64) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return core.Member{}, fmt.Errorf("member %d: %w", id, core.ErrMemberNotFound)
	}
	return m, nil
}

func (s *Store) ListActiveMembers(_ context.Context) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var members []core.Member
	for _, m := range s.members {
		if m.IsActive {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].LastName != members[j].LastName {
			return members[i].LastName < members[j].LastName
		}
		return members[i].FirstName < members[j].FirstName
	})
	return members, nil
}

func (s *Store) DeactivateMember(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return fmt.Errorf("member %d: %w", id, core.ErrMemberNotFound)
	}
	m.IsActive = false
	m.UpdatedAt = time.Now()
	s.members[id] = m
	return nil
}

func (s *Store) InsertPayments(ctx context.Context, payments []core.Payment) ([]core.Payment, error) {
	return s.RecordAllocation(ctx, payments, nil)
}

func (s *Store) InsertSurplus(_ context.Context, sp *core.Surplus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertSurplusLocked(sp)
	return nil
}

func (s *Store) insertSurplusLocked(sp *core.Surplus) {
	s.nextSurplusID++
	sp.ID = s.nextSurplusID
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = time.Now()
	}
	s.surplus = append(s.surplus, *sp)
}

func (s *Store) RecordAllocation(_ context.Context, payments []core.Payment, sp *core.Surplus) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing: check the whole batch before writing anything.
	covered := make(map[string]bool)
	for _, existing := range s.payments {
		covered[paymentKey(existing.MemberID, existing.SchoolYear, existing.Month)] = true
	}
	for _, p := range payments {
		key := paymentKey(p.MemberID, p.SchoolYear, p.Month)
		if covered[key] {
			return nil, fmt.Errorf("member %d month %d of %s: %w", p.MemberID, p.Month, p.SchoolYear, core.ErrDuplicateMonth)
		}
		covered[key] = true
	}

	out := make([]core.Payment, len(payments))
	for i, p := range payments {
		s.nextPaymentID++
		p.ID = s.nextPaymentID
		if p.PaidAt.IsZero() {
			p.PaidAt = time.Now()
		}
		s.payments[p.ID] = p
		out[i] = p
	}
	if sp != nil {
		s.insertSurplusLocked(sp)
	}
	return out, nil
}

func paymentKey(memberID int64, schoolYear string, month int) string {
	return fmt.Sprintf("%d|%s|%d", memberID, schoolYear, month)
}

func (s *Store) listPayments(filter func(core.Payment) bool) []core.Payment {
	var payments []core.Payment
	for _, p := range s.payments {
		if filter(p) {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].MemberID != payments[j].MemberID {
			return payments[i].MemberID < payments[j].MemberID
		}
		return payments[i].Month < payments[j].Month
	})
	return payments
}

func (s *Store) ListMemberPayments(_ context.Context, memberID int64, schoolYear string) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPayments(func(p core.Payment) bool {
		return p.MemberID == memberID && p.SchoolYear == schoolYear
	}), nil
}

func (s *Store) ListPayments(_ context.Context, schoolYear string) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPayments(func(p core.Payment) bool {
		return p.SchoolYear == schoolYear
	}), nil
}

func (s *Store) ListPaymentsForMonth(_ context.Context, schoolYear string, month int) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPayments(func(p core.Payment) bool {
		return p.SchoolYear == schoolYear && p.Month == month
	}), nil
}

func (s *Store) GetPayment(_ context.Context, id int64) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return core.Payment{}, fmt.Errorf("payment %d: %w", id, core.ErrPaymentNotFound)
	}
	return p, nil
}

func (s *Store) DeletePayment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[id]; !ok {
		return fmt.Errorf("payment %d: %w", id, core.ErrPaymentNotFound)
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) ListSurplus(_ context.Context, memberID int64) ([]core.Surplus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []core.Surplus
	for i := len(s.surplus) - 1; i >= 0; i-- {
		if s.surplus[i].MemberID == memberID {
			records = append(records, s.surplus[i])
		}
	}
	return records, nil
}

func (s *Store) ListAllSurplus(_ context.Context) ([]core.Surplus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]core.Surplus, 0, len(s.surplus))
	for i := len(s.surplus) - 1; i >= 0; i-- {
		records = append(records, s.surplus[i])
	}
	return records, nil
}
