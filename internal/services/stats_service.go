package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"prispevky/internal/cache"
	"prispevky/internal/core"
	"prispevky/internal/storage"
)

const statsCacheTTL = 30 * time.Second

// StatsService derives the collection overview from the ledger. The
// overview is cached briefly because clients poll it and the
// underlying numbers only change on a write.
type StatsService struct {
	store      storage.Store
	statsCache *cache.LRUCache[core.ChoirStats]
	now        func() time.Time
}

func NewStatsService(store storage.Store) *StatsService {
	return &StatsService{
		store:      store,
		statsCache: cache.NewLRUCache[core.ChoirStats](8, statsCacheTTL),
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Used in tests.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// Cache exposes the stats cache for cleanup registration.
func (s *StatsService) Cache() *cache.LRUCache[core.ChoirStats] {
	return s.statsCache
}

// Invalidate drops the cached overview for a school year after a write.
func (s *StatsService) Invalidate(schoolYear string) {
	s.statsCache.Delete(schoolYear)
}

// Overview computes the organization-wide stats for a school year. An
// empty schoolYear means the current one. Roster and payments load in
// parallel.
func (s *StatsService) Overview(ctx context.Context, schoolYear string) (core.ChoirStats, error) {
	if schoolYear == "" {
		schoolYear = core.SchoolYear(s.now())
	} else if err := core.ValidateSchoolYear(schoolYear); err != nil {
		return core.ChoirStats{}, err
	}

	if stats, ok := s.statsCache.Get(schoolYear); ok {
		return stats, nil
	}

	var (
		members  []core.Member
		payments []core.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.store.ListActiveMembers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.store.ListPayments(gctx, schoolYear)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.ChoirStats{}, fmt.Errorf("load stats inputs: %w", err)
	}

	stats := core.ComputeChoirStats(schoolYear, members, payments)
	s.statsCache.Set(schoolYear, stats)
	return stats, nil
}

// UnpaidThisMonth lists the active members who have not paid the
// current calendar month. In July and August the list is empty.
func (s *StatsService) UnpaidThisMonth(ctx context.Context) ([]core.Member, error) {
	now := s.now()
	if !core.IsSchoolMonth(int(now.Month())) {
		return []core.Member{}, nil
	}
	schoolYear := core.SchoolYear(now)

	var (
		members  []core.Member
		payments []core.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.store.ListActiveMembers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.store.ListPaymentsForMonth(gctx, schoolYear, int(now.Month()))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load unpaid inputs: %w", err)
	}

	return core.UnpaidForMonth(now, members, payments), nil
}
