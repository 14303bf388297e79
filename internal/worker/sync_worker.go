// Package worker mirrors the dues ledger to a Google Sheet. The choir
// committee reads the spreadsheet; the database stays the source of
// truth.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prispevky/internal/amqp"
	"prispevky/internal/core"
	"prispevky/internal/sheets"
	"prispevky/internal/storage"
)

// SyncWorker consumes ledger events and rewrites the payment matrix of
// the affected school year. Every event triggers a full rewrite, so a
// lost or duplicated event never leaves the sheet out of step for long.
type SyncWorker struct {
	store  storage.Store
	writer sheets.MatrixWriter
	now    func() time.Time
}

func NewSyncWorker(store storage.Store, writer sheets.MatrixWriter) *SyncWorker {
	return &SyncWorker{
		store:  store,
		writer: writer,
		now:    time.Now,
	}
}

// WithClock overrides the worker clock. Used in tests.
func (w *SyncWorker) WithClock(now func() time.Time) *SyncWorker {
	w.now = now
	return w
}

// HandleLedgerEvent processes one event from the queue. Events without
// a school year (roster changes) refresh the current school year.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	schoolYear := msg.SchoolYear
	if schoolYear == "" {
		schoolYear = core.SchoolYear(w.now())
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"type", msg.Type,
		"member_id", msg.MemberID,
		"school_year", schoolYear)

	if err := w.SyncYear(ctx, schoolYear); err != nil {
		return fmt.Errorf("sync school year %s: %w", schoolYear, err)
	}
	return nil
}

// SyncYear rebuilds the matrix of one school year from the database and
// pushes it to the spreadsheet.
func (w *SyncWorker) SyncYear(ctx context.Context, schoolYear string) error {
	rows, err := w.BuildMatrix(ctx, schoolYear)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMatrix(ctx, schoolYear, rows); err != nil {
		return fmt.Errorf("write matrix: %w", err)
	}
	slog.InfoContext(ctx, "School year synced",
		"school_year", schoolYear,
		"members", len(rows))
	return nil
}

// BuildMatrix derives the per-member rows of one school year.
func (w *SyncWorker) BuildMatrix(ctx context.Context, schoolYear string) ([]sheets.Row, error) {
	if err := core.ValidateSchoolYear(schoolYear); err != nil {
		return nil, err
	}
	members, err := w.store.ListActiveMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	payments, err := w.store.ListPayments(ctx, schoolYear)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	surplus, err := w.store.ListAllSurplus(ctx)
	if err != nil {
		return nil, fmt.Errorf("list surplus: %w", err)
	}

	paidByMember := make(map[int64][]core.Payment)
	for _, p := range payments {
		paidByMember[p.MemberID] = append(paidByMember[p.MemberID], p)
	}
	surplusByMember := make(map[int64]int64)
	for _, sp := range surplus {
		surplusByMember[sp.MemberID] += sp.Amount
	}

	rows := make([]sheets.Row, 0, len(members))
	for _, m := range members {
		status := core.StatusFromPayments(paidByMember[m.ID])
		var total int64
		for _, p := range paidByMember[m.ID] {
			total += p.Amount
		}
		rows = append(rows, sheets.Row{
			Member:     m,
			PaidMonths: status.PaidMonths,
			Total:      total,
			Surplus:    surplusByMember[m.ID],
		})
	}
	return rows, nil
}

// StartupSync pushes the current school year once at worker startup to
// recover from events missed while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	schoolYear := core.SchoolYear(w.now())
	slog.InfoContext(ctx, "Startup sync", "school_year", schoolYear)
	return w.SyncYear(ctx, schoolYear)
}
