// Package export renders the payment matrix for download.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"prispevky/internal/core"
	"prispevky/internal/storage"
)

// paidMark is what a covered month looks like in the matrix.
const paidMark = "✓"

// utf8BOM keeps the Czech diacritics intact when the file lands in
// Excel, which assumes a legacy code page without it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter writes the whole ledger of one school year as a
// semicolon-separated matrix, one row per active member.
type CSVExporter struct {
	store storage.Store
}

func NewCSVExporter(store storage.Store) *CSVExporter {
	return &CSVExporter{store: store}
}

// Filename returns the download name for a school year, with the slash
// replaced so it survives as a filesystem name.
func Filename(schoolYear string) string {
	return fmt.Sprintf("prispevky_%s.csv", strings.ReplaceAll(schoolYear, "/", "-"))
}

// WriteYear writes the matrix for one school year to w. Columns are the
// member name, gender, one column per school-year month, the collected
// total and the accumulated surplus.
func (e *CSVExporter) WriteYear(ctx context.Context, w io.Writer, schoolYear string) error {
	if err := core.ValidateSchoolYear(schoolYear); err != nil {
		return err
	}

	var (
		members  []core.Member
		payments []core.Payment
		surplus  []core.Surplus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = e.store.ListActiveMembers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = e.store.ListPayments(gctx, schoolYear)
		return err
	})
	g.Go(func() error {
		var err error
		surplus, err = e.store.ListAllSurplus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load export data: %w", err)
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	months := core.SchoolYearMonths()
	header := []string{"Jméno", "Příjmení", "Pohlaví"}
	for _, m := range months {
		header = append(header, core.MonthNameShort(m))
	}
	header = append(header, "Celkem", "Přebytek")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	paidByMember := make(map[int64]map[int]bool)
	totalByMember := make(map[int64]int64)
	for _, p := range payments {
		if paidByMember[p.MemberID] == nil {
			paidByMember[p.MemberID] = make(map[int]bool)
		}
		paidByMember[p.MemberID][p.Month] = true
		totalByMember[p.MemberID] += p.Amount
	}
	surplusByMember := make(map[int64]int64)
	for _, sp := range surplus {
		surplusByMember[sp.MemberID] += sp.Amount
	}

	for _, member := range members {
		row := []string{member.FirstName, member.LastName, core.MemberLabel(member.Gender)}
		for _, m := range months {
			if paidByMember[member.ID][m] {
				row = append(row, paidMark)
			} else {
				row = append(row, "")
			}
		}
		row = append(row,
			core.FormatAmount(totalByMember[member.ID]),
			core.FormatAmount(surplusByMember[member.ID]),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", member.FullName(), err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
