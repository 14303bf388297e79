// Package sheets defines the outbound spreadsheet port the sync worker
// writes the payment matrix through.
package sheets

import (
	"context"

	"prispevky/internal/core"
)

// Row is one member's line in the spreadsheet matrix.
type Row struct {
	Member     core.Member
	PaidMonths []int
	Total      int64
	Surplus    int64
}

// MatrixWriter replaces the whole matrix of one school year. The worker
// always writes the full matrix, so redelivered or reordered events
// converge to the same sheet.
type MatrixWriter interface {
	WriteMatrix(ctx context.Context, schoolYear string, rows []Row) error
}
