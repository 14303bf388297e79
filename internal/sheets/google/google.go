// Package google writes the payment matrix to a Google Sheet through a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"prispevky/internal/core"
	"prispevky/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// sheetBase is the sheet name without the year, e.g. "Příspěvky";
	// the school year label is appended per sheet.
	sheetBase string
}

// Ensure interface conformance
var _ sheets.MatrixWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from the environment.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Příspěvky").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "Příspěvky"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// sheetName returns the per-year sheet tab name, e.g. "Příspěvky 2025-26".
func (c *Client) sheetName(schoolYear string) string {
	return fmt.Sprintf("%s %s", c.sheetBase, strings.ReplaceAll(schoolYear, "/", "-"))
}

// WriteMatrix replaces the whole matrix for one school year. The range
// is cleared first so removed members do not leave stale rows behind.
func (c *Client) WriteMatrix(ctx context.Context, schoolYear string, rows []sheets.Row) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := core.ValidateSchoolYear(schoolYear); err != nil {
		return err
	}

	sheet := c.sheetName(schoolYear)
	months := core.SchoolYearMonths()

	header := []any{"Jméno", "Příjmení"}
	for _, m := range months {
		header = append(header, core.MonthNameShort(m))
	}
	header = append(header, "Celkem", "Přebytek")

	values := [][]any{header}
	for _, row := range rows {
		paid := make(map[int]bool, len(row.PaidMonths))
		for _, m := range row.PaidMonths {
			paid[m] = true
		}
		line := []any{row.Member.FirstName, row.Member.LastName}
		for _, m := range months {
			if paid[m] {
				line = append(line, "✓")
			} else {
				line = append(line, "")
			}
		}
		line = append(line, row.Total, row.Surplus)
		values = append(values, line)
	}

	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	writeRange := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write matrix to %s: %w", sheet, err)
	}

	slog.InfoContext(ctx, "Payment matrix written",
		"sheet", sheet,
		"rows", len(rows))
	return nil
}
