package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prispevky/internal/core"

	_ "modernc.org/sqlite"
)

// Ensure SQLiteRepository implements Store.
var _ Store = (*SQLiteRepository)(nil)

// SQLiteRepository implements Store on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath
// and runs migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation recognizes the SQLite uniqueness constraint error
// on (member_id, school_year, month). The driver exposes it only as a
// message, so this matches the documented error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *SQLiteRepository) CreateMember(ctx context.Context, m *core.Member) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (first_name, last_name, gender, email, phone, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		m.FirstName, m.LastName, string(m.Gender), m.Email, m.Phone, now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("member insert id: %w", err)
	}
	m.ID = id
	m.IsActive = true
	m.CreatedAt = now
	m.UpdatedAt = now

	slog.InfoContext(ctx, "Member created", "id", m.ID, "name", m.FullName())
	return nil
}

func (r *SQLiteRepository) ImportMembers(ctx context.Context, members []core.Member) ([]core.Member, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	out := make([]core.Member, len(members))
	for i, m := range members {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO members (first_name, last_name, gender, email, phone, is_active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			m.FirstName, m.LastName, string(m.Gender), m.Email, m.Phone, now.Unix(), now.Unix(),
		)
		if err != nil {
			return nil, fmt.Errorf("import member %q: %w", m.FullName(), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("import member id: %w", err)
		}
		m.ID = id
		m.IsActive = true
		m.CreatedAt = now
		m.UpdatedAt = now
		out[i] = m
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	slog.InfoContext(ctx, "Members imported", "count", len(out))
	return out, nil
}

const memberColumns = "id, first_name, last_name, gender, email, phone, is_active, created_at, updated_at"

func scanMember(row interface{ Scan(...any) error }) (core.Member, error) {
	var (
		m                  core.Member
		gender             string
		email, phone       sql.NullString
		created, updated   int64
	)
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &gender, &email, &phone, &m.IsActive, &created, &updated)
	if err != nil {
		return core.Member{}, err
	}
	m.Gender = core.Gender(gender)
	m.Email = email.String
	m.Phone = phone.String
	m.CreatedAt = time.Unix(created, 0)
	m.UpdatedAt = time.Unix(updated, 0)
	return m, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id int64) (core.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, fmt.Errorf("member %d: %w", id, core.ErrMemberNotFound)
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListActiveMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE is_active = 1 ORDER BY last_name, first_name")
	if err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (r *SQLiteRepository) DeactivateMember(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE members SET is_active = 0, updated_at = ? WHERE id = ?",
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate member rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("member %d: %w", id, core.ErrMemberNotFound)
	}
	slog.InfoContext(ctx, "Member deactivated", "id", id)
	return nil
}

func insertPaymentTx(ctx context.Context, tx *sql.Tx, p *core.Payment) error {
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (member_id, school_year, month, amount, paid_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.MemberID, p.SchoolYear, p.Month, p.Amount, p.PaidAt.Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("member %d month %d of %s: %w", p.MemberID, p.Month, p.SchoolYear, core.ErrDuplicateMonth)
	}
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("payment insert id: %w", err)
	}
	p.ID = id
	return nil
}

func insertSurplusTx(ctx context.Context, tx *sql.Tx, s *core.Surplus) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO surplus (member_id, amount, note, created_at) VALUES (?, ?, ?, ?)",
		s.MemberID, s.Amount, s.Note, s.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert surplus: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("surplus insert id: %w", err)
	}
	s.ID = id
	return nil
}

func (r *SQLiteRepository) InsertPayments(ctx context.Context, payments []core.Payment) ([]core.Payment, error) {
	return r.RecordAllocation(ctx, payments, nil)
}

func (r *SQLiteRepository) InsertSurplus(ctx context.Context, s *core.Surplus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin surplus insert: %w", err)
	}
	defer tx.Rollback()

	if err := insertSurplusTx(ctx, tx, s); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit surplus insert: %w", err)
	}
	return nil
}

// RecordAllocation commits the payments and the optional surplus of one
// allocation in a single transaction. A duplicate month anywhere in the
// batch rolls everything back, so a racing allocation for the same
// member never leaves a half-written ledger.
func (r *SQLiteRepository) RecordAllocation(ctx context.Context, payments []core.Payment, surplus *core.Surplus) ([]core.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin allocation: %w", err)
	}
	defer tx.Rollback()

	out := make([]core.Payment, len(payments))
	for i := range payments {
		p := payments[i]
		if err := insertPaymentTx(ctx, tx, &p); err != nil {
			return nil, err
		}
		out[i] = p
	}
	if surplus != nil {
		if err := insertSurplusTx(ctx, tx, surplus); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit allocation: %w", err)
	}
	return out, nil
}

const paymentColumns = "id, member_id, school_year, month, amount, paid_at"

func scanPayment(row interface{ Scan(...any) error }) (core.Payment, error) {
	var (
		p      core.Payment
		paidAt int64
	)
	if err := row.Scan(&p.ID, &p.MemberID, &p.SchoolYear, &p.Month, &p.Amount, &paidAt); err != nil {
		return core.Payment{}, err
	}
	p.PaidAt = time.Unix(paidAt, 0)
	return p, nil
}

func (r *SQLiteRepository) queryPayments(ctx context.Context, query string, args ...any) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *SQLiteRepository) ListMemberPayments(ctx context.Context, memberID int64, schoolYear string) ([]core.Payment, error) {
	payments, err := r.queryPayments(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE member_id = ? AND school_year = ? ORDER BY month",
		memberID, schoolYear)
	if err != nil {
		return nil, fmt.Errorf("list member payments: %w", err)
	}
	return payments, nil
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, schoolYear string) ([]core.Payment, error) {
	payments, err := r.queryPayments(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE school_year = ?", schoolYear)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (r *SQLiteRepository) ListPaymentsForMonth(ctx context.Context, schoolYear string, month int) ([]core.Payment, error) {
	payments, err := r.queryPayments(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE school_year = ? AND month = ?",
		schoolYear, month)
	if err != nil {
		return nil, fmt.Errorf("list month payments: %w", err)
	}
	return payments, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id = ?", id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, fmt.Errorf("payment %d: %w", id, core.ErrPaymentNotFound)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete payment rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("payment %d: %w", id, core.ErrPaymentNotFound)
	}
	slog.InfoContext(ctx, "Payment deleted", "id", id)
	return nil
}

const surplusColumns = "id, member_id, amount, note, created_at"

func (r *SQLiteRepository) querySurplus(ctx context.Context, query string, args ...any) ([]core.Surplus, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []core.Surplus
	for rows.Next() {
		var (
			s       core.Surplus
			note    sql.NullString
			created int64
		)
		if err := rows.Scan(&s.ID, &s.MemberID, &s.Amount, &note, &created); err != nil {
			return nil, err
		}
		s.Note = note.String
		s.CreatedAt = time.Unix(created, 0)
		records = append(records, s)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) ListSurplus(ctx context.Context, memberID int64) ([]core.Surplus, error) {
	records, err := r.querySurplus(ctx,
		"SELECT "+surplusColumns+" FROM surplus WHERE member_id = ? ORDER BY created_at DESC, id DESC",
		memberID)
	if err != nil {
		return nil, fmt.Errorf("list surplus: %w", err)
	}
	return records, nil
}

func (r *SQLiteRepository) ListAllSurplus(ctx context.Context) ([]core.Surplus, error) {
	records, err := r.querySurplus(ctx,
		"SELECT "+surplusColumns+" FROM surplus ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list all surplus: %w", err)
	}
	return records, nil
}
