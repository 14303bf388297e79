package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"prispevky/internal/core"
	"prispevky/internal/export"
	"prispevky/internal/services"
	"prispevky/internal/storage/memory"
)

var testClock = func() time.Time {
	return time.Date(2025, time.October, 15, 10, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	members := services.NewMemberService(store, nil)
	ledger := services.NewLedgerService(store, nil).WithClock(testClock)
	stats := services.NewStatsService(store).WithClock(testClock)
	exporter := export.NewCSVExporter(store)
	srv := NewServer(":0", members, ledger, stats, exporter)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createMemberViaAPI(t *testing.T, srv *Server, first, last string) memberResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/members", map[string]string{
		"first_name": first,
		"last_name":  last,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create member: status %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[memberResponse](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("/readyz status = %d", rec.Code)
	}

	srv.SetReadyCheck(func(context.Context) error { return errors.New("db gone") })
	rec = doJSON(t, srv, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz with failing check status = %d", rec.Code)
	}
}

func TestCreateAndListMembers(t *testing.T) {
	srv, _ := newTestServer(t)

	m := createMemberViaAPI(t, srv, "Anna", "Nováková")
	if m.ID == 0 || !m.IsActive {
		t.Fatalf("unexpected member %+v", m)
	}
	if m.Gender != "female" {
		t.Errorf("gender not detected, got %q", m.Gender)
	}

	createMemberViaAPI(t, srv, "Jan", "Dvořák")

	rec := doJSON(t, srv, http.MethodGet, "/api/members", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	members := decodeBody[[]memberResponse](t, rec)
	if len(members) != 2 || members[0].LastName != "Dvořák" {
		t.Fatalf("unexpected roster %v", members)
	}
}

func TestCreateMemberValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/members", map[string]string{
		"first_name": "",
		"last_name":  "Nováková",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty first name status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader("not json"))
	rec2 := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec2.Code)
	}
}

func TestImportMembers(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/members/import", map[string]any{
		"members": []map[string]string{
			{"first_name": "Anna", "last_name": "Nováková"},
			{"first_name": "Jan", "last_name": "Dvořák"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[struct {
		Imported int              `json:"imported"`
		Members  []memberResponse `json:"members"`
	}](t, rec)
	if resp.Imported != 2 {
		t.Fatalf("imported = %d", resp.Imported)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/members/import", map[string]any{"members": []any{}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty import status = %d", rec.Code)
	}
}

func TestDeactivateMember(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")

	rec := doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/members/%d", m.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/members/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown member status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/members/zero", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}

func TestAllocatePayment(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")

	rec := doJSON(t, srv, http.MethodPost, "/api/payments/allocate", map[string]any{
		"member_id": m.ID,
		"amount":    250,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("allocate status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[allocationResponse](t, rec)
	if resp.SchoolYear != "2025/26" {
		t.Errorf("school year = %q", resp.SchoolYear)
	}
	if len(resp.Months) != 2 || resp.Months[0] != 9 || resp.Months[1] != 10 {
		t.Errorf("months = %v", resp.Months)
	}
	if resp.Surplus == nil || resp.Surplus.Amount != 50 {
		t.Errorf("surplus = %+v", resp.Surplus)
	}
}

func TestAllocateStringAmount(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")

	rec := doJSON(t, srv, http.MethodPost, "/api/payments/allocate", map[string]any{
		"member_id": m.ID,
		"amount":    "1 000 Kč",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("allocate status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[allocationResponse](t, rec)
	if len(resp.Months) != 10 || resp.Surplus != nil {
		t.Errorf("expected full year, got months=%v surplus=%+v", resp.Months, resp.Surplus)
	}
}

func TestAllocateErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"zero amount", map[string]any{"member_id": m.ID, "amount": 0}, http.StatusUnprocessableEntity},
		{"negative amount", map[string]any{"member_id": m.ID, "amount": -100}, http.StatusUnprocessableEntity},
		{"unknown member", map[string]any{"member_id": 999, "amount": 100}, http.StatusNotFound},
		{"bad school year", map[string]any{"member_id": m.ID, "amount": 100, "school_year": "25/26"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/payments/allocate", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestPayMonthAndConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")

	body := map[string]any{"member_id": m.ID, "month": 12}
	rec := doJSON(t, srv, http.MethodPost, "/api/payments/month", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("pay month status = %d, body %s", rec.Code, rec.Body.String())
	}
	p := decodeBody[paymentResponse](t, rec)
	if p.Month != 12 || p.Amount != core.MonthlyFee || p.MonthName != "Prosinec" {
		t.Errorf("unexpected payment %+v", p)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/payments/month", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate month status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/payments/month", map[string]any{"member_id": m.ID, "month": 8})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("vacation month status = %d", rec.Code)
	}
}

func TestUndoPayment(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")

	rec := doJSON(t, srv, http.MethodPost, "/api/payments/month", map[string]any{"member_id": m.ID, "month": 9})
	p := decodeBody[paymentResponse](t, rec)

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/payments/%d", p.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("undo status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/payments/%d", p.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second undo status = %d", rec.Code)
	}
}

func TestMemberStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")

	doJSON(t, srv, http.MethodPost, "/api/payments/allocate", map[string]any{
		"member_id": m.ID,
		"amount":    250,
	})

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/members/%d/status", m.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	status := decodeBody[memberStatusResponse](t, rec)
	if status.PaidCount != 2 || status.State != "partial" {
		t.Errorf("unexpected status %+v", status)
	}
	if status.SurplusTotal != 50 {
		t.Errorf("surplus_total = %d", status.SurplusTotal)
	}
	if len(status.UnpaidMonths) != 8 {
		t.Errorf("unpaid_months = %v", status.UnpaidMonths)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	a := createMemberViaAPI(t, srv, "Anna", "Nováková")
	createMemberViaAPI(t, srv, "Jan", "Dvořák")

	doJSON(t, srv, http.MethodPost, "/api/payments/allocate", map[string]any{
		"member_id": a.ID,
		"amount":    1000,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	stats := decodeBody[statsResponse](t, rec)
	if stats.TotalMembers != 2 || stats.FullyPaidMembers != 1 || stats.UnpaidMembers != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.TotalCollected != 1000 || stats.TotalExpected != 2000 || stats.PercentCollected != 50 {
		t.Errorf("unexpected totals %+v", stats)
	}
}

func TestStatsInvalidatedAfterWrite(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")

	rec := doJSON(t, srv, http.MethodGet, "/api/stats", nil)
	if before := decodeBody[statsResponse](t, rec); before.TotalCollected != 0 {
		t.Fatalf("fresh ledger collected = %d", before.TotalCollected)
	}

	doJSON(t, srv, http.MethodPost, "/api/payments/allocate", map[string]any{
		"member_id": m.ID,
		"amount":    300,
	})

	rec = doJSON(t, srv, http.MethodGet, "/api/stats", nil)
	if after := decodeBody[statsResponse](t, rec); after.TotalCollected != 300 {
		t.Errorf("stats not invalidated, collected = %d", after.TotalCollected)
	}
}

func TestUnpaidEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	paid := createMemberViaAPI(t, srv, "Anna", "Nováková")
	owing := createMemberViaAPI(t, srv, "Jan", "Dvořák")

	// Covers September and October; October is the current month.
	doJSON(t, srv, http.MethodPost, "/api/payments/allocate", map[string]any{
		"member_id": paid.ID,
		"amount":    200,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/stats/unpaid", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unpaid status = %d", rec.Code)
	}
	resp := decodeBody[struct {
		Count   int              `json:"count"`
		Members []memberResponse `json:"members"`
	}](t, rec)
	if resp.Count != 1 || resp.Members[0].ID != owing.ID {
		t.Errorf("unexpected unpaid %+v", resp)
	}
}

func TestExportCSVEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	m := createMemberViaAPI(t, srv, "Anna", "Nováková")
	doJSON(t, srv, http.MethodPost, "/api/payments/allocate", map[string]any{
		"member_id": m.ID,
		"amount":    200,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/export/csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "prispevky_2025-26.csv") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Nováková") {
		t.Error("export body missing member row")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/export/csv?year=bogus99", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad year export status = %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPut, "/api/members", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
