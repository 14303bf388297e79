package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"prispevky/internal/core"
)

// amountField accepts the amount both as a JSON number and as a string
// with the formats the treasurer types ("300", "1 000 Kč").
type amountField int64

func (a *amountField) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := core.ParseAmount(str)
		if err != nil {
			return err
		}
		*a = amountField(v)
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return core.ErrInvalidAmount
	}
	*a = amountField(v)
	return nil
}

type paymentResponse struct {
	ID         int64  `json:"id"`
	MemberID   int64  `json:"member_id"`
	SchoolYear string `json:"school_year"`
	Month      int    `json:"month"`
	MonthName  string `json:"month_name"`
	Amount     int64  `json:"amount"`
	PaidAt     string `json:"paid_at"`
}

func toPaymentResponse(p core.Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		MemberID:   p.MemberID,
		SchoolYear: p.SchoolYear,
		Month:      p.Month,
		MonthName:  core.MonthName(p.Month),
		Amount:     p.Amount,
		PaidAt:     p.PaidAt.Format(time.RFC3339),
	}
}

func toPaymentResponses(payments []core.Payment) []paymentResponse {
	out := make([]paymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	return out
}

type surplusResponse struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

type allocationResponse struct {
	MemberID   int64             `json:"member_id"`
	SchoolYear string            `json:"school_year"`
	Amount     int64             `json:"amount"`
	Months     []int             `json:"months"`
	Payments   []paymentResponse `json:"payments"`
	Surplus    *surplusResponse  `json:"surplus"`
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MemberID   int64       `json:"member_id"`
		Amount     amountField `json:"amount"`
		SchoolYear string      `json:"school_year"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Neplatný formát požadavku")
		return
	}

	result, err := s.ledger.Allocate(r.Context(), payload.MemberID, int64(payload.Amount), payload.SchoolYear)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.stats.Invalidate(result.SchoolYear)

	resp := allocationResponse{
		MemberID:   result.Member.ID,
		SchoolYear: result.SchoolYear,
		Amount:     result.Amount,
		Months:     make([]int, len(result.Payments)),
		Payments:   toPaymentResponses(result.Payments),
	}
	for i, p := range result.Payments {
		resp.Months[i] = p.Month
	}
	if result.Surplus != nil {
		resp.Surplus = &surplusResponse{Amount: result.Surplus.Amount, Note: result.Surplus.Note}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePayMonth(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MemberID   int64  `json:"member_id"`
		Month      int    `json:"month"`
		SchoolYear string `json:"school_year"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Neplatný formát požadavku")
		return
	}

	payment, err := s.ledger.PayMonth(r.Context(), payload.MemberID, payload.Month, payload.SchoolYear)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.stats.Invalidate(payment.SchoolYear)
	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (s *Server) handleUndoPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Neplatné ID platby")
		return
	}
	payment, err := s.ledger.UndoPayment(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.stats.Invalidate(payment.SchoolYear)
	w.WriteHeader(http.StatusNoContent)
}
