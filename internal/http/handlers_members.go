package http

import (
	"net/http"

	"prispevky/internal/core"
	"prispevky/internal/services"
)

type memberPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (p memberPayload) toMember() core.Member {
	return core.Member{
		FirstName: sanitizeInput(p.FirstName),
		LastName:  sanitizeInput(p.LastName),
		Gender:    core.Gender(sanitizeInput(p.Gender)),
		Email:     sanitizeInput(p.Email),
		Phone:     sanitizeInput(p.Phone),
	}
}

type memberResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IsActive  bool   `json:"is_active"`
}

func toMemberResponse(m core.Member) memberResponse {
	return memberResponse{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Gender:    string(m.Gender),
		Email:     m.Email,
		Phone:     m.Phone,
		IsActive:  m.IsActive,
	}
}

func toMemberResponses(members []core.Member) []memberResponse {
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = toMemberResponse(m)
	}
	return out
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponses(members))
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var payload memberPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Neplatný formát požadavku")
		return
	}

	member, err := s.members.Create(r.Context(), payload.toMember())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}

func (s *Server) handleImportMembers(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Members []memberPayload `json:"members"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Neplatný formát požadavku")
		return
	}
	if len(payload.Members) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "Prázdný seznam členů")
		return
	}

	members := make([]core.Member, len(payload.Members))
	for i, p := range payload.Members {
		members[i] = p.toMember()
	}
	imported, err := s.members.Import(r.Context(), members)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Imported int              `json:"imported"`
		Members  []memberResponse `json:"members"`
	}{Imported: len(imported), Members: toMemberResponses(imported)})
}

func (s *Server) handleDeactivateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Neplatné ID člena")
		return
	}
	if err := s.members.Deactivate(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type memberStatusResponse struct {
	Member       memberResponse    `json:"member"`
	SchoolYear   string            `json:"school_year"`
	State        string            `json:"state"`
	PaidMonths   []int             `json:"paid_months"`
	UnpaidMonths []int             `json:"unpaid_months"`
	PaidCount    int               `json:"paid_count"`
	TotalMonths  int               `json:"total_months"`
	SurplusTotal int64             `json:"surplus_total"`
	Payments     []paymentResponse `json:"payments"`
}

func toMemberStatusResponse(view services.MemberStatusView) memberStatusResponse {
	resp := memberStatusResponse{
		Member:       toMemberResponse(view.Member),
		SchoolYear:   view.SchoolYear,
		State:        view.State.String(),
		PaidMonths:   view.Status.PaidMonths,
		UnpaidMonths: view.Status.UnpaidMonths,
		PaidCount:    view.Status.PaidCount,
		TotalMonths:  view.Status.TotalMonths,
		SurplusTotal: view.SurplusTotal,
		Payments:     toPaymentResponses(view.Payments),
	}
	if resp.PaidMonths == nil {
		resp.PaidMonths = []int{}
	}
	if resp.UnpaidMonths == nil {
		resp.UnpaidMonths = []int{}
	}
	return resp
}

func (s *Server) handleMemberStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Neplatné ID člena")
		return
	}
	view, err := s.ledger.MemberStatus(r.Context(), id, querySchoolYear(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberStatusResponse(view))
}
