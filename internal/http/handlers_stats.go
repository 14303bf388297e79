package http

import (
	"log/slog"
	"net/http"

	"prispevky/internal/core"
	"prispevky/internal/export"
)

type statsResponse struct {
	SchoolYear           string  `json:"school_year"`
	TotalMembers         int     `json:"total_members"`
	TotalCollected       int64   `json:"total_collected"`
	TotalRemaining       int64   `json:"total_remaining"`
	TotalExpected        int64   `json:"total_expected"`
	PercentCollected     float64 `json:"percent_collected"`
	FullyPaidMembers     int     `json:"fully_paid_members"`
	PartiallyPaidMembers int     `json:"partially_paid_members"`
	UnpaidMembers        int     `json:"unpaid_members"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	overview, err := s.stats.Overview(r.Context(), querySchoolYear(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		SchoolYear:           overview.SchoolYear,
		TotalMembers:         overview.TotalMembers,
		TotalCollected:       overview.TotalCollected,
		TotalRemaining:       overview.TotalRemaining,
		TotalExpected:        overview.TotalExpected,
		PercentCollected:     overview.PercentCollected,
		FullyPaidMembers:     overview.FullyPaidMembers,
		PartiallyPaidMembers: overview.PartiallyPaidMembers,
		UnpaidMembers:        overview.UnpaidMembers,
	})
}

func (s *Server) handleUnpaid(w http.ResponseWriter, r *http.Request) {
	members, err := s.stats.UnpaidThisMonth(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Count   int              `json:"count"`
		Members []memberResponse `json:"members"`
	}{Count: len(members), Members: toMemberResponses(members)})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	schoolYear := querySchoolYear(r)
	if schoolYear == "" {
		schoolYear = s.ledger.CurrentSchoolYear()
	}
	if err := core.ValidateSchoolYear(schoolYear); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(schoolYear)+`"`)
	if err := s.exporter.WriteYear(r.Context(), w, schoolYear); err != nil {
		// Headers are out by now; all that is left is logging.
		slog.ErrorContext(r.Context(), "CSV export failed",
			"school_year", schoolYear,
			"error", err)
	}
}
