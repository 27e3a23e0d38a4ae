package handlers

import (
	"net/http"
	"time"

	"github.com/campuslend/lendhub/internal/models"
	"github.com/campuslend/lendhub/internal/repo"
)

// LogHandler serves transaction log reporting (super only). The log
// itself is append-only; this is read-only access for reconciliation and
// review.
type LogHandler struct {
	Repo *repo.AuditRepo
}

// List returns request-lifecycle log entries for the given period, newest
// first. Query: period=weekly (default) | monthly | yearly.
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	var from time.Time

	switch r.URL.Query().Get("period") {
	case "yearly":
		from = now.AddDate(-1, 0, 0)
	case "monthly":
		from = now.AddDate(0, -1, 0)
	default:
		from = now.AddDate(0, 0, -7)
	}

	entries, err := h.Repo.ListSince(r.Context(), from, models.RequestLogTypes)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
