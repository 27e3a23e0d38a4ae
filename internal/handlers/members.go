package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/campuslend/lendhub/internal/metrics"
	"github.com/campuslend/lendhub/internal/models"
	"github.com/campuslend/lendhub/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// MemberHandler manages staff member accounts (super only). Member
// approval is audited like any other data-changing event.
type MemberHandler struct {
	UserRepo *repo.UserRepo
	Audit    *repo.AuditRepo
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.UserRepo.ListMembers(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name" validate:"required,min=2,max=255"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Approved bool   `json:"approved"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	member, err := h.UserRepo.Create(r.Context(), input.Name, input.Email, string(hash), models.RoleMember, input.Approved)
	if err != nil {
		if e, ok := err.(*pq.Error); ok && e.Code == "23505" {
			JSONError(w, "email already used", http.StatusBadRequest)
			return
		}
		slog.Error("create member failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	// A member created pre-approved is audited the same way as a later
	// explicit approval.
	if member.Approved {
		h.logApproval(r, member.ID)
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": member.ID, "email": member.Email})
}

func (h *MemberHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid member id", http.StatusBadRequest)
		return
	}

	approved, err := h.UserRepo.Approve(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !approved {
		JSONError(w, "member not found", http.StatusNotFound)
		return
	}

	h.logApproval(r, id)

	writeJSON(w, http.StatusOK, map[string]string{"message": "member approved"})
}

func (h *MemberHandler) logApproval(r *http.Request, memberID int) {
	// The entry's user is the approved member; the transaction log does
	// not distinguish which super performed the approval.
	entry := models.TransactionLogEntry{
		Type:      models.TypeMemberApproved,
		UserID:    &memberID,
		Timestamp: time.Now(),
	}
	if err := h.Audit.Append(r.Context(), entry); err != nil {
		metrics.IncAuditWriteFailure(entry.Type)
		slog.Error("transaction log write failed",
			"type", entry.Type,
			"member_id", memberID,
			"error", err)
	}
}
