package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/campuslend/lendhub/internal/lifecycle"
	"github.com/campuslend/lendhub/internal/middleware"
	"github.com/campuslend/lendhub/internal/models"
	"github.com/campuslend/lendhub/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// RequestHandler exposes the request lifecycle: public submission plus the
// staff-only transitions. All state changes go through the engine; the
// handler only translates HTTP to engine calls and back.
type RequestHandler struct {
	Engine *lifecycle.Engine
	Repo   *repo.RequestRepo
}

// auditWarning is included in success responses whose transaction log
// entry failed to persist (the mutation itself committed).
const auditWarning = "transaction log entry was not persisted"

//
// ==========================
// Submit Request (public)
// ==========================
//

func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ItemID        int    `json:"item_id" validate:"required,gt=0"`
		CollegeID     string `json:"college_id" validate:"required,max=64"`
		RequesterName string `json:"requester_name" validate:"required,min=2,max=255"`
		ClassName     string `json:"class_name" validate:"required,max=255"`
		Phone         string `json:"phone" validate:"required,max=32"`
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

	req, err := h.Engine.Submit(r.Context(), input.ItemID, models.Requester{
		CollegeID: input.CollegeID,
		Name:      input.RequesterName,
		ClassName: input.ClassName,
		Phone:     input.Phone,
	})
	if errors.Is(err, lifecycle.ErrAuditWriteFailed) {
		writeJSON(w, http.StatusCreated, map[string]any{"request": req, "warning": auditWarning})
		return
	}
	if err != nil {
		lifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

//
// ==========================
// List Requests (staff)
// ==========================
//

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Repo.List(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

//
// ==========================
// Transitions (staff)
// ==========================
//

func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Approve)
}

func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Reject)
}

func (h *RequestHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Return)
}

type transitionFunc func(ctx context.Context, requestID int, actor models.Actor) (models.Request, error)

func (h *RequestHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid request id", http.StatusBadRequest)
		return
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	req, err := fn(r.Context(), id, actor)
	if errors.Is(err, lifecycle.ErrAuditWriteFailed) {
		writeJSON(w, http.StatusOK, map[string]any{"request": req, "warning": auditWarning})
		return
	}
	if err != nil {
		lifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}
