package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/campuslend/lendhub/internal/metrics"
	"github.com/campuslend/lendhub/internal/middleware"
	"github.com/campuslend/lendhub/internal/models"
	"github.com/campuslend/lendhub/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// DefaultItemImage is used when a new item is created without an image reference.
const DefaultItemImage = "https://via.placeholder.com/300x200?text=Item"

// ItemHandler serves item CRUD. These are plain field updates with no
// cross-entity invariant; stock-changing transitions never come through
// here. Every mutation still appends its own transaction log entry.
type ItemHandler struct {
	Repo  *repo.ItemRepo
	Audit *repo.AuditRepo
}

type itemInput struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=1000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=1000"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

//
// ==========================
// List Items (public, active only)
// ==========================
//

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.ListActive(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

//
// ==========================
// Get Item By ID
// ==========================
//

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		JSONError(w, "invalid item id", http.StatusBadRequest)
		return
	}

	item, err := h.Repo.GetByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

//
// ==========================
// Create Item (super)
// ==========================
//

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input itemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.ImageURL == "" {
		input.ImageURL = DefaultItemImage
	}

	item, err := h.Repo.Create(r.Context(), input.Name, input.Description, input.ImageURL, input.Quantity)
	if err != nil {
		JSONError(w, "failed to create item", http.StatusInternalServerError)
		return
	}

	h.logMutation(r, w, http.StatusCreated, item, models.TransactionLogEntry{
		Type:   models.TypeItemAdded,
		ItemID: &item.ID,
	})
}

//
// ==========================
// Update Item (super)
// ==========================
//

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		JSONError(w, "invalid item id", http.StatusBadRequest)
		return
	}

	var input itemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Repo.UpdateByID(r.Context(), id, input.Name, input.Description, input.ImageURL, input.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, "failed to update item", http.StatusInternalServerError)
		return
	}

	h.logMutation(r, w, http.StatusOK, item, models.TransactionLogEntry{
		Type:   models.TypeItemUpdated,
		ItemID: &item.ID,
		Meta: map[string]any{
			"name":        input.Name,
			"description": input.Description,
			"quantity":    input.Quantity,
		},
	})
}

//
// ==========================
// Delete Item (super, soft)
// ==========================
//

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		JSONError(w, "invalid item id", http.StatusBadRequest)
		return
	}

	item, err := h.Repo.SoftDelete(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, "failed to delete item", http.StatusInternalServerError)
		return
	}

	h.logMutation(r, w, http.StatusOK, map[string]string{"message": "item deleted"}, models.TransactionLogEntry{
		Type:   models.TypeItemDeleted,
		ItemID: &item.ID,
		Meta:   map[string]any{"name": item.Name},
	})
}

// logMutation appends the transaction log entry for a committed item
// mutation and writes the success response. A failed append does not undo
// the mutation; the response carries a warning instead.
func (h *ItemHandler) logMutation(r *http.Request, w http.ResponseWriter, status int, body any, entry models.TransactionLogEntry) {
	if actor, ok := middleware.ActorFrom(r.Context()); ok {
		entry.UserID = &actor.ID
	}
	entry.Timestamp = time.Now()

	if err := h.Audit.Append(r.Context(), entry); err != nil {
		metrics.IncAuditWriteFailure(entry.Type)
		slog.Error("transaction log write failed",
			"type", entry.Type,
			"item_id", entry.ItemID,
			"error", err)
		writeJSON(w, status, map[string]any{"result": body, "warning": auditWarning})
		return
	}

	writeJSON(w, status, body)
}

func itemID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}
