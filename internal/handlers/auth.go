package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/campuslend/lendhub/internal/models"
	"github.com/campuslend/lendhub/internal/repo"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues session tokens. The token carries the actor fields
// (id, role, approved) the route guards and the lifecycle engine consume.
type AuthHandler struct {
	UserRepo    *repo.UserRepo
	Secret      []byte
	ExpireHours int
}

//
// ==========================
// Login
// ==========================
//

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	// Members wait for a super to approve their account before they can
	// log in at all.
	if user.Role == models.RoleMember && !user.Approved {
		JSONError(w, "member not approved yet", http.StatusForbidden)
		return
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"role":     user.Role,
		"approved": user.Approved,
		"exp":      time.Now().Add(time.Duration(h.ExpireHours) * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.Secret)
	if err != nil {
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": signed,
		"user":  user,
	})
}

//
// ==========================
// Seed Super (bootstrap)
// ==========================
//

// SeedSuper creates the first super user. Refuses if the email is taken;
// beyond that it is unauthenticated bootstrap, so deployments should
// disable the route or rate-limit it at the edge once seeded.
func (h *AuthHandler) SeedSuper(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name" validate:"required,min=2,max=255"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
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

	user, err := h.UserRepo.Create(r.Context(), input.Name, input.Email, string(hash), models.RoleSuper, true)
	if err != nil {
		if e, ok := err.(*pq.Error); ok && e.Code == "23505" {
			JSONError(w, "already exists", http.StatusBadRequest)
			return
		}
		slog.Error("seed super failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email})
}
