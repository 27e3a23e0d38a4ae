package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campuslend/lendhub/internal/models"
	"github.com/campuslend/lendhub/internal/repo"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{"id", "name", "email", "password_hash", "role", "approved", "created_at"}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &AuthHandler{
		UserRepo:    repo.NewUserRepo(db),
		Secret:      []byte("test-secret"),
		ExpireHours: 24,
	}
	return h, mock, func() { db.Close() }
}

func loginBody(t *testing.T, email, password string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func TestAuthHandler_Login(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery(`FROM users`).WithArgs("super@campus.edu").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "Admin", "super@campus.edu", string(hash), models.RoleSuper, true, time.Now()))

	req := httptest.NewRequest("POST", "/v1/auth/login", bytes.NewReader(loginBody(t, "super@campus.edu", "correct-horse")))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Login status: got %d, want 200", rr.Code)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	token, err := jwt.Parse(out.Token, func(tok *jwt.Token) (any, error) {
		return h.Secret, nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["role"] != models.RoleSuper || claims["approved"] != true {
		t.Errorf("unexpected claims: %v", claims)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	mock.ExpectQuery(`FROM users`).WithArgs("super@campus.edu").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "Admin", "super@campus.edu", string(hash), models.RoleSuper, true, time.Now()))

	req := httptest.NewRequest("POST", "/v1/auth/login", bytes.NewReader(loginBody(t, "super@campus.edu", "battery-staple")))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Login status: got %d, want 401", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// A member whose account no super has approved cannot log in even with the
// right password.
func TestAuthHandler_Login_MemberNotApproved(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	mock.ExpectQuery(`FROM users`).WithArgs("member@campus.edu").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(2, "Newbie", "member@campus.edu", string(hash), models.RoleMember, false, time.Now()))

	req := httptest.NewRequest("POST", "/v1/auth/login", bytes.NewReader(loginBody(t, "member@campus.edu", "correct-horse")))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Login status: got %d, want 403", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "member not approved yet" {
		t.Errorf("unexpected error body: %v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_SeedSuper_WeakPassword(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	body, _ := json.Marshal(map[string]string{
		"name":     "Admin",
		"email":    "super@campus.edu",
		"password": "short",
	})
	req := httptest.NewRequest("POST", "/v1/auth/seed-super", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.SeedSuper(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("SeedSuper status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
