package requests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campuslend/lendhub/internal/models"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

// withSession points the CLI at srv and plants a fake session token in a
// throwaway home directory.
func withSession(t *testing.T, srvURL string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LENDHUB_API_URL", srvURL)
	if err := os.WriteFile(filepath.Join(home, ".lendhub_token"), []byte("test-token"), 0600); err != nil {
		t.Fatalf("write token: %v", err)
	}
}

func TestListRequests_TableOutput(t *testing.T) {
	requests := []models.Request{
		{ID: 1, ItemID: 5, ItemName: "camera", Status: models.StatusPending,
			Requester: models.Requester{Name: "Ada", ClassName: "CS-2"}},
		{ID: 2, ItemID: 5, ItemName: "camera", Status: models.StatusApproved,
			Requester: models.Requester{Name: "Grace", ClassName: "CS-3"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/requests" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(requests)
	}))
	defer srv.Close()

	withSession(t, srv.URL)

	cmd := listRequestsCmd()
	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, []string{}); err != nil {
			t.Fatalf("list requests: %v", err)
		}
	})

	if !strings.Contains(out, "Ada") || !strings.Contains(out, "approved") {
		t.Fatalf("expected requests in output, got: %s", out)
	}
}

func TestTransition_Approve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/requests/42/approve" || r.Method != http.MethodPost {
			t.Fatalf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.Request{ID: 42, Status: models.StatusApproved})
	}))
	defer srv.Close()

	withSession(t, srv.URL)

	cmd := transitionCmd("approve", "Approve a pending request")
	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, []string{"42"}); err != nil {
			t.Fatalf("approve: %v", err)
		}
	})

	if !strings.Contains(out, models.StatusApproved) {
		t.Fatalf("expected approved response, got: %s", out)
	}
}
