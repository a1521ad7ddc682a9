package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Samandar0813/darsbot/internal/quota"
	"github.com/Samandar0813/darsbot/internal/storage"
	"github.com/Samandar0813/darsbot/internal/storage/jsonfile"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) (*Server, *quota.Ledger) {
	t.Helper()

	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ledger := quota.NewLedger(store.Usage(), quota.Config{Limit: 5, Window: quota.DefaultWindow}, zerolog.Nop())
	ledger.SetClock(&quota.TestClock{CurrentTime: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)})

	srv := NewServer(Config{ListenAddr: "127.0.0.1:0", Token: "test-token"}, ledger, zerolog.Nop())
	return srv, ledger
}

func doRequest(t *testing.T, srv *Server, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestUsageRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodGet, "/api/usage", tt.token)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != "unauthorized" {
				t.Errorf("unexpected error field: %q", body["error"])
			}
		})
	}
}

func TestUsageMalformedHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("Authorization", "test-token")
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-bearer header, got %d", rec.Code)
	}
}

func TestUsageListsRecords(t *testing.T) {
	srv, ledger := newTestServer(t)
	ctx := context.Background()

	_ = ledger.RecordUse(ctx, "7")
	_ = ledger.RecordUse(ctx, "7")
	_ = ledger.RecordUse(ctx, "8")

	rec := doRequest(t, srv, http.MethodGet, "/api/usage", "test-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Users []storage.UsageRecord `json:"users"`
		Count int                   `json:"count"`
		Limit int                   `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.Count != 2 || len(body.Users) != 2 {
		t.Fatalf("expected 2 users, got count=%d len=%d", body.Count, len(body.Users))
	}
	if body.Limit != 5 {
		t.Errorf("expected limit 5, got %d", body.Limit)
	}

	counts := make(map[string]int)
	for _, u := range body.Users {
		counts[u.UserID] = u.Count
	}
	if counts["7"] != 2 || counts["8"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
