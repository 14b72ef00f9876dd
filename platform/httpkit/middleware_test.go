package httpkit

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return "test-secret" }

const unexpectedStatusFmt = "expected status %d, got %d"

func signTestToken(t *testing.T, sub string, roles []string, tokenType string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"roles": roles,
		"type":  tokenType,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/api", AuthRequired(testJWTConfig{}))
	protected.GET("/leads/my", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	admin := protected.Group("/admin", RequireRole("admin", "master_admin"))
	admin.GET("/companies", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func doRequest(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestAuthRequiredRedirectsToLoginWithoutToken(t *testing.T) {
	rec := doRequest(newTestRouter(), "/api/leads/my", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf(unexpectedStatusFmt, http.StatusUnauthorized, rec.Code)
	}
	if body := decodeBody(t, rec); body["redirect"] != LoginPath {
		t.Fatalf("expected redirect %q, got %v", LoginPath, body["redirect"])
	}
}

func TestAuthRequiredRejectsRefreshTokens(t *testing.T) {
	token := signTestToken(t, uuid.NewString(), []string{"user"}, "refresh")
	rec := doRequest(newTestRouter(), "/api/leads/my", token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf(unexpectedStatusFmt, http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	token := signTestToken(t, uuid.NewString(), []string{"user"}, "access")
	rec := doRequest(newTestRouter(), "/api/leads/my", token)
	if rec.Code != http.StatusOK {
		t.Fatalf(unexpectedStatusFmt, http.StatusOK, rec.Code)
	}
}

func TestRequireRoleRedirectsToUnauthorized(t *testing.T) {
	token := signTestToken(t, uuid.NewString(), []string{"company_user"}, "access")
	rec := doRequest(newTestRouter(), "/api/admin/companies", token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf(unexpectedStatusFmt, http.StatusForbidden, rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "forbidden" || body["redirect"] != UnauthorizedPath {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRequireRoleAllowsMasterAdmin(t *testing.T) {
	token := signTestToken(t, uuid.NewString(), []string{"master_admin"}, "access")
	rec := doRequest(newTestRouter(), "/api/admin/companies", token)
	if rec.Code != http.StatusOK {
		t.Fatalf(unexpectedStatusFmt, http.StatusOK, rec.Code)
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		reason string
	}{
		{apperr.Conflict("transition not allowed"), http.StatusConflict, "not_allowed"},
		{apperr.Forbidden("not your lead"), http.StatusForbidden, "forbidden"},
		{apperr.Unavailable(http.ErrHandlerTimeout), http.StatusServiceUnavailable, "unavailable"},
		{http.ErrHandlerTimeout, http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		HandleError(c, tc.err)
		if rec.Code != tc.status {
			t.Fatalf(unexpectedStatusFmt, tc.status, rec.Code)
		}
		if body := decodeBody(t, rec); body["reason"] != tc.reason {
			t.Fatalf("expected reason %q, got %v", tc.reason, body["reason"])
		}
	}
}

func TestErrorTrackerForgetsOldErrors(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tracker := NewErrorTracker(5 * time.Minute)
	tracker.now = func() time.Time { return now }

	tracker.Record()
	tracker.Record()
	now = now.Add(3 * time.Minute)
	tracker.Record()

	if got := tracker.RecentCount(); got != 3 {
		t.Fatalf("expected 3 recent errors, got %d", got)
	}

	now = now.Add(3 * time.Minute)
	if got := tracker.RecentCount(); got != 1 {
		t.Fatalf("expected 1 recent error, got %d", got)
	}
}

func TestErrorTrackerMiddlewareCountsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracker := NewErrorTracker(time.Minute)
	r := gin.New()
	r.Use(tracker.Middleware())
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	doRequest(r, "/boom", "")
	doRequest(r, "/missing", "")

	if got := tracker.RecentCount(); got != 1 {
		t.Fatalf("expected 1 recent error, got %d", got)
	}
}

func TestRequestLoggerRecordsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	userID := uuid.New()

	r := gin.New()
	r.Use(RequestLogger(logger.NewWithWriter("production", &buf)))
	r.GET("/fail", func(c *gin.Context) {
		c.Set(ContextUserIDKey, userID)
		HandleError(c, errors.New("pool exhausted"))
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf(unexpectedStatusFmt, http.StatusInternalServerError, rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("expected request id echoed, got %q", rec.Header().Get(RequestIDHeader))
	}

	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	if len(entries) != 2 || entries[0]["msg"] != "http_error" || entries[1]["msg"] != "http_request" {
		t.Fatalf("expected http_error then http_request, got %v", entries)
	}
	for _, entry := range entries {
		if entry["request_id"] != "req-123" || entry["user_id"] != userID.String() {
			t.Fatalf("log entry lacks request context: %v", entry)
		}
	}
	if entries[0]["error"] != "pool exhausted" {
		t.Fatalf("expected the recorded error, got %v", entries[0]["error"])
	}
}

func TestRequestLoggerSkipsClientErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestLogger(logger.NewWithWriter("production", &buf)))
	r.GET("/missing", func(c *gin.Context) {
		HandleError(c, apperr.NotFound("lead not found"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}
	if bytes.Contains(buf.Bytes(), []byte("http_error")) {
		t.Fatalf("4xx responses must not log http_error: %s", buf.String())
	}
}
