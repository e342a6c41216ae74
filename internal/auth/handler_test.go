package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"expiry-backend/internal/shared/server/middleware"
)

func newAuthRouter(t *testing.T, env *testEnv) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(env.svc, env.signer)
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, h
}

func postJSON(r http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body.Error.Code
}

func TestOTPFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	router, _ := newAuthRouter(t, env)

	resp := postJSON(router, "/api/v1/auth/otp/request", `{"mobileNumber":"0501234567"}`, nil)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "+9710501234567") {
		t.Fatalf("expected normalized number in body, got %s", resp.Body.String())
	}

	resp = postJSON(router, "/api/v1/auth/otp/verify", `{"mobileNumber":"0501234567","code":"999999"}`, nil)
	if resp.Code != http.StatusUnauthorized || errorCode(t, resp) != "invalid_code" {
		t.Fatalf("expected 401 invalid_code, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = postJSON(router, "/api/v1/auth/otp/verify", `{"mobileNumber":"0501234567","code":"123456"}`, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var session Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == "" || session.User.ID == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	resp = postJSON(router, "/api/v1/auth/signout", `{}`, map[string]string{"Authorization": "Bearer " + session.Token})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	claims, err := env.signer.Verify(session.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	revoked, _ := env.revs.IsRevoked(t.Context(), claims.ID)
	if !revoked {
		t.Fatalf("expected token to be revoked after sign out")
	}
}

func TestSignOutWithoutTokenStillSucceeds(t *testing.T) {
	router, _ := newAuthRouter(t, newTestEnv(t))
	resp := postJSON(router, "/api/v1/auth/signout", ``, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestRequestCodeInvalidNumber(t *testing.T) {
	router, _ := newAuthRouter(t, newTestEnv(t))
	resp := postJSON(router, "/api/v1/auth/otp/request", `{"mobileNumber":"--"}`, nil)
	if resp.Code != http.StatusBadRequest || errorCode(t, resp) != "invalid_number" {
		t.Fatalf("expected 400 invalid_number, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRequestCodeProviderNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.sender.err = errMissingCredentials
	router, _ := newAuthRouter(t, env)

	resp := postJSON(router, "/api/v1/auth/otp/request", `{"mobileNumber":"0501234567"}`, nil)
	if resp.Code != http.StatusServiceUnavailable || errorCode(t, resp) != "provider_not_configured" {
		t.Fatalf("expected 503 provider_not_configured, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "SMS_PROVIDER") {
		t.Fatalf("expected operator guidance, got %s", resp.Body.String())
	}
}

func TestRequestCodeRateLimitedPerNumber(t *testing.T) {
	env := newTestEnv(t)
	router, h := newAuthRouter(t, env)
	h.Limiter = middleware.NewRateLimiter(env.clock.Now)
	h.PerNumber = middleware.PerMinute(2)

	for i := 0; i < 2; i++ {
		resp := postJSON(router, "/api/v1/auth/otp/request", `{"mobileNumber":"0501234567"}`, nil)
		if resp.Code != http.StatusAccepted {
			t.Fatalf("request %d: expected 202, got %d", i, resp.Code)
		}
	}
	resp := postJSON(router, "/api/v1/auth/otp/request", `{"mobileNumber":"+971 0501234567"}`, nil)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	resp = postJSON(router, "/api/v1/auth/otp/request", `{"mobileNumber":"0509999999"}`, nil)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("other numbers must not share the bucket, got %d", resp.Code)
	}

	env.clock.Advance(time.Minute)
	resp = postJSON(router, "/api/v1/auth/otp/request", `{"mobileNumber":"0501234567"}`, nil)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected refill after a minute, got %d", resp.Code)
	}
}

func TestVerifyCodeRateLimitedPerNumber(t *testing.T) {
	env := newTestEnv(t)
	router, h := newAuthRouter(t, env)
	h.Limiter = middleware.NewRateLimiter(env.clock.Now)
	h.PerNumber = middleware.PerMinute(2)

	resp := postJSON(router, "/api/v1/auth/otp/request", `{"mobileNumber":"0501234567"}`, nil)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	for i := 0; i < 2; i++ {
		resp = postJSON(router, "/api/v1/auth/otp/verify", `{"mobileNumber":"0501234567","code":"000000"}`, nil)
		if got := errorCode(t, resp); got != "invalid_code" {
			t.Fatalf("guess %d: expected invalid_code, got %s", i, got)
		}
	}
	resp = postJSON(router, "/api/v1/auth/otp/verify", `{"mobileNumber":"+971 0501234567","code":"123456"}`, nil)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
}

var errMissingCredentials = errorString("failed to retrieve credentials: no EC2 IMDS role found")

type errorString string

func (e errorString) Error() string { return string(e) }
