package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/api/http/handlers"
	"github.com/spec-kit/roadguard/internal/auth"
	"github.com/spec-kit/roadguard/internal/config"
	"github.com/spec-kit/roadguard/internal/events"
	"github.com/spec-kit/roadguard/internal/observability"
	"github.com/spec-kit/roadguard/internal/repository/memory"
	"github.com/spec-kit/roadguard/internal/service"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type testServer struct {
	app *fiber.App
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	users := memory.NewUserRepository()

	authService, err := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "router-test-secret",
		AccessTokenTTLMinutes: 30,
		RefreshTokenTTLDays:   7,
		PasswordMinLength:     5,
		Argon2Time:            1,
		Argon2MemoryKiB:       64,
		Argon2Threads:         1,
	}, service.AuthDependencies{
		UserRepo:         users,
		RefreshTokenRepo: memory.NewRefreshTokenRepository(),
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	require.NoError(t, err)
	_, err = authService.EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	RegisterMiddlewares(app, MiddlewareConfig{Logger: logger, Metrics: metrics})
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("roadguard-api", "test", metrics, nil),
		Auth:     handlers.NewAuthHandler(authService),
		Admin:    handlers.NewAdminHandler(service.NewUserService(users, dispatcher, logger)),
		Problems: handlers.NewProblemsHandler(service.NewProblemService(memory.NewProblemRepository(), dispatcher, logger)),
		Analysis: handlers.NewAnalysisHandler(service.NewAnalysisService(nil, nil, logger), 1<<20),
		Gate:     auth.NewGate(authService.TokenManager(), users),
	})
	return testServer{app: app}
}

func (s testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return s.send(t, req)
}

func (s testServer) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp.StatusCode, payload
}

func (s testServer) login(t *testing.T, email, password string) (string, string) {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, status, body)
	return body["access_token"].(string), body["refresh_token"].(string)
}

func errorMessage(body map[string]any) string {
	envelope, _ := body["error"].(map[string]any)
	message, _ := envelope["message"].(string)
	return message
}

func TestTokenLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "alice@example.com", "name": "Alice", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "citizen", body["role"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")

	access, refresh := s.login(t, "alice@example.com", "secret123")

	status, body = s.do(t, http.MethodGet, "/auth/me", nil, access)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Alice", body["name"])

	status, body = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bearer", body["token_type"])
	rotated := body["refresh_token"].(string)
	assert.NotEqual(t, refresh, rotated)

	status, _ = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": rotated}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["revoked"])
	assert.Equal(t, "successfully logged out", body["message"])

	status, _ = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": rotated}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": rotated}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["revoked"])
	assert.Equal(t, "token not found or already revoked", body["message"])
}

func TestRegisterRejections(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "bob@example.com", "name": "Bob", "password": "abcd",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "not-an-email", "name": "Bob", "password": "abcdef",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": adminEmail, "name": "Copy", "password": "abcdef",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "carol@example.com", "name": "Carol", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, status)

	wrongStatus, wrongBody := s.do(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "carol@example.com", "password": "nope-nope"}, "")
	unknownStatus, unknownBody := s.do(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "nobody@example.com", "password": "nope-nope"}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongStatus)
	assert.Equal(t, wrongStatus, unknownStatus)
	assert.Equal(t, wrongBody, unknownBody)
	assert.Equal(t, "incorrect email or password", errorMessage(wrongBody))
}

func TestAdminRoleUpdate(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "dave@example.com", "name": "Dave", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, status)
	daveID := body["id"].(string)

	daveAccess, _ := s.login(t, "dave@example.com", "secret123")
	status, _ = s.do(t, http.MethodPut, "/admin/users/role",
		map[string]string{"user_id": daveID, "new_role": "contractor"}, daveAccess)
	assert.Equal(t, http.StatusForbidden, status)

	adminAccess, _ := s.login(t, adminEmail, adminPassword)
	status, body = s.do(t, http.MethodPut, "/admin/users/role",
		map[string]string{"user_id": daveID, "new_role": "contractor"}, adminAccess)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "contractor", body["role"])

	freshAccess, _ := s.login(t, "dave@example.com", "secret123")
	status, body = s.do(t, http.MethodGet, "/auth/me", nil, freshAccess)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "contractor", body["role"])

	status, _ = s.do(t, http.MethodPut, "/admin/users/role",
		map[string]string{"user_id": daveID, "new_role": "emperor"}, adminAccess)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/admin/users/role",
		map[string]string{"user_id": "not-a-uuid", "new_role": "admin"}, adminAccess)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodGet, "/admin/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProblemEndpoints(t *testing.T) {
	s := newTestServer(t)
	adminAccess, _ := s.login(t, adminEmail, adminPassword)

	status, _ := s.do(t, http.MethodPost, "/problems", map[string]string{"address": "Main St 1"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(t, http.MethodPost, "/problems",
		map[string]string{"type": "pothole", "address": "Main St 1", "description": "deep"}, adminAccess)
	require.Equal(t, http.StatusOK, status, body)
	id := body["id"].(string)
	assert.Equal(t, "pothole", body["type"])

	status, body = s.do(t, http.MethodGet, "/problems?limit=5", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 5, body["limit"])

	status, _ = s.do(t, http.MethodGet, "/problems?sort_by=password", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPut, "/problems/"+id+"/status", map[string]string{"status": "in_progress"}, adminAccess)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "in_progress", body["status"])

	status, body = s.do(t, http.MethodDelete, "/problems/"+id, nil, adminAccess)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "problem deleted successfully", body["message"])

	status, _ = s.do(t, http.MethodGet, "/problems/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAnalyzeImageWithoutDetector(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.login(t, adminEmail, adminPassword)

	upload := func(contentType string) int {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="road.jpg"`)
		header.Set(fiber.HeaderContentType, contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("\xff\xd8\xff\xe0 payload"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/analyze-image", &buf)
		req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+access)
		status, _ := s.send(t, req)
		return status
	}

	assert.Equal(t, http.StatusBadRequest, upload("text/plain"))
	assert.Equal(t, http.StatusServiceUnavailable, upload("image/jpeg"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, _ = s.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "requests")

	status, body = s.do(t, http.MethodGet, "/no-such-route", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "error")
}
