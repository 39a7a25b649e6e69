package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tips-service/internal/repository/sqlite"
	"tips-service/internal/security"
	"tips-service/internal/service"
)

type testServer struct {
	router     *gin.Engine
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	accounts := sqlite.NewAccountRepository(db)
	games := sqlite.NewGameRepository(db)
	require.NoError(t, accounts.Init(ctx))
	require.NoError(t, games.Init(ctx))

	tokens, err := security.NewTokenIssuer("api-test-secret", time.Hour, nil)
	require.NoError(t, err)
	accountSvc := service.NewAccountService(accounts, security.NewBcryptHasher(bcrypt.MinCost), tokens, service.AccountOptions{DefaultVIPDays: 30})
	_, err = accountSvc.EnsureDefaultAdmin(ctx, service.BootstrapAdmin{Username: "admin", Email: "admin@localhost", Password: "admin123"})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	NewHandler(accountSvc, service.NewGameService(accounts, games, nil), service.NewStatsService(accounts, games, nil), logger).RegisterRoutes(router)

	s := &testServer{router: router}
	s.adminToken = s.login(t, "admin", "admin123")
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doRaw(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func (s *testServer) register(t *testing.T, username string) AuthResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestRegisterAndMe(t *testing.T) {
	s := newTestServer(t)

	alice := s.register(t, "alice")
	assert.Equal(t, "Bearer", alice.TokenType)
	assert.EqualValues(t, 3600, alice.ExpiresIn)
	assert.False(t, alice.Account.IsAdmin)
	assert.False(t, alice.Account.HasPaid)
	assert.True(t, alice.Account.IsActive)

	rec := s.do(t, http.MethodGet, "/api/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)
	assert.NotContains(t, rec.Body.String(), "password_hash")

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidationFields(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")

	wrong := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "nope"})
	missing := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "ghost", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, missing.Code)
	assert.Equal(t, wrong.Body.String(), missing.Body.String())
}

func TestBearerTokenRequired(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"missing":    "",
		"wrong type": "Basic abc",
		"garbage":    "Bearer not-a-token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/admin/users/" + alice.Account.ID + "/vip"},
		{http.MethodDelete, "/api/admin/users/" + alice.Account.ID + "/block"},
		{http.MethodPost, "/api/admin/users/" + alice.Account.ID + "/temp-password"},
		{http.MethodPost, "/api/admin/games"},
		{http.MethodDelete, "/api/admin/games/unknown"},
	}
	for _, r := range routes {
		rec := s.do(t, r.method, r.path, alice.Token, gin.H{})
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", r.method, r.path)
		assert.Equal(t, "admin privileges required", decodeError(t, rec))
	}
}

func TestAdminRoutesRejectRegularUsersWhateverTheBody(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	vipPath := "/api/admin/users/" + alice.Account.ID + "/vip"

	routes := []struct {
		method, path string
		bodies       []string
	}{
		{http.MethodPost, "/api/admin/games", []string{`{not json`, `[]`, `{"odds":"high","kickoff_at":42}`}},
		{http.MethodPut, "/api/admin/games/x", []string{`{not json`, `[]`, `{"odds":"high","is_vip":"yes"}`}},
		{http.MethodPut, "/api/admin/games/x/result", []string{`{not json`, `[]`, `{"result":7}`}},
		{http.MethodPost, vipPath, []string{`{not json`, `[]`, `{"duration_days":"thirty"}`}},
	}
	for _, r := range routes {
		for _, body := range r.bodies {
			rec := s.doRaw(t, r.method, r.path, alice.Token, body)
			assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s %s", r.method, r.path, body)
			assert.Equal(t, "admin privileges required", decodeError(t, rec))
		}
	}

	// the same malformed bodies are still 400 for an admin
	rec := s.doRaw(t, http.MethodPost, "/api/admin/games", s.adminToken, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.doRaw(t, http.MethodPost, vipPath, s.adminToken, `{"duration_days":"thirty"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.doRaw(t, http.MethodPut, "/api/admin/games/x/result", s.adminToken, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesReportBlockedBeforeNotAdmin(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")

	rec := s.do(t, http.MethodPost, "/api/admin/users/"+alice.Account.ID+"/block", s.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.doRaw(t, http.MethodPost, "/api/admin/games", alice.Token, `{not json`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "account is blocked", decodeError(t, rec))
}

func TestBlockTakesEffectImmediately(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")

	rec := s.do(t, http.MethodPost, "/api/admin/users/"+alice.Account.ID+"/block", s.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the token issued before the block is still cryptographically valid
	rec = s.do(t, http.MethodGet, "/api/me", alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "account is blocked", decodeError(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/admin/users/"+alice.Account.ID+"/block", s.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/me", alice.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVIPGrantUnlocksGames(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")

	for _, vip := range []bool{false, true} {
		rec := s.do(t, http.MethodPost, "/api/admin/games", s.adminToken, gin.H{
			"home_team":  "Inter",
			"away_team":  "Milan",
			"prediction": "Over 2.5",
			"odds":       2.1,
			"kickoff_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
			"is_vip":     vip,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	listGames := func() []GameResponse {
		rec := s.do(t, http.MethodGet, "/api/games", alice.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var games []GameResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
		return games
	}
	assert.Len(t, listGames(), 1)

	rec := s.do(t, http.MethodPost, "/api/admin/users/"+alice.Account.ID+"/vip", s.adminToken, gin.H{"duration_days": 7})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var granted AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &granted))
	assert.True(t, granted.HasPaid)
	assert.True(t, granted.HasVIPAccess)
	require.NotNil(t, granted.VIPExpiryDate)
	assert.NotEmpty(t, granted.VIPReference)
	assert.Len(t, listGames(), 2)

	rec = s.do(t, http.MethodDelete, "/api/admin/users/"+alice.Account.ID+"/vip", s.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, listGames(), 1)

	rec = s.do(t, http.MethodPost, "/api/admin/users/"+alice.Account.ID+"/vip", s.adminToken, gin.H{"duration_days": -3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/admin/users/missing/vip", s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemporaryPasswordFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")

	rec := s.do(t, http.MethodPost, "/api/admin/users/"+alice.Account.ID+"/temp-password", s.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var temp TempPasswordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &temp))
	assert.Len(t, temp.TemporaryPassword, 6)

	token := s.login(t, "alice", temp.TemporaryPassword)
	rec = s.do(t, http.MethodGet, "/api/me", token, nil)
	var me AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.True(t, me.NeedsPasswordChange)

	rec = s.do(t, http.MethodPost, "/api/me/password", token, gin.H{"current_password": temp.TemporaryPassword, "new_password": "brandnew"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	s.login(t, "alice", "brandnew")

	rec = s.do(t, http.MethodGet, "/api/me", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.False(t, me.NeedsPasswordChange)
}

func TestAdminGameLifecycleAndStats(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/admin/games", s.adminToken, gin.H{
		"home_team":  "Porto",
		"away_team":  "Benfica",
		"prediction": "Draw",
		"odds":       3.2,
		"kickoff_at": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var game GameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &game))
	assert.Equal(t, "pending", game.Result)

	rec = s.do(t, http.MethodPut, "/api/admin/games/"+game.ID+"/result", s.adminToken, gin.H{"result": "won"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/admin/stats", s.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.Users.Total)
	assert.EqualValues(t, 1, stats.Games.Won)
	assert.InDelta(t, 1.0, stats.WinRate, 1e-9)

	rec = s.do(t, http.MethodDelete, "/api/admin/games/"+game.ID, s.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/games/"+game.ID, s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
