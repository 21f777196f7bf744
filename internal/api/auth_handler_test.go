package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk-io/supportdesk-ce/internal/auth"
	"github.com/supportdesk-io/supportdesk-ce/internal/middleware"
	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

type stubUserStore struct {
	users  map[string]*models.User
	hashes map[string]string
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]*models.User), hashes: make(map[string]string)}
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (*models.User, string, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, s.hashes[u.ID], nil
		}
	}
	return nil, "", auth.ErrUserNotFound
}

func (s *stubUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserStore) Create(_ context.Context, user *models.User, passwordHash string) error {
	s.users[user.ID] = user
	s.hashes[user.ID] = passwordHash
	return nil
}

func (s *stubUserStore) UpdateProfile(_ context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	return u, nil
}

func (s *stubUserStore) SetPresence(_ context.Context, id string, online bool) error {
	if u, ok := s.users[id]; ok {
		u.IsOnline = online
	}
	return nil
}

type stubSessions struct {
	sessions map[string]*auth.Session
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[string]*auth.Session)}
}

func (s *stubSessions) Create(_ context.Context, userID, role string) (*auth.Session, error) {
	sess := &auth.Session{ID: uuid.NewString(), UserID: userID, Role: role, CreatedAt: time.Now()}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *stubSessions) Get(_ context.Context, sessionID string) (*auth.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	return sess, nil
}

func (s *stubSessions) Destroy(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func authTestRouter() (*gin.Engine, *stubUserStore, *stubSessions) {
	gin.SetMode(gin.TestMode)

	store := newStubUserStore()
	sessions := newStubSessions()
	jwtManager := auth.NewJWTManager("test-secret-key", "supportdesk-test", time.Hour, 24*time.Hour)
	hasher := auth.NewPasswordHasher(4, 8)
	svc := auth.NewAuthService(store, hasher, jwtManager, sessions)
	h := NewAuthHandler(svc)
	authMW := middleware.NewAuthMiddleware(jwtManager, sessions)

	r := gin.New()
	r.POST("/auth/signup", h.SignUp)
	r.POST("/auth/signin", h.SignIn)
	r.POST("/auth/refresh", h.Refresh)

	protected := r.Group("/auth")
	protected.Use(authMW.RequireAuth())
	protected.POST("/signout", h.SignOut)
	protected.GET("/me", h.Me)
	protected.PUT("/me", h.UpdateMe)
	return r, store, sessions
}

func signUp(t *testing.T, r *gin.Engine, body string) models.AuthResponse {
	t.Helper()
	w := postJSON(t, r, "/auth/signup", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSignUpAndSignIn(t *testing.T) {
	r, store, _ := authTestRouter()

	resp := signUp(t, r, `{"email":"dana@example.com","password":"hunter2hunter2","full_name":"Dana"}`)
	require.NotNil(t, resp.User)
	assert.Equal(t, models.RoleCustomer, resp.User.Role)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, store.users[resp.User.ID].IsOnline)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := postJSON(t, r, "/auth/signup", `{"email":"dana@example.com","password":"hunter2hunter2","full_name":"Dana"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("correct password signs in", func(t *testing.T) {
		w := postJSON(t, r, "/auth/signin", `{"email":"dana@example.com","password":"hunter2hunter2"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		w := postJSON(t, r, "/auth/signin", `{"email":"dana@example.com","password":"wrong-password"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMeRoundTrip(t *testing.T) {
	r, _, _ := authTestRouter()
	resp := signUp(t, r, `{"email":"lee@example.com","password":"hunter2hunter2","full_name":"Lee"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "lee@example.com", me.Email)

	t.Run("profile patch applies", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/auth/me", strings.NewReader(`{"full_name":"Lee Park"}`))
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var updated models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, "Lee Park", updated.FullName)
	})
}

func TestSignOutRevokesSession(t *testing.T) {
	r, _, sessions := authTestRouter()
	resp := signUp(t, r, `{"email":"kim@example.com","password":"hunter2hunter2","full_name":"Kim"}`)
	require.Len(t, sessions.sessions, 1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sessions.sessions)

	t.Run("token no longer usable", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh fails on the dead session", func(t *testing.T) {
		w := postJSON(t, r, "/auth/refresh", `{"refresh_token":"`+resp.RefreshToken+`"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRefreshRotatesTokens(t *testing.T) {
	r, _, _ := authTestRouter()
	resp := signUp(t, r, `{"email":"ana@example.com","password":"hunter2hunter2","full_name":"Ana"}`)

	w := postJSON(t, r, "/auth/refresh", `{"refresh_token":"`+resp.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var rotated models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEmpty(t, rotated.Token)
	assert.NotEmpty(t, rotated.RefreshToken)
}
