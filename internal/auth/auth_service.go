package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the slice of the user repository the auth flow needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, string, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error)
	SetPresence(ctx context.Context, id string, online bool) error
}

// SessionManager abstracts the Redis session store for testing.
type SessionManager interface {
	Create(ctx context.Context, userID, role string) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Destroy(ctx context.Context, sessionID string) error
}

type AuthService struct {
	store    UserStore
	hasher   *PasswordHasher
	jwt      *JWTManager
	sessions SessionManager
}

func NewAuthService(store UserStore, hasher *PasswordHasher, jwt *JWTManager, sessions SessionManager) *AuthService {
	return &AuthService{store: store, hasher: hasher, jwt: jwt, sessions: sessions}
}

// SignUp registers a new user and signs them in. Role defaults to customer
// when the request leaves it empty.
func (s *AuthService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if !models.ValidateRole(role) {
		return nil, errors.New("invalid role: " + req.Role)
	}

	if _, _, err := s.store.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FullName:  req.FullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
		IsOnline:  true,
		LastSeen:  &now,
	}
	if err := s.store.Create(ctx, user, hash); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// SignIn verifies credentials, opens a session and marks the user online.
func (s *AuthService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthResponse, error) {
	user, hash, err := s.store.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.VerifyPassword(req.Password, hash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.store.SetPresence(ctx, user.ID, true); err != nil {
		return nil, err
	}
	user.IsOnline = true

	return s.issueTokens(ctx, user)
}

// SignOut destroys the session and marks the user offline.
func (s *AuthService) SignOut(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	return s.store.SetPresence(ctx, userID, false)
}

// Refresh rotates the token pair. The refresh token's session must still be
// alive in Redis.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role, sess.ID)
	if err != nil {
		return nil, err
	}
	newRefresh, err := s.jwt.GenerateRefreshToken(user.ID, sess.ID)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:        token,
		RefreshToken: newRefresh,
		User:         user,
		ExpiresAt:    time.Now().Add(s.jwt.AccessTTL()),
	}, nil
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	return s.store.UpdateProfile(ctx, userID, req)
}

// CurrentUser loads the signed-in user's profile.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetByID(ctx, userID)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	sess, err := s.sessions.Create(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role, sess.ID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(user.ID, sess.ID)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
		ExpiresAt:    time.Now().Add(s.jwt.AccessTTL()),
	}, nil
}
