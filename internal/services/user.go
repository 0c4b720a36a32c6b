package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"couple-journal-backend/internal/cache"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeLength        = 6
	codeChars         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	minPasswordLength = 8
)

// UserService handles sign-up, sign-in and the JWT sessions built on them
type UserService struct {
	accounts    store.AccountTable
	profiles    store.ProfileTable
	revocations *cache.Revocations
	jwtSecret   string
	tokenTTL    time.Duration
	now         func() time.Time
}

// NewUserService creates a new user service
func NewUserService(st *store.Store, revocations *cache.Revocations, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		accounts:    st.Accounts,
		profiles:    st.Profiles,
		revocations: revocations,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// SignUpRequest represents a request to create an account
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// SignInRequest represents a request to open a session
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by sign-up and sign-in
type AuthResponse struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

// GenerateUniqueCode generates a unique 6-character link code
func (s *UserService) GenerateUniqueCode(ctx context.Context) (string, error) {
	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		code := generateCode()
		exists, err := s.profiles.LinkCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxAttempts)
}

// generateCode generates a random 6-character code
func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the session it carries.
// Signed-out tokens are rejected.
func (s *UserService) ValidateJWT(ctx context.Context, tokenString string) (*identity.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &models.AppError{Code: models.CodeNotAuthenticated, Message: "invalid token", Err: err}
	}

	if !token.Valid {
		return nil, models.NewNotAuthenticatedError("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewNotAuthenticatedError("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, models.NewNotAuthenticatedError("user_id not found in token")
	}
	tokenID, _ := claims["jti"].(string)

	session := &identity.Session{Subject: userID, TokenID: tokenID}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}

	revoked, err := s.revocations.IsRevoked(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if revoked {
		return nil, models.NewNotAuthenticatedError("session has been signed out")
	}

	return session, nil
}

// SignUp creates an account with its profile and opens a session
func (s *UserService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	email := models.NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return nil, models.NewValidationError("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, models.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if models.Blank(req.DisplayName) {
		return nil, models.NewValidationError("display name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := s.GenerateUniqueCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	now := s.now().UTC()
	userID := uuid.New().String()
	account := &models.Account{
		ID:           userID,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	profile := &models.Profile{
		ID:        userID,
		Name:      strings.TrimSpace(req.DisplayName),
		LinkCode:  code,
		CreatedAt: now,
	}

	if err := s.accounts.Create(ctx, account, profile); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{Token: token, Profile: profile}, nil
}

// SignIn checks the credentials and opens a session
func (s *UserService) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	invalid := models.NewNotAuthenticatedError("invalid email or password")

	account, err := s.accounts.GetByEmail(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	profile, err := s.profiles.GetByID(ctx, account.ID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewProfileMissingError(account.ID)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	token, err := s.GenerateJWT(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{Token: token, Profile: profile}, nil
}

// SignOut revokes the session's token until it would have expired
func (s *UserService) SignOut(ctx context.Context, session *identity.Session) error {
	if session == nil || session.TokenID == "" {
		return nil
	}
	ttl := s.tokenTTL
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
	}
	return s.revocations.Revoke(ctx, session.TokenID, ttl)
}

// UpdatePushToken stores or clears the APNs device token of a profile
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	if pushToken != nil && models.Blank(*pushToken) {
		pushToken = nil
	}
	if err := s.profiles.UpdatePushToken(ctx, userID, pushToken); err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}
