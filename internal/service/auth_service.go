package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/model"
	"github.com/jackyckma/baudagain/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid handle or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrHandleTaken        = errors.New("handle already taken")
)

// AuthService handles account signup, login and JWT issuance.
type AuthService struct {
	users     repository.UserRepo
	jwtSecret []byte
	logger    *zap.Logger
}

func NewAuthService(users repository.UserRepo, jwtSecret string, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

// Signup creates a new account. Handles are case-insensitive and unique.
func (s *AuthService) Signup(ctx context.Context, handle, password string) (*model.User, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" || len(password) < 4 {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.users.GetByHandle(ctx, strings.ToLower(handle))
	if err != nil {
		return nil, fmt.Errorf("lookup handle: %w", err)
	}
	if existing != nil {
		return nil, ErrHandleTaken
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Handle:       strings.ToLower(handle),
		PasswordHash: hashPassword(password, salt),
		Salt:         hex.EncodeToString(salt),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user signed up", zap.String("userId", user.ID), zap.String("handle", user.Handle))
	return user, nil
}

// Login validates credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, handle, password string) (*model.LoginResponse, error) {
	user, err := s.users.GetByHandle(ctx, strings.ToLower(strings.TrimSpace(handle)))
	if err != nil {
		return nil, fmt.Errorf("lookup handle: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	salt, err := hex.DecodeString(user.Salt)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(hashPassword(password, salt)), []byte(user.PasswordHash)) != 1 {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("update last login failed", zap.String("userId", user.ID), zap.Error(err))
	}

	claims := &model.UserClaims{
		UserID: user.ID,
		Handle: user.Handle,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:  tokenString,
		UserID: user.ID,
		Handle: user.Handle,
	}, nil
}

// ValidateToken validates a user JWT and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func hashPassword(password string, salt []byte) string {
	sum := sha256.Sum256(append(salt, []byte(password)...))
	return hex.EncodeToString(sum[:])
}
