package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tapper/internal/game"
	"tapper/internal/player"
)

var (
	ErrCredentialsRequired = errors.New("username and password required")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")
	ErrUsernameTooLong     = errors.New("username must be at most 50 characters")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidToken        = errors.New("invalid token")
)

const (
	minPasswordLen = 6
	maxUsernameLen = 50
	bcryptCost     = 10
)

// Service issues and verifies bearer credentials and owns account
// registration and password changes.
type Service struct {
	players player.Repo
	secret  []byte
	clock   game.Clock
	logger  *zap.Logger
}

func NewService(players player.Repo, secret string, clock game.Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = game.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		players: players,
		secret:  []byte(secret),
		clock:   clock,
		logger:  logger,
	}
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return ErrCredentialsRequired
	}
	if len(username) > maxUsernameLen {
		return ErrUsernameTooLong
	}
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

// Register creates an account with a fresh progression record and returns
// it along with a signed token.
func (s *Service) Register(ctx context.Context, username, password string) (player.User, string, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return player.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return player.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	u, err := s.players.Create(ctx, player.User{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         player.RoleUser,
		PasswordHash: string(hash),
		Progression:  game.NewState().Snapshot(),
		CreatedAt:    now,
		LastActive:   now,
	})
	if err != nil {
		return player.User{}, "", err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return player.User{}, "", err
	}
	s.logger.Info("account registered", zap.String("username", u.Username))
	return u, token, nil
}

// Login verifies the password and returns the account with a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (player.User, string, error) {
	username = strings.TrimSpace(username)
	u, err := s.players.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, player.ErrNotFound) {
			return player.User{}, "", ErrInvalidCredentials
		}
		return player.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return player.User{}, "", ErrInvalidCredentials
	}
	token, err := s.issueToken(u)
	if err != nil {
		return player.User{}, "", err
	}
	return u, token, nil
}

// ChangePassword verifies the old password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}
	u, err := s.players.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.players.UpdatePassword(ctx, userID, string(hash))
}

func (s *Service) issueToken(u player.User) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  u.ID,
		IssuedAt: jwt.NewNumericDate(s.clock.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to the current account record, so
// role and profile edits take effect without re-login.
func (s *Service) Authenticate(ctx context.Context, bearer string) (player.User, error) {
	parsed, err := jwt.ParseWithClaims(bearer, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return player.User{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return player.User{}, ErrInvalidToken
	}

	u, err := s.players.ByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, player.ErrNotFound) {
			return player.User{}, ErrInvalidToken
		}
		return player.User{}, err
	}
	return u, nil
}
