package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/food-advisor/internal/config"
	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrUnknownEmail = errors.New("no user with this email")
	ErrAuthDisabled = errors.New("auth is disabled")
)

// UserLookup — то, что нужно сервису авторизации от хранилища пользователей
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*storage.User, error)
}

// Service — сервис авторизации
type Service struct {
	config *config.Config
	users  UserLookup
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(cfg *config.Config, users UserLookup, logger zerolog.Logger) *Service {
	return &Service{
		config: cfg,
		users:  users,
		logger: logger.With().Str("component", "auth").Logger(),
		now:    time.Now,
	}
}

// Enabled reports whether tokens are issued and checked.
func (s *Service) Enabled() bool {
	return s.config.AuthMode == "jwt"
}

// Login выдаёт токен зарегистрированному пользователю по email
func (s *Service) Login(ctx context.Context, email string) (*LoginResponse, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrUnknownEmail
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownEmail
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ttl := s.ttl()
	accessToken, err := s.generateJWTWithTTL(user.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")

	return &LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		UserID:      user.ID,
	}, nil
}

func (s *Service) ttl() time.Duration {
	minutes := s.config.JWTTTLMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

func (s *Service) generateJWTWithTTL(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    s.config.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT — проверка JWT токена, возвращает ID пользователя
func (s *Service) VerifyJWT(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(s.config.JWTIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, ErrInvalidToken
	}
	if !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}
