// Package services содержит бизнес-логику регистрации и аутентификации
// пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/password"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserExists возвращается при попытке зарегистрировать занятый username.
var ErrUserExists = errors.New("user already exists")

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// RegisterUser сохраняет пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает (nil, nil), если пользователь не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService реализует регистрацию и выдачу JWT токенов.
type AuthService struct {
	repo  UserRepository
	maker jwt.Maker
	log   *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(repo UserRepository, maker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		repo:  repo,
		maker: maker,
		log:   log,
	}
}

// Register регистрирует нового пользователя с ролью user и возвращает его UID.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegisterUser) (string, error) {
	const op = "services.Register"

	existing, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		return "", ErrUserExists
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.repo.RegisterUser(ctx, models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         "user",
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user", slog.String("username", req.Username))
	return uid, nil
}

// Login проверяет пару логин/пароль и возвращает подписанный JWT токен.
func (s *AuthService) Login(ctx context.Context, req models.DummyLoginUser) (string, error) {
	const op = "services.Login"

	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.maker.GenerateToken(user.Username, user.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("username", req.Username))
	return token, nil
}
