package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lume/internal/domain"
	"lume/internal/email"
	"lume/internal/metrics"
	"lume/internal/repository"
)

// UserService coordina registro y login de usuarios.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

var (
	ErrUserServiceNotConfigured = errors.New("user service not configured")
	ErrUserNotFound             = errors.New("user not found")
	ErrDuplicateUser            = errors.New("username already taken")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInvalidInput             = errors.New("invalid input")
	ErrInvalidEmail             = errors.New("invalid email")
)

const maxUsernameLen = 64

// Register crea la cuenta. El chequeo previo y el indice unico cubren la unicidad del username.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}

	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if !isValidUsername(username) || password == "" {
		return domain.User{}, ErrInvalidInput
	}
	emailAddr, err := normalizeEmail(input.Email)
	if err != nil {
		return domain.User{}, err
	}

	_, err = s.users.GetByUsername(ctx, username)
	if err == nil {
		return domain.User{}, ErrDuplicateUser
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrDuplicateUser
		}
		return domain.User{}, err
	}
	metrics.Signups.Inc()
	s.logger.Info("user registered", zap.String("username", username))

	s.sendWelcome(ctx, user)
	return user, nil
}

func (s *UserService) sendWelcome(ctx context.Context, user domain.User) {
	if user.Email == "" || s.emailSender == nil {
		return
	}
	if err := s.emailSender.SendWelcome(ctx, user.Email, user.Username); err != nil {
		s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("username", user.Username))
	}
}

func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		metrics.LoginFailures.Inc()
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.LoginFailures.Inc()
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		metrics.LoginFailures.Inc()
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginFailures.Inc()
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, username string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func isValidUsername(username string) bool {
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLen {
		return false
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// normalizeEmail acepta vacio (el email es opcional).
func normalizeEmail(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return raw, nil
}
