package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

// Register opens a SENDER or RECEIVER account. Admin accounts are only
// created by EnsureAdmin.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("register: %w: name, email and password are required", domain.ErrInvalidInput)
	}
	role := domain.Role(strings.ToUpper(strings.TrimSpace(in.Role)))
	if role != domain.RoleSender && role != domain.RoleReceiver {
		return nil, fmt.Errorf("register: %w: role must be SENDER or RECEIVER", domain.ErrInvalidInput)
	}
	if role == domain.RoleReceiver && strings.TrimSpace(in.Phone) == "" {
		return nil, fmt.Errorf("register: %w: receivers need a phone number", domain.ErrInvalidInput)
	}

	user, err := s.newUser(in.Name, email, in.Password, role)
	if err != nil {
		return nil, err
	}
	user.Phone = strings.TrimSpace(in.Phone)
	user.Address = strings.TrimSpace(in.Address)
	user.City = strings.TrimSpace(in.City)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.CanSignIn() {
		return "", nil, domain.ErrAccountInactive
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	user, err := s.newUser("Administrator", email, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if _, err := s.repo.Create(ctx, user); err != nil && !errors.Is(err, domain.ErrUserExists) {
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.log.Info().Str("email", email).Msg("admin account created")
	return nil
}

// UpdateProfile changes the contact details of a sender or receiver. A phone
// number already registered to another account is rejected with
// domain.ErrUserExists.
func (s *AuthService) UpdateProfile(ctx context.Context, caller domain.Caller, in ports.ProfileUpdate) (*domain.User, error) {
	r, ok := caller.(domain.Registered)
	if !ok || r.UserID == "" || (r.Role != domain.RoleSender && r.Role != domain.RoleReceiver) {
		return nil, fmt.Errorf("update profile: %w", domain.ErrUnauthorized)
	}

	update := ports.ProfileUpdate{
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
	}
	if update == (ports.ProfileUpdate{}) {
		return nil, fmt.Errorf("update profile: %w: phone, address or city is required", domain.ErrInvalidInput)
	}

	if update.Phone != "" {
		taken, err := s.repo.PhoneTaken(ctx, update.Phone, r.UserID)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("update profile: %w: phone is registered to another account", domain.ErrUserExists)
		}
	}

	user, err := s.repo.UpdateProfile(ctx, r.UserID, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Bool("phone_changed", update.Phone != "").Msg("profile updated")
	return user, nil
}

func (s *AuthService) newUser(name, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &domain.User{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		Email:         email,
		PasswordHash:  string(hash),
		Role:          role,
		AccountStatus: domain.AccountActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"email":   user.Email,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
