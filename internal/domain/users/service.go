package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/crypto"
	"pet-adoption/internal/ports/notify"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

const DefaultResetTTL = time.Hour

var validate = validator.New()

type Service struct {
	repo     Repository
	hasher   crypto.PasswordHasher
	tokens   auth.TokenIssuer
	notifier notify.Notifier
	resetTTL time.Duration
	log      logger.Logger
	now      func() time.Time
	random   func([]byte) (int, error)
}

type Deps struct {
	Repo     Repository
	Hasher   crypto.PasswordHasher
	Tokens   auth.TokenIssuer
	Notifier notify.Notifier
	ResetTTL time.Duration
	Log      logger.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}
	ttl := d.ResetTTL
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &Service{
		repo:     d.Repo,
		hasher:   d.Hasher,
		tokens:   d.Tokens,
		notifier: d.Notifier,
		resetTTL: ttl,
		log:      log.With(map[string]any{"module": "users"}),
		now:      time.Now,
		random:   rand.Read,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session es lo que devuelven register y login.
type Session struct {
	User  User
	Token string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return Session{}, invalid("full name is required")
	case len([]rune(name)) < MinNameLen:
		return Session{}, invalid("name must be at least 2 characters long")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Session{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return Session{}, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	u, err := s.create(ctx, name, email, in.Password, auth.RoleUser)
	if err != nil {
		return Session{}, err
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("user registered", map[string]any{"user_id": u.ID})
	return Session{User: u, Token: token}, nil
}

// Login no distingue email inexistente de contraseña incorrecta.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if password == "" {
		return Session{}, invalid("password is required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	ok, err := s.hasher.VerifyPassword(ctx, password, u.PasswordHash)
	if err != nil {
		return Session{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, mapRepoErr(err)
	}
	return u, nil
}

// ForgotPassword responde igual exista o no el email (sent=false si no existe).
// Si el envío falla, el token se borra y se devuelve el error.
func (s *Service) ForgotPassword(ctx context.Context, email string) (sent bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, invalid("email is required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	raw := make([]byte, 32)
	if _, err := s.random(raw); err != nil {
		return false, fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	u.ResetTokenHash = hashToken(token)
	u.ResetTokenExpiry = s.now().Add(s.resetTTL)
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return false, mapRepoErr(err)
	}

	if s.notifier == nil {
		return true, nil
	}
	if err := s.notifier.SendPasswordReset(ctx, u.Email, token, u.Name); err != nil {
		u.ResetTokenHash = ""
		u.ResetTokenExpiry = time.Time{}
		if cerr := s.repo.Update(ctx, u); cerr != nil {
			s.log.Error("clear reset token failed", map[string]any{"user_id": u.ID, "err": cerr})
		}
		s.log.Warn("password reset email failed", map[string]any{"user_id": u.ID, "err": err})
		return false, fmt.Errorf("%w: %v", notify.ErrDeliveryFailed, err)
	}
	return true, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}

	u, err := s.repo.GetByResetTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !s.now().Before(u.ResetTokenExpiry) {
		return ErrInvalidResetToken
	}

	hash, err := s.hasher.HashPassword(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.ResetTokenHash = ""
	u.ResetTokenExpiry = time.Time{}
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return mapRepoErr(err)
	}
	s.log.Info("password reset", map[string]any{"user_id": u.ID})
	return nil
}

// EnsureAdmin crea el admin inicial si no existe, o promueve la cuenta existente.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}

	u, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == auth.RoleAdmin {
			return u, nil
		}
		u.Role = auth.RoleAdmin
		u.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, u); err != nil {
			return User{}, mapRepoErr(err)
		}
		s.log.Info("user promoted to admin", map[string]any{"user_id": u.ID})
		return u, nil
	case !errors.Is(err, ErrNotFound):
		return User{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Administrator"
	}
	if err := validatePassword(password); err != nil {
		return User{}, err
	}
	u, err = s.create(ctx, name, email, password, auth.RoleAdmin)
	if err != nil {
		return User{}, err
	}
	s.log.Info("admin seeded", map[string]any{"user_id": u.ID})
	return u, nil
}

func (s *Service) create(ctx context.Context, name, email, password string, role auth.Role) (User, error) {
	hash, err := s.hasher.HashPassword(ctx, password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) issue(ctx context.Context, u User) (string, error) {
	if s.tokens == nil {
		return "", nil
	}
	token, err := s.tokens.Issue(ctx, u.Claims())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalid("email address is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", invalid("please enter a valid email address")
	}
	return email, nil
}

func validatePassword(pw string) error {
	switch {
	case pw == "":
		return invalid("password is required")
	case len(pw) < MinPasswordLen:
		return invalid("password must be at least 6 characters long")
	case len(pw) > MaxPasswordLen:
		return invalid("password must be less than 50 characters long")
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func mapRepoErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return err
}
