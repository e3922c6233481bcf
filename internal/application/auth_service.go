package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	repo "github.com/Malcolm-Mukorera/campus-events-api/internal/domain/repository"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer/templates"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/metrics"
)

// AuthService registers users, logs them in and resolves session tokens.
type AuthService struct {
	Users    repo.UserRepository
	Hasher   PasswordHasher
	Tokens   TokenManager
	Notifier Notifier
	Logger   *logrus.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users repo.UserRepository, hasher PasswordHasher, tokens TokenManager, notifier Notifier, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Users:    users,
		Hasher:   hasher,
		Tokens:   tokens,
		Notifier: notifier,
		Logger:   logger,
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

// NormalizeEmail trims and lower-cases an address; stored emails are always normalized.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and issues a session token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := validate(in); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}

	existing, err := s.Users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
		return nil, ErrEmailTaken
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Name: in.Name, Email: in.Email, Password: hash}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	s.notify(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: templates.Welcome,
		Data:     map[string]any{"Name": u.Name},
	})
	return res, nil
}

// Login verifies credentials. Unknown emails and wrong passwords both return
// ErrInvalidCredentials after one hash comparison.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := validate(in); err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "invalid").Inc()
		return nil, err
	}

	u, err := s.Users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if u == nil {
		s.Hasher.Compare(s.dummy(), in.Password)
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, ErrInvalidCredentials
	}
	if !s.Hasher.Compare(u.Password, in.Password) {
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	return res, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	uid, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.Users.GetByID(ctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserGone
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *AuthService) issue(u *entity.User) (*AuthResult, error) {
	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("issue token failed")
		}
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

// dummy returns a hash that no password matches, computed on first use.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash("campus-events-placeholder")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AuthService) notify(ctx context.Context, job mailer.EmailJob) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", job.Template).Warn("enqueue email failed")
	}
}
