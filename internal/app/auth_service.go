package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"cahier-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByResetToken(ctx context.Context, token string) (domain.User, error)
	UpdateUser(ctx context.Context, u domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Mailer delivers password reset tokens. Actual email transport lives outside
// this service.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes the reset token to the log instead of sending email.
// Default wiring for deployments without an email provider.
type LogMailer struct {
	log *zap.SugaredLogger
}

func NewLogMailer(log *zap.SugaredLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.log.Infow("password reset requested", "email", email, "token", token)
	return nil
}

// Claims is the authenticated identity carried by a session token.
type Claims struct {
	UserID string
	Role   domain.Role
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService covers registration, login and the password reset flow.
type AuthService struct {
	users    UserRepository
	mailer   Mailer
	secret   []byte
	tokenTTL time.Duration
	resetTTL time.Duration
	clock    func() time.Time
}

func NewAuthService(users UserRepository, mailer Mailer, secret string, tokenTTL, resetTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		mailer:   mailer,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		resetTTL: resetTTL,
		clock:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.User{}, domain.Invalidf("email is required")
	}
	if name == "" {
		return domain.User{}, domain.Invalidf("name is required")
	}
	if len(password) < 8 {
		return domain.User{}, domain.Invalidf("password must be at least 8 characters")
	}
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return domain.User{}, domain.ErrEmailTaken
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         domain.RoleUser,
		PasswordHash: string(hash),
		CreatedAt:    s.clock(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login verifies the credentials and issues a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.User{}, domain.ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	now := s.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", domain.User{}, err
	}
	return signed, user, nil
}

// ParseToken validates a session token and returns its identity.
func (s *AuthService) ParseToken(raw string) (Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.clock() }))
	if err != nil || !token.Valid {
		return Claims{}, domain.ErrInvalidCredentials
	}
	return Claims{UserID: claims.Subject, Role: domain.Role(claims.Role)}, nil
}

// RequestPasswordReset issues a single-use token. Unknown emails are silently
// accepted so the endpoint cannot be used for account enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	expires := s.clock().Add(s.resetTTL)
	user.ResetToken = uuid.NewString()
	user.ResetTokenExpires = &expires
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, user.ResetToken)
}

// ResetPassword consumes a reset token and installs the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidResetToken
	}
	if len(newPassword) < 8 {
		return domain.Invalidf("password must be at least 8 characters")
	}
	user, err := s.users.GetUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}
	if user.ResetTokenExpires == nil || s.clock().After(*user.ResetTokenExpires) {
		return domain.ErrInvalidResetToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.ResetToken = ""
	user.ResetTokenExpires = nil
	return s.users.UpdateUser(ctx, user)
}
