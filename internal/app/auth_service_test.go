package app_test

import (
	"context"
	"testing"
	"time"

	"cahier-service/internal/app"
	"cahier-service/internal/domain"
	"cahier-service/internal/infra/memory"
	"go.uber.org/zap"
)

type captureMailer struct {
	email string
	token string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.email = email
	m.token = token
	return nil
}

func newAuthService(mailer app.Mailer) *app.AuthService {
	if mailer == nil {
		mailer = app.NewLogMailer(zap.NewNop().Sugar())
	}
	return app.NewAuthService(memory.NewUserRepository(), mailer, "test-secret", time.Hour, 30*time.Minute)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	service := newAuthService(nil)

	user, err := service.Register(ctx, "Alice@Example.FR", "Alice", "mot-de-passe")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.fr" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role, got %q", user.Role)
	}

	token, logged, err := service.Login(ctx, "alice@example.fr", "mot-de-passe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("expected same account")
	}

	claims, err := service.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestRegisterRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	ctx := context.Background()
	service := newAuthService(nil)

	if _, err := service.Register(ctx, "a@b.fr", "A", "mot-de-passe"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Register(ctx, "a@b.fr", "B", "mot-de-passe"); err != domain.ErrEmailTaken {
		t.Fatalf("expected email taken, got %v", err)
	}
	if _, err := service.Register(ctx, "c@d.fr", "C", "court"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	service := newAuthService(nil)

	if _, _, err := service.Login(ctx, "ghost@b.fr", "mot-de-passe"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
	if _, err := service.Register(ctx, "a@b.fr", "A", "mot-de-passe"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := service.Login(ctx, "a@b.fr", "faux"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials for wrong password, got %v", err)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	service := newAuthService(nil)
	if _, err := service.ParseToken("not-a-token"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	mailer := &captureMailer{}
	service := newAuthService(mailer)

	if _, err := service.Register(ctx, "a@b.fr", "A", "ancien-mdp"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Unknown emails are silently accepted.
	if err := service.RequestPasswordReset(ctx, "ghost@b.fr"); err != nil {
		t.Fatalf("expected silent accept, got %v", err)
	}
	if mailer.token != "" {
		t.Fatalf("no token should be issued for unknown email")
	}

	if err := service.RequestPasswordReset(ctx, "a@b.fr"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if mailer.email != "a@b.fr" || mailer.token == "" {
		t.Fatalf("expected token delivery, got %+v", mailer)
	}

	if err := service.ResetPassword(ctx, mailer.token, "nouveau-mdp"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, _, err := service.Login(ctx, "a@b.fr", "nouveau-mdp"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := service.Login(ctx, "a@b.fr", "ancien-mdp"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password must be rejected, got %v", err)
	}

	// The token is single-use.
	if err := service.ResetPassword(ctx, mailer.token, "encore-un-mdp"); err != domain.ErrInvalidResetToken {
		t.Fatalf("expected invalid token on reuse, got %v", err)
	}
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	auth := app.NewAuthService(users, app.NewLogMailer(zap.NewNop().Sugar()), "s", time.Hour, time.Hour)
	service := app.NewUserService(users)

	user, err := auth.Register(ctx, "a@b.fr", "A", "mot-de-passe")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	promoted, err := service.ChangeRole(ctx, user.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if promoted.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %q", promoted.Role)
	}
	if _, err := service.ChangeRole(ctx, user.ID, "super"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
}
