// Package services содержит регистрацию, вход, подтверждение email и проверку JWT.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/17marcomoreira-hue/sportswissapp/internal/access"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/jwt"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/password"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
	"github.com/17marcomoreira-hue/sportswissapp/internal/rabbitmq"
)

// AccountRepository описывает хранилище учётных записей и флага повторной отправки письма.
type AccountRepository interface {
	CreateAccount(ctx context.Context, email, passwordHash string) (string, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	SetAccountVerified(ctx context.Context, uid string) error
	SetResendVerify(ctx context.Context, uid string, on bool) error
}

// ProfileEnsurer создаёт профиль при первом входе и обновляет его при последующих.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, p models.Principal) (*models.User, error)
}

// Publisher публикует уведомления в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	log        *slog.Logger
	accounts   AccountRepository
	profiles   ProfileEnsurer
	jwtMaker   jwt.Maker
	publisher  Publisher
	adminEmail string
	verifyURL  string
}

// NewAuthService создает новый экземпляр AuthService. publisher может быть nil.
func NewAuthService(log *slog.Logger, accounts AccountRepository, profiles ProfileEnsurer, jwtMaker jwt.Maker,
	publisher Publisher, adminEmail, verifyURL string) *AuthService {
	return &AuthService{
		log:        log,
		accounts:   accounts,
		profiles:   profiles,
		jwtMaker:   jwtMaker,
		publisher:  publisher,
		adminEmail: adminEmail,
		verifyURL:  verifyURL,
	}
}

// Register создаёт учётную запись, профиль с пробным периодом и отправляет письмо подтверждения.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "services.auth.Register"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", models.ErrEmptyEmail
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.accounts.CreateAccount(ctx, email, hashed)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err = s.profiles.EnsureProfile(ctx, models.Principal{UID: uid, Email: email}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.sendVerification(ctx, uid, email)
	return uid, nil
}

// Login проверяет пароль и выпускает токен доступа.
// Роль admin выдаётся, только если email совпадает с адресом администратора.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (token, role string, err error) {
	const op = "services.auth.Login"

	acc, err := s.accounts.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return "", "", models.ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(acc.PasswordHash, rawPassword); err != nil {
		return "", "", models.ErrInvalidCredentials
	}

	role = models.RoleUser
	if access.IsAdminEmail(acc.Email, s.adminEmail) {
		role = models.RoleAdmin
	}

	profile, err := s.profiles.EnsureProfile(ctx, models.Principal{UID: acc.UID, Email: acc.Email, Role: role})
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if profile.AdminResendVerify && !profile.Verified() {
		s.sendVerification(ctx, acc.UID, acc.Email)
	}
	if profile.AdminResendVerify {
		if err = s.accounts.SetResendVerify(ctx, acc.UID, false); err != nil {
			s.log.Warn("failed to clear resend flag", slog.String("op", op), sl.Err(err))
		}
	}

	token, err = s.jwtMaker.GenerateToken(acc.UID, acc.Email, role)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, role, nil
}

// VerifyEmail подтверждает email по токену из письма.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	const op = "services.auth.VerifyEmail"

	uid, err := s.jwtMaker.ParseVerificationToken(token)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = s.accounts.SetAccountVerified(ctx, uid); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// ValidateToken проверяет JWT и возвращает пользователя запроса.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.Principal, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.Principal{
		UID:   claims.UserUID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// sendVerification публикует письмо подтверждения. Ошибка только логируется: регистрация уже выполнена.
func (s *AuthService) sendVerification(ctx context.Context, uid, email string) {
	const op = "services.auth.sendVerification"
	log := s.log.With(slog.String("op", op), slog.String("uid", uid))
	if s.publisher == nil {
		log.Warn("notifications are disabled, verification email not sent")
		return
	}

	token, err := s.jwtMaker.GenerateVerificationToken(uid)
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return
	}
	msg := models.Notification{
		Kind:  models.NotificationVerification,
		Email: email,
		Link:  VerificationLink(s.verifyURL, token),
	}
	if err = s.publisher.Publish(ctx, rabbitmq.RoutingVerification, msg); err != nil {
		log.Error("failed to publish verification email", sl.Err(err))
		return
	}
	log.Info("verification email queued")
}

// VerificationLink добавляет token к адресу подтверждения.
func VerificationLink(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}
