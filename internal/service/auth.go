package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pkordes/atob/internal/auth"
	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/logging"
	"github.com/pkordes/atob/internal/repo"
	"github.com/pkordes/atob/internal/validate"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) bool
}

// TokenIssuer signs access tokens and single-purpose tokens.
type TokenIssuer interface {
	IssueAccess(u domain.User) (string, time.Time, error)
	IssuePurpose(u domain.User, p auth.Purpose) (string, error)
	VerifyPurpose(raw string, p auth.Purpose, u domain.User) error
}

// Mailer sends the transactional emails.
type Mailer interface {
	SendAccountCreated(ctx context.Context, u domain.User, confirmURL string) error
	SendEmailChanged(ctx context.Context, u domain.User, confirmURL string) error
	SendPasswordReset(ctx context.Context, u domain.User, resetURL string) error
	SendContact(ctx context.Context, req domain.ContactRequest) error
}

// Links are the front-end pages that emailed tokens are appended to.
type Links struct {
	ConfirmEmailURL  string
	ResetPasswordURL string
}

// link appends token and email as query parameters to base.
func link(base, token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// ResetPasswordInput is the payload of a password reset.
type ResetPasswordInput struct {
	Email                string
	Token                string
	Password             string
	PasswordConfirmation string
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService implements registration, email confirmation, login and
// password reset.
type AuthService struct {
	users  repo.UserRepo
	hasher PasswordHasher
	tokens TokenIssuer
	mailer Mailer
	links  Links
	now    Clock
}

// NewAuthService constructs an AuthService. A nil clock means time.Now.
func NewAuthService(users repo.UserRepo, hasher PasswordHasher, tokens TokenIssuer, mailer Mailer, links Links, now Clock) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, mailer: mailer, links: links, now: clockOrNow(now)}
}

// Register creates an unconfirmed account and mails its confirmation link.
// A mail failure is logged; the account is kept and the call succeeds.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	var v domain.ValidationError
	validateUsername(&v, in.Username)
	validateEmail(&v, in.Email)
	validatePassword(&v, "password", in.Password)
	if in.ConfirmPassword != in.Password {
		v.Add("confirm_password", domain.CodeMismatch, "confirm_password does not match password")
	}
	if err := v.Err(); err != nil {
		return domain.User{}, err
	}
	for _, f := range []struct{ name, value string }{{"username", in.Username}, {"email", in.Email}} {
		if err := loginFree(ctx, s.users, uuid.Nil, f.name, f.value); err != nil {
			return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", err)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}
	user, err := s.users.Create(ctx, domain.User{
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  hash,
		SecurityStamp: uuid.New(),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}

	if err := s.sendConfirmation(ctx, user, s.mailer.SendAccountCreated); err != nil {
		logging.FromContext(ctx).Warn("account created but confirmation mail failed",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return user, nil
}

func (s *AuthService) sendConfirmation(ctx context.Context, u domain.User, send func(context.Context, domain.User, string) error) error {
	token, err := s.tokens.IssuePurpose(u, auth.PurposeConfirmEmail)
	if err != nil {
		return err
	}
	return send(ctx, u, link(s.links.ConfirmEmailURL, token, u.Email))
}

// ConfirmEmail marks the address confirmed and grants the User role.
// Unknown addresses and bad tokens both return domain.ErrUnauthorized.
func (s *AuthService) ConfirmEmail(ctx context.Context, email, token string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: invalid confirmation token", domain.ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("service.AuthService.ConfirmEmail: %w", err)
	}
	if err := s.tokens.VerifyPurpose(token, auth.PurposeConfirmEmail, user); err != nil {
		return fmt.Errorf("service.AuthService.ConfirmEmail: %w", err)
	}

	user.EmailConfirmed = true
	if !user.HasRole(domain.RoleUser) {
		user.Roles = append(user.Roles, domain.RoleUser)
	}
	user.SecurityStamp = uuid.New()
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service.AuthService.ConfirmEmail: %w", err)
	}
	return nil
}

// Login checks credentials given as an email or a username. Five wrong
// passwords in a row lock the account for an hour. Accounts whose email is
// unconfirmed cannot log in even with the right password.
func (s *AuthService) Login(ctx context.Context, login, password string) (AccessToken, error) {
	invalid := fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)

	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, domain.ErrNotFound) {
		return AccessToken{}, invalid
	}
	if err != nil {
		return AccessToken{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}

	now := s.now()
	if user.LockedOut(now) {
		return AccessToken{}, domain.ErrLockedOut
	}

	if !s.hasher.Check(user.PasswordHash, password) {
		counted, err := s.users.RecordFailedLogin(ctx, user.ID, domain.MaxFailedLogins, now.Add(domain.LockoutDuration))
		if err != nil {
			return AccessToken{}, fmt.Errorf("service.AuthService.Login: %w", err)
		}
		if counted.LockedOut(now) {
			return AccessToken{}, domain.ErrLockedOut
		}
		return AccessToken{}, invalid
	}

	if !user.EmailConfirmed {
		return AccessToken{}, domain.ErrEmailNotConfirmed
	}

	if user.FailedLogins != 0 || user.LockoutEnd != nil {
		if user, err = s.users.ClearFailedLogins(ctx, user.ID); err != nil {
			return AccessToken{}, fmt.Errorf("service.AuthService.Login: %w", err)
		}
	}

	token, expires, err := s.tokens.IssueAccess(user)
	if err != nil {
		return AccessToken{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	return AccessToken{Token: token, ExpiresAt: expires, User: user}, nil
}

// ForgotPassword mails a reset link when the address belongs to an account.
// It reports success either way so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("service.AuthService.ForgotPassword: %w", err)
	}

	token, err := s.tokens.IssuePurpose(user, auth.PurposeResetPassword)
	if err != nil {
		return fmt.Errorf("service.AuthService.ForgotPassword: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, user, link(s.links.ResetPasswordURL, token, user.Email)); err != nil {
		logging.FromContext(ctx).Warn("password reset mail failed",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password. The security stamp rotates, so the
// token cannot be used twice and outstanding tokens die with it.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	var v domain.ValidationError
	validatePassword(&v, "password", in.Password)
	if in.PasswordConfirmation != in.Password {
		v.Add("password_confirmation", domain.CodeMismatch, "password_confirmation does not match password")
	}
	if err := v.Err(); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: invalid reset token", domain.ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("service.AuthService.ResetPassword: %w", err)
	}
	if err := s.tokens.VerifyPurpose(in.Token, auth.PurposeResetPassword, user); err != nil {
		return fmt.Errorf("service.AuthService.ResetPassword: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("service.AuthService.ResetPassword: %w", err)
	}
	user.PasswordHash = hash
	user.SecurityStamp = uuid.New()
	user.FailedLogins = 0
	user.LockoutEnd = nil
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service.AuthService.ResetPassword: %w", err)
	}
	return nil
}

var takenMessages = map[string]string{
	"username": "username is already taken",
	"email":    "email is already registered",
}

// loginFree returns domain.ErrConflict when value is another account's
// username or email. Logins accept either, so the two namespaces are shared.
func loginFree(ctx context.Context, users repo.UserRepo, self uuid.UUID, field, value string) error {
	other, err := users.GetByLogin(ctx, value)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID == self:
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrConflict, takenMessages[field])
}

func validateUsername(v *domain.ValidationError, name string) {
	checkLength(v, "username", name, domain.UsernameMin, domain.UsernameMax)
	if name != "" && !validate.ValidUsername(name) {
		v.Add("username", domain.CodeInvalidFormat, "username may only contain letters, digits and the characters - . _ @ +")
	}
}

func validateEmail(v *domain.ValidationError, email string) {
	if email == "" {
		v.Add("email", domain.CodeRequired, "email is required")
		return
	}
	if !validate.Email(email) {
		v.Add("email", domain.CodeInvalidFormat, "email must be a valid email address")
	}
}

func validatePassword(v *domain.ValidationError, field, pw string) {
	if pw == "" {
		v.Add(field, domain.CodeRequired, field+" is required")
		return
	}
	if issues := validate.PasswordIssues(pw); len(issues) > 0 {
		v.Add(field, domain.CodeWeakPassword, field+": "+strings.Join(issues, "; "))
	}
}

