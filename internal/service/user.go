package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pkordes/atob/internal/auth"
	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/logging"
	"github.com/pkordes/atob/internal/repo"
)

// Contact form limits.
const (
	ContactNameMax    = 100
	ContactSubjectMax = 200
	ContactBodyMax    = 5000
)

// UserService serves the caller's own account and the contact form.
type UserService struct {
	users  repo.UserRepo
	tokens TokenIssuer
	mailer Mailer
	links  Links
}

// NewUserService constructs a UserService.
func NewUserService(users repo.UserRepo, tokens TokenIssuer, mailer Mailer, links Links) *UserService {
	return &UserService{users: users, tokens: tokens, mailer: mailer, links: links}
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context) (domain.User, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Me: %w", err)
	}
	return user, nil
}

// UpdateUsername renames the caller. Taken names return domain.ErrConflict.
func (s *UserService) UpdateUsername(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	var v domain.ValidationError
	validateUsername(&v, username)
	if err := v.Err(); err != nil {
		return domain.User{}, err
	}

	user, err := s.Me(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if err := loginFree(ctx, s.users, user.ID, "username", username); err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateUsername: %w", err)
	}
	user.Username = username
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateUsername: %w", err)
	}
	return updated, nil
}

// UpdateEmail changes the caller's address. The new address starts
// unconfirmed and a confirmation link is mailed to it.
func (s *UserService) UpdateEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.TrimSpace(email)
	var v domain.ValidationError
	validateEmail(&v, email)
	if err := v.Err(); err != nil {
		return domain.User{}, err
	}

	user, err := s.Me(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if strings.EqualFold(user.Email, email) {
		return user, nil
	}
	if err := loginFree(ctx, s.users, user.ID, "email", email); err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateEmail: %w", err)
	}

	user.Email = email
	user.EmailConfirmed = false
	user.SecurityStamp = uuid.New()
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateEmail: %w", err)
	}

	if err := s.sendConfirmation(ctx, updated); err != nil {
		logging.FromContext(ctx).Warn("email changed but confirmation mail failed",
			zap.String("user_id", updated.ID.String()), zap.Error(err))
	}
	return updated, nil
}

func (s *UserService) sendConfirmation(ctx context.Context, u domain.User) error {
	token, err := s.tokens.IssuePurpose(u, auth.PurposeConfirmEmail)
	if err != nil {
		return err
	}
	return s.mailer.SendEmailChanged(ctx, u, link(s.links.ConfirmEmailURL, token, u.Email))
}

// Contact forwards a visitor message to support. Unlike registration mail,
// a delivery failure is returned: the visitor has nothing else to show for
// the request.
func (s *UserService) Contact(ctx context.Context, req domain.ContactRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Body = strings.TrimSpace(req.Body)

	var v domain.ValidationError
	checkMax(&v, "name", req.Name, ContactNameMax)
	validateEmail(&v, req.Email)
	checkMax(&v, "subject", req.Subject, ContactSubjectMax)
	checkMax(&v, "body", req.Body, ContactBodyMax)
	if err := v.Err(); err != nil {
		return err
	}

	if err := s.mailer.SendContact(ctx, req); err != nil {
		return fmt.Errorf("service.UserService.Contact: %w", err)
	}
	return nil
}

func checkMax(v *domain.ValidationError, field, value string, maxLen int) {
	switch n := utf8.RuneCountInString(value); {
	case n == 0:
		v.Add(field, domain.CodeRequired, field+" is required")
	case n > maxLen:
		v.Add(field, domain.CodeTooLong, fmt.Sprintf("%s must be at most %d characters", field, maxLen))
	}
}
