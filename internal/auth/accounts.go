package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/hexblog/hexblog/internal/database"
)

// UsersPerPage is the page size of the admin user list.
const UsersPerPage = 10

// ProfileInput is the profile form.
type ProfileInput struct {
	DisplayName string
	Bio         string
	Website     string
}

// ListUsers returns a page of users, newest first, and the total count.
func (s *Service) ListUsers(ctx context.Context, page int) ([]database.User, int64, error) {
	return s.db.ListUsers(ctx, page, UsersPerPage)
}

// ToggleApproval flips the approval flag of a user. Admins cannot change their own approval.
func (s *Service) ToggleApproval(ctx context.Context, adminID, userID uint) (*database.User, error) {
	if adminID == userID {
		return nil, ErrForbidden
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	approved := !user.Approved
	if err := s.db.SetUserApproved(ctx, user.ID, approved); err != nil {
		return nil, notFound(err)
	}
	user.Approved = approved

	log.Info("user approval changed", "user_id", user.ID, "approved", approved, "by", adminID)
	if approved {
		s.notifier.AccountApproved(ctx, user)
	}
	return user, nil
}

// ApproveUser approves the account with the given email.
func (s *Service) ApproveUser(ctx context.Context, email string) (*database.User, error) {
	user, err := s.db.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFound(err)
	}
	if user.Approved {
		return user, nil
	}
	if err := s.db.SetUserApproved(ctx, user.ID, true); err != nil {
		return nil, notFound(err)
	}
	user.Approved = true
	s.notifier.AccountApproved(ctx, user)
	return user, nil
}

// SetRegistrationEnabled opens or closes registration. The flag lives on the site admin record.
func (s *Service) SetRegistrationEnabled(ctx context.Context, enabled bool) error {
	admin, err := s.db.GetSiteAdmin(ctx)
	if err != nil {
		return notFound(err)
	}
	if err := s.db.SetRegistrationEnabled(ctx, admin.ID, enabled); err != nil {
		return notFound(err)
	}
	log.Info("registration toggled", "enabled", enabled)
	return nil
}

// UpdateProfile validates and stores the profile fields of a user.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) error {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Website = strings.TrimSpace(in.Website)

	if utf8.RuneCountInString(in.DisplayName) > 255 {
		return invalid("display_name", "Display name must be at most 255 characters")
	}
	if utf8.RuneCountInString(in.Bio) > 1000 {
		return invalid("bio", "Bio must be at most 1000 characters")
	}
	if in.Website != "" && !validWebsite(in.Website) {
		return invalid("website", "Website must be a valid http or https URL")
	}

	if err := s.db.UpdateUserProfile(ctx, userID, in.DisplayName, in.Bio, in.Website); err != nil {
		return notFound(err)
	}
	return nil
}

func validWebsite(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DeleteAccount deletes a non admin account together with its posts, comments and backup codes.
func (s *Service) DeleteAccount(ctx context.Context, userID uint) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if IsAdmin(user) {
		return ErrForbidden
	}
	if err := s.db.DeleteUser(ctx, user.ID); err != nil {
		return notFound(err)
	}
	log.Info("account deleted", "user_id", user.ID, "username", user.Username)
	return nil
}

// CreateAdmin creates an approved admin account regardless of the registration setting.
func (s *Service) CreateAdmin(ctx context.Context, email, username, password string) (*database.User, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	if err := s.validateNewAccount(ctx, email, username, password, password); err != nil {
		return nil, err
	}

	user, first, err := s.createAccount(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	if first {
		return user, nil
	}

	if err := s.db.GrantRole(ctx, user.ID, database.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to grant admin role: %w", err)
	}
	if err := s.db.SetUserApproved(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("failed to approve admin: %w", err)
	}
	return s.getUser(ctx, user.ID)
}
