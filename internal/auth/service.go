package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hexblog/hexblog/internal/database"
	"gorm.io/gorm"
)

// Notifier is told about account events. Implementations log their own delivery failures.
type Notifier interface {
	RegistrationPending(ctx context.Context, admins []database.User, user *database.User)
	AccountApproved(ctx context.Context, user *database.User)
}

type noopNotifier struct{}

func (noopNotifier) RegistrationPending(context.Context, []database.User, *database.User) {}
func (noopNotifier) AccountApproved(context.Context, *database.User)                      {}

// Service implements the login, registration and two factor flows.
type Service struct {
	db       database.UserDB
	issuer   string
	notifier Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the notifier for registration and approval events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the time source used for TOTP validation and login timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new auth service. issuer is the name shown in authenticator apps.
func NewService(db database.UserDB, issuer string, opts ...Option) *Service {
	s := &Service{
		db:       db,
		issuer:   issuer,
		notifier: noopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Confirm  string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Login checks the credentials. It returns AwaitingTwoFactor when the account has
// two factor authentication enabled and Authenticated otherwise.
func (s *Service) Login(ctx context.Context, email, password string) (State, error) {
	user, err := s.db.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			CheckPassword(dummyHash(), password)
			return Anonymous{}, ErrInvalidCredentials
		}
		return Anonymous{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) || !user.Active {
		return Anonymous{}, ErrInvalidCredentials
	}
	if !user.Approved {
		return Anonymous{}, ErrPendingApproval
	}

	if user.TOTPEnabled {
		log.Debug("password accepted, awaiting second factor", "user_id", user.ID)
		return AwaitingTwoFactor{UserID: user.ID, Uniquifier: user.Uniquifier}, nil
	}

	return s.complete(ctx, user)
}

func (s *Service) complete(ctx context.Context, user *database.User) (State, error) {
	if err := s.db.UpdateUserLastLogin(ctx, user.ID, s.now()); err != nil {
		return Anonymous{}, fmt.Errorf("failed to record login: %w", err)
	}
	log.Info("user logged in", "user_id", user.ID)
	return Authenticated{UserID: user.ID, Uniquifier: user.Uniquifier}, nil
}

// pendingUser loads the user behind a pending login and checks the login is still valid.
func (s *Service) pendingUser(ctx context.Context, state State) (AwaitingTwoFactor, *database.User, error) {
	pending, ok := state.(AwaitingTwoFactor)
	if !ok {
		return AwaitingTwoFactor{}, nil, ErrNotAwaitingTwoFactor
	}
	user, err := s.db.GetUserByID(ctx, pending.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pending, nil, ErrNotAwaitingTwoFactor
		}
		return pending, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.Uniquifier != pending.Uniquifier || !user.TOTPEnabled || !user.Active || !user.Approved {
		return pending, nil, ErrNotAwaitingTwoFactor
	}
	return pending, user, nil
}

// VerifySecondFactor completes a pending login with a TOTP code or an unused backup code.
// On failure the returned state is the unchanged input state.
func (s *Service) VerifySecondFactor(ctx context.Context, state State, code string) (State, error) {
	_, user, err := s.pendingUser(ctx, state)
	if err != nil {
		if errors.Is(err, ErrNotAwaitingTwoFactor) {
			return Anonymous{}, err
		}
		return state, err
	}

	if user.TOTPSecret != nil && ValidateTOTP(code, *user.TOTPSecret, s.now()) {
		return s.complete(ctx, user)
	}

	return s.consumeBackupCode(ctx, state, user, code)
}

// VerifyRecoveryCode completes a pending login with a backup code only.
func (s *Service) VerifyRecoveryCode(ctx context.Context, state State, code string) (State, error) {
	_, user, err := s.pendingUser(ctx, state)
	if err != nil {
		if errors.Is(err, ErrNotAwaitingTwoFactor) {
			return Anonymous{}, err
		}
		return state, err
	}
	return s.consumeBackupCode(ctx, state, user, code)
}

func (s *Service) consumeBackupCode(ctx context.Context, state State, user *database.User, code string) (State, error) {
	if NormalizeBackupCode(code) == "" {
		return state, ErrInvalidCode
	}

	consumed, err := s.db.ConsumeBackupCode(ctx, user.ID, FingerprintBackupCode(code), s.now())
	if err != nil {
		return state, fmt.Errorf("failed to consume backup code: %w", err)
	}
	if !consumed {
		return state, ErrInvalidCode
	}

	log.Info("user logged in with backup code", "user_id", user.ID)
	return Authenticated{UserID: user.ID, Uniquifier: user.Uniquifier}, nil
}

// ResolveUser returns the user of an authenticated session.
// It returns ErrNotFound when the session no longer matches an active account.
func (s *Service) ResolveUser(ctx context.Context, state State) (*database.User, error) {
	authed, ok := state.(Authenticated)
	if !ok {
		return nil, ErrNotFound
	}
	user, err := s.db.GetUserByID(ctx, authed.UserID)
	if err != nil {
		return nil, notFound(err)
	}
	if user.Uniquifier != authed.Uniquifier || !user.Active {
		return nil, ErrNotFound
	}
	return user, nil
}

// RegistrationEnabled reports whether new accounts can register.
// Registration is always open while no user exists.
func (s *Service) RegistrationEnabled(ctx context.Context) (bool, error) {
	count, err := s.db.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return true, nil
	}
	admin, err := s.db.GetSiteAdmin(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return admin.RegistrationEnabled, nil
}

func (s *Service) validateNewAccount(ctx context.Context, email, username, password, confirm string) error {
	// a mismatch is reported before any other field problem
	if password != confirm {
		return invalid("confirm", "Passwords must match")
	}

	switch {
	case email == "":
		return invalid("email", "Email is required")
	case !strings.Contains(email, "@") || !strings.Contains(email, "."):
		return invalid("email", "Please enter a valid email address")
	case len(email) > 255:
		return invalid("email", "Email must be at most 255 characters")
	case username == "":
		return invalid("username", "Username is required")
	case len(username) > 255:
		return invalid("username", "Username must be at most 255 characters")
	case password == "":
		return invalid("password", "Password is required")
	case len(password) > maxPasswordBytes:
		return invalid("password", fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
	}

	if _, err := s.db.GetUserByEmail(ctx, email); err == nil {
		return invalid("email", "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.db.GetUserByUsername(ctx, username); err == nil {
		return invalid("username", "Username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (s *Service) createAccount(ctx context.Context, email, username, password string) (*database.User, bool, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Active:       true,
	}
	first, err := s.db.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, invalid("email", "Email or username already taken")
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, first, nil
}

// Register creates a new account. The first account becomes the approved site admin
// with registration enabled. Later accounts wait for approval.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*database.User, error) {
	enabled, err := s.RegistrationEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}
	if !enabled {
		return nil, ErrRegistrationDisabled
	}

	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if err := s.validateNewAccount(ctx, email, username, in.Password, in.Confirm); err != nil {
		return nil, err
	}

	user, first, err := s.createAccount(ctx, email, username, in.Password)
	if err != nil {
		return nil, err
	}

	if first {
		log.Info("first user registered and promoted to admin", "user_id", user.ID, "username", user.Username)
		return user, nil
	}

	log.Info("new user registered, awaiting approval", "user_id", user.ID, "username", user.Username)
	if admins, err := s.db.GetAdmins(ctx); err == nil {
		s.notifier.RegistrationPending(ctx, admins, user)
	}
	return user, nil
}

func (s *Service) getUser(ctx context.Context, userID uint) (*database.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// BeginTwoFactorSetup provisions a secret if the user has none and returns the enrollment data.
// Two factor authentication stays inactive until ConfirmTwoFactorSetup succeeds.
func (s *Service) BeginTwoFactorSetup(ctx context.Context, userID uint) (*Enrollment, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	var secret string
	if user.TOTPSecret != nil {
		secret = *user.TOTPSecret
	}

	key, err := newTOTPKey(s.issuer, user.Email, secret)
	if err != nil {
		return nil, err
	}
	if secret == "" {
		if err := s.db.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
			return nil, fmt.Errorf("failed to store totp secret: %w", err)
		}
	}

	return newEnrollment(key)
}

// ConfirmTwoFactorSetup enables two factor authentication after the user proves possession
// of the secret. It returns the new backup codes; they are not retrievable later.
func (s *Service) ConfirmTwoFactorSetup(ctx context.Context, userID uint, code string) ([]string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}
	if user.TOTPSecret == nil || !ValidateTOTP(code, *user.TOTPSecret, s.now()) {
		return nil, ErrInvalidCode
	}

	codes, err := GenerateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}
	if err := s.db.EnableTOTP(ctx, user.ID, fingerprintAll(codes)); err != nil {
		return nil, fmt.Errorf("failed to enable two-factor authentication: %w", err)
	}

	log.Info("two-factor authentication enabled", "user_id", user.ID)
	return codes, nil
}

// DisableTwoFactor removes the secret and every backup code.
func (s *Service) DisableTwoFactor(ctx context.Context, userID uint) error {
	if err := s.db.DisableTOTP(ctx, userID); err != nil {
		return notFound(err)
	}
	log.Info("two-factor authentication disabled", "user_id", userID)
	return nil
}

// RegenerateBackupCodes replaces every backup code of the user with a new set.
func (s *Service) RegenerateBackupCodes(ctx context.Context, userID uint) ([]string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TOTPEnabled {
		return nil, ErrTwoFactorNotEnabled
	}

	codes, err := GenerateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}
	if err := s.db.ReplaceBackupCodes(ctx, user.ID, fingerprintAll(codes)); err != nil {
		return nil, fmt.Errorf("failed to store backup codes: %w", err)
	}
	return codes, nil
}

// BackupCodesRemaining returns how many unused backup codes the user has.
func (s *Service) BackupCodesRemaining(ctx context.Context, userID uint) (int64, error) {
	return s.db.CountBackupCodes(ctx, userID)
}

// ResetTwoFactor disables two factor authentication for the account with the given email.
// It is the recovery path for users who lost both their authenticator and backup codes.
func (s *Service) ResetTwoFactor(ctx context.Context, email string) (*database.User, error) {
	user, err := s.db.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFound(err)
	}
	if !user.TOTPEnabled {
		return nil, ErrTwoFactorNotEnabled
	}
	if err := s.DisableTwoFactor(ctx, user.ID); err != nil {
		return nil, err
	}
	user.TOTPEnabled = false
	return user, nil
}
