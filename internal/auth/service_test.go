package auth

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hexblog/hexblog/internal/database"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	mu       sync.Mutex
	pending  []string
	approved []string
}

func (n *recordingNotifier) RegistrationPending(_ context.Context, _ []database.User, user *database.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, user.Email)
}

func (n *recordingNotifier) AccountApproved(_ context.Context, user *database.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, user.Email)
}

type ServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *database.Client
	svc      *Service
	notifier *recordingNotifier
	clock    time.Time
}

func (s *ServiceTestSuite) SetupSuite() {
	hashCost = bcrypt.MinCost
}

func (s *ServiceTestSuite) SetupTest() {
	db, err := database.New(filepath.Join(s.T().TempDir(), "auth.db"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	s.ctx = context.Background()
	s.db = db
	s.clock = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	s.notifier = &recordingNotifier{}
	s.svc = NewService(db, "Hex Blog",
		WithNotifier(s.notifier),
		WithClock(func() time.Time { return s.clock }),
	)
}

func (s *ServiceTestSuite) register(email, username string) *database.User {
	user, err := s.svc.Register(s.ctx, RegisterInput{
		Email:    email,
		Username: username,
		Password: "correct horse",
		Confirm:  "correct horse",
	})
	s.Require().NoError(err)
	return user
}

// registerApproved creates an admin and an approved regular user and returns the latter.
func (s *ServiceTestSuite) registerApproved() (admin, user *database.User) {
	admin = s.register("admin@example.com", "admin")
	user = s.register("reader@example.com", "reader")
	_, err := s.svc.ToggleApproval(s.ctx, admin.ID, user.ID)
	s.Require().NoError(err)
	return admin, user
}

func (s *ServiceTestSuite) totpCode(secret string) string {
	code, err := totp.GenerateCodeCustom(secret, s.clock, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	s.Require().NoError(err)
	return code
}

func (s *ServiceTestSuite) enableTwoFactor(userID uint) (string, []string) {
	enrollment, err := s.svc.BeginTwoFactorSetup(s.ctx, userID)
	s.Require().NoError(err)
	codes, err := s.svc.ConfirmTwoFactorSetup(s.ctx, userID, s.totpCode(enrollment.Secret))
	s.Require().NoError(err)
	s.Require().Len(codes, backupCodeCount)
	return enrollment.Secret, codes
}

func (s *ServiceTestSuite) TestLoginWithoutTwoFactor() {
	_, user := s.registerApproved()

	state, err := s.svc.Login(s.ctx, "Reader@Example.com ", "correct horse")
	s.Require().NoError(err)
	s.Equal(Authenticated{UserID: user.ID, Uniquifier: user.Uniquifier}, state)

	got, err := s.db.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LastLoginAt)
	s.True(got.LastLoginAt.Equal(s.clock))
}

func (s *ServiceTestSuite) TestLoginWithTwoFactor() {
	_, user := s.registerApproved()
	secret, _ := s.enableTwoFactor(user.ID)

	state, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)
	s.Equal(AwaitingTwoFactor{UserID: user.ID, Uniquifier: user.Uniquifier}, state)

	state, err = s.svc.VerifySecondFactor(s.ctx, state, s.totpCode(secret))
	s.Require().NoError(err)
	s.IsType(Authenticated{}, state)
}

func (s *ServiceTestSuite) TestLoginInvalidCredentials() {
	s.registerApproved()

	state, err := s.svc.Login(s.ctx, "nobody@example.com", "correct horse")
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Equal(Anonymous{}, state)

	state, err = s.svc.Login(s.ctx, "reader@example.com", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Equal(Anonymous{}, state)
}

func (s *ServiceTestSuite) TestLoginPendingApproval() {
	s.register("admin@example.com", "admin")
	s.register("reader@example.com", "reader")

	_, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.ErrorIs(err, ErrPendingApproval)

	// a wrong password never reveals the approval state
	_, err = s.svc.Login(s.ctx, "reader@example.com", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceTestSuite) TestVerifyRequiresPendingLogin() {
	_, user := s.registerApproved()
	s.enableTwoFactor(user.ID)

	state, err := s.svc.VerifySecondFactor(s.ctx, Anonymous{}, "123456")
	s.ErrorIs(err, ErrNotAwaitingTwoFactor)
	s.Equal(Anonymous{}, state)

	_, err = s.svc.VerifySecondFactor(s.ctx, Authenticated{UserID: user.ID, Uniquifier: user.Uniquifier}, "123456")
	s.ErrorIs(err, ErrNotAwaitingTwoFactor)

	_, err = s.svc.VerifySecondFactor(s.ctx, AwaitingTwoFactor{UserID: user.ID, Uniquifier: "stale"}, "123456")
	s.ErrorIs(err, ErrNotAwaitingTwoFactor)
}

func (s *ServiceTestSuite) TestBackupCodeIsSingleUse() {
	_, user := s.registerApproved()
	_, codes := s.enableTwoFactor(user.ID)

	pending, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)

	state, err := s.svc.VerifySecondFactor(s.ctx, pending, codes[0])
	s.Require().NoError(err)
	s.IsType(Authenticated{}, state)

	pending, err = s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)

	state, err = s.svc.VerifySecondFactor(s.ctx, pending, codes[0])
	s.ErrorIs(err, ErrInvalidCode)
	s.Equal(pending, state)

	remaining, err := s.svc.BackupCodesRemaining(s.ctx, user.ID)
	s.Require().NoError(err)
	s.EqualValues(backupCodeCount-1, remaining)
}

func (s *ServiceTestSuite) TestFailedAttemptConsumesNothing() {
	_, user := s.registerApproved()
	_, codes := s.enableTwoFactor(user.ID)

	pending, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)

	for _, code := range []string{"000000", "", "not-a-code", codes[0] + "x"} {
		state, err := s.svc.VerifySecondFactor(s.ctx, pending, code)
		s.ErrorIs(err, ErrInvalidCode)
		s.Equal(pending, state)
	}

	remaining, err := s.svc.BackupCodesRemaining(s.ctx, user.ID)
	s.Require().NoError(err)
	s.EqualValues(backupCodeCount, remaining)
}

func (s *ServiceTestSuite) TestBackupCodeFormattingIsIgnored() {
	_, user := s.registerApproved()
	_, codes := s.enableTwoFactor(user.ID)

	pending, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)

	state, err := s.svc.VerifyRecoveryCode(s.ctx, pending, " "+NormalizeBackupCode(codes[1])+" ")
	s.Require().NoError(err)
	s.IsType(Authenticated{}, state)
}

func (s *ServiceTestSuite) TestRecoveryRejectsTOTP() {
	_, user := s.registerApproved()
	secret, _ := s.enableTwoFactor(user.ID)

	pending, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)

	_, err = s.svc.VerifyRecoveryCode(s.ctx, pending, s.totpCode(secret))
	s.ErrorIs(err, ErrInvalidCode)
}

func (s *ServiceTestSuite) TestConcurrentBackupCodeUse() {
	_, user := s.registerApproved()
	_, codes := s.enableTwoFactor(user.ID)

	pending, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.svc.VerifySecondFactor(s.ctx, pending, codes[2]); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
}

func (s *ServiceTestSuite) TestRegenerateInvalidatesPreviousCodes() {
	_, user := s.registerApproved()
	_, oldCodes := s.enableTwoFactor(user.ID)

	newCodes, err := s.svc.RegenerateBackupCodes(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Len(newCodes, backupCodeCount)

	for _, code := range oldCodes {
		pending, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
		s.Require().NoError(err)
		_, err = s.svc.VerifyRecoveryCode(s.ctx, pending, code)
		s.ErrorIs(err, ErrInvalidCode)
	}

	pending, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)
	_, err = s.svc.VerifyRecoveryCode(s.ctx, pending, newCodes[0])
	s.NoError(err)
}

func (s *ServiceTestSuite) TestRegenerateRequiresTwoFactor() {
	_, user := s.registerApproved()
	_, err := s.svc.RegenerateBackupCodes(s.ctx, user.ID)
	s.ErrorIs(err, ErrTwoFactorNotEnabled)
}

func (s *ServiceTestSuite) TestSetupRequiresValidCode() {
	_, user := s.registerApproved()

	first, err := s.svc.BeginTwoFactorSetup(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Contains(first.QRCode, "data:image/png;base64,")
	s.Contains(first.URI, "otpauth://totp/")

	second, err := s.svc.BeginTwoFactorSetup(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(first.Secret, second.Secret)

	codes, err := s.svc.ConfirmTwoFactorSetup(s.ctx, user.ID, "000000")
	s.ErrorIs(err, ErrInvalidCode)
	s.Nil(codes)

	got, err := s.db.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.False(got.TOTPEnabled)

	// still a single step login
	state, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)
	s.IsType(Authenticated{}, state)

	s.enableTwoFactor(user.ID)
	_, err = s.svc.BeginTwoFactorSetup(s.ctx, user.ID)
	s.ErrorIs(err, ErrTwoFactorAlreadyEnabled)
}

func (s *ServiceTestSuite) TestTOTPSkew() {
	_, user := s.registerApproved()
	secret, _ := s.enableTwoFactor(user.ID)
	code := s.totpCode(secret)

	s.True(ValidateTOTP(code, secret, s.clock.Add(30*time.Second)))
	s.False(ValidateTOTP(code, secret, s.clock.Add(2*time.Minute)))
}

func (s *ServiceTestSuite) TestDisableTwoFactor() {
	_, user := s.registerApproved()
	_, codes := s.enableTwoFactor(user.ID)

	s.Require().NoError(s.svc.DisableTwoFactor(s.ctx, user.ID))

	got, err := s.db.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.False(got.TOTPEnabled)
	s.Nil(got.TOTPSecret)

	state, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.Require().NoError(err)
	s.IsType(Authenticated{}, state)

	// a stale pending login cannot be completed with an old code
	_, err = s.svc.VerifySecondFactor(s.ctx, AwaitingTwoFactor{UserID: user.ID, Uniquifier: user.Uniquifier}, codes[0])
	s.ErrorIs(err, ErrNotAwaitingTwoFactor)
}

func (s *ServiceTestSuite) TestResetTwoFactor() {
	_, user := s.registerApproved()

	_, err := s.svc.ResetTwoFactor(s.ctx, "reader@example.com")
	s.ErrorIs(err, ErrTwoFactorNotEnabled)

	s.enableTwoFactor(user.ID)
	got, err := s.svc.ResetTwoFactor(s.ctx, " Reader@Example.com ")
	s.Require().NoError(err)
	s.False(got.TOTPEnabled)

	remaining, err := s.svc.BackupCodesRemaining(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Zero(remaining)

	_, err = s.svc.ResetTwoFactor(s.ctx, "nobody@example.com")
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceTestSuite) TestRegisterPasswordMismatch() {
	_, err := s.svc.Register(s.ctx, RegisterInput{
		Email:    "a@example.com",
		Username: "alice",
		Password: "one",
		Confirm:  "two",
	})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Message, "must match")

	count, err := s.db.CountUsers(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServiceTestSuite) TestRegisterValidation() {
	s.register("admin@example.com", "admin")

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"no at sign", RegisterInput{Email: "example.com", Username: "x", Password: "p", Confirm: "p"}, "email"},
		{"no dot", RegisterInput{Email: "a@example", Username: "x", Password: "p", Confirm: "p"}, "email"},
		{"duplicate email", RegisterInput{Email: "ADMIN@example.com", Username: "x", Password: "p", Confirm: "p"}, "email"},
		{"duplicate username", RegisterInput{Email: "x@example.com", Username: "admin", Password: "p", Confirm: "p"}, "username"},
		{"missing username", RegisterInput{Email: "x@example.com", Password: "p", Confirm: "p"}, "username"},
		{"password too long", RegisterInput{Email: "x@example.com", Username: "x", Password: strings.Repeat("a", 80), Confirm: strings.Repeat("a", 80)}, "password"},
		{"mismatch wins over bad email", RegisterInput{Email: "bad", Username: "x", Password: "x", Confirm: "y"}, "confirm"},
		{"mismatch wins over missing username", RegisterInput{Email: "x@example.com", Password: "x", Confirm: "y"}, "confirm"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Register(s.ctx, tt.in)
			var verr *ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Equal(tt.field, verr.Field)
		})
	}
}

func (s *ServiceTestSuite) TestFirstAndSecondUser() {
	first := s.register("admin@example.com", "admin")
	second := s.register("reader@example.com", "reader")

	got, err := s.db.GetUserByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.True(got.Approved)
	s.True(got.RegistrationEnabled)
	s.True(IsAdmin(got))

	got, err = s.db.GetUserByID(s.ctx, second.ID)
	s.Require().NoError(err)
	s.False(got.Approved)
	s.False(IsAdmin(got))
	s.Empty(RoleNames(got))

	s.Equal([]string{"reader@example.com"}, s.notifier.pending)
}

func (s *ServiceTestSuite) TestRegistrationDisabled() {
	s.register("admin@example.com", "admin")
	s.Require().NoError(s.svc.SetRegistrationEnabled(s.ctx, false))

	enabled, err := s.svc.RegistrationEnabled(s.ctx)
	s.Require().NoError(err)
	s.False(enabled)

	_, err = s.svc.Register(s.ctx, RegisterInput{
		Email:    "reader@example.com",
		Username: "reader",
		Password: "pw",
		Confirm:  "pw",
	})
	s.ErrorIs(err, ErrRegistrationDisabled)
}

func (s *ServiceTestSuite) TestToggleApproval() {
	admin := s.register("admin@example.com", "admin")
	user := s.register("reader@example.com", "reader")

	_, err := s.svc.ToggleApproval(s.ctx, admin.ID, admin.ID)
	s.ErrorIs(err, ErrForbidden)

	got, err := s.svc.ToggleApproval(s.ctx, admin.ID, user.ID)
	s.Require().NoError(err)
	s.True(got.Approved)
	s.Equal([]string{"reader@example.com"}, s.notifier.approved)

	got, err = s.svc.ToggleApproval(s.ctx, admin.ID, user.ID)
	s.Require().NoError(err)
	s.False(got.Approved)

	_, err = s.svc.ToggleApproval(s.ctx, admin.ID, 999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceTestSuite) TestResolveUser() {
	_, user := s.registerApproved()

	got, err := s.svc.ResolveUser(s.ctx, Authenticated{UserID: user.ID, Uniquifier: user.Uniquifier})
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)

	_, err = s.svc.ResolveUser(s.ctx, Authenticated{UserID: user.ID, Uniquifier: "other"})
	s.ErrorIs(err, ErrNotFound)

	_, err = s.svc.ResolveUser(s.ctx, AwaitingTwoFactor{UserID: user.ID, Uniquifier: user.Uniquifier})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceTestSuite) TestDeleteAccount() {
	admin, user := s.registerApproved()

	s.ErrorIs(s.svc.DeleteAccount(s.ctx, admin.ID), ErrForbidden)
	s.Require().NoError(s.svc.DeleteAccount(s.ctx, user.ID))

	_, err := s.svc.Login(s.ctx, "reader@example.com", "correct horse")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceTestSuite) TestUpdateProfile() {
	_, user := s.registerApproved()

	err := s.svc.UpdateProfile(s.ctx, user.ID, ProfileInput{Website: "javascript:alert(1)"})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("website", verr.Field)

	s.Require().NoError(s.svc.UpdateProfile(s.ctx, user.ID, ProfileInput{
		DisplayName: " Reader ",
		Bio:         "Hello",
		Website:     "https://reader.example.com",
	}))
	got, err := s.db.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("Reader", got.DisplayName)
	s.Equal("https://reader.example.com", got.Website)
}

func (s *ServiceTestSuite) TestCreateAdmin() {
	s.register("admin@example.com", "admin")

	user, err := s.svc.CreateAdmin(s.ctx, "ops@example.com", "ops", "secret")
	s.Require().NoError(err)
	s.True(user.Approved)
	s.True(IsAdmin(user))

	approved, err := s.svc.ApproveUser(s.ctx, "ops@example.com")
	s.Require().NoError(err)
	s.True(approved.Approved)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
