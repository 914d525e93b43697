// Copyright (c) 2026 Hireline. All rights reserved.

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireline/hireline/internal/identity"
	"github.com/hireline/hireline/internal/platform/apperr"
	"github.com/hireline/hireline/internal/platform/sec"
)

// # Test Doubles

// fakePrincipalStore is an in-memory identity.PrincipalStore.
type fakePrincipalStore struct {
	byID    map[int64]*identity.Principal
	byEmail map[string]*identity.Principal
	nextID  int64
}

func newFakePrincipalStore() *fakePrincipalStore {
	return &fakePrincipalStore{
		byID:    map[int64]*identity.Principal{},
		byEmail: map[string]*identity.Principal{},
		nextID:  1,
	}
}

func (f *fakePrincipalStore) FindByID(ctx context.Context, id int64) (*identity.Principal, error) {
	principal, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return principal, nil
}

func (f *fakePrincipalStore) FindByEmail(ctx context.Context, email string) (*identity.Principal, error) {
	principal, ok := f.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return principal, nil
}

func (f *fakePrincipalStore) Create(ctx context.Context, principal *identity.Principal) error {
	principal.ID = f.nextID
	f.nextID++
	f.byID[principal.ID] = principal
	f.byEmail[principal.Email] = principal
	return nil
}

func (f *fakePrincipalStore) UpdatePassword(ctx context.Context, principalID int64, newHash string) error {
	principal, ok := f.byID[principalID]
	if !ok {
		return apperr.NotFound("Account")
	}
	principal.PasswordHash = newHash
	return nil
}

// fakeSessionStore is an in-memory identity.SessionStore keyed by principal.
type fakeSessionStore struct {
	principals  *fakePrincipalStore
	records     map[int64]*identity.SessionRecord
	upsertCalls int
}

func newFakeSessionStore(principals *fakePrincipalStore) *fakeSessionStore {
	return &fakeSessionStore{
		principals: principals,
		records:    map[int64]*identity.SessionRecord{},
	}
}

func (f *fakeSessionStore) Upsert(ctx context.Context, principalID int64, accessToken, refreshToken string) error {
	f.upsertCalls++
	record := f.record(principalID)
	record.AccessToken = accessToken
	record.RefreshToken = refreshToken
	return nil
}

func (f *fakeSessionStore) SetResetToken(ctx context.Context, principalID int64, resetToken string, expiry time.Time) error {
	record := f.record(principalID)
	record.ResetToken = resetToken
	record.ResetTokenExpiry = &expiry
	return nil
}

func (f *fakeSessionStore) ConsumeResetToken(ctx context.Context, resetToken string) (*identity.Principal, error) {
	for principalID, record := range f.records {
		if record.ResetToken != "" && record.ResetToken == resetToken {
			record.ResetToken = ""
			record.ResetTokenExpiry = nil
			return f.principals.FindByID(ctx, principalID)
		}
	}
	return nil, apperr.NotFound("Record")
}

func (f *fakeSessionStore) Destroy(ctx context.Context, principalID int64) error {
	delete(f.records, principalID)
	return nil
}

func (f *fakeSessionStore) record(principalID int64) *identity.SessionRecord {
	record, ok := f.records[principalID]
	if !ok {
		record = &identity.SessionRecord{PrincipalID: principalID}
		f.records[principalID] = record
	}
	return record
}

// fakeThrottle counts failures in memory.
type fakeThrottle struct {
	failures map[string]int
	blocked  map[string]bool
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{failures: map[string]int{}, blocked: map[string]bool{}}
}

func (f *fakeThrottle) TooManyFailures(ctx context.Context, email string) (bool, error) {
	return f.blocked[email], nil
}

func (f *fakeThrottle) RecordFailure(ctx context.Context, email string) error {
	f.failures[email]++
	return nil
}

func (f *fakeThrottle) Clear(ctx context.Context, email string) error {
	f.failures[email] = 0
	return nil
}

// fakeNotifier records the last reset hand-off.
type fakeNotifier struct {
	sentTo    string
	sentToken string
	calls     int
}

func (f *fakeNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	f.calls++
	f.sentTo = email
	f.sentToken = token
	return nil
}

// # Fixture

type fixture struct {
	service    *identity.Service
	principals *fakePrincipalStore
	sessions   *fakeSessionStore
	throttle   *fakeThrottle
	notifier   *fakeNotifier
	tokens     *sec.TokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := sec.NewTokenService("identity-test-secret", "hireline.app", time.Hour, 24*time.Hour, 15*time.Minute)
	require.NoError(t, err)

	principals := newFakePrincipalStore()
	sessions := newFakeSessionStore(principals)
	throttle := newFakeThrottle()
	notifier := &fakeNotifier{}

	return &fixture{
		service:    identity.NewService(principals, sessions, throttle, tokens, notifier, 15*time.Minute),
		principals: principals,
		sessions:   sessions,
		throttle:   throttle,
		notifier:   notifier,
		tokens:     tokens,
	}
}

// seedAccount registers a principal with a real bcrypt hash.
func (f *fixture) seedAccount(t *testing.T, email, password string, roleID int64) *identity.Principal {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	principal := &identity.Principal{
		Kind:         identity.KindCustomer,
		Email:        email,
		PasswordHash: hash,
		FullName:     "Dana Op",
		RoleID:       roleID,
	}
	require.NoError(t, f.principals.Create(context.Background(), principal))
	return principal
}

/*
TestService_Signup verifies enrollment and the duplicate-email rejection.
*/
func TestService_Signup(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)

		principal, err := f.service.Signup(context.Background(), identity.SignupInput{
			Email:    "dana@hireline.app",
			Password: "s3cret-pass",
			FullName: "Dana Op",
		})
		require.NoError(t, err)

		assert.NotZero(t, principal.ID)
		assert.Equal(t, identity.KindCustomer, principal.Kind)
		assert.Zero(t, principal.RoleID)

		// Stored as a hash, never plaintext.
		assert.NotEqual(t, "s3cret-pass", principal.PasswordHash)
		assert.True(t, sec.CheckPasswordHash("s3cret-pass", principal.PasswordHash))
	})

	t.Run("duplicate_email", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 0)

		_, err := f.service.Signup(context.Background(), identity.SignupInput{
			Email:    "dana@hireline.app",
			Password: "another-pass",
			FullName: "Other Dana",
		})
		require.Error(t, err)
		assert.Equal(t, 409, apperr.As(err).HTTPStatus)
	})
}

/*
TestService_Login verifies the credential check, throttle interplay, and
session record overwrite.
*/
func TestService_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		principal := f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)
		f.throttle.failures["dana@hireline.app"] = 3

		pair, err := f.service.Login(context.Background(), "dana@hireline.app", "s3cret-pass")
		require.NoError(t, err)

		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, principal.ID, pair.Principal.ID)

		// Both tokens verify as their own kind and carry the role.
		claims, err := f.tokens.VerifyKind(pair.AccessToken, sec.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, int64(2), claims.RoleID)

		_, err = f.tokens.VerifyKind(pair.RefreshToken, sec.KindRefresh)
		require.NoError(t, err)

		// Session record overwritten, failure counter cleared.
		assert.Equal(t, 1, f.sessions.upsertCalls)
		assert.Zero(t, f.throttle.failures["dana@hireline.app"])
	})

	t.Run("wrong_password", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		_, err := f.service.Login(context.Background(), "dana@hireline.app", "wrong-pass")
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, 401, ae.HTTPStatus)
		assert.Equal(t, "Invalid login credentials", ae.Message)
		assert.Equal(t, 1, f.throttle.failures["dana@hireline.app"])
	})

	t.Run("unknown_email_same_message", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Login(context.Background(), "ghost@hireline.app", "whatever")
		require.Error(t, err)

		// Identical to the wrong-password message: no account enumeration.
		assert.Equal(t, "Invalid login credentials", apperr.As(err).Message)
		assert.Equal(t, 1, f.throttle.failures["ghost@hireline.app"])
	})

	t.Run("throttled", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)
		f.throttle.blocked["dana@hireline.app"] = true

		// Even correct credentials are refused while blocked.
		_, err := f.service.Login(context.Background(), "dana@hireline.app", "s3cret-pass")
		require.Error(t, err)
		assert.Equal(t, 429, apperr.As(err).HTTPStatus)
		assert.Zero(t, f.sessions.upsertCalls)
	})
}

/*
TestService_Refresh verifies the pair rotation and kind enforcement.
*/
func TestService_Refresh(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		pair, err := f.service.Login(context.Background(), "dana@hireline.app", "s3cret-pass")
		require.NoError(t, err)

		rotated, err := f.service.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)

		assert.NotEmpty(t, rotated.AccessToken)
		assert.Equal(t, 2, f.sessions.upsertCalls)
	})

	t.Run("access_token_rejected", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		pair, err := f.service.Login(context.Background(), "dana@hireline.app", "s3cret-pass")
		require.NoError(t, err)

		// An access token must not pass as a refresh token.
		_, err = f.service.Refresh(context.Background(), pair.AccessToken)
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})

	t.Run("principal_removed", func(t *testing.T) {
		f := newFixture(t)
		principal := f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		pair, err := f.service.Login(context.Background(), "dana@hireline.app", "s3cret-pass")
		require.NoError(t, err)

		delete(f.principals.byID, principal.ID)
		delete(f.principals.byEmail, principal.Email)

		_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})
}

/*
TestService_Logout verifies the record removal.
*/
func TestService_Logout(t *testing.T) {
	f := newFixture(t)
	principal := f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

	_, err := f.service.Login(context.Background(), "dana@hireline.app", "s3cret-pass")
	require.NoError(t, err)
	require.Contains(t, f.sessions.records, principal.ID)

	require.NoError(t, f.service.Logout(context.Background(), principal.ID))
	assert.NotContains(t, f.sessions.records, principal.ID)
}

/*
TestService_PasswordRecovery verifies the forgot/reset pair end to end,
including single-use redemption.
*/
func TestService_PasswordRecovery(t *testing.T) {
	t.Run("forgot_known_email", func(t *testing.T) {
		f := newFixture(t)
		principal := f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		require.NoError(t, f.service.ForgotPassword(context.Background(), "dana@hireline.app"))

		assert.Equal(t, 1, f.notifier.calls)
		assert.Equal(t, "dana@hireline.app", f.notifier.sentTo)

		record := f.sessions.records[principal.ID]
		require.NotNil(t, record)
		assert.Equal(t, f.notifier.sentToken, record.ResetToken)
		require.NotNil(t, record.ResetTokenExpiry)
	})

	t.Run("forgot_unknown_email_is_silent", func(t *testing.T) {
		f := newFixture(t)

		// Same outcome as a known email: no error, nothing to distinguish.
		require.NoError(t, f.service.ForgotPassword(context.Background(), "ghost@hireline.app"))
		assert.Zero(t, f.notifier.calls)
	})

	t.Run("reset_is_single_use", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		require.NoError(t, f.service.ForgotPassword(context.Background(), "dana@hireline.app"))
		resetToken := f.notifier.sentToken

		require.NoError(t, f.service.ResetPassword(context.Background(), resetToken, "brand-new-pass"))

		// New password works, old one does not.
		_, err := f.service.Login(context.Background(), "dana@hireline.app", "brand-new-pass")
		require.NoError(t, err)
		_, err = f.service.Login(context.Background(), "dana@hireline.app", "s3cret-pass")
		require.Error(t, err)

		// Second redemption of the same token fails.
		err = f.service.ResetPassword(context.Background(), resetToken, "yet-another-pass")
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})

	t.Run("access_token_rejected_as_reset", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		pair, err := f.service.Login(context.Background(), "dana@hireline.app", "s3cret-pass")
		require.NoError(t, err)

		err = f.service.ResetPassword(context.Background(), pair.AccessToken, "brand-new-pass")
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})
}

/*
TestService_ChangePassword verifies the re-verification of the current password.
*/
func TestService_ChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		principal := f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		err := f.service.ChangePassword(context.Background(), principal.ID, "s3cret-pass", "brand-new-pass")
		require.NoError(t, err)

		assert.True(t, sec.CheckPasswordHash("brand-new-pass", principal.PasswordHash))
	})

	t.Run("wrong_current_password", func(t *testing.T) {
		f := newFixture(t)
		principal := f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

		err := f.service.ChangePassword(context.Background(), principal.ID, "wrong-pass", "brand-new-pass")
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)

		// Password untouched.
		assert.True(t, sec.CheckPasswordHash("s3cret-pass", principal.PasswordHash))
	})
}

/*
TestService_FindActor verifies the slim guard-facing view.
*/
func TestService_FindActor(t *testing.T) {
	f := newFixture(t)
	principal := f.seedAccount(t, "dana@hireline.app", "s3cret-pass", 2)

	actor, err := f.service.FindActor(context.Background(), principal.ID)
	require.NoError(t, err)

	assert.Equal(t, principal.ID, actor.ID)
	assert.Equal(t, "dana@hireline.app", actor.Email)
	assert.Equal(t, int64(2), actor.RoleID)

	_, err = f.service.FindActor(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)
}
