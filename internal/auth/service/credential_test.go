package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/lumastore/auth/internal/auth/domain"
)

func TestRegisterAndLoginEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.registerUser(t, "a@x.com", "hunter2-hunter2")
	require.NotEmpty(t, summary.ID)
	require.Equal(t, "a@x.com", summary.Email)
	require.Equal(t, domain.UserStatusActive, summary.Status)

	pair := env.login(t, "a@x.com", "hunter2-hunter2")
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// Exactly one session: one refresh-token row bound to one device row.
	n, err := env.store.RefreshTokens().CountUserRefreshTokens(ctx, summary.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	devices, err := env.cred.ListDevices(ctx, summary.ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.True(t, devices[0].IsActive)
	require.Equal(t, "go-test", devices[0].UserAgent)

	claims, err := env.tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, summary.ID, claims.UserID())
	require.Equal(t, devices[0].ID, claims.DeviceID)
	require.Equal(t, domain.RoleClient, claims.RoleName)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.cred.Register(context.Background(), RegisterInput{
		Email:           "a@x.com",
		Password:        "one-password",
		ConfirmPassword: "another-password",
		Code:            "123456",
	})
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestRegisterBadCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.cred.SendOTP(ctx, "a@x.com", domain.CodePurposeRegister))

	_, err := env.cred.Register(ctx, RegisterInput{
		Email:           "a@x.com",
		Password:        "hunter2-hunter2",
		ConfirmPassword: "hunter2-hunter2",
		Code:            "000000",
	})
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestRegisterConsumesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "a@x.com", "hunter2-hunter2")
	code := env.mailer.lastCode("a@x.com", domain.CodePurposeRegister)

	// The code died with the registration that used it.
	require.ErrorIs(t,
		env.otp.Validate(ctx, "a@x.com", code, domain.CodePurposeRegister),
		ErrInvalidOTP,
	)
}

func TestRegisterEmailRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "a@x.com", "hunter2-hunter2")

	// A second registration that slipped past the SendOTP existence check
	// (code issued before the first insert landed) hits the unique index.
	require.NoError(t, env.otp.Issue(ctx, "a@x.com", domain.CodePurposeRegister))
	_, err := env.cred.Register(ctx, RegisterInput{
		Email:           "a@x.com",
		Password:        "hunter2-hunter2",
		ConfirmPassword: "hunter2-hunter2",
		Code:            env.mailer.lastCode("a@x.com", domain.CodePurposeRegister),
	})
	require.ErrorIs(t, err, ErrEmailAlreadyInUse)
}

func TestSendOTPBranches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "a@x.com", "hunter2-hunter2")

	require.ErrorIs(t,
		env.cred.SendOTP(ctx, "a@x.com", domain.CodePurposeRegister),
		ErrEmailAlreadyInUse,
	)
	require.ErrorIs(t,
		env.cred.SendOTP(ctx, "nobody@x.com", domain.CodePurposeForgotPassword),
		ErrEmailNotFound,
	)
	require.NoError(t, env.cred.SendOTP(ctx, "a@x.com", domain.CodePurposeForgotPassword))
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "a@x.com", "hunter2-hunter2")

	_, err := env.cred.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "whatever-pass"})
	require.ErrorIs(t, err, ErrEmailNotFound)

	_, err = env.cred.Login(ctx, LoginInput{Email: "a@x.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestLoginWithTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.registerUser(t, "a@x.com", "hunter2-hunter2")
	setup, err := env.cred.SetupTwoFactor(ctx, summary.ID)
	require.NoError(t, err)

	base := LoginInput{Email: "a@x.com", Password: "hunter2-hunter2", UserAgent: "go-test", IP: "127.0.0.1"}

	t.Run("no second factor", func(t *testing.T) {
		_, err := env.cred.Login(ctx, base)
		require.ErrorIs(t, err, ErrInvalidTOTPAndCode)
	})

	t.Run("valid totp", func(t *testing.T) {
		in := base
		in.TOTPCode, err = totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, err)
		_, err = env.cred.Login(ctx, in)
		require.NoError(t, err)
	})

	t.Run("invalid totp", func(t *testing.T) {
		in := base
		in.TOTPCode = "000000"
		_, err := env.cred.Login(ctx, in)
		require.ErrorIs(t, err, ErrInvalidTOTP)
	})

	t.Run("emailed login code", func(t *testing.T) {
		require.NoError(t, env.cred.SendOTP(ctx, "a@x.com", domain.CodePurposeLogin))
		in := base
		in.Code = env.mailer.lastCode("a@x.com", domain.CodePurposeLogin)
		_, err := env.cred.Login(ctx, in)
		require.NoError(t, err)

		// Single use: the same emailed code cannot unlock a second login.
		_, err = env.cred.Login(ctx, in)
		require.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("totp takes precedence over code", func(t *testing.T) {
		require.NoError(t, env.cred.SendOTP(ctx, "a@x.com", domain.CodePurposeLogin))
		in := base
		in.Code = env.mailer.lastCode("a@x.com", domain.CodePurposeLogin)
		in.TOTPCode = "000000"
		// Valid emailed code, bogus TOTP: only the TOTP branch runs.
		_, err := env.cred.Login(ctx, in)
		require.ErrorIs(t, err, ErrInvalidTOTP)
	})
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.registerUser(t, "a@x.com", "hunter2-hunter2")
	pair := env.login(t, "a@x.com", "hunter2-hunter2")

	rotated, err := env.cred.Refresh(ctx, RefreshInput{
		RefreshToken: pair.RefreshToken,
		UserAgent:    "go-test-2",
		IP:           "10.0.0.1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Rotation replaced the row rather than adding one.
	n, err := env.store.RefreshTokens().CountUserRefreshTokens(ctx, summary.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Same device carries over, with refreshed metadata.
	devices, err := env.cred.ListDevices(ctx, summary.ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, "go-test-2", devices[0].UserAgent)
	require.Equal(t, "10.0.0.1", devices[0].IP)

	// The redeemed token is dead.
	_, err = env.cred.Refresh(ctx, RefreshInput{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, ErrRefreshTokenAlreadyUsed)
}

func TestRefreshConcurrentSingleUse(t *testing.T) {
	env := newTestEnv(t)

	env.registerUser(t, "a@x.com", "hunter2-hunter2")
	pair := env.login(t, "a@x.com", "hunter2-hunter2")

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = env.cred.Refresh(context.Background(), RefreshInput{
				RefreshToken: pair.RefreshToken,
				UserAgent:    "go-test",
				IP:           "127.0.0.1",
			})
		}()
	}
	wg.Wait()

	var ok, reused int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrRefreshTokenAlreadyUsed)
			reused++
		}
	}
	require.Equal(t, 1, ok, "exactly one concurrent refresh may win")
	require.Equal(t, 1, reused)
}

func TestRefreshGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.cred.Refresh(context.Background(), RefreshInput{RefreshToken: "not-a-jwt"})
	require.ErrorIs(t, err, ErrUnauthorizedAccess)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.registerUser(t, "a@x.com", "hunter2-hunter2")
	pair := env.login(t, "a@x.com", "hunter2-hunter2")

	require.NoError(t, env.cred.Logout(ctx, pair.RefreshToken))

	devices, err := env.cred.ListDevices(ctx, summary.ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.False(t, devices[0].IsActive)

	n, err := env.store.RefreshTokens().CountUserRefreshTokens(ctx, summary.ID)
	require.NoError(t, err)
	require.Zero(t, n)

	// Second logout and any refresh with the dead token report reuse.
	require.ErrorIs(t, env.cred.Logout(ctx, pair.RefreshToken), ErrRefreshTokenAlreadyUsed)
	_, err = env.cred.Refresh(ctx, RefreshInput{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, ErrRefreshTokenAlreadyUsed)
}

func TestForgotPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.registerUser(t, "a@x.com", "old-password-1")
	env.login(t, "a@x.com", "old-password-1")

	require.NoError(t, env.cred.SendOTP(ctx, "a@x.com", domain.CodePurposeForgotPassword))
	require.NoError(t, env.cred.ForgotPassword(ctx, ForgotPasswordInput{
		Email:              "a@x.com",
		Code:               env.mailer.lastCode("a@x.com", domain.CodePurposeForgotPassword),
		NewPassword:        "new-password-1",
		ConfirmNewPassword: "new-password-1",
	}))

	// Every outstanding session was revoked by the reset.
	n, err := env.store.RefreshTokens().CountUserRefreshTokens(ctx, summary.ID)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = env.cred.Login(ctx, LoginInput{Email: "a@x.com", Password: "old-password-1"})
	require.ErrorIs(t, err, ErrIncorrectPassword)
	env.login(t, "a@x.com", "new-password-1")
}

func TestForgotPasswordFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "a@x.com", "hunter2-hunter2")

	err := env.cred.ForgotPassword(ctx, ForgotPasswordInput{
		Email:              "a@x.com",
		NewPassword:        "one-password",
		ConfirmNewPassword: "another-password",
	})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	err = env.cred.ForgotPassword(ctx, ForgotPasswordInput{
		Email:              "nobody@x.com",
		Code:               "123456",
		NewPassword:        "new-password-1",
		ConfirmNewPassword: "new-password-1",
	})
	require.ErrorIs(t, err, ErrEmailNotFound)

	err = env.cred.ForgotPassword(ctx, ForgotPasswordInput{
		Email:              "a@x.com",
		Code:               "000000",
		NewPassword:        "new-password-1",
		ConfirmNewPassword: "new-password-1",
	})
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestSetupTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.registerUser(t, "a@x.com", "hunter2-hunter2")

	setup, err := env.cred.SetupTwoFactor(ctx, summary.ID)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.NotEmpty(t, setup.URI)

	user, err := env.store.Users().GetUserByID(ctx, summary.ID)
	require.NoError(t, err)
	require.True(t, user.TwoFactorEnabled())

	_, err = env.cred.SetupTwoFactor(ctx, summary.ID)
	require.ErrorIs(t, err, ErrTOTPAlreadyEnabled)

	_, err = env.cred.SetupTwoFactor(ctx, "no-such-user")
	require.ErrorIs(t, err, ErrUnauthorizedAccess)
}

func TestDisableTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.registerUser(t, "a@x.com", "hunter2-hunter2")

	t.Run("not enabled", func(t *testing.T) {
		require.ErrorIs(t,
			env.cred.DisableTwoFactor(ctx, summary.ID, "000000", ""),
			ErrTOTPNotEnabled,
		)
	})

	setup, err := env.cred.SetupTwoFactor(ctx, summary.ID)
	require.NoError(t, err)

	t.Run("no proof supplied", func(t *testing.T) {
		require.ErrorIs(t,
			env.cred.DisableTwoFactor(ctx, summary.ID, "", ""),
			ErrInvalidTOTPAndCode,
		)
	})

	t.Run("bad totp", func(t *testing.T) {
		require.ErrorIs(t,
			env.cred.DisableTwoFactor(ctx, summary.ID, "000000", ""),
			ErrInvalidTOTP,
		)
	})

	t.Run("via totp code", func(t *testing.T) {
		code, err := totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, env.cred.DisableTwoFactor(ctx, summary.ID, code, ""))

		user, err := env.store.Users().GetUserByID(ctx, summary.ID)
		require.NoError(t, err)
		require.False(t, user.TwoFactorEnabled())
	})

	t.Run("via emailed code", func(t *testing.T) {
		_, err := env.cred.SetupTwoFactor(ctx, summary.ID)
		require.NoError(t, err)

		require.NoError(t, env.cred.SendOTP(ctx, "a@x.com", domain.CodePurposeDisable2FA))
		code := env.mailer.lastCode("a@x.com", domain.CodePurposeDisable2FA)
		require.NoError(t, env.cred.DisableTwoFactor(ctx, summary.ID, "", code))

		user, err := env.store.Users().GetUserByID(ctx, summary.ID)
		require.NoError(t, err)
		require.False(t, user.TwoFactorEnabled())
	})
}
