package service

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestTwoFactorGenerateAndVerify(t *testing.T) {
	svc := &TwoFactorService{Issuer: "LumaStore"}

	setup, err := svc.GenerateSecret("a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.True(t, strings.HasPrefix(setup.URI, "otpauth://totp/"))
	require.Contains(t, setup.URI, "LumaStore")

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.True(t, svc.Verify(setup.Secret, code))
}

func TestTwoFactorRejectsOutsideSkewWindow(t *testing.T) {
	svc := &TwoFactorService{Issuer: "LumaStore"}

	setup, err := svc.GenerateSecret("a@x.com")
	require.NoError(t, err)

	// Two minutes is well past the one-step skew either side.
	past, err := totp.GenerateCode(setup.Secret, time.Now().Add(-2*time.Minute))
	require.NoError(t, err)
	future, err := totp.GenerateCode(setup.Secret, time.Now().Add(2*time.Minute))
	require.NoError(t, err)

	require.False(t, svc.Verify(setup.Secret, past))
	require.False(t, svc.Verify(setup.Secret, future))
}

func TestTwoFactorRejectsGarbage(t *testing.T) {
	svc := &TwoFactorService{Issuer: "LumaStore"}

	setup, err := svc.GenerateSecret("a@x.com")
	require.NoError(t, err)

	require.False(t, svc.Verify(setup.Secret, "000000"))
	require.False(t, svc.Verify(setup.Secret, "not-a-code"))
}

func TestTwoFactorSecretsAreUnique(t *testing.T) {
	svc := &TwoFactorService{Issuer: "LumaStore"}

	a, err := svc.GenerateSecret("a@x.com")
	require.NoError(t, err)
	b, err := svc.GenerateSecret("a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, a.Secret, b.Secret)
}
