package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/internal/auth/store/drivers/sqlite"
	"github.com/lumastore/auth/pkg/idx"
)

// captureMailer records the last code sent per (email, purpose) so tests can
// read codes back the way a user would from their inbox. With fail set it
// still records, then reports a transport error.
type captureMailer struct {
	mu   sync.Mutex
	last map[string]string
	fail bool
}

func (m *captureMailer) SendOTP(ctx context.Context, to, code string, purpose domain.CodePurpose) error {
	m.mu.Lock()
	if m.last == nil {
		m.last = make(map[string]string)
	}
	m.last[to+"|"+string(purpose)] = code
	m.mu.Unlock()

	if m.fail {
		return errors.New("smtp: connection refused")
	}
	return nil
}

func (m *captureMailer) lastCode(email string, purpose domain.CodePurpose) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[email+"|"+string(purpose)]
}

type testEnv struct {
	store  store.Store
	mailer *captureMailer
	otp    *OTPService
	tokens *TokenService
	cred   *CredentialService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	ctx := context.Background()
	require.NoError(t, EnsureDefaultRoles(ctx, st.Roles()))

	logger := slog.New(slog.DiscardHandler)
	mailer := &captureMailer{}

	otp := &OTPService{
		Codes:  st.VerificationCodes(),
		Mailer: mailer,
		Logger: logger,
		TTL:    5 * time.Minute,
	}
	tokens := NewTokenService(
		[]byte("test-access-secret"), []byte("test-refresh-secret"),
		"LumaStore", st.RefreshTokens(),
		15*time.Minute, time.Hour,
	)
	cred := &CredentialService{
		Store:     st,
		OTP:       otp,
		TwoFactor: &TwoFactorService{Issuer: "LumaStore"},
		Tokens:    tokens,
		Roles:     NewRoleCache(st.Roles()),
		Logger:    logger,
	}

	return &testEnv{store: st, mailer: mailer, otp: otp, tokens: tokens, cred: cred}
}

// registerUser walks the real registration flow: request a REGISTER code,
// read it from the mailbox, register.
func (e *testEnv) registerUser(t *testing.T, email, password string) domain.Summary {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.cred.SendOTP(ctx, email, domain.CodePurposeRegister))
	summary, err := e.cred.Register(ctx, RegisterInput{
		Email:           email,
		Name:            "Test User",
		Password:        password,
		ConfirmPassword: password,
		PhoneNumber:     "+15550100",
		Code:            e.mailer.lastCode(email, domain.CodePurposeRegister),
	})
	require.NoError(t, err)
	return summary
}

// seedUserDevice inserts a user and one device directly, for tests that
// exercise the token layer without the registration flow.
func (e *testEnv) seedUserDevice(t *testing.T, email string) (domain.User, domain.Device) {
	t.Helper()
	ctx := context.Background()

	role, err := e.store.Roles().GetRoleByName(ctx, domain.RoleClient)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Seed User",
		PasswordHash: "x",
		RoleID:       role.ID,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Users().CreateUser(ctx, user))

	device := domain.Device{
		ID:         idx.New().String(),
		UserID:     user.ID,
		UserAgent:  "go-test",
		IP:         "127.0.0.1",
		LastActive: now,
		IsActive:   true,
		CreatedAt:  now,
	}
	require.NoError(t, e.store.Devices().CreateDevice(ctx, device))

	return user, device
}

func (e *testEnv) login(t *testing.T, email, password string) domain.TokenPair {
	t.Helper()
	pair, err := e.cred.Login(context.Background(), LoginInput{
		Email:     email,
		Password:  password,
		UserAgent: "go-test",
		IP:        "127.0.0.1",
	})
	require.NoError(t, err)
	return pair
}
