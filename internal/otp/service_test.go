package otp

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	createCalls int
	resendCalls int
	lastEmail   string
	resendErr   error
	verify      *marketplace.AuthResult
}

func (s *stubGateway) CreateOTP(_ context.Context, req marketplace.OTPRequest) (*marketplace.MessageResponse, error) {
	s.createCalls++
	s.lastEmail = req.Email
	return &marketplace.MessageResponse{Message: "sent"}, nil
}

func (s *stubGateway) VerifyOTP(_ context.Context, req marketplace.VerifyOTPRequest) (*marketplace.AuthResult, error) {
	s.lastEmail = req.Email
	if s.verify == nil {
		return &marketplace.AuthResult{Message: "verified"}, nil
	}
	return s.verify, nil
}

func (s *stubGateway) ResendOTP(_ context.Context, req marketplace.OTPRequest) (*marketplace.MessageResponse, error) {
	s.resendCalls++
	s.lastEmail = req.Email
	if s.resendErr != nil {
		return nil, s.resendErr
	}
	return &marketplace.MessageResponse{Message: "resent"}, nil
}

type fixture struct {
	svc   Service
	gw    *stubGateway
	state *clientstate.Store
	now   *time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gw := &stubGateway{}
	svc, err := NewService(ServiceParams{
		Gateway: gw,
		Window:  time.Minute,
		Logger:  logger.Nop(),
		Clock:   func() time.Time { return now },
	})
	require.NoError(t, err)
	manager, err := clientstate.NewManager(redis.NewMemory(), clientstate.Options{PersistTTL: time.Hour, EphemeralTTL: time.Hour})
	require.NoError(t, err)
	state, err := manager.Open(context.Background(), "otp-"+t.Name())
	require.NoError(t, err)
	return fixture{svc: svc, gw: gw, state: state, now: &now}
}

func TestCreateStartsCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.state.SetSignupEmail(ctx, "new@buyer.test"))

	cooldown, err := f.svc.Create(ctx, f.state, SendRequest{})
	require.NoError(t, err)
	assert.Equal(t, "new@buyer.test", f.gw.lastEmail)
	assert.Equal(t, 60, cooldown.RemainingSeconds)
	assert.False(t, cooldown.CanResend)

	*f.now = f.now.Add(45 * time.Second)
	cooldown, err = f.svc.Cooldown(ctx, f.state)
	require.NoError(t, err)
	assert.Equal(t, 15, cooldown.RemainingSeconds)
}

func TestResendRefusedDuringCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.state.SetOTPResendTimestamp(ctx, f.now.Add(-50*time.Second)))

	_, err := f.svc.Resend(ctx, f.state, SendRequest{Email: "a@b.test"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeRateLimit, typed.Code())
	assert.Equal(t, "Please wait 10 seconds before requesting a new code", typed.Message())
	assert.Zero(t, f.gw.resendCalls)
}

func TestResendAfterCooldownRecordsTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.state.SetOTPResendTimestamp(ctx, f.now.Add(-2*time.Minute)))

	cooldown, err := f.svc.Resend(ctx, f.state, SendRequest{Email: "A@B.test "})
	require.NoError(t, err)
	assert.Equal(t, 1, f.gw.resendCalls)
	assert.Equal(t, "a@b.test", f.gw.lastEmail)
	assert.Equal(t, 60, cooldown.RemainingSeconds)
}

func TestResendAdoptsServerWait(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gw.resendErr = pkgerrors.New(pkgerrors.CodeUpstreamRejected, "Please wait 42 seconds before requesting a new OTP").
		WithStatus(http.StatusTooManyRequests)

	_, err := f.svc.Resend(ctx, f.state, SendRequest{Email: "a@b.test"})
	require.Error(t, err)
	assert.Equal(t, "Please wait 42 seconds before requesting a new OTP", pkgerrors.UserMessage(err))

	cooldown, err := f.svc.Cooldown(ctx, f.state)
	require.NoError(t, err)
	assert.Equal(t, 42, cooldown.RemainingSeconds)
}

func TestVerifySignsInAndClearsSignupEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.state.SetSignupEmail(ctx, "new@buyer.test"))
	f.gw.verify = &marketplace.AuthResult{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         &marketplace.User{ID: "u1", Email: "new@buyer.test"},
	}

	result, err := f.svc.Verify(ctx, f.state, VerifyRequest{Code: "123456"})
	require.NoError(t, err)
	assert.True(t, result.SignedIn)
	assert.True(t, f.state.IsAuthenticated())

	pending, err := f.state.SignupEmail(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMissingEmailIsValidationError(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.state, SendRequest{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Zero(t, f.gw.createCalls)
}
