package otp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
)

// Cooldown is what the verification screen needs to render its resend button.
type Cooldown struct {
	RemainingSeconds int  `json:"remainingSeconds"`
	CanResend        bool `json:"canResend"`
}

// SendRequest asks for a code; a blank email falls back to the pending signup email.
type SendRequest struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Purpose string `json:"purpose,omitempty"`
}

// VerifyRequest submits a code.
type VerifyRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Code  string `json:"otp" validate:"required,numeric,min=4,max=8"`
}

// VerifyResult reports whether verification also signed the session in.
type VerifyResult struct {
	Message  string            `json:"message,omitempty"`
	SignedIn bool              `json:"signedIn"`
	User     *marketplace.User `json:"user,omitempty"`
}

// Service runs the one-time-password flows and owns the resend cooldown.
type Service interface {
	Create(ctx context.Context, state *clientstate.Store, req SendRequest) (*Cooldown, error)
	Verify(ctx context.Context, state *clientstate.Store, req VerifyRequest) (*VerifyResult, error)
	Resend(ctx context.Context, state *clientstate.Store, req SendRequest) (*Cooldown, error)
	Cooldown(ctx context.Context, state *clientstate.Store) (*Cooldown, error)
}

type gateway interface {
	CreateOTP(ctx context.Context, req marketplace.OTPRequest) (*marketplace.MessageResponse, error)
	VerifyOTP(ctx context.Context, req marketplace.VerifyOTPRequest) (*marketplace.AuthResult, error)
	ResendOTP(ctx context.Context, req marketplace.OTPRequest) (*marketplace.MessageResponse, error)
}

// ServiceParams bundles the OTP service dependencies.
type ServiceParams struct {
	Gateway gateway
	Window  time.Duration
	Logger  *logger.Logger
	Clock   func() time.Time
}

type service struct {
	gateway gateway
	window  time.Duration
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the OTP service. Window defaults to one minute.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("otp gateway is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	window := params.Window
	if window <= 0 {
		window = time.Minute
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{gateway: params.Gateway, window: window, logg: params.Logger, now: clock}, nil
}

func (s *service) Create(ctx context.Context, state *clientstate.Store, req SendRequest) (*Cooldown, error) {
	email, err := s.resolveEmail(ctx, state, req.Email)
	if err != nil {
		return nil, err
	}
	if _, err := s.gateway.CreateOTP(ctx, marketplace.OTPRequest{Email: email, Purpose: req.Purpose}); err != nil {
		return nil, s.absorbServerWait(ctx, state, err)
	}
	return s.markSent(ctx, state)
}

// Resend refuses locally while the cooldown runs and otherwise asks the
// marketplace for a new code. A server-side wait overrides the local one.
func (s *service) Resend(ctx context.Context, state *clientstate.Store, req SendRequest) (*Cooldown, error) {
	email, err := s.resolveEmail(ctx, state, req.Email)
	if err != nil {
		return nil, err
	}
	current, err := s.Cooldown(ctx, state)
	if err != nil {
		return nil, err
	}
	if !current.CanResend {
		return nil, waitError(current.RemainingSeconds)
	}
	if _, err := s.gateway.ResendOTP(ctx, marketplace.OTPRequest{Email: email, Purpose: req.Purpose}); err != nil {
		return nil, s.absorbServerWait(ctx, state, err)
	}
	return s.markSent(ctx, state)
}

func (s *service) Verify(ctx context.Context, state *clientstate.Store, req VerifyRequest) (*VerifyResult, error) {
	email, err := s.resolveEmail(ctx, state, req.Email)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please enter the verification code")
	}
	result, err := s.gateway.VerifyOTP(ctx, marketplace.VerifyOTPRequest{Email: email, Code: code})
	if err != nil {
		return nil, err
	}

	out := &VerifyResult{Message: result.Message}
	if result.AccessToken != "" {
		if err := state.SignIn(ctx, result); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session")
		}
		out.SignedIn = true
		out.User = result.User
	}
	if err := state.ClearSignupEmail(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "otp.clear_signup_email_failed")
	}
	return out, nil
}

func (s *service) Cooldown(ctx context.Context, state *clientstate.Store) (*Cooldown, error) {
	sentAt, ok, err := state.OTPResendTimestamp(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load otp timestamp")
	}
	if !ok {
		return &Cooldown{CanResend: true}, nil
	}
	remaining := Remaining(s.window, sentAt, s.now())
	return &Cooldown{RemainingSeconds: remaining, CanResend: remaining == 0}, nil
}

func (s *service) markSent(ctx context.Context, state *clientstate.Store) (*Cooldown, error) {
	if err := state.SetOTPResendTimestamp(ctx, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save otp timestamp")
	}
	return s.Cooldown(ctx, state)
}

// absorbServerWait rewrites the stored timestamp when the marketplace says
// how long to wait, then hands the original error back.
func (s *service) absorbServerWait(ctx context.Context, state *clientstate.Store, cause error) error {
	typed := pkgerrors.As(cause)
	if typed == nil || typed.Code() != pkgerrors.CodeUpstreamRejected {
		return cause
	}
	wait, ok := ParseServerWait(typed.Message())
	if !ok {
		return cause
	}
	sentAt := TimestampForServerWait(s.window, wait, s.now())
	if err := state.SetOTPResendTimestamp(ctx, sentAt); err != nil {
		s.logg.Error(ctx, "otp.server_wait_not_saved", err)
	}
	return cause
}

func (s *service) resolveEmail(ctx context.Context, state *clientstate.Store, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		return email, nil
	}
	pending, err := state.SignupEmail(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load signup email")
	}
	if pending == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return pending, nil
}

func waitError(seconds int) error {
	unit := "seconds"
	if seconds == 1 {
		unit = "second"
	}
	return pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("Please wait %d %s before requesting a new code", seconds, unit)).
		WithDetails(map[string]any{"remainingSeconds": seconds})
}
