package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyResetTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type CompleteGoogleSignupRequest struct {
	Token   string         `json:"token" validate:"required"`
	Role    enums.UserRole `json:"role" validate:"required,oneof=buyer seller driver"`
	Profile map[string]any `json:"profile,omitempty"`
}

// Session is what the browser learns about its sign-in state. Tokens stay
// in the storefront.
type Session struct {
	Authenticated bool              `json:"authenticated"`
	User          *marketplace.User `json:"user,omitempty"`
}

// SignupResult tells the shell where to go next.
type SignupResult struct {
	Message              string `json:"message,omitempty"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requiresVerification"`
	Session
}

// Service defines the auth flows served to the storefront shell.
type Service interface {
	Signup(ctx context.Context, state *clientstate.Store, signup Signup) (*SignupResult, error)
	Login(ctx context.Context, state *clientstate.Store, req LoginRequest) (*Session, error)
	Logout(ctx context.Context, state *clientstate.Store) error
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*marketplace.MessageResponse, error)
	VerifyResetToken(ctx context.Context, req VerifyResetTokenRequest) (*marketplace.MessageResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) (*marketplace.MessageResponse, error)
	Refresh(ctx context.Context, state *clientstate.Store) (*Session, error)
	Me(ctx context.Context, state *clientstate.Store) (*Session, error)
	ChangePassword(ctx context.Context, state *clientstate.Store, req ChangePasswordRequest) (*marketplace.MessageResponse, error)
	CompleteGoogleSignup(ctx context.Context, state *clientstate.Store, req CompleteGoogleSignupRequest) (*Session, error)
}

type gateway interface {
	Register(ctx context.Context, body any) (*marketplace.AuthResult, error)
	Login(ctx context.Context, req marketplace.LoginRequest) (*marketplace.AuthResult, error)
	Logout(ctx context.Context, tokens marketplace.Tokens) error
	ForgotPassword(ctx context.Context, email string) (*marketplace.MessageResponse, error)
	VerifyResetToken(ctx context.Context, token string) (*marketplace.MessageResponse, error)
	ResetPassword(ctx context.Context, req marketplace.ResetPasswordRequest) (*marketplace.MessageResponse, error)
	Refresh(ctx context.Context, tokens marketplace.Tokens) (marketplace.TokenPair, error)
	Me(ctx context.Context, tokens marketplace.Tokens) (*marketplace.User, error)
	ChangePassword(ctx context.Context, tokens marketplace.Tokens, req marketplace.ChangePasswordRequest) (*marketplace.MessageResponse, error)
	CompleteGoogleSignup(ctx context.Context, req marketplace.CompleteGoogleSignupRequest) (*marketplace.AuthResult, error)
}

type service struct {
	gateway gateway
	logg    *logger.Logger
}

// NewService constructs the auth service.
func NewService(gw gateway, logg *logger.Logger) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("auth gateway is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{gateway: gw, logg: logg}, nil
}

// Signup registers the account and remembers the email for OTP verification.
func (s *service) Signup(ctx context.Context, state *clientstate.Store, signup Signup) (*SignupResult, error) {
	if err := ValidateSignup(signup); err != nil {
		return nil, err
	}
	payload, err := registerPayload(signup)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build register payload")
	}
	result, err := s.gateway.Register(ctx, payload)
	if err != nil {
		return nil, err
	}

	email := payload["email"].(string)
	out := &SignupResult{Message: result.Message, Email: email}
	if result.AccessToken != "" {
		if err := state.SignIn(ctx, result); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session")
		}
		out.Session = sessionFrom(state)
		return out, nil
	}
	if err := state.SetSignupEmail(ctx, email); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store signup email")
	}
	out.RequiresVerification = true
	return out, nil
}

func (s *service) Login(ctx context.Context, state *clientstate.Store, req LoginRequest) (*Session, error) {
	result, err := s.gateway.Login(ctx, marketplace.LoginRequest{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	if err := state.SignIn(ctx, result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "login response carried no session")
	}
	session := sessionFrom(state)
	return &session, nil
}

// Logout tells the marketplace first and clears local state regardless of
// whether it answered.
func (s *service) Logout(ctx context.Context, state *clientstate.Store) error {
	if state.IsAuthenticated() {
		if err := s.gateway.Logout(ctx, state); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.upstream_logout_failed")
		}
	}
	if err := state.Clear(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear session")
	}
	return nil
}

func (s *service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*marketplace.MessageResponse, error) {
	return s.gateway.ForgotPassword(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
}

func (s *service) VerifyResetToken(ctx context.Context, req VerifyResetTokenRequest) (*marketplace.MessageResponse, error) {
	return s.gateway.VerifyResetToken(ctx, strings.TrimSpace(req.Token))
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*marketplace.MessageResponse, error) {
	return s.gateway.ResetPassword(ctx, marketplace.ResetPasswordRequest{
		Token:    strings.TrimSpace(req.Token),
		Password: req.Password,
	})
}

func (s *service) Refresh(ctx context.Context, state *clientstate.Store) (*Session, error) {
	if _, err := s.gateway.Refresh(ctx, state); err != nil {
		return nil, err
	}
	session := sessionFrom(state)
	return &session, nil
}

// Me reloads the account from the marketplace and caches it in the session.
func (s *service) Me(ctx context.Context, state *clientstate.Store) (*Session, error) {
	if !state.IsAuthenticated() {
		return &Session{}, nil
	}
	user, err := s.gateway.Me(ctx, state)
	if err != nil {
		return nil, err
	}
	if err := state.SaveUser(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store user")
	}
	session := sessionFrom(state)
	return &session, nil
}

func (s *service) ChangePassword(ctx context.Context, state *clientstate.Store, req ChangePasswordRequest) (*marketplace.MessageResponse, error) {
	return s.gateway.ChangePassword(ctx, state, marketplace.ChangePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
}

func (s *service) CompleteGoogleSignup(ctx context.Context, state *clientstate.Store, req CompleteGoogleSignupRequest) (*Session, error) {
	upstream := marketplace.CompleteGoogleSignupRequest{Token: strings.TrimSpace(req.Token), Role: req.Role}
	if len(req.Profile) > 0 {
		raw, err := json.Marshal(req.Profile)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profile")
		}
		upstream.Extra = raw
	}
	result, err := s.gateway.CompleteGoogleSignup(ctx, upstream)
	if err != nil {
		return nil, err
	}
	if err := state.SignIn(ctx, result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "google signup response carried no session")
	}
	session := sessionFrom(state)
	return &session, nil
}

func sessionFrom(state *clientstate.Store) Session {
	return Session{Authenticated: state.IsAuthenticated(), User: state.User()}
}
