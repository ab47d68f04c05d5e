package marketplace

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
)

// User is the marketplace account as returned by /auth/me and login.
type User struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	FirstName  string         `json:"firstName,omitempty"`
	LastName   string         `json:"lastName,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	Role       enums.UserRole `json:"role"`
	IsVerified bool           `json:"isVerified"`
	Avatar     string         `json:"avatar,omitempty"`
}

// AuthResult is the login-shaped response: a token pair and the account.
// Register and OTP verification may answer with only a message.
type AuthResult struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Tokens returns the pair carried by the result.
func (r *AuthResult) Tokens() TokenPair {
	if r == nil {
		return TokenPair{}
	}
	return TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// MessageResponse covers endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Valid   *bool  `json:"valid,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type CompleteGoogleSignupRequest struct {
	Token string          `json:"token"`
	Role  enums.UserRole  `json:"role"`
	Extra json.RawMessage `json:"profile,omitempty"`
}

// Register creates an account. body is the role-specific signup payload.
func (c *Client) Register(ctx context.Context, body any) (*AuthResult, error) {
	var out AuthResult
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/register", Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	var out AuthResult
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/login", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, tokens Tokens) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/logout", Auth: tokens}, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	body := map[string]string{"email": email}
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/forgot-password", Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyResetToken(ctx context.Context, token string) (*MessageResponse, error) {
	var out MessageResponse
	body := map[string]string{"token": token}
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/verify-reset-token", Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/reset-password", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, tokens Tokens) (*User, error) {
	var out User
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/me", Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, tokens Tokens, req ChangePasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/change-password", Body: req, Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteGoogleSignup(ctx context.Context, req CompleteGoogleSignupRequest) (*AuthResult, error) {
	var out AuthResult
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/complete-google-signup", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
