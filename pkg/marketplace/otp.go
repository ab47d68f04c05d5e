package marketplace

import (
	"context"
	"net/http"
)

type OTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose,omitempty"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

func (c *Client) CreateOTP(ctx context.Context, req OTPRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/otp/create", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP confirms a code. A verified signup answers with a token pair.
func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResult, error) {
	var out AuthResult
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/otp/verify", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResendOTP(ctx context.Context, req OTPRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/otp/resend", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
