package marketplace

import (
	"context"
	"net/http"
	"net/url"
)

// Card is a saved payment card. Only display fields leave the processor.
type Card struct {
	ID         string `json:"id"`
	Brand      string `json:"brand"`
	Last4      string `json:"last4"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"`
	HolderName string `json:"holderName,omitempty"`
	IsDefault  bool   `json:"isDefault"`
}

// AddCardRequest carries the processor token produced by the card form.
type AddCardRequest struct {
	PaymentMethodToken string `json:"paymentMethodToken"`
	HolderName         string `json:"holderName,omitempty"`
	SetDefault         bool   `json:"setDefault"`
}

func (c *Client) ListCards(ctx context.Context, tokens Tokens) ([]Card, error) {
	var out []Card
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/user/cards", Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddCard(ctx context.Context, tokens Tokens, req AddCardRequest) (*Card, error) {
	var out Card
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/user/cards", Body: req, Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCard(ctx context.Context, tokens Tokens, cardID string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/user/cards/" + url.PathEscape(cardID), Auth: tokens}, nil)
}

func (c *Client) SetDefaultCard(ctx context.Context, tokens Tokens, cardID string) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: "/user/cards/" + url.PathEscape(cardID) + "/default", Auth: tokens}, nil)
}
