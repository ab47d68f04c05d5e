package marketplace

import (
	"context"
	"net/http"
	"net/url"
)

// BankAccount is a payout account of a seller or driver.
type BankAccount struct {
	ID                string `json:"id"`
	AccountHolderName string `json:"accountHolderName"`
	BankName          string `json:"bankName"`
	AccountType       string `json:"accountType,omitempty"`
	Last4             string `json:"last4,omitempty"`
	RoutingNumber     string `json:"routingNumber,omitempty"`
	IsDefault         bool   `json:"isDefault"`
}

type BankAccountInput struct {
	AccountHolderName string `json:"accountHolderName"`
	BankName          string `json:"bankName"`
	AccountNumber     string `json:"accountNumber,omitempty"`
	RoutingNumber     string `json:"routingNumber"`
	AccountType       string `json:"accountType"`
	IsDefault         bool   `json:"isDefault"`
}

func (c *Client) ListBankAccounts(ctx context.Context, tokens Tokens) ([]BankAccount, error) {
	var out []BankAccount
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/bank-accounts", Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBankAccount(ctx context.Context, tokens Tokens, in BankAccountInput) (*BankAccount, error) {
	var out BankAccount
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/bank-accounts", Body: in, Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBankAccount(ctx context.Context, tokens Tokens, id string, in BankAccountInput) (*BankAccount, error) {
	var out BankAccount
	if err := c.Do(ctx, Request{Method: http.MethodPut, Path: "/bank-accounts/" + url.PathEscape(id), Body: in, Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBankAccount(ctx context.Context, tokens Tokens, id string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/bank-accounts/" + url.PathEscape(id), Auth: tokens}, nil)
}
