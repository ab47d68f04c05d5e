package bankaccounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
)

// Input is the bank account form.
type Input struct {
	AccountHolderName string `json:"accountHolderName" validate:"required,max=120"`
	BankName          string `json:"bankName" validate:"required,max=120"`
	AccountNumber     string `json:"accountNumber" validate:"omitempty,numeric,min=4,max=17"`
	RoutingNumber     string `json:"routingNumber" validate:"required,numeric,len=9"`
	AccountType       string `json:"accountType" validate:"required,oneof=checking savings"`
	IsDefault         bool   `json:"isDefault"`
}

// Service manages payout bank accounts.
type Service interface {
	List(ctx context.Context, state *clientstate.Store) ([]marketplace.BankAccount, error)
	Create(ctx context.Context, state *clientstate.Store, input Input) (*marketplace.BankAccount, error)
	Update(ctx context.Context, state *clientstate.Store, accountID string, input Input) (*marketplace.BankAccount, error)
	Delete(ctx context.Context, state *clientstate.Store, accountID string) error
}

type gateway interface {
	ListBankAccounts(ctx context.Context, tokens marketplace.Tokens) ([]marketplace.BankAccount, error)
	CreateBankAccount(ctx context.Context, tokens marketplace.Tokens, in marketplace.BankAccountInput) (*marketplace.BankAccount, error)
	UpdateBankAccount(ctx context.Context, tokens marketplace.Tokens, id string, in marketplace.BankAccountInput) (*marketplace.BankAccount, error)
	DeleteBankAccount(ctx context.Context, tokens marketplace.Tokens, id string) error
}

type service struct {
	gateway gateway
}

// NewService builds the bank account service.
func NewService(gw gateway) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("bank account gateway is required")
	}
	return &service{gateway: gw}, nil
}

func (s *service) List(ctx context.Context, state *clientstate.Store) ([]marketplace.BankAccount, error) {
	accounts, err := s.gateway.ListBankAccounts(ctx, state)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []marketplace.BankAccount{}
	}
	return accounts, nil
}

func (s *service) Create(ctx context.Context, state *clientstate.Store, input Input) (*marketplace.BankAccount, error) {
	if strings.TrimSpace(input.AccountNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "accountNumber is required")
	}
	return s.gateway.CreateBankAccount(ctx, state, toUpstream(input))
}

// Update leaves the stored account number untouched when none is supplied.
func (s *service) Update(ctx context.Context, state *clientstate.Store, accountID string, input Input) (*marketplace.BankAccount, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "accountId is required")
	}
	return s.gateway.UpdateBankAccount(ctx, state, accountID, toUpstream(input))
}

func (s *service) Delete(ctx context.Context, state *clientstate.Store, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "accountId is required")
	}
	return s.gateway.DeleteBankAccount(ctx, state, accountID)
}

func toUpstream(input Input) marketplace.BankAccountInput {
	return marketplace.BankAccountInput{
		AccountHolderName: strings.TrimSpace(input.AccountHolderName),
		BankName:          strings.TrimSpace(input.BankName),
		AccountNumber:     strings.TrimSpace(input.AccountNumber),
		RoutingNumber:     strings.TrimSpace(input.RoutingNumber),
		AccountType:       input.AccountType,
		IsDefault:         input.IsDefault,
	}
}
