package bankaccounts

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
)

type stubGateway struct {
	created []marketplace.BankAccountInput
	updated map[string]marketplace.BankAccountInput
}

func (s *stubGateway) ListBankAccounts(context.Context, marketplace.Tokens) ([]marketplace.BankAccount, error) {
	return nil, nil
}

func (s *stubGateway) CreateBankAccount(_ context.Context, _ marketplace.Tokens, in marketplace.BankAccountInput) (*marketplace.BankAccount, error) {
	s.created = append(s.created, in)
	return &marketplace.BankAccount{ID: "ba_1", BankName: in.BankName}, nil
}

func (s *stubGateway) UpdateBankAccount(_ context.Context, _ marketplace.Tokens, id string, in marketplace.BankAccountInput) (*marketplace.BankAccount, error) {
	if s.updated == nil {
		s.updated = map[string]marketplace.BankAccountInput{}
	}
	s.updated[id] = in
	return &marketplace.BankAccount{ID: id}, nil
}

func (s *stubGateway) DeleteBankAccount(context.Context, marketplace.Tokens, string) error {
	return nil
}

func TestListNeverReturnsNil(t *testing.T) {
	svc, err := NewService(&stubGateway{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	accounts, err := svc.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if accounts == nil {
		t.Fatal("expected empty slice")
	}
}

func TestCreateTrimsAndRequiresAccountNumber(t *testing.T) {
	gw := &stubGateway{}
	svc, _ := NewService(gw)
	input := Input{AccountHolderName: " Ana ", BankName: " First ", RoutingNumber: "021000021", AccountType: "checking"}

	_, err := svc.Create(context.Background(), nil, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	input.AccountNumber = "000123456789"
	if _, err := svc.Create(context.Background(), nil, input); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(gw.created) != 1 || gw.created[0].AccountHolderName != "Ana" || gw.created[0].BankName != "First" {
		t.Fatalf("unexpected upstream payload %+v", gw.created)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	gw := &stubGateway{}
	svc, _ := NewService(gw)
	if _, err := svc.Update(context.Background(), nil, " ", Input{}); err == nil {
		t.Fatal("expected error for blank id")
	}
	if _, err := svc.Update(context.Background(), nil, "ba_1", Input{BankName: "New"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gw.updated["ba_1"].BankName != "New" {
		t.Fatalf("unexpected update %+v", gw.updated)
	}
}
