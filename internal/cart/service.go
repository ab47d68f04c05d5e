package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
	"github.com/google/uuid"
)

const negativeAmountMessage = "item prices must not be negative"

// Cart is the persisted cart of one storefront session.
type Cart struct {
	Items     []types.CartItem `json:"items"`
	ItemCount int              `json:"itemCount"`
	Subtotal  types.Money      `json:"subtotal"`
}

// Service exposes cart operations over the session state.
type Service interface {
	Get(ctx context.Context, state *clientstate.Store) (*Cart, error)
	Items(ctx context.Context, state *clientstate.Store) ([]types.CartItem, error)
	AddItem(ctx context.Context, state *clientstate.Store, item types.CartItem) (*Cart, error)
	UpdateQuantity(ctx context.Context, state *clientstate.Store, itemID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, state *clientstate.Store, itemID string) (*Cart, error)
	Clear(ctx context.Context, state *clientstate.Store) error
}

type service struct {
	newID func() string
}

// NewService builds the cart service.
func NewService() Service {
	return &service{newID: uuid.NewString}
}

func (s *service) Get(ctx context.Context, state *clientstate.Store) (*Cart, error) {
	items, err := s.Items(ctx, state)
	if err != nil {
		return nil, err
	}
	return summarize(items), nil
}

func (s *service) Items(ctx context.Context, state *clientstate.Store) ([]types.CartItem, error) {
	if state == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "client state missing")
	}
	var items []types.CartItem
	if _, err := state.GetJSON(ctx, clientstate.KeyCart, &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return items, nil
}

// AddItem appends item, or bumps the quantity of the line with the same
// product and variant.
func (s *service) AddItem(ctx context.Context, state *clientstate.Store, item types.CartItem) (*Cart, error) {
	if strings.TrimSpace(item.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if item.HasNegativeAmount() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, negativeAmountMessage)
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	items, err := s.Items(ctx, state)
	if err != nil {
		return nil, err
	}
	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID && items[i].VariantKey() == item.VariantKey() {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		if strings.TrimSpace(item.ID) == "" {
			item.ID = s.newID()
		}
		items = append(items, item)
	}
	return s.save(ctx, state, items)
}

// UpdateQuantity sets the quantity of itemID; zero or less removes the line.
func (s *service) UpdateQuantity(ctx context.Context, state *clientstate.Store, itemID string, quantity int) (*Cart, error) {
	items, err := s.Items(ctx, state)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, itemID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart item %s not found", itemID))
	}
	if quantity <= 0 {
		items = append(items[:idx], items[idx+1:]...)
	} else {
		items[idx].Quantity = quantity
	}
	return s.save(ctx, state, items)
}

func (s *service) RemoveItem(ctx context.Context, state *clientstate.Store, itemID string) (*Cart, error) {
	items, err := s.Items(ctx, state)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, itemID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart item %s not found", itemID))
	}
	items = append(items[:idx], items[idx+1:]...)
	return s.save(ctx, state, items)
}

func (s *service) Clear(ctx context.Context, state *clientstate.Store) error {
	if state == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "client state missing")
	}
	if err := state.Delete(ctx, clientstate.KeyCart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) save(ctx context.Context, state *clientstate.Store, items []types.CartItem) (*Cart, error) {
	if len(items) == 0 {
		if err := s.Clear(ctx, state); err != nil {
			return nil, err
		}
		return summarize(nil), nil
	}
	if err := state.PutJSON(ctx, clientstate.KeyCart, items, 0); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
	}
	return summarize(items), nil
}

func indexOf(items []types.CartItem, itemID string) int {
	for i, item := range items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func summarize(items []types.CartItem) *Cart {
	if items == nil {
		items = []types.CartItem{}
	}
	cart := &Cart{Items: items, Subtotal: types.ZeroMoney}
	for _, item := range items {
		cart.ItemCount += item.Quantity
		cart.Subtotal = cart.Subtotal.Add(item.LineTotal())
	}
	return cart
}
