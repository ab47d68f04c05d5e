package checkout

import (
	"context"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
)

type cartStore interface {
	Items(ctx context.Context, state *clientstate.Store) ([]types.CartItem, error)
	Clear(ctx context.Context, state *clientstate.Store) error
}

// ItemSource selects the items of a checkout: the persisted cart or a single
// buy-now item that never touches the cart.
type ItemSource struct {
	Kind       enums.CheckoutSource `json:"source" validate:"omitempty,oneof=cart buy_now"`
	BuyNowItem *types.CartItem      `json:"buyNowItem,omitempty"`
}

func (s ItemSource) kind() enums.CheckoutSource {
	if s.Kind == "" {
		return enums.CheckoutSourceCart
	}
	return s.Kind
}

func resolveItems(ctx context.Context, carts cartStore, state *clientstate.Store, source ItemSource) ([]types.CartItem, error) {
	switch source.kind() {
	case enums.CheckoutSourceBuyNow:
		if source.BuyNowItem == nil || strings.TrimSpace(source.BuyNowItem.ProductID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyNowItem is required for a buy now checkout")
		}
		item := *source.BuyNowItem
		if item.HasNegativeAmount() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item prices must not be negative")
		}
		if item.ID == "" {
			item.ID = item.ProductID
		}
		return []types.CartItem{item}, nil
	case enums.CheckoutSourceCart:
		return carts.Items(ctx, state)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout source")
	}
}
