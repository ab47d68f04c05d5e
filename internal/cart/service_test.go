package cart

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) *clientstate.Store {
	t.Helper()
	manager, err := clientstate.NewManager(redis.NewMemory(), clientstate.Options{PersistTTL: time.Hour})
	require.NoError(t, err)
	state, err := manager.Open(context.Background(), "sess")
	require.NoError(t, err)
	return state
}

func strPtr(s string) *string { return &s }

func TestAddItemMergesSameVariant(t *testing.T) {
	ctx := context.Background()
	state := newState(t)
	svc := NewService()

	_, err := svc.AddItem(ctx, state, types.CartItem{ProductID: "p1", VariantID: strPtr("red"), Price: types.MustMoney("10"), Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, state, types.CartItem{ProductID: "p1", VariantID: strPtr("red"), Price: types.MustMoney("10"), Quantity: 2})
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, state, types.CartItem{ProductID: "p1", VariantID: strPtr("blue"), Price: types.MustMoney("12"), Quantity: 1})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.NotEmpty(t, cart.Items[0].ID)
	assert.Equal(t, 4, cart.ItemCount)
	assert.True(t, cart.Subtotal.Equal(types.MustMoney("42")))
}

func TestUpdateQuantityToZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	state := newState(t)
	svc := NewService()
	cart, err := svc.AddItem(ctx, state, types.CartItem{ID: "line-1", ProductID: "p1", Price: types.MustMoney("5"), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	cart, err = svc.UpdateQuantity(ctx, state, "line-1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	cart, err = svc.UpdateQuantity(ctx, state, "line-1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	items, err := svc.Items(ctx, state)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRemoveUnknownItemIsNotFound(t *testing.T) {
	_, err := NewService().RemoveItem(context.Background(), newState(t), "missing")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAddItemRejectsNegativeMoney(t *testing.T) {
	shipping := types.MustMoney("-2")
	for name, item := range map[string]types.CartItem{
		"price":    {ProductID: "p1", Price: types.MustMoney("-1"), Quantity: 1},
		"shipping": {ProductID: "p1", Price: types.MustMoney("5"), ShippingPrice: &shipping, Quantity: 1},
	} {
		ctx := context.Background()
		state := newState(t)
		_, err := NewService().AddItem(ctx, state, item)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, name)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code(), name)

		items, err := NewService().Items(ctx, state)
		require.NoError(t, err)
		assert.Empty(t, items, name)
	}
}

func TestAddItemRequiresProduct(t *testing.T) {
	_, err := NewService().AddItem(context.Background(), newState(t), types.CartItem{Quantity: 1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
