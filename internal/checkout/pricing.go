package checkout

import (
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
)

// Totals is the checkout summary. ExcludedSubtotal is informational and is
// never part of Total.
type Totals struct {
	Subtotal         types.Money `json:"subtotal"`
	DeliveryFee      types.Money `json:"deliveryFee"`
	Tax              types.Money `json:"tax"`
	Discount         types.Money `json:"discount"`
	Total            types.Money `json:"total"`
	ExcludedSubtotal types.Money `json:"excludedSubtotal"`
}

// Pricer computes totals for a delivery method.
type Pricer struct {
	deliveryBaseFee types.Money
}

// NewPricer builds a Pricer charging deliveryBaseFee for local delivery.
func NewPricer(deliveryBaseFee types.Money) Pricer {
	return Pricer{deliveryBaseFee: deliveryBaseFee}
}

// Totals prices the supported items; unsupported only feed ExcludedSubtotal.
func (p Pricer) Totals(supported, unsupported []types.CartItem, method enums.DeliveryMethod) Totals {
	totals := Totals{
		Subtotal:         Subtotal(supported),
		DeliveryFee:      p.DeliveryFee(supported, method),
		Tax:              types.ZeroMoney,
		Discount:         types.ZeroMoney,
		ExcludedSubtotal: Subtotal(unsupported),
	}
	totals.Total = totals.Subtotal.Add(totals.DeliveryFee).Add(totals.Tax).Sub(totals.Discount)
	return totals
}

// Subtotal sums price times quantity.
func Subtotal(items []types.CartItem) types.Money {
	sum := types.ZeroMoney
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// DeliveryFee is zero for pickup, the flat base fee for delivery and the
// aggregated shipping fee for shipping. Nothing to fulfil costs nothing.
func (p Pricer) DeliveryFee(items []types.CartItem, method enums.DeliveryMethod) types.Money {
	if len(items) == 0 {
		return types.ZeroMoney
	}
	switch method {
	case enums.DeliveryMethodDelivery:
		return p.deliveryBaseFee
	case enums.DeliveryMethodShipping:
		return ShippingFee(items)
	default:
		return types.ZeroMoney
	}
}

// ShippingFee charges each seller the highest shipping price among its
// distinct products and sums that across sellers. Variants of one product
// share the shipping price of the first variant seen.
func ShippingFee(items []types.CartItem) types.Money {
	type sellerShipping struct {
		products map[string]struct{}
		max      types.Money
	}
	sellers := make(map[string]*sellerShipping)
	order := make([]string, 0)
	for _, item := range items {
		sellerID := item.SellerID()
		group, ok := sellers[sellerID]
		if !ok {
			group = &sellerShipping{products: make(map[string]struct{}), max: types.ZeroMoney}
			sellers[sellerID] = group
			order = append(order, sellerID)
		}
		if _, seen := group.products[item.ProductID]; seen {
			continue
		}
		group.products[item.ProductID] = struct{}{}
		price := types.ZeroMoney
		if item.ShippingPrice != nil {
			price = *item.ShippingPrice
		}
		group.max = group.max.Max(price)
	}

	total := types.ZeroMoney
	for _, sellerID := range order {
		total = total.Add(sellers[sellerID].max)
	}
	return total
}
