package checkout

import (
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
)

// ItemSupportsDeliveryMethod reports whether item can be fulfilled with
// method. Items that declare no marketplace options accept every method.
func ItemSupportsDeliveryMethod(item types.CartItem, method enums.DeliveryMethod) bool {
	if item.MarketplaceOptions == nil {
		return method.IsValid()
	}
	return item.MarketplaceOptions.Supports(method)
}

// AvailableMethods says which methods at least one item accepts.
type AvailableMethods struct {
	Pickup   bool `json:"pickup"`
	Delivery bool `json:"delivery"`
	Shipping bool `json:"shipping"`
}

// Supports reports whether method is offered.
func (a AvailableMethods) Supports(method enums.DeliveryMethod) bool {
	switch method {
	case enums.DeliveryMethodPickup:
		return a.Pickup
	case enums.DeliveryMethodDelivery:
		return a.Delivery
	case enums.DeliveryMethodShipping:
		return a.Shipping
	default:
		return false
	}
}

func (a *AvailableMethods) mark(item types.CartItem) {
	a.Pickup = a.Pickup || ItemSupportsDeliveryMethod(item, enums.DeliveryMethodPickup)
	a.Delivery = a.Delivery || ItemSupportsDeliveryMethod(item, enums.DeliveryMethodDelivery)
	a.Shipping = a.Shipping || ItemSupportsDeliveryMethod(item, enums.DeliveryMethodShipping)
}

// AvailableDeliveryMethods folds the options of every item.
func AvailableDeliveryMethods(items []types.CartItem) AvailableMethods {
	var available AvailableMethods
	for _, item := range items {
		available.mark(item)
	}
	return available
}

// Partition splits items into those that support method and the rest,
// keeping input order.
func Partition(items []types.CartItem, method enums.DeliveryMethod) (supported, unsupported []types.CartItem) {
	supported = make([]types.CartItem, 0, len(items))
	unsupported = make([]types.CartItem, 0)
	for _, item := range items {
		if ItemSupportsDeliveryMethod(item, method) {
			supported = append(supported, item)
		} else {
			unsupported = append(unsupported, item)
		}
	}
	return supported, unsupported
}

// SellerAvailability is the fulfillment picture of one seller's items.
type SellerAvailability struct {
	SellerID     string           `json:"sellerId"`
	BusinessName string           `json:"businessName,omitempty"`
	Pickup       bool             `json:"pickup"`
	Delivery     bool             `json:"delivery"`
	Shipping     bool             `json:"shipping"`
	Items        []types.CartItem `json:"items"`
}

// AvailabilityBySeller groups items by seller in order of first appearance.
// Items without a seller share the empty seller id.
func AvailabilityBySeller(items []types.CartItem) []SellerAvailability {
	index := make(map[string]int)
	out := make([]SellerAvailability, 0)
	for _, item := range items {
		sellerID := item.SellerID()
		pos, ok := index[sellerID]
		if !ok {
			pos = len(out)
			index[sellerID] = pos
			entry := SellerAvailability{SellerID: sellerID}
			if item.Seller != nil {
				entry.BusinessName = item.Seller.BusinessName
			}
			out = append(out, entry)
		}
		entry := &out[pos]
		var methods AvailableMethods
		methods.mark(item)
		entry.Pickup = entry.Pickup || methods.Pickup
		entry.Delivery = entry.Delivery || methods.Delivery
		entry.Shipping = entry.Shipping || methods.Shipping
		entry.Items = append(entry.Items, item)
	}
	return out
}
