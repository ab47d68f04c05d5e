package types

import (
	"strings"

	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
)

// Seller identifies the business that lists a cart item.
type Seller struct {
	ID           string `json:"id"`
	BusinessName string `json:"businessName,omitempty"`
}

// MarketplaceOptions lists the fulfillment methods a listing accepts.
type MarketplaceOptions struct {
	Pickup   bool `json:"pickup"`
	Delivery bool `json:"delivery"`
	Shipping bool `json:"shipping"`
}

// Supports reports whether method is enabled on the listing.
func (o MarketplaceOptions) Supports(method enums.DeliveryMethod) bool {
	switch method {
	case enums.DeliveryMethodPickup:
		return o.Pickup
	case enums.DeliveryMethodDelivery:
		return o.Delivery
	case enums.DeliveryMethodShipping:
		return o.Shipping
	default:
		return false
	}
}

// ItemDiscount is the listing-level discount shown next to a cart item.
type ItemDiscount struct {
	DiscountType  string `json:"discountType"`
	DiscountValue Money  `json:"discountValue"`
}

// CartItem is one line of a cart or a buy-now checkout.
type CartItem struct {
	ID                 string              `json:"id"`
	ProductID          string              `json:"productId" validate:"required"`
	VariantID          *string             `json:"variantId,omitempty"`
	Title              string              `json:"title"`
	Price              Money               `json:"price"`
	OriginalPrice      *Money              `json:"originalPrice,omitempty"`
	Quantity           int                 `json:"quantity" validate:"min=1"`
	Image              string              `json:"image"`
	Color              *string             `json:"color,omitempty"`
	Seller             *Seller             `json:"seller,omitempty"`
	MarketplaceOptions *MarketplaceOptions `json:"marketplaceOptions,omitempty"`
	ShippingPrice      *Money              `json:"shippingPrice,omitempty"`
	Discount           *ItemDiscount       `json:"discount,omitempty"`
}

// SellerID returns the seller id or "" when the item carries none.
func (i CartItem) SellerID() string {
	if i.Seller == nil {
		return ""
	}
	return i.Seller.ID
}

// VariantKey returns the variant id or "" for single-variant products.
func (i CartItem) VariantKey() string {
	if i.VariantID == nil {
		return ""
	}
	return strings.TrimSpace(*i.VariantID)
}

// HasNegativeAmount reports whether any money field on the item is below zero.
func (i CartItem) HasNegativeAmount() bool {
	if i.Price.IsNegative() {
		return true
	}
	if i.OriginalPrice != nil && i.OriginalPrice.IsNegative() {
		return true
	}
	if i.ShippingPrice != nil && i.ShippingPrice.IsNegative() {
		return true
	}
	return i.Discount != nil && i.Discount.DiscountValue.IsNegative()
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() Money {
	return i.Price.Times(i.Quantity)
}
