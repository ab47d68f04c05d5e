package checkout

import (
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
)

const (
	PlaceOrderLabel       = "Place Order"
	NoItemsAvailableLabel = "No items available"
	ProcessingLabel       = "Processing..."
)

// QuoteRequest asks for the checkout summary under one delivery method.
type QuoteRequest struct {
	ItemSource
	DeliveryMethod enums.DeliveryMethod `json:"deliveryMethod" validate:"required,oneof=pickup delivery shipping"`
}

// Quote is everything the checkout page renders before Place Order.
type Quote struct {
	Source              enums.CheckoutSource `json:"source"`
	DeliveryMethod      enums.DeliveryMethod `json:"deliveryMethod"`
	AvailableMethods    AvailableMethods     `json:"availableMethods"`
	Sellers             []SellerAvailability `json:"sellers"`
	SupportedItems      []types.CartItem     `json:"supportedItems"`
	UnsupportedItems    []types.CartItem     `json:"unsupportedItems"`
	Totals              Totals               `json:"totals"`
	IsProcessingPayment bool                 `json:"isProcessingPayment"`
	CanPlaceOrder       bool                 `json:"canPlaceOrder"`
	PlaceOrderLabel     string               `json:"placeOrderLabel"`
}

// BuildQuote is the pure part of the quote: partition, price and label.
func BuildQuote(pricer Pricer, source enums.CheckoutSource, items []types.CartItem, method enums.DeliveryMethod, processing bool) Quote {
	supported, unsupported := Partition(items, method)
	quote := Quote{
		Source:              source,
		DeliveryMethod:      method,
		AvailableMethods:    AvailableDeliveryMethods(items),
		Sellers:             AvailabilityBySeller(items),
		SupportedItems:      supported,
		UnsupportedItems:    unsupported,
		Totals:              pricer.Totals(supported, unsupported, method),
		IsProcessingPayment: processing,
	}
	switch {
	case len(supported) == 0:
		quote.PlaceOrderLabel = NoItemsAvailableLabel
	case processing:
		quote.PlaceOrderLabel = ProcessingLabel
	default:
		quote.CanPlaceOrder = true
		quote.PlaceOrderLabel = PlaceOrderLabel
	}
	return quote
}
