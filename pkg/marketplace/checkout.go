package marketplace

import (
	"context"
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
)

// CheckoutItem is one supported line sent to create-intent.
type CheckoutItem struct {
	ProductID string      `json:"productId"`
	VariantID *string     `json:"variantId,omitempty"`
	SellerID  string      `json:"sellerId,omitempty"`
	Title     string      `json:"title,omitempty"`
	Price     types.Money `json:"price"`
	Quantity  int         `json:"quantity"`
}

// CheckoutTotals mirrors the amounts shown on the checkout summary.
type CheckoutTotals struct {
	Subtotal    types.Money `json:"subtotal"`
	DeliveryFee types.Money `json:"deliveryFee"`
	Tax         types.Money `json:"tax"`
	Discount    types.Money `json:"discount"`
	Total       types.Money `json:"total"`
}

type PaymentIntentRequest struct {
	Items           []CheckoutItem       `json:"items"`
	DeliveryMethod  enums.DeliveryMethod `json:"deliveryMethod"`
	DeliveryAddress *types.Address       `json:"deliveryAddress,omitempty"`
	PaymentCardID   string               `json:"paymentCardId"`
	Totals          CheckoutTotals       `json:"totals"`
	Notes           string               `json:"notes"`
}

// PaymentIntent is the create-intent answer: one order id per seller sub-order.
type PaymentIntent struct {
	PaymentIntentID string   `json:"paymentIntentId"`
	OrderIDs        []string `json:"orderIds"`
	ClientSecret    string   `json:"clientSecret,omitempty"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId"`
}

type PaymentConfirmation struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, tokens Tokens, req PaymentIntentRequest) (*PaymentIntent, error) {
	var out PaymentIntent
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/checkout/payment-intent", Body: req, Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConfirmPayment(ctx context.Context, tokens Tokens, req ConfirmPaymentRequest) (*PaymentConfirmation, error) {
	var out PaymentConfirmation
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/checkout/confirm-payment", Body: req, Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
