package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/internal/navguard"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/angelmondragon/marketplace-storefront/pkg/metrics"
)

const paymentInProgressMessage = "Payment already in progress"

// Service exposes the checkout page operations.
type Service interface {
	Quote(ctx context.Context, state *clientstate.Store, req QuoteRequest) (*Quote, error)
	PlaceOrder(ctx context.Context, state *clientstate.Store, req PlaceOrderRequest) (*PlaceOrderResult, error)
}

type paymentGateway interface {
	CreatePaymentIntent(ctx context.Context, tokens marketplace.Tokens, req marketplace.PaymentIntentRequest) (*marketplace.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, tokens marketplace.Tokens, req marketplace.ConfirmPaymentRequest) (*marketplace.PaymentConfirmation, error)
}

type processingFlags interface {
	Acquire(ctx context.Context, sessionID string) (func(context.Context) error, bool, error)
	IsProcessing(ctx context.Context, sessionID string) (bool, error)
}

type shellRegistry interface {
	Shell(sessionID string) navguard.Shell
}

// ServiceParams bundles the dependencies of the checkout service.
type ServiceParams struct {
	Payments paymentGateway
	Cart     cartStore
	Flags    processingFlags
	Shells   shellRegistry
	Pricer   Pricer
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	payments paymentGateway
	cart     cartStore
	flags    processingFlags
	shells   shellRegistry
	pricer   Pricer
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	if params.Flags == nil {
		return nil, fmt.Errorf("processing flags are required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		payments: params.Payments,
		cart:     params.Cart,
		flags:    params.Flags,
		shells:   params.Shells,
		pricer:   params.Pricer,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Quote(ctx context.Context, state *clientstate.Store, req QuoteRequest) (*Quote, error) {
	if state == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "client state missing")
	}
	if !req.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	items, err := resolveItems(ctx, s.cart, state, req.ItemSource)
	if err != nil {
		return nil, err
	}
	processing, err := s.flags.IsProcessing(ctx, state.SessionID())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read processing flag")
	}
	quote := BuildQuote(s.pricer, req.ItemSource.kind(), items, req.DeliveryMethod, processing)
	return &quote, nil
}
