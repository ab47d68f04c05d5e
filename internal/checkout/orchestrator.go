package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/internal/navguard"
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/angelmondragon/marketplace-storefront/pkg/metrics"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
)

// PlaceOrderRequest is one Place Order click.
type PlaceOrderRequest struct {
	ItemSource
	DeliveryMethod  enums.DeliveryMethod `json:"deliveryMethod" validate:"required,oneof=pickup delivery shipping"`
	DeliveryAddress *types.Address       `json:"deliveryAddress,omitempty"`
	PaymentCardID   string               `json:"paymentCardId"`
	Notes           string               `json:"notes" validate:"max=1000"`
	// CurrentURL is the checkout page entry re-pushed when back is pressed mid-payment.
	CurrentURL string `json:"currentUrl,omitempty"`
}

// PlaceOrderResult feeds the success dialog.
type PlaceOrderResult struct {
	State           enums.CheckoutState `json:"state"`
	PaymentIntentID string              `json:"paymentIntentId"`
	OrderIDs        []string            `json:"orderIds"`
	Items           []types.CartItem    `json:"items"`
	Totals          Totals              `json:"totals"`
	CartCleared     bool                `json:"cartCleared"`
}

// PlaceOrder runs Validating, CreatingIntent and ConfirmingPayment. Any
// failure ends the attempt back in Idle with the processing flag cleared.
func (s *service) PlaceOrder(ctx context.Context, state *clientstate.Store, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if state == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "client state missing")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"session_id":      state.SessionID(),
		"checkout_source": string(req.ItemSource.kind()),
		"delivery_method": string(req.DeliveryMethod),
	})

	stageStart := s.now()
	s.transition(ctx, enums.CheckoutStateValidating)
	items, err := resolveItems(ctx, s.cart, state, req.ItemSource)
	if err != nil {
		return nil, s.fail(ctx, metrics.OutcomeValidation, err)
	}
	supported, unsupported := Partition(items, req.DeliveryMethod)
	if err := validatePlaceOrder(req, supported); err != nil {
		return nil, s.fail(ctx, metrics.OutcomeValidation, err)
	}
	totals := s.pricer.Totals(supported, unsupported, req.DeliveryMethod)
	s.metrics.ObserveStage(string(enums.CheckoutStateValidating), s.now().Sub(stageStart))

	release, ok, err := s.flags.Acquire(ctx, state.SessionID())
	if err != nil {
		return nil, s.fail(ctx, metrics.OutcomeIntentFailed, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set processing flag"))
	}
	if !ok {
		return nil, s.fail(ctx, metrics.OutcomeAlreadyInFlight, pkgerrors.New(pkgerrors.CodeConflict, paymentInProgressMessage))
	}
	// Payment calls run to completion even if the browser goes away.
	payCtx := context.WithoutCancel(ctx)
	s.metrics.PaymentStarted()
	guard := s.activateGuard(payCtx, state.SessionID(), req.CurrentURL)
	defer func() {
		guard.Release()
		s.metrics.PaymentFinished()
		if relErr := release(payCtx); relErr != nil {
			s.logg.Error(payCtx, "checkout.processing_flag_release_failed", relErr)
		}
	}()

	stageStart = s.now()
	s.transition(ctx, enums.CheckoutStateCreatingIntent)
	intent, err := s.payments.CreatePaymentIntent(payCtx, state, buildIntentRequest(req, supported, totals))
	s.metrics.ObserveStage(string(enums.CheckoutStateCreatingIntent), s.now().Sub(stageStart))
	if err != nil {
		return nil, s.fail(ctx, metrics.OutcomeIntentFailed, err)
	}
	if intent == nil || strings.TrimSpace(intent.PaymentIntentID) == "" || len(intent.OrderIDs) == 0 {
		return nil, s.fail(ctx, metrics.OutcomeIntentFailed, pkgerrors.New(pkgerrors.CodeUpstreamRejected, ""))
	}

	stageStart = s.now()
	ctx = s.logg.WithField(ctx, "payment_intent_id", intent.PaymentIntentID)
	s.transition(ctx, enums.CheckoutStateConfirmingPayment)
	_, err = s.payments.ConfirmPayment(payCtx, state, marketplace.ConfirmPaymentRequest{
		PaymentIntentID: intent.PaymentIntentID,
		OrderID:         intent.OrderIDs[0],
	})
	s.metrics.ObserveStage(string(enums.CheckoutStateConfirmingPayment), s.now().Sub(stageStart))
	if err != nil {
		return nil, s.fail(ctx, metrics.OutcomeConfirmFailed, err)
	}

	result := &PlaceOrderResult{
		State:           enums.CheckoutStateSuccess,
		PaymentIntentID: intent.PaymentIntentID,
		OrderIDs:        intent.OrderIDs,
		Items:           supported,
		Totals:          totals,
	}
	if req.ItemSource.kind() == enums.CheckoutSourceCart {
		if err := s.cart.Clear(payCtx, state); err != nil {
			s.logg.Error(payCtx, "checkout.cart_clear_failed", err)
		} else {
			result.CartCleared = true
		}
	}
	s.transition(ctx, enums.CheckoutStateSuccess)
	s.metrics.IncAttempt(metrics.OutcomeSuccess)
	return result, nil
}

func validatePlaceOrder(req PlaceOrderRequest, supported []types.CartItem) error {
	if !req.DeliveryMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if len(supported) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, NoItemsAvailableLabel)
	}
	if req.DeliveryMethod.RequiresAddress() && req.DeliveryAddress.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Please select a %s address", req.DeliveryMethod))
	}
	if strings.TrimSpace(req.PaymentCardID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please select a payment method")
	}
	return nil
}

// buildIntentRequest only ever carries supported items.
func buildIntentRequest(req PlaceOrderRequest, supported []types.CartItem, totals Totals) marketplace.PaymentIntentRequest {
	lines := make([]marketplace.CheckoutItem, 0, len(supported))
	for _, item := range supported {
		lines = append(lines, marketplace.CheckoutItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			SellerID:  item.SellerID(),
			Title:     item.Title,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	var address *types.Address
	if req.DeliveryMethod.RequiresAddress() {
		address = req.DeliveryAddress
	}
	return marketplace.PaymentIntentRequest{
		Items:           lines,
		DeliveryMethod:  req.DeliveryMethod,
		DeliveryAddress: address,
		PaymentCardID:   strings.TrimSpace(req.PaymentCardID),
		Totals: marketplace.CheckoutTotals{
			Subtotal:    totals.Subtotal,
			DeliveryFee: totals.DeliveryFee,
			Tax:         totals.Tax,
			Discount:    totals.Discount,
			Total:       totals.Total,
		},
		Notes: req.Notes,
	}
}

func (s *service) activateGuard(ctx context.Context, sessionID, currentURL string) *navguard.Guard {
	if s.shells == nil {
		return navguard.Activate(nil, currentURL, nil)
	}
	return navguard.Activate(s.shells.Shell(sessionID), currentURL, func(attempt navguard.Attempt) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"navigation_kind": string(attempt.Kind),
			"navigation_to":   attempt.To,
		}), "checkout.payment_abandoned_by_navigation")
	})
}

func (s *service) transition(ctx context.Context, to enums.CheckoutState) {
	s.logg.Info(s.logg.WithField(ctx, "checkout_state", string(to)), "checkout.state")
}

func (s *service) fail(ctx context.Context, outcome string, err error) error {
	s.metrics.IncAttempt(outcome)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"checkout_state":   string(enums.CheckoutStateIdle),
		"checkout_outcome": outcome,
	})
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
		s.logg.Info(logCtx, "checkout.validation_failed: "+typed.Message())
	} else {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "checkout.failed")
	}
	return err
}
