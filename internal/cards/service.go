package cards

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/internal/optimistic"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
)

// AddCardInput is the payload of the add-card form.
type AddCardInput struct {
	PaymentMethodToken string `json:"paymentMethodToken" validate:"required"`
	HolderName         string `json:"holderName" validate:"omitempty,max=120"`
	SetDefault         bool   `json:"setDefault"`
}

// Service manages the saved payment cards of the signed-in visitor.
type Service interface {
	List(ctx context.Context, state *clientstate.Store) ([]marketplace.Card, error)
	Add(ctx context.Context, state *clientstate.Store, input AddCardInput) (*marketplace.Card, error)
	Delete(ctx context.Context, state *clientstate.Store, cardID string) error
	SetDefault(ctx context.Context, state *clientstate.Store, cardID string) ([]marketplace.Card, <-chan optimistic.Result[string], error)
}

type gateway interface {
	ListCards(ctx context.Context, tokens marketplace.Tokens) ([]marketplace.Card, error)
	AddCard(ctx context.Context, tokens marketplace.Tokens, req marketplace.AddCardRequest) (*marketplace.Card, error)
	DeleteCard(ctx context.Context, tokens marketplace.Tokens, cardID string) error
	SetDefaultCard(ctx context.Context, tokens marketplace.Tokens, cardID string) error
}

type service struct {
	gateway gateway
	logg    *logger.Logger
}

// NewService builds the cards service.
func NewService(gw gateway, logg *logger.Logger) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("cards gateway is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{gateway: gw, logg: logg}, nil
}

// List fetches the cards and refreshes the session copy used by SetDefault.
func (s *service) List(ctx context.Context, state *clientstate.Store) ([]marketplace.Card, error) {
	cards, err := s.gateway.ListCards(ctx, state)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []marketplace.Card{}
	}
	if err := s.cache(ctx, state, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *service) Add(ctx context.Context, state *clientstate.Store, input AddCardInput) (*marketplace.Card, error) {
	card, err := s.gateway.AddCard(ctx, state, marketplace.AddCardRequest{
		PaymentMethodToken: strings.TrimSpace(input.PaymentMethodToken),
		HolderName:         strings.TrimSpace(input.HolderName),
		SetDefault:         input.SetDefault,
	})
	if err != nil {
		return nil, err
	}
	if err := state.Delete(ctx, clientstate.KeyCards); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cards.cache_invalidate_failed")
	}
	return card, nil
}

func (s *service) Delete(ctx context.Context, state *clientstate.Store, cardID string) error {
	if strings.TrimSpace(cardID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cardId is required")
	}
	if err := s.gateway.DeleteCard(ctx, state, cardID); err != nil {
		return err
	}
	cards, err := s.cached(ctx, state)
	if err != nil || cards == nil {
		return nil
	}
	kept := cards[:0]
	for _, card := range cards {
		if card.ID != cardID {
			kept = append(kept, card)
		}
	}
	if err := s.cache(ctx, state, kept); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cards.cache_update_failed")
	}
	return nil
}

// SetDefault marks cardID as default in the session copy right away and
// confirms with the marketplace in the background. A refusal restores the
// previous default.
func (s *service) SetDefault(ctx context.Context, state *clientstate.Store, cardID string) ([]marketplace.Card, <-chan optimistic.Result[string], error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cardId is required")
	}
	cards, err := s.cached(ctx, state)
	if err != nil {
		return nil, nil, err
	}
	if cards == nil {
		if cards, err = s.List(ctx, state); err != nil {
			return nil, nil, err
		}
	}
	if indexOf(cards, cardID) < 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
	}

	var applied []marketplace.Card
	done, err := optimistic.Run(ctx, optimistic.Update[string, string]{
		Apply: func(ctx context.Context) (string, error) {
			previous := defaultID(cards)
			applied = markDefault(cards, cardID)
			return previous, s.cache(ctx, state, applied)
		},
		Confirm: func(ctx context.Context) optimistic.Result[string] {
			if err := s.gateway.SetDefaultCard(ctx, state, cardID); err != nil {
				return optimistic.Err[string](err)
			}
			return optimistic.Ok(cardID)
		},
		Rollback: func(ctx context.Context, previous string) error {
			current, err := s.cached(ctx, state)
			if err != nil {
				return err
			}
			return s.cache(ctx, state, markDefault(current, previous))
		},
		Settled: func(ctx context.Context, result optimistic.Result[string], rollbackErr error) {
			if result.IsOk() {
				return
			}
			logCtx := s.logg.WithFields(ctx, map[string]any{"session_id": state.SessionID(), "card_id": cardID})
			s.logg.Warn(s.logg.WithField(logCtx, "error", result.Error().Error()), "cards.default_rolled_back")
			if rollbackErr != nil {
				s.logg.Error(logCtx, "cards.rollback_failed", rollbackErr)
			}
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return applied, done, nil
}

func (s *service) cached(ctx context.Context, state *clientstate.Store) ([]marketplace.Card, error) {
	var cards []marketplace.Card
	found, err := state.GetJSON(ctx, clientstate.KeyCards, &cards)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cards")
	}
	if !found {
		return nil, nil
	}
	return cards, nil
}

func (s *service) cache(ctx context.Context, state *clientstate.Store, cards []marketplace.Card) error {
	if err := state.PutJSON(ctx, clientstate.KeyCards, cards, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cards")
	}
	return nil
}

func markDefault(cards []marketplace.Card, cardID string) []marketplace.Card {
	out := make([]marketplace.Card, len(cards))
	for i, card := range cards {
		card.IsDefault = card.ID == cardID
		out[i] = card
	}
	return out
}

func defaultID(cards []marketplace.Card) string {
	for _, card := range cards {
		if card.IsDefault {
			return card.ID
		}
	}
	return ""
}

func indexOf(cards []marketplace.Card, cardID string) int {
	for i, card := range cards {
		if card.ID == cardID {
			return i
		}
	}
	return -1
}
