package wishlist

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/internal/optimistic"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
)

// ToggleResult is the optimistic state returned before the marketplace answers.
type ToggleResult struct {
	ProductID  string `json:"productId"`
	InWishlist bool   `json:"inWishlist"`
}

// Service exposes the session wishlist.
type Service interface {
	List(ctx context.Context, state *clientstate.Store) ([]string, error)
	Toggle(ctx context.Context, state *clientstate.Store, productID string) (*ToggleResult, <-chan optimistic.Result[bool], error)
}

type gateway interface {
	ListWishlist(ctx context.Context, tokens marketplace.Tokens) ([]marketplace.WishlistEntry, error)
	AddToWishlist(ctx context.Context, tokens marketplace.Tokens, productID string) error
	RemoveFromWishlist(ctx context.Context, tokens marketplace.Tokens, productID string) error
}

type service struct {
	gateway gateway
	logg    *logger.Logger
}

// NewService builds the wishlist service.
func NewService(gw gateway, logg *logger.Logger) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("wishlist gateway is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{gateway: gw, logg: logg}, nil
}

// List returns the session wishlist. A signed-in session without a stored
// wishlist is seeded from the marketplace first.
func (s *service) List(ctx context.Context, state *clientstate.Store) ([]string, error) {
	var ids []string
	found, err := state.GetJSON(ctx, clientstate.KeyWishlist, &ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wishlist")
	}
	if !found && state.IsAuthenticated() {
		ids, err = s.seed(ctx, state)
		if err != nil {
			return nil, err
		}
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *service) seed(ctx context.Context, state *clientstate.Store) ([]string, error) {
	entries, err := s.gateway.ListWishlist(ctx, state)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.ProductID != "" && !slices.Contains(ids, entry.ProductID) {
			ids = append(ids, entry.ProductID)
		}
	}
	if err := state.PutJSON(ctx, clientstate.KeyWishlist, ids, 0); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save wishlist")
	}
	return ids, nil
}

// Toggle flips productID in the stored wishlist immediately and confirms with
// the marketplace in the background, restoring the previous membership if
// the marketplace refuses.
func (s *service) Toggle(ctx context.Context, state *clientstate.Store, productID string) (*ToggleResult, <-chan optimistic.Result[bool], error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if !state.IsAuthenticated() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please sign in to use your wishlist")
	}

	var added bool
	done, err := optimistic.Run(ctx, optimistic.Update[bool, bool]{
		Apply: func(ctx context.Context) (bool, error) {
			ids, err := s.List(ctx, state)
			if err != nil {
				return false, err
			}
			wasIn := slices.Contains(ids, productID)
			added = !wasIn
			return wasIn, s.setMembership(ctx, state, productID, added)
		},
		Confirm: func(ctx context.Context) optimistic.Result[bool] {
			var err error
			if added {
				err = s.gateway.AddToWishlist(ctx, state, productID)
			} else {
				err = s.gateway.RemoveFromWishlist(ctx, state, productID)
			}
			if err != nil {
				return optimistic.Err[bool](err)
			}
			return optimistic.Ok(added)
		},
		Rollback: func(ctx context.Context, wasIn bool) error {
			return s.setMembership(ctx, state, productID, wasIn)
		},
		Settled: func(ctx context.Context, result optimistic.Result[bool], rollbackErr error) {
			if result.IsOk() {
				return
			}
			logCtx := s.logg.WithFields(ctx, map[string]any{"session_id": state.SessionID(), "product_id": productID})
			s.logg.Warn(s.logg.WithField(logCtx, "error", result.Error().Error()), "wishlist.toggle_rolled_back")
			if rollbackErr != nil {
				s.logg.Error(logCtx, "wishlist.rollback_failed", rollbackErr)
			}
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return &ToggleResult{ProductID: productID, InWishlist: added}, done, nil
}

func (s *service) setMembership(ctx context.Context, state *clientstate.Store, productID string, in bool) error {
	ids, err := s.List(ctx, state)
	if err != nil {
		return err
	}
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == productID })
	if in {
		ids = append(ids, productID)
	}
	if err := state.PutJSON(ctx, clientstate.KeyWishlist, ids, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save wishlist")
	}
	return nil
}
