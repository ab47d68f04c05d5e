package marketplace

import (
	"context"
	"net/http"
	"net/url"
)

// WishlistEntry is one product saved to the account wishlist.
type WishlistEntry struct {
	ProductID string `json:"productId"`
}

func (c *Client) ListWishlist(ctx context.Context, tokens Tokens) ([]WishlistEntry, error) {
	var out []WishlistEntry
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/wishlist", Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddToWishlist(ctx context.Context, tokens Tokens, productID string) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/wishlist/" + url.PathEscape(productID), Auth: tokens}, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, tokens Tokens, productID string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/wishlist/" + url.PathEscape(productID), Auth: tokens}, nil)
}
