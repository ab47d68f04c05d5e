package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
)

// Content is one CMS entry (FAQ item, banner, legal page...).
type Content struct {
	ID        string               `json:"id"`
	Type      enums.CMSContentType `json:"type"`
	Title     string               `json:"title"`
	Body      string               `json:"body,omitempty"`
	Metadata  json.RawMessage      `json:"metadata,omitempty"`
	Position  int                  `json:"position"`
	Published bool                 `json:"published"`
	UpdatedAt *time.Time           `json:"updatedAt,omitempty"`
}

type ContentInput struct {
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Position  int             `json:"position"`
	Published bool            `json:"published"`
}

func cmsPath(contentType enums.CMSContentType, id string) string {
	path := "/cms/manage/" + url.PathEscape(string(contentType))
	if id != "" {
		path += "/" + url.PathEscape(id)
	}
	return path
}

func (c *Client) ListContent(ctx context.Context, tokens Tokens, contentType enums.CMSContentType) ([]Content, error) {
	var out []Content
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: cmsPath(contentType, ""), Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateContent(ctx context.Context, tokens Tokens, contentType enums.CMSContentType, in ContentInput) (*Content, error) {
	var out Content
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: cmsPath(contentType, ""), Body: in, Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateContent(ctx context.Context, tokens Tokens, contentType enums.CMSContentType, id string, in ContentInput) (*Content, error) {
	var out Content
	if err := c.Do(ctx, Request{Method: http.MethodPut, Path: cmsPath(contentType, id), Body: in, Auth: tokens}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteContent(ctx context.Context, tokens Tokens, contentType enums.CMSContentType, id string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: cmsPath(contentType, id), Auth: tokens}, nil)
}
