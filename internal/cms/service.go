package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
)

// Input is a CMS entry as submitted by the admin pages.
type Input struct {
	Title     string          `json:"title" validate:"required,max=200"`
	Body      string          `json:"body"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Position  int             `json:"position" validate:"min=0"`
	Published bool            `json:"published"`
}

// Service proxies CMS content management.
type Service interface {
	List(ctx context.Context, state *clientstate.Store, contentType string) ([]marketplace.Content, error)
	Create(ctx context.Context, state *clientstate.Store, contentType string, input Input) (*marketplace.Content, error)
	Update(ctx context.Context, state *clientstate.Store, contentType, contentID string, input Input) (*marketplace.Content, error)
	Delete(ctx context.Context, state *clientstate.Store, contentType, contentID string) error
}

type gateway interface {
	ListContent(ctx context.Context, tokens marketplace.Tokens, contentType enums.CMSContentType) ([]marketplace.Content, error)
	CreateContent(ctx context.Context, tokens marketplace.Tokens, contentType enums.CMSContentType, in marketplace.ContentInput) (*marketplace.Content, error)
	UpdateContent(ctx context.Context, tokens marketplace.Tokens, contentType enums.CMSContentType, id string, in marketplace.ContentInput) (*marketplace.Content, error)
	DeleteContent(ctx context.Context, tokens marketplace.Tokens, contentType enums.CMSContentType, id string) error
}

type service struct {
	gateway gateway
}

// NewService builds the CMS service.
func NewService(gw gateway) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("cms gateway is required")
	}
	return &service{gateway: gw}, nil
}

// List returns entries ordered by position.
func (s *service) List(ctx context.Context, state *clientstate.Store, contentType string) ([]marketplace.Content, error) {
	kind, err := parseType(contentType)
	if err != nil {
		return nil, err
	}
	entries, err := s.gateway.ListContent(ctx, state, kind)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []marketplace.Content{}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return entries, nil
}

func (s *service) Create(ctx context.Context, state *clientstate.Store, contentType string, input Input) (*marketplace.Content, error) {
	kind, err := parseType(contentType)
	if err != nil {
		return nil, err
	}
	return s.gateway.CreateContent(ctx, state, kind, toUpstream(input))
}

func (s *service) Update(ctx context.Context, state *clientstate.Store, contentType, contentID string, input Input) (*marketplace.Content, error) {
	kind, err := parseType(contentType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(contentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contentId is required")
	}
	return s.gateway.UpdateContent(ctx, state, kind, contentID, toUpstream(input))
}

func (s *service) Delete(ctx context.Context, state *clientstate.Store, contentType, contentID string) error {
	kind, err := parseType(contentType)
	if err != nil {
		return err
	}
	if strings.TrimSpace(contentID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contentId is required")
	}
	return s.gateway.DeleteContent(ctx, state, kind, contentID)
}

func parseType(raw string) (enums.CMSContentType, error) {
	kind, err := enums.ParseCMSContentType(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown content type")
	}
	return kind, nil
}

func toUpstream(input Input) marketplace.ContentInput {
	return marketplace.ContentInput{
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Metadata:  input.Metadata,
		Position:  input.Position,
		Published: input.Published,
	}
}
