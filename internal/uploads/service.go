package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/gabriel-vasile/mimetype"
)

// File is one incoming upload.
type File struct {
	Filename string
	Purpose  Purpose
	Content  io.Reader
}

// Service forwards files to the marketplace after checking size and type.
type Service interface {
	Upload(ctx context.Context, state *clientstate.Store, file File) (*marketplace.UploadedFile, error)
}

type gateway interface {
	Upload(ctx context.Context, tokens marketplace.Tokens, filename, contentType string, content []byte) (*marketplace.UploadedFile, error)
}

type service struct {
	gateway  gateway
	maxBytes int64
}

// NewService builds the upload service with a per-file size cap.
func NewService(gw gateway, maxBytes int64) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("upload gateway is required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	return &service{gateway: gw, maxBytes: maxBytes}, nil
}

// Upload sniffs the real content type instead of trusting the client header.
func (s *service) Upload(ctx context.Context, state *clientstate.Store, file File) (*marketplace.UploadedFile, error) {
	if file.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	content, err := io.ReadAll(io.LimitReader(file.Content, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(content) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(content)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file exceeds the %d MB limit", s.maxBytes>>20))
	}

	purpose := file.Purpose
	if purpose == "" {
		purpose = PurposeOther
	}
	detected := mimetype.Detect(content)
	mimeType := strings.ToLower(detected.String())
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if !mimeAllowed(purpose, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("only %s can be uploaded here", allowedMimeDescription(purpose))).
			WithDetails(map[string]any{"detected": mimeType})
	}

	return s.gateway.Upload(ctx, state, cleanFilename(file.Filename, detected.Extension()), mimeType, bytes.Clone(content))
}

func cleanFilename(name, extension string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload" + extension
	}
	if filepath.Ext(base) == "" {
		base += extension
	}
	return base
}
