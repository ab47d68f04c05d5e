package uploads

import (
	"bytes"
	"context"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}

type stubGateway struct {
	filename    string
	contentType string
	size        int
}

func (s *stubGateway) Upload(_ context.Context, _ marketplace.Tokens, filename, contentType string, content []byte) (*marketplace.UploadedFile, error) {
	s.filename = filename
	s.contentType = contentType
	s.size = len(content)
	return &marketplace.UploadedFile{URL: "https://cdn.test/" + filename, MimeType: contentType}, nil
}

func TestUploadSniffsContentType(t *testing.T) {
	gw := &stubGateway{}
	svc, err := NewService(gw, 1<<20)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	file, err := svc.Upload(context.Background(), nil, File{
		Filename: `C:\fakepath\avatar`,
		Purpose:  PurposeAvatar,
		Content:  bytes.NewReader(pngHeader),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gw.contentType != "image/png" {
		t.Fatalf("expected sniffed png, got %q", gw.contentType)
	}
	if gw.filename != "avatar.png" {
		t.Fatalf("expected cleaned filename, got %q", gw.filename)
	}
	if file.URL == "" {
		t.Fatal("expected url")
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	svc, _ := NewService(&stubGateway{}, 1<<20)
	_, err := svc.Upload(context.Background(), nil, File{
		Filename: "notes.txt",
		Purpose:  PurposeAvatar,
		Content:  strings.NewReader("plain text pretending to be an image"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "only images can be uploaded here" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestUploadEnforcesSizeLimit(t *testing.T) {
	gw := &stubGateway{}
	svc, _ := NewService(gw, 8)
	_, err := svc.Upload(context.Background(), nil, File{Filename: "big.png", Content: bytes.NewReader(pngHeader)})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected size validation error, got %v", err)
	}
	if gw.size != 0 {
		t.Fatal("oversized files must not be forwarded")
	}
}

func TestParsePurpose(t *testing.T) {
	if p, err := ParsePurpose(""); err != nil || p != PurposeOther {
		t.Fatalf("blank purpose should default to other, got %q %v", p, err)
	}
	if p, err := ParsePurpose(" Document "); err != nil || p != PurposeDocument {
		t.Fatalf("expected document, got %q %v", p, err)
	}
	if _, err := ParsePurpose("malware"); err == nil {
		t.Fatal("expected error for unknown purpose")
	}
}

func TestHumanReadableList(t *testing.T) {
	if got := humanReadableList([]string{"PDFs", "images", "videos"}); got != "PDFs, images, or videos" {
		t.Fatalf("unexpected list %q", got)
	}
}
