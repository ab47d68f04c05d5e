package marketplace

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
)

// UploadedFile is the stored object the marketplace returns for /upload.
type UploadedFile struct {
	URL      string `json:"url"`
	Key      string `json:"key,omitempty"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Upload posts content as the multipart field "file".
func (c *Client) Upload(ctx context.Context, tokens Tokens, filename, contentType string, content []byte) (*UploadedFile, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(filename)+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload part")
	}
	if _, err := part.Write(content); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload part")
	}
	if err := writer.Close(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close upload body")
	}

	var out UploadedFile
	req := Request{
		Method:      http.MethodPost,
		Path:        "/upload",
		RawBody:     buf.Bytes(),
		ContentType: writer.FormDataContentType(),
		Auth:        tokens,
	}
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
