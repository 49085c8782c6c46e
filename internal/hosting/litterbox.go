package hosting

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	uploadFileField = "fileToUpload"
	uploadFileName  = "image.png"
	uploadMIMEType  = "image/png"
	maxBodyPreview  = 200
)

// Litterbox uploads images to a temporary public host so that URL-only
// services can fetch them.
type Litterbox struct {
	client   *resty.Client
	endpoint string
	expiry   string
}

// NewLitterbox creates an uploader for the given API endpoint. expiry is one
// of the host's retention values such as "1h".
func NewLitterbox(endpoint, expiry string, timeout time.Duration) *Litterbox {
	return &Litterbox{
		client:   resty.New().SetTimeout(timeout),
		endpoint: endpoint,
		expiry:   expiry,
	}
}

// Upload stores the PNG and returns its public URL.
func (l *Litterbox) Upload(ctx context.Context, png []byte) (string, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"reqtype": "fileupload",
			"time":    l.expiry,
		}).
		SetMultipartField(uploadFileField, uploadFileName, uploadMIMEType, bytes.NewReader(png)).
		Post(l.endpoint)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}

	body := strings.TrimSpace(resp.String())
	if resp.StatusCode() != http.StatusOK || !strings.HasPrefix(body, "https://") {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode(), preview(body))
	}
	return body, nil
}

func preview(body string) string {
	if len(body) > maxBodyPreview {
		return body[:maxBodyPreview] + "..."
	}
	return body
}
