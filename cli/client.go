package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const clientTimeout = 5 * time.Minute

type client struct {
	baseURL    string
	httpClient *http.Client
}

// response is a server reply as received, before it is printed.
type response struct {
	StatusCode int
	Body       []byte
}

func newHTTPClient(baseURL string) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// Upload sends the file at path as the "file" field of a multipart form.
func (c *client) Upload(ctx context.Context, path string) (*response, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return c.do(ctx, http.MethodPost, "/upload", writer.FormDataContentType(), body)
}

func (c *client) Query(ctx context.Context, question string) (*response, error) {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/query", "application/json", bytes.NewReader(payload))
}

func (c *client) do(ctx context.Context, method string, path string, contentType string, body io.Reader) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read server response: %w", err)
	}
	return &response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// pretty indents JSON replies and leaves anything else untouched.
func (r *response) pretty() string {
	out := &bytes.Buffer{}
	if err := json.Indent(out, r.Body, "", "  "); err != nil {
		return strings.TrimSpace(string(r.Body))
	}
	return out.String()
}

func (r *response) err() error {
	if r.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server responded with %d %s", r.StatusCode, http.StatusText(r.StatusCode))
	}
	return nil
}
