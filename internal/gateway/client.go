package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/devSoft1007/netraAI-sub000/pkg/logging"
)

const defaultTimeout = 20 * time.Second

var tracer = otel.Tracer("netra/gateway")

// TokenSource supplies the bearer token attached to edge function calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token. An empty value
// means requests go out without an Authorization header.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// File is a request body sent as a single multipart field named "file".
type File struct {
	Name   string
	Reader io.Reader
}

// FormBody is a caller-assembled body (typically multipart) passed through
// untouched; ContentType carries the boundary.
type FormBody struct {
	ContentType string
	Reader      io.Reader
}

// Client issues HTTP requests against the configured edge function base URL.
type Client struct {
	baseURL    string
	anonKey    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a gateway client. tokens may be nil for anonymous calls.
func NewClient(baseURL, anonKey string, tokens TokenSource, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		anonKey: anonKey,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		logger: logger,
	}
}

// SetTimeout overrides the default request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// Do issues a request and returns the raw response body. Non-2xx statuses
// and success:false envelopes are normalized into errors; the caller owns
// retry policy (none is applied here).
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	url := c.resolveURL(path)

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode body: %w", err)
	}

	ctx, span := tracer.Start(ctx, "gateway.request", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("gateway: resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: http request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := newStatusError(resp.StatusCode, respBody)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := checkEnvelope(respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// DoJSON issues a request and unmarshals the 2xx response body into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, out any) error {
	respBody, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("gateway: unmarshal response: %w", err)
	}
	return nil
}

// GetJSON fetches path and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON posts body to path and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.DoJSON(ctx, http.MethodPost, path, body, out)
}

// PatchJSON patches path with body and decodes the response into out.
func (c *Client) PatchJSON(ctx context.Context, path string, body, out any) error {
	return c.DoJSON(ctx, http.MethodPatch, path, body, out)
}

// DeleteJSON issues a DELETE with an optional JSON body.
func (c *Client) DeleteJSON(ctx context.Context, path string, body, out any) error {
	return c.DoJSON(ctx, http.MethodDelete, path, body, out)
}

// PostForm posts a multipart form with the given string fields and optional
// file fields, decoding the response into out.
func (c *Client) PostForm(ctx context.Context, path string, fields map[string]string, files map[string]File, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("gateway: write form field %s: %w", name, err)
		}
	}
	for name, f := range files {
		part, err := w.CreateFormFile(name, f.Name)
		if err != nil {
			return fmt.Errorf("gateway: create form file %s: %w", name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return fmt.Errorf("gateway: copy form file %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gateway: close form: %w", err)
	}
	return c.DoJSON(ctx, http.MethodPost, path, &FormBody{
		ContentType: w.FormDataContentType(),
		Reader:      &buf,
	}, out)
}

func (c *Client) resolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *File:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", b.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, b.Reader); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	case *FormBody:
		return b.Reader, b.ContentType, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
