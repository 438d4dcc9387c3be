package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// Supabase implements ports.ObjectStore against the Supabase Storage REST API.
type Supabase struct {
	client  *fasthttp.Client
	baseURL string
	key     string
	bucket  string
}

// NewSupabase creates a storage client for bucket at baseURL, authenticating with key.
func NewSupabase(baseURL, key, bucket string) *Supabase {
	return &Supabase{
		client: &fasthttp.Client{
			Name:         "pothole-api",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		bucket:  bucket,
	}
}

// StatusError is returned when the storage API answers with a non-2xx status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storage %s: status %d: %s", e.Op, e.Status, e.Body)
}

func (s *Supabase) objectURL(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return s.baseURL + "/storage/v1/object/" + strings.Join(escaped, "/")
}

// PublicURL returns the public download URL of key. It is derived, never stored.
func (s *Supabase) PublicURL(key string) string {
	return s.objectURL("public", s.bucket, key)
}

// Upload stores data under key with the given content type.
func (s *Supabase) Upload(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.do(ctx, "upload", fasthttp.MethodPost, s.objectURL(s.bucket, key), contentType, data)
	return err
}

// Delete removes keys from the bucket. Missing keys are ignored by the API.
func (s *Supabase) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string][]string{"prefixes": keys})
	if err != nil {
		return err
	}
	_, err = s.do(ctx, "delete", fasthttp.MethodDelete, s.objectURL(s.bucket), "application/json", body)
	return err
}

type listRequest struct {
	Prefix string     `json:"prefix"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	SortBy listSortBy `json:"sortBy"`
}

type listSortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

type listEntry struct {
	Name string `json:"name"`
}

// List returns object names under prefix, sorted by name.
func (s *Supabase) List(ctx context.Context, prefix string, offset, limit int) ([]string, error) {
	body, err := json.Marshal(listRequest{
		Prefix: prefix,
		Limit:  limit,
		Offset: offset,
		SortBy: listSortBy{Column: "name", Order: "asc"},
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.do(ctx, "list", fasthttp.MethodPost, s.objectURL("list", s.bucket), "application/json", body)
	if err != nil {
		return nil, err
	}

	var entries []listEntry
	if err := json.Unmarshal(resp, &entries); err != nil {
		return nil, fmt.Errorf("storage list: decode: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

func (s *Supabase) do(ctx context.Context, op, method, uri, contentType string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+s.key)
	req.Header.Set("apikey", s.key)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	req.SetBody(body)

	timeout := 15 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, fmt.Errorf("storage %s: %w", op, context.DeadlineExceeded)
		}
	}

	if err := s.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("storage %s: %w", op, err)
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		msg := string(resp.Body())
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return nil, &StatusError{Op: op, Status: code, Body: msg}
	}
	return append([]byte(nil), resp.Body()...), nil
}
