// Package rest implements the transport contract over a conventional JSON
// REST backend: GET /users, GET /users/1, POST, PATCH, DELETE.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/rescache/resource"
	"github.com/unkn0wn-root/rescache/transport"
)

var ErrNoBaseURL = errors.New("rest: base url is required")

// defaultClient dials fast and fails fast on handshakes, with a generous
// overall deadline for slow list endpoints.
var defaultClient = func() *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
		},
		Timeout: 60 * time.Second,
	}
}()

type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com/v1". Required.
	BaseURL string
	// Client overrides the HTTP client. Nil means a default with sane
	// timeouts.
	Client *http.Client
	// Headers supplies per-request headers (auth tokens and the like).
	Headers transport.HeaderFunc
	// MaxErrorBody bounds how much of an error response is retained.
	// 0 means 64 KiB.
	MaxErrorBody int
}

type Client struct {
	base       string
	hc         *http.Client
	headers    transport.HeaderFunc
	maxErrBody int
}

var (
	_ transport.Transport      = (*Client)(nil)
	_ transport.SchemaProvider = (*Client)(nil)
)

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	c := &Client{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		hc:         cfg.Client,
		headers:    cfg.Headers,
		maxErrBody: cfg.MaxErrorBody,
	}
	if c.hc == nil {
		c.hc = defaultClient
	}
	if c.maxErrBody <= 0 {
		c.maxErrBody = 64 << 10
	}
	return c, nil
}

func (c *Client) List(ctx context.Context, res string, q resource.Query) (resource.ListResult, error) {
	u := c.url(res, "")
	if enc := queryValues(q).Encode(); enc != "" {
		u += "?" + enc
	}
	b, ct, err := c.do(ctx, "list", res, "", http.MethodGet, u, nil)
	if err != nil {
		return resource.ListResult{}, err
	}
	if !isJSON(ct) {
		return resource.ListResult{}, fmt.Errorf("rest: list %s: unexpected content type %q", res, ct)
	}
	return decodeList(res, b)
}

func (c *Client) Get(ctx context.Context, res, id string) (resource.Item, error) {
	b, ct, err := c.do(ctx, "get", res, id, http.MethodGet, c.url(res, id), nil)
	if err != nil {
		return nil, err
	}
	return decodeItem("get", res, b, ct)
}

func (c *Client) Create(ctx context.Context, res string, data resource.Item) (resource.Item, error) {
	b, ct, err := c.do(ctx, "create", res, "", http.MethodPost, c.url(res, ""), data)
	if err != nil {
		return nil, err
	}
	return decodeItem("create", res, b, ct)
}

func (c *Client) Update(ctx context.Context, res, id string, patch map[string]any) (resource.Item, error) {
	b, ct, err := c.do(ctx, "update", res, id, http.MethodPatch, c.url(res, id), patch)
	if err != nil {
		return nil, err
	}
	return decodeItem("update", res, b, ct)
}

func (c *Client) Delete(ctx context.Context, res, id string) error {
	_, _, err := c.do(ctx, "delete", res, id, http.MethodDelete, c.url(res, id), nil)
	return err
}

// Schema fetches GET {base}/{res}/schema.
func (c *Client) Schema(ctx context.Context, res string) (map[string]any, error) {
	b, ct, err := c.do(ctx, "schema", res, "", http.MethodGet, c.url(res, "")+"/schema", nil)
	if err != nil {
		return nil, err
	}
	if !isJSON(ct) {
		return nil, fmt.Errorf("rest: schema %s: unexpected content type %q", res, ct)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("rest: schema %s: decode response: %w", res, err)
	}
	return m, nil
}

func (c *Client) url(res, id string) string {
	u := c.base + "/" + res
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *Client) do(ctx context.Context, op, res, id, method, u string, in any) ([]byte, string, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, "", fmt.Errorf("rest: %s %s: encode request: %w", op, res, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, "", err
	}
	if c.headers != nil {
		h, err := c.headers(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("rest: %s %s: headers: %w", op, res, err)
		}
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("rest: %s %s: read response: %w", op, res, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(b) > c.maxErrBody {
			b = b[:c.maxErrBody]
		}
		return nil, "", &transport.Error{Op: op, Resource: res, ID: id, Status: resp.StatusCode, Body: b}
	}
	return b, resp.Header.Get("Content-Type"), nil
}

// queryValues serializes a query for the wire. Filters go out raw (scalars
// as plain text, composites as JSON), unlike the canonical cache key which
// JSON-encodes everything to keep types apart.
func queryValues(q resource.Query) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	for k, fv := range q.Filter {
		v.Set(k, filterParam(fv))
	}
	return v
}

func filterParam(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func decodeList(res string, b []byte) (resource.ListResult, error) {
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []resource.Item
		if err := json.Unmarshal(b, &items); err != nil {
			return resource.ListResult{}, fmt.Errorf("rest: list %s: decode response: %w", res, err)
		}
		return resource.ListResult{Items: items, Total: len(items)}, nil
	}

	var env struct {
		Items []resource.Item `json:"items"`
		Data  []resource.Item `json:"data"`
		Total *int            `json:"total"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return resource.ListResult{}, fmt.Errorf("rest: list %s: decode response: %w", res, err)
	}
	items := env.Items
	if items == nil {
		items = env.Data
	}
	total := len(items)
	if env.Total != nil {
		total = *env.Total
	}
	return resource.ListResult{Items: items, Total: total}, nil
}

func decodeItem(op, res string, b []byte, ct string) (resource.Item, error) {
	if !isJSON(ct) {
		return nil, fmt.Errorf("rest: %s %s: unexpected content type %q", op, res, ct)
	}
	var it resource.Item
	if err := json.Unmarshal(b, &it); err != nil {
		return nil, fmt.Errorf("rest: %s %s: decode response: %w", op, res, err)
	}
	return it, nil
}

func isJSON(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
