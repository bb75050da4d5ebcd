// Package prismic is a small client for the Prismic REST API v2, covering the
// read operations the generator needs: resolving the master ref, paginated
// predicate queries and single-document lookups.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is the largest page size the API accepts.
const DefaultPageSize = 100

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("prismic: document not found")
	// ErrAPI is wrapped by every non-2xx response error.
	ErrAPI = errors.New("prismic: api error")
)

// Document is a single repository document. Data is left raw so callers can
// decode it into their own custom type.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Lang                 string          `json:"lang"`
	FirstPublicationDate *Timestamp      `json:"first_publication_date"`
	LastPublicationDate  *Timestamp      `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Response is one page of a search result.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	Results          []Document `json:"results"`
}

type ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type apiInfo struct {
	Refs []ref `json:"refs"`
}

// QueryOptions narrows a query. A zero value queries the master ref with the
// default page size and returns full documents.
type QueryOptions struct {
	// Ref pins the content release; empty means the master ref.
	Ref string
	// Fetch restricts returned fields, e.g. "post.slug".
	Fetch    []string
	PageSize int
	Lang     string
}

// Client talks to one Prismic repository.
type Client struct {
	endpoint    string
	accessToken string
	http        *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAccessToken sets the token used for private repositories and previews.
func WithAccessToken(token string) ClientOption {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient returns a client for the repository API endpoint, e.g.
// "https://spacetraveling.cdn.prismic.io/api/v2".
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MasterRef returns the ref of the currently published content.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	var info apiInfo
	if err := c.get(ctx, c.endpoint, nil, &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", fmt.Errorf("%w: no master ref in api response", ErrAPI)
}

// Query returns every document matching the predicates, following pagination
// until the last page.
func (c *Client) Query(ctx context.Context, predicates []Predicate, opts QueryOptions) ([]Document, error) {
	refID, err := c.resolveRef(ctx, opts.Ref)
	if err != nil {
		return nil, err
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var docs []Document
	for page := 1; ; page++ {
		params := c.searchParams(refID, predicates, opts)
		params.Set("pageSize", strconv.Itoa(pageSize))
		params.Set("page", strconv.Itoa(page))
		var resp Response
		if err := c.get(ctx, c.endpoint+"/documents/search", params, &resp); err != nil {
			return nil, err
		}
		docs = append(docs, resp.Results...)
		if page >= resp.TotalPages || len(resp.Results) == 0 {
			break
		}
	}
	return docs, nil
}

// GetByUID returns the single document of documentType with the given uid.
func (c *Client) GetByUID(ctx context.Context, documentType, uid string, opts QueryOptions) (Document, error) {
	return c.getFirst(ctx, []Predicate{At("my."+documentType+".uid", uid)}, opts)
}

// GetByID returns the document with the given id.
func (c *Client) GetByID(ctx context.Context, id string, opts QueryOptions) (Document, error) {
	return c.getFirst(ctx, []Predicate{At("document.id", id)}, opts)
}

func (c *Client) getFirst(ctx context.Context, predicates []Predicate, opts QueryOptions) (Document, error) {
	refID, err := c.resolveRef(ctx, opts.Ref)
	if err != nil {
		return Document{}, err
	}
	params := c.searchParams(refID, predicates, opts)
	params.Set("pageSize", "1")
	var resp Response
	if err := c.get(ctx, c.endpoint+"/documents/search", params, &resp); err != nil {
		return Document{}, err
	}
	if len(resp.Results) == 0 {
		return Document{}, ErrNotFound
	}
	return resp.Results[0], nil
}

func (c *Client) resolveRef(ctx context.Context, r string) (string, error) {
	if r != "" {
		return r, nil
	}
	return c.MasterRef(ctx)
}

func (c *Client) searchParams(refID string, predicates []Predicate, opts QueryOptions) url.Values {
	params := url.Values{}
	params.Set("ref", refID)
	if q := Query(predicates...); q != "" {
		params.Set("q", q)
	}
	if len(opts.Fetch) > 0 {
		params.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if opts.Lang != "" {
		params.Set("lang", opts.Lang)
	}
	return params
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.accessToken != "" {
		if params == nil {
			params = url.Values{}
		}
		params.Set("access_token", c.accessToken)
	}
	u := endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("prismic: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("prismic: fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("prismic: decode %s: %w", endpoint, err)
	}
	return nil
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("prismic: api returned %d", e.Code)
	}
	return fmt.Sprintf("prismic: api returned %d: %s", e.Code, e.Body)
}

// Unwrap lets callers match with errors.Is(err, ErrAPI).
func (e *StatusError) Unwrap() error {
	return ErrAPI
}
