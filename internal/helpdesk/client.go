package helpdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/esfa/deskctl/internal/util"
	"github.com/esfa/deskctl/internal/util/pagination"
)

const (
	// DefaultPerPage is the largest page the search endpoint serves
	DefaultPerPage = 100

	defaultTimeout = 60 * time.Second
)

// Doer abstracts the ability to execute HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// API is the narrow helpdesk surface the cleanup flows need
type API interface {
	SearchOrganizations(ctx context.Context, q Query) (*SearchResults[Organization], error)
	SearchUsers(ctx context.Context, q Query) (*SearchResults[User], error)
	BulkDeleteOrganizations(ctx context.Context, ids []int64) error
	BulkDeleteUsers(ctx context.Context, users []User) error
	UpdateUser(ctx context.Context, user User) (*User, error)
}

// Options configures a Client
type Options struct {
	BaseURL  string
	UserName string
	Token    string
	// Doer defaults to an http.Client with trace logging
	Doer   Doer
	Logger *slog.Logger
}

// Client talks to the helpdesk REST API v2 using HTTP Basic auth
type Client struct {
	baseURL  string
	userName string
	token    string
	doer     Doer
}

var _ API = (*Client)(nil)

// NewClient validates opts and builds a Client
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.UserName == "" || opts.Token == "" {
		return nil, fmt.Errorf("user name and token are required")
	}

	doer := opts.Doer
	if doer == nil {
		logger := opts.Logger
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		doer = NewLoggingDoer(&http.Client{Timeout: defaultTimeout}, logger)
	}

	return &Client{
		baseURL:  strings.TrimRight(base.String(), "/"),
		userName: opts.UserName,
		token:    opts.Token,
		doer:     doer,
	}, nil
}

type searchResponse[T any] struct {
	Results  []T    `json:"results"`
	Count    int    `json:"count"`
	NextPage string `json:"next_page"`
}

func search[T any](ctx context.Context, c *Client, q Query) (*SearchResults[T], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}

	params := url.Values{}
	params.Set("query", q.Expression())
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("per_page", strconv.Itoa(q.PerPage))

	var resp searchResponse[T]
	if err := c.do(ctx, http.MethodGet, "/api/v2/search.json?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	return &SearchResults[T]{
		Results:    resp.Results,
		Count:      resp.Count,
		TotalPages: pagination.TotalPages(resp.Count, q.PerPage),
		Page:       q.Page,
	}, nil
}

// SearchOrganizations runs q restricted to organizations
func (c *Client) SearchOrganizations(ctx context.Context, q Query) (*SearchResults[Organization], error) {
	q.Kind = KindOrganization
	return search[Organization](ctx, c, q)
}

// SearchUsers runs q restricted to users
func (c *Client) SearchUsers(ctx context.Context, q Query) (*SearchResults[User], error) {
	q.Kind = KindUser
	return search[User](ctx, c, q)
}

// BulkDeleteOrganizations destroys the organizations with the given ids in one call
func (c *Client) BulkDeleteOrganizations(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodDelete, "/api/v2/organizations/destroy_many.json?ids="+util.JoinIDs(ids), nil, nil)
}

// BulkDeleteUsers destroys the given users in one call
func (c *Client) BulkDeleteUsers(ctx context.Context, users []User) error {
	if len(users) == 0 {
		return nil
	}
	ids := util.Map(users, func(u User) int64 { return u.ID })
	return c.do(ctx, http.MethodDelete, "/api/v2/users/destroy_many.json?ids="+util.JoinIDs(ids), nil, nil)
}

// UpdateUser submits user wholesale and returns the stored copy
func (c *Client) UpdateUser(ctx context.Context, user User) (*User, error) {
	if user.ID == 0 {
		return nil, fmt.Errorf("user id is required")
	}

	payload := struct {
		User User `json:"user"`
	}{User: user}
	var out struct {
		User User `json:"user"`
	}
	path := fmt.Sprintf("/api/v2/users/%d.json", user.ID)
	if err := c.do(ctx, http.MethodPut, path, payload, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.userName, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        req.URL.Path,
			Body:       string(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
