// Package catalogclient calls the catalog service over HTTP.
package catalogclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/util"
	"bookstore/pkg/domain"
)

// AllBooksPath is the catalog listing endpoint.
const AllBooksPath = "/Book/AllBooks"

// Client calls the catalog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a catalog error response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a catalog client with a 10s timeout.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: 10 * time.Second})
}

// NewClientWithHTTP lets callers supply their own http.Client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ListBooks fetches one page of the catalog. An empty category or "All" is sent as no filter.
func (c *Client) ListBooks(ctx context.Context, category string, pageSize, pageNum int) (domain.Page, error) {
	q := url.Values{}
	if !domain.IsAllCategories(category) {
		q.Set("category", category)
	}
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("pageNum", strconv.Itoa(pageNum))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+AllBooksPath+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Page{}, err
	}
	var page domain.Page
	if err := c.do(req, &page); err != nil {
		return domain.Page{}, err
	}
	if page.Books == nil {
		page.Books = []domain.Book{}
	}
	return page, nil
}

func (c *Client) do(req *http.Request, out any) error {
	if id := util.RequestIDFromContext(req.Context()); id != "" {
		req.Header.Set(util.RequestIDHeader, id)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Code: strings.TrimSpace(errResp.Code)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}
