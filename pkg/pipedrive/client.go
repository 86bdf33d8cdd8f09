// Package pipedrive is a minimal client for the Pipedrive v1 REST API: deal
// pages plus the field, pipeline and stage catalogs needed to label them.
package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.pipedrive.com"

// Client defines the Pipedrive operations used by the CRM refresh.
type Client interface {
	DealFields(ctx context.Context) ([]DealField, error)
	Pipelines(ctx context.Context) ([]Pipeline, error)
	Stages(ctx context.Context) ([]Stage, error)
	DealsPage(ctx context.Context, start, limit int) (*DealsPage, error)
}

// DealField is one entry of GET /api/v1/dealFields.
type DealField struct {
	ID      int      `json:"id"`
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Type    string   `json:"field_type"`
	Options []Option `json:"options"`
}

// Option is a selectable value of an enum or set field.
type Option struct {
	ID    json.Number `json:"id"`
	Label string      `json:"label"`
}

// Pipeline is one entry of GET /api/v1/pipelines.
type Pipeline struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Stage is one entry of GET /api/v1/stages.
type Stage struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PipelineID int    `json:"pipeline_id"`
}

// Phone is one of a person's phone numbers.
type Phone struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Primary bool   `json:"primary"`
}

// Person is the person embedded in a deal.
type Person struct {
	Value  int64   `json:"value"`
	Name   string  `json:"name"`
	Phones []Phone `json:"phone"`
}

// User is the deal owner embedded in a deal.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Deal is one deal of a deals page. Custom fields are keyed by their
// 40-character field key and kept in Fields.
type Deal struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Person          *Person `json:"person_id"`
	User            *User   `json:"user_id"`
	StageID         int     `json:"stage_id"`
	PipelineID      int     `json:"pipeline_id"`
	StageChangeTime string  `json:"stage_change_time"`

	Fields map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps every raw field for
// custom-field lookups.
func (d *Deal) UnmarshalJSON(b []byte) error {
	type plain Deal
	if err := json.Unmarshal(b, (*plain)(d)); err != nil {
		return err
	}
	return json.Unmarshal(b, &d.Fields)
}

// Field returns a custom field rendered as text, or "" when absent.
func (d *Deal) Field(key string) string {
	switch v := d.Fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// Pagination is the additional_data.pagination block of list responses.
type Pagination struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             int  `json:"next_start"`
}

// DealsPage is one page of GET /api/v1/deals.
type DealsPage struct {
	Deals      []Deal
	Pagination Pagination
}

type envelope[T any] struct {
	Success        bool `json:"success"`
	Data           T    `json:"data"`
	AdditionalData struct {
		Pagination Pagination `json:"pagination"`
	} `json:"additional_data"`
}

// APIError is returned when Pipedrive responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pipedrive: HTTP %d: %s", e.StatusCode, e.Body)
}

// ClientOption configures the httpClient.
type ClientOption func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit sets a per-second request limit. Zero disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Pipedrive client authenticating with an API token.
// Requests are limited to 10 per second by default.
func NewClient(token string, opts ...ClientOption) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) DealFields(ctx context.Context) ([]DealField, error) {
	var resp envelope[[]DealField]
	if err := c.get(ctx, "/api/v1/dealFields", 0, 500, &resp); err != nil {
		return nil, eris.Wrap(err, "pipedrive: deal fields")
	}
	return resp.Data, nil
}

func (c *httpClient) Pipelines(ctx context.Context) ([]Pipeline, error) {
	var resp envelope[[]Pipeline]
	if err := c.get(ctx, "/api/v1/pipelines", 0, 500, &resp); err != nil {
		return nil, eris.Wrap(err, "pipedrive: pipelines")
	}
	return resp.Data, nil
}

func (c *httpClient) Stages(ctx context.Context) ([]Stage, error) {
	var resp envelope[[]Stage]
	if err := c.get(ctx, "/api/v1/stages", 0, 500, &resp); err != nil {
		return nil, eris.Wrap(err, "pipedrive: stages")
	}
	return resp.Data, nil
}

func (c *httpClient) DealsPage(ctx context.Context, start, limit int) (*DealsPage, error) {
	var resp envelope[[]Deal]
	if err := c.get(ctx, "/api/v1/deals", start, limit, &resp); err != nil {
		return nil, eris.Wrapf(err, "pipedrive: deals page at %d", start)
	}
	return &DealsPage{Deals: resp.Data, Pagination: resp.AdditionalData.Pagination}, nil
}

func (c *httpClient) get(ctx context.Context, path string, start, limit int, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}

	q := url.Values{}
	q.Set("api_token", c.token)
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
