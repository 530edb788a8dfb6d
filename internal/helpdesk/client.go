package helpdesk

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
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/godilite/sla-monitor/internal/metrics"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected helpdesk response status")
	ErrMissingBaseURL   = errors.New("helpdesk base url is required")
)

const (
	searchPath       = "/api/v2/search/export.json"
	groupsPath       = "/api/v2/groups.json"
	availabilityPath = "/api/v2/agent_availabilities.json"

	maxErrorBody = 512
)

type Options struct {
	baseURL    string
	email      string
	apiToken   string
	timeout    time.Duration
	rps        float64
	burst      int
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Options)

func WithBaseURL(u string) Option {
	return func(o *Options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithCredentials enables API-token basic auth ("email/token:apitoken").
func WithCredentials(email, apiToken string) Option {
	return func(o *Options) {
		o.email = email
		o.apiToken = apiToken
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.timeout = d }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.rps = rps
		o.burst = burst
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.httpClient = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// Client talks to the helpdesk REST API. It serves ticket search, group
// listing and agent availability.
type Client struct {
	baseURL  string
	email    string
	apiToken string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func New(opts ...Option) (*Client, error) {
	options := &Options{
		timeout: 15 * time.Second,
		rps:     5,
		burst:   1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if _, err := url.Parse(options.baseURL); err != nil {
		return nil, fmt.Errorf("invalid helpdesk base url: %w", err)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.timeout}
	}
	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if options.rps > 0 {
		limit = rate.Limit(options.rps)
	}
	burst := max(options.burst, 1)

	return &Client{
		baseURL:  options.baseURL,
		email:    options.email,
		apiToken: options.apiToken,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger.Named("helpdesk"),
	}, nil
}

// SearchTickets returns one page of tickets matching q. cursor is the value of
// a previous Page.NextCursor, or empty for the first page.
func (c *Client) SearchTickets(ctx context.Context, q Query, pageSize int, cursor string) (Page, error) {
	params := url.Values{}
	params.Set("query", q.String())
	params.Set("filter[type]", "ticket")
	params.Set("page[size]", strconv.Itoa(pageSize))
	if cursor != "" {
		params.Set("page[after]", cursor)
	}

	var resp searchResponse
	if err := c.get(ctx, searchPath, params, &resp); err != nil {
		return Page{}, fmt.Errorf("search tickets: %w", err)
	}

	page := Page{Tickets: make([]metrics.Ticket, 0, len(resp.Results))}
	for _, t := range resp.Results {
		page.Tickets = append(page.Tickets, t.toDomain())
	}
	if resp.Meta.HasMore {
		page.NextCursor = resp.Meta.AfterCursor
	}
	return page, nil
}

// ListGroups returns at most pageSize groups.
func (c *Client) ListGroups(ctx context.Context, pageSize int) ([]metrics.Group, error) {
	params := url.Values{}
	params.Set("page[size]", strconv.Itoa(pageSize))

	var resp groupsResponse
	if err := c.get(ctx, groupsPath, params, &resp); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return resp.Groups, nil
}

// AgentStatus counts agents by availability.
func (c *Client) AgentStatus(ctx context.Context) (metrics.AgentSummary, error) {
	var resp availabilityResponse
	if err := c.get(ctx, availabilityPath, nil, &resp); err != nil {
		return metrics.AgentSummary{}, fmt.Errorf("agent status: %w", err)
	}

	var sum metrics.AgentSummary
	for _, a := range resp.AgentAvailabilities {
		switch strings.ToLower(a.Status) {
		case "online":
			sum.Online++
		case "away", "transfers_only":
			sum.Away++
		default:
			sum.Offline++
		}
	}
	return sum, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.email != "" && c.apiToken != "" {
		req.SetBasicAuth(c.email+"/token", c.apiToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("helpdesk request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
