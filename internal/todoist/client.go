// Package todoist fetches projects and tasks from the Todoist REST API.
package todoist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/steveyegge/tasksheet/internal/types"
)

// DefaultBaseURL is the Todoist REST v2 endpoint
const DefaultBaseURL = "https://api.todoist.com/rest/v2"

// maxErrorBody bounds how much of a failed response is kept in a RemoteError
const maxErrorBody = 512

// Options configures a Client
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables throttling
	RateBurst int
	// HTTPClient overrides the default client; Timeout is ignored when set
	HTTPClient *http.Client
}

// Client is a read-only Todoist API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client with a finite request timeout
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("API token is required")
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    base,
		token:      opts.Token,
		httpClient: httpClient,
		limiter:    limiter,
	}, nil
}

// FetchProjects returns every project visible to the token
func (c *Client) FetchProjects(ctx context.Context) ([]types.Project, error) {
	var projects []types.Project
	if err := c.get(ctx, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// FetchTasks returns the active tasks of one project, or of all projects
// when projectID is empty
func (c *Client) FetchTasks(ctx context.Context, projectID types.ID) ([]types.Task, error) {
	var query url.Values
	if !projectID.IsZero() {
		query = url.Values{"project_id": []string{projectID.String()}}
	}

	var tasks []types.Task
	if err := c.get(ctx, "/tasks", query, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &RemoteError{Method: http.MethodGet, URL: endpoint, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &RemoteError{Method: http.MethodGet, URL: endpoint, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Method: req.Method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{
			Method:     req.Method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &RemoteError{
			Method:     req.Method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decoding response: %w", err),
		}
	}

	return nil
}
