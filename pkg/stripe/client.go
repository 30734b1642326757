package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the live Stripe API base.
const DefaultBaseURL = "https://api.stripe.com/v1"

// Client defines the Terminal API operations the agent performs.
type Client interface {
	GetLocation(ctx context.Context, locationID string) (*Location, error)
	ListReaders(ctx context.Context) ([]Reader, error)
	CreateReader(ctx context.Context, params CreateReaderParams) (*Reader, error)
}

// APIClient implements Client against the Stripe REST API using a bearer
// secret key. No retries, no pagination beyond the first page.
type APIClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewAPIClient initializes a new APIClient. A zero timeout leaves the
// transport default in place.
func NewAPIClient(baseURL, secretKey string, timeout time.Duration, logger zerolog.Logger) *APIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetLocation fetches a Terminal location by its ID.
func (c *APIClient) GetLocation(ctx context.Context, locationID string) (*Location, error) {
	if locationID == "" {
		return nil, fmt.Errorf("location ID must not be empty")
	}

	var location Location
	path := "/terminal/locations/" + url.PathEscape(locationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &location); err != nil {
		return nil, err
	}

	return &location, nil
}

// ListReaders fetches the first page of Terminal readers.
func (c *APIClient) ListReaders(ctx context.Context) ([]Reader, error) {
	var list ReaderList
	if err := c.do(ctx, http.MethodGet, "/terminal/readers", nil, &list); err != nil {
		return nil, err
	}

	if list.HasMore {
		c.logger.Debug().Int("count", len(list.Data)).Msg("Reader list is truncated to the first page")
	}

	return list.Data, nil
}

// CreateReader registers a new Terminal reader. Every call creates a distinct
// reader resource; no idempotency key is sent.
func (c *APIClient) CreateReader(ctx context.Context, params CreateReaderParams) (*Reader, error) {
	form := url.Values{}
	form.Set("type", params.Type)
	form.Set("location", params.LocationID)
	form.Set("label", params.Label)
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var reader Reader
	if err := c.do(ctx, http.MethodPost, "/terminal/readers", form, &reader); err != nil {
		return nil, err
	}

	return &reader, nil
}

// do issues a single authenticated request and decodes the JSON response into
// out. Non-2xx responses are returned as *APIError.
func (c *APIClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("Calling Stripe API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}

	return nil
}
