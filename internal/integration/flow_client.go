// Package integration handles external service interactions
package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/abelzeko/riverflow/pkg/errors"
)

// DefaultBaseURL is the public hydrometric API
const DefaultBaseURL = "https://vps267042.vps.ovh.ca/scrapi/"

// DefaultStationPages is the fixed page list requested from the stations endpoint
const DefaultStationPages = "1,2,3,4,5,6,7,8,9,10,11"

// CredentialProvider supplies the API key at request time
type CredentialProvider interface {
	APIKey() (string, error)
}

// StaticKey is a CredentialProvider backed by a configured key
type StaticKey string

// APIKey returns the key, or an error when none was configured
func (k StaticKey) APIKey() (string, error) {
	if strings.TrimSpace(string(k)) == "" {
		return "", fmt.Errorf("API key is not set (RIVERFLOW_API_KEY)")
	}
	return string(k), nil
}

// FlowClient fetches raw station and flow documents from the API
type FlowClient struct {
	baseURL      string
	stationPages string
	credentials  CredentialProvider
	httpClient   *http.Client
	logger       *slog.Logger
}

// Option customizes a FlowClient
type Option func(*FlowClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(fc *FlowClient) { fc.httpClient = c }
}

// WithStationPages overrides the page list sent to the stations endpoint
func WithStationPages(pages string) Option {
	return func(fc *FlowClient) {
		if p := strings.TrimSpace(pages); p != "" {
			fc.stationPages = p
		}
	}
}

// NewFlowClient creates a new API client. An empty baseURL selects DefaultBaseURL.
func NewFlowClient(baseURL string, credentials CredentialProvider, logger *slog.Logger, opts ...Option) *FlowClient {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	fc := &FlowClient{
		baseURL:      base,
		stationPages: DefaultStationPages,
		credentials:  credentials,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

// FetchStationList retrieves the raw station list document
func (c *FlowClient) FetchStationList(ctx context.Context) (string, error) {
	key, err := c.credentials.APIKey()
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeConfig, "fetch station list", err)
	}
	// The page list is sent verbatim, commas included.
	endpoint := fmt.Sprintf("%sstations?page=%s&key=%s", c.baseURL, c.stationPages, url.QueryEscape(key))
	return c.get(ctx, endpoint, "station list")
}

// FetchFlowHistory retrieves the raw flow history document for a station
// between startDate and endDate (YYYY-MM-DD, inclusive)
func (c *FlowClient) FetchFlowHistory(ctx context.Context, stationID, startDate, endDate string) (string, error) {
	if strings.TrimSpace(stationID) == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "fetch flow history", fmt.Errorf("station id is empty"))
	}
	key, err := c.credentials.APIKey()
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeConfig, "fetch flow history", err)
	}
	params := url.Values{}
	params.Set("startDate", startDate)
	params.Set("endDate", endDate)
	params.Set("resultType", "history")
	params.Set("key", key)
	endpoint := fmt.Sprintf("%sstation/%s/flow/?%s", c.baseURL, url.PathEscape(stationID), params.Encode())
	return c.get(ctx, endpoint, "flow history for "+stationID)
}

func (c *FlowClient) get(ctx context.Context, endpoint, what string) (string, error) {
	c.logger.Debug("sending HTTP request", "what", what)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeNetwork, "build "+what+" request", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", "what", what, "err", err)
		return "", apperrors.Wrap(apperrors.CodeNetwork, "fetch "+what, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		c.logger.Error("unexpected status code", "what", what, "status", res.Status)
		return "", apperrors.Wrap(apperrors.CodeNetwork, "fetch "+what,
			fmt.Errorf("unexpected status code: %d %s: %s", res.StatusCode, http.StatusText(res.StatusCode), strings.TrimSpace(string(payload))))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeNetwork, "read "+what+" response", err)
	}
	c.logger.Info("received HTTP response", "what", what, "status", res.Status, "bytes", len(body))
	return string(body), nil
}
