package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/greenridge/fieldops/internal/models"
)

// WorkspaceClient talks to the external document workspace that field crews
// edit their daily sheets in. It only fetches already-parsed edit events;
// document parsing happens on the workspace side.
type WorkspaceClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWorkspaceClient creates a new workspace client
func NewWorkspaceClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *WorkspaceClient {
	return &WorkspaceClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type editsPage struct {
	Edits   []models.ExternalEdit `json:"edits"`
	HasMore bool                  `json:"has_more"`
}

// FetchEdits retrieves one page of edit events made since the given time.
// It returns the page, whether more pages remain, and any transport error.
func (c *WorkspaceClient) FetchEdits(ctx context.Context, since time.Time, page, pageSize int) ([]models.ExternalEdit, bool, error) {
	params := url.Values{}
	params.Set("since", since.UTC().Format(time.RFC3339))
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	endpoint := fmt.Sprintf("%s/api/v1/edits?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Failed to fetch workspace edits",
			zap.Error(err),
			zap.Int("page", page),
			zap.Duration("duration", duration),
		)
		return nil, false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("workspace returned status %d: %s", resp.StatusCode, string(body))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			c.logger.Error("Workspace authentication failed",
				zap.Int("status_code", resp.StatusCode),
			)
			return nil, false, &AuthError{Message: errMsg, StatusCode: resp.StatusCode}
		case http.StatusTooManyRequests:
			c.logger.Warn("Workspace rate limited",
				zap.Int("status_code", resp.StatusCode),
			)
			return nil, false, &RateLimitError{Message: errMsg, StatusCode: resp.StatusCode}
		default:
			return nil, false, &WorkspaceError{Message: errMsg, StatusCode: resp.StatusCode}
		}
	}

	var result editsPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode edits page: %w", err)
	}

	c.logger.Debug("Workspace edits fetched",
		zap.Int("page", page),
		zap.Int("edit_count", len(result.Edits)),
		zap.Bool("has_more", result.HasMore),
		zap.Duration("duration", duration),
	)
	return result.Edits, result.HasMore, nil
}

// HealthCheck verifies the workspace API is reachable
func (c *WorkspaceClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("workspace unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// AuthError indicates authentication/authorization failure
type AuthError struct {
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	return e.Message
}

// RateLimitError indicates the workspace is rate limiting us
type RateLimitError struct {
	Message    string
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// WorkspaceError indicates any other workspace-side failure
type WorkspaceError struct {
	Message    string
	StatusCode int
}

func (e *WorkspaceError) Error() string {
	return e.Message
}
