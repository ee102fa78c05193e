package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

// APIError is a non-2xx answer from the CRM API.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("crm api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("crm api %d", e.Status)
}

// Client talks to the admin endpoints of the CRM API.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// New builds a client. An empty token sends requests without Authorization,
// which the API attributes to the system user.
func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &Client{httpClient: client, logger: logger}
}

// UpdateStatus moves one lead. Repeating the same move is harmless: an
// unchanged status writes no history, so retries are safe.
func (c *Client) UpdateStatus(ctx context.Context, leadID string, status entity.Status) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", leadID).
		SetBody(map[string]string{"status": string(status)}).
		SetError(&APIError{}).
		Post("/admin/leads/{id}/status")
	if err != nil {
		c.logger.Error("status update request failed", zap.String("lead_id", leadID), zap.Error(err))
		return fmt.Errorf("update status: %w", err)
	}
	return apiError(resp)
}

func (c *Client) ListLeads(ctx context.Context) ([]entity.Lead, error) {
	var leads []entity.Lead
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&leads).
		SetError(&APIError{}).
		Get("/admin/leads")
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}
	return leads, nil
}

// FetchDigest asks for leads created after since; nil means everything.
func (c *Client) FetchDigest(ctx context.Context, since *time.Time) (*entity.Digest, error) {
	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(&entity.Digest{}).
		SetError(&APIError{})
	if since != nil {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339Nano))
	}

	resp, err := req.Get("/admin/leads/notifications")
	if err != nil {
		return nil, fmt.Errorf("fetch digest: %w", err)
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}
	return resp.Result().(*entity.Digest), nil
}

func apiError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}
