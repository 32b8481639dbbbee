// Package client is a typed HTTP client for the soscomida API, used by
// institution integrations and operator tooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/soscomida/soscomida/internal/domain"
)

const (
	defaultTimeout = 3 * time.Second
	userAgent      = "soscomida-client/1"
	institutionTTL = 5 * time.Minute
)

type Client struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
	token   string
}

// New returns a client for the API rooted at baseURL. token is sent as a
// bearer credential on every request when non-empty.
func New(baseURL, token string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:  &httpClient,
		cache:   cache.New(institutionTTL, 2*institutionTTL),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// APIError is a non-2xx answer. It matches the domain error sentinels via
// errors.Is according to its kind.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("soscomida: %d %s: %s", e.Status, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Kind {
	case "validation":
		return domain.ErrValidation
	case "permission":
		return domain.ErrPermission
	case "not_found":
		return domain.ErrNotFound
	case "conflict":
		return domain.ErrConflict
	case "state":
		return domain.ErrState
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, response any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Kind = payload.Kind
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if response == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// Delegation is the wire form of a delegation.
type Delegation struct {
	ID            string                  `json:"id"`
	ModeratorID   string                  `json:"moderatorId"`
	InstitutionID string                  `json:"institutionId"`
	Kind          domain.RequestKind      `json:"kind"`
	RequestID     string                  `json:"requestId"`
	Status        domain.DelegationStatus `json:"status"`
	CreatedAt     time.Time               `json:"createdAt"`
}

func (c *Client) Delegate(ctx context.Context, kind domain.RequestKind, requestID, institutionID string) (Delegation, error) {
	var d Delegation
	err := c.do(ctx, http.MethodPost, "/api/v1/delegations", map[string]string{
		"kind":          string(kind),
		"requestId":     requestID,
		"institutionId": institutionID,
	}, &d)
	return d, err
}

func (c *Client) AcceptDelegation(ctx context.Context, id string) (Delegation, error) {
	var d Delegation
	err := c.do(ctx, http.MethodPost, "/api/v1/delegations/"+url.PathEscape(id)+"/accept", nil, &d)
	return d, err
}

func (c *Client) DeclineDelegation(ctx context.Context, id string) (Delegation, error) {
	var d Delegation
	err := c.do(ctx, http.MethodPost, "/api/v1/delegations/"+url.PathEscape(id)+"/decline", nil, &d)
	return d, err
}

func (c *Client) ReportDelivery(ctx context.Context, id string, metrics domain.DeliveryMetrics) (domain.ReceiptRequest, error) {
	var r domain.ReceiptRequest
	err := c.do(ctx, http.MethodPost, "/api/v1/delegations/"+url.PathEscape(id)+"/delivery", metrics, &r)
	return r, err
}

// InstitutionDelegations lists the caller's delegations; an empty status
// lists all of them.
func (c *Client) InstitutionDelegations(ctx context.Context, status domain.DelegationStatus) ([]Delegation, error) {
	path := "/api/v1/institution/delegations"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var list []Delegation
	err := c.do(ctx, http.MethodGet, path, nil, &list)
	return list, err
}

func (c *Client) ApprovedReceipts(ctx context.Context, limit int) ([]domain.ReceiptRequest, error) {
	path := "/api/v1/requests/receipts/approved"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var list []domain.ReceiptRequest
	err := c.do(ctx, http.MethodGet, path, nil, &list)
	return list, err
}

// Institutions lists the institutions that may receive delegations. The
// answer is cached for a few minutes.
func (c *Client) Institutions(ctx context.Context) ([]domain.Principal, error) {
	if cached, ok := c.cache.Get("institutions"); ok {
		return cached.([]domain.Principal), nil
	}
	var list []domain.Principal
	if err := c.do(ctx, http.MethodGet, "/api/v1/moderation/institutions", nil, &list); err != nil {
		return nil, err
	}
	c.cache.Set("institutions", list, cache.DefaultExpiration)
	return list, nil
}
