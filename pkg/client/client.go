package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// Client is the API client for the access-reconciler service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // scans and removals run synchronously
		},
	}
}

// StartScan runs an access scan and returns its result
func (c *Client) StartScan(scope domain.ScopeSelector, targets []string) (string, *domain.ScanResult, error) {
	var response struct {
		RunID string             `json:"run_id"`
		Data  *domain.ScanResult `json:"data"`
	}
	err := c.post("/api/v1/scans", map[string]interface{}{
		"scope":   scope,
		"targets": targets,
	}, &response)
	if err != nil {
		return "", nil, err
	}
	return response.RunID, response.Data, nil
}

// RemoveAccess removes collaborator access for the given records
func (c *Client) RemoveAccess(records []domain.AccessRecord) (string, *domain.RemovalSummary, error) {
	var response struct {
		RunID string                 `json:"run_id"`
		Data  *domain.RemovalSummary `json:"data"`
	}
	err := c.post("/api/v1/removals", map[string]interface{}{
		"records": records,
	}, &response)
	if err != nil {
		return "", nil, err
	}
	return response.RunID, response.Data, nil
}

// GetRunProgress retrieves the latest progress snapshot of a run
func (c *Client) GetRunProgress(runID string) (*domain.BatchProgress, error) {
	var response struct {
		Data *domain.BatchProgress `json:"data"`
	}
	if err := c.get("/api/v1/runs/"+runID+"/progress", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListAuditEntries retrieves recorded audit entries
func (c *Client) ListAuditEntries(action string, limit int) ([]*domain.AuditEntry, error) {
	params := url.Values{}
	if action != "" {
		params.Set("action", action)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var response struct {
		Data []*domain.AuditEntry `json:"data"`
	}
	if err := c.get("/api/v1/audit/entries", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// TwoFactorReport retrieves an organization's two-factor compliance report
func (c *Client) TwoFactorReport(org string) (*domain.TwoFactorReport, error) {
	var response struct {
		Data *domain.TwoFactorReport `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/orgs/%s/two-factor", org), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
