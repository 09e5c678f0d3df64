package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"reporting-sync/internal/core/domain"
)

// Client is the reporting API REST client. It submits export jobs,
// polls their status, and opens streaming downloads of completed
// payloads.
type Client struct {
	baseURL     string
	accessToken string
	appID       string
	clientID    string
	apiVersion  string
	httpClient  *http.Client

	// downloadClient has no overall timeout: payload bodies are
	// consumed incrementally and can take longer than any sane
	// request deadline.
	downloadClient *http.Client
}

// NewClient creates a new reporting API client. appID and clientID are
// carried as query parameters on status and download requests when the
// tenant requires them; either may be empty.
func NewClient(baseURL, accessToken, appID, clientID, apiVersion string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		appID:       appID,
		clientID:    clientID,
		apiVersion:  apiVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		downloadClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
	c.downloadClient = client
}

// createRequest creates an HTTP request with auth and version headers
func (c *Client) createRequest(ctx context.Context, method, rawurl string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawurl, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if c.apiVersion != "" {
		req.Header.Set("Api-Version", c.apiVersion)
	}

	return req, nil
}

// doRequest executes an HTTP request and decodes the response body
func (c *Client) doRequest(req *http.Request, result interface{}) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return resp.StatusCode, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}
		return resp.StatusCode, fmt.Errorf("API error (status %d): %s", resp.StatusCode, errResp.Message())
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// jobParams returns the query parameters for status and download calls
func (c *Client) jobParams(jobID string) url.Values {
	params := url.Values{}
	if c.appID != "" {
		params.Set("app_id", c.appID)
	}
	if c.clientID != "" {
		params.Set("client_id", c.clientID)
	}
	if jobID != "" {
		params.Set("job_identifier", jobID)
	}
	return params
}

// EnqueueExport submits an export job for a dataset window. Non-2xx
// responses and malformed acknowledgments surface as SubmissionError.
func (c *Client) EnqueueExport(ctx context.Context, exportReq domain.ExportRequest) (*domain.ExportJob, error) {
	req, err := c.createRequest(ctx, "POST", c.baseURL+"/export/reporting_data/enqueue", exportReq)
	if err != nil {
		return nil, &domain.SubmissionError{DatasetID: exportReq.DatasetID, Err: err}
	}

	var result enqueueResponse
	status, err := c.doRequest(req, &result)
	if err != nil {
		return nil, &domain.SubmissionError{DatasetID: exportReq.DatasetID, StatusCode: status, Err: err}
	}

	if result.JobIdentifier == "" {
		return nil, &domain.SubmissionError{
			DatasetID:  exportReq.DatasetID,
			StatusCode: status,
			Err:        fmt.Errorf("acknowledgment carries no job_identifier"),
		}
	}

	return &domain.ExportJob{
		ID:      result.JobIdentifier,
		Request: exportReq,
		Status:  domain.StatusPending,
	}, nil
}

// GetJob fetches the current status of an export job. A 404 yields a
// nil job with no error: the job record can lag the enqueue briefly
// and the poller retries it like any non-terminal status.
func (c *Client) GetJob(ctx context.Context, jobID string) (*domain.ExportJob, error) {
	statusURL := fmt.Sprintf("%s/export/reporting_data/%s?%s", c.baseURL, url.PathEscape(jobID), c.jobParams(jobID).Encode())

	req, err := c.createRequest(ctx, "GET", statusURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status poll failed (status %d): %s", resp.StatusCode, string(body))
	}

	var result jobStatusResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status response: %w", err)
	}

	return &domain.ExportJob{
		ID:          jobID,
		Status:      mapStatus(result.Status),
		DownloadURL: result.DownloadURL,
	}, nil
}

// Download opens a streaming byte source for a completed job's
// compressed payload. The body is not buffered; the caller consumes it
// incrementally and must close it.
func (c *Client) Download(ctx context.Context, job *domain.ExportJob) (io.ReadCloser, error) {
	if job.DownloadURL == "" {
		return nil, fmt.Errorf("job %s has no download URL", job.ID)
	}

	downloadURL := job.DownloadURL
	if params := c.jobParams(job.ID).Encode(); params != "" {
		sep := "?"
		if u, err := url.Parse(downloadURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		downloadURL += sep + params
	}

	req, err := c.createRequest(ctx, "GET", downloadURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("download failed (status %d): %s", resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

// mapStatus normalizes remote status strings. The API reports "error"
// for some failure modes.
func mapStatus(s string) domain.JobStatus {
	switch s {
	case "complete":
		return domain.StatusComplete
	case "failed", "error":
		return domain.StatusFailed
	case "in_progress":
		return domain.StatusInProgress
	default:
		return domain.StatusPending
	}
}
