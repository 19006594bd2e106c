// Package taskqueue implements the backend collaborator contracts against the
// HTTP task-queue API: batch submission, job status checks and lookup data.
package taskqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

const ModuleTaskQueueClient = "TaskQueueClient"

// Client talks to the task-queue backend over HTTP. One Client instance is
// shared by the splitter, the poller and the wizard's lookup needs.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewClient creates a new Client from the backend section of the
// configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	backend := cfg.Cockpit.Backend
	if backend.APIEndpoint == "" {
		return nil, fmt.Errorf("BackendConfig.APIEndpoint is not configured")
	}

	timeout := time.Duration(backend.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		endpoint: strings.TrimRight(backend.APIEndpoint, "/"),
		token:    backend.APIToken,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// SubmitJob submits one batch of work items and returns the backend job id.
func (c *Client) SubmitJob(ctx context.Context, items []model.WorkItem) (string, error) {
	payload := submitRequest{Items: make([]submitItem, 0, len(items))}
	for _, item := range items {
		payload.Items = append(payload.Items, submitItem{
			Key:        item.Key,
			Attributes: item.Attributes,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", exception.NewOrchestrationError(ModuleTaskQueueClient, "failed to encode submission payload", err, false)
	}

	respBody, err := c.do(ctx, http.MethodPost, c.endpoint+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var resp submitResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", exception.NewOrchestrationError(ModuleTaskQueueClient, "failed to decode submission response", err, false)
	}
	if resp.JobID == "" {
		return "", exception.NewOrchestrationErrorf(ModuleTaskQueueClient, "submission response carries no job id")
	}

	logger.Debugf("TaskQueueClient: Submitted %d items as job '%s'.", len(items), resp.JobID)
	return resp.JobID, nil
}

// GetJobStatus fetches the status snapshot of one job. The raw response may
// arrive in one of several historical shapes; it is normalized into the
// canonical model before being returned. An unknown job id is reported via
// exception.ErrJobNotFound.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (model.JobStatus, error) {
	respBody, err := c.do(ctx, http.MethodGet, c.endpoint+"/jobs/"+jobID, nil)
	if err != nil {
		return model.JobStatus{}, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return model.JobStatus{}, exception.NewOrchestrationError(ModuleTaskQueueClient, "failed to decode status response", err, false)
	}

	status, err := NormalizeJobStatus(jobID, raw)
	if err != nil {
		return model.JobStatus{}, err
	}
	return status, nil
}

// FetchLookup fetches read-only reference data of the given kind, used to
// resolve human-readable names to backend ids before submission.
func (c *Client) FetchLookup(ctx context.Context, kind string) ([]model.LookupOption, error) {
	respBody, err := c.do(ctx, http.MethodGet, c.endpoint+"/lookup/"+kind, nil)
	if err != nil {
		return nil, err
	}

	var resp lookupResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, exception.NewOrchestrationError(ModuleTaskQueueClient, "failed to decode lookup response", err, false)
	}

	options := make([]model.LookupOption, 0, len(resp.Options))
	for _, o := range resp.Options {
		options = append(options, model.LookupOption{ID: o.ID, Name: o.Name})
	}
	return options, nil
}

// do issues one request with auth headers and maps non-2xx answers to errors.
// A 404 maps to exception.ErrJobNotFound; 5xx answers are retryable.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, exception.NewOrchestrationError(ModuleTaskQueueClient, "failed to create API request", err, false)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, exception.NewOrchestrationError(ModuleTaskQueueClient, "API call failed", err, true)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exception.NewOrchestrationError(ModuleTaskQueueClient, "failed to read API response", err, true)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, exception.ErrJobNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyString := strings.TrimSpace(string(respBody))
		errMsg := fmt.Sprintf("error response from API: status code %d, body: %s", resp.StatusCode, bodyString)
		isRetryable := resp.StatusCode >= 500
		return nil, exception.NewOrchestrationError(ModuleTaskQueueClient, errMsg, errors.New(bodyString), isRetryable)
	}
	return respBody, nil
}

type submitItem struct {
	Key        string                 `json:"key"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

type submitRequest struct {
	Items []submitItem `json:"items"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type lookupOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type lookupResponse struct {
	Options []lookupOption `json:"options"`
}

var (
	_ port.JobSubmitter    = (*Client)(nil)
	_ port.JobStatusClient = (*Client)(nil)
	_ port.LookupService   = (*Client)(nil)
)
