package taskqueue_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/infrastructure/client/taskqueue"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
)

func newTestClient(t *testing.T, handler http.Handler) (*taskqueue.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.Cockpit.Backend.APIEndpoint = server.URL
	cfg.Cockpit.Backend.APIToken = "test-token"

	client, err := taskqueue.NewClient(cfg)
	assert.NoError(t, err)
	return client, server
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := taskqueue.NewClient(config.NewConfig())
	assert.Error(t, err)
}

func TestSubmitJob(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-42"})
	}))

	jobID, err := client.SubmitJob(context.Background(), []model.WorkItem{
		{Key: "10.0.0.1", Attributes: map[string]interface{}{"role": "access"}},
		{Key: "10.0.0.2"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "job-42", jobID)
	assert.Equal(t, "/jobs", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)

	items := gotBody["items"].([]interface{})
	assert.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "10.0.0.1", first["key"])
}

func TestSubmitJobRejectsMissingJobID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))

	_, err := client.SubmitJob(context.Background(), []model.WorkItem{{Key: "10.0.0.1"}})
	assert.Error(t, err)
}

func TestGetJobStatusCurrentShape(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"job_id":    "job-1",
			"state":     "running",
			"processed": 2,
			"total":     5,
			"items": []map[string]interface{}{
				{"key": "10.0.0.1", "outcome": "success"},
				{"key": "10.0.0.2", "outcome": "error", "message": "unreachable"},
			},
		})
	}))

	status, err := client.GetJobStatus(context.Background(), "job-1")

	assert.NoError(t, err)
	assert.Equal(t, model.StateRunning, status.State)
	assert.Equal(t, 2, status.Processed)
	assert.Equal(t, 5, status.Total)
	assert.Len(t, status.Items, 2)
	assert.Equal(t, model.OutcomeError, status.Items[1].Outcome)
	assert.Equal(t, "unreachable", status.Items[1].Message)
}

func TestGetJobStatusUnknownJob(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))

	_, err := client.GetJobStatus(context.Background(), "gone")
	assert.True(t, exception.IsJobNotFound(err))
}

func TestGetJobStatusServerErrorIsRetryable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := client.GetJobStatus(context.Background(), "job-1")

	assert.Error(t, err)
	var orchErr *exception.OrchestrationError
	assert.ErrorAs(t, err, &orchErr)
	assert.True(t, orchErr.IsRetryable())
}

func TestGetJobStatusClientErrorIsNotRetryable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	_, err := client.GetJobStatus(context.Background(), "job-1")

	assert.Error(t, err)
	var orchErr *exception.OrchestrationError
	assert.ErrorAs(t, err, &orchErr)
	assert.False(t, orchErr.IsRetryable())
}

func TestFetchLookup(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lookup/roles", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"options": []map[string]string{
				{"id": "1", "name": "access"},
				{"id": "2", "name": "core"},
			},
		})
	}))

	options, err := client.FetchLookup(context.Background(), "roles")

	assert.NoError(t, err)
	assert.Equal(t, []model.LookupOption{
		{ID: "1", Name: "access"},
		{ID: "2", Name: "core"},
	}, options)
}
