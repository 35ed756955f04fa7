package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/engine"
	"github.com/shaiso/Deployer/internal/repo"
)

type fakeRuns struct {
	runs   []domain.Run
	filter repo.RunFilter
	err    error
}

func (f *fakeRuns) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRuns) List(_ context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	f.filter = filter
	return f.runs, f.err
}

func newTestServer(t *testing.T, runs RunReader) *httptest.Server {
	t.Helper()
	catalog, err := engine.NewCatalog(
		domain.FlowDefinition{
			Name:        "install-docker",
			Description: "Install docker",
			Steps:       []domain.FlowStep{{Type: "runCommand", Command: "true"}},
		},
		domain.FlowDefinition{
			Name:  "offline",
			Local: true,
			Steps: []domain.FlowStep{{Type: "decompressionOfflinePackage"}, {Type: "runCommand", Command: "ls"}},
		},
	)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(Config{Catalog: catalog, Runs: runs}).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListFlows(t *testing.T) {
	srv := newTestServer(t, nil)

	var body struct {
		Data  []FlowSummary `json:"data"`
		Total int           `json:"total"`
	}
	status := get(t, srv.URL+"/api/v1/flows", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "install-docker", body.Data[0].Name)
	assert.True(t, body.Data[1].Local)
	assert.Equal(t, 2, body.Data[1].Steps)
}

func TestGetFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	var body struct {
		Data domain.FlowDefinition `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/flows/install-docker", &body))
	assert.Equal(t, "true", body.Data.Steps[0].Command)

	var errBody ErrorResponse
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/v1/flows/nope", &errBody))
	assert.Equal(t, ErrCodeNotFound, errBody.Error.Code)
}

func TestRuns_HistoryDisabled(t *testing.T) {
	srv := newTestServer(t, nil)

	var body ErrorResponse
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.URL+"/api/v1/runs", &body))
	assert.Equal(t, ErrCodeUnavailable, body.Error.Code)
}

func TestListRuns(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	finished := started.Add(30 * time.Second)
	runs := &fakeRuns{runs: []domain.Run{{
		ID:          uuid.New(),
		FlowName:    "install-docker",
		Status:      domain.RunStatusSucceeded,
		StepCount:   1,
		CurrentStep: 0,
		StartedAt:   &started,
		FinishedAt:  &finished,
	}}}
	srv := newTestServer(t, runs)

	var body struct {
		Data  []RunResponse `json:"data"`
		Total int           `json:"total"`
	}
	status := get(t, srv.URL+"/api/v1/runs?flow=install-docker&status=succeeded&limit=10&offset=x", &body)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, int64(30000), body.Data[0].DurationMs)
	assert.Equal(t, repo.RunFilter{FlowName: "install-docker", Status: domain.RunStatusSucceeded, Limit: 10}, runs.filter)
}

func TestListRuns_InvalidStatus(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{})
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/v1/runs?status=cancelled", nil))
}

func TestGetRun(t *testing.T) {
	id := uuid.New()
	srv := newTestServer(t, &fakeRuns{runs: []domain.Run{{ID: id, FlowName: "offline", Status: domain.RunStatusFailed, Error: "boom"}}})

	var body struct {
		Data RunResponse `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/runs/"+id.String(), &body))
	assert.Equal(t, "boom", body.Data.Error)

	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/v1/runs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/v1/runs/42", nil))
}

func TestGetRun_StoreError(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusInternalServerError, get(t, srv.URL+"/api/v1/runs/"+uuid.NewString(), nil))
}
