package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicsim/internal/runner"
	"clinicsim/internal/types"
)

func TestSimulate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/simulate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var sc runner.Scenario
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sc))
		assert.Equal(t, 7, sc.Nurses)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"scenario":{"nurses":7,"doctors":3},"seed":9,"samples":100,
			"mean":{"nurse_utilization":0.8,"doctor_utilization":0.6,"avg_nurse_wait":1.25,"max_nurse_wait":4,"avg_doctor_wait":0.5,"max_doctor_wait":2}}`)
	}))
	defer ts.Close()

	c := New(ts.URL+"/", "secret")
	s, err := c.Simulate(context.Background(), runner.Scenario{Nurses: 7, Doctors: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), s.Seed)
	assert.Equal(t, 0.8, s.Mean.NurseUtilization)
	assert.Equal(t, 1.25, s.Mean.AvgNurseWait)
	assert.Equal(t, 2.0, s.Mean.MaxDoctorWait)
}

func TestRun(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/run", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintln(w, `{"status":"started","plan_id":"p-1","variants":9}`)
	}))
	defer ts.Close()

	id, err := New(ts.URL, "").Run(context.Background(), types.RunRequest{Goal: "g"})
	require.NoError(t, err)
	assert.Equal(t, "p-1", id)
}

func TestAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, `{"error":"invalid clinic configuration: nurse count 0 must be > 0"}`)
	}))
	defer ts.Close()

	_, err := New(ts.URL, "").Simulate(context.Background(), runner.Scenario{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "nurse count 0")
}

func TestHealthAndMetrics(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			fmt.Fprint(w, "ok")
		case "/metrics":
			fmt.Fprintln(w, `{"planner_ms":1,"simulation_ms":20,"replications_per_second":500,"runs_completed":3}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	require.NoError(t, c.Health(context.Background()))
	m, err := c.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.RunsCompleted)
	assert.Equal(t, 500.0, m.ReplicationsPerSecond)
}
