package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopSinkDoesNothing(t *testing.T) {
	var s Sink = NoopSink{}
	s.LogTransition("ENUMERATING")
	s.LogFailure(nil)
	s.LogResult(3, "success")
	s.Close()
}

func fakeMLflowServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/experiments/get-by-name", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/api/2.0/mlflow/experiments/create", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"experiment_id": "1"})
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/create", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"run": map[string]any{"info": map[string]any{"run_id": "run-123"}},
		})
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/log-parameter", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/log-metric", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/update", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(mux)
}

func TestMLflowSinkLogsWithoutError(t *testing.T) {
	srv := fakeMLflowServer(t)
	defer srv.Close()

	var errs []error
	sink, err := NewMLflowSink(context.Background(), srv.URL, "matilda-university", func(e error) { errs = append(errs, e) })
	require.NoError(t, err)
	require.Equal(t, "run-123", sink.runID)

	sink.LogTransition("ENUMERATING")
	sink.LogResult(2, "success")
	sink.Close()

	require.Empty(t, errs)
}
