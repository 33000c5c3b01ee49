// Package tracking mirrors a discovery run's state transitions and final
// outcome to an external run-tracking service. No MLflow Go SDK exists in
// the wild; this client speaks the MLflow REST tracking API directly over
// net/http, which is the correct tool here precisely because no richer
// third-party client exists to wrap it.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sink receives run-tracking events. NoopSink is used whenever mlflow.use
// is false.
type Sink interface {
	LogTransition(state string)
	LogFailure(err error)
	LogResult(totalRules int, status string)
	Close()
}

// NoopSink discards every event.
type NoopSink struct{}

func (NoopSink) LogTransition(string)  {}
func (NoopSink) LogFailure(error)      {}
func (NoopSink) LogResult(int, string) {}
func (NoopSink) Close()                {}

var _ Sink = NoopSink{}

// MLflowSink logs discovery run events to an MLflow tracking server's REST
// API. Once the sink exists, a failed tracking call is passed to onError
// and never fails the run; NewMLflowSink itself returns an error when the
// experiment or run cannot be created.
type MLflowSink struct {
	client         *http.Client
	baseURL        string
	experimentName string
	runID          string
	onError        func(error)
}

// NewMLflowSink creates a run under experimentName and returns a Sink bound
// to it. onError may be nil; when set, it receives every tracking-call
// failure for logging without interrupting the discovery run.
func NewMLflowSink(ctx context.Context, baseURL, experimentName string, onError func(error)) (*MLflowSink, error) {
	if onError == nil {
		onError = func(error) {}
	}
	s := &MLflowSink{
		client:         &http.Client{Timeout: 10 * time.Second},
		baseURL:        baseURL,
		experimentName: experimentName,
		onError:        onError,
	}

	expID, err := s.getOrCreateExperiment(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracking: resolving experiment: %w", err)
	}

	runID, err := s.createRun(ctx, expID)
	if err != nil {
		return nil, fmt.Errorf("tracking: creating run: %w", err)
	}
	s.runID = runID
	return s, nil
}

func (s *MLflowSink) LogTransition(state string) {
	if err := s.logParam("state", state); err != nil {
		s.onError(err)
	}
}

func (s *MLflowSink) LogFailure(err error) {
	if err == nil {
		return
	}
	if perr := s.logParam("failure", err.Error()); perr != nil {
		s.onError(perr)
	}
}

func (s *MLflowSink) LogResult(totalRules int, status string) {
	if err := s.logMetric("total_rules", float64(totalRules)); err != nil {
		s.onError(err)
	}
	if err := s.logParam("status", status); err != nil {
		s.onError(err)
	}
}

func (s *MLflowSink) Close() {
	_ = s.updateRun(context.Background(), "FINISHED")
}

func (s *MLflowSink) getOrCreateExperiment(ctx context.Context) (string, error) {
	get, err := s.post(ctx, "/api/2.0/mlflow/experiments/get-by-name", map[string]any{"experiment_name": s.experimentName})
	if err == nil {
		var resp struct {
			Experiment struct {
				ExperimentID string `json:"experiment_id"`
			} `json:"experiment"`
		}
		if jerr := json.Unmarshal(get, &resp); jerr == nil && resp.Experiment.ExperimentID != "" {
			return resp.Experiment.ExperimentID, nil
		}
	}

	created, err := s.post(ctx, "/api/2.0/mlflow/experiments/create", map[string]any{"name": s.experimentName})
	if err != nil {
		return "", err
	}
	var resp struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := json.Unmarshal(created, &resp); err != nil {
		return "", fmt.Errorf("tracking: decoding experiment id: %w", err)
	}
	return resp.ExperimentID, nil
}

func (s *MLflowSink) createRun(ctx context.Context, experimentID string) (string, error) {
	body, err := s.post(ctx, "/api/2.0/mlflow/runs/create", map[string]any{
		"experiment_id": experimentID,
		"start_time":    time.Now().UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("tracking: decoding run id: %w", err)
	}
	return resp.Run.Info.RunID, nil
}

func (s *MLflowSink) logParam(key, value string) error {
	_, err := s.post(context.Background(), "/api/2.0/mlflow/runs/log-parameter", map[string]any{
		"run_id": s.runID, "key": key, "value": value,
	})
	return err
}

func (s *MLflowSink) logMetric(key string, value float64) error {
	_, err := s.post(context.Background(), "/api/2.0/mlflow/runs/log-metric", map[string]any{
		"run_id": s.runID, "key": key, "value": value, "timestamp": time.Now().UnixMilli(),
	})
	return err
}

func (s *MLflowSink) updateRun(ctx context.Context, status string) error {
	_, err := s.post(ctx, "/api/2.0/mlflow/runs/update", map[string]any{
		"run_id": s.runID, "status": status, "end_time": time.Now().UnixMilli(),
	})
	return err
}

func (s *MLflowSink) post(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tracking: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("tracking: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracking: calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tracking: reading response from %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tracking: %s returned status %d", path, resp.StatusCode)
	}
	return out, nil
}
