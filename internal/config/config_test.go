package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "matilda.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
database:
  path: university.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "university.db", cfg.Database.Path)
	require.Equal(t, 3, cfg.Algorithm.NbOccurrence)
	require.Equal(t, 3, cfg.Algorithm.MaxTable)
	require.Equal(t, 6, cfg.Algorithm.MaxVars)
	require.Equal(t, 1.0, cfg.Algorithm.ConfidenceThreshold)
	require.Equal(t, uint64(15*1024*1024*1024), cfg.Monitor.MemoryThresholdBytes)
	require.Equal(t, 3600.0, cfg.Monitor.TimeoutSeconds)
	require.Equal(t, "results", cfg.Results.OutputDir)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
database:
  path: university.db
algorithm:
  nb_occurrence: 2
  max_table: 2
  max_vars: 4
  confidence_threshold: 0.9
monitor:
  timeout: 0.001
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Algorithm.NbOccurrence)
	require.Equal(t, 2, cfg.Algorithm.MaxTable)
	require.Equal(t, 4, cfg.Algorithm.MaxVars)
	require.InDelta(t, 0.9, cfg.Algorithm.ConfidenceThreshold, 1e-9)
	require.InDelta(t, 0.001, cfg.Monitor.TimeoutSeconds, 1e-9)
}

func TestLoadParsesDatabaseNameAndURL(t *testing.T) {
	path := writeTempConfig(t, `
database:
  path: /var/data
  name: university.db
  url: postgres://localhost/university
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/data", cfg.Database.Path)
	require.Equal(t, "university.db", cfg.Database.Name)
	require.Equal(t, "postgres://localhost/university", cfg.Database.URL)
}

func TestValidateRejectsMissingDatabase(t *testing.T) {
	path := writeTempConfig(t, `
algorithm:
  max_table: 2
  max_vars: 4
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsBadConfidenceThreshold(t *testing.T) {
	path := writeTempConfig(t, `
database:
  path: university.db
algorithm:
  confidence_threshold: 1.5
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRequiresTrackingURIWhenMLflowEnabled(t *testing.T) {
	path := writeTempConfig(t, `
database:
  path: university.db
mlflow:
  use: true
`)
	_, err := Load(path)
	require.Error(t, err)
}
