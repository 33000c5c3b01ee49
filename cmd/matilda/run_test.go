package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matilda-discovery/matilda/internal/config"
)

func TestLoadRunConfigRequiresATarget(t *testing.T) {
	_, err := loadRunConfig("", "", "")
	require.Error(t, err)
}

func TestLoadRunConfigAcceptsDemoName(t *testing.T) {
	cfg, err := loadRunConfig("", "imperfect_database", "")
	require.NoError(t, err)
	require.Equal(t, "imperfect_database", cfg.Database.Path)
}

func TestLoadRunConfigAcceptsDatabasePath(t *testing.T) {
	cfg, err := loadRunConfig("", "", "/tmp/university.db")
	require.NoError(t, err)
	require.Equal(t, "/tmp/university.db", cfg.Database.Path)
}

func TestLoadRunConfigRejectsMissingConfigFile(t *testing.T) {
	_, err := loadRunConfig("/no/such/config.yaml", "", "")
	require.Error(t, err)
}

func TestResolveDSNJoinsPathAndName(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.Path = "/var/data"
	cfg.Database.Name = "university.db"

	dsn, label, err := resolveDSN(cfg)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/var/data", "university.db"), dsn)
	require.Equal(t, "university", label)
}

func TestResolveDSNPrefersURLOverPathAndName(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.Path = "/var/data"
	cfg.Database.Name = "university.db"
	cfg.Database.URL = "file:/var/data/other.db?cache=shared"

	dsn, label, err := resolveDSN(cfg)
	require.NoError(t, err)
	require.Equal(t, cfg.Database.URL, dsn)
	require.Equal(t, "other", label)
}

func TestResolveDSNFallsBackToPathAlone(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.Path = "/tmp/university.db"

	dsn, label, err := resolveDSN(cfg)
	require.NoError(t, err)
	require.Equal(t, "/tmp/university.db", dsn)
	require.Equal(t, "university", label)
}

func TestResolveDSNRejectsAllFieldsEmpty(t *testing.T) {
	cfg := config.DefaultConfig()
	_, _, err := resolveDSN(cfg)
	require.Error(t, err)
}
