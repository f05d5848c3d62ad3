package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://localhost:55000/manager/info", cfg.Manager.URL)
	assert.Equal(t, []int{200, 401, 403}, cfg.Manager.Accept)
	assert.True(t, cfg.Manager.TCPFallback)
	assert.Equal(t, "https://localhost:55000", cfg.ManagerRoot.URL)
	assert.False(t, cfg.ManagerRoot.TCPFallback)
	assert.Equal(t, "https://localhost:9200", cfg.Indexer.URL)
	assert.Equal(t, []int{200, 401}, cfg.Indexer.Accept)
	assert.Equal(t, "https://localhost:443", cfg.Dashboard.URL)
	assert.Equal(t, []string{"Wazuh", "OpenSearch"}, cfg.Dashboard.Titles)

	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Browser.WaitTimeout)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.NoSandbox)
	assert.True(t, cfg.Browser.IgnoreCertErrors)
	assert.Equal(t, 1, cfg.Suite.Concurrency)
	assert.Equal(t, "logs", cfg.Log.Dir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WAZUHCHECK_INDEXER_URL", "https://indexer.internal:9200")
	t.Setenv("WAZUHCHECK_INDEXER_ACCEPT", "200,401,403")
	t.Setenv("WAZUHCHECK_MANAGER_TCP_FALLBACK", "false")
	t.Setenv("WAZUHCHECK_HTTP_TIMEOUT", "3s")
	t.Setenv("WAZUHCHECK_API_PUBLIC_KEYS", "pub_a,pub_b,")
	t.Setenv("WAZUHCHECK_API_ADMIN_KEYS", "adm_x")
	t.Setenv("WAZUHCHECK_SUITE_CONCURRENCY", "4")
	t.Setenv("WAZUHCHECK_LOG_DIR", "./_testlogs")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://indexer.internal:9200", cfg.Indexer.URL)
	assert.Equal(t, []int{200, 401, 403}, cfg.Indexer.Accept)
	assert.False(t, cfg.Manager.TCPFallback)
	assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, []string{"pub_a", "pub_b"}, cfg.API.PublicKeys)
	assert.Equal(t, []string{"adm_x"}, cfg.API.AdminKeys)
	assert.Equal(t, 4, cfg.Suite.Concurrency)
	assert.Equal(t, "./_testlogs", cfg.Log.Dir)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "wazuhcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
manager:
  url: https://wazuh-manager:55000/manager/info
dashboard:
  url: https://dashboard.example
  titles: [Wazuh]
browser:
  exec_path: /usr/bin/chromium
  wait_timeout: 15s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://wazuh-manager:55000/manager/info", cfg.Manager.URL)
	assert.Equal(t, []int{200, 401, 403}, cfg.Manager.Accept, "defaults survive partial files")
	assert.Equal(t, "https://dashboard.example", cfg.Dashboard.URL)
	assert.Equal(t, []string{"Wazuh"}, cfg.Dashboard.Titles)
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecPath)
	assert.Equal(t, 15*time.Second, cfg.Browser.WaitTimeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v, err := NewViper("")
	require.NoError(t, err)

	cfg, err := Decode(v)
	require.NoError(t, err)

	cfg.Manager.URL = "ftp://manager"
	cfg.Indexer.Accept = []int{200, 42}
	cfg.Dashboard.Titles = nil
	cfg.Suite.Concurrency = 0

	err = cfg.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 4)
	assert.Contains(t, err.Error(), "manager.url")
	assert.Contains(t, err.Error(), "indexer.accept: 42")
	assert.Contains(t, err.Error(), "dashboard.titles")
	assert.Contains(t, err.Error(), "suite.concurrency")
}

func TestValidate_StableOrder(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)

	cfg.Manager.URL = "ftp://manager"
	cfg.ManagerRoot.Accept = nil
	cfg.Indexer.URL = ""

	first := cfg.Validate().Error()
	for i := 0; i < 20; i++ {
		require.Equal(t, first, cfg.Validate().Error())
	}
	errs := multierr.Errors(cfg.Validate())
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "manager.url")
	assert.Contains(t, errs[1].Error(), "manager_root.accept")
	assert.Contains(t, errs[2].Error(), "indexer.url")
}
