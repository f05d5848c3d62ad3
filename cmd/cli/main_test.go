package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("WAZUHCHECK_LOG_DIR", filepath.Join(dir, "logs"))
	return dir
}

func tlsServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestList(t *testing.T) {
	isolate(t)
	var out, errOut bytes.Buffer
	code := execute([]string{"list"}, &out, &errOut)
	require.Equal(t, exitOK, code, errOut.String())

	s := out.String()
	assert.Contains(t, s, "NAME")
	assert.Contains(t, s, "manager-api ")
	assert.Contains(t, s, "https://localhost:55000/manager/info")
	assert.Contains(t, s, "dashboard-login")
}

func TestRun_PassAndFailExitCodes(t *testing.T) {
	dir := isolate(t)
	manager := tlsServer(t, http.StatusForbidden)
	indexer := tlsServer(t, http.StatusInternalServerError)
	t.Setenv("WAZUHCHECK_MANAGER_URL", manager.URL+"/manager/info")
	t.Setenv("WAZUHCHECK_INDEXER_URL", indexer.URL)

	var out, errOut bytes.Buffer
	code := execute([]string{"run", "manager-api"}, &out, &errOut)
	assert.Equal(t, exitOK, code, errOut.String())
	assert.Contains(t, out.String(), "✔ manager-api")
	assert.Contains(t, out.String(), "1 passed, 0 degraded, 0 failed")

	out.Reset()
	errOut.Reset()
	code = execute([]string{"run", "-o", "json", "manager-api", "indexer-api"}, &out, &errOut)
	assert.Equal(t, exitFailed, code)

	var doc struct {
		Passed  bool `json:"passed"`
		Results []struct {
			Name       string `json:"name"`
			Status     string `json:"status"`
			Kind       string `json:"kind"`
			StatusCode int    `json:"status_code"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.False(t, doc.Passed)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "status_mismatch", doc.Results[1].Kind)
	assert.Equal(t, 500, doc.Results[1].StatusCode)
	assert.Contains(t, errOut.String(), "indexer-api: status_mismatch failure")

	_, err := os.Stat(filepath.Join(dir, "logs", "wazuhcheck.log"))
	assert.NoError(t, err)
}

func TestRun_UsageErrors(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{
		{"run", "nope"},
		{"run", "-o", "xml", "manager-api"},
		{"run", "--config", "/does/not/exist.yaml"},
		{"list", "extra"},
	} {
		var out, errOut bytes.Buffer
		code := execute(args, &out, &errOut)
		assert.Equal(t, exitUsage, code, "%v", args)
		assert.Contains(t, errOut.String(), "Error:", "%v", args)
	}
}

func TestRun_ConfigFileAndFlags(t *testing.T) {
	dir := isolate(t)
	indexer := tlsServer(t, http.StatusUnauthorized)
	cfgFile := filepath.Join(dir, "wazuhcheck.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("indexer:\n  url: "+indexer.URL+"\n  accept: [401]\n"), 0o600))

	var out, errOut bytes.Buffer
	code := execute([]string{"run", "--config", cfgFile, "--concurrency", "2", "--log-level", "debug", "-o", "yaml", "indexer-api"}, &out, &errOut)
	assert.Equal(t, exitOK, code, errOut.String())
	assert.Contains(t, out.String(), "passed: true")
	assert.Contains(t, out.String(), "status_code: 401")
}
