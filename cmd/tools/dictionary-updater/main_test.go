// cmd/tools/dictionary-updater/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"infinz-leadgen/pkg/dictionary"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUpdateSearchValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "terms.json")
	var out bytes.Buffer

	require.NoError(t, run("add", []string{
		"-path", path, "-id", "foir", "-term", "FOIR",
		"-definition", "Fixed Obligation to Income Ratio", "-category", "Personal Finance",
	}, &out))
	require.NoError(t, run("add", []string{
		"-path", path, "-id", "kyc", "-term", "KYC",
		"-definition", "Know Your Customer checks", "-category", "Regulatory",
	}, &out))

	err := run("add", []string{
		"-path", path, "-id", "kyc", "-term", "KYC", "-definition", "dup", "-category", "Regulatory",
	}, &out)
	assert.ErrorContains(t, err, "already exists")

	err = run("add", []string{
		"-path", path, "-id", "btc", "-term", "Bitcoin", "-definition", "Crypto", "-category", "Crypto",
	}, &out)
	assert.ErrorContains(t, err, "invalid category")

	require.NoError(t, run("update", []string{"-path", path, "-id", "foir", "-field", "icon", "-value", "pie-chart"}, &out))
	assert.ErrorContains(t, run("update", []string{"-path", path, "-id", "nope", "-field", "icon", "-value", "x"}, &out), "not found")

	cat, err := dictionary.LoadCatalogue(path)
	require.NoError(t, err)
	require.Len(t, cat.Terms, 2)
	assert.Equal(t, "pie-chart", cat.Terms[0].Icon)
	assert.NotEmpty(t, cat.LastUpdated)

	out.Reset()
	require.NoError(t, run("search", []string{"-path", path, "-q", "customer"}, &out))
	assert.Contains(t, out.String(), "kyc")
	assert.Contains(t, out.String(), "1 of 2 terms")

	assert.ErrorContains(t, run("search", []string{"-path", path, "-category", "Crypto"}, &out), "unknown category")

	out.Reset()
	require.NoError(t, run("validate", []string{"-path", path}, &out))
	assert.Contains(t, out.String(), "Found 2 terms")
}

func TestValidate_Failures(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	assert.ErrorContains(t, run("validate", []string{"-path", filepath.Join(dir, "missing.json")}, &out), "failed to load")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"terms":[]}`), 0o644))
	assert.ErrorContains(t, run("validate", []string{"-path", empty}, &out), "no terms")
}

func TestValidate_EmbeddedCatalogue(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run("validate", []string{"-path", filepath.Join("..", "..", "..", defaultPath)}, &out))
}

func TestRun_UnknownCommand(t *testing.T) {
	assert.Error(t, run("publish", nil, &bytes.Buffer{}))
}
