package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("DATA_ROOT", t.TempDir())
	t.Setenv("PROGRESS_BACKEND", "document")
	t.Setenv("PROGRESS_INCREMENT", "")
	t.Setenv("PROGRESS_KEY", "")
	t.Setenv("CATALOG_PATH", "")
	showRaw, copyTo, copyDryRun = false, "", false

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestShowEmptyProgress(t *testing.T) {
	out, err := run(t, "show")
	require.NoError(t, err)

	var global models.GlobalProgress
	require.NoError(t, json.Unmarshal([]byte(out), &global))
	assert.Equal(t, 72, global.TotalCharacters)
	assert.Equal(t, 3600, global.TargetSamples)
	assert.Zero(t, global.TotalSamples)
}

func TestShowRaw(t *testing.T) {
	out, err := run(t, "show", "--raw")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, out)
}

func TestCopyRejectsSameBackend(t *testing.T) {
	_, err := run(t, "copy", "--to", "document")
	assert.Error(t, err)
}

func TestDBCheckRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "dbcheck")
	assert.Error(t, err)
}
