package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/progress"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:    "0",
		AppEnv:  "test",
		Storage: storage.Config{Backend: storage.BackendLocal, DataRoot: t.TempDir()},
		Progress: progress.Config{
			Backend:     progress.BackendDocument,
			DocumentKey: progress.LocalDocumentKey,
		},
		SessionSecret: "test-secret",
	}
}

func TestNewCreatesCategoryDirectories(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	for _, dir := range []string{"vowels", "consonants", "vowel_signs", "special_signs"} {
		info, err := os.Stat(filepath.Join(cfg.Storage.DataRoot, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "ftp"
	_, err := New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Progress.Increment = "sometimes"
	_, err = New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestNewDegradesMissingCredentials(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = storage.BackendSupabase
	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	a.Close()
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
