package sweep

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "testdata"), 0o755))
	target := filepath.Join(dir, "app.go")
	ignored := []string{
		filepath.Join(dir, "app_test.go"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "testdata", "fixture.go"),
	}

	var (
		mu      sync.Mutex
		changed []string
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, nil, []string{dir}, func(files []string) {
			mu.Lock()
			defer mu.Unlock()
			changed = append(changed, files...)
		})
	}()

	// the watcher registers asynchronously, so keep writing until it reacts
	assert.Eventually(t, func() bool {
		for _, name := range ignored {
			_ = os.WriteFile(name, []byte("x"), 0o644)
		}
		_ = os.WriteFile(target, []byte("package app\n"), 0o644)

		mu.Lock()
		defer mu.Unlock()
		return len(changed) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	for _, name := range changed {
		assert.Equal(t, target, name)
	}
}
