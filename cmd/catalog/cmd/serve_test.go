package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_StopsOnCancel(t *testing.T) {
	// Given: a project using the watch profile
	setupProject(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := runContext(t, ctx, "serve", "--addr", "127.0.0.1:0")
		done <- err
	}()

	// When: the context is cancelled while serving
	time.Sleep(300 * time.Millisecond)
	cancel()

	// Then: the server and watcher shut down without error
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestServeCmd_MissingContentDir_StillServes(t *testing.T) {
	// Given: a project without a content directory
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(dir)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// When: serving until the deadline
	_, err := runContext(t, ctx, "serve", "--addr", "127.0.0.1:0")

	// Then: the watcher failure is not fatal
	require.NoError(t, err)
}
