// File: internal/browser/browser_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullgrad/wayward/internal/config"
)

// These tests cover the pure plumbing of the package; anything that
// talks to an actual browser process is exercised end-to-end instead.

func TestExecOptionsReflectConfig(t *testing.T) {
	base := execOptions(config.BrowserConfig{Headless: true})

	withTLS := execOptions(config.BrowserConfig{Headless: true, IgnoreTLSErrors: true})
	assert.Len(t, withTLS, len(base)+1, "ignoring TLS errors adds exactly one flag")

	headful := execOptions(config.BrowserConfig{Headless: false})
	assert.Len(t, headful, len(base), "headless toggles a flag value, not the flag count")
}

func TestMergeContextsCallerCancel(t *testing.T) {
	tabCtx, tabCancel := context.WithCancel(context.Background())
	defer tabCancel()
	callerCtx, callerCancel := context.WithCancel(context.Background())

	merged, cleanup := mergeContexts(tabCtx, callerCtx)
	defer cleanup()

	require.NoError(t, merged.Err())
	callerCancel()

	select {
	case <-merged.Done():
	case <-time.After(time.Second):
		t.Fatal("caller cancellation did not propagate")
	}
	assert.NoError(t, tabCtx.Err(), "the tab context itself must survive")
}

func TestMergeContextsTabCancel(t *testing.T) {
	tabCtx, tabCancel := context.WithCancel(context.Background())

	merged, cleanup := mergeContexts(tabCtx, context.Background())
	defer cleanup()

	tabCancel()
	select {
	case <-merged.Done():
	case <-time.After(time.Second):
		t.Fatal("tab cancellation did not propagate")
	}
}

func TestMergeContextsCleanupDetaches(t *testing.T) {
	tabCtx, tabCancel := context.WithCancel(context.Background())
	defer tabCancel()
	callerCtx, callerCancel := context.WithCancel(context.Background())
	defer callerCancel()

	merged, cleanup := mergeContexts(tabCtx, callerCtx)
	cleanup()
	assert.Error(t, merged.Err(), "cleanup cancels the merged context")
}

func TestHostnameOf(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://Example.COM/path?q=1", "example.com"},
		{"https://shop.example.co.uk:8443/", "shop.example.co.uk"},
		{"/relative/path", ""},
		{"http://%zz", ""},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, hostnameOf(tc.rawURL), "url %q", tc.rawURL)
	}
}
