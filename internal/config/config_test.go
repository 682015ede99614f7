// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NotNil(t, cfg)

	// Logger
	assert.Equal(t, "info", cfg.LoggerCfg.Level)
	assert.Equal(t, "console", cfg.LoggerCfg.Format)
	assert.Equal(t, "wayward", cfg.LoggerCfg.ServiceName)

	// Explorer
	assert.Equal(t, "curiosity", cfg.ExplorerCfg.Strategy)
	assert.Equal(t, 0.15, cfg.ExplorerCfg.Epsilon)
	assert.Equal(t, 0.3, cfg.ExplorerCfg.NoveltyBlend)
	assert.Equal(t, 0.4, cfg.ExplorerCfg.NoveltyLowThreshold)
	assert.Equal(t, 30, cfg.ExplorerCfg.ProgressHorizon)
	assert.Equal(t, 64, cfg.ExplorerCfg.FingerprintBits)
	assert.Equal(t, 256, cfg.ExplorerCfg.VectorDims)
	assert.Zero(t, cfg.ExplorerCfg.Seed)

	// RND
	assert.True(t, cfg.ExplorerCfg.RND.Enabled)
	assert.Equal(t, 256, cfg.ExplorerCfg.RND.InDim)
	assert.Equal(t, 64, cfg.ExplorerCfg.RND.OutDim)
	assert.Equal(t, 0.001, cfg.ExplorerCfg.RND.LearningRate)
	assert.Equal(t, 0.25, cfg.ExplorerCfg.RND.Saturation)

	// Frontier
	assert.Equal(t, 10000, cfg.FrontierCfg.MaxEntries)
	assert.Equal(t, 60*time.Second, cfg.FrontierCfg.RecencyHalfLife)

	// Safety
	assert.Equal(t, 30, cfg.SafetyCfg.MaxActionsPerWindow)
	assert.Equal(t, 60*time.Second, cfg.SafetyCfg.Window)
	assert.True(t, cfg.SafetyCfg.RestrictToDomain)
	assert.True(t, cfg.SafetyCfg.IncludeSubdomains)

	// Session ceilings
	assert.Equal(t, 10*time.Minute, cfg.SessionCfg.MaxDuration)
	assert.Equal(t, 100, cfg.SessionCfg.MaxActions)
	assert.Equal(t, 50, cfg.SessionCfg.MaxPages)
	assert.Equal(t, 10, cfg.SessionCfg.MaxFailures)

	// Browser
	assert.True(t, cfg.BrowserCfg.Headless)
	assert.False(t, cfg.BrowserCfg.IgnoreTLSErrors)
	assert.Equal(t, 30*time.Second, cfg.BrowserCfg.NavigationTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.BrowserCfg.PostLoadWait)
	assert.Equal(t, 2.0, cfg.BrowserCfg.ActionsPerSecond)
	assert.Equal(t, 200, cfg.BrowserCfg.MaxElements)
}

func TestConfigOverridesUnmarshal(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("explorer.strategy", "coverage")
	v.Set("explorer.epsilon", 0.5)
	v.Set("session.max_actions", 7)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "coverage", cfg.ExplorerCfg.Strategy)
	assert.Equal(t, 0.5, cfg.ExplorerCfg.Epsilon)
	assert.Equal(t, 7, cfg.SessionCfg.MaxActions)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.3, cfg.ExplorerCfg.NoveltyBlend)
}

func TestInterfaceSetters(t *testing.T) {
	var iface Interface = NewDefaultConfig()

	iface.SetExplorerStrategy("random")
	iface.SetExplorerEpsilon(0.99)
	iface.SetExplorerSeed(42)
	iface.SetSessionMaxActions(5)
	iface.SetSessionMaxDuration(time.Minute)
	iface.SetBrowserHeadless(false)

	assert.Equal(t, "random", iface.Explorer().Strategy)
	assert.Equal(t, 0.99, iface.Explorer().Epsilon)
	assert.Equal(t, int64(42), iface.Explorer().Seed)
	assert.Equal(t, 5, iface.Session().MaxActions)
	assert.Equal(t, time.Minute, iface.Session().MaxDuration)
	assert.False(t, iface.Browser().Headless)
}
