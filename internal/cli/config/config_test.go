package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "model.yml", cfg.Model.Path)
	assert.Equal(t, 3, cfg.Compiler.MaxFetchDepth)
	assert.Equal(t, 1, cfg.Compiler.CollectionJoinLimit)
	assert.Equal(t, 128, cfg.Compiler.PlanCacheSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
	assert.Empty(t, cfg.File())
	assert.Equal(t, "model.yml", cfg.ModelPath())
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := `
model:
  path: schema/blog.yml
compiler:
  max_fetch_depth: 5
  collection_join_limit: 0
  plan_cache_size: 0
log:
  level: debug
`
	require.NoError(t, os.WriteFile("querymodel.yml", []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Compiler.MaxFetchDepth)
	assert.Equal(t, 0, cfg.Compiler.CollectionJoinLimit)
	assert.Equal(t, 0, cfg.Compiler.PlanCacheSize)
	assert.Equal(t, "debug", cfg.Log.Level)

	opts := cfg.PlannerOptions()
	assert.Equal(t, 5, opts.MaxFetchDepth)
	assert.Equal(t, 0, opts.CollectionJoinLimit)
	assert.Equal(t, 0, opts.CacheSize)
	assert.NoError(t, opts.Validate())
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  path: blog.yml\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File())
	assert.Equal(t, filepath.Join(dir, "blog.yml"), cfg.ModelPath())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("QUERYMODEL_COMPILER_MAX_FETCH_DEPTH", "7")
	t.Setenv("QUERYMODEL_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Compiler.MaxFetchDepth)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Model:    ModelConfig{Path: "model.yml"},
			Compiler: CompilerConfig{MaxFetchDepth: 3, CollectionJoinLimit: 1, PlanCacheSize: 128},
			Log:      LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty model path", mutate: func(c *Config) { c.Model.Path = "" }, wantErr: "model.path"},
		{name: "negative depth", mutate: func(c *Config) { c.Compiler.MaxFetchDepth = -1 }, wantErr: "max_fetch_depth"},
		{name: "two collection joins", mutate: func(c *Config) { c.Compiler.CollectionJoinLimit = 2 }, wantErr: "0 or 1"},
		{name: "negative cache", mutate: func(c *Config) { c.Compiler.PlanCacheSize = -1 }, wantErr: "plan_cache_size"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("querymodel.yml", []byte("compiler:\n  collection_join_limit: 3\n"), 0644))

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection_join_limit")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	dev, err := NewLogger(LogConfig{Level: "error", Development: true})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LogConfig{Level: "nope"})
	assert.Error(t, err)
}
