package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"qcgen.dev/pkg/qcgen/internal/domain"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "qcgen", configBaseName)
	assert.Equal(t, "qcgen.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "no-cache", noCacheFlagName)
	assert.Equal(t, "exclude", excludeFlagName)
	assert.Equal(t, "parallel", parallelFlagName)
	assert.Equal(t, "generate.parallel", parallelConfigKey)
	assert.Equal(t, "paths.exclude", excludeConfigKey)
	assert.Equal(t, false, defaultNoCache)
	assert.Equal(t, "QCGEN", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, domain.DefaultSuffix, viper.GetString(suffixConfigKey))
	assert.Equal(t, domain.DefaultBuildTag, viper.GetString(buildTagConfigKey))
	assert.Equal(t, domain.DefaultRunnerPackage, viper.GetString(runnerPackageKey))
	assert.Equal(t, domain.DefaultRunnerFunc, viper.GetString(runnerFuncKey))
	assert.Equal(t, defaultCachePath, viper.GetString(cachePathKey))
}

func TestConfigFingerprint(t *testing.T) {
	before := configFingerprint()
	assert.Equal(t, before, configFingerprint())

	viper.Set(runnerFuncKey, "Check")
	t.Cleanup(func() { viper.Set(runnerFuncKey, domain.DefaultRunnerFunc) })

	assert.NotEqual(t, before, configFingerprint())
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}
