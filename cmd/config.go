package cmd

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	"qcgen.dev/pkg/qcgen/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "qcgen"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	noCacheFlagName     = "no-cache"
	excludeFlagName     = "exclude"
	parallelFlagName    = "parallel"
	failOnErrorFlagName = "fail-on-error"
	verboseFlagName     = "verbose"
	logFileFlagName     = "log-file"

	parallelConfigKey    = "generate.parallel"
	suffixConfigKey      = "generate.suffix"
	buildTagConfigKey    = "generate.build_tag"
	failOnErrorConfigKey = "generate.fail_on_error"
	runnerPackageKey     = "runner.package"
	runnerFuncKey        = "runner.func"
	excludeConfigKey     = "paths.exclude"
	cachePathKey         = "cache.path"

	defaultNoCache     = false
	defaultParallel    = 4
	defaultFailOnError = true
	defaultCachePath   = ".qcgen-cache.yaml"

	envPrefix = "QCGEN"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".qcgen.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setConfigDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Debug("Config not loaded", "error", err)
		}
	}
}

func setConfigDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(noCacheFlagName, defaultNoCache)
	viper.SetDefault(parallelConfigKey, defaultParallel)
	viper.SetDefault(suffixConfigKey, domain.DefaultSuffix)
	viper.SetDefault(buildTagConfigKey, domain.DefaultBuildTag)
	viper.SetDefault(failOnErrorConfigKey, defaultFailOnError)
	viper.SetDefault(runnerPackageKey, domain.DefaultRunnerPackage)
	viper.SetDefault(runnerFuncKey, domain.DefaultRunnerFunc)
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(cachePathKey, defaultCachePath)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// configFingerprint identifies the settings that shape generated output.
// Cached entries written under a different fingerprint are regenerated.
func configFingerprint() string {
	parts := []string{
		viper.GetString(suffixConfigKey),
		viper.GetString(buildTagConfigKey),
		viper.GetString(runnerPackageKey),
		viper.GetString(runnerFuncKey),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))

	return fmt.Sprintf("%x", sum[:8])
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted too (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs the global slog logger writing to a rotated file.
//
// It logs at log.level (Info by default), or at Debug when verbose is set.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose || viper.GetBool(logVerboseKey) {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
