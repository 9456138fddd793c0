// Package cmd provides the root command and CLI setup for qcgen.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"qcgen.dev/pkg/qcgen/internal/adapter"
	"qcgen.dev/pkg/qcgen/internal/controller"
	"qcgen.dev/pkg/qcgen/internal/domain"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

var goFileAdapter adapter.GoFileAdapter
var fsAdapter adapter.SourceFSAdapter
var cacheStore adapter.CacheStore
var testAdapter adapter.TestRunnerAdapter
var registry *domain.Registry
var generator domain.Generator
var workflow domain.Workflow
var ui controller.UI

// noCacheFlag disables incremental caching when set.
var noCacheFlag bool

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

var verboseFlag bool
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	goFileAdapter = adapter.NewLocalGoFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	cacheStore = adapter.NewYAMLCacheStore()
	testAdapter = adapter.NewLocalTestRunnerAdapter(adapter.DefaultTestTimeout)

	registry = domain.NewRegistry()
	cobra.CheckErr(domain.RegisterQuickcheck(registry, domain.NewExpander(
		viper.GetString(runnerPackageKey),
		viper.GetString(runnerFuncKey),
	)))

	generator = domain.NewGenerator(goFileAdapter, fsAdapter, registry, domain.GeneratorOptions{
		Suffix:   viper.GetString(suffixConfigKey),
		BuildTag: viper.GetString(buildTagConfigKey),
	})
	workflow = domain.NewWorkflow(fsAdapter, cacheStore, testAdapter, ui, generator)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...          recursively scan current directory
  - ./pkg/...      recursively scan pkg directory
  - ./cmd ./pkg    scan multiple directories`

const rootLongDescription = `qcgen turns annotated Go predicates into property tests.

Mark a function, or a package-level var holding one, with a //quickcheck
comment and qcgen writes a test that nests the predicate and hands it to
the quickcheck runner, which checks it against random inputs.

` + pathPatternsHelp

const generateLongDescription = `Generate property tests for the given paths (default: current module).

Each source containing //quickcheck declarations produces a sibling
<name>_quickcheck_test.go file.

` + pathPatternsHelp

const listLongDescription = `List //quickcheck declarations and the tests they generate.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qcgen",
		Short: "Property test generator for Go",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&noCacheFlag, noCacheFlagName, viper.GetBool(noCacheFlagName), "disable cached incremental runs (regenerate everything)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noCacheFlagName), noCacheFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, "", "log file path (default from log.filename)")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
