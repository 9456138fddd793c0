package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"qcgen.dev/pkg/qcgen/internal/domain"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

var parallelFlag int
var failOnErrorFlag bool
var dryRunFlag bool
var diffFlag bool
var verifyFlag bool

// generateCmd represents the generate command.
var generateCmd = newGenerateCmd()

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate [paths...]",
		Aliases: []string{"gen"},
		Short:   "Generate property tests",
		Long:    generateLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Generate(cmd.Context(), generateArgs(args))
		},
	}

	configureGenerateFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func configureGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of files generated in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)

	cmd.Flags().BoolVar(&failOnErrorFlag, failOnErrorFlagName, viper.GetBool(failOnErrorConfigKey), "exit non-zero when any declaration is rejected")
	bindFlagToConfig(cmd.Flags().Lookup(failOnErrorFlagName), failOnErrorConfigKey)

	cmd.Flags().BoolVarP(&dryRunFlag, "dry-run", "n", false, "do not write generated files")
	cmd.Flags().BoolVar(&diffFlag, "diff", false, "print a unified diff against existing generated files")
	cmd.Flags().BoolVar(&verifyFlag, "verify", false, "run go test for the generated tests")
}

func generateArgs(args []string) domain.GenerateArgs {
	return domain.GenerateArgs{
		Paths:       parsePaths(args),
		Exclude:     viper.GetStringSlice(excludeConfigKey),
		Threads:     viper.GetInt(parallelConfigKey),
		UseCache:    !viper.GetBool(noCacheFlagName),
		Cache:       m.Path(viper.GetString(cachePathKey)),
		Fingerprint: configFingerprint(),
		DryRun:      dryRunFlag,
		Diff:        diffFlag,
		Verify:      verifyFlag,
		FailOnError: viper.GetBool(failOnErrorConfigKey),
	}
}
