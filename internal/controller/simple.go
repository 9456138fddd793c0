package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

// SimpleUI implements UI by printing to the cobra command's output.
type SimpleUI struct {
	cmd *cobra.Command
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait is a no-op: SimpleUI prints and continues.
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplayFileResult prints one file outcome. Skipped files are not shown.
func (s *SimpleUI) DisplayFileResult(ctx context.Context, result m.FileResult) {
	if ctx.Err() != nil || result.Status == m.FileSkipped {
		return
	}

	s.printf("%s", formatFileResult(result))
}

// DisplaySummary prints the run totals.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summary m.Summary) {
	if ctx.Err() != nil {
		return
	}

	s.printf("\n%s", renderSummaryTable(summary))
}

// DisplayDeclarations prints the annotated declarations found in results.
func (s *SimpleUI) DisplayDeclarations(ctx context.Context, results []m.FileResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := buildDeclarationRows(results)
	if len(rows) == 0 {
		s.printf("No annotated declarations found\n")
		return nil
	}

	s.printf("\n%s", renderDeclarationTable(rows))

	for _, result := range results {
		for _, d := range result.Diagnostics {
			s.printf("%s\n", formatDiagnostic(d))
		}
	}

	return nil
}

// DisplayVerifyResult prints the outcome of running go test for one package.
func (s *SimpleUI) DisplayVerifyResult(ctx context.Context, result m.VerifyResult) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s", formatVerifyResult(result))
}

func (s *SimpleUI) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
