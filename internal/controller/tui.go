package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

// TUI implements UI with a Bubble Tea progress display. Finished files are
// printed above a spinner line that tracks the run.
type TUI struct {
	cmd *cobra.Command

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{cmd: cmd}
}

// Start launches the progress program in generate mode. List mode renders
// a static table and needs no program.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options)
	if cfg.mode == ModeList {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return fmt.Errorf("ui already started")
	}

	program := tea.NewProgram(
		newProgressModel(cfg.total),
		tea.WithOutput(t.cmd.OutOrStdout()),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)
	done := make(chan struct{})

	go func() {
		defer close(done)

		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			slog.Error("Progress UI stopped", "error", err)
		}
	}()

	t.program = program
	t.done = done

	return nil
}

// Close stops the progress program and waits for it to restore the terminal.
func (t *TUI) Close(_ context.Context) {
	t.mu.Lock()
	program, done := t.program, t.done
	t.program, t.done = nil, nil
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Send(finishedMsg{})
	<-done
}

// Wait is a no-op: the progress program exits on Close.
func (t *TUI) Wait(_ context.Context) {}

// DisplayFileResult records a finished file.
func (t *TUI) DisplayFileResult(ctx context.Context, result m.FileResult) {
	if ctx.Err() != nil {
		return
	}

	if !t.send(fileDoneMsg{result: result}) && result.Status != m.FileSkipped {
		t.write(formatFileResult(result))
	}
}

// DisplaySummary prints the run totals.
func (t *TUI) DisplaySummary(ctx context.Context, summary m.Summary) {
	if ctx.Err() != nil {
		return
	}

	t.print(renderSummaryTable(summary))
}

// DisplayDeclarations prints the annotated declarations found in results.
func (t *TUI) DisplayDeclarations(ctx context.Context, results []m.FileResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := buildDeclarationRows(results)
	if len(rows) == 0 {
		t.print(faintStyle.Render("No annotated declarations found") + "\n")
		return nil
	}

	var b strings.Builder

	b.WriteString(renderDeclarationTable(rows))

	for _, result := range results {
		for _, d := range result.Diagnostics {
			b.WriteString(formatDiagnostic(d) + "\n")
		}
	}

	t.print(b.String())

	return nil
}

// DisplayVerifyResult prints the outcome of running go test for one package.
func (t *TUI) DisplayVerifyResult(ctx context.Context, result m.VerifyResult) {
	if ctx.Err() != nil {
		return
	}

	t.print(formatVerifyResult(result))
}

// print routes text above the progress line while the program runs.
func (t *TUI) print(text string) {
	if !t.send(printMsg(text)) {
		t.write(text)
	}
}

func (t *TUI) send(msg tea.Msg) bool {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return false
	}

	program.Send(msg)

	return true
}

func (t *TUI) write(text string) {
	_, _ = fmt.Fprint(t.cmd.OutOrStdout(), text)
}

type (
	fileDoneMsg struct{ result m.FileResult }
	printMsg    string
	finishedMsg struct{}
)

// progressModel is the Bubble Tea model for a running generation.
type progressModel struct {
	spinner  spinner.Model
	total    int
	done     int
	expanded int
	errors   int
	finished bool
}

func newProgressModel(total int) progressModel {
	return progressModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		total:   total,
	}
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fileDoneMsg:
		pm.done++

		expanded, _ := countExpansions(msg.result.Expansions)
		pm.expanded += expanded

		if msg.result.HasErrors() || msg.result.Status == m.FileFailed {
			pm.errors++
		}

		if msg.result.Status == m.FileSkipped {
			return pm, nil
		}

		return pm, tea.Println(strings.TrimSuffix(formatFileResult(msg.result), "\n"))

	case printMsg:
		return pm, tea.Println(strings.TrimSuffix(string(msg), "\n"))

	case finishedMsg:
		pm.finished = true
		return pm, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		pm.spinner, cmd = pm.spinner.Update(msg)

		return pm, cmd
	}

	return pm, nil
}

func (pm progressModel) View() string {
	if pm.finished {
		return ""
	}

	progress := fmt.Sprintf("%d", pm.done)
	if pm.total > 0 {
		progress = fmt.Sprintf("%d/%d", pm.done, pm.total)
	}

	line := fmt.Sprintf("%s generating %s files, %d wrappers", pm.spinner.View(), progress, pm.expanded)
	if pm.errors > 0 {
		line += ", " + errorStyle.Render(fmt.Sprintf("%d with errors", pm.errors))
	}

	return line + "\n"
}
