// Package domain contains the expansion core and the generation workflow.
package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"
	"qcgen.dev/pkg/qcgen/internal/adapter"
	"qcgen.dev/pkg/qcgen/internal/controller"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

var (
	// ErrDiagnostics is returned when a run produced error diagnostics and
	// the fail-on-error policy is enabled.
	ErrDiagnostics = errors.New("generation reported errors")
	// ErrVerifyFailed is returned when go test fails for generated files.
	ErrVerifyFailed = errors.New("verification failed")
)

// GenerateArgs holds the parameters of a generate run.
type GenerateArgs struct {
	Paths       []m.Path
	Exclude     []string
	Threads     int
	UseCache    bool
	Cache       m.Path
	Fingerprint string
	DryRun      bool
	Diff        bool
	Verify      bool
	FailOnError bool
}

// ListArgs holds the parameters of a list run.
type ListArgs struct {
	Paths   []m.Path
	Exclude []string
	Threads int
}

// Workflow drives generation over a set of paths.
type Workflow interface {
	Generate(ctx context.Context, args GenerateArgs) error
	List(ctx context.Context, args ListArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.CacheStore
	adapter.TestRunnerAdapter
	controller.UI
	Generator
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	cacheStore adapter.CacheStore,
	testRunner adapter.TestRunnerAdapter,
	ui controller.UI,
	generator Generator,
) Workflow {
	return &workflow{
		SourceFSAdapter:   fsAdapter,
		CacheStore:        cacheStore,
		TestRunnerAdapter: testRunner,
		UI:                ui,
		Generator:         generator,
	}
}

// Generate expands annotated declarations in every source under args.Paths
// and writes the generated test files.
func (w *workflow) Generate(ctx context.Context, args GenerateArgs) error {
	sources, err := w.discover(args.Paths, args.Exclude)
	if err != nil {
		slog.Error("Failed to discover sources", "error", err)
		return fmt.Errorf("discover sources: %w", err)
	}

	slog.Debug("Discovered sources", "count", len(sources))

	cache := m.Cache{Entries: map[m.Path]m.CacheEntry{}}

	if args.UseCache && args.Cache != "" {
		cache, err = w.Load(args.Cache)
		if err != nil {
			slog.Warn("Ignoring unreadable cache", "path", args.Cache, "error", err)
		}
	}

	if err := w.Start(ctx, controller.WithGenerateMode(), controller.WithTotal(len(sources))); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	results, err := w.runAll(ctx, args.Threads, sources, func(ctx context.Context, source m.Source) m.FileResult {
		result := w.processSource(ctx, args, cache, source)
		w.DisplayFileResult(ctx, result)

		return result
	})
	if err != nil {
		w.Close(ctx)
		return err
	}

	var summary m.Summary

	failed := false

	for _, result := range results {
		summary.Add(result)

		if result.Status == m.FileFailed || result.HasErrors() {
			failed = true
		}
	}

	w.DisplaySummary(ctx, summary)

	if args.UseCache && args.Cache != "" && !args.DryRun {
		w.updateCache(&cache, args, results)

		if err := w.Save(args.Cache, cache); err != nil {
			slog.Warn("Failed to save cache", "path", args.Cache, "error", err)
		}
	}

	var verifyErr error
	if args.Verify {
		verifyErr = w.verify(ctx, args, results)
	}

	w.Wait(ctx)
	w.Close(ctx)

	if verifyErr != nil {
		return verifyErr
	}

	if failed && args.FailOnError {
		return ErrDiagnostics
	}

	return nil
}

// List reports annotated declarations without writing anything.
func (w *workflow) List(ctx context.Context, args ListArgs) error {
	sources, err := w.discover(args.Paths, args.Exclude)
	if err != nil {
		return fmt.Errorf("discover sources: %w", err)
	}

	if err := w.Start(ctx, controller.WithListMode(), controller.WithTotal(len(sources))); err != nil {
		return err
	}

	results, err := w.runAll(ctx, args.Threads, sources, func(ctx context.Context, source m.Source) m.FileResult {
		result, err := w.Generator.Generate(ctx, source)
		if err != nil {
			result.Status = m.FileFailed
			result.Err = err
		}

		return result
	})
	if err != nil {
		w.Close(ctx)
		return err
	}

	err = w.DisplayDeclarations(ctx, results)

	w.Wait(ctx)
	w.Close(ctx)

	return err
}

// runAll applies fn to every source with at most threads concurrent workers.
// Results keep the order of sources.
func (w *workflow) runAll(
	ctx context.Context,
	threads int,
	sources []m.Source,
	fn func(context.Context, m.Source) m.FileResult,
) ([]m.FileResult, error) {
	if threads <= 0 {
		threads = 1
	}

	results := make([]m.FileResult, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	for i, source := range sources {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			results[i] = fn(groupCtx, source)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// processSource generates one source, honoring the cache, and writes or
// diffs its output. Verification needs the test names of every expansion, so
// a verifying run regenerates cached sources in memory.
func (w *workflow) processSource(ctx context.Context, args GenerateArgs, cache m.Cache, source m.Source) m.FileResult {
	if args.UseCache && !args.Verify && w.cached(cache, args.Fingerprint, source) {
		slog.Debug("Source unchanged since last run", "source", source.Origin.FullPath)
		return m.FileResult{Source: source, Status: m.FileCached}
	}

	result, err := w.Generator.Generate(ctx, source)
	if err != nil {
		slog.Error("Failed to generate", "source", source.Origin.FullPath, "error", err)

		result.Source = source
		result.Status = m.FileFailed
		result.Err = err

		return result
	}

	if result.Status == m.FileSkipped {
		return w.removeStale(args, result)
	}

	if result.Status != m.FileGenerated {
		return result
	}

	existing, err := w.ReadFile(source.Output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		result.Status = m.FileFailed
		result.Err = fmt.Errorf("failed to read %s: %w", source.Output, err)

		return result
	}

	if bytes.Equal(existing, result.Content) {
		result.Status = m.FileUnchanged
		return result
	}

	if args.Diff {
		result.Diff = unifiedDiff(source.Output, existing, result.Content)
	}

	if args.DryRun {
		return result
	}

	if err := w.WriteFile(source.Output, result.Content, 0o644); err != nil {
		result.Status = m.FileFailed
		result.Err = fmt.Errorf("failed to write %s: %w", source.Output, err)

		return result
	}

	slog.Info("Wrote generated file", "source", source.Origin.FullPath, "output", source.Output)

	return result
}

// removeStale deletes the output of a source that no longer carries any
// annotation. Only files written by qcgen are touched.
func (w *workflow) removeStale(args GenerateArgs, result m.FileResult) m.FileResult {
	output := result.Source.Output
	if output == "" {
		return result
	}

	existing, err := w.ReadFile(output)
	if err != nil || !bytes.HasPrefix(existing, []byte(adapter.GeneratedHeader)) {
		return result
	}

	result.Status = m.FileRemoved

	if args.Diff {
		result.Diff = unifiedDiff(output, existing, nil)
	}

	if args.DryRun {
		return result
	}

	if err := w.RemoveAll(output); err != nil {
		result.Status = m.FileFailed
		result.Err = fmt.Errorf("failed to remove %s: %w", output, err)

		return result
	}

	slog.Info("Removed stale generated file", "source", result.Source.Origin.FullPath, "output", output)

	return result
}

func (w *workflow) cached(cache m.Cache, fingerprint string, source m.Source) bool {
	entry, ok := cache.Entries[source.Origin.FullPath]
	if !ok || entry.Hash != source.Origin.Hash || entry.Fingerprint != fingerprint {
		return false
	}

	if _, err := w.FileInfo(entry.Output); err != nil {
		return false
	}

	return true
}

// updateCache records clean results; sources with errors are retried on
// every run so their diagnostics stay visible.
func (w *workflow) updateCache(cache *m.Cache, args GenerateArgs, results []m.FileResult) {
	if cache.Entries == nil {
		cache.Entries = map[m.Path]m.CacheEntry{}
	}

	for _, result := range results {
		path := result.Source.Origin.FullPath

		switch {
		case result.Status == m.FileCached:
			continue
		case (result.Status == m.FileGenerated || result.Status == m.FileUnchanged) && !result.HasErrors():
			cache.Entries[path] = m.CacheEntry{
				Hash:        result.Source.Origin.Hash,
				Output:      result.Source.Output,
				Fingerprint: args.Fingerprint,
			}
		default:
			delete(cache.Entries, path)
		}
	}
}

func unifiedDiff(path m.Path, before, after []byte) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: string(path) + " (current)",
		ToFile:   string(path) + " (generated)",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		slog.Warn("Failed to diff", "path", path, "error", err)
		return ""
	}

	return text
}

// discover resolves Go-style path patterns into sources, skipping generated
// outputs and excluded paths.
func (w *workflow) discover(paths []m.Path, exclude []string) ([]m.Source, error) {
	if len(paths) == 0 {
		paths = []m.Path{"./..."}
	}

	excludes, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	seen := make(map[m.Path]struct{})

	var sources []m.Source

	add := func(path string) error {
		p := m.Path(filepath.Clean(path))
		if _, ok := seen[p]; ok || !w.isCandidate(p, excludes) {
			return nil
		}

		seen[p] = struct{}{}

		hash, err := w.HashFile(p)
		if err != nil {
			return fmt.Errorf("hash error for %s: %w", p, err)
		}

		sources = append(sources, m.Source{
			Origin: &m.File{FullPath: p, ShortPath: p, Hash: hash},
			Output: w.OutputPath(p),
		})

		return nil
	}

	for _, pattern := range paths {
		root, recursive := adapter.SplitPattern(pattern)

		info, err := w.FileInfo(root)
		if err != nil {
			return nil, fmt.Errorf("root path error: %w", err)
		}

		if !info.IsDir() {
			if err := add(string(root)); err != nil {
				return nil, err
			}

			continue
		}

		err = w.Walk(root, recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				return nil
			}

			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Origin.FullPath < sources[j].Origin.FullPath
	})

	return sources, nil
}

func (w *workflow) isCandidate(path m.Path, excludes []*regexp.Regexp) bool {
	if filepath.Ext(string(path)) != ".go" || w.IsOutput(path) {
		return false
	}

	for _, re := range excludes {
		if re.MatchString(string(path)) {
			return false
		}
	}

	return true
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	excludes := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		excludes = append(excludes, re)
	}

	return excludes, nil
}

// verify runs the generated tests of every package that received output.
// Dry runs verify inside a sandbox copy of the module.
func (w *workflow) verify(ctx context.Context, args GenerateArgs, results []m.FileResult) error {
	packages := verifyTargets(results)
	if len(packages) == 0 {
		return nil
	}

	dirs := make([]m.Path, 0, len(packages))
	for dir := range packages {
		dirs = append(dirs, dir)
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })

	mapDir := func(dir m.Path) m.Path { return dir }

	if args.DryRun {
		sandbox, cleanup, err := w.sandbox(results)
		if err != nil {
			return fmt.Errorf("prepare verification sandbox: %w", err)
		}

		defer cleanup()

		mapDir = sandbox
	}

	var mu sync.Mutex

	failed := false

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(args.Threads, 1))

	for _, dir := range dirs {
		tests := packages[dir]

		group.Go(func() error {
			run := "^(" + strings.Join(tests, "|") + ")$"
			output, err := w.RunGoTest(groupCtx, string(mapDir(dir)), ".", run)

			result := m.VerifyResult{Dir: dir, Passed: err == nil, Output: output}
			if !result.Passed {
				mu.Lock()
				failed = true
				mu.Unlock()
				slog.Error("Verification failed", "dir", dir, "error", err)
			}

			w.DisplayVerifyResult(ctx, result)

			return nil
		})
	}

	_ = group.Wait()

	if failed {
		return ErrVerifyFailed
	}

	return nil
}

func verifyTargets(results []m.FileResult) map[m.Path][]string {
	packages := make(map[m.Path][]string)

	for _, result := range results {
		if result.Status != m.FileGenerated && result.Status != m.FileUnchanged {
			continue
		}

		dir := m.Path(filepath.Dir(string(result.Source.Output)))

		for _, e := range result.Expansions {
			if e.TestName != "" {
				packages[dir] = append(packages[dir], regexp.QuoteMeta(e.TestName))
			}
		}
	}

	return packages
}

// sandbox copies the module that holds the generated files into a temporary
// directory and writes the generated content there.
func (w *workflow) sandbox(results []m.FileResult) (func(m.Path) m.Path, func(), error) {
	var first m.Path

	for _, result := range results {
		if len(result.Content) > 0 {
			first = result.Source.Output
			break
		}
	}

	root, err := w.FindProjectRoot(first)
	if err != nil {
		return nil, nil, err
	}

	tmp, err := w.CreateTempDir("qcgen-verify-*")
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := w.RemoveAll(tmp); err != nil {
			slog.Warn("Failed to remove sandbox", "path", tmp, "error", err)
		}
	}

	if err := w.CopyDir(root, tmp); err != nil {
		cleanup()
		return nil, nil, err
	}

	relocate := func(path m.Path) (m.Path, error) {
		abs, err := filepath.Abs(string(path))
		if err != nil {
			return "", err
		}

		rel, err := w.RelPath(root, m.Path(abs))
		if err != nil {
			return "", err
		}

		return w.JoinPath(string(tmp), string(rel)), nil
	}

	for _, result := range results {
		if result.Status == m.FileRemoved {
			target, err := relocate(result.Source.Output)
			if err == nil {
				err = w.RemoveAll(target)
			}

			if err != nil {
				cleanup()
				return nil, nil, err
			}

			continue
		}

		if len(result.Content) == 0 {
			continue
		}

		target, err := relocate(result.Source.Output)
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		if err := w.WriteFile(target, result.Content, 0o644); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	mapDir := func(dir m.Path) m.Path {
		target, err := relocate(dir)
		if err != nil {
			return dir
		}

		return target
	}

	return mapDir, cleanup, nil
}
