// Package driver implements spec.md §4.4: the top-level orchestration that
// runs each configured Pass to a fixed point across every discovered file.
// Grounded on original_source/src/processor/mod.rs's Minimizer
// (run_passes/run_pass/process_file), generalized here to take an ordered
// []reduce.Pass instead of a single hardcoded pass list, and on the
// teacher's pkg/framework/runner.go for the span-per-stage, slog-per-step
// orchestration idiom.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shrinklab/minimize/internal/corekind"
	"github.com/shrinklab/minimize/internal/discover"
	"github.com/shrinklab/minimize/internal/observability"
	"github.com/shrinklab/minimize/internal/passctl"
	"github.com/shrinklab/minimize/internal/reduce"
	"github.com/shrinklab/minimize/internal/sourcefile"
	"github.com/shrinklab/minimize/internal/syntax"
	"github.com/shrinklab/minimize/internal/verify"
	"github.com/shrinklab/minimize/pkg/toposort"
)

// Driver orchestrates a full reduction run over one project directory.
type Driver struct {
	ProjectDir string
	Registry   *syntax.Registry
	Verifier   verify.Verifier
	Passes     []reduce.Pass

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.PassMetrics

	files map[string]*sourcefile.SourceFile

	// Log accumulates byte-size samples, one at each pass boundary, for the report command's
	// chart (SPEC_FULL.md DOMAIN STACK: go-echarts progress report).
	Log RunLog
}

// New builds a Driver. passes is taken as given; callers that want
// dependency-aware ordering should pass the result of OrderPasses.
func New(projectDir string, registry *syntax.Registry, verifier verify.Verifier, passes []reduce.Pass, logger *slog.Logger, tracer trace.Tracer, metrics *observability.PassMetrics) *Driver {
	if logger == nil {
		logger = slog.Default()
	}

	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("minimize")
	}

	return &Driver{
		ProjectDir: projectDir,
		Registry:   registry,
		Verifier:   verifier,
		Passes:     passes,
		Logger:     logger,
		Tracer:     tracer,
		Metrics:    metrics,
		files:      make(map[string]*sourcefile.SourceFile),
	}
}

// OrderPasses topologically sorts passes by their declared dependencies
// (reduce.DependencySource), using pkg/toposort, reused here unmodified as
// the teacher's string-keyed DAG primitive rather than reimplemented.
func OrderPasses(passes []reduce.Pass) ([]reduce.Pass, error) {
	byName := make(map[string]reduce.Pass, len(passes))
	graph := toposort.NewGraph()

	for _, p := range passes {
		byName[p.Name()] = p
		graph.AddNode(p.Name())
	}

	for _, p := range passes {
		src, ok := p.(reduce.DependencySource)
		if !ok {
			continue
		}

		for _, dep := range src.DependsOn() {
			graph.AddEdge(dep, p.Name())
		}
	}

	names, ok := graph.Toposort()
	if !ok {
		return nil, fmt.Errorf("pass dependency graph has a cycle")
	}

	ordered := make([]reduce.Pass, 0, len(names))
	for _, name := range names {
		if p, ok := byName[name]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// RunPasses implements Minimizer::run_passes (spec.md §4.4): verify the
// untouched project reproduces the issue, discover files, then run every
// pass in order to its own fixed point.
func (d *Driver) RunPasses(ctx context.Context) error {
	ctx, span := d.Tracer.Start(ctx, "driver.RunPasses")
	defer span.End()

	reproduces, err := d.Verifier.Reproduces(ctx, d.ProjectDir)
	if err != nil {
		return d.fail(span, fmt.Errorf("verifying initial project: %w", err))
	}

	if !reproduces {
		return d.fail(span, corekind.ErrDoesNotReproduce)
	}

	paths, err := discover.Files(d.ProjectDir, d.Registry.Extensions())
	if err != nil {
		return d.fail(span, err)
	}

	d.Log.record(projectSize(paths))

	for _, pass := range d.Passes {
		if err := ctx.Err(); err != nil {
			return d.fail(span, fmt.Errorf("%w: %w", corekind.ErrCancelled, err))
		}

		if err := d.runPass(ctx, pass, paths); err != nil {
			return d.fail(span, err)
		}

		d.Log.record(projectSize(paths))
	}

	return nil
}

func (d *Driver) fail(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())

	return err
}

// runPass implements Minimizer::run_pass: repeat a full sweep over every
// file until a sweep produces no committed change, with one allowance to
// refresh the pass's view of the world and retry once more if any file
// was invalidated mid-sweep (original_source: refresh_and_try_again).
func (d *Driver) runPass(ctx context.Context, pass reduce.Pass, paths []string) error {
	ctx, span := d.Tracer.Start(ctx, "driver.runPass", trace.WithAttributes(attribute.String("pass", pass.Name())))
	defer span.End()

	refreshedAndTryAgain := false

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", corekind.ErrCancelled, err)
		}

		changes := sourcefile.NewChanges()
		invalidated := make(map[string]bool)

		for _, path := range paths {
			if err := d.processFile(ctx, pass, path, changes, invalidated); err != nil {
				return err
			}
		}

		if changes.HadChanges() {
			refreshedAndTryAgain = false

			continue
		}

		if len(invalidated) > 0 && !refreshedAndTryAgain {
			if err := pass.RefreshState(ctx); err != nil {
				return fmt.Errorf("refreshing pass %s state: %w", pass.Name(), err)
			}

			refreshedAndTryAgain = true

			continue
		}

		d.Logger.InfoContext(ctx, "pass reached fixed point", slog.String("pass", pass.Name()), slog.Int("rounds", round+1))

		return nil
	}
}

// processFile implements Minimizer::process_file: drive one
// passctl.Controller across repeated trials against a single file until it
// reports finished.
func (d *Driver) processFile(ctx context.Context, pass reduce.Pass, path string, changes *sourcefile.Changes, invalidated map[string]bool) error {
	file, err := d.openFile(ctx, path)
	if err != nil {
		return err
	}

	controller := passctl.New()

	for !controller.IsFinished() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", corekind.ErrCancelled, err)
		}

		start := time.Now()

		change := file.TryChange(changes)

		beforeText, _ := change.BeforeContent()

		workTree, err := file.Parser().Parse(ctx, beforeText)
		if err != nil {
			_ = change.Close(true)

			return fmt.Errorf("re-parsing %s for trial: %w", path, err)
		}

		state, err := pass.ProcessFile(ctx, workTree, change, controller)
		if err != nil {
			_ = change.Close(true)

			return fmt.Errorf("pass %s on %s: %w", pass.Name(), path, err)
		}

		switch state {
		case reduce.NoChange:
			_ = change.Close(false)
			controller.NoChange()
			d.recordTrial(ctx, pass.Name(), "no_change", start)

		case reduce.FileInvalidated:
			_ = change.Close(false)
			invalidated[path] = true
			controller.NoChange()
			d.recordTrial(ctx, pass.Name(), "file_invalidated", start)

			return nil

		case reduce.Changed:
			if err := d.decideTrial(ctx, pass.Name(), path, change, controller, start); err != nil {
				return err
			}
		}
	}

	return nil
}

// decideTrial verifies a written trial and drives the controller and
// FileChange's commit/rollback accordingly. The verifier is re-invoked on
// every call, unconditionally: spec.md §6 requires it be run after every
// committed or tentative write, and §5's "write-before-verify-before-decide
// is mandatory" rules out deciding from any cached answer, since the
// project's current condition (other files committed since an earlier
// trial with the same controller.Signature(), or this file's own later
// edits) is not captured by a per-file subset signature alone.
func (d *Driver) decideTrial(ctx context.Context, passName, path string, change *sourcefile.FileChange, controller *passctl.Controller, start time.Time) error {
	beforeText, _ := change.BeforeContent()

	d.Logger.DebugContext(ctx, "verifying trial",
		slog.String("pass", passName), slog.String("path", path), slog.String("signature", controller.Signature()))

	reproduces, err := d.Verifier.Reproduces(ctx, d.ProjectDir)
	if err != nil {
		_ = change.Close(true)

		if d.Metrics != nil {
			d.Metrics.RecordVerifierError(ctx, passName)
		}

		return fmt.Errorf("verifying trial on %s: %w", change.Path(), err)
	}

	if reproduces {
		if err := change.Commit(); err != nil {
			return err
		}

		controller.Reproduces()
		d.recordTrial(ctx, passName, "reproduces", start)

		if f, ok := d.files[path]; ok && d.Metrics != nil {
			d.Metrics.RecordBytesReduced(ctx, passName, int64(len(beforeText)-len(f.Text())))
		}

		return nil
	}

	if err := change.Rollback(ctx); err != nil {
		return err
	}

	controller.DoesNotReproduce()
	d.recordTrial(ctx, passName, "does_not_reproduce", start)

	return nil
}

func (d *Driver) recordTrial(ctx context.Context, pass, result string, start time.Time) {
	if d.Metrics == nil {
		return
	}

	d.Metrics.RecordTrial(ctx, pass, result, time.Since(start))
}

// openFile returns the cached SourceFile for path, opening it on first
// use. Kept open for the whole run so edits accumulate across passes and
// rounds, matching original_source's single long-lived SourceFile per path.
func (d *Driver) openFile(ctx context.Context, path string) (*sourcefile.SourceFile, error) {
	if f, ok := d.files[path]; ok {
		return f, nil
	}

	ext := extOf(path)

	binding, err := d.Registry.ForExtension(ext)
	if err != nil {
		return nil, err
	}

	f, err := sourcefile.Open(ctx, path, binding.Parser, binding.Formatter)
	if err != nil {
		return nil, err
	}

	d.files[path] = f

	return f, nil
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}

		if path[i] == '/' {
			break
		}
	}

	return ""
}

// projectSize sums the current on-disk size of paths, for RunLog's
// per-pass byte-size trend (best-effort: a file that errors is skipped).
func projectSize(paths []string) int64 {
	var total int64

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}

		total += info.Size()
	}

	return total
}
