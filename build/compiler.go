// Package build runs the compiler core over a set of source files: local
// resolution, publishing, linking and lowering, each phase running its files
// concurrently.
package build

import (
	"context"
	"sync"

	"github.com/google/uuid"
	llir "github.com/llir/llvm/ir"

	"lc/config"
	"lc/depm"
	"lc/generate"
	"lc/ir"
	"lc/irpass"
	"lc/lower"
	"lc/report"
	"lc/resolve"
)

// Result is the outcome of compiling a set of files.  Bundles and Modules are
// indexed like the compiled files: entries are nil for files that produced no
// IR.
type Result struct {
	// Session identifies the compilation in log output.
	Session uuid.UUID

	Bundles []*ir.Bundle

	// Modules holds the LLVM modules generated when the options request it.
	Modules []*llir.Module

	// Diagnostics are all the errors and notes produced, ordered by phase and
	// then by file.
	Diagnostics []error

	// Succeeded is true if no diagnostic is fatal.
	Succeeded bool
}

// Bundle returns the bundle lowered from the file named filename.
func (r *Result) Bundle(filename string) (*ir.Bundle, bool) {
	for _, b := range r.Bundles {
		if b != nil && b.File == filename {
			return b, true
		}
	}

	return nil, false
}

// -----------------------------------------------------------------------------

// Enumeration of the phases diagnostics are collected for.
const (
	phaseLocal = iota
	phaseLink
	phaseLower
	phaseCount
)

// Compiler compiles sets of source files with a fixed set of options.  A
// compiler may be reused but not for concurrent compilations.
type Compiler struct {
	opts     *config.Options
	reporter *report.Reporter

	// m guards the results of the lowering phase.
	m sync.Mutex

	// diags holds the diagnostics of each phase for each file.  Each entry is
	// only written by the goroutine processing its file.
	diags [phaseCount][]report.ErrorList
}

// NewCompiler creates a new compiler.  Diagnostics are displayed through a
// reporter using the log level of the options.
func NewCompiler(opts *config.Options) *Compiler {
	return &Compiler{
		opts:     opts,
		reporter: report.NewReporter(opts.ReporterLevel()),
	}
}

// Compile compiles files.  The local phase resolves every file and publishes
// its declarations; once all files have been published, their proxies are
// linked.  A fatal error in either phase cancels the compilation before
// anything is lowered.  The returned error is only set if ctx is cancelled:
// compile errors are reported in the result.
func (c *Compiler) Compile(ctx context.Context, files []*depm.SourceFile) (*Result, error) {
	res := &Result{
		Session: uuid.New(),
		Bundles: make([]*ir.Bundle, len(files)),
	}

	if c.opts.EmitLLVM {
		res.Modules = make([]*llir.Module, len(files))
	}

	for phase := range c.diags {
		c.diags[phase] = make([]report.ErrorList, len(files))
	}

	c.reporter.ReportPhase("Compiling", "session %s: %d files", res.Session, len(files))

	phaseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	linker := resolve.NewLinker()

	// Local phase: resolution then publishing.  Waiting for every file acts as
	// the barrier before linking.
	c.forEach(phaseCtx, files, func(i int, file *depm.SourceFile) {
		c.record(phaseLocal, i, resolve.ResolveLocal(file), cancel)
		c.record(phaseLocal, i, linker.Publish(file), cancel)
	})

	if phaseCtx.Err() == nil {
		c.forEach(phaseCtx, files, func(i int, file *depm.SourceFile) {
			c.record(phaseLink, i, linker.Link(file), cancel)
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A cancelled phase context now means a fatal error was recorded.
	if phaseCtx.Err() == nil {
		c.reporter.ReportPhase("Lowering", "session %s", res.Session)
		c.lowerAll(ctx, files, res)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	c.finish(res)
	return res, nil
}

// lowerAll lowers every file concurrently and stores the results.
func (c *Compiler) lowerAll(ctx context.Context, files []*depm.SourceFile, res *Result) {
	opts := lower.Options{ContinueOnError: c.opts.ContinueOnError}

	c.forEach(ctx, files, func(i int, file *depm.SourceFile) {
		bundle, err := lower.LowerFile(file, opts)
		c.record(phaseLower, i, err, nil)

		if bundle == nil || report.IsFatal(err) && !c.opts.ContinueOnError {
			return
		}

		for j, u := range bundle.Units {
			if c.opts.FoldConstants {
				u = irpass.FoldConstants(u)
				bundle.Units[j] = u
			}

			if c.opts.VerifyIR {
				c.record(phaseLower, i, irpass.Verify(u), nil)
			}
		}

		var mod *llir.Module
		if c.opts.EmitLLVM {
			mod, err = generate.Generate(bundle)
			c.record(phaseLower, i, err, nil)
		}

		c.m.Lock()
		defer c.m.Unlock()

		res.Bundles[i] = bundle
		if mod != nil {
			res.Modules[i] = mod
		}
	})

	// Without partial IR, one failing file discards the output of all files.
	if !c.opts.RetainPartialIR {
		for _, errs := range c.diags[phaseLower] {
			if report.IsFatal(errs.Err()) {
				for i := range res.Bundles {
					res.Bundles[i] = nil
				}

				res.Modules = nil
				break
			}
		}
	}
}

// forEach calls fn for every file using at most the configured number of
// workers and waits for all calls to return.  No new call is started once ctx
// is done.
func (c *Compiler) forEach(ctx context.Context, files []*depm.SourceFile, fn func(int, *depm.SourceFile)) {
	sem := make(chan struct{}, c.opts.Workers)
	wg := &sync.WaitGroup{}

loop:
	for i, file := range files {
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, file *depm.SourceFile) {
			defer func() {
				<-sem
				wg.Done()
			}()

			fn(i, file)
		}(i, file)
	}

	wg.Wait()
}

// record stores the diagnostics of file i for phase.  A fatal error calls
// abort if it is not nil.
func (c *Compiler) record(phase, i int, err error, abort context.CancelFunc) {
	if err == nil {
		return
	}

	c.diags[phase][i].Add(err)

	if abort != nil && report.IsFatal(err) {
		abort()
	}
}

// finish collects and reports the diagnostics of every phase.
func (c *Compiler) finish(res *Result) {
	for _, perFile := range c.diags {
		for _, errs := range perFile {
			res.Diagnostics = append(res.Diagnostics, errs...)
		}
	}

	res.Succeeded = true
	for _, err := range res.Diagnostics {
		c.reporter.ReportCompileError(err)

		if report.IsFatal(err) {
			res.Succeeded = false
		}
	}
}
