package resolve

import (
	"fmt"
	"sync"

	"lc/ast"
	"lc/depm"
	"lc/report"
)

// publishedDecl is an object declaration made visible to other files.
type publishedDecl struct {
	file *depm.SourceFile
	decl *ast.ObjectDecl
}

// Linker resolves the proxies of a set of source files.  Every file publishes
// its flattened declarations exactly once after its local resolution: a proxy
// can only be resolved against declarations that have been published.
type Linker struct {
	m sync.RWMutex

	// decls maps full names to published declarations.
	decls map[string]publishedDecl

	// published is the set of files that have been published.
	published map[*depm.SourceFile]struct{}
}

// NewLinker creates a new linker with nothing published.
func NewLinker() *Linker {
	return &Linker{
		decls:     make(map[string]publishedDecl),
		published: make(map[*depm.SourceFile]struct{}),
	}
}

// Publish makes the flattened object declarations of file visible to the
// proxies of other files.  The declaration table is built before the linker is
// locked so that publishing is the only point at which the file is shared.
func (l *Linker) Publish(file *depm.SourceFile) error {
	type entry struct {
		fullName string
		decl     *ast.ObjectDecl
	}

	decls := file.ObjectDecls()
	entries := make([]entry, len(decls))
	for i, od := range decls {
		entries[i] = entry{fullName: file.FullName(od), decl: od}
	}

	l.m.Lock()
	defer l.m.Unlock()

	if _, ok := l.published[file]; ok {
		return fmt.Errorf("file `%s` published twice", file.Filename)
	}
	l.published[file] = struct{}{}

	var errs report.ErrorList
	for _, e := range entries {
		if prev, ok := l.decls[e.fullName]; ok {
			errs.Add(report.NewDuplicateBinding(file.Filename, e.decl.Span(), e.fullName, prev.decl.Span()))
			continue
		}

		l.decls[e.fullName] = publishedDecl{file: file, decl: e.decl}
	}

	return errs.Err()
}

// IsPublished returns whether file has been published.
func (l *Linker) IsPublished(file *depm.SourceFile) bool {
	l.m.RLock()
	defer l.m.RUnlock()

	_, ok := l.published[file]
	return ok
}

// Link resolves every proxy of file against the published declarations.  A
// proxy whose import path names no published declaration is an unresolved
// proxy error.  Proxies are only resolved if all of them can be.
func (l *Linker) Link(file *depm.SourceFile) error {
	l.m.RLock()
	defer l.m.RUnlock()

	var errs report.ErrorList
	targets := make([]publishedDecl, len(file.Proxies))
	for i, p := range file.Proxies {
		path := depm.Normalize(p.Import.Path)

		pd, ok := l.decls[path]
		if !ok {
			errs.Add(report.NewUnresolvedProxy(file.Filename, p.Import.Span(), p.Import.Path, "no published declaration has this name"))
			continue
		}

		if pd.file == file {
			errs.Add(report.NewUnresolvedProxy(file.Filename, p.Import.Span(), p.Import.Path, "a file cannot import its own declarations"))
			continue
		}

		targets[i] = pd
	}

	if err := errs.Err(); err != nil {
		return err
	}

	for i, p := range file.Proxies {
		p.Resolve(targets[i].file, targets[i].decl, depm.Normalize(p.Import.Path))
	}

	return nil
}
