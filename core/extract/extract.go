// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package extract finds the message keys used in Go source and writes catalog
skeletons for translators.

It recognises the same call sites as package inline, plus conversions to an
i18n package's MsgKey type, whose lookups happen at run time.
*/
package extract

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/tools/go/packages"

	"codeberg.org/pixivfe/msginline/core/audit"
	"codeberg.org/pixivfe/msginline/core/inline"
)

var errPackageErrors = errors.New("packages contain errors")

// Ref is a source position that uses a key.
type Ref struct {
	File string // slash-separated, relative to the project root
	Line int
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.File, r.Line)
}

// Entry is one extracted key.
type Entry struct {
	Key  string
	Refs []Ref

	// Args are the value names passed alongside the key, sorted.
	Args []string
}

// Options configures [Scan].
type Options struct {
	Dir          string
	Patterns     []string
	Tags         []string
	Tests        bool
	FunctionName string
}

// Scan loads the packages and returns their keys sorted by key.
func Scan(ctx context.Context, opts Options) ([]Entry, error) {
	fn, err := inline.ParseFunc(opts.FunctionName)
	if err != nil {
		return nil, err
	}

	if opts.Dir == "" {
		opts.Dir = "."
	}

	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports,
		Context: ctx,
		Dir:     dir,
		Tests:   opts.Tests,
	}

	if len(opts.Tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(opts.Tags, ",")}
	}

	span := audit.Span{Stage: audit.StageExtract}
	cfg.Context = span.Begin(ctx)

	defer span.Log()

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		span.Error = err

		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	span.Files = len(pkgs)

	if n := packages.PrintErrors(pkgs); n > 0 {
		return nil, fmt.Errorf("%w: %d error(s)", errPackageErrors, n)
	}

	root := nearestGoModDir(dir)
	if root == "" {
		root = dir
	}

	entries := extractRefs(pkgs, root, fn)

	log.Debug().
		Str("sys", "extract").
		Int("packages", len(pkgs)).
		Int("keys", len(entries)).
		Msg("Scanned packages")

	return entries, nil
}

// extractor holds the shared state and context for AST analysis within a package.
type extractor struct {
	entries     map[string]*Entry
	args        map[string]map[string]struct{}
	projectRoot string
	fset        *token.FileSet
	info        *types.Info
	fn          inline.Func
}

// extractRefs traverses all Go source files in the given packages, looking for
// translation calls and MsgKey conversions.
func extractRefs(pkgs []*packages.Package, projectRoot string, fn inline.Func) []Entry {
	e := &extractor{
		entries:     map[string]*Entry{},
		args:        map[string]map[string]struct{}{},
		projectRoot: projectRoot,
		fn:          fn,
	}

	for _, p := range pkgs {
		if p.TypesInfo == nil {
			continue
		}

		e.fset, e.info = p.Fset, p.TypesInfo

		for _, f := range p.Syntax {
			ast.Inspect(f, func(n ast.Node) bool {
				if x, ok := n.(*ast.CallExpr); ok {
					e.handleCallExpr(x)
				}

				return true
			})
		}
	}

	return e.sorted()
}

// handleCallExpr records translation calls and i18n.MsgKey("...") conversions.
func (e *extractor) handleCallExpr(x *ast.CallExpr) {
	// A call expression whose Fun is a type is a conversion.
	if tv, ok := e.info.Types[x.Fun]; ok && tv.IsType() {
		if len(x.Args) == 1 && isMsgKey(tv.Type) {
			if msg, ok := constString(e.info, x.Args[0]); ok {
				e.addRef(x.Args[0].Pos(), msg, nil)
			}
		}

		return
	}

	if !e.fn.Matches(x, e.info) || len(x.Args) == 0 || len(x.Args) > 2 {
		return
	}

	msg, ok := constString(e.info, x.Args[0])
	if !ok {
		return
	}

	var args []string

	if len(x.Args) == 2 {
		if lit, ok := ast.Unparen(x.Args[1]).(*ast.CompositeLit); ok {
			args = e.argNames(lit)
		}
	}

	e.addRef(x.Args[0].Pos(), msg, args)
}

func (e *extractor) argNames(lit *ast.CompositeLit) []string {
	var names []string

	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}

		if s, ok := constString(e.info, kv.Key); ok {
			names = append(names, s)
		} else if id, ok := kv.Key.(*ast.Ident); ok {
			names = append(names, id.Name)
		}
	}

	return names
}

// addRef records a reference to a key, normalising the file path relative to
// the project root.
func (e *extractor) addRef(pos token.Pos, msg string, args []string) {
	p := e.fset.Position(pos)

	file := p.Filename
	if rel, err := filepath.Rel(e.projectRoot, file); err == nil {
		file = rel
	}

	entry, ok := e.entries[msg]
	if !ok {
		entry = &Entry{Key: msg}
		e.entries[msg] = entry
		e.args[msg] = map[string]struct{}{}
	}

	entry.Refs = append(entry.Refs, Ref{File: filepath.ToSlash(file), Line: p.Line})

	for _, a := range args {
		e.args[msg][a] = struct{}{}
	}
}

// sorted returns entries by key, with references sorted and deduplicated.
func (e *extractor) sorted() []Entry {
	out := make([]Entry, 0, len(e.entries))

	for k, entry := range e.entries {
		sort.Slice(entry.Refs, func(i, j int) bool {
			if entry.Refs[i].File != entry.Refs[j].File {
				return entry.Refs[i].File < entry.Refs[j].File
			}

			return entry.Refs[i].Line < entry.Refs[j].Line
		})

		// After sorting by file and line, duplicates are adjacent.
		refs := entry.Refs[:0]
		for i, r := range entry.Refs {
			if i == 0 || r != entry.Refs[i-1] {
				refs = append(refs, r)
			}
		}

		entry.Refs = refs

		for a := range e.args[k] {
			entry.Args = append(entry.Args, a)
		}

		sort.Strings(entry.Args)

		out = append(out, *entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

// constString evaluates expr to a constant string if possible using types.Info.
// Handles string literals, const identifiers, and constant expressions like "a" + "b".
func constString(info *types.Info, expr ast.Expr) (string, bool) {
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}

	return constant.StringVal(tv.Value), true
}

// isMsgKey reports whether t is the named type MsgKey of a package named i18n
// with string as its underlying type, regardless of how that package is
// imported or aliased.
func isMsgKey(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()
	if obj == nil || obj.Pkg() == nil || obj.Pkg().Name() != "i18n" || obj.Name() != "MsgKey" {
		return false
	}

	basic, ok := named.Underlying().(*types.Basic)

	return ok && basic.Kind() == types.String
}

// nearestGoModDir walks up from start to the first directory containing go.mod.
func nearestGoModDir(start string) string {
	dir := filepath.Clean(start)

	for {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}
