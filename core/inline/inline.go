// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package inline replaces translation calls with their formatted messages.

Given type-checked syntax, an [Inliner] finds calls such as

	__("greeting")
	__("inbox.count", map[string]any{"count": 3})
	__("welcome", i18n.Values{"name": "Ann"})

resolves the key against the locale's message table, formats the message with the
constant values found in the composite literal, and produces an [Edit] that replaces
the whole call with a quoted string literal. Calls whose key is not a constant string,
whose second argument is not a composite literal, or that take any other number of
arguments are left alone.

Keys without a message are replaced by the key itself and reported through a
[MissingLocalizationError], as a warning or, with [Options.FailOnMissing], an error.

A call that holds the last use of a local variable is left alone and reported as
an error, since dropping its non-constant values would leave the variable unused.
*/
package inline

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/tools/go/ast/astutil"

	"codeberg.org/pixivfe/msginline/core/catalog"
	"codeberg.org/pixivfe/msginline/core/msgformat"
)

// DefaultFunctionName is the translation function matched when none is configured.
const DefaultFunctionName = "__"

var (
	errInvalidFunctionName = errors.New("invalid translation function name")
	errLastLocalUse        = errors.New("call holds the last use of local variable")
)

// Options configures an [Inliner].
type Options struct {
	// FunctionName is the translation function to match, either a bare name
	// ("__", "T") or a package-qualified one ("example.com/app/i18n.T").
	// A bare name matches any function or method of that name.
	FunctionName string

	// CustomFormats are passed to the message formatter.
	CustomFormats *msgformat.Formats

	// FailOnMissing files missing localizations as errors instead of warnings.
	FailOnMissing bool

	// CacheSize bounds the parsed message cache. Zero selects the formatter default.
	CacheSize int
}

// Inliner rewrites translation calls for one locale. It is safe for concurrent use.
type Inliner struct {
	locale        string
	messages      catalog.Table
	fn            Func
	failOnMissing bool
	compiler      *msgformat.Compiler
	logger        zerolog.Logger
}

// New returns an Inliner that resolves keys against languages[locale].
// A locale absent from languages gets an empty table, so every call reports a
// missing localization.
func New(locale string, languages catalog.Languages, opts Options) (*Inliner, error) {
	fn, err := ParseFunc(opts.FunctionName)
	if err != nil {
		return nil, err
	}

	compiler, err := msgformat.NewCompiler(opts.CacheSize, opts.CustomFormats)
	if err != nil {
		return nil, fmt.Errorf("invalid custom formats: %w", err)
	}

	if canonical, err := catalog.Canonical(locale); err == nil {
		locale = canonical
	}

	return &Inliner{
		locale:        locale,
		messages:      languages.Table(locale),
		fn:            fn,
		failOnMissing: opts.FailOnMissing,
		compiler:      compiler,
		logger:        log.With().Str("sys", "inline").Str("locale", locale).Logger(),
	}, nil
}

// Func identifies the translation function.
type Func struct {
	PkgPath string // empty matches a function or method of that name in any package
	Name    string
}

// ParseFunc parses a configured function name, either a bare identifier ("__",
// "T") or a package-qualified one ("example.com/app/i18n.T"). An empty name
// selects [DefaultFunctionName].
func ParseFunc(s string) (Func, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Func{Name: DefaultFunctionName}, nil
	}

	f := Func{Name: s}

	// The package path may itself contain dots ("example.com/x"), so only a dot
	// after the last slash separates the identifier.
	slash := strings.LastIndex(s, "/")
	if dot := strings.LastIndex(s, "."); dot > slash {
		f.PkgPath, f.Name = s[:dot], s[dot+1:]
		if f.PkgPath == "" {
			return Func{}, fmt.Errorf("%w %q", errInvalidFunctionName, s)
		}
	}

	if !token.IsIdentifier(f.Name) {
		return Func{}, fmt.Errorf("%w %q", errInvalidFunctionName, s)
	}

	return f, nil
}

func (f Func) String() string {
	if f.PkgPath == "" {
		return f.Name
	}

	return f.PkgPath + "." + f.Name
}

// Matches reports whether call targets f and returns a single string.
func (f Func) Matches(call *ast.CallExpr, info *types.Info) bool {
	var id *ast.Ident

	switch fn := ast.Unparen(call.Fun).(type) {
	case *ast.Ident:
		id = fn
	case *ast.SelectorExpr:
		id = fn.Sel
	default:
		return false
	}

	if id.Name != f.Name {
		return false
	}

	if f.PkgPath != "" {
		obj := info.Uses[id]
		if obj == nil || obj.Pkg() == nil || obj.Pkg().Path() != f.PkgPath {
			return false
		}
	}

	t := info.TypeOf(call.Fun)
	if t == nil {
		return false
	}

	sig, ok := t.Underlying().(*types.Signature)
	if !ok || sig.Results().Len() != 1 {
		return false
	}

	return types.Identical(sig.Results().At(0).Type(), types.Typ[types.String])
}

// Locale returns the canonical locale this Inliner formats for.
func (in *Inliner) Locale() string { return in.locale }

// Edit replaces the source range [Offset, EndOffset) of a file with Text.
type Edit struct {
	Pos       token.Pos
	End       token.Pos
	Offset    int
	EndOffset int
	Key       string
	Text      string // a Go string literal
}

// FileResult is the outcome of inlining one file.
type FileResult struct {
	Filename string
	Edits    []Edit // sorted by Offset

	// UnusedImports lists import paths whose every use sits inside a replaced call.
	UnusedImports []string

	Report *Report
}

// InlineFile computes the edits for file. info must hold Types, Uses, Defs and
// Implicits for file.
func (in *Inliner) InlineFile(fset *token.FileSet, file *ast.File, info *types.Info) *FileResult {
	tf := fset.File(file.Pos())
	res := &FileResult{Filename: tf.Name(), Report: &Report{File: tf.Name()}}

	astutil.Apply(file, func(c *astutil.Cursor) bool {
		call, ok := c.Node().(*ast.CallExpr)
		if !ok || !in.fn.Matches(call, info) || !replaceable(c.Parent()) {
			return true
		}

		edit, ok := in.inlineCall(fset, call, info, res.Report)
		if !ok {
			return true
		}

		edit.Offset, edit.EndOffset = tf.Offset(edit.Pos), tf.Offset(edit.End)
		res.Edits = append(res.Edits, edit)

		// Nested calls are covered by this edit.
		return false
	}, nil)

	sort.Slice(res.Edits, func(i, j int) bool { return res.Edits[i].Offset < res.Edits[j].Offset })
	res.Edits = keepLocalsUsed(fset, file, info, res.Edits, res.Report)
	res.UnusedImports = unusedImports(file, info, res.Edits)

	return res
}

// replaceable reports whether a call under parent may become a bare literal.
func replaceable(parent ast.Node) bool {
	switch parent.(type) {
	case *ast.ExprStmt, *ast.GoStmt, *ast.DeferStmt:
		return false
	default:
		return true
	}
}

func (in *Inliner) inlineCall(fset *token.FileSet, call *ast.CallExpr, info *types.Info, report *Report) (Edit, bool) {
	var values map[string]any

	if call.Ellipsis.IsValid() {
		return Edit{}, false
	}

	switch len(call.Args) {
	case 2:
		lit, ok := ast.Unparen(call.Args[1]).(*ast.CompositeLit)
		if !ok {
			return Edit{}, false
		}

		values = objectValues(info, lit)
	case 1:
	default:
		return Edit{}, false
	}

	key, ok := constString(info, call.Args[0])
	if !ok {
		return Edit{}, false
	}

	pos := fset.Position(call.Pos())
	result := key

	if msg, found := in.messages.Lookup(key); found {
		out, err := in.compiler.Format(msg, in.locale, values)
		if err != nil {
			report.addError(pos, fmt.Errorf("cannot format %q for %s: %w", key, in.locale, err))
			return Edit{}, false
		}

		result = out
	} else {
		report.addMissing(pos, key, values, in.failOnMissing)
	}

	in.logger.Debug().
		Str("pos", pos.String()).
		Str("key", key).
		Msg("Inlined message")

	return Edit{Pos: call.Pos(), End: call.End(), Key: key, Text: strconv.Quote(result)}, true
}

// objectValues extracts constant string and number properties from lit.
// Other properties are skipped. The result is never nil.
func objectValues(info *types.Info, lit *ast.CompositeLit) map[string]any {
	values := make(map[string]any, len(lit.Elts))

	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}

		name, ok := propertyName(info, kv.Key)
		if !ok {
			continue
		}

		if v, ok := constValue(info, kv.Value); ok {
			values[name] = v
		}
	}

	return values
}

// propertyName resolves a composite literal key: a constant string for map
// literals, or the identifier itself for struct fields.
func propertyName(info *types.Info, key ast.Expr) (string, bool) {
	if s, ok := constString(info, key); ok {
		return s, true
	}

	if id, ok := key.(*ast.Ident); ok {
		return id.Name, true
	}

	return "", false
}

// constString evaluates expr to a constant string using types.Info.
// Handles string literals, const identifiers and constant expressions like "a" + "b".
func constString(info *types.Info, expr ast.Expr) (string, bool) {
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}

	return constant.StringVal(tv.Value), true
}

// constValue returns expr's constant value when it is a string or a number.
func constValue(info *types.Info, expr ast.Expr) (any, bool) {
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil {
		return nil, false
	}

	switch v := tv.Value; v.Kind() {
	case constant.String:
		return constant.StringVal(v), true
	case constant.Int:
		if i, exact := constant.Int64Val(v); exact {
			return i, true
		}

		f, _ := constant.Float64Val(v)

		return f, true
	case constant.Float:
		f, _ := constant.Float64Val(v)
		return f, true
	default:
		return nil, false
	}
}

// keepLocalsUsed drops every edit that would remove the last remaining use of a
// local variable declared outside the call, since the rewritten function would
// no longer compile. Each dropped call is filed as an error and left as is.
func keepLocalsUsed(fset *token.FileSet, file *ast.File, info *types.Info, edits []Edit, report *Report) []Edit {
	if len(edits) == 0 {
		return edits
	}

	// Parameters, receivers and named results may go unused.
	params := map[*types.Var]bool{}

	ast.Inspect(file, func(n ast.Node) bool {
		var lists []*ast.FieldList

		switch fn := n.(type) {
		case *ast.FuncDecl:
			lists = append(lists, fn.Recv)
		case *ast.FuncType:
			lists = append(lists, fn.Params, fn.Results)
		default:
			return true
		}

		for _, list := range lists {
			if list == nil {
				continue
			}

			for _, field := range list.List {
				for _, name := range field.Names {
					if v, ok := info.Defs[name].(*types.Var); ok {
						params[v] = true
					}
				}
			}
		}

		return true
	})

	uses := map[*types.Var][]token.Pos{}

	for id, obj := range info.Uses {
		if id.Pos() < file.Pos() || id.Pos() >= file.End() {
			continue
		}

		v, ok := obj.(*types.Var)
		if !ok || v.IsField() || params[v] || v.Pkg() == nil || v.Parent() == nil || v.Parent() == v.Pkg().Scope() {
			continue
		}

		uses[v] = append(uses[v], id.Pos())
	}

	dropped := make([]bool, len(edits))

	inKept := func(p token.Pos) bool {
		for i, e := range edits {
			if !dropped[i] && p >= e.Pos && p < e.End {
				return true
			}
		}

		return false
	}

	// Restoring one call makes its variables used again, so repeat until no
	// further edit has to go.
	for changed := true; changed; {
		changed = false

		for i, e := range edits {
			if dropped[i] {
				continue
			}

			if v := orphanedLocal(e, uses, inKept); v != nil {
				dropped[i] = true
				changed = true

				report.addError(fset.Position(e.Pos), fmt.Errorf("cannot inline %q: %w %s", e.Key, errLastLocalUse, v.Name()))
			}
		}
	}

	kept := edits[:0]

	for i, e := range edits {
		if !dropped[i] {
			kept = append(kept, e)
		}
	}

	return kept
}

// orphanedLocal returns a variable declared outside e whose uses all sit in kept edits.
func orphanedLocal(e Edit, uses map[*types.Var][]token.Pos, inKept func(token.Pos) bool) *types.Var {
	for v, positions := range uses {
		if v.Pos() >= e.Pos && v.Pos() < e.End {
			continue
		}

		referenced, orphaned := false, true

		for _, p := range positions {
			if p >= e.Pos && p < e.End {
				referenced = true
			}

			if !inKept(p) {
				orphaned = false
			}
		}

		if referenced && orphaned {
			return v
		}
	}

	return nil
}

// unusedImports returns the paths of imports that are referenced only from
// inside edited ranges.
func unusedImports(file *ast.File, info *types.Info, edits []Edit) []string {
	if len(edits) == 0 {
		return nil
	}

	inEdit := func(p token.Pos) bool {
		for _, e := range edits {
			if p >= e.Pos && p < e.End {
				return true
			}
		}

		return false
	}

	seen := map[*types.PkgName]bool{}
	kept := map[*types.PkgName]bool{}

	ast.Inspect(file, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}

		if pn, ok := info.Uses[id].(*types.PkgName); ok {
			seen[pn] = true

			if !inEdit(id.Pos()) {
				kept[pn] = true
			}
		}

		return true
	})

	var out []string

	for _, spec := range file.Imports {
		var obj types.Object
		if spec.Name != nil {
			if spec.Name.Name == "_" || spec.Name.Name == "." {
				continue
			}

			obj = info.Defs[spec.Name]
		} else {
			obj = info.Implicits[spec]
		}

		pn, ok := obj.(*types.PkgName)
		if !ok {
			continue
		}

		if seen[pn] && !kept[pn] {
			out = append(out, pn.Imported().Path())
		}
	}

	return out
}
