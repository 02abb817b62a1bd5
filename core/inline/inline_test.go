// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package inline

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixivfe/msginline/core/catalog"
	"codeberg.org/pixivfe/msginline/core/msgformat"
)

// srcImporter type-checks dependencies from in-memory sources.
type srcImporter struct {
	fset     *token.FileSet
	sources  map[string]string
	packages map[string]*types.Package
}

func (im *srcImporter) Import(path string) (*types.Package, error) {
	if pkg, ok := im.packages[path]; ok {
		return pkg, nil
	}

	src, ok := im.sources[path]
	if !ok {
		return nil, fmt.Errorf("package %q not found", path)
	}

	f, err := parser.ParseFile(im.fset, path+".go", src, 0)
	if err != nil {
		return nil, err
	}

	conf := types.Config{Importer: im}

	pkg, err := conf.Check(path, im.fset, []*ast.File{f}, nil)
	if err != nil {
		return nil, err
	}

	im.packages[path] = pkg

	return pkg, nil
}

const i18nSrc = `package i18n

type Values map[string]any

func T(key string, values ...Values) string { return key }
`

const utilSrc = `package util

func Join(parts ...string) string {
	out := ""
	for _, p := range parts {
		out += p
	}

	return out
}
`

type checked struct {
	fset *token.FileSet
	file *ast.File
	info *types.Info
	src  string
}

func check(t *testing.T, src string) checked {
	t.Helper()

	fset := token.NewFileSet()
	im := &srcImporter{
		fset:     fset,
		sources:  map[string]string{"example.com/app/i18n": i18nSrc, "example.com/app/util": utilSrc},
		packages: map[string]*types.Package{},
	}

	f, err := parser.ParseFile(fset, "app.go", src, parser.ParseComments)
	require.NoError(t, err)

	info := &types.Info{
		Types:     map[ast.Expr]types.TypeAndValue{},
		Defs:      map[*ast.Ident]types.Object{},
		Uses:      map[*ast.Ident]types.Object{},
		Implicits: map[ast.Node]types.Object{},
	}

	conf := types.Config{Importer: im}
	_, err = conf.Check("example.com/app", fset, []*ast.File{f}, info)
	require.NoError(t, err)

	return checked{fset: fset, file: f, info: info, src: src}
}

// apply splices the edits into the source so assertions can read the result.
func (c checked) apply(edits []Edit) string {
	var b strings.Builder

	last := 0
	for _, e := range edits {
		b.WriteString(c.src[last:e.Offset])
		b.WriteString(e.Text)
		last = e.EndOffset
	}

	b.WriteString(c.src[last:])

	return b.String()
}

func texts(edits []Edit) []string {
	out := make([]string, len(edits))
	for i, e := range edits {
		out[i] = e.Text
	}

	return out
}

var testLanguages = catalog.Languages{
	"en": catalog.Map{
		"greeting": "Hello, {name}!",
		"inbox":    "{count, plural, one {# message} other {# messages}}",
		"plain":    "Just text",
		"broken":   "{count, plural, one {x}}",
		"percent":  "{ratio, number, percent}",
	},
	"pl": catalog.Map{
		"inbox": "{count, plural, one {# wiadomość} few {# wiadomości} many {# wiadomości} other {# wiadomości}}",
	},
}

func newInliner(t *testing.T, locale string, opts Options) *Inliner {
	t.Helper()

	in, err := New(locale, testLanguages, opts)
	require.NoError(t, err)

	return in
}

const appSrc = `package app

func __(key string, values ...map[string]any) string { return key }

const greetingKey = "greeting"

func dynamicKey() string { return "plain" }

func messages(n int, m map[string]any) []string {
	return []string{
		__("greeting", map[string]any{"name": "Ann"}),
		__(greetingKey, map[string]any{"name": "Bo" + "b"}),
		__("inbox", map[string]any{"count": 3}),
		__("inbox", map[string]any{"count": 1}),
		__("plain"),
		__("percent", map[string]any{"ratio": 0.25}),
		__(dynamicKey()),
		__("plain", m),
		__("plain", nil),
		__("plain", map[string]any{}, map[string]any{}),
	}
}
`

func TestInlineFile_ReplacesCalls(t *testing.T) {
	t.Parallel()

	c := check(t, appSrc)
	res := newInliner(t, "en", Options{}).InlineFile(c.fset, c.file, c.info)

	want := []string{
		`"Hello, Ann!"`,
		`"Hello, Bob!"`,
		`"3 messages"`,
		`"1 message"`,
		`"Just text"`,
		`"25%"`,
	}

	if diff := cmp.Diff(want, texts(res.Edits)); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, res.Report.Empty())
	assert.Equal(t, "app.go", res.Filename)

	out := c.apply(res.Edits)
	assert.Contains(t, out, `__(dynamicKey()),`)
	assert.Contains(t, out, `__("plain", m),`)
	assert.Contains(t, out, `__("plain", nil),`)
	assert.Contains(t, out, `__("plain", map[string]any{}, map[string]any{}),`)
	assert.Contains(t, out, `"Hello, Bob!",`)

	for _, e := range res.Edits {
		assert.Equal(t, "__(", c.src[e.Offset:e.Offset+3])
		assert.Equal(t, ")", c.src[e.EndOffset-1:e.EndOffset])
	}
}

func TestInlineFile_LocalePluralRules(t *testing.T) {
	t.Parallel()

	src := `package app

func __(key string, values ...map[string]any) string { return key }

var (
	a = __("inbox", map[string]any{"count": 1})
	b = __("inbox", map[string]any{"count": 3})
	c = __("inbox", map[string]any{"count": 5})
)
`

	c := check(t, src)
	res := newInliner(t, "pl", Options{}).InlineFile(c.fset, c.file, c.info)

	assert.Equal(t, []string{`"1 wiadomość"`, `"3 wiadomości"`, `"5 wiadomości"`}, texts(res.Edits))
}

const missingSrc = `package app

func __(key string, values ...map[string]any) string { return key }

var (
	a = __("missing.one")
	b = __("missing.two", map[string]any{"n": 2, "who": "Ann"})
	c = __("missing.one")
	d = __("greeting", map[string]any{"name": "Cy"})
)
`

func TestInlineFile_MissingWarns(t *testing.T) {
	t.Parallel()

	c := check(t, missingSrc)
	res := newInliner(t, "en", Options{}).InlineFile(c.fset, c.file, c.info)

	assert.Equal(t,
		[]string{`"missing.one"`, `"missing.two"`, `"missing.one"`, `"Hello, Cy!"`},
		texts(res.Edits))

	require.Len(t, res.Report.Warnings, 1)
	assert.Empty(t, res.Report.Errors)
	assert.False(t, res.Report.HasErrors())

	missing := res.Report.Missing()
	require.NotNil(t, missing)
	assert.Same(t, missing, res.Report.Warnings[0].Err)
	assert.Equal(t, []string{"missing.one", "missing.two"}, missing.Keys())
	assert.Equal(t, "app.go", missing.File)

	assert.Equal(t,
		"Missing localization: missing.one\n"+
			`Missing localization: missing.two ({"n":2,"who":"Ann"})`,
		missing.Error())

	d := res.Report.Warnings[0]
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, 6, d.Pos.Line)
	assert.True(t, strings.HasPrefix(d.String(), "app.go:6:"))
}

func TestInlineFile_MissingFails(t *testing.T) {
	t.Parallel()

	c := check(t, missingSrc)
	res := newInliner(t, "en", Options{FailOnMissing: true}).InlineFile(c.fset, c.file, c.info)

	assert.Len(t, res.Edits, 4)
	assert.Empty(t, res.Report.Warnings)
	require.Len(t, res.Report.Errors, 1)
	assert.Equal(t, SeverityError, res.Report.Errors[0].Severity)
	assert.True(t, res.Report.HasErrors())

	var target *MissingLocalizationError
	assert.ErrorAs(t, res.Report.Errors[0].Err, &target)
	assert.Len(t, target.Requests, 2)
}

func TestInlineFile_UnknownLocale(t *testing.T) {
	t.Parallel()

	c := check(t, missingSrc)
	res := newInliner(t, "ja", Options{}).InlineFile(c.fset, c.file, c.info)

	assert.Equal(t,
		[]string{`"missing.one"`, `"missing.two"`, `"missing.one"`, `"greeting"`},
		texts(res.Edits))
	assert.Equal(t, []string{"missing.one", "missing.two", "greeting"}, res.Report.Missing().Keys())
}

func TestInlineFile_FormatErrorLeavesCall(t *testing.T) {
	t.Parallel()

	src := `package app

func __(key string, values ...map[string]any) string { return key }

func f(n int) []string {
	return []string{
		__("inbox", map[string]any{"count": n}),
		__("broken", map[string]any{"count": 1}),
		__("greeting"),
	}
}
`

	c := check(t, src)
	res := newInliner(t, "en", Options{}).InlineFile(c.fset, c.file, c.info)

	assert.Empty(t, res.Edits)
	assert.Len(t, res.Report.Errors, 3)
	assert.Nil(t, res.Report.Missing())

	for _, d := range res.Report.Errors {
		assert.Equal(t, SeverityError, d.Severity)
	}

	assert.Contains(t, res.Report.Errors[0].Err.Error(), `"inbox"`)
}

func TestInlineFile_CallShapes(t *testing.T) {
	t.Parallel()

	src := `package app

func __(key string, values ...map[string]any) string { return key }

type greeter struct{}

func (greeter) __(key string) string { return key }

type props struct{ name string }

func other(key string, p props) string { return key }

func run(vals []map[string]any) {
	__("plain")
	defer __("plain")
	go __("plain")
	_ = __("plain", vals...)
	_ = greeter{}.__("plain")
	_ = (__)("plain")
	_ = __("plain", map[string]any{"x": __("greeting")})
}
`

	c := check(t, src)
	res := newInliner(t, "en", Options{}).InlineFile(c.fset, c.file, c.info)

	// Statement calls and the spread call stay. The method and the
	// parenthesised callee are replaced, and the nested call is covered by
	// the outer edit.
	assert.Equal(t, []string{`"Just text"`, `"Just text"`, `"Just text"`}, texts(res.Edits))
	assert.True(t, res.Report.Empty())
	assert.True(t, strings.HasPrefix(c.src[res.Edits[2].Offset:], `__("plain", map`))
}

func TestInlineFile_NestedCallAfterFailure(t *testing.T) {
	t.Parallel()

	src := `package app

func __(key string, values ...map[string]any) string { return key }

var x = __("greeting", map[string]any{"name": __("plain")})
`

	c := check(t, src)
	res := newInliner(t, "en", Options{}).InlineFile(c.fset, c.file, c.info)

	// The outer value is not constant, so formatting fails and the inner
	// call is inlined on its own.
	assert.Equal(t, []string{`"Just text"`}, texts(res.Edits))
	assert.Len(t, res.Report.Errors, 1)
	assert.Contains(t, c.apply(res.Edits), `__("greeting", map[string]any{"name": "Just text"})`)
}

func TestInlineFile_IgnoresNonStringResults(t *testing.T) {
	t.Parallel()

	src := `package app

func __(key string) (string, error) { return key, nil }

var _, _ = __("plain")
`

	c := check(t, src)
	res := newInliner(t, "en", Options{}).InlineFile(c.fset, c.file, c.info)

	assert.Empty(t, res.Edits)
}

func TestInlineFile_ObjectValues(t *testing.T) {
	t.Parallel()

	src := `package app

type V struct {
	Name  string
	Count int
}

func __(key string, v V) string { return key }

const who = "Dee"

var x = __("greeting", V{Name: who, Count: 2})
`

	c := check(t, src)
	in, err := New("en", catalog.Languages{"en": catalog.Map{
		"greeting": "{Name} has {Count, plural, one {# item} other {# items}}",
	}}, Options{})
	require.NoError(t, err)

	res := in.InlineFile(c.fset, c.file, c.info)
	assert.Equal(t, []string{`"Dee has 2 items"`}, texts(res.Edits))
}

const localsSrc = `package app

func __(key string, values ...map[string]any) string { return key }

func only(user string) string {
	name := user + "!"
	return __("plain", map[string]any{"name": name})
}

func param(user string) string {
	return __("plain", map[string]any{"name": user})
}

func usedElsewhere(user string) (string, string) {
	name := user + "?"
	return name, __("plain", map[string]any{"name": name})
}

func shared(user string) []string {
	name := user + "."
	return []string{
		__("plain", map[string]any{"name": name}),
		__("plain", map[string]any{"name": name}),
	}
}

func declaredInside() string {
	return __("plain", map[string]any{"f": func() int { n := 1; return n }()})
}
`

func TestInlineFile_KeepsLocalsUsed(t *testing.T) {
	t.Parallel()

	c := check(t, localsSrc)
	res := newInliner(t, "en", Options{}).InlineFile(c.fset, c.file, c.info)

	out := c.apply(res.Edits)

	// The rewritten file must still type-check.
	check(t, out)

	assert.Contains(t, out, `return __("plain", map[string]any{"name": name})`)
	assert.Contains(t, out, "func param(user string) string {\n\treturn \"Just text\"", "parameters may go unused")
	assert.Contains(t, out, `return name, "Just text"`)
	assert.Contains(t, out, "func declaredInside() string {\n\treturn \"Just text\"")
	assert.Equal(t, 1, strings.Count(out, `__("plain", map[string]any{"name": name}),`))

	require.Len(t, res.Report.Errors, 2)

	for _, d := range res.Report.Errors {
		require.ErrorIs(t, d.Err, errLastLocalUse)
		assert.Contains(t, d.Err.Error(), "name")
	}

	assert.Equal(t, 7, res.Report.Errors[0].Pos.Line)
}

const qualifiedSrc = `package app

import (
	"example.com/app/i18n"
	"example.com/app/util"
)

func T(key string, values ...map[string]any) string { return key }

var (
	a = i18n.T("greeting", i18n.Values{"name": "Eve"})
	b = T("plain")
	c = util.Join("x", "y")
)
`

func TestInlineFile_QualifiedFunction(t *testing.T) {
	t.Parallel()

	c := check(t, qualifiedSrc)
	res := newInliner(t, "en", Options{FunctionName: "example.com/app/i18n.T"}).
		InlineFile(c.fset, c.file, c.info)

	assert.Equal(t, []string{`"Hello, Eve!"`}, texts(res.Edits))
	assert.Equal(t, []string{"example.com/app/i18n"}, res.UnusedImports)

	// A bare name matches both functions.
	res = newInliner(t, "en", Options{FunctionName: "T"}).InlineFile(c.fset, c.file, c.info)
	assert.Len(t, res.Edits, 2)
}

func TestInlineFile_ImportStillUsed(t *testing.T) {
	t.Parallel()

	src := strings.Replace(qualifiedSrc,
		`b = T("plain")`,
		`b = T("plain", i18n.Values{})
	v i18n.Values`, 1)

	c := check(t, src)
	res := newInliner(t, "en", Options{FunctionName: "example.com/app/i18n.T"}).
		InlineFile(c.fset, c.file, c.info)

	assert.Len(t, res.Edits, 1)
	assert.Empty(t, res.UnusedImports)
}

func TestParseFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Func
		wantErr bool
	}{
		{in: "", want: Func{Name: "__"}},
		{in: "  T ", want: Func{Name: "T"}},
		{in: "example.com/app/i18n.T", want: Func{PkgPath: "example.com/app/i18n", Name: "T"}},
		{in: "i18n.Tr", want: Func{PkgPath: "i18n", Name: "Tr"}},
		{in: "example.com/app", wantErr: true},
		{in: ".T", wantErr: true},
		{in: "a b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFunc(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errInvalidFunctionName)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "example.com/app/i18n.T", Func{PkgPath: "example.com/app/i18n", Name: "T"}.String())
	assert.Equal(t, "__", Func{Name: "__"}.String())
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := New("en", testLanguages, Options{FunctionName: "bad name"})
	assert.ErrorIs(t, err, errInvalidFunctionName)

	_, err = New("en", testLanguages, Options{CustomFormats: &msgformat.Formats{
		Number: map[string]msgformat.NumberFormat{"odd": {Style: "roman"}},
	}})
	assert.Error(t, err)
}

func TestNew_CanonicalLocale(t *testing.T) {
	t.Parallel()

	in := newInliner(t, "pl_pl", Options{})
	assert.Equal(t, "pl-PL", in.Locale())
}
