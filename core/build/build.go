// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package build drives an [inline.Inliner] over whole Go packages.

[Load] type-checks the packages matching a set of patterns with go/packages.
A [Builder] inlines every file of such a load concurrently for its locale and
writes the rewritten files below an output directory. It also writes an overlay file for "go build -overlay", which maps
each original path to its rewritten copy:

	msginline build --locale fr ./...
	go build -overlay .msginline/fr/overlay.json ./...

Files without any translation call are left out of the overlay and compile
from their original source.
*/
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"go/ast"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"

	"codeberg.org/pixivfe/msginline/core/audit"
	"codeberg.org/pixivfe/msginline/core/inline"
	"codeberg.org/pixivfe/msginline/core/lrucache"
)

// OverlayFileName is the overlay written inside OutDir when Options.Overlay is empty.
const OverlayFileName = "overlay.json"

// DefaultCacheSize bounds the rewritten-file cache when none is given.
const DefaultCacheSize = 512

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo

var (
	errPackageErrors = errors.New("packages contain errors")
	errNoOutDir      = errors.New("an output directory is required")
)

// Options configures a [Builder].
type Options struct {
	// Dir is the directory packages are loaded from. Output paths mirror
	// source paths relative to it.
	Dir string

	Patterns []string
	Tags     []string
	Tests    bool

	// OutDir receives the rewritten files.
	OutDir string

	// Overlay is the path of the overlay file. Empty selects OutDir/overlay.json.
	Overlay string

	// Concurrency bounds the number of files processed at once. Zero uses GOMAXPROCS.
	Concurrency int

	// DryRun reports diagnostics without writing anything.
	DryRun bool

	// Cache holds rewritten files between runs. Nil allocates a private cache.
	Cache *lrucache.Cache
}

// Builder runs one locale's inliner over a set of packages.
type Builder struct {
	inl    *inline.Inliner
	opts   Options
	cache  *lrucache.Cache
	logger zerolog.Logger
}

// New validates opts and returns a Builder.
func New(inl *inline.Inliner, opts Options) (*Builder, error) {
	err := opts.normalizeSource()
	if err != nil {
		return nil, err
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}

	if !opts.DryRun {
		if opts.OutDir == "" {
			return nil, errNoOutDir
		}

		if opts.OutDir, err = filepath.Abs(opts.OutDir); err != nil {
			return nil, err
		}

		if opts.Overlay == "" {
			opts.Overlay = filepath.Join(opts.OutDir, OverlayFileName)
		}

		if opts.Overlay, err = filepath.Abs(opts.Overlay); err != nil {
			return nil, err
		}
	}

	cache := opts.Cache
	if cache == nil {
		if cache, err = lrucache.New(DefaultCacheSize, true); err != nil {
			return nil, err
		}
	}

	return &Builder{
		inl:    inl,
		opts:   opts,
		cache:  cache,
		logger: log.With().Str("sys", "build").Str("locale", inl.Locale()).Logger(),
	}, nil
}

// normalizeSource makes Dir absolute and applies the default pattern.
func (o *Options) normalizeSource() error {
	if o.Dir == "" {
		o.Dir = "."
	}

	dir, err := filepath.Abs(o.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", o.Dir, err)
	}

	o.Dir = dir

	if len(o.Patterns) == 0 {
		o.Patterns = []string{"./..."}
	}

	return nil
}

// FileOutput describes one processed source file.
type FileOutput struct {
	Source string
	Output string // empty when nothing was written
	Edits  int
	Cached bool
	Report *inline.Report
}

// Result summarises a run.
type Result struct {
	Locale   string
	Packages int
	Files    []FileOutput // sorted by Source
	Overlay  string       // empty on dry runs or when no file changed
}

// Reports returns the reports of files that produced diagnostics.
func (r *Result) Reports() []*inline.Report {
	var out []*inline.Report

	for _, f := range r.Files {
		if f.Report != nil && !f.Report.Empty() {
			out = append(out, f.Report)
		}
	}

	return out
}

// HasErrors reports whether any file recorded an error diagnostic.
func (r *Result) HasErrors() bool {
	for _, f := range r.Files {
		if f.Report != nil && f.Report.HasErrors() {
			return true
		}
	}

	return false
}

// Rewritten counts files that had at least one call inlined.
func (r *Result) Rewritten() int {
	n := 0

	for _, f := range r.Files {
		if f.Edits > 0 {
			n++
		}
	}

	return n
}

type job struct {
	pkg  *packages.Package
	file *ast.File
	path string
}

// Packages is a type-checked package set. The syntax it holds is only read,
// so one load can serve the builders of every locale.
type Packages struct {
	pkgs []*packages.Package
	jobs []job
}

// Len returns the number of root packages.
func (p *Packages) Len() int { return len(p.pkgs) }

// Files returns the number of Go source files that will be inlined.
func (p *Packages) Files() int { return len(p.jobs) }

// Load loads and type-checks the packages selected by the source fields of
// opts (Dir, Patterns, Tags and Tests).
func Load(ctx context.Context, opts Options) (*Packages, error) {
	if err := opts.normalizeSource(); err != nil {
		return nil, err
	}

	span := audit.Span{Stage: audit.StageLoad}

	pkgs, err := loadPackages(span.Begin(ctx), opts)
	span.Files, span.Error = len(pkgs), err
	span.Log()

	if err != nil {
		return nil, err
	}

	return &Packages{pkgs: pkgs, jobs: collectJobs(pkgs)}, nil
}

// Run loads the packages and inlines every file once.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	pkgs, err := Load(ctx, b.opts)
	if err != nil {
		return nil, err
	}

	return b.RunPackages(ctx, pkgs)
}

// RunPackages inlines every file of pkgs, which must come from a [Load] with
// the same source options.
func (b *Builder) RunPackages(ctx context.Context, pkgs *Packages) (*Result, error) {
	jobs := pkgs.jobs
	outputs := make([]FileOutput, len(jobs))

	inlineSpan := audit.Span{Stage: audit.StageInline, Locale: b.inl.Locale(), Files: len(jobs)}
	defer inlineSpan.Log()

	g, gctx := errgroup.WithContext(inlineSpan.Begin(ctx))
	g.SetLimit(b.opts.Concurrency)

	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out, err := b.process(j)
			if err != nil {
				return err
			}

			outputs[i] = out

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Source < outputs[j].Source })

	res := &Result{Locale: b.inl.Locale(), Packages: pkgs.Len(), Files: outputs}

	if !b.opts.DryRun && res.Rewritten() > 0 {
		if err := writeOverlay(b.opts.Overlay, outputs); err != nil {
			return nil, err
		}

		res.Overlay = b.opts.Overlay
	}

	stats := b.cache.Stats()
	b.logger.Info().
		Int("packages", res.Packages).
		Int("files", len(res.Files)).
		Int("rewritten", res.Rewritten()).
		Uint64("cache_hits", stats.Hits).
		Bool("dry_run", b.opts.DryRun).
		Msg("Build finished")

	return res, nil
}

func loadPackages(ctx context.Context, opts Options) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Mode:    loadMode,
		Context: ctx,
		Dir:     opts.Dir,
		Tests:   opts.Tests,
	}

	if len(opts.Tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(opts.Tags, ",")}
	}

	pkgs, err := packages.Load(cfg, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error

	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, e)
		}
	})

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", errPackageErrors, errors.Join(errs...))
	}

	return pkgs, nil
}

// collectJobs lists each Go source file once. With Tests enabled a file can
// belong to several package variants; the first one loaded wins.
func collectJobs(pkgs []*packages.Package) []job {
	seen := map[string]bool{}

	var jobs []job

	for _, p := range pkgs {
		goFiles := make(map[string]bool, len(p.GoFiles))
		for _, f := range p.GoFiles {
			goFiles[f] = true
		}

		for i, f := range p.Syntax {
			if i >= len(p.CompiledGoFiles) {
				break
			}

			path := p.CompiledGoFiles[i]

			// Cgo-processed files have no source of their own to rewrite.
			if !goFiles[path] || seen[path] {
				continue
			}

			seen[path] = true
			jobs = append(jobs, job{pkg: p, file: f, path: path})
		}
	}

	return jobs
}

func (b *Builder) process(j job) (FileOutput, error) {
	res := b.inl.InlineFile(j.pkg.Fset, j.file, j.pkg.TypesInfo)
	out := FileOutput{Source: j.path, Edits: len(res.Edits), Report: res.Report}

	for _, d := range res.Report.Diagnostics() {
		ev := b.logger.Warn()
		if d.Severity == inline.SeverityError {
			ev = b.logger.Error()
		}

		ev.Str("pos", d.Pos.String()).Err(d.Err).Msg("Inline diagnostic")
	}

	if len(res.Edits) == 0 {
		return out, nil
	}

	src, err := os.ReadFile(j.path) // #nosec G304 -- paths come from go/packages
	if err != nil {
		return out, fmt.Errorf("failed to read %s: %w", j.path, err)
	}

	key := cacheKey(b.inl.Locale(), src, res)

	var rewritten []byte

	if v, ok := b.cache.Get(key); ok {
		rewritten, out.Cached = v.([]byte), true
	} else {
		if rewritten, err = Rewrite(j.path, src, res); err != nil {
			return out, err
		}

		b.cache.Add(key, rewritten)
	}

	if b.opts.DryRun {
		return out, nil
	}

	out.Output = b.outputPath(j.path)

	if err := os.MkdirAll(filepath.Dir(out.Output), 0o755); err != nil {
		return out, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(out.Output, rewritten, 0o600); err != nil {
		return out, fmt.Errorf("failed to write %s: %w", out.Output, err)
	}

	b.logger.Debug().
		Str("file", j.path).
		Int("edits", out.Edits).
		Bool("cached", out.Cached).
		Msg("Rewrote file")

	return out, nil
}

// outputPath mirrors src below OutDir. Files outside Dir, such as those of
// other modules in a workspace, are placed under "_ext".
func (b *Builder) outputPath(src string) string {
	rel, err := filepath.Rel(b.opts.Dir, src)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Join("_ext", strings.TrimPrefix(filepath.ToSlash(src), "/"))
		rel = strings.ReplaceAll(rel, ":", "")
	}

	return filepath.Join(b.opts.OutDir, rel)
}

func cacheKey(locale string, src []byte, res *inline.FileResult) string {
	h := sha256.New()

	h.Write([]byte(locale))
	h.Write([]byte{0})
	h.Write(src)

	for _, e := range res.Edits {
		fmt.Fprintf(h, "\x00%d:%d:%s", e.Offset, e.EndOffset, e.Text)
	}

	for _, p := range res.UnusedImports {
		fmt.Fprintf(h, "\x00-%s", p)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// overlay is the JSON document read by "go build -overlay".
type overlay struct {
	Replace map[string]string
}

func writeOverlay(path string, files []FileOutput) error {
	o := overlay{Replace: map[string]string{}}

	for _, f := range files {
		if f.Output != "" {
			o.Replace[f.Source] = f.Output
		}
	}

	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create overlay directory: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write overlay %s: %w", path, err)
	}

	return nil
}

// ReadOverlay loads an overlay file written by a previous run.
func ReadOverlay(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- overlay path comes from configuration
	if err != nil {
		return nil, err
	}

	var o overlay
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("invalid overlay %s: %w", path, err)
	}

	return o.Replace, nil
}
