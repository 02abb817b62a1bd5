// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package build

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"

	"codeberg.org/pixivfe/msginline/core/inline"
)

var errOverlappingEdits = errors.New("overlapping edits")

// Splice applies edits, which must be sorted by offset, to src.
func Splice(src []byte, edits []inline.Edit) ([]byte, error) {
	var buf bytes.Buffer

	buf.Grow(len(src))

	last := 0

	for _, e := range edits {
		if e.Offset < last || e.EndOffset < e.Offset || e.EndOffset > len(src) {
			return nil, fmt.Errorf("%w at offset %d", errOverlappingEdits, e.Offset)
		}

		buf.Write(src[last:e.Offset])
		buf.WriteString(e.Text)

		last = e.EndOffset
	}

	buf.Write(src[last:])

	return buf.Bytes(), nil
}

// Rewrite produces the gofmt'ed output for one inlined file.
func Rewrite(filename string, src []byte, res *inline.FileResult) ([]byte, error) {
	spliced, err := Splice(src, res.Edits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if len(res.UnusedImports) == 0 {
		out, err := format.Source(spliced)
		if err != nil {
			return nil, fmt.Errorf("failed to format %s: %w", filename, err)
		}

		return out, nil
	}

	fset := token.NewFileSet()

	f, err := parser.ParseFile(fset, filename, spliced, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to reparse %s: %w", filename, err)
	}

	for _, path := range res.UnusedImports {
		for _, imp := range f.Imports {
			p, err := strconv.Unquote(imp.Path.Value)
			if err != nil || p != path {
				continue
			}

			name := ""
			if imp.Name != nil {
				name = imp.Name.Name
			}

			astutil.DeleteNamedImport(fset, f, name, path)

			break
		}
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", filename, err)
	}

	return buf.Bytes(), nil
}
