// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"io"
)

// Translatable is a value that can translate itself using a context.
// Types such as [MsgKey] implement Translatable.
type Translatable interface {
	Tr(ctx context.Context) string
}

// MsgKey is a message key whose lookup is deferred until it is rendered.
// It suits keys stored in tables or struct fields, which the build step cannot inline.
type MsgKey string

// Tr translates this key for the locale in ctx.
// It is equivalent to calling [Tr] with the same key.
// The ctx may be nil, in which case the default locale is used.
func (s MsgKey) Tr(ctx context.Context) string {
	return Tr(ctx, string(s))
}

// String translates this key for the default locale.
func (s MsgKey) String() string {
	return T(string(s))
}

func (s MsgKey) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, s.Tr(ctx))

	return err
}
