package ui

import (
	"context"
	"fmt"
)

// ProgressFunc receives human-readable progress lines; Spinner.Update fits.
type ProgressFunc func(msg string)

type progressKey struct{}

// WithProgress attaches fn to ctx. A nil fn leaves ctx unchanged.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, progressKey{}, fn)
}

// Progressf formats a progress line and hands it to the callback in ctx.
// Without a callback it does nothing.
func Progressf(ctx context.Context, format string, args ...any) {
	fn, _ := ctx.Value(progressKey{}).(ProgressFunc)
	if fn == nil {
		return
	}
	fn(fmt.Sprintf(format, args...))
}
