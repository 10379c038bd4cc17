package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello", "k", 1)

	assert.Same(t, logger, FromContext(ctx))
	assert.Contains(t, buf.String(), "hello")
}

func TestFallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestDiscard(t *testing.T) {
	ctx := Discard(context.Background())
	assert.False(t, FromContext(ctx).Enabled(ctx, slog.LevelError))
}
