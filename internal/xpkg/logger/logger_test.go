package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/stretchr/testify/require"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("DEBUG", &buf)
	require.NoError(t, err)

	ctx := logtags.AddTag(context.Background(), "order", 42)
	l.Action("apply_transition").Ctx(ctx).Error("transition rejected", errors.New("boom"), "to", "SERVED")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "apply_transition", rec["action"])
	require.Equal(t, "42", rec["order"])
	require.Equal(t, "boom", rec["error"])
	require.Equal(t, "SERVED", rec["to"])
	require.Equal(t, "ERROR", rec["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("WARN", &buf)
	require.NoError(t, err)

	l.Info("dropped")
	require.Zero(t, buf.Len())
	l.Warn("kept")
	require.NotZero(t, buf.Len())
}

func TestUnknownLevel(t *testing.T) {
	_, err := NewWithWriter("LOUD", &bytes.Buffer{})
	require.Error(t, err)
}
