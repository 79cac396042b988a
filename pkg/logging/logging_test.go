package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level     string
		infoShown bool
		warnShown bool
	}{
		{level: "info", infoShown: true, warnShown: true},
		{level: "", infoShown: true, warnShown: true},
		{level: "WARN", infoShown: false, warnShown: true},
		{level: "error", infoShown: false, warnShown: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := NewWithWriter(&buf, tt.level)

			l.Info("info_line")
			assert.Equal(t, tt.infoShown, bytes.Contains(buf.Bytes(), []byte("info_line")))

			l.Warn("warn_line")
			assert.Equal(t, tt.warnShown, bytes.Contains(buf.Bytes(), []byte("warn_line")))
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info").With("request_id", "abc")

	ctx := IntoContext(context.Background(), l)
	FromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, "hello", line["msg"])
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
