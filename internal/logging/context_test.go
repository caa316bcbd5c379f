// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCorrelationID(t *testing.T) {
	a := GenerateCorrelationID()
	b := GenerateCorrelationID()

	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "cycle001")
	assert.Equal(t, "cycle001", CorrelationIDFromContext(ctx))
}

func TestCorrelationIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestContextWithNewCorrelationID(t *testing.T) {
	ctx := ContextWithNewCorrelationID(context.Background())
	assert.Len(t, CorrelationIDFromContext(ctx), 8)
}

func TestLoggerFromContext_FallsBackToGlobal(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	// The global logger is usable even when nothing is stored.
	logger.Debug().Msg("fallback")
}

func TestCtx_AttachesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "abc12345")

	Ctx(ctx).Info().Msg("upload batch committed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc12345", line["correlation_id"])
	assert.Equal(t, "upload batch committed", line["message"])
}

func TestCtx_NoCorrelationIDIsClean(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))

	Ctx(ctx).Info().Msg("no cycle context")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	_, present := line["correlation_id"]
	assert.False(t, present)
}

func TestCtxWith_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "def67890")

	logger := CtxWith(ctx).Str("tenant_id", "1").Logger()
	logger.Info().Msg("meter reconciliation")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "def67890", line["correlation_id"])
	assert.Equal(t, "1", line["tenant_id"])
}

func TestCtxLevelHelpers(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "lvl00001")

	CtxWarn(ctx).Msg("sync tick skipped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "lvl00001", line["correlation_id"])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&buf))
	defer SetLogger(prev)

	logger := WithComponent("upload")
	logger.Info().Msg("batch drained")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "upload", line["component"])
}
