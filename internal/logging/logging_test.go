package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/testutil"
)

func TestMultiHandlerFansOut(t *testing.T) {
	var info, errs bytes.Buffer
	logger := slog.New(NewMultiHandler(
		NewJSONHandler(&info, "info"),
		NewJSONHandler(&errs, "error"),
	)).With("component", "test")

	logger.Info("hello")
	logger.Error("boom", "error", "bad")

	assert.Equal(t, 2, bytes.Count(info.Bytes(), []byte("\n")))
	assert.Equal(t, 1, bytes.Count(errs.Bytes(), []byte("\n")))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(errs.Bytes()), &line))
	assert.Equal(t, "boom", line["msg"])
	assert.Equal(t, "test", line["component"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestPGHandlerPersistsErrors(t *testing.T) {
	db := testutil.NewDB(t)
	h := NewPGHandler(db, time.Hour)
	logger := slog.New(h).With("table", "reviews")

	logger.Info("ignored")
	logger.Error("insert failed", "error", "constraint", "viewer", "u-1", "request_id", "req-9", "method", "POST", "attempt", 2)
	h.Stop()

	var rows []models.SystemLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "insert failed", rows[0].Message)
	assert.Equal(t, "reviews", rows[0].Table)
	assert.Equal(t, "constraint", rows[0].Error)
	assert.Equal(t, "req-9", rows[0].RequestID)
	assert.Equal(t, "POST", rows[0].Method)
	require.NotNil(t, rows[0].ViewerID)
	assert.Equal(t, "u-1", *rows[0].ViewerID)
	assert.Contains(t, string(rows[0].Extra), "attempt")
}

func TestRetentionPurge(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now()
	require.NoError(t, db.Create(&models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-40 * 24 * time.Hour), Level: "ERROR", Extra: []byte("{}")}).Error)
	require.NoError(t, db.Create(&models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-time.Hour), Level: "ERROR", Extra: []byte("{}")}).Error)

	r := NewRetention(db, 30*24*time.Hour, "@daily")
	assert.Equal(t, int64(1), r.Purge(context.Background(), now))

	var left int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

func TestRetentionRejectsBadSpec(t *testing.T) {
	r := NewRetention(nil, time.Hour, "not a spec")
	assert.Error(t, r.Start())
}
