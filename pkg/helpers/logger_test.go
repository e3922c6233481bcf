package helpers

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "campus-events-api", "production", "")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger.WithField("event_id", "e1").Info("event created")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "event created", line["msg"])
	assert.Equal(t, "e1", line["event_id"])
}

func TestNewLogger_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, logrus.DebugLevel, newLogger(&buf, "app", "development", "").GetLevel())
	assert.Equal(t, logrus.WarnLevel, newLogger(&buf, "app", "development", "warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger(&buf, "app", "staging", "nonsense").GetLevel())
}
