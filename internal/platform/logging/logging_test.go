package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)

	ForService(logger, "email-service").WithField("email_id", "42").Info("sent")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sent", entry["msg"])
	assert.Equal(t, "email-service", entry["service"])
	assert.Equal(t, "42", entry["email_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_Levels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", &bytes.Buffer{}).GetLevel())
	assert.True(t, New("debug", &bytes.Buffer{}).ReportCaller)
	assert.Equal(t, logrus.InfoLevel, New("nonsense", &bytes.Buffer{}).GetLevel())
	assert.False(t, New("warn", &bytes.Buffer{}).ReportCaller)
}

func TestSetLevel(t *testing.T) {
	logger := New("info", &bytes.Buffer{})

	SetLevel(logger, "debug")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.True(t, logger.ReportCaller)

	SetLevel(logger, "")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.False(t, logger.ReportCaller)
}
