package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Service: "kinocatalog", Level: "debug", Output: &buf})

	log.WithField("page", 3).Debug("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kinocatalog", line["service"])
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, float64(3), line["page"])
}

func TestNewDefaults(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Service: "x", Level: "loud", Format: "text", Output: &buf})

	assert.Equal(t, logrus.InfoLevel, log.Logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Logger.Formatter)

	log.Debug("hidden")
	assert.Empty(t, buf.String())
}
