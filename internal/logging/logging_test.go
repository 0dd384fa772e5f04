package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug", "json")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("nurses", 3).Info("hello")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, float64(3), line["nurses"])
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestWatermillAdapter(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var adapter watermill.LoggerAdapter = NewWatermillAdapter(logger)

	adapter.With(watermill.LogFields{"topic": "t"}).Error("publish failed", errors.New("boom"), nil)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "publish failed", entry.Message)
	assert.Equal(t, "t", entry.Data["topic"])
	assert.Equal(t, "watermill", entry.Data["component"])
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "boom")
}
