package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	require.NoError(t, SetLevel("DEBUG"))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	require.NoError(t, SetLevel("warning"))
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
	assert.Error(t, SetLevel("verbose"))
}

func TestLeveledFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	Leveled{Entry: logrus.NewEntry(l)}.Info("request", "url", "http://erp/api", "retry", 2, "dangling")
	assert.Contains(t, buf.String(), `"url":"http://erp/api"`)
	assert.Contains(t, buf.String(), `"retry":2`)
	assert.NotContains(t, buf.String(), "dangling")
}
